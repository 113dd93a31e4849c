// Package api exposes the lesson service as a JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gnemet/LessonForge/internal/ai"
	"github.com/gnemet/LessonForge/internal/catalog"
	"github.com/gnemet/LessonForge/internal/i18n"
	"github.com/gnemet/LessonForge/internal/lesson"
	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

const maxBodyBytes = 10 << 20

type Handler struct {
	svc      *lesson.Service
	log      *logger.Logger
	lang     string
	mediaDir string
}

// New builds the handler set. lang is the fallback language of messages;
// mediaDir is where built decks are served from.
func New(svc *lesson.Service, log *logger.Logger, lang, mediaDir string) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{svc: svc, log: log, lang: lang, mediaDir: mediaDir}
}

// Routes returns the complete HTTP handler including middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	route := func(path string, fn http.HandlerFunc) {
		mux.HandleFunc(path+"{$}", fn)
		mux.HandleFunc(strings.TrimSuffix(path, "/"), fn)
	}

	mux.HandleFunc("/health", h.method(http.MethodGet, h.health))
	route("/api/templates/", h.method(http.MethodGet, h.listTemplates))
	route("/api/generate/outline/", h.method(http.MethodPost, h.generateOutline))
	route("/api/generate/slide/", h.method(http.MethodPost, h.generateSlide))
	route("/api/generate/presentation/", h.method(http.MethodPost, h.generatePresentation))
	route("/api/search/images/", h.method(http.MethodPost, h.searchImages))
	route("/api/build/", h.method(http.MethodPost, h.build))
	route("/api/decks/", h.method(http.MethodGet, h.listDecks))
	mux.Handle("/media/", http.StripPrefix("/media/", h.media()))

	return withRequest(h.log, mux)
}

func (h *Handler) method(m string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			w.Header().Set("Allow", m)
			writeError(w, http.StatusMethodNotAllowed, i18n.T(h.langOf(r), "error.method_not_allowed"))
			return
		}
		fn(w, r)
	}
}

func (h *Handler) langOf(r *http.Request) string {
	return i18n.GetLang(r, h.lang)
}

// decode reads the JSON body into v, answering 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		requestLogger(r.Context(), h.log).Warn("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, i18n.T(h.langOf(r), "error.invalid_json"))
		return false
	}
	return true
}

// fail maps a service error to a status and a localized message. fallbackKey
// is used for unexpected errors.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallbackKey string) {
	lang := h.langOf(r)
	status, msg := http.StatusInternalServerError, i18n.T(lang, fallbackKey)

	switch {
	case errors.Is(err, catalog.ErrInvalidName):
		status, msg = http.StatusBadRequest, i18n.T(lang, "error.template_invalid")
	case errors.Is(err, pptx.ErrTemplateNotFound):
		status, msg = http.StatusNotFound, i18n.T(lang, "error.template_not_found")
	case errors.Is(err, lesson.ErrInvalidLayout):
		status, msg = http.StatusBadRequest, i18n.T(lang, "error.invalid_layout")
	case errors.Is(err, lesson.ErrInvalidRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, lesson.ErrHistoryUnavailable):
		status, msg = http.StatusServiceUnavailable, i18n.T(lang, "error.history_unavailable")
	case errors.Is(err, ai.ErrNotConfigured):
		status, msg = http.StatusServiceUnavailable, i18n.T(lang, "error.ai_not_configured")
	case ai.IsKind(err, ai.ErrorRateLimit), ai.IsKind(err, ai.ErrorQuotaExceeded):
		status, msg = http.StatusTooManyRequests, i18n.T(lang, "error.ai_rate_limit")
	}

	log := requestLogger(r.Context(), h.log)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Warn("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, msg)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"templates": len(h.svc.Templates()),
		"history":   h.svc.HistoryEnabled(),
	})
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": h.svc.Templates()})
}

func (h *Handler) generateOutline(w http.ResponseWriter, r *http.Request) {
	var req lesson.OutlineRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, i18n.T(h.langOf(r), "error.topic_required"))
		return
	}
	outline, err := h.svc.Outline(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "error.outline_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"outline": outline})
}

func (h *Handler) generateSlide(w http.ResponseWriter, r *http.Request) {
	var req lesson.SlideRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.svc.SlideContent(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "error.slide_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"content": c})
}

func (h *Handler) generatePresentation(w http.ResponseWriter, r *http.Request) {
	var req lesson.OutlineRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, i18n.T(h.langOf(r), "error.topic_required"))
		return
	}
	slides, err := h.svc.Presentation(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "error.presentation_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slides": slides, "outline": slides})
}

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

func (h *Handler) searchImages(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, i18n.T(h.langOf(r), "error.query_required"))
		return
	}
	images, err := h.svc.SearchImages(r.Context(), req.Query, req.NumResults)
	if err != nil {
		h.fail(w, r, err, "error.not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"images": images})
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request) {
	var req lesson.BuildRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.TemplateFilename == "" {
		writeError(w, http.StatusBadRequest, i18n.T(h.langOf(r), "error.template_required"))
		return
	}
	if len(req.Slides) == 0 {
		writeError(w, http.StatusBadRequest, i18n.T(h.langOf(r), "error.slides_required"))
		return
	}
	res, err := h.svc.Build(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "error.build_failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listDecks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	decks, err := h.svc.Decks(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, "error.not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

// media serves built decks as downloads. Directory listings are not exposed.
func (h *Handler) media() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if name == "" || name != filepath.Base(name) || !strings.EqualFold(filepath.Ext(name), ".pptx") {
			writeError(w, http.StatusNotFound, i18n.T(h.langOf(r), "error.not_found"))
			return
		}
		path := filepath.Join(h.mediaDir, name)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			writeError(w, http.StatusNotFound, i18n.T(h.langOf(r), "error.not_found"))
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		http.ServeFile(w, r, path)
	})
}
