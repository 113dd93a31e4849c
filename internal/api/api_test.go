package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/LessonForge/internal/ai"
	"github.com/gnemet/LessonForge/internal/catalog"
	"github.com/gnemet/LessonForge/internal/config"
	"github.com/gnemet/LessonForge/internal/engine"
	"github.com/gnemet/LessonForge/internal/imagesearch"
	"github.com/gnemet/LessonForge/internal/lesson"
	"github.com/gnemet/LessonForge/internal/pptx"
)

type testServer struct {
	srv  *httptest.Server
	mock *ai.MockProvider
}

func newTestServer(t *testing.T, provider ai.Provider) *testServer {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 16, 16))))
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img.Bytes())
	}))
	t.Cleanup(images.Close)

	dir := t.TempDir()
	tplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tplDir, 0755))
	data, err := pptx.NewBlankTemplate(pptx.DefaultLayouts())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tplDir, "modern_template.pptx"), data, 0644))

	cat := catalog.New(tplDir, nil, pptx.WithGenericPlaceholders(true))
	require.NoError(t, cat.Refresh())
	search, err := imagesearch.New(context.Background(), config.ImageSearchConfig{PlaceholderURL: images.URL}, nil)
	require.NoError(t, err)

	mediaDir := filepath.Join(dir, "media")
	svc := lesson.NewService(lesson.Deps{
		Catalog:   cat,
		Generator: ai.NewGenerator(provider, nil),
		Images:    search,
		Engine: engine.New(engine.Options{
			GenericCapable: true,
			Images:         &engine.ImageFetcher{Client: images.Client()},
		}),
		OutputDir: mediaDir,
	})

	srv := httptest.NewServer(New(svc, nil, "en", mediaDir).Routes())
	t.Cleanup(srv.Close)
	ts := &testServer{srv: srv}
	if m, ok := provider.(*ai.MockProvider); ok {
		ts.mock = m
	}
	return ts
}

func (ts *testServer) post(t *testing.T, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(ts.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	resp, body := ts.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestListTemplates(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	for _, path := range []string{"/api/templates/", "/api/templates"} {
		resp, body := ts.get(t, path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		templates := body["templates"].([]interface{})
		require.Len(t, templates, 1)
		first := templates[0].(map[string]interface{})
		assert.Equal(t, "modern_template.pptx", first["filename"])
		assert.Len(t, first["layouts"], len(pptx.DefaultLayouts()))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	resp, body := ts.get(t, "/api/build/")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	req, _ := http.NewRequest(http.MethodOptions, ts.srv.URL+"/api/build/", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestGenerateOutline(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider(`[{"slide_number":1,"layout_id":0,"title":"Volcanoes","purpose":"Intro","content_plan":"Hook"}]`))
	resp, body := ts.post(t, "/api/generate/outline/", `{"topic":"Volcanoes","grade":"6","duration":"45","template_filename":"modern_template.pptx"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outline := body["outline"].([]interface{})
	require.Len(t, outline, 1)
	assert.Equal(t, "Volcanoes", outline[0].(map[string]interface{})["title"])
}

func TestGenerateOutlineErrors(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())

	resp, body := ts.post(t, "/api/generate/outline/", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid JSON body", body["error"])

	resp, body = ts.post(t, "/api/generate/outline/", `{"grade":"6"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Topic is required", body["error"])

	resp, _ = ts.post(t, "/api/generate/outline/", `{"topic":"x","template_filename":"missing.pptx"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.post(t, "/api/generate/outline/", `{"topic":"x","template_filename":"../x.pptx"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts.mock.Queue("not json at all")
	resp, body = ts.post(t, "/api/generate/outline/", `{"topic":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to generate outline", body["error"])
}

func TestLocalizedErrors(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	req, _ := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/generate/outline/", strings.NewReader(`{}`))
	req.AddCookie(&http.Cookie{Name: "lang", Value: "hu"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, "A téma megadása kötelező", body["error"])
}

func TestGenerateWithoutProvider(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, body := ts.post(t, "/api/generate/presentation/", `{"topic":"Fractions","grade":"3"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "AI provider is not configured", body["error"])
}

func TestGenerateSlide(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider(`{"0":"Title","1":"Body text"}`))
	resp, body := ts.post(t, "/api/generate/slide/", `{"title":"Intro","purpose":"p","grade":"5","layout_id":1,"template_filename":"modern_template.pptx"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"0": "Title", "1": "Body text"}, body["content"])

	resp, body = ts.post(t, "/api/generate/slide/", `{"title":"Intro","layout_id":99,"template_filename":"modern_template.pptx"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid layout_id", body["error"])
}

func TestGeneratePresentation(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider(`{"slides":[{"slide_number":1,"title":"Fractions","layout_id":0,"content":{"0":"Fractions"}}]}`))
	resp, body := ts.post(t, "/api/generate/presentation/", `{"topic":"Fractions","grade":"3"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["slides"], 1)
	assert.Equal(t, body["slides"], body["outline"])
}

func TestSearchImages(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	resp, body := ts.post(t, "/api/search/images/", `{"query":"volcano","num_results":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["images"], 2)

	resp, body = ts.post(t, "/api/search/images/", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Query is required", body["error"])
}

func TestBuildAndDownload(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	resp, body := ts.post(t, "/api/build/", `{
		"template_filename": "modern_template.pptx",
		"output_filename": "volcanoes",
		"slides": [
			{"layout_id": 0, "content": {"0": "Volcanoes", "1": "Grade 6"}},
			{"layout_id": 3, "content": {"0": "Inside", "1": {"type": "image", "query": "volcano"}, "2": "Magma"}},
			{"layout_id": 42, "content": {"0": "lost"}}
		]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "/media/volcanoes.pptx", body["download_url"])
	report := body["report"].(map[string]interface{})
	assert.Equal(t, "partial", report["status"])

	dl, err := http.Get(ts.srv.URL + "/media/volcanoes.pptx")
	require.NoError(t, err)
	defer dl.Body.Close()
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Contains(t, dl.Header.Get("Content-Type"), "presentationml")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(dl.Body)
	require.NoError(t, err)
	p, err := pptx.OpenBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, p.SlideCount())
}

func TestBuildValidation(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	resp, body := ts.post(t, "/api/build/", `{"slides":[{"layout_id":0,"content":{}}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "template_filename is required", body["error"])

	resp, _ = ts.post(t, "/api/build/", `{"template_filename":"modern_template.pptx","slides":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.post(t, "/api/build/", `{"template_filename":"nope.pptx","slides":[{"layout_id":0,"content":{}}]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMediaRejectsTraversalAndMissing(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	for _, path := range []string{"/media/missing.pptx", "/media/", "/media/notes.txt"} {
		resp, err := http.Get(ts.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestDecksWithoutDatabase(t *testing.T) {
	ts := newTestServer(t, ai.NewMockProvider())
	resp, _ := ts.get(t, "/api/decks/")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
