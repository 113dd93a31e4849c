// Package imagesearch turns short keyword queries into image URLs using the
// Google Programmable Search (Custom Search JSON) API.
package imagesearch

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/gnemet/LessonForge/internal/config"
	"github.com/gnemet/LessonForge/internal/logger"
)

// maxResults is the largest page the Custom Search API returns.
const maxResults = 10

type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Width       int64  `json:"width"`
	Height      int64  `json:"height"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

type Service struct {
	cfg config.ImageSearchConfig
	cse *customsearch.Service
	log *logger.Logger
}

// New builds the search service. Without credentials it still works and
// returns placeholder images for every query.
func New(ctx context.Context, cfg config.ImageSearchConfig, log *logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.PlaceholderURL == "" {
		cfg.PlaceholderURL = "https://picsum.photos"
	}
	s := &Service{cfg: cfg, log: log}

	if !cfg.Configured() {
		log.Warn("Image search credentials not configured, using placeholder images",
			"hint", "set GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_ENGINE_ID")
		return s, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.Key)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search client: %w", err)
	}
	s.cse = svc
	return s, nil
}

// Configured reports whether real searches are performed.
func (s *Service) Configured() bool {
	return s.cse != nil
}

// Search returns up to num images for query. Upstream failures are logged and
// answered with placeholders, so the result is never empty for num > 0.
func (s *Service) Search(ctx context.Context, query string, num int) []Result {
	if num < 1 {
		num = 1
	}
	if num > maxResults {
		num = maxResults
	}
	if s.cse == nil {
		return Placeholders(s.cfg.PlaceholderURL, query, num)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.cse.Cse.List().
		Cx(s.cfg.EngineID).
		Q(query).
		SearchType("image").
		Num(int64(num)).
		Safe("active"). // educational content
		ImgSize("LARGE").
		FileType("jpg|png").
		Context(ctx).
		Do()
	if err != nil {
		s.log.Error("Image search failed", "query", query, "error", err)
		return Placeholders(s.cfg.PlaceholderURL, query, num)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		r := Result{URL: item.Link, Title: item.Title}
		if item.Image != nil {
			r.Thumbnail = item.Image.ThumbnailLink
			r.Width = item.Image.Width
			r.Height = item.Image.Height
		}
		results = append(results, r)
	}
	s.log.Debug("Image search", "query", query, "results", len(results), "elapsed", time.Since(start))
	return results
}

// BestImage returns the first result URL for query, or "" if there is none.
func (s *Service) BestImage(ctx context.Context, query string) string {
	results := s.Search(ctx, query, 1)
	if len(results) == 0 {
		return ""
	}
	return results[0].URL
}

// BatchSearch resolves several queries, one search per distinct query.
// Queries without a result are left out of the map.
func (s *Service) BatchSearch(ctx context.Context, queries []string) map[string]string {
	out := make(map[string]string, len(queries))
	for _, q := range queries {
		if _, done := out[q]; done {
			continue
		}
		if url := s.BestImage(ctx, q); url != "" {
			out[q] = url
		}
	}
	return out
}

// Placeholders returns num deterministic stand-in images for query. The same
// query always yields the same URLs.
func Placeholders(baseURL, query string, num int) []Result {
	base := strings.TrimRight(baseURL, "/")
	seed := queryHash(query)
	out := make([]Result, 0, num)
	for i := 0; i < num; i++ {
		n := uint64(seed) + uint64(i)
		out = append(out, Result{
			URL:         fmt.Sprintf("%s/800/600?random=%d", base, n),
			Title:       "Placeholder for: " + query,
			Thumbnail:   fmt.Sprintf("%s/200/150?random=%d", base, n),
			Width:       800,
			Height:      600,
			Placeholder: true,
		})
	}
	return out
}

func queryHash(query string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(query))
	return h.Sum32()
}
