package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"

	// Web formats the standard library cannot decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxImageSide bounds the longer side of embedded pictures. Larger images are
// scaled down before being written into the deck.
const maxImageSide = 2400

// Picture is an image normalized to PNG.
type Picture struct {
	PNG    []byte
	Width  int
	Height int
	Format string // source format as reported by image.Decode
}

// ImageFetcher downloads images for picture placeholders.
type ImageFetcher struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64
}

// Fetch downloads url and normalizes it. Any non-2xx status is an error.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) (*Picture, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}
	// Some hosts reject the default Go client identification.
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image request returned status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", f.MaxBytes)
	}
	return Normalize(data)
}

// Normalize decodes any supported raster format and re-encodes it as PNG.
func Normalize(data []byte) (*Picture, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = fitWithin(img, maxImageSide)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	b := img.Bounds()
	return &Picture{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy(), Format: format}, nil
}

func fitWithin(img image.Image, side int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= side && h <= side {
		return img
	}
	if w >= h {
		h = h * side / w
		w = side
	} else {
		w = w * side / h
		h = side
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
