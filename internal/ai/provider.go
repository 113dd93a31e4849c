package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnemet/LessonForge/internal/config"
)

// Usage is the token accounting of one call, when the provider reports it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the raw text answer of a provider.
type Response struct {
	Text  string
	Usage Usage
}

// Provider sends a single prompt and asks for a JSON answer.
type Provider interface {
	Name() string
	Model() string
	GenerateJSON(ctx context.Context, prompt string) (*Response, error)
	Close() error
}

// NewProvider builds the driver named by settings.Driver. A missing key yields
// ErrNotConfigured; the mock driver needs none.
func NewProvider(ctx context.Context, name string, settings config.ProviderSettings) (Provider, error) {
	driver := strings.ToLower(settings.Driver)
	if driver == "" {
		driver = strings.ToLower(name)
	}
	if driver != "mock" && settings.Key == "" {
		return nil, fmt.Errorf("%w: %s has no API key", ErrNotConfigured, name)
	}

	switch driver {
	case "gemini", "google":
		return newGeminiProvider(ctx, name, settings)
	case "openai":
		return newOpenAIProvider(name, settings), nil
	case "claude", "anthropic":
		return newClaudeProvider(name, settings), nil
	case "mock":
		return NewMockProvider(), nil
	}
	return nil, fmt.Errorf("unknown ai driver %q for provider %s", settings.Driver, name)
}

// NewFromConfig builds the active provider of cfg.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	name, settings := cfg.Active()
	return NewProvider(ctx, name, settings)
}
