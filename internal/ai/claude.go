package ai

import (
	"context"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/gnemet/LessonForge/internal/config"
)

const (
	defaultClaudeModel     = "claude-3-5-haiku-latest"
	defaultClaudeMaxTokens = 4096
)

type claudeProvider struct {
	name     string
	settings config.ProviderSettings
	client   *anthropic.Client
}

func newClaudeProvider(name string, s config.ProviderSettings) *claudeProvider {
	var opts []anthropic.ClientOption
	if s.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(s.Endpoint))
	}
	if s.Model == "" {
		s.Model = defaultClaudeModel
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = defaultClaudeMaxTokens
	}
	return &claudeProvider{name: name, settings: s, client: anthropic.NewClient(s.Key, opts...)}
}

func (p *claudeProvider) Name() string  { return p.name }
func (p *claudeProvider) Model() string { return p.settings.Model }
func (p *claudeProvider) Close() error  { return nil }

func (p *claudeProvider) GenerateJSON(ctx context.Context, prompt string) (*Response, error) {
	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(p.settings.Model),
		System:    "You answer with a single valid JSON document and nothing else.",
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
		MaxTokens: p.settings.MaxTokens,
	}
	if p.settings.Temperature > 0 {
		t := float32(p.settings.Temperature)
		req.Temperature = &t
	}

	resp, err := p.client.CreateMessages(ctx, req)
	if err != nil {
		return nil, classify(p.name, err)
	}
	text := resp.GetFirstContentText()
	if text == "" {
		return nil, newBadResponse(p.name, "empty message content", nil)
	}
	return &Response{
		Text: text,
		Usage: Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
