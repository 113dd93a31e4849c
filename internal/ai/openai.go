package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gnemet/LessonForge/internal/config"
)

const defaultOpenAIModel = openai.GPT4oMini

type openAIProvider struct {
	name     string
	settings config.ProviderSettings
	client   *openai.Client
}

func newOpenAIProvider(name string, s config.ProviderSettings) *openAIProvider {
	cfg := openai.DefaultConfig(s.Key)
	if s.Endpoint != "" {
		cfg.BaseURL = s.Endpoint
	}
	if s.Model == "" {
		s.Model = defaultOpenAIModel
	}
	return &openAIProvider{name: name, settings: s, client: openai.NewClientWithConfig(cfg)}
}

func (p *openAIProvider) Name() string  { return p.name }
func (p *openAIProvider) Model() string { return p.settings.Model }
func (p *openAIProvider) Close() error  { return nil }

func (p *openAIProvider) GenerateJSON(ctx context.Context, prompt string) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model: p.settings.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You answer with a single valid JSON document and nothing else."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: float32(p.settings.Temperature),
		MaxTokens:   p.settings.MaxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, newBadResponse(p.name, "no choices in response", nil)
	}
	return &Response{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
