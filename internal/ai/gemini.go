package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/gnemet/LessonForge/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

type geminiProvider struct {
	name   string
	model  string
	client *genai.Client
	gm     *genai.GenerativeModel
}

func newGeminiProvider(ctx context.Context, name string, s config.ProviderSettings) (*geminiProvider, error) {
	opts := []option.ClientOption{option.WithAPIKey(s.Key)}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	modelName := s.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	gm := client.GenerativeModel(modelName)
	gm.ResponseMIMEType = "application/json"
	if s.Temperature > 0 {
		gm.SetTemperature(float32(s.Temperature))
	}
	if s.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(s.MaxTokens))
	}
	return &geminiProvider{name: name, model: modelName, client: client, gm: gm}, nil
}

func (p *geminiProvider) Name() string  { return p.name }
func (p *geminiProvider) Model() string { return p.model }
func (p *geminiProvider) Close() error  { return p.client.Close() }

func (p *geminiProvider) GenerateJSON(ctx context.Context, prompt string) (*Response, error) {
	resp, err := p.gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, classify(p.name, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, newBadResponse(p.name, "no candidates in response", nil)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	out := &Response{Text: sb.String()}
	if um := resp.UsageMetadata; um != nil {
		out.Usage = Usage{
			PromptTokens:     int(um.PromptTokenCount),
			CompletionTokens: int(um.CandidatesTokenCount),
			TotalTokens:      int(um.TotalTokenCount),
		}
	}
	return out, nil
}
