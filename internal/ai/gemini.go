package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var errMalformedResponse = errors.New("ai: malformed provider response")

// GeminiProvider adapts the Google Gemini SDK to Provider.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider opens a Gemini client authenticated with apiKey.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: missing api key", ErrNotInitialized)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ai: create gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// GenerateText implements Provider.
func (p *GeminiProvider) GenerateText(ctx context.Context, model, prompt string, opts Options) (string, error) {
	m := p.client.GenerativeModel(model)
	if opts.Temperature > 0 {
		m.SetTemperature(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(opts.MaxTokens)
	}
	if opts.TopP > 0 {
		m.SetTopP(opts.TopP)
	}
	if opts.TopK > 0 {
		m.SetTopK(opts.TopK)
	}
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errMalformedResponse
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text parts (finish reason %v)", errMalformedResponse, resp.Candidates[0].FinishReason)
	}
	return b.String(), nil
}
