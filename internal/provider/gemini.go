package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider generates sentences with Google's Gemini API.
type GeminiProvider struct {
	name    string
	model   string
	client  *genai.Client
	content *genai.GenerateContentConfig
}

// NewGeminiProvider creates a Gemini provider. baseURL may be empty.
func NewGeminiProvider(ctx context.Context, name, baseURL, apiKey, model string, temperature float32) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: API key is required", name)
	}
	if model == "" {
		return nil, fmt.Errorf("%s: model is required", name)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{
		name:   name,
		model:  model,
		client: gi,
		content: &genai.GenerateContentConfig{
			Temperature:       &temperature,
			ResponseMIMEType:  "application/json",
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemInstruction}}},
		},
	}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return p.name }

// Generate implements Provider.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), p.content)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%s API error (code %d): %w", p.name, apiErr.Code, err)
		}
		return "", fmt.Errorf("%s request failed: %w", p.name, err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("%s blocked the prompt: %s", p.name, fb.BlockReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%s returned empty content", p.name)
	}
	return text, nil
}
