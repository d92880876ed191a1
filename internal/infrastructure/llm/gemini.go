package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"EnergyAnalyst/internal/config"
	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/ports"
)

// GeminiClient implements ports.Completer on Google's GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ ports.Completer = (*GeminiClient)(nil)

// NewGeminiClient builds a Gemini API client from configuration.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("gemini client: %w", domain.ErrBackendUnavailable)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete runs a single generateContent call.
func (g *GeminiClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini generation: %w", domain.ErrEmptyCompletion)
	}
	return text, nil
}

// Probe issues a minimal generation to verify credentials and connectivity.
func (g *GeminiClient) Probe(ctx context.Context) error {
	_, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text("Hello"), &genai.GenerateContentConfig{
		MaxOutputTokens: probeMaxTokens,
	})
	if err != nil {
		return fmt.Errorf("gemini probe: %w", err)
	}
	return nil
}
