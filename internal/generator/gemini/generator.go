// Package gemini is the answer generator backed by the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/endee-cloud/ragdex/internal/domain"
	"github.com/endee-cloud/ragdex/internal/generator"
	"github.com/endee-cloud/ragdex/internal/metrics"
)

const providerName = "gemini"

// Generator produces answers via the Gemini generateContent API. Safe for
// concurrent use.
type Generator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// Config holds the Gemini generator settings.
type Config struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// New creates a Gemini answer generator.
func New(ctx context.Context, cfg *Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Generate implements domain.Generator: one generateContent call with the
// shared RAG prompt.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	start := time.Now()

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(generator.BuildPrompt(question, contextText)),
		nil,
	)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "error").Inc()
		return "", fmt.Errorf("gemini generateContent: %v: %w", err, domain.ErrGeneration)
	}
	if resp == nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "error").Inc()
		return "", fmt.Errorf("gemini returned no response: %w", domain.ErrGeneration)
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "error").Inc()
		return "", fmt.Errorf("gemini returned empty answer: %w", domain.ErrGeneration)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(providerName, g.model).Observe(duration.Seconds())

	return answer, nil
}
