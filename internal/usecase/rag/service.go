// Package rag implements the retrieval-augmented answering pipeline: embed
// the question, retrieve the nearest records, assemble a generation context
// and ask the configured language model.
package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/endee-cloud/ragdex/internal/domain"
)

// Options bound the retrieval fan-out.
type Options struct {
	DefaultTopK int
	MaxTopK     int
}

// Service orchestrates query-time retrieval and answer generation.
type Service struct {
	store  Store
	embed  Embedder
	gen    Generator
	opts   Options
	logger *zap.Logger
}

// New creates a retrieval service.
func New(store Store, embed Embedder, gen Generator, opts Options, logger *zap.Logger) *Service {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 5
	}
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embed: embed, gen: gen, opts: opts, logger: logger}
}

// Query runs the full pipeline for one question. topK zero selects the
// configured default; values above the configured maximum are clamped.
// Validation failures surface before any remote call is made.
func (s *Service) Query(ctx context.Context, index, question string, topK int) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if err := s.validate(index, question); err != nil {
		return domain.Answer{}, err
	}
	topK, err := s.clampTopK(topK)
	if err != nil {
		return domain.Answer{}, err
	}

	results, err := s.retrieve(ctx, index, question, topK)
	if err != nil {
		return domain.Answer{}, err
	}

	contextText := BuildContext(results)

	answer, err := s.gen.Generate(ctx, question, contextText)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]domain.Source, len(results))
	for i, r := range results {
		sources[i] = domain.SourceFromResult(r)
	}

	s.logger.Debug("rag query answered",
		zap.String("index", index),
		zap.Int("top_k", topK),
		zap.Int("sources", len(sources)))

	return domain.Answer{Text: answer, Sources: sources}, nil
}

// Search embeds the query and returns ranked sources without generation.
func (s *Service) Search(ctx context.Context, index, query string, topK int) ([]domain.Source, error) {
	query = strings.TrimSpace(query)
	if err := s.validate(index, query); err != nil {
		return nil, err
	}
	topK, err := s.clampTopK(topK)
	if err != nil {
		return nil, err
	}

	results, err := s.retrieve(ctx, index, query, topK)
	if err != nil {
		return nil, err
	}

	sources := make([]domain.Source, len(results))
	for i, r := range results {
		sources[i] = domain.SourceFromResult(r)
	}
	return sources, nil
}

func (s *Service) retrieve(ctx context.Context, index, text string, topK int) ([]domain.SearchResult, error) {
	vector, err := domain.EmbedSingle(ctx, s.embed, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Search(ctx, index, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search index %q: %w", index, err)
	}
	return results, nil
}

func (s *Service) validate(index, text string) error {
	if strings.TrimSpace(index) == "" {
		return fmt.Errorf("index name is required: %w", domain.ErrValidation)
	}
	if text == "" {
		return fmt.Errorf("query text is required: %w", domain.ErrValidation)
	}
	return nil
}

func (s *Service) clampTopK(topK int) (int, error) {
	if topK < 0 {
		return 0, fmt.Errorf("top_k must not be negative, got %d: %w", topK, domain.ErrValidation)
	}
	if topK == 0 {
		return s.opts.DefaultTopK, nil
	}
	if topK > s.opts.MaxTopK {
		return s.opts.MaxTopK, nil
	}
	return topK, nil
}
