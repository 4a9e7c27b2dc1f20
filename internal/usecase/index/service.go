// Package index implements vector index administration: create, list and
// delete indexes on the external store.
package index

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/endee-cloud/ragdex/internal/domain"
)

// defaultDimension is used when neither the request nor the embedding
// provider supplies a vector length.
const defaultDimension = 384

// Service handles index lifecycle operations.
type Service struct {
	store  Store
	dims   Dimensioner
	logger *zap.Logger
}

// New creates an index administration service. dims may be nil when no
// embedding provider is configured.
func New(store Store, dims Dimensioner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, dims: dims, logger: logger}
}

// Create creates a new index. dimension zero selects the embedding
// provider's dimension, falling back to defaultDimension when that is
// unknown. Returns the dimension actually used.
func (s *Service) Create(ctx context.Context, name string, dimension int) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("index name is required: %w", domain.ErrValidation)
	}
	if dimension < 0 {
		return 0, fmt.Errorf("dimension must not be negative, got %d: %w", dimension, domain.ErrValidation)
	}
	if dimension == 0 {
		dimension = s.resolveDimension()
	}

	if err := s.store.CreateIndex(ctx, name, dimension); err != nil {
		return 0, err
	}

	s.logger.Info("index created",
		zap.String("index", name),
		zap.Int("dimension", dimension))

	return dimension, nil
}

// List returns the names of all indexes on the store.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.store.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Delete removes an index and all its records.
func (s *Service) Delete(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("index name is required: %w", domain.ErrValidation)
	}

	if err := s.store.DeleteIndex(ctx, name); err != nil {
		return err
	}

	s.logger.Info("index deleted", zap.String("index", name))
	return nil
}

func (s *Service) resolveDimension() int {
	if s.dims != nil {
		if d := s.dims.Dimension(); d > 0 {
			return d
		}
	}
	return defaultDimension
}
