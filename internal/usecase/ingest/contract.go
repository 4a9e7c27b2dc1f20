package ingest

import (
	"context"

	"github.com/endee-cloud/ragdex/internal/domain"
)

// Store defines the vector store contract for ingestion.
type Store interface {
	Upsert(ctx context.Context, index string, records []domain.Record) error
}

// Embedder vectorizes document contents in one batched call.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
