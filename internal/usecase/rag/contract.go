package rag

import (
	"context"

	"github.com/endee-cloud/ragdex/internal/domain"
)

// Store defines the vector store contract for retrieval.
type Store interface {
	Search(ctx context.Context, index string, vector []float32, k int) ([]domain.SearchResult, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Generator produces the final answer from the question and assembled context.
type Generator interface {
	Generate(ctx context.Context, question, contextText string) (string, error)
}
