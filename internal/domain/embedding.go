package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
// Embed returns one vector per input text, in input order, every vector of
// length Dimension(). Implementations must tolerate concurrent invocation.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// EmbedSingle embeds one text. Convenience equal to Embed([text])[0].
func EmbedSingle(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed returned %d vectors for one text: %w", len(vecs), ErrEmbeddingProvider)
	}
	return vecs[0], nil
}
