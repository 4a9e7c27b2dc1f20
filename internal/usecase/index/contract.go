package index

import "context"

// Store defines the vector store contract for index administration.
type Store interface {
	CreateIndex(ctx context.Context, name string, dimension int) error
	ListIndexes(ctx context.Context) ([]string, error)
	DeleteIndex(ctx context.Context, name string) error
}

// Dimensioner reports the embedding vector length used when a create request
// does not specify one.
type Dimensioner interface {
	Dimension() int
}
