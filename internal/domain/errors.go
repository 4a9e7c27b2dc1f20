package domain

import "errors"

var (
	// ErrValidation signals bad caller input (empty index name, empty batch, non-positive top_k).
	ErrValidation = errors.New("validation failed")
	// ErrEmbeddingProvider signals an embedding model invocation failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGeneration signals a language model failure during answer generation.
	ErrGeneration = errors.New("answer generation error")
	// ErrStoreUnavailable signals a vector store transport failure.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexExists signals a duplicate index name.
	ErrIndexExists = errors.New("index already exists")
	// ErrDimensionMismatch signals a query or record vector of the wrong length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
