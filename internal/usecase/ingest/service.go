// Package ingest implements document ingestion: embed caller documents in a
// single batch and upsert the resulting records, plus file upload with text
// extraction and chunking in front of the same path.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/endee-cloud/ragdex/internal/chunk"
	"github.com/endee-cloud/ragdex/internal/domain"
	"github.com/endee-cloud/ragdex/internal/extract"
)

// Service handles document and file ingestion into a vector index.
type Service struct {
	store   Store
	embed   Embedder
	chunker chunk.Chunker
	logger  *zap.Logger
}

// New creates an ingestion service.
func New(store Store, embed Embedder, chunker chunk.Chunker, logger *zap.Logger) *Service {
	if chunker == nil {
		chunker = chunk.Window{Size: 1200, Overlap: 200}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embed: embed, chunker: chunker, logger: logger}
}

// IndexDocuments embeds all documents in one batched call and upserts the
// records in one store call. Documents without an ID get a generated UUID.
// Returns the number of records written.
func (s *Service) IndexDocuments(ctx context.Context, index string, docs []domain.Document) (int, error) {
	if strings.TrimSpace(index) == "" {
		return 0, fmt.Errorf("index name is required: %w", domain.ErrValidation)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("at least one document is required: %w", domain.ErrValidation)
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			return 0, fmt.Errorf("document %d has empty content: %w", i, domain.ErrValidation)
		}
		texts[i] = doc.Content
	}

	vectors, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d documents: %w",
			len(vectors), len(docs), domain.ErrEmbeddingProvider)
	}

	records := make([]domain.Record, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		records[i] = domain.NewRecord(doc, vectors[i])
	}

	if err := s.store.Upsert(ctx, index, records); err != nil {
		return 0, fmt.Errorf("upsert into index %q: %w", index, err)
	}

	s.logger.Info("documents indexed",
		zap.String("index", index),
		zap.Int("count", len(records)))

	return len(records), nil
}

// Upload extracts text from an uploaded file, chunks it and indexes the
// chunks as documents. Chunk IDs are "{filename}_{i}" so re-uploading the
// same file replaces its previous chunks. Returns the number of chunks
// written.
func (s *Service) Upload(ctx context.Context, index, filename string, data []byte) (int, error) {
	if strings.TrimSpace(index) == "" {
		return 0, fmt.Errorf("index name is required: %w", domain.ErrValidation)
	}
	if filename == "" {
		return 0, fmt.Errorf("filename is required: %w", domain.ErrValidation)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("file %q is empty: %w", filename, domain.ErrValidation)
	}

	text, err := extract.Text(filename, data)
	if err != nil {
		return 0, fmt.Errorf("extract %q: %w", filename, err)
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("file %q contains no extractable text: %w", filename, domain.ErrValidation)
	}

	docs := make([]domain.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = domain.Document{
			ID:      fmt.Sprintf("%s_%d", filename, i),
			Content: c,
			Metadata: map[string]any{
				"source":      filename,
				"chunk_index": i,
			},
		}
	}

	count, err := s.IndexDocuments(ctx, index, docs)
	if err != nil {
		return 0, err
	}

	s.logger.Info("file ingested",
		zap.String("index", index),
		zap.String("filename", filename),
		zap.Int("chunks", count))

	return count, nil
}
