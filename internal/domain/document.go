// Package domain holds the shared types and contracts of the retrieval
// pipeline: documents, index records, search results and the collaborator
// interfaces (embedder, generator).
package domain

// ContentKey is the reserved metadata key under which the ingestion step
// stores the original document text. The vector store has no separate
// content column, so search-time content is recovered from this key.
const ContentKey = "content"

// Document is a caller-supplied unit of ingestion, immutable once embedded.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Record is a stored vector with its metadata, unique by ID within an index.
type Record struct {
	ID       string         `json:"id"`
	Vector   []float32      `json:"vector"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewRecord builds a Record from a document and its embedding. The document
// content is copied into metadata under ContentKey; caller metadata keys are
// preserved (ContentKey excepted, the original text wins).
func NewRecord(doc Document, vector []float32) Record {
	meta := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta[ContentKey] = doc.Content
	return Record{ID: doc.ID, Vector: vector, Metadata: meta}
}

// SearchResult is one ranked hit returned by the vector store, ordered by
// the store descending by score.
type SearchResult struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Content recovers the original document text from metadata. Missing or
// non-string content yields an empty string, never an error.
func (r SearchResult) Content() string {
	if r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata[ContentKey].(string); ok {
		return s
	}
	return ""
}

// Source is a search result projected into the public response shape.
type Source struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata"`
}

// SourceFromResult projects a store result into the public Source shape.
func SourceFromResult(r SearchResult) Source {
	meta := r.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return Source{
		ID:         r.ID,
		Content:    r.Content(),
		Similarity: r.Score,
		Metadata:   meta,
	}
}

// Answer is the final RAG response. Sources echo the exact ordering and
// content that built the generation context, so callers can audit what
// informed the answer.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}
