package chi

import "github.com/endee-cloud/ragdex/internal/domain"

// ErrorCode is a machine-readable error identifier returned to clients.
type ErrorCode string

const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeIndexNotFound     ErrorCode = "index_not_found"
	CodeIndexExists       ErrorCode = "index_already_exists"
	CodeDimensionMismatch ErrorCode = "dimension_mismatch"
	CodeEmbeddingProvider ErrorCode = "embedding_provider_error"
	CodeGeneration        ErrorCode = "generation_error"
	CodeStoreUnavailable  ErrorCode = "store_unavailable"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CreateIndexRequest is the body of POST /api/v1/index/create.
type CreateIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension,omitempty"`
}

// CreateIndexResponse confirms index creation with the dimension used.
type CreateIndexResponse struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Status    string `json:"status"`
}

// ListIndexesResponse is the body of GET /api/v1/index/list.
type ListIndexesResponse struct {
	Indices []string `json:"indices"`
}

// DeleteIndexRequest is the body of POST /api/v1/index/delete.
type DeleteIndexRequest struct {
	Name string `json:"name"`
}

// DeleteIndexResponse confirms index deletion.
type DeleteIndexResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// IndexDocumentsRequest is the body of POST /api/v1/documents/index.
type IndexDocumentsRequest struct {
	IndexName string            `json:"index_name"`
	Documents []domain.Document `json:"documents"`
}

// IndexDocumentsResponse reports how many records were written.
type IndexDocumentsResponse struct {
	IndexName    string `json:"index_name"`
	IndexedCount int    `json:"indexed_count"`
	Status       string `json:"status"`
}

// UploadResponse reports the chunking outcome of a file upload.
type UploadResponse struct {
	IndexName     string `json:"index_name"`
	Filename      string `json:"filename"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Status        string `json:"status"`
}

// SemanticSearchRequest is the body of POST /api/v1/search/semantic.
type SemanticSearchRequest struct {
	IndexName string `json:"index_name"`
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`
}

// SemanticSearchResponse echoes the query and carries ranked sources in
// store order.
type SemanticSearchResponse struct {
	Query   string          `json:"query"`
	Results []domain.Source `json:"results"`
}

// QueryRequest is the body of POST /api/v1/rag/query.
type QueryRequest struct {
	IndexName string `json:"index_name"`
	Question  string `json:"question"`
	TopK      int    `json:"top_k,omitempty"`
}

// QueryResponse echoes the question alongside the generated answer and the
// sources that built its context, in retrieval order.
type QueryResponse struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Sources  []domain.Source `json:"sources"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
