// Package chi is the HTTP boundary: request decoding, routing, auth and the
// mapping from domain sentinel errors to stable response codes.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/endee-cloud/ragdex/internal/domain"
	healthuc "github.com/endee-cloud/ragdex/internal/usecase/health"
	indexuc "github.com/endee-cloud/ragdex/internal/usecase/index"
	ingestuc "github.com/endee-cloud/ragdex/internal/usecase/ingest"
	raguc "github.com/endee-cloud/ragdex/internal/usecase/rag"
)

// maxUploadBytes bounds multipart uploads; larger files are rejected before
// extraction.
const maxUploadBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the API handlers.
type Server struct {
	indexes       *indexuc.Service
	ingest        *ingestuc.Service
	rag           *raguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	indexes *indexuc.Service,
	ingest *ingestuc.Service,
	rag *raguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		indexes: indexes,
		ingest:  ingest,
		rag:     rag,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrIndexExists, http.StatusConflict, CodeIndexExists),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, CodeDimensionMismatch),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, CodeGeneration),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, CodeStoreUnavailable),
	}
	return s
}

// Mount registers all routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/index/create", s.CreateIndex)
		r.Get("/index/list", s.ListIndexes)
		r.Post("/index/delete", s.DeleteIndex)

		r.Post("/documents/index", s.IndexDocuments)
		r.Post("/documents/upload", s.UploadDocument)

		r.Post("/search/semantic", s.SemanticSearch)
		r.Post("/rag/query", s.Query)
	})
}

// CreateIndex handles POST /api/v1/index/create.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req CreateIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	dim, err := s.indexes.Create(r.Context(), req.Name, req.Dimension)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateIndexResponse{Name: req.Name, Dimension: dim, Status: "created"})
}

// ListIndexes handles GET /api/v1/index/list.
func (s *Server) ListIndexes(w http.ResponseWriter, r *http.Request) {
	names, err := s.indexes.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListIndexesResponse{Indices: names})
}

// DeleteIndex handles POST /api/v1/index/delete.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	var req DeleteIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.indexes.Delete(r.Context(), req.Name); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteIndexResponse{Name: req.Name, Status: "deleted"})
}

// IndexDocuments handles POST /api/v1/documents/index.
func (s *Server) IndexDocuments(w http.ResponseWriter, r *http.Request) {
	var req IndexDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	count, err := s.ingest.IndexDocuments(r.Context(), req.IndexName, req.Documents)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, IndexDocumentsResponse{
		IndexName:    req.IndexName,
		IndexedCount: count,
		Status:       "success",
	})
}

// UploadDocument handles POST /api/v1/documents/upload (multipart form with
// "file" and "index_name" fields).
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	indexName := r.FormValue("index_name")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "read upload: "+err.Error())
		return
	}

	count, err := s.ingest.Upload(r.Context(), indexName, header.Filename, data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		IndexName:     indexName,
		Filename:      header.Filename,
		ChunksIndexed: count,
		Status:        "success",
	})
}

// SemanticSearch handles POST /api/v1/search/semantic.
func (s *Server) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req SemanticSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sources, err := s.rag.Search(r.Context(), req.IndexName, req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SemanticSearchResponse{Query: req.Query, Results: sources})
}

// Query handles POST /api/v1/rag/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	answer, err := s.rag.Query(r.Context(), req.IndexName, req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Question: req.Question,
		Answer:   answer.Text,
		Sources:  answer.Sources,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrIndexNotFound,
		domain.ErrIndexExists,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingProvider,
		domain.ErrGeneration,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
