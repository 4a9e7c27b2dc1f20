package ragdex

import (
	"errors"
	"fmt"
)

// Error codes returned by the API.
const (
	CodeBadRequest        = "bad_request"
	CodeValidationFailed  = "validation_failed"
	CodeIndexNotFound     = "index_not_found"
	CodeIndexExists       = "index_already_exists"
	CodeDimensionMismatch = "dimension_mismatch"
	CodeEmbeddingProvider = "embedding_provider_error"
	CodeGeneration        = "generation_error"
	CodeStoreUnavailable  = "store_unavailable"
	CodeUnauthorized      = "unauthorized"
	CodeInternalError     = "internal_error"
)

// APIError is a non-2xx response decoded from the API error body.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ragdex: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError for a missing index.
func IsNotFound(err error) bool { return hasCode(err, CodeIndexNotFound) }

// IsConflict reports whether err is an APIError for an already existing index.
func IsConflict(err error) bool { return hasCode(err, CodeIndexExists) }

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
