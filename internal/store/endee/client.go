// Package endee is the HTTP client for the Endee vector database. It is the
// only component that talks to the store; every failure is surfaced with
// its domain kind preserved and enriched with the operation and index name.
package endee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/endee-cloud/ragdex/internal/domain"
	"github.com/endee-cloud/ragdex/internal/metrics"
)

// Config holds the Endee connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client talks to an Endee server. Safe for concurrent use; the underlying
// http.Client pools connections across in-flight requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an Endee client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CreateIndex creates a new index with the given vector dimension.
func (c *Client) CreateIndex(ctx context.Context, name string, dimension int) error {
	var ack json.RawMessage
	err := c.post(ctx, OpCreateIndex, name, "/api/v1/index/create",
		createIndexRequest{Name: name, Dimension: dimension}, &ack)
	if err != nil {
		return err
	}
	c.logger.Info("Created index", zap.String("index", name), zap.Int("dimension", dimension))
	return nil
}

// ListIndexes returns the names of all indexes.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	var resp listIndexesResponse
	if err := c.get(ctx, OpListIndexes, "/api/v1/index/list", &resp); err != nil {
		return nil, err
	}
	return resp.Indices, nil
}

// DeleteIndex removes an index and all its vectors.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	var ack json.RawMessage
	err := c.post(ctx, OpDeleteIndex, name, "/api/v1/index/delete",
		deleteIndexRequest{Name: name}, &ack)
	if err != nil {
		return err
	}
	c.logger.Info("Deleted index", zap.String("index", name))
	return nil
}

// Upsert inserts or replaces records by id. Batch atomicity is
// store-defined; whatever the store reports is surfaced unchanged.
func (c *Client) Upsert(ctx context.Context, index string, records []domain.Record) error {
	if len(records) == 0 {
		return &Error{Op: OpUpsert, Index: index,
			Err: fmt.Errorf("empty record batch: %w", domain.ErrValidation)}
	}

	var ack json.RawMessage
	err := c.post(ctx, OpUpsert, index, "/api/v1/upsert",
		upsertRequest{IndexName: index, Vectors: vectorsFromRecords(records)}, &ack)
	if err != nil {
		return err
	}
	c.logger.Debug("Upserted records", zap.String("index", index), zap.Int("count", len(records)))
	return nil
}

// Search returns up to k results ranked by the store, best first.
func (c *Client) Search(ctx context.Context, index string, vector []float32, k int) ([]domain.SearchResult, error) {
	var resp searchResponse
	err := c.post(ctx, OpSearch, index, "/api/v1/search",
		searchRequest{IndexName: index, Vector: vector, K: k}, &resp)
	if err != nil {
		return nil, err
	}
	return resultsFromResponse(resp), nil
}

// Ping probes store availability via the index list endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var resp listIndexesResponse
	if err := c.get(ctx, OpPing, "/api/v1/index/list", &resp); err != nil {
		return err
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, index, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Op: op, Index: index, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Op: op, Index: index, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, op, index, out)
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	return c.do(req, op, "", out)
}

func (c *Client) do(req *http.Request, op, index string, out any) error {
	start := time.Now()

	resp, err := c.httpClient.Do(req)

	// Error latency matters as much as success latency; observe before any
	// outcome branch.
	metrics.StoreRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(op, "error").Inc()
		return &Error{Op: op, Index: index,
			Err: fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(op, "error").Inc()
		return &Error{Op: op, Index: index,
			Err: fmt.Errorf("%w: read response: %w", domain.ErrStoreUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.StoreRequestsTotal.WithLabelValues(op, "error").Inc()
		return &Error{Op: op, Index: index, Err: statusError(resp.StatusCode, data)}
	}

	metrics.StoreRequestsTotal.WithLabelValues(op, "success").Inc()

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Op: op, Index: index,
				Err: fmt.Errorf("%w: decode response: %w", domain.ErrStoreUnavailable, err)}
		}
	}
	return nil
}

// statusError maps an Endee error response to a domain sentinel kind.
func statusError(status int, body []byte) error {
	msg := errorMessage(body)

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, msg)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrIndexExists, msg)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "dimension"):
		return fmt.Errorf("%w: %s", domain.ErrDimensionMismatch, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrStoreUnavailable, status, msg)
	}
}

// errorMessage extracts "error" or "detail" from a JSON error body,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	return strings.TrimSpace(string(body))
}
