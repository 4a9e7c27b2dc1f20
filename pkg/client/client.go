// Package ragdex is the Go client for the ragdex HTTP API.
package ragdex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a ragdex server. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for the given server base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateIndex creates a vector index. Dimension zero lets the server pick
// the embedding provider's dimension.
func (c *Client) CreateIndex(ctx context.Context, name string, dimension int) (Index, error) {
	var out Index
	err := c.post(ctx, "/api/v1/index/create", createIndexRequest{Name: name, Dimension: dimension}, &out)
	return out, err
}

// ListIndexes returns the names of all indexes.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	var out listIndexesResponse
	if err := c.get(ctx, "/api/v1/index/list", &out); err != nil {
		return nil, err
	}
	return out.Indices, nil
}

// DeleteIndex removes an index and all its records.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	return c.post(ctx, "/api/v1/index/delete", deleteIndexRequest{Name: name}, nil)
}

// IndexDocuments embeds and stores documents. Returns the number of records
// written.
func (c *Client) IndexDocuments(ctx context.Context, index string, docs []Document) (int, error) {
	var out indexDocumentsResponse
	err := c.post(ctx, "/api/v1/documents/index", indexDocumentsRequest{
		IndexName: index,
		Documents: docs,
	}, &out)
	return out.IndexedCount, err
}

// UploadFile extracts, chunks and indexes a file. Returns the number of
// chunks written.
func (c *Client) UploadFile(ctx context.Context, index, filename string, data []byte) (int, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("index_name", index); err != nil {
		return 0, fmt.Errorf("ragdex: build form: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("ragdex: build form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return 0, fmt.Errorf("ragdex: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("ragdex: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/documents/upload", &buf)
	if err != nil {
		return 0, fmt.Errorf("ragdex: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		ChunksIndexed int `json:"chunks_indexed"`
	}
	if err := c.do(req, &out); err != nil {
		return 0, err
	}
	return out.ChunksIndexed, nil
}

// SemanticSearch returns the top-k most similar sources for a query.
func (c *Client) SemanticSearch(ctx context.Context, index, query string, topK int) ([]Source, error) {
	var out searchResponse
	err := c.post(ctx, "/api/v1/search/semantic", searchRequest{
		IndexName: index,
		Query:     query,
		TopK:      topK,
	}, &out)
	return out.Results, err
}

// Query runs the full RAG pipeline and returns the generated answer with
// its sources.
func (c *Client) Query(ctx context.Context, index, question string, topK int) (Answer, error) {
	var out Answer
	err := c.post(ctx, "/api/v1/rag/query", queryRequest{
		IndexName: index,
		Question:  question,
		TopK:      topK,
	}, &out)
	return out, err
}

// Health returns the service health report. A degraded or unhealthy service
// still returns a report, not an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return Health{}, fmt.Errorf("ragdex: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("ragdex: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out Health
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Health{}, fmt.Errorf("ragdex: decode response: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("ragdex: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("ragdex: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("ragdex: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ragdex: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ragdex: decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if json.Unmarshal(body, apiErr) != nil || apiErr.Code == "" {
		apiErr.Code = CodeInternalError
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
