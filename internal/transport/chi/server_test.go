package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/endee-cloud/ragdex/internal/chunk"
	"github.com/endee-cloud/ragdex/internal/domain"
	healthuc "github.com/endee-cloud/ragdex/internal/usecase/health"
	indexuc "github.com/endee-cloud/ragdex/internal/usecase/index"
	ingestuc "github.com/endee-cloud/ragdex/internal/usecase/ingest"
	raguc "github.com/endee-cloud/ragdex/internal/usecase/rag"
)

// fakeStore is an in-memory stand-in for the external vector store. Search
// returns records in insertion order with descending scores.
type fakeStore struct {
	indexes map[string][]domain.Record
	dims    map[string]int
	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		indexes: map[string][]domain.Record{},
		dims:    map[string]int{},
	}
}

func (f *fakeStore) CreateIndex(_ context.Context, name string, dimension int) error {
	if _, ok := f.indexes[name]; ok {
		return fmt.Errorf("index %q: %w", name, domain.ErrIndexExists)
	}
	f.indexes[name] = nil
	f.dims[name] = dimension
	return nil
}

func (f *fakeStore) ListIndexes(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(f.indexes))
	for name := range f.indexes {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeStore) DeleteIndex(_ context.Context, name string) error {
	if _, ok := f.indexes[name]; !ok {
		return fmt.Errorf("index %q: %w", name, domain.ErrIndexNotFound)
	}
	delete(f.indexes, name)
	delete(f.dims, name)
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, index string, records []domain.Record) error {
	if _, ok := f.indexes[index]; !ok {
		return fmt.Errorf("index %q: %w", index, domain.ErrIndexNotFound)
	}
	f.indexes[index] = append(f.indexes[index], records...)
	return nil
}

func (f *fakeStore) Search(_ context.Context, index string, _ []float32, k int) ([]domain.SearchResult, error) {
	records, ok := f.indexes[index]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", index, domain.ErrIndexNotFound)
	}
	if len(records) > k {
		records = records[:k]
	}
	results := make([]domain.SearchResult, len(records))
	for i, rec := range records {
		results[i] = domain.SearchResult{
			ID:       rec.ID,
			Score:    1.0 - float64(i)*0.1,
			Metadata: rec.Metadata,
		}
	}
	return results, nil
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }

// echoGenerator returns a deterministic answer derived from its inputs.
type echoGenerator struct {
	err error
}

func (g *echoGenerator) Generate(_ context.Context, question, contextText string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if contextText == "" {
		return "no context for: " + question, nil
	}
	firstLine := strings.SplitN(contextText, "\n", 3)[1]
	return "answered from: " + firstLine, nil
}

type testEnv struct {
	store *fakeStore
	embed *fakeEmbedder
	gen   *echoGenerator
	srv   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: newFakeStore(),
		embed: &fakeEmbedder{},
		gen:   &echoGenerator{},
	}

	logger := zap.NewNop()
	server := NewServer(
		indexuc.New(env.store, env.embed, logger),
		ingestuc.New(env.store, env.embed, chunk.Paragraphs{}, logger),
		raguc.New(env.store, env.embed, env.gen, raguc.Options{DefaultTopK: 5, MaxTopK: 100}, logger),
		healthuc.New(env.store, nil, nil),
		logger,
	)

	r := chi.NewRouter()
	server.Mount(r)
	env.srv = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.srv.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return out
}

func expectErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status %d, want %d (body %q)", rr.Code, status, rr.Body.String())
	}
	errResp := decodeBody[ErrorResponse](t, rr)
	if errResp.Code != code {
		t.Errorf("error code %q, want %q", errResp.Code, code)
	}
}

func TestIndexLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs", Dimension: 2})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d (body %q)", rr.Code, rr.Body.String())
	}
	created := decodeBody[CreateIndexResponse](t, rr)
	if created.Name != "docs" || created.Dimension != 2 || created.Status != "created" {
		t.Errorf("unexpected create response: %+v", created)
	}

	rr = env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs", Dimension: 2})
	expectErrorCode(t, rr, http.StatusConflict, CodeIndexExists)

	rr = env.do(t, "GET", "/api/v1/index/list", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
	list := decodeBody[ListIndexesResponse](t, rr)
	if len(list.Indices) != 1 || list.Indices[0] != "docs" {
		t.Errorf("unexpected list: %+v", list)
	}

	rr = env.do(t, "POST", "/api/v1/index/delete", DeleteIndexRequest{Name: "docs"})
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rr.Code)
	}

	rr = env.do(t, "POST", "/api/v1/index/delete", DeleteIndexRequest{Name: "docs"})
	expectErrorCode(t, rr, http.StatusNotFound, CodeIndexNotFound)
}

func TestCreateIndex_DefaultDimensionFromEmbedder(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rr.Code)
	}
	created := decodeBody[CreateIndexResponse](t, rr)
	if created.Dimension != 2 {
		t.Errorf("expected embedder dimension 2, got %d", created.Dimension)
	}
}

func TestCreateIndex_BlankNameRejected(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "  "})
	expectErrorCode(t, rr, http.StatusBadRequest, CodeValidationFailed)
}

func TestIndexDocumentsAndQuery(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs", Dimension: 2})

	rr := env.do(t, "POST", "/api/v1/documents/index", IndexDocumentsRequest{
		IndexName: "docs",
		Documents: []domain.Document{
			{ID: "doc1", Content: "Paris is the capital of France"},
			{ID: "doc2", Content: "France is in Europe"},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("index documents: status %d (body %q)", rr.Code, rr.Body.String())
	}
	indexed := decodeBody[IndexDocumentsResponse](t, rr)
	if indexed.IndexedCount != 2 {
		t.Errorf("expected 2 indexed, got %d", indexed.IndexedCount)
	}
	if indexed.IndexName != "docs" || indexed.Status != "success" {
		t.Errorf("unexpected index response: %+v", indexed)
	}

	rr = env.do(t, "POST", "/api/v1/rag/query", QueryRequest{
		IndexName: "docs",
		Question:  "What is the capital of France?",
		TopK:      2,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("query: status %d (body %q)", rr.Code, rr.Body.String())
	}
	answer := decodeBody[QueryResponse](t, rr)
	if answer.Question != "What is the capital of France?" {
		t.Errorf("question not echoed: %q", answer.Question)
	}
	if answer.Answer != "answered from: Paris is the capital of France" {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].ID != "doc1" || answer.Sources[1].ID != "doc2" {
		t.Errorf("sources out of order: %+v", answer.Sources)
	}
	if answer.Sources[0].Content != "Paris is the capital of France" {
		t.Errorf("source content missing: %+v", answer.Sources[0])
	}
}

func TestQuery_UnknownIndex404(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/rag/query", QueryRequest{
		IndexName: "missing",
		Question:  "anything?",
	})
	expectErrorCode(t, rr, http.StatusNotFound, CodeIndexNotFound)
}

func TestQuery_EmptyQuestion400(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/rag/query", QueryRequest{IndexName: "docs", Question: " "})
	expectErrorCode(t, rr, http.StatusBadRequest, CodeValidationFailed)
}

func TestQuery_EmbeddingFailure502(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs", Dimension: 2})
	env.embed.err = fmt.Errorf("provider down: %w", domain.ErrEmbeddingProvider)

	rr := env.do(t, "POST", "/api/v1/rag/query", QueryRequest{IndexName: "docs", Question: "q"})
	expectErrorCode(t, rr, http.StatusBadGateway, CodeEmbeddingProvider)
}

func TestQuery_GenerationFailure502(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs", Dimension: 2})
	env.gen.err = fmt.Errorf("model down: %w", domain.ErrGeneration)

	rr := env.do(t, "POST", "/api/v1/rag/query", QueryRequest{IndexName: "docs", Question: "q"})
	expectErrorCode(t, rr, http.StatusBadGateway, CodeGeneration)
}

func TestSemanticSearch_EmptyIndexReturnsEmptyList(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs", Dimension: 2})

	rr := env.do(t, "POST", "/api/v1/search/semantic", SemanticSearchRequest{
		IndexName: "docs",
		Query:     "anything",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("search: status %d (body %q)", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got %q", rr.Body.String())
	}
}

func TestSemanticSearch_ReturnsRankedSources(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs", Dimension: 2})
	env.do(t, "POST", "/api/v1/documents/index", IndexDocumentsRequest{
		IndexName: "docs",
		Documents: []domain.Document{
			{ID: "a", Content: "alpha", Metadata: map[string]any{"lang": "en"}},
			{ID: "b", Content: "beta"},
			{ID: "c", Content: "gamma"},
		},
	})

	rr := env.do(t, "POST", "/api/v1/search/semantic", SemanticSearchRequest{
		IndexName: "docs",
		Query:     "alpha",
		TopK:      2,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("search: status %d", rr.Code)
	}
	resp := decodeBody[SemanticSearchResponse](t, rr)
	if resp.Query != "alpha" {
		t.Errorf("query not echoed: %q", resp.Query)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].ID != "a" || resp.Results[0].Content != "alpha" {
		t.Errorf("unexpected first result: %+v", resp.Results[0])
	}
	if resp.Results[0].Similarity <= resp.Results[1].Similarity {
		t.Errorf("results not in descending score order: %+v", resp.Results)
	}
	if resp.Results[0].Metadata["lang"] != "en" {
		t.Errorf("caller metadata lost: %+v", resp.Results[0].Metadata)
	}
}

func TestUploadDocument(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/api/v1/index/create", CreateIndexRequest{Name: "docs", Dimension: 2})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("index_name", "docs"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("first part\n\nsecond part")); err != nil {
		t.Fatal(err)
	}
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	env.srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("upload: status %d (body %q)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[UploadResponse](t, rr)
	if resp.ChunksIndexed != 2 {
		t.Errorf("expected 2 chunks, got %d", resp.ChunksIndexed)
	}
	if resp.Filename != "notes.txt" || resp.Status != "success" {
		t.Errorf("unexpected upload response: %+v", resp)
	}

	if records := env.store.indexes["docs"]; len(records) != 2 || records[0].ID != "notes.txt_0" {
		t.Errorf("chunks not stored as expected: %+v", records)
	}
}

func TestUploadDocument_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("index_name", "docs")
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	env.srv.ServeHTTP(rr, req)

	expectErrorCode(t, rr, http.StatusBadRequest, CodeValidationFailed)
}

func TestIndexDocuments_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("POST", "/api/v1/documents/index", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	env.srv.ServeHTTP(rr, req)

	expectErrorCode(t, rr, http.StatusBadRequest, CodeBadRequest)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health: status %d", rr.Code)
	}
	resp := decodeBody[HealthResponse](t, rr)
	if resp.Status != "ok" {
		t.Errorf("unexpected status: %q", resp.Status)
	}
	if resp.Checks["vector_store"] != "ok" {
		t.Errorf("unexpected checks: %+v", resp.Checks)
	}
}

func TestHealthEndpoint_StoreDown(t *testing.T) {
	env := newTestEnv(t)
	env.store.pingErr = fmt.Errorf("store down: %w", domain.ErrStoreUnavailable)

	rr := env.do(t, "GET", "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("health: status %d, want 503", rr.Code)
	}
	resp := decodeBody[HealthResponse](t, rr)
	if resp.Status != "error" {
		t.Errorf("unexpected status: %q", resp.Status)
	}
}
