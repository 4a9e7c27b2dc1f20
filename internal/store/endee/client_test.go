package endee

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/endee-cloud/ragdex/internal/domain"
	"github.com/endee-cloud/ragdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL})
}

func TestCreateIndex(t *testing.T) {
	var gotPath string
	var gotBody createIndexRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"created"}`))
	})

	if err := client.CreateIndex(context.Background(), "docs", 384); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/index/create" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotBody.Name != "docs" || gotBody.Dimension != 384 {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
}

func TestCreateIndex_Conflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"index docs already exists"}`))
	})

	err := client.CreateIndex(context.Background(), "docs", 384)
	if !errors.Is(err, domain.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}

	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatal("expected *Error wrapper")
	}
	if storeErr.Op != OpCreateIndex || storeErr.Index != "docs" {
		t.Errorf("unexpected error context: op=%s index=%s", storeErr.Op, storeErr.Index)
	}
}

func TestListIndexes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/index/list" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"indices":["docs","faq"]}`))
	})

	indices, err := client.ListIndexes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indices) != 2 || indices[0] != "docs" || indices[1] != "faq" {
		t.Errorf("unexpected indices: %v", indices)
	}
}

func TestUpsert_PayloadShape(t *testing.T) {
	var got upsertRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/upsert" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"upserted":1}`))
	})

	records := []domain.Record{{
		ID:       "a",
		Vector:   []float32{0.1, 0.2},
		Metadata: map[string]any{"content": "Paris is the capital of France"},
	}}
	if err := client.Upsert(context.Background(), "docs", records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.IndexName != "docs" || len(got.Vectors) != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.Vectors[0].ID != "a" || got.Vectors[0].Metadata["content"] != "Paris is the capital of France" {
		t.Errorf("unexpected vector item: %+v", got.Vectors[0])
	}
}

func TestUpsert_EmptyBatch(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:1"})

	err := client.Upsert(context.Background(), "docs", nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	var got searchRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"results":[
			{"id":"a","score":0.91,"metadata":{"content":"first"}},
			{"id":"b","score":0.42,"metadata":{"content":"second"}}
		]}`))
	})

	results, err := client.Search(context.Background(), "docs", []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IndexName != "docs" || got.K != 5 {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[0].Score != 0.91 || results[0].Content() != "first" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestSearch_IndexNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"index missing not found"}`))
	})

	_, err := client.Search(context.Background(), "missing", []float32{0.1}, 5)
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"vector dimension 3 does not match index dimension 384"}`))
	})

	_, err := client.Search(context.Background(), "docs", []float32{0.1, 0.2, 0.3}, 5)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestTransportError_MapsToStoreUnavailable(t *testing.T) {
	// Port 1 is never listening.
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := client.ListIndexes(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	var storeErr *Error
	if !errors.As(err, &storeErr) || storeErr.Op != OpListIndexes {
		t.Errorf("expected operation context on transport error, got %v", err)
	}
}

func TestRequestDuration_ObservedOnFailure(t *testing.T) {
	// Ping is the only operation in this suite hitting a dead endpoint, so
	// its duration series exists only if failed requests are observed too.
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})

	before := testutil.CollectAndCount(metrics.StoreRequestDuration)
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	after := testutil.CollectAndCount(metrics.StoreRequestDuration)
	if after <= before {
		t.Errorf("duration not recorded for failed request: series %d -> %d", before, after)
	}
}

func TestDeleteIndex(t *testing.T) {
	var gotBody deleteIndexRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/index/delete" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"deleted"}`))
	})

	if err := client.DeleteIndex(context.Background(), "docs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.Name != "docs" {
		t.Errorf("unexpected body: %+v", gotBody)
	}
}
