package endee

import "github.com/endee-cloud/ragdex/internal/domain"

// Wire types for the Endee vector database JSON API.

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

type deleteIndexRequest struct {
	Name string `json:"name"`
}

type listIndexesResponse struct {
	Indices []string `json:"indices"`
}

type vectorItem struct {
	ID       string         `json:"id"`
	Vector   []float32      `json:"vector"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	IndexName string       `json:"index_name"`
	Vectors   []vectorItem `json:"vectors"`
}

type searchRequest struct {
	IndexName string    `json:"index_name"`
	Vector    []float32 `json:"vector"`
	K         int       `json:"k"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
}

type searchResultItem struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func vectorsFromRecords(records []domain.Record) []vectorItem {
	items := make([]vectorItem, len(records))
	for i, r := range records {
		items[i] = vectorItem{ID: r.ID, Vector: r.Vector, Metadata: r.Metadata}
	}
	return items
}

func resultsFromResponse(resp searchResponse) []domain.SearchResult {
	results := make([]domain.SearchResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = domain.SearchResult{ID: r.ID, Score: r.Score, Metadata: r.Metadata}
	}
	return results
}
