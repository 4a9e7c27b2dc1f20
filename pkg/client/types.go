package ragdex

// Document is a unit of ingestion.
type Document struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Source is one retrieved document with its similarity score.
type Source struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata"`
}

// Answer is the response of a RAG query: the question echoed back, the
// generated text and the sources that built its context, in retrieval order.
type Answer struct {
	Question string   `json:"question"`
	Text     string   `json:"answer"`
	Sources  []Source `json:"sources"`
}

// Index describes a created index.
type Index struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Status    string `json:"status"`
}

// Health is the service health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension,omitempty"`
}

type listIndexesResponse struct {
	Indices []string `json:"indices"`
}

type deleteIndexRequest struct {
	Name string `json:"name"`
}

type indexDocumentsRequest struct {
	IndexName string     `json:"index_name"`
	Documents []Document `json:"documents"`
}

type indexDocumentsResponse struct {
	IndexedCount int `json:"indexed_count"`
}

type searchRequest struct {
	IndexName string `json:"index_name"`
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []Source `json:"results"`
}

type queryRequest struct {
	IndexName string `json:"index_name"`
	Question  string `json:"question"`
	TopK      int    `json:"top_k,omitempty"`
}
