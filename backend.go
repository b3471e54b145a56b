package estester

import (
	"context"
	"encoding/json"
)

// Backend is the narrow capability set the fixture managers need from the
// search engine. The production implementation is ESBackend; tests may
// substitute their own.
type Backend interface {
	// CreateIndex creates a named index. Empty settings/mappings blocks
	// are omitted from the request rather than sent as empty objects.
	// Creating an index that already exists is an error.
	CreateIndex(ctx context.Context, name string, settings, mappings json.RawMessage) error

	// DeleteIndex deletes a named index. Deleting an index that does not
	// exist succeeds, so teardown is idempotent.
	DeleteIndex(ctx context.Context, name string) error

	// UpsertDocument indexes (or replaces) one document with a synchronous
	// refresh, so it is immediately visible to subsequent searches.
	UpsertDocument(ctx context.Context, index string, doc Document) error

	// Search runs a query against the given indices. A nil or empty query
	// uses the backend's match-all default.
	Search(ctx context.Context, indices []string, query json.RawMessage) (*Response, error)

	// Analyze runs the named analyzer over text in the context of an index.
	Analyze(ctx context.Context, index, text, analyzer string) (*AnalyzeResponse, error)
}

// Response is the decoded search response envelope. Raw carries the full
// response body for callers that need fields outside the envelope.
type Response struct {
	Took int             `json:"took"`
	Hits ResponseHits    `json:"hits"`
	Raw  json.RawMessage `json:"-"`
}

// ResponseHits is the hits section of a search response.
type ResponseHits struct {
	Total HitsTotal `json:"total"`
	Hits  []Hit     `json:"hits"`
}

// HitsTotal is the total hit count and its relation ("eq" or "gte").
type HitsTotal struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// Hit is one search result document.
type Hit struct {
	Index  string         `json:"_index"`
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source"`
}

// AnalyzeResponse is the decoded analyze response.
type AnalyzeResponse struct {
	Tokens []Token `json:"tokens"`
}

// Token is one token emitted by an analyzer.
type Token struct {
	Token       string `json:"token"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Type        string `json:"type"`
	Position    int    `json:"position"`
}
