package estester

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Static and compile-time check that ESBackend implements Backend.
var _ Backend = (*ESBackend)(nil)

// ESBackend implements Backend on top of the official Elasticsearch client.
type ESBackend struct {
	client *elasticsearch.Client
}

// NewESBackend wraps an Elasticsearch client. The client is shared and
// long-lived; ESBackend never closes it.
func NewESBackend(client *elasticsearch.Client) (*ESBackend, error) {
	if client == nil {
		return nil, errors.New("estester: client must not be nil")
	}
	return &ESBackend{client: client}, nil
}

// CreateIndex creates an index, sending mappings and settings only when
// they are non-empty. Some backends treat an explicit empty mapping
// differently from an absent one, so empty blocks are omitted.
func (b *ESBackend) CreateIndex(ctx context.Context, name string, settings, mappings json.RawMessage) error {
	body, err := buildCreateIndexBody(settings, mappings)
	if err != nil {
		return fmt.Errorf("building request body: %w", err)
	}

	var opts []func(*esapi.IndicesCreateRequest)
	if body != nil {
		opts = append(opts, b.client.Indices.Create.WithBody(bytes.NewReader(body)))
	}
	opts = append(opts, b.client.Indices.Create.WithContext(ctx))

	res, err := b.client.Indices.Create(name, opts...)
	if err != nil {
		return fmt.Errorf("creating index %q: %w", name, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("creating index %q: %w", name, err)
	}

	return nil
}

// buildCreateIndexBody constructs the JSON body for the Create Index API.
func buildCreateIndexBody(settings, mappings json.RawMessage) ([]byte, error) {
	if len(settings) == 0 && len(mappings) == 0 {
		return nil, nil
	}

	body := make(map[string]json.RawMessage)
	if len(mappings) > 0 {
		body["mappings"] = mappings
	}
	if len(settings) > 0 {
		body["settings"] = settings
	}

	return json.Marshal(body)
}

// DeleteIndex deletes an index. A missing index is not an error.
func (b *ESBackend) DeleteIndex(ctx context.Context, name string) error {
	res, err := b.client.Indices.Delete(
		[]string{name},
		b.client.Indices.Delete.WithContext(ctx),
		b.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("deleting index %q: %w", name, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("deleting index %q: %w", name, err)
	}

	return nil
}

// UpsertDocument indexes one document under its explicit ID with a
// synchronous refresh, so it is searchable as soon as the call returns.
// Elasticsearch 8 has a single implicit document type, so doc.Type is part
// of the fixture declaration contract only and never reaches the wire.
func (b *ESBackend) UpsertDocument(ctx context.Context, index string, doc Document) error {
	body, err := json.Marshal(doc.Body)
	if err != nil {
		return fmt.Errorf("marshaling document %q: %w", doc.ID, err)
	}

	res, err := b.client.Index(
		index,
		bytes.NewReader(body),
		b.client.Index.WithDocumentID(doc.ID),
		b.client.Index.WithRefresh("true"),
		b.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indexing document %q into %q: %w", doc.ID, index, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("indexing document %q into %q: %w", doc.ID, index, err)
	}

	return nil
}

// Search runs a query against the given indices and decodes the response
// envelope. A nil or empty query body falls through to the backend's
// match-all default.
func (b *ESBackend) Search(ctx context.Context, indices []string, query json.RawMessage) (*Response, error) {
	opts := []func(*esapi.SearchRequest){
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(indices...),
	}
	if len(query) > 0 {
		opts = append(opts, b.client.Search.WithBody(bytes.NewReader(query)))
	}

	res, err := b.client.Search(opts...)
	if err != nil {
		return nil, fmt.Errorf("searching %v: %w", indices, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("searching %v: %w", indices, err)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	var response Response
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	response.Raw = raw

	return &response, nil
}

// Analyze runs an analyzer over text in the context of an index, so
// index-level analyzer definitions from the settings block are visible.
func (b *ESBackend) Analyze(ctx context.Context, index, text, analyzer string) (*AnalyzeResponse, error) {
	body, err := json.Marshal(map[string]string{
		"analyzer": analyzer,
		"text":     text,
	})
	if err != nil {
		return nil, fmt.Errorf("building analyze request: %w", err)
	}

	res, err := b.client.Indices.Analyze(
		b.client.Indices.Analyze.WithIndex(index),
		b.client.Indices.Analyze.WithBody(bytes.NewReader(body)),
		b.client.Indices.Analyze.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("analyzing text in %q: %w", index, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("analyzing text in %q: %w", index, err)
	}

	var response AnalyzeResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decoding analyze response: %w", err)
	}

	return &response, nil
}

// esErrorRes is the error envelope Elasticsearch returns on failed requests.
type esErrorRes struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// checkResponse turns a non-2xx Elasticsearch response into a BackendError.
func checkResponse(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}

	body, _ := io.ReadAll(res.Body)

	var envelope esErrorRes
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Type != "" {
		return &BackendError{
			StatusCode: res.StatusCode,
			Type:       envelope.Error.Type,
			Reason:     envelope.Error.Reason,
		}
	}

	return &BackendError{
		StatusCode: res.StatusCode,
		Reason:     string(body),
	}
}
