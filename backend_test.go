package estester

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// fakeBackend is an in-memory Backend that records every call in order, so
// tests can assert the lifecycle protocol without a live cluster.
type fakeBackend struct {
	ops     []string
	indices map[string]*fakeIndex

	failCreate map[string]error // keyed by index name
	failDelete map[string]error // keyed by index name
	failUpsert map[string]error // keyed by document ID
}

type fakeIndex struct {
	settings json.RawMessage
	mappings json.RawMessage
	docs     []Document
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		indices:    make(map[string]*fakeIndex),
		failCreate: make(map[string]error),
		failDelete: make(map[string]error),
		failUpsert: make(map[string]error),
	}
}

func (b *fakeBackend) record(format string, args ...any) {
	b.ops = append(b.ops, fmt.Sprintf(format, args...))
}

func (b *fakeBackend) CreateIndex(_ context.Context, name string, settings, mappings json.RawMessage) error {
	b.record("create:%s", name)
	if err := b.failCreate[name]; err != nil {
		return err
	}
	if _, ok := b.indices[name]; ok {
		return &BackendError{StatusCode: 400, Type: "resource_already_exists_exception", Reason: "index " + name + " already exists"}
	}
	b.indices[name] = &fakeIndex{settings: settings, mappings: mappings}
	return nil
}

func (b *fakeBackend) DeleteIndex(_ context.Context, name string) error {
	b.record("delete:%s", name)
	if err := b.failDelete[name]; err != nil {
		return err
	}
	delete(b.indices, name)
	return nil
}

func (b *fakeBackend) UpsertDocument(_ context.Context, index string, doc Document) error {
	b.record("upsert:%s/%s", index, doc.ID)
	if err := b.failUpsert[doc.ID]; err != nil {
		return err
	}
	idx, ok := b.indices[index]
	if !ok {
		return &BackendError{StatusCode: 404, Type: "index_not_found_exception", Reason: "no such index " + index}
	}
	for i, existing := range idx.docs {
		if existing.ID == doc.ID {
			idx.docs[i] = doc
			return nil
		}
	}
	idx.docs = append(idx.docs, doc)
	return nil
}

// Search ignores the query body and behaves as match-all over the named
// indices, which is all the lifecycle tests need.
func (b *fakeBackend) Search(_ context.Context, indices []string, _ json.RawMessage) (*Response, error) {
	b.record("search:%s", strings.Join(indices, ","))

	var hits []Hit
	for _, name := range indices {
		idx, ok := b.indices[name]
		if !ok {
			return nil, &BackendError{StatusCode: 404, Type: "index_not_found_exception", Reason: "no such index " + name}
		}
		for _, doc := range idx.docs {
			hits = append(hits, Hit{Index: name, ID: doc.ID, Score: 1.0, Source: doc.Body})
		}
	}

	return &Response{
		Hits: ResponseHits{
			Total: HitsTotal{Value: len(hits), Relation: "eq"},
			Hits:  hits,
		},
	}, nil
}

// Analyze lowercases and splits on whitespace, a stand-in for the simplest
// real analyzer.
func (b *fakeBackend) Analyze(_ context.Context, index, text, analyzer string) (*AnalyzeResponse, error) {
	b.record("analyze:%s/%s", index, analyzer)
	if _, ok := b.indices[index]; !ok {
		return nil, &BackendError{StatusCode: 404, Type: "index_not_found_exception", Reason: "no such index " + index}
	}

	var tokens []Token
	for i, word := range strings.Fields(strings.ToLower(text)) {
		tokens = append(tokens, Token{Token: word, Type: "word", Position: i})
	}
	return &AnalyzeResponse{Tokens: tokens}, nil
}
