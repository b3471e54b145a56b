package estester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// IndexFixture manages the create/load/delete lifecycle for exactly one
// named index. It owns that index for the duration of a test run: no other
// component should create or delete it.
type IndexFixture struct {
	backend Backend
	name    string
	cfg     IndexConfig
	run     Config
	log     logrus.FieldLogger
}

// NewIndexFixture creates a manager for one index. The fixture declaration
// is validated here, so malformed documents are reported before any backend
// call is made.
func NewIndexFixture(backend Backend, name string, cfg IndexConfig, opts ...Option) (*IndexFixture, error) {
	if backend == nil {
		return nil, errors.New("estester: backend must not be nil")
	}
	if err := cfg.Validate(name); err != nil {
		return nil, fmt.Errorf("estester: %w", err)
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("estester: applying option: %w", err)
	}

	return &IndexFixture{
		backend: backend,
		name:    name,
		cfg:     cfg,
		run:     o.run,
		log:     o.run.Logger.WithField("index", name),
	}, nil
}

// Name returns the managed index name.
func (f *IndexFixture) Name() string { return f.name }

// PreSetup provisions the index before a test body runs: when ResetIndex is
// set, any leftover index is deleted first, then the index is created and
// the fixture documents are loaded. The ordering is mandatory: create fails
// on an existing index and load fails on a missing one. The first error
// aborts setup and propagates.
func (f *IndexFixture) PreSetup(ctx context.Context) error {
	if f.run.ResetIndex {
		if err := f.DeleteIndex(ctx); err != nil {
			return err
		}
	}
	if err := f.CreateIndex(ctx); err != nil {
		return err
	}
	return f.LoadFixtures(ctx)
}

// PostTeardown deletes the index after the test body, unless ResetIndex is
// off, in which case the index is left behind for inspection.
func (f *IndexFixture) PostTeardown(ctx context.Context) error {
	if !f.run.ResetIndex {
		return nil
	}
	return f.DeleteIndex(ctx)
}

// CreateIndex creates the index with the declared settings and mappings.
// A backend rejection (index exists, schema conflict) propagates so test
// setup fails loudly.
func (f *IndexFixture) CreateIndex(ctx context.Context) error {
	ctx, cancel := f.run.opContext(ctx)
	defer cancel()

	f.log.Debug("creating index")
	if err := f.backend.CreateIndex(ctx, f.name, f.cfg.Settings, f.cfg.Mappings); err != nil {
		return fmt.Errorf("estester: %w", err)
	}
	return nil
}

// DeleteIndex deletes the index. Deleting an index that was never created,
// or was already removed, succeeds.
func (f *IndexFixture) DeleteIndex(ctx context.Context) error {
	ctx, cancel := f.run.opContext(ctx)
	defer cancel()

	f.log.Debug("deleting index")
	if err := f.backend.DeleteIndex(ctx, f.name); err != nil {
		return fmt.Errorf("estester: %w", err)
	}
	return nil
}

// LoadFixtures upserts the declared documents in order, each with a
// synchronous refresh so it is searchable immediately. Loading stops at the
// first failing document; partial loads are not rolled back — delete the
// index and retry the whole load.
func (f *IndexFixture) LoadFixtures(ctx context.Context) error {
	return f.loadDocuments(ctx, f.cfg.Fixtures)
}

func (f *IndexFixture) loadDocuments(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if err := doc.Validate(f.name); err != nil {
			return fmt.Errorf("estester: %w", err)
		}
	}

	for _, doc := range docs {
		opCtx, cancel := f.run.opContext(ctx)
		err := f.backend.UpsertDocument(opCtx, f.name, doc)
		cancel()
		if err != nil {
			return fmt.Errorf("estester: %w", err)
		}
		f.log.WithField("id", doc.ID).Debug("loaded document")
	}

	return nil
}

// Search runs a query against the managed index. A nil query means
// match-all.
func (f *IndexFixture) Search(ctx context.Context, query json.RawMessage) (*Response, error) {
	ctx, cancel := f.run.opContext(ctx)
	defer cancel()

	res, err := f.backend.Search(ctx, []string{f.name}, query)
	if err != nil {
		return nil, fmt.Errorf("estester: %w", err)
	}
	return res, nil
}

// Tokenize runs the named analyzer over text in the context of the managed
// index.
func (f *IndexFixture) Tokenize(ctx context.Context, text, analyzer string) (*AnalyzeResponse, error) {
	ctx, cancel := f.run.opContext(ctx)
	defer cancel()

	res, err := f.backend.Analyze(ctx, f.name, text, analyzer)
	if err != nil {
		return nil, fmt.Errorf("estester: %w", err)
	}
	return res, nil
}
