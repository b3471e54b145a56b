package estester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// MultiIndexFixture manages independent lifecycles for the indices of a
// FixtureSet. Setup aborts on the first failing index, since a
// half-provisioned set makes a test's preconditions undefined; teardown is
// best-effort per index, so one bad index does not leak the others.
type MultiIndexFixture struct {
	backend  Backend
	set      FixtureSet
	defaults IndexConfig
	run      Config
	log      logrus.FieldLogger
}

// NewMultiIndexFixture creates a manager for a set of indices. The whole
// set is validated here, before any backend call.
func NewMultiIndexFixture(backend Backend, set FixtureSet, opts ...Option) (*MultiIndexFixture, error) {
	if backend == nil {
		return nil, errors.New("estester: backend must not be nil")
	}
	if len(set) == 0 {
		return nil, errors.New("estester: fixture set must not be empty")
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("estester: %w", err)
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("estester: applying option: %w", err)
	}

	return &MultiIndexFixture{
		backend:  backend,
		set:      set,
		defaults: o.defaults,
		run:      o.run,
		log:      o.run.Logger,
	}, nil
}

// IndexNames returns the managed index names in sorted order. Iteration
// order over the set is fixed so runs are reproducible.
func (m *MultiIndexFixture) IndexNames() []string {
	names := make([]string, 0, len(m.set))
	for name := range m.set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PreSetup provisions every index in the set: delete when ResetIndex is
// set, then create, then load. The first failure aborts the remaining
// setup and propagates.
func (m *MultiIndexFixture) PreSetup(ctx context.Context) error {
	for _, name := range m.IndexNames() {
		if m.run.ResetIndex {
			if err := m.DeleteIndex(ctx, name); err != nil {
				return err
			}
		}
		if err := m.CreateIndex(ctx, name, nil, nil); err != nil {
			return err
		}
		if err := m.LoadFixtures(ctx, name, nil); err != nil {
			return err
		}
	}
	return nil
}

// PostTeardown deletes every index in the set when ResetIndex is set.
// Deletion is attempted for all indices even when some fail; failures are
// aggregated into one error.
func (m *MultiIndexFixture) PostTeardown(ctx context.Context) error {
	if !m.run.ResetIndex {
		return nil
	}

	var errs *multierror.Error
	for _, name := range m.IndexNames() {
		if err := m.DeleteIndex(ctx, name); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("estester: tearing down: %w", err)
	}
	return nil
}

// CreateIndex creates one index. Nil settings or mappings fall back to the
// index's own declaration, then to the class-level defaults; a non-nil
// value, even an empty object, is an explicit override.
func (m *MultiIndexFixture) CreateIndex(ctx context.Context, name string, settings, mappings json.RawMessage) error {
	cfg := m.set[name]
	settings = resolveRaw(settings, cfg.Settings, m.defaults.Settings)
	mappings = resolveRaw(mappings, cfg.Mappings, m.defaults.Mappings)

	ctx, cancel := m.run.opContext(ctx)
	defer cancel()

	m.log.WithField("index", name).Debug("creating index")
	if err := m.backend.CreateIndex(ctx, name, settings, mappings); err != nil {
		return fmt.Errorf("estester: %w", err)
	}
	return nil
}

// DeleteIndex deletes one index. Missing indices are not an error.
func (m *MultiIndexFixture) DeleteIndex(ctx context.Context, name string) error {
	ctx, cancel := m.run.opContext(ctx)
	defer cancel()

	m.log.WithField("index", name).Debug("deleting index")
	if err := m.backend.DeleteIndex(ctx, name); err != nil {
		return fmt.Errorf("estester: %w", err)
	}
	return nil
}

// LoadFixtures loads documents into one index in order, each with a
// synchronous refresh. A nil docs argument falls back to the index's own
// fixtures, then to the class-level defaults; an empty non-nil slice loads
// nothing. Loading stops at the first failing document.
func (m *MultiIndexFixture) LoadFixtures(ctx context.Context, name string, docs []Document) error {
	if docs == nil {
		if cfg, ok := m.set[name]; ok && cfg.Fixtures != nil {
			docs = cfg.Fixtures
		} else {
			docs = m.defaults.Fixtures
		}
	}

	for _, doc := range docs {
		if err := doc.Validate(name); err != nil {
			return fmt.Errorf("estester: %w", err)
		}
	}

	log := m.log.WithField("index", name)
	for _, doc := range docs {
		opCtx, cancel := m.run.opContext(ctx)
		err := m.backend.UpsertDocument(opCtx, name, doc)
		cancel()
		if err != nil {
			return fmt.Errorf("estester: %w", err)
		}
		log.WithField("id", doc.ID).Debug("loaded document")
	}

	return nil
}

// Search runs a query across all managed indices. A nil query means
// match-all.
func (m *MultiIndexFixture) Search(ctx context.Context, query json.RawMessage) (*Response, error) {
	ctx, cancel := m.run.opContext(ctx)
	defer cancel()

	res, err := m.backend.Search(ctx, m.IndexNames(), query)
	if err != nil {
		return nil, fmt.Errorf("estester: %w", err)
	}
	return res, nil
}

// SearchInIndex runs a query restricted to one named index.
func (m *MultiIndexFixture) SearchInIndex(ctx context.Context, name string, query json.RawMessage) (*Response, error) {
	ctx, cancel := m.run.opContext(ctx)
	defer cancel()

	res, err := m.backend.Search(ctx, []string{name}, query)
	if err != nil {
		return nil, fmt.Errorf("estester: %w", err)
	}
	return res, nil
}

// resolveRaw picks the first non-nil of override, the per-index value, and
// the class default. Nil means "not supplied"; an explicit empty value wins
// over the fallbacks.
func resolveRaw(override, perIndex, def json.RawMessage) json.RawMessage {
	if override != nil {
		return override
	}
	if perIndex != nil {
		return perIndex
	}
	return def
}
