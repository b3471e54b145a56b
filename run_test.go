package estester

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTB captures test failures and cleanups so the adapter's behavior
// on failing fixtures can be observed instead of failing the real test.
type recordingTB struct {
	testing.TB
	fatals   []string
	errs     []string
	cleanups []func()
}

// errAborted stands in for the way Fatalf stops a real test.
var errAborted = errors.New("test aborted")

func (r *recordingTB) Helper() {}

func (r *recordingTB) Cleanup(f func()) {
	r.cleanups = append(r.cleanups, f)
}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.fatals = append(r.fatals, fmt.Sprintf(format, args...))
	panic(errAborted)
}

// runCleanups mimics the test runner: last registered, first run.
func (r *recordingTB) runCleanups() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

// callAborting invokes fn, swallowing only the abort sentinel Fatalf panics
// with.
func callAborting(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil && r != errAborted {
			panic(r)
		}
	}()
	fn()
}

// hookFixture is a Fixture with injectable hook errors.
type hookFixture struct {
	setupErr    error
	teardownErr error

	setupCalls    int
	teardownCalls int
}

func (f *hookFixture) PreSetup(context.Context) error {
	f.setupCalls++
	return f.setupErr
}

func (f *hookFixture) PostTeardown(context.Context) error {
	f.teardownCalls++
	return f.teardownErr
}

func TestRun_ProvisionsBeforeBodyAndTearsDownAfter(t *testing.T) {
	backend := newFakeBackend()

	f, err := NewIndexFixture(backend, "sample.test", hitchhikerConfig())
	require.NoError(t, err)

	bodyRan := false
	t.Run("wrapped", func(t *testing.T) {
		Run(t, f, func() {
			bodyRan = true

			// Fixtures are fully loaded by the time the body runs.
			res, err := f.Search(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Hits.Total.Value)
		})
	})

	require.True(t, bodyRan)

	// The subtest has finished, so its cleanup has deleted the index.
	_, exists := backend.indices["sample.test"]
	assert.False(t, exists)
}

func TestRun_SetupFailureSkipsBody(t *testing.T) {
	tb := &recordingTB{}
	fixture := &hookFixture{setupErr: errors.New("index already exists")}

	bodyRan := false
	callAborting(t, func() {
		Run(tb, fixture, func() { bodyRan = true })
	})

	assert.False(t, bodyRan)
	require.Len(t, tb.fatals, 1)
	assert.Contains(t, tb.fatals[0], "index already exists")

	// Teardown is still registered, so a partially provisioned fixture is
	// cleaned up once the test finishes.
	tb.runCleanups()
	assert.Equal(t, 1, fixture.teardownCalls)
}

func TestRun_TeardownErrorIsSecondary(t *testing.T) {
	tb := &recordingTB{}
	fixture := &hookFixture{teardownErr: errors.New("shard failure")}

	bodyRan := false
	Run(tb, fixture, func() { bodyRan = true })
	tb.runCleanups()

	assert.True(t, bodyRan)
	assert.Empty(t, tb.fatals, "a teardown error must not abort or mask the test")
	require.Len(t, tb.errs, 1)
	assert.Contains(t, tb.errs[0], "shard failure")
}

func TestRun_TeardownRunsWhenBodyPanics(t *testing.T) {
	tb := &recordingTB{}
	fixture := &hookFixture{}

	func() {
		defer func() { _ = recover() }()
		Run(tb, fixture, func() { panic("assertion blew up") })
	}()

	tb.runCleanups()
	assert.Equal(t, 1, fixture.teardownCalls)
}
