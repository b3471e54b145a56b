package estester

import (
	"context"
	"testing"
)

// Fixture is the lifecycle contract shared by IndexFixture and
// MultiIndexFixture.
type Fixture interface {
	PreSetup(ctx context.Context) error
	PostTeardown(ctx context.Context) error
}

// Run wraps a test body with fixture provisioning so test authors don't
// have to call the hooks themselves: it runs PreSetup, then body, and
// registers PostTeardown as a test cleanup.
//
// A setup error fails the test immediately and the body never runs.
// Teardown runs even when the body fails or panics, and a teardown error is
// reported as a secondary failure so it never masks the body's own failure.
// Process termination kills the test binary before cleanups run, so no
// teardown is attempted in that case.
func Run(t testing.TB, f Fixture, body func()) {
	t.Helper()
	RunContext(context.Background(), t, f, body)
}

// RunContext is Run with a caller-supplied context for the lifecycle hooks.
func RunContext(ctx context.Context, t testing.TB, f Fixture, body func()) {
	t.Helper()

	// Registered before setup so a half-provisioned fixture set is still
	// torn down when setup fails partway.
	t.Cleanup(func() {
		if err := f.PostTeardown(ctx); err != nil {
			t.Errorf("teardown: %v", err)
		}
	})

	if err := f.PreSetup(ctx); err != nil {
		t.Fatalf("setup: %v", err)
	}

	body()
}
