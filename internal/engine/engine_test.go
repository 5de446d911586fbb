package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/classbook/internal/remote"
	"github.com/roach88/classbook/internal/store"
	"github.com/roach88/classbook/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testStart = time.Date(2024, 9, 5, 7, 30, 0, 0, time.UTC)

// harness wires a bootstrapped store, a fake remote and both engine halves
// the way the CLI does.
type harness struct {
	store   *store.Store
	caller  *testutil.FakeCaller
	api     *remote.API
	state   *State
	sleeper *testutil.RecordingSleeper
	ids     *testutil.SequenceGenerator
	clock   *testutil.StepClock
	disp    *Dispatcher
	coord   *Coordinator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "classbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, err = st.Bootstrap(ctx)
	require.NoError(t, err)

	h := &harness{
		store:  st,
		caller: testutil.NewFakeCaller(),
		state:  NewState(),
		ids:    testutil.NewSequenceGenerator("gen"),
		clock:  testutil.NewStepClock(testStart, time.Second),
	}
	h.api = remote.NewAPI(h.caller, nil)
	h.sleeper = testutil.NewRecordingSleeper(h.caller)
	require.NoError(t, h.state.Load(ctx, st))

	opts := []Option{
		WithClock(h.clock.Now),
		WithIDGenerator(h.ids),
		WithSleeper(h.sleeper),
	}
	h.disp = NewDispatcher(st, h.api, h.state, opts...)
	h.coord = NewCoordinator(st, h.api, h.state, opts...)
	t.Cleanup(func() { h.coord.Close() })
	t.Cleanup(h.disp.Wait)
	return h
}

// localOnly switches the fake remote off.
func (h *harness) localOnly() *harness {
	h.caller.SetConfigured(false)
	return h
}

// waitRemote blocks for a Result's remote outcome.
func waitRemote(t *testing.T, r Result) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case err := <-r.Remote:
		return err
	case <-ctx.Done():
		t.Fatal("remote outcome never delivered")
		return nil
	}
}
