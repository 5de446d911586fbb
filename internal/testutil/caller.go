package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/roach88/classbook/internal/remote"
)

// CallRecord captures one request made through a FakeCaller.
type CallRecord struct {
	Action  string
	Payload json.RawMessage
}

// FakeCaller is an in-process remote.Caller.
//
// Responses are canned per action. Actions without a response return no
// data, which the typed API treats as a failed read. Hold makes later calls
// block until released, for asserting on work done before the remote
// answers.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeCaller struct {
	mu         sync.Mutex
	configured bool
	data       map[string]json.RawMessage
	errs       map[string]error
	calls      []CallRecord
	gate       chan struct{}

	started     int
	settled     int
	inFlight    int
	maxInFlight int
}

var _ remote.Caller = (*FakeCaller)(nil)

// NewFakeCaller creates a caller that reports an endpoint as configured.
func NewFakeCaller() *FakeCaller {
	return &FakeCaller{
		configured: true,
		data:       make(map[string]json.RawMessage),
		errs:       make(map[string]error),
	}
}

// SetConfigured switches between networked and local-only mode.
func (f *FakeCaller) SetConfigured(configured bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = configured
}

// Respond sets the data returned for action. v is JSON-encoded.
func (f *FakeCaller) Respond(action string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: respond %s: %v", action, err))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[action] = data
	delete(f.errs, action)
}

// Fail makes action return err.
func (f *FakeCaller) Fail(action string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[action] = err
}

// Hold makes every call that starts from now on block until release is
// called or its context is done. release is idempotent.
func (f *FakeCaller) Hold() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Configured implements remote.Caller.
func (f *FakeCaller) Configured(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

// Do implements remote.Caller.
func (f *FakeCaller) Do(ctx context.Context, action string, payload any) (json.RawMessage, error) {
	f.mu.Lock()
	if !f.configured {
		f.mu.Unlock()
		return nil, remote.ErrNotConfigured
	}
	body, _ := json.Marshal(payload)
	f.calls = append(f.calls, CallRecord{Action: action, Payload: body})
	f.started++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	gate := f.gate
	f.mu.Unlock()

	var ctxErr error
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			ctxErr = ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled++
	f.inFlight--
	if ctxErr != nil {
		return nil, ctxErr
	}
	if err, ok := f.errs[action]; ok {
		return nil, err
	}
	return f.data[action], nil
}

// Call implements remote.Caller. Failures yield nil.
func (f *FakeCaller) Call(ctx context.Context, action string, payload any) json.RawMessage {
	data, err := f.Do(ctx, action, payload)
	if err != nil {
		return nil
	}
	return data
}

// Calls returns every recorded call in start order.
func (f *FakeCaller) Calls() []CallRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CallRecord, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor returns the recorded calls for one action.
func (f *FakeCaller) CallsFor(action string) []CallRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []CallRecord
	for _, c := range f.calls {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

// Counters returns how many calls have started and how many have settled.
func (f *FakeCaller) Counters() (started, settled int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.settled
}

// MaxInFlight returns the highest number of calls that were pending at
// the same time.
func (f *FakeCaller) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}
