package testutil

import (
	"context"
	"sync"
	"time"
)

// StepClock is a manual wall clock for tests.
//
// Each call to Now advances the clock by Step, so successive timestamps are
// distinct and predictable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a clock whose first Now returns start.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start, step: step}
}

// Now returns the current time and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// SleepRecord captures one Sleep call.
type SleepRecord struct {
	Duration time.Duration

	// Started and Settled are the fake caller's counters at the moment the
	// sleep began. Zero when no caller is attached.
	Started int
	Settled int
}

// RecordingSleeper records requested sleeps without waiting.
//
// Attach a FakeCaller to snapshot how many remote calls had been issued
// and settled when each sleep began; that is what shows batch k+1 never
// starts before batch k settles.
type RecordingSleeper struct {
	mu     sync.Mutex
	caller *FakeCaller
	sleeps []SleepRecord
}

// NewRecordingSleeper creates a sleeper. caller may be nil.
func NewRecordingSleeper(caller *FakeCaller) *RecordingSleeper {
	return &RecordingSleeper{caller: caller}
}

// Sleep records d and returns immediately, or ctx.Err() when ctx is done.
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	rec := SleepRecord{Duration: d}
	if s.caller != nil {
		rec.Started, rec.Settled = s.caller.Counters()
	}
	s.mu.Lock()
	s.sleeps = append(s.sleeps, rec)
	s.mu.Unlock()
	return ctx.Err()
}

// Sleeps returns a copy of the recorded sleeps.
func (s *RecordingSleeper) Sleeps() []SleepRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SleepRecord, len(s.sleeps))
	copy(out, s.sleeps)
	return out
}
