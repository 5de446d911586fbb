package engine

import (
	"io"
	"log/slog"
	"time"

	"github.com/roach88/classbook/internal/record"
)

type options struct {
	logger  *slog.Logger
	now     func() time.Time
	ids     record.IDGenerator
	sleeper Sleeper
	batches Batches
}

func buildOptions(opts []Option) options {
	o := options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		ids:     record.UUIDv7Generator{},
		sleeper: TimerSleeper{},
		batches: DefaultBatches(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Coordinator or a Dispatcher.
type Option func(*options)

// WithLogger sets the logger for background failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the wall clock used for sync times and default
// record dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides the generator for new record ids and run ids.
func WithIDGenerator(g record.IDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.ids = g
		}
	}
}

// WithSleeper overrides how the dispatcher pauses between chunks.
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleeper = s
		}
	}
}

// WithBatches sets chunk sizes and delays for bulk pushes.
func WithBatches(b Batches) Option {
	return func(o *options) {
		o.batches = b
	}
}
