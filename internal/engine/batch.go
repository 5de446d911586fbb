package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchConfig shapes one kind of bulk push.
type BatchConfig struct {
	// Size is the number of calls issued together. chunk treats values below
	// 1 as 1; loaded configuration rejects them.
	Size int `mapstructure:"size" yaml:"size" validate:"min=1"`

	// Delay is the pause after each chunk except the last.
	Delay time.Duration `mapstructure:"delay" yaml:"delay" validate:"gte=0"`
}

// Batches holds the bulk settings per operation kind.
type Batches struct {
	Create BatchConfig `mapstructure:"create" yaml:"create"`
	Update BatchConfig `mapstructure:"update" yaml:"update"`
	Delete BatchConfig `mapstructure:"delete" yaml:"delete"`
}

// DefaultBatches returns the settings tuned for a quota-limited script
// endpoint.
func DefaultBatches() Batches {
	return Batches{
		Create: BatchConfig{Size: 3, Delay: 200 * time.Millisecond},
		Update: BatchConfig{Size: 4, Delay: 300 * time.Millisecond},
		Delete: BatchConfig{Size: 1, Delay: 0},
	}
}

// chunk splits items into consecutive groups of at most size.
func chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

// pushChunked issues push for every item, cfg.Size at a time. All calls of
// a chunk settle before the pause and the next chunk. A failed call does
// not stop the rest; every failure is returned joined.
//
// A cancelled ctx stops before the next chunk.
func pushChunked[T any](ctx context.Context, sleeper Sleeper, cfg BatchConfig, items []T, push func(context.Context, T) error) error {
	groups := chunk(items, cfg.Size)
	var errs []error
	for i, group := range groups {
		groupErrs := make([]error, len(group))
		var g errgroup.Group
		for j, item := range group {
			g.Go(func() error {
				groupErrs[j] = push(ctx, item)
				return nil
			})
		}
		_ = g.Wait()
		errs = append(errs, groupErrs...)

		if i == len(groups)-1 {
			break
		}
		if err := sleeper.Sleep(ctx, cfg.Delay); err != nil {
			errs = append(errs, err)
			break
		}
	}
	return errors.Join(errs...)
}

// pushSequential issues push for one item at a time, waiting for each to
// settle and then pausing cfg.Delay.
func pushSequential[T any](ctx context.Context, sleeper Sleeper, cfg BatchConfig, items []T, push func(context.Context, T) error) error {
	var errs []error
	for i, item := range items {
		errs = append(errs, push(ctx, item))
		if i == len(items)-1 {
			break
		}
		if err := sleeper.Sleep(ctx, cfg.Delay); err != nil {
			errs = append(errs, err)
			break
		}
	}
	return errors.Join(errs...)
}
