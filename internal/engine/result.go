package engine

import "context"

// Result reports the two outcomes of a mutation separately.
//
// Local is the committed-locally outcome: nil means State and the Local
// Store already hold the change. Remote delivers the replicated-remotely
// outcome exactly once and is then closed: nil on success, ErrLocalOnly
// when nothing was sent, or the push error. When Local is non-nil nothing
// is pushed and Remote delivers the same error.
//
// Callers that do not care about replication simply ignore Remote.
type Result struct {
	Local  error
	Remote <-chan error
}

// Wait returns Local if it failed, otherwise blocks for the remote outcome
// or until ctx is done.
func (r Result) Wait(ctx context.Context) error {
	if r.Local != nil {
		return r.Local
	}
	if r.Remote == nil {
		return nil
	}
	select {
	case err := <-r.Remote:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func settled(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

// refused is the Result of a mutation rejected before any write.
func refused(err error) Result {
	return Result{Local: err, Remote: settled(err)}
}

// localOnly is the Result of a change that is never replicated.
func localOnly() Result {
	return Result{Remote: settled(ErrLocalOnly)}
}
