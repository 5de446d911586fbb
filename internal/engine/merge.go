package engine

import (
	"github.com/roach88/classbook/internal/account"
	"github.com/roach88/classbook/internal/record"
)

// MergeReplace is the policy for collections that only originate on the
// remote side: a non-empty remote read replaces local outright, an empty or
// failed one (ok false) leaves local untouched.
func MergeReplace[T any](local, remote []T, ok bool) []T {
	if ok && len(remote) > 0 {
		return remote
	}
	return local
}

// MergeAccounts merges a remote account read into local. A failed read
// merges nothing, but the result still goes through the privileged
// account guarantee.
func MergeAccounts(local, remote []record.Account, ok bool) []record.Account {
	if !ok {
		remote = nil
	}
	return account.MergeRemote(local, remote)
}

// MergeClassConfig overlays the remote configuration on local when the
// remote read produced one.
func MergeClassConfig(local, remote record.ClassConfig, ok bool) record.ClassConfig {
	if !ok {
		return local
	}
	return local.Overlay(remote)
}
