// Package account keeps the account collection consistent across the two
// independent paths that write it: local self-registration and remote
// approval.
//
// Identity is the normalized username (Key), never the id. After every
// merge the collection holds exactly one account per key, and the built-in
// privileged accounts (Defaults) are always present, so an administrator can
// sign in even when the local store was wiped or the remote side deleted them.
//
// Everything here is a pure function over slices; persisting the result is
// the caller's job.
package account
