// Package remote is the adapter to the remote record store: a single
// action-based RPC endpoint that takes {"action", "payload"} in a POST body
// and answers {"ok", "data" | "error"}.
//
// Two entry points cover the two ways failures must surface:
//
//   - Call is the read path. Transport errors, malformed bodies and
//     application rejections are logged and reduced to a nil result, so
//     background reconciliation never has to handle them.
//   - Do returns a classified *CallError (unreachable, misconfigured,
//     rejected) for paths where the caller reports the outcome, such as a
//     pushed mutation or an explicit endpoint check (Probe).
//
// An empty endpoint is not an error: it is the switch for local-only mode,
// reported as ErrNotConfigured without any network activity.
//
// The typed collection methods translate between records and the field
// layout the deployed endpoint uses (birthday vs dateOfBirth, transcript
// stored as a JSON string, attendance stored one row per student per day).
// There is no retry and no transactionality across actions.
package remote
