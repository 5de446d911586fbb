// Package record defines the plain, serializable class records that the
// sync layer moves between the local store and the remote endpoint.
//
// No record owns another: students, attendance days, accounts, notifications
// and reviews reference each other only by id. JSON field names follow the
// remote wire format so a record can be stored locally and pushed remotely
// without translation, except where the remote codec says otherwise.
//
// # Derived fields
//
// Transcript ranks, conduct and awards are computed by the grading
// collaborator. This package and everything built on it carries them through
// unchanged and never invents them.
//
// # Digests
//
// Digest hashes a record (or a whole collection) over canonical JSON: object
// keys sorted, strings NFC-normalized, numbers kept in their decimal form.
// Two collections with the same digest are the same data regardless of map
// iteration order, which is what the store uses to skip no-op writes.
package record
