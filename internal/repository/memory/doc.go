// Package memory provides in-memory repository implementations.
//
// This is the default store driver. All data lives in process memory behind a
// read-write mutex and is lost on restart, which suits local development,
// demos, and tests. The repositories return the same sentinel errors as the
// database package (ErrNotFound, ErrDuplicate) so the service layer is
// driver-agnostic.
//
// Repositories hand out copies of stored records. Callers may mutate a
// returned value freely; changes only take effect through Update.
package memory
