// Package service contains the business logic for Lattice.
//
// Services sit between HTTP handlers and repositories. Handlers decode and
// map errors; services own the rules: credential verification and lockout,
// refresh-token rotation, API key lifecycle, soft-delete semantics, and
// readiness aggregation.
//
// # Error Handling
//
// Services return sentinel errors from errors.go. Handlers translate them to
// HTTP responses through the central error mapper; services never construct
// HTTP responses themselves. Validation failures surface as
// model.FieldError slices from the request types' Validate methods.
//
// # Repositories
//
// The repository interfaces consumed here are declared in repository.go.
// Both store drivers (SurrealDB and in-memory) satisfy them, so services are
// tested against the in-memory driver with no mocks.
package service
