// Package model defines domain entities and data structures for the Lattice API.
//
// The model package contains all struct definitions for domain objects, request/response
// types, validation rules, and error definitions. Models are used across all layers of
// the application.
//
// # Domain Entities
//
// Core domain entities include:
//
//   - User: Application user with credentials, status, role, and lockout bookkeeping
//   - Post: Content record owned by a user, with publication state
//   - Session: Refresh-token session backing the auth flow
//   - APIKey: Long-lived machine credential with scopes and expiry
//
// All entities carry audit fields (created_by, updated_by), timestamps
// (created_on, updated_on), and soft deletion (deleted_on) where applicable.
//
// # JSON Serialization
//
// All models use json struct tags for API serialization. Secrets (password
// hashes, API key hashes, refresh token hashes) are tagged `json:"-"` and
// never leave the process.
//
// # Error Envelope
//
// API errors use a uniform envelope defined in errors.go:
//
//	type ErrorResponse struct {
//	    Message       string       `json:"message"`
//	    ErrorCode     string       `json:"error_code"`
//	    Details       []FieldError `json:"details,omitempty"`
//	    CorrelationID string       `json:"correlation_id,omitempty"`
//	    Timestamp     time.Time    `json:"timestamp"`
//	}
package model
