// Package handler implements the HTTP endpoints of the Lattice API.
//
// Handlers are thin: they decode and validate request bodies, call the
// matching service, and render either a DataResponse / CollectionResponse
// envelope or the uniform error envelope. All service errors funnel through
// MapServiceError so status codes stay consistent across endpoints.
package handler
