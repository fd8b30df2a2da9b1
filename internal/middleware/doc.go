// Package middleware provides HTTP middleware for the Lattice API server.
//
// Middlewares compose via Chain, outermost first:
//
//	handler := middleware.Chain(mux,
//		middleware.Recovery,
//		middleware.CorrelationID,
//		middleware.Logger,
//		middleware.SecurityHeaders,
//		middleware.CORS(cfg.Server.AllowedOrigins),
//		middleware.RateLimit(limiter),
//		middleware.Compress,
//	)
//
// CorrelationID must run before anything that logs or writes error
// envelopes, since both pull the ID from the request context. Auth and
// APIKeyAuth populate the user identity that RateLimit and Idempotency key
// their buckets on, so they belong inside the chain on protected routes.
package middleware
