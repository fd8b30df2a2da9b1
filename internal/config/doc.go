// Package config manages application configuration for the Lattice API.
//
// The config package loads and validates configuration from environment
// variables. A .env file in the working directory is read first when present,
// without overriding variables already set in the environment. All
// configuration is centralized here to provide a single source of truth.
//
// # Configuration Loading
//
// Configuration is loaded from environment variables:
//
//	cfg, err := config.Load()
//
// # Configuration Groups
//
// Configuration is organized into logical groups:
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - StoreConfig: repository driver selection (memory or surrealdb)
//   - DatabaseConfig: SurrealDB connection settings
//   - CacheConfig: optional Redis settings
//   - JWTConfig: JWT signing and validation settings
//   - SessionConfig: refresh session lifetime
//   - RateLimitConfig: request rate limiting
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT        - HTTP server port (default: 8080)
//	SERVER_ENV         - development, staging, production, or test
//	STORE_DRIVER       - memory (default) or surrealdb
//	DB_HOST, DB_PORT   - SurrealDB endpoint
//	DB_NAMESPACE       - Database namespace
//	DB_DATABASE        - Database name
//	REDIS_URL          - Redis connection URL (empty disables the cache)
//	JWT_PRIVATE_KEY_PATH, JWT_PUBLIC_KEY_PATH - RS256 key pair
//	JWT_EXPIRATION_MINS - Access token lifetime in minutes
//	SESSION_TTL        - Refresh session lifetime (Go duration)
//
// # Validation
//
// Validate reports every problem at once via errors.Join, so a misconfigured
// deployment surfaces all missing values in a single startup failure. The
// memory driver is rejected in production.
package config
