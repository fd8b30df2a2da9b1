// Package audit emits structured security-event logs.
//
// Audit events are a separate slog stream tagged with event names, so they
// can be filtered or shipped independently of request logs. Every method
// attaches the correlation ID carried in the request context.
package audit

import (
	"context"
	"log/slog"

	"github.com/latticekit/api/internal/middleware"
)

// Event names, stable for log consumers
const (
	EventUserRegistered  = "user.registered"
	EventLoginSucceeded  = "auth.login_succeeded"
	EventLoginFailed     = "auth.login_failed"
	EventLoginBlocked    = "auth.login_blocked"
	EventLoggedOut       = "auth.logged_out"
	EventPasswordChanged = "auth.password_changed"
	EventUserCreated     = "user.created"
	EventUserUpdated     = "user.updated"
	EventUserDeleted     = "user.deleted"
	EventAPIKeyCreated   = "api_key.created"
	EventAPIKeyRevoked   = "api_key.revoked"
	EventAPIKeyRejected  = "api_key.rejected"
)

// Logger writes audit events
type Logger struct {
	log *slog.Logger
}

// New creates an audit logger on top of the given slog logger
func New(log *slog.Logger) *Logger {
	return &Logger{log: log.With(slog.String("stream", "audit"))}
}

func (l *Logger) event(ctx context.Context, name string, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("event", name))
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		args = append(args, slog.String("correlation_id", cid))
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}
	l.log.Info(name, args...)
}

// UserRegistered records a self-service registration
func (l *Logger) UserRegistered(ctx context.Context, userID, username string) {
	l.event(ctx, EventUserRegistered,
		slog.String("user_id", userID),
		slog.String("username", username),
	)
}

// LoginSucceeded records a successful login
func (l *Logger) LoginSucceeded(ctx context.Context, userID string) {
	l.event(ctx, EventLoginSucceeded, slog.String("user_id", userID))
}

// LoginFailed records a failed password attempt and the running count
func (l *Logger) LoginFailed(ctx context.Context, userID string, attempts int) {
	l.event(ctx, EventLoginFailed,
		slog.String("user_id", userID),
		slog.Int("failed_attempts", attempts),
	)
}

// LoginBlocked records a login refused before password verification
func (l *Logger) LoginBlocked(ctx context.Context, userID, reason string) {
	l.event(ctx, EventLoginBlocked,
		slog.String("user_id", userID),
		slog.String("reason", reason),
	)
}

// LoggedOut records a session revoked by the user
func (l *Logger) LoggedOut(ctx context.Context, userID string) {
	l.event(ctx, EventLoggedOut, slog.String("user_id", userID))
}

// PasswordChanged records a password change
func (l *Logger) PasswordChanged(ctx context.Context, userID string) {
	l.event(ctx, EventPasswordChanged, slog.String("user_id", userID))
}

// UserCreated records an admin-created user
func (l *Logger) UserCreated(ctx context.Context, userID, createdBy string) {
	l.event(ctx, EventUserCreated,
		slog.String("user_id", userID),
		slog.String("created_by", createdBy),
	)
}

// UserUpdated records a user update
func (l *Logger) UserUpdated(ctx context.Context, userID, updatedBy string) {
	l.event(ctx, EventUserUpdated,
		slog.String("user_id", userID),
		slog.String("updated_by", updatedBy),
	)
}

// UserDeleted records a user soft-delete
func (l *Logger) UserDeleted(ctx context.Context, userID, deletedBy string) {
	l.event(ctx, EventUserDeleted,
		slog.String("user_id", userID),
		slog.String("deleted_by", deletedBy),
	)
}

// APIKeyCreated records a new API key
func (l *Logger) APIKeyCreated(ctx context.Context, keyID, userID string) {
	l.event(ctx, EventAPIKeyCreated,
		slog.String("key_id", keyID),
		slog.String("user_id", userID),
	)
}

// APIKeyRevoked records an API key revocation
func (l *Logger) APIKeyRevoked(ctx context.Context, keyID, userID string) {
	l.event(ctx, EventAPIKeyRevoked,
		slog.String("key_id", keyID),
		slog.String("user_id", userID),
	)
}

// APIKeyRejected records a failed API key authentication
func (l *Logger) APIKeyRejected(ctx context.Context, prefix, reason string) {
	l.event(ctx, EventAPIKeyRejected,
		slog.String("prefix", prefix),
		slog.String("reason", reason),
	)
}
