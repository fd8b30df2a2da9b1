package model

import "time"

// APIKeyStatus represents the lifecycle state of an API key
type APIKeyStatus string

const (
	APIKeyStatusActive  APIKeyStatus = "active"
	APIKeyStatusRevoked APIKeyStatus = "revoked"
	APIKeyStatusExpired APIKeyStatus = "expired"
)

// APIKey limits
const (
	MaxAPIKeyNameLength = 100
	MaxAPIKeysPerUser   = 20
)

// APIKey represents a machine credential. The full key is rendered as
// "lk_<prefix>_<secret>" exactly once at creation; only the bcrypt hash of
// the secret is stored. The prefix is kept for lookup.
type APIKey struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	Name       string       `json:"name"`
	Prefix     string       `json:"prefix"`
	SecretHash string       `json:"-"`
	Status     APIKeyStatus `json:"status"`
	Scopes     []string     `json:"scopes,omitempty"`
	LastUsedOn *time.Time   `json:"last_used_on,omitempty"`
	ExpiresOn  *time.Time   `json:"expires_on,omitempty"`
	CreatedBy  *string      `json:"created_by,omitempty"`
	CreatedOn  time.Time    `json:"created_on"`
	UpdatedOn  time.Time    `json:"updated_on"`
}

// IsExpired returns true if the key is past its expiry
func (k *APIKey) IsExpired() bool {
	return k.ExpiresOn != nil && time.Now().After(*k.ExpiresOn)
}

// IsUsable returns true if the key may authenticate requests
func (k *APIKey) IsUsable() bool {
	return k.Status == APIKeyStatusActive && !k.IsExpired()
}

// HasScope reports whether the key grants the given scope. A key with no
// scopes grants everything.
func (k *APIKey) HasScope(scope string) bool {
	if len(k.Scopes) == 0 {
		return true
	}
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// CreateAPIKeyRequest carries a new API key submission
type CreateAPIKeyRequest struct {
	Name          string   `json:"name"`
	Scopes        []string `json:"scopes,omitempty"`
	ExpiresInDays int      `json:"expires_in_days,omitempty"`
}

// Validate checks the API key submission fields
func (r *CreateAPIKeyRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > MaxAPIKeyNameLength {
		errs = append(errs, FieldError{Field: "name", Message: "name exceeds maximum length"})
	}
	if r.ExpiresInDays < 0 {
		errs = append(errs, FieldError{Field: "expires_in_days", Message: "expires_in_days cannot be negative"})
	}
	return errs
}
