package model

import "time"

// Session represents a refresh-token session. The refresh token itself is
// random and only its SHA-256 hash is stored.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	UserAgent string     `json:"user_agent,omitempty"`
	IP        string     `json:"ip,omitempty"`
	ExpiresOn time.Time  `json:"expires_on"`
	RevokedOn *time.Time `json:"revoked_on,omitempty"`
	CreatedOn time.Time  `json:"created_on"`
}

// IsExpired returns true if the session is past its expiry
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresOn)
}

// IsValid returns true if the session can still be used to refresh tokens
func (s *Session) IsValid() bool {
	return s.RevokedOn == nil && !s.IsExpired()
}
