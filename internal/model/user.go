package model

import "time"

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleUser      UserRole = "user"      // Default role
	UserRoleModerator UserRole = "moderator" // Can manage other users' content
	UserRoleAdmin     UserRole = "admin"     // Full access including user management
)

// UserStatus represents the lifecycle state of a user account
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"   // Created, email not yet verified
	UserStatusActive    UserStatus = "active"    // Normal state
	UserStatusInactive  UserStatus = "inactive"  // Deactivated by the user or an admin
	UserStatusSuspended UserStatus = "suspended" // Locked out by moderation
)

// Lockout policy applied after repeated failed logins.
const (
	MaxFailedLoginAttempts = 5
	LockoutDuration        = time.Hour
)

// User represents a user account
type User struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	Hash                string     `json:"-"` // Never expose password hash
	FullName            *string    `json:"full_name,omitempty"`
	Status              UserStatus `json:"status"`
	Role                UserRole   `json:"role"`
	IsActive            bool       `json:"is_active"`
	EmailVerified       bool       `json:"email_verified"`
	LastLoginOn         *time.Time `json:"last_login_on,omitempty"`
	LoginCount          int        `json:"login_count"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	CreatedBy           *string    `json:"created_by,omitempty"`
	UpdatedBy           *string    `json:"updated_by,omitempty"`
	CreatedOn           time.Time  `json:"created_on"`
	UpdatedOn           time.Time  `json:"updated_on"`
	DeletedOn           *time.Time `json:"-"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// IsModerator returns true if the user has moderator or admin role
func (u *User) IsModerator() bool {
	return u.Role == UserRoleModerator || u.Role == UserRoleAdmin
}

// IsDeleted returns true if the user has been soft-deleted
func (u *User) IsDeleted() bool {
	return u.DeletedOn != nil
}

// IsLocked returns true if the account is inside a lockout window
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// CanLogin returns true if the account may authenticate right now
func (u *User) CanLogin() bool {
	return u.IsActive && !u.IsDeleted() && !u.IsLocked() &&
		u.Status != UserStatusSuspended && u.Status != UserStatusInactive
}

// RecordFailedLogin increments the failure counter and arms the lockout
// window once the threshold is crossed.
func (u *User) RecordFailedLogin() {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= MaxFailedLoginAttempts {
		until := time.Now().Add(LockoutDuration)
		u.LockedUntil = &until
	}
}

// RecordLogin resets failure bookkeeping and updates login stats
func (u *User) RecordLogin() {
	now := time.Now()
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginOn = &now
	u.LoginCount++
}

// UserFilters narrows a user listing
type UserFilters struct {
	IsActive      *bool
	Search        string // matches username, email, or full name
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// UpdateUserRequest carries a partial user update. Nil fields are untouched.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Validate checks the provided fields of a partial update
func (r *UpdateUserRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username != nil {
		if err := ValidateUsername(*r.Username); err != nil {
			errs = append(errs, FieldError{Field: "username", Message: err.Error()})
		}
	}
	if r.Email != nil && !IsValidEmail(*r.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "invalid email format"})
	}
	if r.FullName != nil {
		if err := ValidateFullName(*r.FullName); err != nil {
			errs = append(errs, FieldError{Field: "full_name", Message: err.Error()})
		}
	}
	if r.Role != nil {
		switch UserRole(*r.Role) {
		case UserRoleUser, UserRoleModerator, UserRoleAdmin:
		default:
			errs = append(errs, FieldError{Field: "role", Message: "role must be user, moderator, or admin"})
		}
	}
	return errs
}
