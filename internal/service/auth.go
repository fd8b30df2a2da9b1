package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/latticekit/api/internal/audit"
	"github.com/latticekit/api/internal/model"
)

// bcrypt cost factor (10-14 recommended for production)
const bcryptCost = 12

// AuthService handles registration, login, and token refresh
type AuthService struct {
	userRepo     UserRepository
	tokenService *TokenService
	auditLog     *audit.Logger
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo     UserRepository
	TokenService *TokenService
	AuditLog     *audit.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		userRepo:     cfg.UserRepo,
		tokenService: cfg.TokenService,
		auditLog:     cfg.AuditLog,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Validate checks the registration fields declaratively
func (r *RegisterRequest) Validate() []model.FieldError {
	var errs []model.FieldError
	if err := model.ValidateUsername(r.Username); err != nil {
		errs = append(errs, model.FieldError{Field: "username", Message: err.Error()})
	}
	if !model.IsValidEmail(strings.TrimSpace(strings.ToLower(r.Email))) {
		errs = append(errs, model.FieldError{Field: "email", Message: "invalid email format"})
	}
	if err := model.ValidatePassword(r.Password); err != nil {
		errs = append(errs, model.FieldError{Field: "password", Message: err.Error()})
	}
	// Full name is optional
	if r.FullName != "" {
		if err := model.ValidateFullName(r.FullName); err != nil {
			errs = append(errs, model.FieldError{Field: "full_name", Message: err.Error()})
		}
	}
	return errs
}

// AuthResult represents a successful registration or login
type AuthResult struct {
	User      *model.User
	TokenPair *TokenPair
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, meta SessionMeta) (*AuthResult, error) {
	username := strings.TrimSpace(strings.ToLower(req.Username))
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailAlreadyExists
	}
	if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Hash:     hash,
		Status:   model.UserStatusActive,
		Role:     model.UserRoleUser,
		IsActive: true,
	}
	if name := model.NormalizeFullName(req.FullName); name != "" {
		user.FullName = &name
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	tokenPair, err := s.tokenService.GenerateTokenPair(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.auditLog.UserRegistered(ctx, user.ID, user.Username)

	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// LoginRequest represents a login request. Identifier is a username or email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login authenticates a user and issues a token pair.
// Failed attempts count toward a temporary lockout.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, meta SessionMeta) (*AuthResult, error) {
	identifier := strings.TrimSpace(strings.ToLower(req.Identifier))

	var user *model.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a comparison so missing users cost the same as bad passwords
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$000000000000000000000uGZLKQyGbUMGKz1fGFzNL8trkFLfGKO2"), []byte(req.Password))
		return nil, ErrInvalidCredentials
	}

	if user.IsLocked() {
		s.auditLog.LoginBlocked(ctx, user.ID, "account locked")
		return nil, ErrAccountLocked
	}
	if !user.IsActive || user.Status == model.UserStatusSuspended {
		s.auditLog.LoginBlocked(ctx, user.ID, "account inactive")
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(req.Password)); err != nil {
		user.RecordFailedLogin()
		if updateErr := s.userRepo.Update(ctx, user); updateErr != nil {
			return nil, updateErr
		}
		s.auditLog.LoginFailed(ctx, user.ID, user.FailedLoginAttempts)
		if user.IsLocked() {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	user.RecordLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	tokenPair, err := s.tokenService.GenerateTokenPair(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.auditLog.LoginSucceeded(ctx, user.ID)

	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// Refresh rotates a refresh token and issues a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*AuthResult, error) {
	userID, err := s.tokenService.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.CanLogin() {
		return nil, ErrAccountInactive
	}

	tokenPair, err := s.tokenService.GenerateTokenPair(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// Logout revokes the presented refresh token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	userID, err := s.tokenService.Revoke(ctx, refreshToken)
	if err != nil {
		return err
	}
	if userID != "" {
		s.auditLog.LoggedOut(ctx, userID)
	}
	return nil
}

// ChangePassword verifies the current password and sets a new one.
// All other sessions are revoked afterwards.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}
	if newPassword == currentPassword {
		return ErrPasswordReuse
	}

	if err := model.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	user.Hash = hash
	user.UpdatedBy = &user.ID
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if _, err := s.tokenService.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	s.auditLog.PasswordChanged(ctx, userID)
	return nil
}

// hashPassword hashes a password with bcrypt
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
