package service

import (
	"context"
	"strings"

	"github.com/latticekit/api/internal/audit"
	"github.com/latticekit/api/internal/model"
)

// UserService handles user management operations
type UserService struct {
	userRepo UserRepository
	auditLog *audit.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository, auditLog *audit.Logger) *UserService {
	return &UserService{userRepo: userRepo, auditLog: auditLog}
}

// CreateUserRequest represents an admin user creation request
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// Validate checks the creation fields declaratively
func (r *CreateUserRequest) Validate() []model.FieldError {
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
	switch model.UserRole(r.Role) {
	case "", model.UserRoleUser, model.UserRoleModerator, model.UserRoleAdmin:
	default:
		errs = append(errs, model.FieldError{Field: "role", Message: "role must be user, moderator, or admin"})
	}
	return errs
}

// Create creates a user on behalf of an administrator
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, createdBy string) (*model.User, error) {
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

	role := model.UserRole(req.Role)
	if role == "" {
		role = model.UserRoleUser
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user := &model.User{
		Username:  username,
		Email:     email,
		Hash:      hash,
		Status:    model.UserStatusActive,
		Role:      role,
		IsActive:  isActive,
		CreatedBy: &createdBy,
	}
	if name := model.NormalizeFullName(req.FullName); name != "" {
		user.FullName = &name
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditLog.UserCreated(ctx, user.ID, createdBy)
	return user, nil
}

// GetByID returns a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns users matching the filters with offset pagination
func (s *UserService) List(ctx context.Context, filters model.UserFilters, skip, limit int) ([]*model.User, int, error) {
	return s.userRepo.List(ctx, filters, skip, limit)
}

// Update applies a partial update to a user
func (s *UserService) Update(ctx context.Context, id string, req model.UpdateUserRequest, updatedBy string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.Username != nil {
		username := strings.TrimSpace(strings.ToLower(*req.Username))
		if !strings.EqualFold(username, user.Username) {
			if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil {
				return nil, err
			} else if existing != nil {
				return nil, ErrUsernameTaken
			}
		}
		user.Username = username
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		if !strings.EqualFold(email, user.Email) {
			if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
				return nil, err
			} else if existing != nil {
				return nil, ErrEmailAlreadyExists
			}
		}
		user.Email = email
	}
	if req.FullName != nil {
		if name := model.NormalizeFullName(*req.FullName); name != "" {
			user.FullName = &name
		} else {
			user.FullName = nil
		}
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		if !user.IsActive && user.Status == model.UserStatusActive {
			user.Status = model.UserStatusInactive
		}
		if user.IsActive && user.Status == model.UserStatusInactive {
			user.Status = model.UserStatusActive
		}
	}
	if req.Role != nil {
		user.Role = model.UserRole(*req.Role)
	}
	user.UpdatedBy = &updatedBy

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditLog.UserUpdated(ctx, user.ID, updatedBy)
	return user, nil
}

// Delete soft-deletes a user. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id, deletedBy string) error {
	if id == deletedBy {
		return ErrCannotDeleteSelf
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.userRepo.SoftDelete(ctx, id, deletedBy); err != nil {
		return err
	}

	s.auditLog.UserDeleted(ctx, id, deletedBy)
	return nil
}
