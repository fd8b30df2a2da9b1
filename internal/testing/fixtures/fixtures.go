package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/internal/service"
)

// Password is the plaintext password every fixture user is created with.
// It satisfies the registration password policy.
const Password = "Str0ng!Passw0rd"

// Factory creates test records directly in the repositories, bypassing
// the service layer. Use it to arrange state; use the HTTP API to act.
type Factory struct {
	users service.UserRepository
	posts service.PostRepository
	keys  service.APIKeyRepository
}

// New creates a factory over the given repositories.
func New(users service.UserRepository, posts service.PostRepository, keys service.APIKeyRepository) *Factory {
	return &Factory{users: users, posts: posts, keys: keys}
}

func randomID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func ctx() context.Context {
	return context.Background()
}

// ===== Users =====

// UserOpts controls user creation
type UserOpts struct {
	Username string
	Email    string
	Password string
	Role     model.UserRole
	Inactive bool
}

// WithRole sets the user's role
func WithRole(role model.UserRole) func(*UserOpts) {
	return func(o *UserOpts) { o.Role = role }
}

// WithUsername sets the username
func WithUsername(username string) func(*UserOpts) {
	return func(o *UserOpts) { o.Username = username }
}

// WithEmail sets the email
func WithEmail(email string) func(*UserOpts) {
	return func(o *UserOpts) { o.Email = email }
}

// WithPassword overrides the default fixture password
func WithPassword(password string) func(*UserOpts) {
	return func(o *UserOpts) { o.Password = password }
}

// Inactive creates the user deactivated
func Inactive() func(*UserOpts) {
	return func(o *UserOpts) { o.Inactive = true }
}

// CreateUser creates an active user with a unique username and email.
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	id := randomID()
	o := UserOpts{
		Username: "user_" + id,
		Email:    fmt.Sprintf("user_%s@example.com", id),
		Password: Password,
		Role:     model.UserRoleUser,
	}
	for _, opt := range opts {
		opt(&o)
	}

	// MinCost keeps fixture-heavy tests fast; CompareHashAndPassword
	// accepts any cost
	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}

	user := &model.User{
		Username: o.Username,
		Email:    o.Email,
		Hash:     string(hash),
		Status:   model.UserStatusActive,
		Role:     o.Role,
		IsActive: true,
	}
	if o.Inactive {
		user.Status = model.UserStatusInactive
		user.IsActive = false
	}

	if err := f.users.Create(ctx(), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	return user
}

// CreateAdmin creates a user with the admin role.
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	t.Helper()
	return f.CreateUser(t, WithRole(model.UserRoleAdmin))
}

// CreateModerator creates a user with the moderator role.
func (f *Factory) CreateModerator(t *testing.T) *model.User {
	t.Helper()
	return f.CreateUser(t, WithRole(model.UserRoleModerator))
}

// ===== Posts =====

// PostOpts controls post creation
type PostOpts struct {
	Title     string
	Content   string
	Published bool
}

// WithTitle sets the post title
func WithTitle(title string) func(*PostOpts) {
	return func(o *PostOpts) { o.Title = title }
}

// WithContent sets the post body
func WithContent(content string) func(*PostOpts) {
	return func(o *PostOpts) { o.Content = content }
}

// Published creates the post already published
func Published() func(*PostOpts) {
	return func(o *PostOpts) { o.Published = true }
}

// CreatePost creates a post owned by the given author. Posts are drafts
// unless the Published option is given.
func (f *Factory) CreatePost(t *testing.T, author *model.User, opts ...func(*PostOpts)) *model.Post {
	t.Helper()

	o := PostOpts{
		Title:   "Post " + randomID(),
		Content: "Fixture content.",
	}
	for _, opt := range opts {
		opt(&o)
	}

	post := &model.Post{
		AuthorID:  author.ID,
		Title:     o.Title,
		Content:   o.Content,
		CreatedBy: &author.ID,
	}
	if o.Published {
		now := time.Now().UTC()
		post.IsPublished = true
		post.PublishedOn = &now
	}

	if err := f.posts.Create(ctx(), post); err != nil {
		t.Fatalf("fixtures: failed to create post: %v", err)
	}
	return post
}

// ===== API Keys =====

// CreateAPIKey creates an active API key for the owner and returns both
// the stored record and the raw key string a client would present.
func (f *Factory) CreateAPIKey(t *testing.T, owner *model.User, scopes ...string) (*model.APIKey, string) {
	t.Helper()

	prefix := randomID() + randomID()
	secret := randomID() + randomID() + randomID() + randomID()
	raw := fmt.Sprintf("lk_%s_%s", prefix, secret)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash api key secret: %v", err)
	}

	key := &model.APIKey{
		UserID:     owner.ID,
		Name:       "key-" + prefix,
		Prefix:     prefix,
		SecretHash: string(hash),
		Status:     model.APIKeyStatusActive,
		Scopes:     scopes,
		CreatedBy:  &owner.ID,
	}

	if err := f.keys.Create(ctx(), key); err != nil {
		t.Fatalf("fixtures: failed to create api key: %v", err)
	}
	return key, raw
}
