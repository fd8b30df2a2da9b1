package tests

import (
	"net/http"
	"testing"

	"github.com/latticekit/api/internal/testing/fixtures"
	"github.com/latticekit/api/internal/testing/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
FEATURE: Posts
DOMAIN: Content

ACCEPTANCE CRITERIA:
===================

AC-POST-001: Create Draft
  GIVEN an authenticated user
  WHEN they create a post
  THEN it is stored as an unpublished draft owned by them
  AND anonymous creation is denied

AC-POST-002: Publish
  GIVEN a draft's author
  WHEN they publish it
  THEN it becomes publicly readable with a publish timestamp

AC-POST-003: Ownership Enforcement
  GIVEN a post by user A
  WHEN user B tries to modify or delete it
  THEN the request is denied
  AND an admin may modify any post

AC-POST-004: View Counting
  GIVEN a published post
  WHEN it is fetched repeatedly
  THEN its view count increases

AC-POST-005: List Filters
  GIVEN a mix of drafts and published posts
  WHEN listing with published or author_id filters
  THEN only matching posts are returned

AC-POST-006: Delete
  GIVEN a post's author
  WHEN they delete it
  THEN it is soft-deleted and fetching returns not found

AC-POST-007: Draft Visibility
  GIVEN an unpublished draft
  WHEN an anonymous or unrelated reader fetches or lists it
  THEN it is hidden
  AND the author and moderators can still read it

AC-POST-008: Pagination Bounds
  GIVEN a list request with out-of-range skip or limit
  WHEN it is handled
  THEN a validation error names the offending parameter
*/

// AC-POST-001
func TestPosts_CreateDraft(t *testing.T) {
	env, f := newEnv(t)
	author := f.CreateUser(t)

	anonymous := env.Serve(helpers.NewRequest(t, http.MethodPost, "/api/v1/posts").
		WithBody(map[string]string{"title": "Nope"}).
		Build())
	helpers.AssertError(t, anonymous, http.StatusUnauthorized, "AUTHENTICATION_FAILED")

	rec := env.Serve(helpers.NewRequest(t, http.MethodPost, "/api/v1/posts").
		WithBearer(env.AccessToken(t, author)).
		WithBody(map[string]string{
			"title":   "  First Post  ",
			"content": "Hello, world.",
		}).
		Build())
	helpers.AssertStatus(t, rec, http.StatusCreated)

	data := helpers.GetData(t, rec)
	assert.Equal(t, "First Post", data["title"])
	assert.Equal(t, author.ID, data["author_id"])
	assert.Equal(t, false, data["is_published"])
}

// AC-POST-002
func TestPosts_Publish(t *testing.T) {
	env, f := newEnv(t)
	author := f.CreateUser(t)
	post := f.CreatePost(t, author)

	rec := env.Serve(helpers.NewRequest(t, http.MethodPost, "/api/v1/posts/"+post.ID+"/publish").
		WithBearer(env.AccessToken(t, author)).
		Build())
	helpers.AssertStatus(t, rec, http.StatusOK)

	data := helpers.GetData(t, rec)
	require.Equal(t, true, data["is_published"])
	assert.NotEmpty(t, data["published_on"])

	// Now readable without credentials
	public := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts/"+post.ID).Build())
	helpers.AssertStatus(t, public, http.StatusOK)
}

// AC-POST-003
func TestPosts_OwnershipEnforced(t *testing.T) {
	env, f := newEnv(t)
	author := f.CreateUser(t)
	intruder := f.CreateUser(t)
	admin := f.CreateAdmin(t)
	post := f.CreatePost(t, author)

	edit := map[string]string{"title": "Hijacked"}

	denied := env.Serve(helpers.NewRequest(t, http.MethodPatch, "/api/v1/posts/"+post.ID).
		WithBearer(env.AccessToken(t, intruder)).
		WithBody(edit).
		Build())
	helpers.AssertError(t, denied, http.StatusForbidden, "ACCESS_DENIED")

	deleteDenied := env.Serve(helpers.NewRequest(t, http.MethodDelete, "/api/v1/posts/"+post.ID).
		WithBearer(env.AccessToken(t, intruder)).
		Build())
	helpers.AssertError(t, deleteDenied, http.StatusForbidden, "ACCESS_DENIED")

	byAdmin := env.Serve(helpers.NewRequest(t, http.MethodPatch, "/api/v1/posts/"+post.ID).
		WithBearer(env.AccessToken(t, admin)).
		WithBody(map[string]string{"title": "Moderated Title"}).
		Build())
	helpers.AssertStatus(t, byAdmin, http.StatusOK)
	assert.Equal(t, "Moderated Title", helpers.GetData(t, byAdmin)["title"])
}

// AC-POST-004
func TestPosts_ViewCounting(t *testing.T) {
	env, f := newEnv(t)
	author := f.CreateUser(t)
	post := f.CreatePost(t, author, fixtures.Published())

	var last map[string]interface{}
	for i := 0; i < 3; i++ {
		rec := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts/"+post.ID).Build())
		helpers.AssertStatus(t, rec, http.StatusOK)
		last = helpers.GetData(t, rec)
	}

	assert.EqualValues(t, 3, last["view_count"])
}

// AC-POST-005
func TestPosts_ListFilters(t *testing.T) {
	env, f := newEnv(t)
	alice := f.CreateUser(t)
	bob := f.CreateUser(t)
	f.CreatePost(t, alice, fixtures.Published(), fixtures.WithTitle("Alice Live"))
	f.CreatePost(t, alice, fixtures.WithTitle("Alice Draft"))
	f.CreatePost(t, bob, fixtures.Published(), fixtures.WithTitle("Bob Live"))

	published := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts?published=true").Build())
	helpers.AssertStatus(t, published, http.StatusOK)
	items, pagination := helpers.GetCollection(t, published)
	require.Len(t, items, 2)
	assert.EqualValues(t, 2, pagination["total"])

	byAuthor := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts?published=true&author_id="+bob.ID).Build())
	helpers.AssertStatus(t, byAuthor, http.StatusOK)
	items, _ = helpers.GetCollection(t, byAuthor)
	require.Len(t, items, 1)
	assert.Equal(t, "Bob Live", items[0]["title"])
}

// AC-POST-006
func TestPosts_Delete(t *testing.T) {
	env, f := newEnv(t)
	author := f.CreateUser(t)
	post := f.CreatePost(t, author, fixtures.Published())
	token := env.AccessToken(t, author)

	rec := env.Serve(helpers.NewRequest(t, http.MethodDelete, "/api/v1/posts/"+post.ID).
		WithBearer(token).
		Build())
	helpers.AssertStatus(t, rec, http.StatusNoContent)

	gone := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts/"+post.ID).Build())
	helpers.AssertError(t, gone, http.StatusNotFound, "RESOURCE_NOT_FOUND")
}

// AC-POST-007
func TestPosts_DraftHiddenFromOutsiders(t *testing.T) {
	env, f := newEnv(t)
	author := f.CreateUser(t)
	stranger := f.CreateUser(t)
	moderator := f.CreateModerator(t)
	draft := f.CreatePost(t, author, fixtures.WithTitle("Unreleased"))

	anonymous := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts/"+draft.ID).Build())
	helpers.AssertError(t, anonymous, http.StatusNotFound, "RESOURCE_NOT_FOUND")

	asStranger := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts/"+draft.ID).
		WithBearer(env.AccessToken(t, stranger)).
		Build())
	helpers.AssertError(t, asStranger, http.StatusNotFound, "RESOURCE_NOT_FOUND")

	asAuthor := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts/"+draft.ID).
		WithBearer(env.AccessToken(t, author)).
		Build())
	helpers.AssertStatus(t, asAuthor, http.StatusOK)
	assert.Equal(t, "Unreleased", helpers.GetData(t, asAuthor)["title"])

	asModerator := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts/"+draft.ID).
		WithBearer(env.AccessToken(t, moderator)).
		Build())
	helpers.AssertStatus(t, asModerator, http.StatusOK)

	// anonymous listings never include drafts
	listing := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts").Build())
	helpers.AssertStatus(t, listing, http.StatusOK)
	items, pagination := helpers.GetCollection(t, listing)
	require.Len(t, items, 0)
	assert.EqualValues(t, 0, pagination["total"])
}

// AC-POST-008
func TestPosts_PaginationBounds(t *testing.T) {
	env, _ := newEnv(t)

	tooLarge := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts?limit=101").Build())
	helpers.AssertValidationError(t, tooLarge, "limit")

	zero := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts?limit=0").Build())
	helpers.AssertValidationError(t, zero, "limit")

	negative := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts?skip=-1").Build())
	helpers.AssertValidationError(t, negative, "skip")

	garbage := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/posts?limit=lots").Build())
	helpers.AssertValidationError(t, garbage, "limit")
}
