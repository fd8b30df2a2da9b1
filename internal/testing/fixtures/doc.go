// Package fixtures creates test records directly in the repositories.
//
// The factory bypasses the service layer so tests can arrange state
// cheaply, then exercise the HTTP API against it:
//
//	env := apitest.New(t)
//	f := fixtures.New(env.Users, env.Posts, env.Keys)
//
//	admin := f.CreateAdmin(t)
//	post := f.CreatePost(t, admin, fixtures.Published())
//
// All fixture users share the plaintext password fixtures.Password, so
// tests can log in through the real /api/v1/auth/login endpoint.
package fixtures
