// Package session holds the logged-in user's token and profile and the
// stores that persist them between runs.
package session

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoSession is returned by Store.Load when nothing (or nothing
	// readable) has been saved.
	ErrNoSession = errors.New("session: no session stored")

	// ErrUnauthenticated is returned by Require when no usable token exists.
	ErrUnauthenticated = errors.New("session: login required")
)

// Canonical keys. Every store writes exactly these.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// legacyKeys were written by older clients and are removed on Clear.
var legacyKeys = []string{"auth_token", "user_data", "roles", "permissions"}

// Role is a named role assigned to a user by the backend.
type Role struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// User is the profile returned alongside the token at login.
type User struct {
	ID          int      `json:"id"`
	Name        string   `json:"name,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Roles       []Role   `json:"roles"`
	Permissions []string `json:"permissions"`
}

// DisplayName prefers the explicit name, then "first last", then email.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		return full
	}
	return u.Email
}

// HasRole reports whether the user holds a role whose name matches exactly.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// HasPermission reports exact membership of perm in the permission list.
func (u User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Session is the token plus the user it was issued to.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether the session carries a token.
func (s *Session) Valid() bool {
	return s != nil && strings.TrimSpace(s.Token) != ""
}

// Store persists a single session. Save must be atomic: readers observe the
// token and user together or not at all.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// Require returns the stored session or ErrUnauthenticated. Protected views
// call it before issuing any request.
func Require(ctx context.Context, store Store) (*Session, error) {
	if store == nil {
		return nil, ErrUnauthenticated
	}
	s, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !s.Valid() {
		return nil, ErrUnauthenticated
	}
	return s, nil
}

// Token returns the bearer token for the current session, or "" when absent.
// Storage failures are treated as logged out.
func Token(ctx context.Context, store Store) string {
	if store == nil {
		return ""
	}
	s, err := store.Load(ctx)
	if err != nil || !s.Valid() {
		return ""
	}
	return s.Token
}

func clone(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.User.Roles = append([]Role(nil), s.User.Roles...)
	out.User.Permissions = append([]string(nil), s.User.Permissions...)
	return &out
}
