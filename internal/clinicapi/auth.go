package clinicapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/clinicdesk/internal/gateway"
	"github.com/wolfman30/clinicdesk/internal/session"
)

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	User        session.User `json:"user"`
}

// Login authenticates and saves the returned token and user to the
// gateway's session store in one Save.
func (s *Service) Login(ctx context.Context, creds Credentials) (*session.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	raw, err := s.gw.Post(ctx, "/login", creds)
	if err != nil {
		return nil, err
	}
	resp, err := gateway.DecodeItem[loginResponse](raw)
	if err != nil {
		return nil, err
	}
	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if strings.TrimSpace(token) == "" {
		return nil, &gateway.RequestError{Message: "login response did not include a token"}
	}

	sess := &session.Session{Token: token, User: resp.User}
	if store := s.gw.Sessions(); store != nil {
		if err := store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("clinicapi: save session: %w", err)
		}
	}
	return sess, nil
}

// Logout tells the backend to drop the token, then clears the local session
// whatever the backend said. A 401/403 means the token was already dead and
// is not reported.
func (s *Service) Logout(ctx context.Context) error {
	raw, postErr := s.gw.Post(ctx, "/logout", nil)
	if postErr == nil {
		postErr = gateway.CheckSuccess(raw)
	}

	if store := s.gw.Sessions(); store != nil {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clinicapi: clear session: %w", err)
		}
		s.gw.Metrics().ObserveSessionCleared()
	}
	if postErr != nil && !gateway.IsAuthorization(postErr) {
		return postErr
	}
	return nil
}

// Me fetches the current user's profile.
func (s *Service) Me(ctx context.Context) (session.User, error) {
	return getResource[session.User](ctx, s.gw, "/user")
}

// RefreshProfile re-reads the profile and stores it with the existing token,
// so role changes made by an administrator show up without a new login.
func (s *Service) RefreshProfile(ctx context.Context) (*session.Session, error) {
	store := s.gw.Sessions()
	current, err := session.Require(ctx, store)
	if err != nil {
		return nil, err
	}
	user, err := s.Me(ctx)
	if err != nil {
		return nil, err
	}
	updated := &session.Session{Token: current.Token, User: user}
	if err := store.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("clinicapi: save session: %w", err)
	}
	return updated, nil
}

// ErrMissingCredentials is returned before any request when the form is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// Validate checks the login form locally.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}
