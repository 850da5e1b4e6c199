package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

type contextKey string

const sessionKey contextKey = "session"

// LoginPath is the redirect target sent with a 401.
const LoginPath = "/login"

// RequireSession rejects requests when no session is stored, before any
// backend call is attempted. The loaded session is placed on the context.
func RequireSession(store session.Store, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := session.Require(r.Context(), store)
			if err != nil {
				if !errors.Is(err, session.ErrUnauthenticated) {
					logger.Error("session load failed", "error", err)
				}
				WriteLoginRequired(w)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session RequireSession stored.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok
}

// WriteLoginRequired writes the 401 body the browser uses to redirect.
func WriteLoginRequired(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":    "login required",
		"redirect": LoginPath,
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
