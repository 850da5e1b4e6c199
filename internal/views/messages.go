package views

import (
	"errors"
	"net/http"

	"github.com/wolfman30/clinicdesk/internal/gateway"
	"github.com/wolfman30/clinicdesk/internal/session"
)

// Message converts an error into the inline text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *gateway.ValidationError
		ae *gateway.AuthorizationError
		ne *gateway.NetworkError
		re *gateway.RequestError
	)
	switch {
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, session.ErrNoSession):
		return "Please log in to continue."
	case errors.Is(err, ErrBusy):
		return "A save is already in progress."
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ae):
		if ae.Status == http.StatusForbidden {
			return "You do not have permission to do that."
		}
		return "Your session has expired. Please log in again."
	case errors.As(err, &ne):
		return "Unable to reach the server. Check your connection and try again."
	case errors.As(err, &re):
		if re.Message != "" {
			return re.Message
		}
		return "Something went wrong. Please try again."
	default:
		return err.Error()
	}
}
