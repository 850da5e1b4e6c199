package views

import (
	"context"

	"github.com/wolfman30/clinicdesk/internal/gateway"
	"github.com/wolfman30/clinicdesk/internal/observability/metrics"
	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/login"

// Navigator performs redirects on behalf of a view.
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

// Deps are the collaborators every view needs.
type Deps struct {
	Sessions  session.Store
	Navigator Navigator
	Logger    *logging.Logger
	Metrics   *metrics.GatewayMetrics
}

func (d Deps) logger() *logging.Logger {
	if d.Logger == nil {
		return logging.Discard()
	}
	return d.Logger
}

func (d Deps) redirect(path string) {
	if d.Navigator != nil {
		d.Navigator.Redirect(path)
	}
}

// guard returns ErrUnauthenticated and redirects when no session is stored.
func (d Deps) guard(ctx context.Context) error {
	if _, err := session.Require(ctx, d.Sessions); err != nil {
		d.redirect(LoginPath)
		return err
	}
	return nil
}

// expire clears a rejected session. It runs even when the view is closed
// since the token is dead either way.
func (d Deps) expire(ctx context.Context, err error) bool {
	if !gateway.IsAuthorization(err) {
		return false
	}
	if d.Sessions != nil {
		if clearErr := d.Sessions.Clear(ctx); clearErr != nil {
			d.logger().Error("failed to clear rejected session", "error", clearErr)
		}
	}
	d.Metrics.ObserveSessionCleared()
	return true
}
