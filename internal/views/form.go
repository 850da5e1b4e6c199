package views

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/wolfman30/clinicdesk/internal/gateway"
)

// ErrBusy rejects a submit while another save from the same form is in
// flight.
var ErrBusy = errors.New("save already in progress")

// FormState is what a form screen renders. Input always holds the last
// submitted values so a failed save never clears the form.
type FormState[In any] struct {
	Input       In
	Busy        bool
	Saved       bool
	FieldErrors map[string]string
	Error       string
}

// FormOption configures a FormView.
type FormOption func(*formConfig)

type formConfig struct {
	protected bool
}

// Protected makes Submit require a stored session, like ListView.Load.
func Protected() FormOption {
	return func(c *formConfig) { c.protected = true }
}

// FormView submits one form at a time.
type FormView[In, Out any] struct {
	scope  *Scope
	deps   Deps
	submit func(context.Context, In) (Out, error)
	cfg    formConfig

	mu    sync.Mutex
	state FormState[In]
}

// NewFormView binds submit to scope.
func NewFormView[In, Out any](scope *Scope, deps Deps, submit func(context.Context, In) (Out, error), opts ...FormOption) *FormView[In, Out] {
	if scope == nil {
		scope = NewScope()
	}
	f := &FormView[In, Out]{scope: scope, deps: deps, submit: submit}
	for _, opt := range opts {
		opt(&f.cfg)
	}
	return f
}

// Submit saves in. A second Submit while one is running returns ErrBusy
// without calling the backend. Validation failures are attributed per
// field; other failures become a general message.
func (f *FormView[In, Out]) Submit(ctx context.Context, in In) (Out, error) {
	var zero Out

	f.mu.Lock()
	if f.state.Busy {
		f.mu.Unlock()
		return zero, ErrBusy
	}
	f.state = FormState[In]{Input: in, Busy: true}
	f.mu.Unlock()

	if f.cfg.protected {
		if err := f.deps.guard(ctx); err != nil {
			f.finish(err, false)
			return zero, err
		}
	}

	out, err := f.submit(ctx, in)
	expired := err != nil && f.deps.expire(ctx, err)
	if !f.finish(err, err == nil) {
		return out, ErrClosed
	}
	if expired {
		f.deps.redirect(LoginPath)
	}
	if err != nil {
		f.deps.logger().Info("form submit failed", "kind", gateway.Kind(err))
		return zero, err
	}
	return out, nil
}

// finish clears the busy flag and, while the scope is open, records the
// outcome. It reports whether the outcome was delivered.
func (f *FormView[In, Out]) finish(err error, saved bool) bool {
	delivered := f.scope.deliver(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.state.Busy = false
		f.state.Saved = saved
		if err == nil {
			return
		}
		var ve *gateway.ValidationError
		if errors.As(err, &ve) && len(ve.FieldNames()) > 0 {
			f.state.FieldErrors = ve.FirstMessages()
			return
		}
		f.state.Error = Message(err)
	})
	if !delivered {
		f.mu.Lock()
		f.state.Busy = false
		f.mu.Unlock()
	}
	return delivered
}

// State returns a snapshot of the form.
func (f *FormView[In, Out]) State() FormState[In] {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state
	s.FieldErrors = maps.Clone(f.state.FieldErrors)
	return s
}

// FieldError returns the message attributed to field, if any.
func (f *FormView[In, Out]) FieldError(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.FieldErrors[field]
}
