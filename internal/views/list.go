package views

import (
	"context"
	"sync"

	"github.com/wolfman30/clinicdesk/internal/gateway"
)

// ListState is what a list screen renders.
type ListState[T any] struct {
	Items    []T
	Loading  bool
	Loaded   bool
	Error    string
	CanRetry bool
}

// ListView loads a collection for display.
type ListView[T any] struct {
	scope *Scope
	deps  Deps
	fetch func(context.Context) ([]T, error)

	mu    sync.Mutex
	state ListState[T]
}

// NewListView binds fetch to scope.
func NewListView[T any](scope *Scope, deps Deps, fetch func(context.Context) ([]T, error)) *ListView[T] {
	if scope == nil {
		scope = NewScope()
	}
	return &ListView[T]{scope: scope, deps: deps, fetch: fetch}
}

// Load checks the session, then fetches. Without a session the fetch is
// never attempted. On failure the list is emptied and a retryable banner
// set; an authorization failure also clears the session and redirects.
func (v *ListView[T]) Load(ctx context.Context) error {
	if err := v.deps.guard(ctx); err != nil {
		v.set(func(s *ListState[T]) {
			*s = ListState[T]{Items: []T{}, Error: Message(err)}
		})
		return err
	}

	v.set(func(s *ListState[T]) { s.Loading = true })
	items, err := v.fetch(ctx)

	expired := err != nil && v.deps.expire(ctx, err)
	delivered := v.scope.deliver(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if err != nil {
			v.state = ListState[T]{
				Items:    []T{},
				Loaded:   true,
				Error:    Message(err),
				CanRetry: !expired,
			}
			return
		}
		if items == nil {
			items = []T{}
		}
		v.state = ListState[T]{Items: items, Loaded: true}
	})
	if !delivered {
		return ErrClosed
	}
	if expired {
		v.deps.redirect(LoginPath)
	}
	if err != nil {
		v.deps.logger().Warn("list load failed", "kind", gateway.Kind(err), "error", err)
	}
	return err
}

// Retry reloads after a failure.
func (v *ListView[T]) Retry(ctx context.Context) error {
	return v.Load(ctx)
}

// State returns a snapshot of the current state.
func (v *ListView[T]) State() ListState[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Items = append([]T(nil), v.state.Items...)
	return s
}

func (v *ListView[T]) set(update func(*ListState[T])) {
	v.scope.deliver(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		update(&v.state)
	})
}
