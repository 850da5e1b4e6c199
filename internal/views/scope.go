// Package views holds the load/submit lifecycle shared by every screen:
// session guard, error banners, per-field validation messages, busy flags
// and redirects to login.
package views

import (
	"errors"
	"sync"
)

// ErrClosed is returned when a result arrived after its view was closed.
// The result has been dropped.
var ErrClosed = errors.New("view closed")

// Scope is the lifetime of one mounted view. In-flight requests are not
// cancelled by Close; their results are ignored instead.
type Scope struct {
	mu     sync.Mutex
	closed bool
}

// NewScope opens a scope.
func NewScope() *Scope {
	return &Scope{}
}

// Close tears the scope down. It is idempotent.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// deliver runs apply while holding the scope lock unless the scope is
// closed, in which case it returns false and apply is skipped.
func (s *Scope) deliver(apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	apply()
	return true
}
