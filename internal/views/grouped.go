package views

import (
	"context"
	"errors"
	"sync"

	"github.com/wolfman30/clinicdesk/internal/grouping"
)

// GroupedView is a ListView whose items are shown as a date → patient tree.
// The expansion state survives reloads.
type GroupedView[R, P any] struct {
	list      *ListView[R]
	source    grouping.Source[R, P]
	expansion *grouping.ExpansionState

	mu   sync.Mutex
	tree grouping.Tree[R, P]
}

// NewGroupedView binds fetch to scope and groups with source. A nil
// expansion starts empty.
func NewGroupedView[R, P any](scope *Scope, deps Deps, fetch func(context.Context) ([]R, error), source grouping.Source[R, P], expansion *grouping.ExpansionState) *GroupedView[R, P] {
	if expansion == nil {
		expansion = grouping.NewExpansionState()
	}
	return &GroupedView[R, P]{
		list:      NewListView(scope, deps, fetch),
		source:    source,
		expansion: expansion,
	}
}

// Load fetches and regroups. The previous tree is discarded.
func (g *GroupedView[R, P]) Load(ctx context.Context) error {
	err := g.list.Load(ctx)
	if errors.Is(err, ErrClosed) {
		return err
	}
	tree := grouping.Rebuild(g.list.State().Items, g.source, g.expansion)
	g.mu.Lock()
	g.tree = tree
	g.mu.Unlock()
	return err
}

// Tree returns the current tree.
func (g *GroupedView[R, P]) Tree() grouping.Tree[R, P] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tree
}

// State returns the underlying list state.
func (g *GroupedView[R, P]) State() ListState[R] {
	return g.list.State()
}

// Expansion exposes the expansion state for toggling.
func (g *GroupedView[R, P]) Expansion() *grouping.ExpansionState {
	return g.expansion
}

// Toggle flips a date or patient key.
func (g *GroupedView[R, P]) Toggle(key string) bool {
	return g.expansion.Toggle(key)
}
