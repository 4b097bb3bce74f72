package marketplace

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Selection is the set of script names a user has opted into.
type Selection struct {
	names map[string]struct{}
}

// NewSelection builds a set from names; blanks and duplicates collapse.
func NewSelection(names ...string) Selection {
	s := Selection{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n != "" {
			s.names[n] = struct{}{}
		}
	}
	return s
}

// Contains reports membership.
func (s Selection) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of selected names.
func (s Selection) Len() int { return len(s.names) }

// Toggle flips membership of name and reports whether it is now selected.
func (s *Selection) Toggle(name string) bool {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	if _, ok := s.names[name]; ok {
		delete(s.names, name)
		return false
	}
	s.names[name] = struct{}{}
	return true
}

// Names returns the members sorted.
func (s Selection) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// SelectionStore persists selections per user.
type SelectionStore interface {
	LoadSelection(ctx context.Context, userID uuid.UUID) (Selection, error)
	SaveSelection(ctx context.Context, userID uuid.UUID, sel Selection) error
}

// Toggle flips name in the user's stored selection. It is a plain
// read-modify-write: concurrent toggles by the same user race and the
// last save wins.
func Toggle(ctx context.Context, store SelectionStore, userID uuid.UUID, name string) (bool, Selection, error) {
	sel, err := store.LoadSelection(ctx, userID)
	if err != nil {
		return false, Selection{}, fmt.Errorf("marketplace.Toggle: load: %w", err)
	}
	now := sel.Toggle(name)
	if err := store.SaveSelection(ctx, userID, sel); err != nil {
		return false, Selection{}, fmt.Errorf("marketplace.Toggle: save: %w", err)
	}
	return now, sel, nil
}
