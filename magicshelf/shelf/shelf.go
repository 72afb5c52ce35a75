// Package shelf persists Magic Shelves: named, dynamically evaluated book
// collections defined by a rule tree instead of explicit membership. The
// rule tree is stored as JSON in the exact wire shape the rules package
// round-trips.
package shelf

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfworks/magicshelf/magicshelf/rules"
)

// Shelf owns one rule tree. A freshly created shelf carries the empty AND
// group, which matches every book.
type Shelf struct {
	ID        string
	Name      string
	Rule      *rules.GroupRule
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a shelf with a sortable ULID identity.
func New(name string, rule *rules.GroupRule) *Shelf {
	if rule == nil {
		rule = rules.NewGroup(rules.JoinAnd)
	}
	now := time.Now().UTC()
	return &Shelf{
		ID:        ulid.Make().String(),
		Name:      name,
		Rule:      rule,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
