// Package runtime is the wizard engine: a planner that walks the plan
// graph resolving step values into a variable bag, and an executor that
// runs action groups against the planned bag. Both phases dispatch work
// through a tag-keyed handler registry, so callers choose which
// capabilities (prompting, remote calls, persisted config) are live.
package runtime

import (
	"github.com/ormasoftchile/wizard/pkg/document"
)

// Bag is the ordered variable store threaded through one run. Names are
// bound in resolution order; rebinding an existing name keeps its
// original position.
type Bag struct {
	values *document.Map
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{values: document.NewMap()}
}

// Set binds name to value, overwriting any prior binding.
func (b *Bag) Set(name string, value any) {
	b.values.Set(name, value)
}

// Lookup returns the value bound to name and whether it is bound.
func (b *Bag) Lookup(name string) (any, bool) {
	return b.values.Get(name)
}

// Value returns the value bound to name, or nil when unbound. Explicit
// null bindings and absent names are indistinguishable here; use Lookup
// when that matters.
func (b *Bag) Value(name string) any {
	v, _ := b.values.Get(name)
	return v
}

// Names returns the bound names in binding order.
func (b *Bag) Names() []string {
	return b.values.Keys()
}

// Len returns the number of bound names.
func (b *Bag) Len() int {
	return b.values.Len()
}

// Snapshot returns the bag's contents as an ordered document map. The
// result is a deep copy; mutating it does not affect the bag.
func (b *Bag) Snapshot() *document.Map {
	return document.Copy(b.values).(*document.Map)
}
