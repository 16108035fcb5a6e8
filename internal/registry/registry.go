// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry indexes normalized entities by id, category and
// cross-reference target. A Builder collects entities during the load
// phase; Build freezes them into a Registry that has no mutation API and
// may be read from any number of goroutines without locking.
package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pdiddy/medcorpus/internal/validate"
	"github.com/pdiddy/medcorpus/pkg/types"
)

var (
	// ErrNotFound is returned by GetByID for an unknown id.
	ErrNotFound = errors.New("entity not found")

	// ErrSealed is returned by Register after Build.
	ErrSealed = errors.New("registry is sealed")
)

// Builder accumulates entities during the load phase. It is not safe for
// concurrent use.
type Builder struct {
	entities    map[string]types.Entity
	order       []string
	byCategory  map[types.Category][]string
	referencing map[string][]types.InboundReference
	sealed      bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		entities:    make(map[string]types.Entity),
		byCategory:  make(map[types.Category][]string),
		referencing: make(map[string][]types.InboundReference),
	}
}

// Register inserts e. When e.ID is already registered the first entity
// is kept and Register returns a *validate.Error of kind
// DuplicateEntityId.
func (b *Builder) Register(e types.Entity) error {
	if b.sealed {
		return fmt.Errorf("registering %q: %w", e.ID, ErrSealed)
	}
	if _, dup := b.entities[e.ID]; dup {
		return validate.DuplicateEntity(e.ID)
	}

	b.entities[e.ID] = e.Clone()
	b.order = append(b.order, e.ID)
	b.byCategory[e.Category] = append(b.byCategory[e.Category], e.ID)
	for _, x := range e.CrossReferences {
		target := strings.TrimSpace(x.TargetID)
		b.referencing[target] = append(b.referencing[target], types.InboundReference{
			SourceID:       e.ID,
			CrossReference: x,
		})
	}
	return nil
}

// Build seals the builder and returns the frozen Registry.
func (b *Builder) Build() *Registry {
	b.sealed = true
	return &Registry{
		entities:    b.entities,
		order:       b.order,
		byCategory:  b.byCategory,
		referencing: b.referencing,
	}
}

// Registry is an immutable snapshot of registered entities.
type Registry struct {
	entities    map[string]types.Entity
	order       []string
	byCategory  map[types.Category][]string
	referencing map[string][]types.InboundReference
}

// GetByID returns a copy of the entity registered under id.
func (r *Registry) GetByID(id string) (types.Entity, error) {
	e, ok := r.entities[id]
	if !ok {
		return types.Entity{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return e.Clone(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.entities[id]
	return ok
}

// Category returns the category of the entity registered under id. It
// satisfies validate.Snapshot.
func (r *Registry) Category(id string) (types.Category, bool) {
	e, ok := r.entities[id]
	return e.Category, ok
}

// ListByCategory returns copies of the entities in category, in
// registration order.
func (r *Registry) ListByCategory(category types.Category) []types.Entity {
	ids := r.byCategory[category]
	out := make([]types.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.entities[id].Clone())
	}
	return out
}

// ListReferencing returns the cross-references that point at targetID,
// each tagged with the id of the entity that declares it. Targets are
// indexed with surrounding spaces removed, the same way they are
// resolved during validation. Targets that do not exist are indexed too.
func (r *Registry) ListReferencing(targetID string) []types.InboundReference {
	return slices.Clone(r.referencing[targetID])
}

// IDs returns every registered id in registration order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.order)
}

// Categories returns the categories present, sorted.
func (r *Registry) Categories() []types.Category {
	return slices.Sorted(maps.Keys(r.byCategory))
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.entities)
}
