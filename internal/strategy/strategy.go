// Package strategy binds notification-type tags to delivery behavior.
// The registry is built once at startup and immutable afterwards.
package strategy

import (
	"context"
	"log"
	"sort"

	"notification-service/internal/domain"
	"notification-service/pkg/xerrors"
)

// SystemType is the fallback strategy tag. It must always be
// registered; unknown type tags resolve to it.
const SystemType = "SYSTEM"

// Strategy is the per-type delivery behavior.
type Strategy interface {
	// Type returns the canonical type tag this strategy handles.
	Type() string

	// Validate checks a record before it is persisted.
	Validate(n *domain.Notification) error

	// DeterminePriority picks a priority when the producer left it
	// unset.
	DeterminePriority(n *domain.Notification) domain.Priority

	// Deliver attempts delivery on each enabled channel and reports a
	// per-channel outcome. Delivery is sequential across channels
	// within one record.
	Deliver(ctx context.Context, n *domain.Notification, channels []domain.Channel) domain.ChannelState
}

// Registry resolves a type tag to its strategy. Resolution is
// case-insensitive; unknown tags fall back to the SYSTEM strategy.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds the registry from the given strategies. A missing
// SYSTEM strategy or a duplicate tag is a startup error.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		tag := domain.NormalizeType(s.Type())
		if _, dup := m[tag]; dup {
			return nil, xerrors.ErrDuplicateType
		}
		m[tag] = s
	}
	if _, ok := m[SystemType]; !ok {
		return nil, xerrors.ErrNoSystemStrategy
	}
	return &Registry{strategies: m}, nil
}

// Resolve returns the strategy for typeTag, falling back to SYSTEM for
// unknown tags. It never fails.
func (r *Registry) Resolve(typeTag string) Strategy {
	tag := domain.NormalizeType(typeTag)
	if s, ok := r.strategies[tag]; ok {
		return s
	}
	log.Printf("[Registry] unsupported notification type %q, falling back to %s", typeTag, SystemType)
	return r.strategies[SystemType]
}

// Supports reports whether typeTag has a dedicated strategy.
func (r *Registry) Supports(typeTag string) bool {
	_, ok := r.strategies[domain.NormalizeType(typeTag)]
	return ok
}

// SupportedTypes returns the registered tags, sorted, for diagnostics.
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.strategies))
	for tag := range r.strategies {
		types = append(types, tag)
	}
	sort.Strings(types)
	return types
}
