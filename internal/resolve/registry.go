package resolve

import (
	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
)

// Registry keeps structured sources keyed by the category they can answer
// for. A category without a registered source simply skips the structured
// tier.
type Registry struct {
	sources map[domain.Category]ports.StructuredSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[domain.Category]ports.StructuredSource{}}
}

// Register adds or replaces the source serving a category.
func (r *Registry) Register(category domain.Category, source ports.StructuredSource) {
	if r.sources == nil {
		r.sources = map[domain.Category]ports.StructuredSource{}
	}
	r.sources[category] = source
}

// Lookup returns the source for a category, if any.
func (r *Registry) Lookup(category domain.Category) (ports.StructuredSource, bool) {
	source, ok := r.sources[category]
	return source, ok
}
