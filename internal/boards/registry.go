package boards

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry is an ordered, read-only set of sources keyed by name.
type Registry struct {
	order   []string
	sources map[string]Source
}

// NewRegistry builds a registry. Duplicate names are an error.
func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		name := strings.ToLower(s.Name())
		if _, dup := r.sources[name]; dup {
			return nil, fmt.Errorf("duplicate board %q", name)
		}
		r.order = append(r.order, name)
		r.sources[name] = s
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of built-in boards.
func Default() *Registry {
	defaultOnce.Do(func() {
		builtins := BuiltinProfiles()
		sources := make([]Source, 0, len(builtins))
		for _, p := range builtins {
			sources = append(sources, MustNew(p))
		}
		r, err := NewRegistry(sources...)
		if err != nil {
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// With returns a new registry where each source replaces the registered
// source of the same name, or is appended if the name is new.
func (r *Registry) With(sources ...Source) *Registry {
	out := &Registry{
		order:   append([]string(nil), r.order...),
		sources: make(map[string]Source, len(r.sources)+len(sources)),
	}
	for name, s := range r.sources {
		out.sources[name] = s
	}
	for _, s := range sources {
		name := strings.ToLower(s.Name())
		if _, exists := out.sources[name]; !exists {
			out.order = append(out.order, name)
		}
		out.sources[name] = s
	}
	return out
}

// Lookup finds a source by name, case-insensitively.
func (r *Registry) Lookup(name string) (Source, bool) {
	s, ok := r.sources[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names returns the registered names in registry order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Sources returns the registered sources in registry order.
func (r *Registry) Sources() []Source {
	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}

// Unknown returns the names not present in the registry, sorted.
func (r *Registry) Unknown(names []string) []string {
	var unknown []string
	for _, n := range names {
		if _, ok := r.Lookup(n); !ok {
			unknown = append(unknown, n)
		}
	}
	sort.Strings(unknown)
	return unknown
}
