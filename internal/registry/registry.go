// Package registry keeps the process-wide set of named, user-saved
// filters, with one designated default, and optionally persists them to a
// sqlite database: everything is loaded at startup, each save is written
// through on demand.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1ts-org/snipe/internal/filter"
	"github.com/1ts-org/snipe/internal/message"
)

// Registry maps names to filters. It implements filter.Resolver for
// FilterLookup nodes. Safe for concurrent use; the filters themselves are
// immutable and shared freely.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]*filter.Filter
	sources map[string]string // original source text, for persistence and editing
	def     string

	db     *db // nil for an ephemeral registry
	logger *slog.Logger
}

// New returns an empty, ephemeral registry with no backing store.
func New() *Registry {
	return &Registry{
		filters: map[string]*filter.Filter{},
		sources: map[string]string{},
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger used for load-time diagnostics.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Resolve implements filter.Resolver.
func (r *Registry) Resolve(name string) (*filter.Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// Save stores f under name, replacing any previous filter of that name,
// and writes it through to the backing store if there is one.
func (r *Registry) Save(name string, f *filter.Filter) error {
	return r.save(name, f, f.String())
}

// SaveText parses and validates filter source and saves it under name.
// Invalid source leaves the registry untouched.
func (r *Registry) SaveText(name, text string) error {
	f, err := filter.Parse(text)
	if err != nil {
		return err
	}
	if err := filter.Validate(f, message.KnownField); err != nil {
		return err
	}
	return r.save(name, f, text)
}

func (r *Registry) save(name string, f *filter.Filter, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		if err := r.db.save(name, source, r.def == name); err != nil {
			return fmt.Errorf("save filter %q: %w", name, err)
		}
	}
	r.filters[name] = f
	r.sources[name] = source
	return nil
}

// Delete removes the named filter. Deleting the default clears the
// default designation.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.filters[name]; !ok {
		return fmt.Errorf("no filter named %q", name)
	}
	if r.db != nil {
		if err := r.db.delete(name); err != nil {
			return fmt.Errorf("delete filter %q: %w", name, err)
		}
	}
	delete(r.filters, name)
	delete(r.sources, name)
	if r.def == name {
		r.def = ""
	}
	return nil
}

// SetDefault designates an already-saved filter as the default used when
// a view's filter stack resets.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.filters[name]; !ok {
		return fmt.Errorf("no filter named %q", name)
	}
	if r.db != nil {
		if err := r.db.setDefault(name); err != nil {
			return fmt.Errorf("set default filter %q: %w", name, err)
		}
	}
	r.def = name
	return nil
}

// Default returns the designated default filter, if any.
func (r *Registry) Default() (*filter.Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.def == "" {
		return nil, false
	}
	f, ok := r.filters[r.def]
	return f, ok
}

// DefaultName returns the name of the default filter, or "".
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// Source returns the saved source text of the named filter.
func (r *Registry) Source(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// Names returns the saved filter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes the backing store, if any.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.close()
}
