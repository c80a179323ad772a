// Package trigger integrates the verb-trigger/synonym subsystem with the
// relationship index. The two would otherwise form an initialization cycle:
// the trigger subsystem wants relationship data during its own setup, and the
// index manager is wired into the server alongside it. Neither side receives
// a fully-constructed instance of the other; the index manager reference is
// resolved lazily on first actual use.
package trigger

import (
	"sync"

	"github.com/elemdex/elemdex/internal/index"
)

// Provider resolves the index manager on first use.
type Provider func() *index.Manager

// Resolver hands out the index manager lazily and caches the resolution.
// Safe for concurrent use.
type Resolver struct {
	provider Provider

	once    sync.Once
	manager *index.Manager
}

// NewResolver creates a Resolver over the given provider function.
func NewResolver(provider Provider) *Resolver {
	return &Resolver{provider: provider}
}

// Manager resolves and returns the index manager. The provider is invoked at
// most once, on first use, never at construction time.
func (r *Resolver) Manager() *index.Manager {
	r.once.Do(func() {
		r.manager = r.provider()
	})
	return r.manager
}
