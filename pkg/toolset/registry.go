// Package toolset implements the tool registry and the tool
// invocation layer on top of the generic pkg/registry primitive,
// mirroring the teacher's pkg/tools.ToolRegistry wrapping
// pkg/registry.BaseRegistry.
package toolset

import (
	"sync"

	"github.com/agentcore-dev/agentcore/pkg/registry"
	"github.com/agentcore-dev/agentcore/pkg/tool"
)

// Registry is the process-wide tool lookup. The zero value is not
// usable; construct with New.
type Registry struct {
	store *registry.Store[tool.Tool]
}

// New constructs an isolated Registry, e.g. for tests.
func New() *Registry {
	return &Registry{store: registry.New[tool.Tool]()}
}

// Register adds t under its Name(), with its Aliases() as additional
// lookup keys. Fails with *registry.AlreadyRegisteredError if the name
// or an alias is already taken by a different instance (T1); idempotent
// for re-registering the same instance (T2).
func (r *Registry) Register(t tool.Tool) error {
	return r.store.Register(t.Name(), t, t.Aliases()...)
}

// Unregister removes t by canonical name.
func (r *Registry) Unregister(name string) error {
	return r.store.Unregister(name)
}

// Get resolves aliases and returns the tool registered under name.
func (r *Registry) Get(name string) (tool.Tool, error) {
	return r.store.Get(name)
}

// List returns an independent snapshot of canonical name -> tool.
func (r *Registry) List() map[string]tool.Tool {
	return r.store.List()
}

// Map is the dual-style (legacy mutable-mapping) accessor: same
// underlying store as Register/Get/List, just a different call shape
// for call sites that expect a plain map.
func (r *Registry) Map() map[string]tool.Tool { return r.List() }

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default lazily constructs the single process-wide Registry, safe for
// first access from any goroutine.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = New() })
	return defaultReg
}
