package export

import (
	"context"
	"sort"
	"sync"

	"github.com/quiver-build/quiver/pkg/digest"
	"github.com/quiver-build/quiver/pkg/types"
)

// ExportableTool marks a tool as eligible for the export goal. Backends
// register a tool against the Registry explicitly; there is no automatic
// discovery, and an unregistered tool is never considered for export.
type ExportableTool interface {
	Name() string

	// Version returns the pinned version exported for this tool, or ""
	// when the tool is not versioned (local script sets).
	Version() string

	// Request builds this tool's export request for one invocation of the
	// export goal.
	Request(cfg *types.AppConfig) (Request, error)
}

// Request is the per-backend export request. Each backend defines its own
// concrete type carrying whatever it needs to locate or build the tool.
type Request interface {
	ToolName() string
}

// Handler produces export results for one backend's request. Handlers
// perform no writes under dist/; all filesystem output happens in the
// materializer.
type Handler func(ctx context.Context, req Request, env *Environment) (Results, error)

// Environment is the ambient export configuration passed to every handler.
type Environment struct {
	Config  *types.AppConfig
	Store   *digest.Store
	DistDir string
}

// Registry is the extension point backends register into. Registering a
// tool alone is not enough to export it: the engine rejects tools whose
// backend never paired them with a handler.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]ExportableTool
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]ExportableTool),
		handlers: make(map[string]Handler),
	}
}

func (r *Registry) RegisterTool(t ExportableTool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

func (r *Registry) RegisterHandler(toolName string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[toolName] = h
}

// Tools returns the registered tools sorted by name.
func (r *Registry) Tools() []ExportableTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]ExportableTool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})
	return tools
}

func (r *Registry) Tool(name string) (ExportableTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Handler(toolName string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[toolName]
	return h, ok
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}
