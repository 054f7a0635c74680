// ABOUTME: Thread-safe registry for tool packs and their tools.
// ABOUTME: Manages pack registration, collision detection, and stable tool listing.

package packs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrPackAlreadyRegistered indicates a pack with the same ID is already registered.
var ErrPackAlreadyRegistered = errors.New("pack already registered")

// ErrToolCollision indicates a tool name already exists from another pack.
var ErrToolCollision = errors.New("tool name collision")

// ErrToolNotFound indicates the requested tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

// Handler executes a tool call. input is the raw JSON arguments object;
// the returned JSON is handed to the agent verbatim on success.
type Handler func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)

// Definition describes a tool to agents: its name, what it does, and the
// JSON schema of its arguments.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`

	// ReadOnly marks tools that never mutate platform state.
	ReadOnly bool `json:"-"`
}

// Tool pairs a definition with its in-process handler.
type Tool struct {
	Definition Definition
	Handler    Handler
}

// Pack is a collection of related tools under one ID.
type Pack struct {
	ID    string
	Tools []*Tool
}

// entry stores a tool with its owning pack ID for lookup.
type entry struct {
	tool   *Tool
	packID string
}

// Registry maintains the set of registered packs and their tools.
// Tool names are globally unique across packs.
type Registry struct {
	mu     sync.RWMutex
	packs  map[string]*Pack
	tools  map[string]*entry
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		packs:  make(map[string]*Pack),
		tools:  make(map[string]*entry),
		logger: logger,
	}
}

// RegisterPack validates and stores a pack and its tools.
// Returns ErrPackAlreadyRegistered if a pack with the same ID exists and
// ErrToolCollision if any tool name is already taken.
func (r *Registry) RegisterPack(pack *Pack) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.packs[pack.ID]; exists {
		return fmt.Errorf("%w: %q", ErrPackAlreadyRegistered, pack.ID)
	}

	for _, tool := range pack.Tools {
		name := tool.Definition.Name
		if name == "" {
			return fmt.Errorf("pack %q contains a tool with no name", pack.ID)
		}
		if tool.Handler == nil {
			return fmt.Errorf("tool %q has no handler", name)
		}
		if existing, exists := r.tools[name]; exists {
			return fmt.Errorf("%w: tool %q already registered by pack %q",
				ErrToolCollision, name, existing.packID)
		}
	}

	for _, tool := range pack.Tools {
		r.tools[tool.Definition.Name] = &entry{tool: tool, packID: pack.ID}
	}
	r.packs[pack.ID] = pack

	r.logger.Info("pack registered",
		"pack_id", pack.ID,
		"tool_count", len(pack.Tools),
		"total_tools", len(r.tools),
	)

	return nil
}

// Lookup finds a tool by name and returns it with its owning pack ID.
func (r *Registry) Lookup(name string) (*Tool, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.tools[name]
	if !exists {
		return nil, "", fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	return e.tool, e.packID, nil
}

// HasTool reports whether a tool with the given name is registered.
func (r *Registry) HasTool(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Definitions returns all tool definitions in deterministic name order,
// so repeated tools/list responses are stable.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, e := range r.tools {
		defs = append(defs, e.tool.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// PackInfo contains public information about a registered pack.
type PackInfo struct {
	ID        string
	ToolNames []string
}

// ListPacks returns pack summaries sorted by pack ID, tool names sorted
// within each pack.
func (r *Registry) ListPacks() []PackInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]PackInfo, 0, len(r.packs))
	for id, pack := range r.packs {
		names := make([]string, 0, len(pack.Tools))
		for _, tool := range pack.Tools {
			names = append(names, tool.Definition.Name)
		}
		sort.Strings(names)
		infos = append(infos, PackInfo{ID: id, ToolNames: names})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// ToolCount returns the number of registered tools.
func (r *Registry) ToolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
