package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/mcptap/mcptap/pkg/mcp"
)

// Routing errors.
var (
	// ErrNoRoute means no server, specific or wildcard, serves the tool.
	ErrNoRoute = errors.New("no route for tool")
	// ErrUnknownServer means the named server was never registered.
	ErrUnknownServer = errors.New("unknown server")
	// ErrNoDefaultServer means a non-tool method arrived and no wildcard
	// or single server exists to take it.
	ErrNoDefaultServer = errors.New("no default server")
)

// Upstream is one registered MCP server.
type Upstream struct {
	Name string
	URL  string
}

// Table is the tool-to-server routing table. All methods are safe for
// concurrent use; resolution on the request path takes only a read lock.
type Table struct {
	mu        sync.RWMutex
	log       *slog.Logger
	upstreams map[string]*Upstream
	order     []string
	tools     map[string]string
	wildcard  string
	degraded  map[string]bool
}

// NewTable creates an empty routing table. A nil logger discards
// registration warnings.
func NewTable(log *slog.Logger) *Table {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Table{
		log:       log,
		upstreams: make(map[string]*Upstream),
		tools:     make(map[string]string),
		degraded:  make(map[string]bool),
	}
}

// AddServer registers an upstream by name. Re-adding an existing name
// updates its URL.
func (t *Table) AddServer(name, url string) error {
	if name == "" {
		return fmt.Errorf("server name cannot be empty")
	}
	if url == "" {
		return fmt.Errorf("server %s: url cannot be empty", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.upstreams[name]; !exists {
		t.order = append(t.order, name)
	}
	t.upstreams[name] = &Upstream{Name: name, URL: url}
	return nil
}

// RegisterTools binds tool names to a server. The wildcard entry "*"
// makes the server the catch-all; only the first wildcard registration
// takes effect. Re-binding a specific tool to a different server logs a
// warning and keeps the first binding.
func (t *Table) RegisterTools(server string, tools []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.upstreams[server]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownServer, server)
	}

	for _, tool := range tools {
		if tool == mcp.Wildcard {
			if t.wildcard != "" && t.wildcard != server {
				t.log.Warn("wildcard already claimed, ignoring",
					"server", server, "claimedBy", t.wildcard)
				continue
			}
			t.wildcard = server
			continue
		}
		if prev, ok := t.tools[tool]; ok && prev != server {
			t.log.Warn("tool already routed, keeping first binding",
				"tool", tool, "server", prev, "ignored", server)
			continue
		}
		t.tools[tool] = server
	}
	return nil
}

// Resolve returns the upstream serving a tool. A specific binding wins
// over the wildcard regardless of registration order; with neither,
// ErrNoRoute.
func (t *Table) Resolve(toolName string) (*Upstream, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if server, ok := t.tools[toolName]; ok {
		return t.upstreams[server], nil
	}
	if t.wildcard != "" {
		return t.upstreams[t.wildcard], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoRoute, toolName)
}

// DefaultServer returns the upstream for requests that do not name a
// tool: the wildcard server if one exists, otherwise the only registered
// server, otherwise ErrNoDefaultServer.
func (t *Table) DefaultServer() (*Upstream, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.wildcard != "" {
		return t.upstreams[t.wildcard], nil
	}
	if len(t.order) == 1 {
		return t.upstreams[t.order[0]], nil
	}
	return nil, ErrNoDefaultServer
}

// Server returns a registered upstream by name.
func (t *Table) Server(name string) (*Upstream, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	up, ok := t.upstreams[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, name)
	}
	return up, nil
}

// Servers returns all registered upstreams in registration order.
func (t *Table) Servers() []*Upstream {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Upstream, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.upstreams[name])
	}
	return out
}

// Tools returns a snapshot of specific tool bindings, sorted by tool.
func (t *Table) Tools() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]string, len(t.tools))
	for tool, server := range t.tools {
		out[tool] = server
	}
	return out
}

// ToolNames returns the specifically bound tool names, sorted.
func (t *Table) ToolNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.tools))
	for tool := range t.tools {
		out = append(out, tool)
	}
	sort.Strings(out)
	return out
}

// MarkDegraded flags a server whose discovery failed. Its existing
// routes stay valid; the flag is informational for health reporting.
func (t *Table) MarkDegraded(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.degraded[name] = true
}

// DegradedServers returns the names of degraded servers, sorted.
func (t *Table) DegradedServers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.degraded))
	for name := range t.degraded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
