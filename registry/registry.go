// Package registry merges the tool lists of multiple tool servers into one
// addressable namespace and resolves dispatched calls back to their owners.
package registry

import (
	"context"

	"github.com/spetersoncode/probe"
)

// Caller is the slice of a tool server the registry needs: a name, a tool
// list, and call forwarding. *server.Handle implements it. The registry
// holds non-owning references only; handle lifetime belongs to the
// server.Manager.
type Caller interface {
	Name() string
	Tools(ctx context.Context) ([]probe.Tool, error)
	Call(ctx context.Context, call probe.ToolCall) (probe.ToolResult, error)
}

// entry binds an exposed tool name to its owning server. remoteName is the
// server-local name, which differs from the exposed name when a collision
// was qualified.
type entry struct {
	tool       probe.Tool
	owner      Caller
	remoteName string
}

// Registry is the merged tool namespace. It is immutable after Build and
// safe for concurrent readers; dispatch side effects are scoped to the
// owning server.
type Registry struct {
	order   []string // exposed names in merge order, for stable Tools()
	entries map[string]entry
	allowed map[string]bool // nil means expose everything
}

// Option configures Build.
type Option func(*Registry)

// WithAllowed restricts the tools exposed to the model to the given names.
// Unlisted tools are dropped from Tools() but remain dispatchable by exact
// name for already-resolved requests.
func WithAllowed(names ...string) Option {
	return func(r *Registry) {
		r.allowed = make(map[string]bool, len(names))
		for _, n := range names {
			r.allowed[n] = true
		}
	}
}

// Qualify returns the exposed name of a server's tool after collision
// relabeling: "<server>__<tool>". The double underscore survives every
// provider's tool-name validation.
func Qualify(server, tool string) string {
	return server + "__" + tool
}

// Build queries each server's tool list once and merges them. Tools whose
// unqualified name appears on more than one server are relabeled with
// Qualify on every owner; the bare colliding name becomes unresolvable
// rather than silently shadowed. Construction is read-only with respect to
// server state.
func Build(ctx context.Context, servers []Caller, opts ...Option) (*Registry, error) {
	r := &Registry{entries: make(map[string]entry)}
	for _, opt := range opts {
		opt(r)
	}

	type listing struct {
		owner Caller
		tools []probe.Tool
	}

	listings := make([]listing, 0, len(servers))
	nameCount := make(map[string]int)

	for _, s := range servers {
		tools, err := s.Tools(ctx)
		if err != nil {
			return nil, &ErrListTools{Server: s.Name(), Err: err}
		}
		listings = append(listings, listing{owner: s, tools: tools})
		for _, t := range tools {
			nameCount[t.Name]++
		}
	}

	for _, l := range listings {
		for _, t := range l.tools {
			exposed := t.Name
			if nameCount[t.Name] > 1 {
				exposed = Qualify(l.owner.Name(), t.Name)
			}

			qualified := t
			qualified.Name = exposed
			r.order = append(r.order, exposed)
			r.entries[exposed] = entry{
				tool:       qualified,
				owner:      l.owner,
				remoteName: t.Name,
			}
		}
	}

	return r, nil
}

// Tools returns the tool descriptors exposed to the model, in merge order,
// with the allow-list filter applied.
func (r *Registry) Tools() []probe.Tool {
	tools := make([]probe.Tool, 0, len(r.order))
	for _, name := range r.order {
		if r.allowed != nil && !r.allowed[name] {
			continue
		}
		tools = append(tools, r.entries[name].tool)
	}
	return tools
}

// Names returns the exposed tool names, allow-list applied, in merge order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.allowed != nil && !r.allowed[name] {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Resolve returns the owning server for an exposed tool name. Resolution
// ignores the allow-list: an already-resolved request stays dispatchable.
func (r *Registry) Resolve(name string) (Caller, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.owner, true
}

// Dispatch resolves the call's owning server and forwards it, rewriting a
// qualified name back to the server-local one. An unresolvable name returns
// *ErrToolNotFound.
func (r *Registry) Dispatch(ctx context.Context, call probe.ToolCall) (probe.ToolResult, error) {
	e, ok := r.entries[call.Name]
	if !ok {
		return probe.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}

	forwarded := call
	forwarded.Name = e.remoteName
	return e.owner.Call(ctx, forwarded)
}
