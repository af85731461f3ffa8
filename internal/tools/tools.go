// Package tools defines the tool interface and registry for hostbox.
// Tools always resolve to a textual Result: business failures (missing
// files, rejected paths, failed commands) are unsuccessful results, not
// Go errors. Only malformed invocations surface as errors.
package tools

import (
	"context"
	"sync"
)

// Tool is the interface all hostbox tools implement.
type Tool interface {
	// Name returns the tool's unique identifier (e.g. "run_command").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// InputSchema returns a JSON Schema object describing the tool's
	// parameters, sent to the client as the tool's input schema.
	InputSchema() map[string]any

	// Validate checks that params are well-formed before execution so
	// invalid requests fail fast.
	Validate(params map[string]any) error

	// Execute runs the tool. The returned Result always carries text;
	// an error means the invocation itself was malformed.
	Execute(ctx context.Context, params map[string]any) (*Result, error)
}

// Result is the outcome of a tool execution.
type Result struct {
	Output   string
	Success  bool
	Metadata map[string]any
}

// TextResult is a successful plain-text result.
func TextResult(output string) *Result {
	return &Result{Output: output, Success: true}
}

// FailureResult carries a failure rendered as text, per the uniform
// always-returns-text contract.
func FailureResult(output string) *Result {
	return &Result{Output: output, Success: false}
}

// MaxOutputBytes is the cap for any single tool output.
const MaxOutputBytes = 1 << 20 // 1 MiB

// TruncateOutput caps a string at maxBytes, appending a truncation notice
// if cut.
func TruncateOutput(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	const suffix = "\n... [output truncated]"
	if maxBytes <= len(suffix) {
		return s[:maxBytes]
	}
	return s[:maxBytes-len(suffix)] + suffix
}

// Registry holds available tools keyed by name.
// Thread-safe for concurrent reads; writes should only happen at startup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Panics on duplicate names (startup configuration
// error, not a runtime condition).
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		panic("duplicate tool registration: " + t.Name())
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
}

// Get returns the tool by name, or nil if not found.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// List returns all registered tool names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns all registered tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}
