// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

package exec

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/errors"
)

// HandlerFunc is an in-process action handler.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Registry executes actions through in-process handlers. Unknown kinds are
// an execution error, surfaced at startup by Validate when possible.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds an action kind to a handler. Later registrations replace
// earlier ones.
func (r *Registry) Register(kind string, handler HandlerFunc) {
	r.handlers[kind] = handler
}

// Kinds returns the registered action kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Execute runs the handler for the action's kind. The event payload is the
// base arguments; the planner's action params override on key collision.
func (r *Registry) Execute(ctx context.Context, action core.Action, payload map[string]any) (core.Outcome, error) {
	handler, ok := r.handlers[action.Kind]
	if !ok {
		return core.Outcome{}, errors.New(errors.CodeNotFound, "no handler for action", nil).
			WithContext("kind", action.Kind)
	}
	result, err := handler(ctx, mergeArgs(payload, action.Params))
	if err != nil {
		return core.Outcome{Success: false, Error: err.Error()}, nil
	}
	return core.Outcome{Success: true, Result: result}, nil
}

// ToolCaller is the slice of Client the MCP executor needs.
type ToolCaller interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
}

// MCPExecutor resolves action kinds to tools on an MCP server.
type MCPExecutor struct {
	caller ToolCaller
}

// NewMCPExecutor creates an executor over the given caller.
func NewMCPExecutor(caller ToolCaller) *MCPExecutor {
	return &MCPExecutor{caller: caller}
}

// Validate checks at startup that every expected action kind has a tool on
// the server, so missing bindings fail the boot instead of a cycle.
func (e *MCPExecutor) Validate(ctx context.Context, kinds []string) error {
	tools, err := e.caller.ListTools(ctx)
	if err != nil {
		return errors.New(errors.CodeExecution, "tool discovery failed", err)
	}
	available := make(map[string]bool, len(tools))
	for _, tool := range tools {
		available[tool.Name] = true
	}
	var missing []string
	for _, kind := range kinds {
		if !available[kind] {
			missing = append(missing, kind)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.CodeNotFound, "actions without server tools", nil).
			WithContext("missing", strings.Join(missing, ","))
	}
	slog.Default().Info("exec.mcp.validated",
		slog.Int("tools", len(tools)),
		slog.Int("actions", len(kinds)),
	)
	return nil
}

// Execute calls the tool named by the action kind. A tool-level error
// becomes a failed outcome; a transport error is returned as an error.
func (e *MCPExecutor) Execute(ctx context.Context, action core.Action, payload map[string]any) (core.Outcome, error) {
	result, err := e.caller.CallTool(ctx, action.Kind, mergeArgs(payload, action.Params))
	if err != nil {
		return core.Outcome{}, errors.New(errors.CodeExecution, "tool call failed", err).
			WithContext("kind", action.Kind).
			WithRecoverable(true)
	}
	if result == nil {
		return core.Outcome{}, errors.New(errors.CodeExecution, "tool returned no result", nil).
			WithContext("kind", action.Kind)
	}
	if result.IsError {
		return core.Outcome{Success: false, Error: textContent(result.Content)}, nil
	}
	if result.StructuredContent != nil {
		return core.Outcome{Success: true, Result: result.StructuredContent}, nil
	}
	return core.Outcome{Success: true, Result: textContent(result.Content)}, nil
}

// Fallback chains executors: the first one that knows the action kind
// wins. It lets local handlers shadow server tools.
type Fallback struct {
	primary   core.Executor
	secondary core.Executor
}

// NewFallback creates a chained executor.
func NewFallback(primary, secondary core.Executor) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

// Execute tries the primary executor and falls through to the secondary
// when the kind is unknown to the primary.
func (f *Fallback) Execute(ctx context.Context, action core.Action, payload map[string]any) (core.Outcome, error) {
	outcome, err := f.primary.Execute(ctx, action, payload)
	if err != nil {
		if pe := errors.AsPraxisError(err); pe.Code == errors.CodeNotFound {
			return f.secondary.Execute(ctx, action, payload)
		}
		return outcome, err
	}
	return outcome, nil
}

func mergeArgs(payload, params map[string]any) map[string]any {
	args := make(map[string]any, len(payload)+len(params))
	for k, v := range payload {
		args[k] = v
	}
	for k, v := range params {
		args[k] = v
	}
	return args
}

func textContent(items []mcp.Content) string {
	if len(items) == 0 {
		return ""
	}
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var _ core.Executor = (*Registry)(nil)
var _ core.Executor = (*MCPExecutor)(nil)
var _ core.Executor = (*Fallback)(nil)
