package exec

import (
	"context"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/errors"
)

type stubCaller struct {
	tools    []mcp.Tool
	lastName string
	lastArgs map[string]interface{}
	result   *mcp.CallToolResult
	err      error
}

func (s *stubCaller) ListTools(_ context.Context) ([]mcp.Tool, error) {
	return s.tools, s.err
}

func (s *stubCaller) CallTool(_ context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	s.lastName = name
	s.lastArgs = args
	return s.result, s.err
}

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry()
	r.Register("greet", func(_ context.Context, args map[string]any) (any, error) {
		return fmt.Sprintf("hello %v", args["name"]), nil
	})

	outcome, err := r.Execute(context.Background(),
		core.Action{Kind: "greet", Params: map[string]any{"name": "ada"}},
		map[string]any{"name": "ignored", "source": "event"},
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !outcome.Success || outcome.Result != "hello ada" {
		t.Fatalf("action params must override payload: %+v", outcome)
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), core.Action{Kind: "missing"}, nil)
	pe := errors.AsPraxisError(err)
	if pe == nil || pe.Code != errors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRegistryHandlerErrorBecomesFailedOutcome(t *testing.T) {
	r := NewRegistry()
	r.Register("boom", func(_ context.Context, _ map[string]any) (any, error) {
		return nil, fmt.Errorf("exploded")
	})
	outcome, err := r.Execute(context.Background(), core.Action{Kind: "boom"}, nil)
	if err != nil {
		t.Fatalf("handler errors are outcomes, not transport errors: %v", err)
	}
	if outcome.Success || outcome.Error != "exploded" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestMCPExecutorExecute(t *testing.T) {
	caller := &stubCaller{
		result: &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "fetched"}},
		},
	}
	e := NewMCPExecutor(caller)

	outcome, err := e.Execute(context.Background(),
		core.Action{Kind: "fetch_page", Params: map[string]any{"url": "https://example.com"}},
		map[string]any{"attempt": 1},
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !outcome.Success || outcome.Result != "fetched" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if caller.lastName != "fetch_page" || caller.lastArgs["url"] != "https://example.com" {
		t.Fatalf("tool call not forwarded: name=%s args=%v", caller.lastName, caller.lastArgs)
	}
}

func TestMCPExecutorToolError(t *testing.T) {
	caller := &stubCaller{
		result: &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "404 not found"}},
		},
	}
	outcome, err := NewMCPExecutor(caller).Execute(context.Background(), core.Action{Kind: "fetch_page"}, nil)
	if err != nil {
		t.Fatalf("tool-level errors are outcomes: %v", err)
	}
	if outcome.Success || outcome.Error != "404 not found" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestMCPExecutorTransportError(t *testing.T) {
	caller := &stubCaller{err: fmt.Errorf("connection refused")}
	_, err := NewMCPExecutor(caller).Execute(context.Background(), core.Action{Kind: "fetch_page"}, nil)
	pe := errors.AsPraxisError(err)
	if pe == nil || pe.Code != errors.CodeExecution {
		t.Fatalf("expected execution error, got %v", err)
	}
}

func TestMCPExecutorValidate(t *testing.T) {
	caller := &stubCaller{tools: []mcp.Tool{{Name: "fetch_page"}, {Name: "write_file"}}}
	e := NewMCPExecutor(caller)

	if err := e.Validate(context.Background(), []string{"fetch_page"}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := e.Validate(context.Background(), []string{"fetch_page", "send_mail"}); err == nil {
		t.Fatal("expected missing tool to fail validation")
	}
}

func TestFallbackChainsOnUnknownKind(t *testing.T) {
	local := NewRegistry()
	local.Register("local_only", func(_ context.Context, _ map[string]any) (any, error) {
		return "local", nil
	})
	remote := &stubCaller{
		result: &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "remote"}},
		},
	}
	chain := NewFallback(local, NewMCPExecutor(remote))

	outcome, err := chain.Execute(context.Background(), core.Action{Kind: "local_only"}, nil)
	if err != nil || outcome.Result != "local" {
		t.Fatalf("expected local handler, got %+v err=%v", outcome, err)
	}

	outcome, err = chain.Execute(context.Background(), core.Action{Kind: "anything_else"}, nil)
	if err != nil || outcome.Result != "remote" {
		t.Fatalf("expected remote fallback, got %+v err=%v", outcome, err)
	}
}
