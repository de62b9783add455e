package main

import (
	"testing"

	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/statechan"
)

func TestSendLifecycleCommandSpoolsCommand(t *testing.T) {
	dir := t.TempDir()
	if err := sendLifecycleCommand("start", []string{"-state", dir}); err != nil {
		t.Fatalf("send start: %v", err)
	}

	transport, err := statechan.NewFileTransport(dir)
	if err != nil {
		t.Fatalf("open transport: %v", err)
	}
	cmd, ok, err := transport.DrainCommand()
	if err != nil || !ok {
		t.Fatalf("drain: ok=%v err=%v", ok, err)
	}
	if cmd.Kind != core.CommandStart {
		t.Fatalf("expected start command, got %s", cmd.Kind)
	}
}

func TestSendExecCommandWithParams(t *testing.T) {
	dir := t.TempDir()
	err := sendExecCommand([]string{"-state", dir, "-action", "fetch_page", "-params", `{"url":"https://example.com"}`})
	if err != nil {
		t.Fatalf("send exec: %v", err)
	}

	transport, err := statechan.NewFileTransport(dir)
	if err != nil {
		t.Fatalf("open transport: %v", err)
	}
	cmd, ok, err := transport.DrainCommand()
	if err != nil || !ok {
		t.Fatalf("drain: ok=%v err=%v", ok, err)
	}
	if cmd.Kind != core.CommandExecuteAction || cmd.Action != "fetch_page" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if cmd.Params["url"] != "https://example.com" {
		t.Fatalf("params not preserved: %+v", cmd.Params)
	}
}

func TestSendExecCommandRequiresAction(t *testing.T) {
	if err := sendExecCommand([]string{"-state", t.TempDir()}); err == nil {
		t.Fatal("expected error without -action")
	}
}

func TestStatusWithoutSnapshot(t *testing.T) {
	if err := runStatus([]string{"-state", t.TempDir()}); err == nil {
		t.Fatal("expected error when no snapshot exists")
	}
}
