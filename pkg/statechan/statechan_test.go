package statechan

import (
	"errors"
	"testing"

	"github.com/jllopis/praxis/pkg/core"
)

func TestPublishAndSnapshot(t *testing.T) {
	c := New(nil)
	if err := c.Publish(Snapshot{LifecycleState: core.StateRunning}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	snap := c.Snapshot()
	if snap.LifecycleState != core.StateRunning {
		t.Fatalf("expected running, got %s", snap.LifecycleState)
	}
	if snap.UpdatedAt.IsZero() {
		t.Fatalf("expected update timestamp to be stamped")
	}
}

func TestCommandsDrainInOrderExactlyOnce(t *testing.T) {
	c := New(nil)
	c.PushCommand(core.Command{Kind: core.CommandStart})
	c.PushCommand(core.Command{Kind: core.CommandPause})
	c.PushCommand(core.Command{Kind: core.CommandStop})

	want := []core.CommandKind{core.CommandStart, core.CommandPause, core.CommandStop}
	for _, kind := range want {
		cmd, ok := c.NextCommand()
		if !ok || cmd.Kind != kind {
			t.Fatalf("expected %s, got %+v ok=%v", kind, cmd, ok)
		}
	}
	if _, ok := c.NextCommand(); ok {
		t.Fatalf("queue must be empty after drain")
	}
}

type brokenTransport struct{}

func (brokenTransport) WriteSnapshot(Snapshot) error { return errors.New("disk gone") }
func (brokenTransport) ReadSnapshot() (Snapshot, bool, error) {
	return Snapshot{}, false, errors.New("disk gone")
}
func (brokenTransport) AppendCommand(core.Command) error { return errors.New("disk gone") }
func (brokenTransport) DrainCommand() (core.Command, bool, error) {
	return core.Command{}, false, errors.New("disk gone")
}

func TestPublishSurfacesTransportFailure(t *testing.T) {
	c := New(brokenTransport{})
	if err := c.Publish(Snapshot{}); err == nil {
		t.Fatalf("expected transport failure to surface")
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validate to surface transport failure")
	}
}
