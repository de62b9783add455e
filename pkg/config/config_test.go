package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Runtime.IdleWait != 250*time.Millisecond {
		t.Errorf("expected default idle_wait 250ms, got %v", cfg.Runtime.IdleWait)
	}
	if cfg.Metacog.WindowSize != 20 || cfg.Metacog.RiskThreshold != 0.7 {
		t.Errorf("unexpected metacog defaults: %+v", cfg.Metacog)
	}
	if cfg.Memory.Enabled {
		t.Error("memory must default to disabled")
	}
	if cfg.Exec.Transport != "stdio" || cfg.Exec.Timeout != 30*time.Second {
		t.Errorf("unexpected exec defaults: %+v", cfg.Exec)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
log:
  level: "debug"
  format: "json"
runtime:
  idle_wait: "50ms"
  recent_cycles: 3
statechan:
  dir: "/var/run/praxis"
`
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("file values not applied: %+v", cfg.Log)
	}
	if cfg.Runtime.IdleWait != 50*time.Millisecond || cfg.Runtime.RecentCycles != 3 {
		t.Errorf("runtime values not applied: %+v", cfg.Runtime)
	}
	if cfg.StateChan.Dir != "/var/run/praxis" {
		t.Errorf("statechan dir not applied: %s", cfg.StateChan.Dir)
	}
	// Untouched sections keep their defaults.
	if cfg.Metacog.MinRepetitions != 3 {
		t.Errorf("defaults lost on partial file: %+v", cfg.Metacog)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "log:\n  level: \"debug\"\n"
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PRAXIS_LOG_LEVEL", "error")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected env to override file, got %s", cfg.Log.Level)
	}
}

func TestLoadSchedulerTasks(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
scheduler:
  tasks:
    - name: "heartbeat"
      event_type: "heartbeat.tick"
      interval: "5s"
      priority: "high"
    - name: "digest"
      event_type: "digest.due"
      first_run_in: "1m"
`
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Scheduler.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(cfg.Scheduler.Tasks))
	}
	first := cfg.Scheduler.Tasks[0]
	if first.Name != "heartbeat" || first.EventType != "heartbeat.tick" ||
		first.Interval != 5*time.Second || first.Priority != "high" {
		t.Errorf("heartbeat task not parsed: %+v", first)
	}
	second := cfg.Scheduler.Tasks[1]
	if second.FirstRunIn != time.Minute || second.Interval != 0 {
		t.Errorf("digest task not parsed: %+v", second)
	}
}

func TestLoadEnvMultiWordKeys(t *testing.T) {
	t.Setenv("PRAXIS_METACOG_WINDOW_SIZE", "40")
	t.Setenv("PRAXIS_TELEMETRY_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Metacog.WindowSize != 40 {
		t.Errorf("metacog.window_size not reachable via env: %d", cfg.Metacog.WindowSize)
	}
	if cfg.Telemetry.OTLPEndpoint != "collector:4317" {
		t.Errorf("telemetry.otlp_endpoint not reachable via env: %q", cfg.Telemetry.OTLPEndpoint)
	}
}

func TestWatcherReloads(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: \"info\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	w, err := NewWatcher(path, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	changes := make(chan *Config, 1)
	w.OnChange(func(cfg *Config) { changes <- cfg })
	w.Start(t.Context())
	defer w.Stop()

	// Rewrite with a future mod time so the poll sees a change.
	if err := os.WriteFile(path, []byte("log:\n  level: \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	select {
	case cfg := <-changes:
		if cfg.Log.Level != "warn" {
			t.Errorf("reloaded config not applied: %+v", cfg.Log)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
