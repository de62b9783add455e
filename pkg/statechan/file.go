package statechan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jllopis/praxis/pkg/core"
)

const (
	snapshotFile = "state.yaml"
	commandDir   = "commands"
)

// FileTransport persists the channel under a directory: the snapshot as a
// single YAML file replaced by atomic rename, and commands as one YAML
// file each in a spool directory. Spool writers create files atomically
// (temp + rename) and the single consumer deletes after reading, so no
// cross-process locking is needed.
type FileTransport struct {
	dir string
}

// NewFileTransport creates the directory layout if needed.
func NewFileTransport(dir string) (*FileTransport, error) {
	if dir == "" {
		return nil, errors.New("statechan: directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, commandDir), 0o755); err != nil {
		return nil, err
	}
	return &FileTransport{dir: dir}, nil
}

// WriteSnapshot replaces the snapshot file atomically.
func (t *FileTransport) WriteSnapshot(snapshot Snapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return err
	}
	target := filepath.Join(t.dir, snapshotFile)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// ReadSnapshot returns the last written snapshot. The second return is
// false when no snapshot exists yet.
func (t *FileTransport) ReadSnapshot() (Snapshot, bool, error) {
	data, err := os.ReadFile(filepath.Join(t.dir, snapshotFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// AppendCommand spools a command. The name sorts by arrival time so the
// consumer drains in order.
func (t *FileTransport) AppendCommand(cmd core.Command) error {
	data, err := yaml.Marshal(cmd)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%020d-%s.yaml", time.Now().UnixNano(), uuid.NewString())
	target := filepath.Join(t.dir, commandDir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// DrainCommand consumes the oldest spooled command, deleting it before
// returning so a command is never delivered twice.
func (t *FileTransport) DrainCommand() (core.Command, bool, error) {
	spool := filepath.Join(t.dir, commandDir)
	entries, err := os.ReadDir(spool)
	if err != nil {
		return core.Command{}, false, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return core.Command{}, false, nil
	}
	sort.Strings(names)

	path := filepath.Join(spool, names[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Command{}, false, err
	}
	if err := os.Remove(path); err != nil {
		return core.Command{}, false, err
	}
	var cmd core.Command
	if err := yaml.Unmarshal(data, &cmd); err != nil {
		return core.Command{}, false, err
	}
	return cmd, true, nil
}
