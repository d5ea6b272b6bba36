package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// daemonRecord is written next to the pid file while the daemon runs.
type daemonRecord struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	Owner     string    `json:"owner"`
	Horizon   int       `json:"horizon_months"`
	StartedAt time.Time `json:"started_at"`
}

// pidFile tracks one daemon process: the pid in path and a JSON record in
// path + ".json".
type pidFile struct {
	path string
}

func (f pidFile) recordPath() string { return f.path + ".json" }

// claim fails when a live daemon owns the file and clears a stale one.
func (f pidFile) claim() error {
	pid, err := f.pid()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.remove()
	return nil
}

// write records rec, creating the pid directory as needed.
func (f pidFile) write(rec daemonRecord) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(strconv.Itoa(rec.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.recordPath(), append(data, '\n'), 0o600)
}

func (f pidFile) pid() (int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", f.path)
	}
	return pid, nil
}

func (f pidFile) record() (daemonRecord, error) {
	var rec daemonRecord
	data, err := os.ReadFile(f.recordPath())
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(data, &rec)
	return rec, err
}

func (f pidFile) remove() {
	_ = os.Remove(f.path)
	_ = os.Remove(f.recordPath())
}

// stop sends SIGTERM and waits up to timeout for the process to exit.
func (f pidFile) stop(timeout time.Duration) (int, error) {
	pid, err := f.pid()
	if err != nil {
		return 0, errors.New("daemon is not running")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("signal daemon process: %w", err)
	}
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !processAlive(pid) {
			f.remove()
			return pid, nil
		}
	}
	return pid, fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// withoutDetach drops --detach so the re-executed child runs in the
// foreground.
func withoutDetach(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
