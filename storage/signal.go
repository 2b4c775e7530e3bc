package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SignalFile is the default name of the counter signal file.
const SignalFile = "report_counter.tmp"

// FileSignal tells the external counter window that a counted command was
// sent by writing "+1" into a file it polls and clears.
type FileSignal struct {
	mu   sync.Mutex
	path string
}

// NewFileSignal writes to name inside dir.
func NewFileSignal(dir, name string) *FileSignal {
	if name == "" {
		name = SignalFile
	}
	return &FileSignal{path: filepath.Join(dir, name)}
}

// Path is the signal file location.
func (f *FileSignal) Path() string { return f.path }

// Increment raises the signal. The command name is not part of the protocol.
func (f *FileSignal) Increment(ctx context.Context, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("counter signal dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte("+1"), 0o644); err != nil {
		return fmt.Errorf("counter signal write: %w", err)
	}
	return nil
}

// Consume reports whether a signal is pending and clears it, as the counter
// window does.
func (f *FileSignal) Consume() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	content := strings.TrimSpace(string(b))
	if content == "" {
		return false, nil
	}
	if err := os.WriteFile(f.path, nil, 0o644); err != nil {
		return false, err
	}
	return content == "+1", nil
}
