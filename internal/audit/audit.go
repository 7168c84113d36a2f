// Package audit writes the append-only provisioning audit trail. The trail
// is a plain text file next to the run database, one line per event, meant
// to survive crashes and be readable without any tooling.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the severity of an audit event.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// DefaultFileName is the audit trail file name inside the data directory.
const DefaultFileName = "provision_audit.log"

// Trail appends audit events to a file. Safe for concurrent use.
type Trail struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewTrail creates a new audit trail at the given path, creating the parent
// directory if needed.
func NewTrail(path string) (*Trail, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create audit directory: %w", err)
	}

	return &Trail{
		path: path,
		now:  time.Now,
	}, nil
}

// Eventf appends a single formatted event line. The file is opened and
// closed per event so a crash never loses previously written lines.
func (t *Trail) Eventf(level Level, format string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open audit trail: %w", err)
	}
	defer f.Close()

	ts := t.now().UTC().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, args...)
	if _, err := fmt.Fprintf(f, "[%s] [%s] %s\n", ts, level, msg); err != nil {
		return fmt.Errorf("could not append audit event: %w", err)
	}

	return nil
}

// Infof appends an INFO event.
func (t *Trail) Infof(format string, args ...any) error {
	return t.Eventf(LevelInfo, format, args...)
}

// Warningf appends a WARNING event.
func (t *Trail) Warningf(format string, args ...any) error {
	return t.Eventf(LevelWarning, format, args...)
}

// Errorf appends an ERROR event.
func (t *Trail) Errorf(format string, args ...any) error {
	return t.Eventf(LevelError, format, args...)
}
