// Package audit writes the on-disk trail of review loops: one plain-text file
// per session plus a shared startup log. Files are append-only; nothing here
// rewrites earlier records.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"trp_review/review"
)

// Trail appends loop records for one review session to a timestamped file.
type Trail struct {
	mu   sync.Mutex
	path string
}

// NewTrail creates the audit directory if needed and picks a timestamped file
// name for this session. The file itself is created on first append.
func NewTrail(dir string) (*Trail, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory %s: %w", dir, err)
	}
	name := time.Now().Format("20060102_150405") + ".txt"
	return &Trail{path: filepath.Join(dir, name)}, nil
}

// Path returns the session's audit file path.
func (t *Trail) Path() string { return t.path }

// AppendLoop writes one loop block: input document, critique, revision, and
// the stopping evaluation.
func (t *Trail) AppendLoop(lp review.Loop) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f,
		"Loop %d\nInput Document:\n%s\n\nCritique:\n%s\n\nRevision:\n%s\n\nStopping evaluation: %s\n\n",
		lp.Index, lp.Input, lp.Critique, lp.Revision, lp.Verdict.Rationale)
	return err
}

// WriteSummary appends the session footer: total loops and the stop reason.
func (t *Trail) WriteSummary(totalLoops int, stopReason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "---\nTotal loops completed: %d\n", totalLoops); err != nil {
		return err
	}
	if stopReason != "" {
		if _, err := fmt.Fprintf(f, "Stopping reason: %s\n", stopReason); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(f)
	return err
}

// AppendStartupEvent records one startup diagnostic line in startup.log.
func AppendStartupEvent(dir, level, message string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, "startup.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	stamp := time.Now().Format("2006-01-02 15:04:05")
	_, err = fmt.Fprintf(f, "%s [%s] %s\n", stamp, levelPrefix(level), message)
	return err
}

func levelPrefix(level string) string {
	switch level {
	case "warning":
		return "WARNING"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}
