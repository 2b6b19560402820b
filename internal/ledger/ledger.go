// Package ledger persists the outcome of each run as flat JSON files:
// last-run-status.json with the latest status, and run-history.json with
// the last 30 runs. External schedulers and humans read these to tell
// whether this morning's edition went out.
package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	statusFile    = "last-run-status.json"
	historyFile   = "run-history.json"
	historyLimit  = 30
	ledgerVersion = "1.0.0"
)

// PhaseStatus records the outcome of one pipeline phase. Only the fields
// relevant to the phase are populated.
type PhaseStatus struct {
	Success    bool   `json:"success"`
	File       string `json:"file,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
	TotalItems int    `json:"total_items,omitempty"`
	Method     string `json:"method,omitempty"`
}

// RunStatus is the full record of one run.
type RunStatus struct {
	Timestamp time.Time              `json:"timestamp"`
	DryRun    bool                   `json:"dry_run"`
	Phases    map[string]PhaseStatus `json:"phases"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
	Version   string                 `json:"version"`
}

// HistoryEntry is the condensed form kept in run-history.json.
type HistoryEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	Phases    map[string]PhaseStatus `json:"phases"`
}

// Ledger writes status and history files under a single directory.
type Ledger struct {
	dir string
	log *slog.Logger
	now func() time.Time
}

func New(dir string, log *slog.Logger) *Ledger {
	return &Ledger{dir: dir, log: log, now: time.Now}
}

// WriteStatus stamps the status with update time and version and writes
// it to last-run-status.json, replacing any previous run's file.
func (l *Ledger) WriteStatus(status *RunStatus) error {
	status.UpdatedAt = l.now()
	status.Version = ledgerVersion

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	path := filepath.Join(l.dir, statusFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}

	l.log.Debug("run status updated", "file", path, "success", status.Success)
	return nil
}

// AppendHistory adds a condensed entry to run-history.json, evicting the
// oldest entries beyond the cap.
func (l *Ledger) AppendHistory(status *RunStatus) error {
	history, err := l.readHistory()
	if err != nil {
		// A corrupt history file should not sink the run; start over.
		l.log.Warn("history unreadable, starting fresh", "error", err)
		history = nil
	}

	history = append(history, HistoryEntry{
		Timestamp: status.Timestamp,
		Success:   status.Success,
		Error:     status.Error,
		Phases:    status.Phases,
	})
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	path := filepath.Join(l.dir, historyFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// History returns the most recent entries, newest last, up to limit.
func (l *Ledger) History(limit int) ([]HistoryEntry, error) {
	history, err := l.readHistory()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

func (l *Ledger) readHistory() ([]HistoryEntry, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, historyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	var history []HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}
