package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.now = func() time.Time { return time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC) }
	return l
}

func sampleStatus(ts time.Time, success bool) *RunStatus {
	return &RunStatus{
		Timestamp: ts,
		DryRun:    false,
		Phases: map[string]PhaseStatus{
			"download": {Success: true, File: "diario-20250901.pdf"},
			"process":  {Success: true, TotalPages: 12, TotalItems: 7},
			"send":     {Success: success, Method: "whatsapp"},
		},
		Success: success,
	}
}

func TestWriteStatus(t *testing.T) {
	l := testLedger(t)
	ts := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	if err := l.WriteStatus(sampleStatus(ts, true)); err != nil {
		t.Fatalf("WriteStatus failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(l.dir, statusFile))
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}

	var got RunStatus
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	assert.Equal(t, got.Success, true)
	assert.Equal(t, got.Version, ledgerVersion)
	assert.Equal(t, got.Timestamp, ts)
	assert.Equal(t, got.UpdatedAt, l.now())
	assert.Equal(t, got.Phases["process"].TotalItems, 7)
}

func TestWriteStatus_ReplacesPrevious(t *testing.T) {
	l := testLedger(t)
	ts := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	if err := l.WriteStatus(sampleStatus(ts, false)); err != nil {
		t.Fatalf("first WriteStatus failed: %v", err)
	}
	if err := l.WriteStatus(sampleStatus(ts.Add(time.Hour), true)); err != nil {
		t.Fatalf("second WriteStatus failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(l.dir, statusFile))
	var got RunStatus
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	assert.Equal(t, got.Success, true)
	assert.Equal(t, got.Timestamp, ts.Add(time.Hour))
}

func TestAppendHistory(t *testing.T) {
	l := testLedger(t)
	ts := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	status := sampleStatus(ts, true)
	if err := l.AppendHistory(status); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	failed := sampleStatus(ts.Add(24*time.Hour), false)
	failed.Error = "Falha no envio da mensagem"
	if err := l.AppendHistory(failed); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	history, err := l.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	assert.Equal(t, len(history), 2)
	assert.Equal(t, history[0].Success, true)
	assert.Equal(t, history[1].Success, false)
	assert.Equal(t, history[1].Error, "Falha no envio da mensagem")
}

func TestAppendHistory_CapsAtThirty(t *testing.T) {
	l := testLedger(t)
	base := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < historyLimit+5; i++ {
		status := sampleStatus(base.Add(time.Duration(i)*24*time.Hour), true)
		status.Error = fmt.Sprintf("run-%d", i)
		if err := l.AppendHistory(status); err != nil {
			t.Fatalf("AppendHistory %d failed: %v", i, err)
		}
	}

	history, err := l.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	assert.Equal(t, len(history), historyLimit)
	// Oldest five evicted, newest kept.
	assert.Equal(t, history[0].Error, "run-5")
	assert.Equal(t, history[len(history)-1].Error, fmt.Sprintf("run-%d", historyLimit+4))
}

func TestHistory_Limit(t *testing.T) {
	l := testLedger(t)
	base := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		if err := l.AppendHistory(sampleStatus(base.Add(time.Duration(i)*time.Hour), true)); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
	}

	history, err := l.History(3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	assert.Equal(t, len(history), 3)
	assert.Equal(t, history[2].Timestamp, base.Add(9*time.Hour))
}

func TestHistory_MissingFile(t *testing.T) {
	l := testLedger(t)
	history, err := l.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	assert.Equal(t, len(history), 0)
}

func TestAppendHistory_RecoversFromCorruptFile(t *testing.T) {
	l := testLedger(t)
	if err := os.WriteFile(filepath.Join(l.dir, historyFile), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write corrupt history: %v", err)
	}

	ts := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	if err := l.AppendHistory(sampleStatus(ts, true)); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	history, err := l.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	assert.Equal(t, len(history), 1)
}
