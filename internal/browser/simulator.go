package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lfpaiva/jornal-agent/internal/config"
)

// simulated skips all browser interaction and writes a placeholder file to
// the path a real download would use.
type simulated struct {
	cfg *config.RunConfig
	log *slog.Logger
}

func (s *simulated) Download(_ context.Context) (string, error) {
	path := filepath.Join(s.cfg.DataDir, PDFFilename(time.Now()))
	s.log.Warn("simulation mode: writing placeholder edition", "path", path)

	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.4 placeholder"), 0o644); err != nil {
		return "", fmt.Errorf("write placeholder: %w", err)
	}
	return path, nil
}
