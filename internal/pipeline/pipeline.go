// Package pipeline runs one complete clipping cycle: download the daily
// edition, extract and summarize its pages, deliver the result, and record
// the outcome in the run ledger. Phases run sequentially; the first failure
// stops the run, and the ledger is written regardless of how far it got.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lfpaiva/jornal-agent/internal/browser"
	"github.com/lfpaiva/jornal-agent/internal/clipping"
	"github.com/lfpaiva/jornal-agent/internal/config"
	"github.com/lfpaiva/jornal-agent/internal/delivery"
	"github.com/lfpaiva/jornal-agent/internal/extract"
	"github.com/lfpaiva/jornal-agent/internal/ledger"
)

// Runner wires the phase engines together for one invocation.
type Runner struct {
	cfg        *config.RunConfig
	downloader browser.Downloader
	extractor  extract.Extractor
	summarizer clipping.Summarizer
	deliverer  delivery.Deliverer
	ledger     *ledger.Ledger
	log        *slog.Logger
	now        func() time.Time
}

func New(cfg *config.RunConfig, log *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		downloader: browser.New(cfg, log),
		extractor:  extract.New(cfg, log),
		summarizer: clipping.New(cfg, log),
		deliverer:  delivery.New(cfg, log),
		ledger:     ledger.New(cfg.OutputDir, log),
		log:        log,
		now:        time.Now,
	}
}

// Run executes the download, process and send phases in order. The run
// status is always persisted, including on failure, before the error is
// returned.
func (r *Runner) Run(ctx context.Context) error {
	start := r.now()
	status := &ledger.RunStatus{
		Timestamp: start,
		DryRun:    r.cfg.Simulate,
		Phases:    map[string]ledger.PhaseStatus{},
	}
	defer r.record(status)

	r.log.Info("run started", "dry_run", r.cfg.Simulate, "date", start.Format("2006-01-02"))

	// Phase 1: download.
	pdfPath, err := r.downloader.Download(ctx)
	if err != nil {
		status.Phases["download"] = ledger.PhaseStatus{Success: false}
		status.Error = fmt.Sprintf("download: %v", err)
		return fmt.Errorf("download phase: %w", err)
	}
	status.Phases["download"] = ledger.PhaseStatus{Success: true, File: pdfPath}
	r.log.Info("download phase complete", "file", pdfPath)

	// Phase 2: process.
	result, err := r.process(ctx, pdfPath)
	if err != nil {
		status.Phases["process"] = ledger.PhaseStatus{Success: false}
		status.Error = fmt.Sprintf("process: %v", err)
		return fmt.Errorf("process phase: %w", err)
	}
	status.Phases["process"] = ledger.PhaseStatus{
		Success:    true,
		TotalPages: result.TotalPages,
		TotalItems: result.TotalItems,
	}
	r.log.Info("process phase complete",
		"pages", result.TotalPages, "items", result.TotalItems)

	// Phase 3: send.
	method, err := r.deliverer.Deliver(ctx, pdfPath, result.SummaryText)
	if err != nil {
		status.Phases["send"] = ledger.PhaseStatus{Success: false}
		status.Error = fmt.Sprintf("send: %v", err)
		return fmt.Errorf("send phase: %w", err)
	}
	status.Phases["send"] = ledger.PhaseStatus{Success: true, Method: method}
	status.Success = true

	r.log.Info("run complete", "method", method, "elapsed", r.now().Sub(start))
	return nil
}

// process extracts pages, writes the verification report, summarizes, and
// writes the clipping artifacts.
func (r *Runner) process(ctx context.Context, pdfPath string) (*RunResult, error) {
	pages, err := r.extractor.ExtractPages(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages extracted from %s", pdfPath)
	}

	verificationFile, err := extract.WriteVerificationReport(pages, r.cfg.OutputDir, r.now())
	if err != nil {
		return nil, err
	}

	summary, err := r.summarizer.Summarize(ctx, pages)
	if err != nil {
		return nil, err
	}

	txtFile, jsonFile, err := writeClippingFiles(summary, pages, r.cfg.OutputDir, r.now())
	if err != nil {
		return nil, err
	}

	return &RunResult{
		SummaryText:      summary.SummaryText,
		Items:            summary.Items,
		TotalPages:       len(pages),
		TotalItems:       len(summary.Items),
		TXTFile:          txtFile,
		JSONFile:         jsonFile,
		VerificationFile: verificationFile,
	}, nil
}

// record persists the run status and appends the history entry. Ledger
// failures are logged, not propagated; they must not mask the run outcome.
func (r *Runner) record(status *ledger.RunStatus) {
	if err := r.ledger.WriteStatus(status); err != nil {
		r.log.Error("failed to write run status", "error", err)
	}
	if err := r.ledger.AppendHistory(status); err != nil {
		r.log.Error("failed to append run history", "error", err)
	}
}
