package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lfpaiva/jornal-agent/internal/config"
)

// Deliverer sends the edition PDF plus the clipping text to the
// configured recipient and reports which channel carried it.
type Deliverer interface {
	Deliver(ctx context.Context, pdfPath, summary string) (method string, err error)
}

// New returns the production engine, or a dry-run deliverer that only
// logs what would be sent.
func New(cfg *config.RunConfig, log *slog.Logger) Deliverer {
	if cfg.Simulate {
		return &simulated{log: log}
	}
	return &Engine{
		chat:      NewWhatsAppClient(cfg, log),
		cfg:       cfg,
		recipient: cfg.WhatsAppRecipient,
		log:       log,
		now:       time.Now,
	}
}

// ChatSender is the primary channel surface; implemented by
// WhatsAppClient and by test fakes.
type ChatSender interface {
	SendMedia(ctx context.Context, to, pdfPath, message string) (*Receipt, error)
}

// Engine delivers over the chat channel first and falls back to email
// when the primary fails for a channel-specific reason.
type Engine struct {
	chat      ChatSender
	cfg       *config.RunConfig
	recipient string
	log       *slog.Logger
	now       func() time.Time

	// newEmail is swappable in tests.
	newEmail func() (*EmailSender, error)
}

func (e *Engine) Deliver(ctx context.Context, pdfPath, summary string) (string, error) {
	message := formatMessage(summary, e.now())

	primaryErr := e.sendPrimary(ctx, pdfPath, message)
	if primaryErr == nil {
		return "whatsapp", nil
	}
	if !isPrimaryError(primaryErr) {
		// Cancellation or some other non-channel failure; the fallback
		// would not help.
		return "", primaryErr
	}

	e.log.Warn("primary delivery failed, trying email fallback", "error", primaryErr)

	// Email gets the bare clipping; the chat markdown framing stays on
	// the chat channel.
	if err := e.sendFallback(pdfPath, summary); err != nil {
		return "", fmt.Errorf("primary: %w; fallback: %v", primaryErr, err)
	}
	return "email", nil
}

func (e *Engine) sendPrimary(ctx context.Context, pdfPath, message string) error {
	to := NormalizePhone(e.recipient)
	if to == "" {
		return &RecipientError{Raw: e.recipient}
	}
	_, err := e.chat.SendMedia(ctx, to, pdfPath, message)
	return err
}

func (e *Engine) sendFallback(pdfPath, message string) error {
	build := e.newEmail
	if build == nil {
		build = func() (*EmailSender, error) { return NewEmailSender(e.cfg, e.log) }
	}
	sender, err := build()
	if err != nil {
		return err
	}
	return sender.Send(pdfPath, message, e.now())
}

// formatMessage frames the clipping for the recipient.
func formatMessage(summary string, now time.Time) string {
	return fmt.Sprintf("📰 *Clipagem do Diário - %s*\n\n%s", now.Format("02/01/2006"), summary)
}

type simulated struct {
	log *slog.Logger
}

func (s *simulated) Deliver(_ context.Context, pdfPath, summary string) (string, error) {
	s.log.Info("dry run: skipping delivery",
		"pdf", pdfPath,
		"summary_chars", len(summary))
	return "dry-run", nil
}
