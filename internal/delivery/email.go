package delivery

import (
	"fmt"
	"log/slog"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/lfpaiva/jornal-agent/internal/config"
)

// EmailSender delivers the clipping over SMTP when the chat channel
// fails. It sends a single message with the clipping as the body and the
// edition PDF attached.
type EmailSender struct {
	host string
	port int
	user string
	pass string
	from string
	to   string
	log  *slog.Logger

	// dial is swappable in tests to avoid a real SMTP exchange.
	dial func(m *gomail.Message) error
}

func NewEmailSender(cfg *config.RunConfig, log *slog.Logger) (*EmailSender, error) {
	if !cfg.HasSMTP() {
		return nil, &EmailError{Reason: "smtp configuration incomplete"}
	}
	s := &EmailSender{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.EmailFrom,
		to:   cfg.EmailTo,
		log:  log,
	}
	s.dial = func(m *gomail.Message) error {
		d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
		return d.DialAndSend(m)
	}
	return s, nil
}

// Send mails the clipping with the PDF attached. The body carries the
// fallback notice so the recipient knows why it arrived by email.
func (s *EmailSender) Send(pdfPath, message string, now time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", fmt.Sprintf("Clipagem do Diário - %s", now.Format("02/01/2006")))

	body := "Não foi possível entregar a clipagem pelo canal principal. " +
		"Segue por email.\n\n" + message
	m.SetBody("text/plain", body)
	if pdfPath != "" {
		m.Attach(pdfPath)
	}

	s.log.Info("sending fallback email", "to", s.to, "host", s.host)
	if err := s.dial(m); err != nil {
		return &EmailError{Reason: "smtp send", Err: err}
	}
	s.log.Info("fallback email sent")
	return nil
}
