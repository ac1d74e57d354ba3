package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/sgs-visits/backend/config"
)

// Mailer sends confirmation emails over SMTP. When no SMTP host is
// configured it logs the message instead, which keeps local and test
// environments mail-free.
type Mailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// New creates a mailer from config.
func New(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Configured reports whether an SMTP host is set.
func (m *Mailer) Configured() bool {
	return m.cfg.SMTPHost != ""
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Configured() {
		m.logger.Info("smtp not configured, logging email instead",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	from := m.cfg.FromAddress
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", m.cfg.FromName, from),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
