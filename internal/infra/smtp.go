package infra

import (
	"fmt"
	"net/smtp"

	"github.com/kassemKu/sibai-transactions-sub000/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends the close-of-session report over plain SMTP. Credentials come
// from config; an empty host disables sending (local development).
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendReport mails a session close report, attaching the PDF when present.
func (m *Mailer) SendReport(to, subject, body, pdfPath string) error {
	if m.host == "" {
		return fmt.Errorf("mailer: SMTP host not configured")
	}

	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	return e.Send(m.addr, smtp.PlainAuth("", m.user, m.password, m.host))
}
