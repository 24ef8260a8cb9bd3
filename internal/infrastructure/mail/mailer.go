// Package mail sends customer notifications over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends credit note emails with the PDF attached.
type Mailer struct {
	cfg Config
}

// NewMailer creates a mailer.
func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendCreditNote emails the credit note PDF to the customer.
// Callers treat failures as warnings; this method just reports them.
func (m *Mailer) SendCreditNote(ctx context.Context, to, customerName, creditNumber string, pdf []byte) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp is not configured")
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("Uw creditnota %s", creditNumber))
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Beste %s,\n\nIn de bijlage vindt u creditnota %s.\n\nMet vriendelijke groet,\nRimShield",
		customerName, creditNumber,
	))
	if err := msg.AttachReader(fmt.Sprintf("%s.pdf", creditNumber), bytes.NewReader(pdf)); err != nil {
		return fmt.Errorf("attach pdf: %w", err)
	}

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
