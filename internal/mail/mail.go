// Package mail sends transactional email (password-reset codes) over SMTP.
package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender delivers email for the backend
type Sender interface {
	Send(to, subject, text, html string) error
}

// Config carries the SMTP settings, injected at startup
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SmtpSender sends mail through a single SMTP relay
type SmtpSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSmtpSender creates a sender from an explicit configuration
func NewSmtpSender(cfg Config) (*SmtpSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	return &SmtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Send delivers one message with a plain-text body and an HTML alternative
func (s *SmtpSender) Send(to, subject, text, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
