// Package delivery sends a rendered digest as a multipart email.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// RunHeader carries the run ID of the digest in the outgoing message.
const RunHeader = "X-Digest-Run"

const implicitTLSPort = 465

// Message is a rendered digest addressed to its recipients.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
	RunID   string
}

// Validate checks if the message can be sent.
func (m *Message) Validate() error {
	if m.From == "" {
		return errors.New("sender address is required")
	}
	if len(m.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	return nil
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig describes the relay and credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPSender sends messages over an authenticated, encrypted SMTP session.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates a new SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send builds a multipart/alternative message and transmits it to every
// recipient in a single session.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := BuildMsg(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send digest via %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	return nil
}

// clientOptions selects PLAIN auth and either implicit TLS (port 465) or
// mandatory STARTTLS.
func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	return opts
}

// BuildMsg converts msg to a go-mail message with the plain-text body
// first and the HTML body as its alternative.
func BuildMsg(msg Message) (*mail.Msg, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	if msg.RunID != "" {
		m.SetGenHeader(mail.Header(RunHeader), msg.RunID)
	}

	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	return m, nil
}
