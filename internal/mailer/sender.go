package mailer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Sender delivers a rendered digest.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool // STARTTLS
	UseSSL   bool // implicit TLS
	From     string
	To       string
	Timeout  time.Duration
}

var _ Sender = (*SMTPSender)(nil)

type SMTPSender struct {
	config SMTPConfig
}

// NewSMTPSender creates a sender that opens one SMTP connection per digest.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{config: config}
}

// Send delivers msg as a multipart text and HTML message to every recipient.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send digest via %s:%d: %w", s.config.Host, s.config.Port, err)
	}

	slog.Info("Digest sent", "subject", msg.Subject, "to", s.config.To)
	return nil
}

func (s *SMTPSender) buildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.config.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(Recipients(s.config.To)...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	options := []mail.Option{mail.WithPort(s.config.Port)}

	if s.config.Timeout > 0 {
		options = append(options, mail.WithTimeout(s.config.Timeout))
	}

	switch {
	case s.config.UseSSL:
		options = append(options, mail.WithSSL(), mail.WithTLSPolicy(mail.NoTLS))
	case s.config.UseTLS:
		options = append(options, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		options = append(options, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.config.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password))
	}

	return options
}

// Recipients splits a comma separated recipient list.
func Recipients(to string) []string {
	var out []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

var _ Sender = (*WriterSender)(nil)

// WriterSender prints the plain-text digest instead of mailing it.
type WriterSender struct {
	w io.Writer
}

// NewWriterSender creates a dry-run sender writing to w.
func NewWriterSender(w io.Writer) *WriterSender {
	return &WriterSender{w: w}
}

func (s *WriterSender) Send(ctx context.Context, msg Message) error {
	if _, err := fmt.Fprintf(s.w, "Subject: %s\n\n%s", msg.Subject, msg.Text); err != nil {
		return fmt.Errorf("failed to write digest: %w", err)
	}
	slog.Info("Digest written (dry run)", "subject", msg.Subject)
	return nil
}
