// Package mail sends outbound email over authenticated SMTP.
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

// Message is one outbound email. HTML is preferred; Text is sent as the
// plain alternative when both are set.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Sender delivers messages through one SMTP account.
type Sender struct {
	cfg    Config
	logger *zap.Logger
}

// NewSender validates cfg. Missing credentials are a configuration error.
func NewSender(cfg Config, logger *zap.Logger) (*Sender, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, apperr.Configuration("mail", "SMTP username and password are required")
	}
	if cfg.Host == "" {
		return nil, apperr.Configuration("mail", "SMTP host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{cfg: cfg, logger: logger}, nil
}

// From returns the sender address.
func (s *Sender) From() string {
	return s.cfg.From
}

// Build assembles the MIME message without sending it.
func (s *Sender) Build(msg Message) (*gomail.Msg, error) {
	const op = "build email"
	if len(msg.To) == 0 {
		return nil, apperr.Validation(op, "at least one recipient is required")
	}
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, apperr.Configuration(op, "invalid sender %q: %v", s.cfg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, apperr.Validation(op, "invalid recipient: %v", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}
	return m, nil
}

// Send delivers msg.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	const op = "send email"
	m, err := s.Build(msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return apperr.Configuration(op, "invalid SMTP settings: %v", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Error("email delivery failed",
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return apperr.Upstream(op, err, "failed to deliver to %v", msg.To)
	}
	s.logger.Info("email sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// String describes the sender for logs without exposing the password.
func (s *Sender) String() string {
	return fmt.Sprintf("smtp://%s@%s:%d", s.cfg.Username, s.cfg.Host, s.cfg.Port)
}
