// Package mailer relays plain-text messages with an optional Word attachment
// through an SMTP server.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"bericht/internal/logging"
	"bericht/internal/services"
)

// DocxContentType is the MIME type used for attachments.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	defaultAttachmentName = "document.docx"
	defaultPort           = 25
	defaultTimeout        = 30 * time.Second
)

// Config carries relay settings.
type Config struct {
	Host               string
	Port               int
	From               string
	Username           string
	Password           string
	TLSPolicy          string
	TimeoutSeconds     int
	AttachmentFilename string
}

// Message is a single outgoing email.
type Message struct {
	To             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
}

type deliverFunc func(ctx context.Context, msg *gomail.Msg) error

// FailureHook observes delivery failures after they are logged.
type FailureHook func(ctx context.Context, msg Message, err error)

// Option customizes a Sender.
type Option func(*Sender)

// WithFailureHook registers hook to run whenever the relay rejects a message.
func WithFailureHook(hook FailureHook) Option {
	return func(s *Sender) {
		s.onFailure = hook
	}
}

// Sender builds and relays messages.
type Sender struct {
	cfg       Config
	logger    *slog.Logger
	deliver   deliverFunc
	onFailure FailureHook
}

// NewSender constructs a Sender for cfg.
func NewSender(cfg Config, logger *slog.Logger, opts ...Option) *Sender {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.AttachmentFilename) == "" {
		cfg.AttachmentFilename = defaultAttachmentName
	}
	s := &Sender{cfg: cfg, logger: logging.NewComponentLogger(logger, "mailer")}
	s.deliver = s.dialAndSend
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Send validates and relays msg. Failures are logged before being returned.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if _, err := netmail.ParseAddress(to); err != nil {
		return services.Wrap(services.ErrValidation, "mailer", "send", fmt.Sprintf("invalid recipient %q", to), err)
	}
	if s.cfg.Host == "" {
		return services.Wrap(services.ErrConfiguration, "mailer", "send", "smtp host not configured", nil)
	}
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, m); err != nil {
		logging.ErrorWithContext(ctx, s.logger, "Failed to send email", "mail_send_failed",
			logging.Error(err),
			logging.String("to_email", to),
			logging.String("subject", msg.Subject),
		)
		if s.onFailure != nil {
			s.onFailure(ctx, msg, err)
		}
		return services.WrapUpstream("mailer", "send", err)
	}
	s.logger.InfoContext(ctx, "Email sent successfully",
		logging.String("to_email", to),
		logging.String("subject", msg.Subject),
	)
	return nil
}

func (s *Sender) build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mailer", "build", "invalid sender address", err)
	}
	if err := m.To(strings.TrimSpace(msg.To)); err != nil {
		return nil, services.Wrap(services.ErrValidation, "mailer", "build", "invalid recipient", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if len(msg.Attachment) > 0 {
		name := strings.TrimSpace(msg.AttachmentName)
		if name == "" {
			name = s.cfg.AttachmentFilename
		}
		if err := m.AttachReader(name, bytes.NewReader(msg.Attachment), gomail.WithFileContentType(DocxContentType)); err != nil {
			return nil, services.Wrap(services.ErrValidation, "mailer", "build", "attach document", err)
		}
	}
	return m, nil
}

func (s *Sender) dialAndSend(ctx context.Context, m *gomail.Msg) error {
	client, err := s.newClient()
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}

// Ping opens and closes an SMTP session without sending anything.
func (s *Sender) Ping(ctx context.Context) error {
	if s.cfg.Host == "" {
		return services.Wrap(services.ErrConfiguration, "mailer", "ping", "smtp host not configured", nil)
	}
	client, err := s.newClient()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp dial %s: %w", client.ServerAddr(), err)
	}
	return client.Close()
}

func (s *Sender) newClient() (*gomail.Client, error) {
	timeout := defaultTimeout
	if s.cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(s.cfg.TimeoutSeconds) * time.Second
	}
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(tlsPolicy(s.cfg.TLSPolicy)),
		gomail.WithTimeout(timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return client, nil
}

func tlsPolicy(value string) gomail.TLSPolicy {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mandatory":
		return gomail.TLSMandatory
	case "none":
		return gomail.NoTLS
	default:
		return gomail.TLSOpportunistic
	}
}
