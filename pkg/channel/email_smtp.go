package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds SMTP email transport configuration.
type SMTPConfig struct {
	Host        string `env:"SMTP_HOST,required"`
	Port        int    `env:"SMTP_PORT" envDefault:"587"`
	Username    string `env:"SMTP_USERNAME,required"`
	Password    string `env:"SMTP_PASSWORD,required"`
	SenderEmail string `env:"SMTP_SENDER_EMAIL,required"`
}

type smtpTransport struct {
	dialer *gomail.Dialer
	config SMTPConfig
}

// NewSMTPTransport creates an SMTP-backed email transport. Useful for
// self-hosted deployments where a transactional email provider is not
// available.
func NewSMTPTransport(cfg SMTPConfig) (Transport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: Host is required", ErrInvalidConfig)
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: Username and Password are required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	return &smtpTransport{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		config: cfg,
	}, nil
}

// Send delivers the message over SMTP. gomail dials per message; the rate
// limiter in front of the transport keeps connection churn acceptable.
func (t *smtpTransport) Send(ctx context.Context, msg Message) (string, error) {
	if !emailRegex.MatchString(msg.To) {
		return "", fmt.Errorf("%w: %q is not a valid email address", ErrEmptyRecipient, msg.To)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", t.config.SenderEmail)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.HTMLBody != "" {
		m.SetBody("text/html", msg.HTMLBody)
		if msg.Body != "" {
			m.AddAlternative("text/plain", msg.Body)
		}
	} else {
		m.SetBody("text/plain", msg.Body)
	}

	if err := t.dialer.DialAndSend(m); err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}

	// SMTP has no provider-assigned id; generate one for delivery bookkeeping.
	return uuid.NewString(), nil
}
