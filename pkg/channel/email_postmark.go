package channel

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mrz1836/postmark"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// PostmarkConfig holds Postmark email transport configuration.
// Tokens are required at runtime; SenderEmail establishes the sender identity
// and SupportEmail the reply-to behavior for all outbound notifications.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"SENDER_EMAIL,required"`
	SupportEmail string `env:"SUPPORT_EMAIL,required"`
}

type postmarkTransport struct {
	client *postmark.Client
	config PostmarkConfig
}

// NewPostmarkTransport creates a Postmark-backed email transport.
// All configuration is validated up front so a misconfigured service fails at
// startup instead of silently dropping mail in production.
func NewPostmarkTransport(cfg PostmarkConfig) (Transport, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", ErrInvalidConfig)
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("%w: AccountToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkTransport{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// Send delivers the message through Postmark's transactional API.
// Open tracking is limited to HTML to avoid mangling plaintext bodies.
func (t *postmarkTransport) Send(ctx context.Context, msg Message) (string, error) {
	if !emailRegex.MatchString(msg.To) {
		return "", fmt.Errorf("%w: %q is not a valid email address", ErrEmptyRecipient, msg.To)
	}

	resp, err := t.client.SendEmail(ctx, postmark.Email{
		From:       t.config.SenderEmail,
		ReplyTo:    t.config.SupportEmail,
		To:         msg.To,
		Subject:    msg.Subject,
		TextBody:   msg.Body,
		HTMLBody:   msg.HTMLBody,
		Tag:        msg.Data["tag"],
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return "", errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}

	return resp.MessageID, nil
}
