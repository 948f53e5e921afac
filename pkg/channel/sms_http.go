package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// SMSConfig holds configuration for an HTTP SMS gateway.
type SMSConfig struct {
	GatewayURL string        `env:"SMS_GATEWAY_URL,required"`
	APIKey     string        `env:"SMS_API_KEY,required"`
	SenderID   string        `env:"SMS_SENDER_ID" envDefault:"notify"`
	Timeout    time.Duration `env:"SMS_TIMEOUT" envDefault:"10s"`
}

type smsTransport struct {
	config SMSConfig
	client *http.Client
}

// NewSMSTransport creates an SMS transport that posts JSON to a gateway API.
// Message.To carries the recipient phone number in E.164 format.
func NewSMSTransport(cfg SMSConfig) (Transport, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("%w: GatewayURL is required", ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &smsTransport{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type smsResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// Send posts the message to the gateway and returns its message id.
func (t *smsTransport) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", ErrEmptyRecipient
	}

	payload, err := json.Marshal(smsRequest{
		From: t.config.SenderID,
		To:   msg.To,
		Text: msg.Body,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.GatewayURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.config.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Join(ErrSendFailed, fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}

	var out smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	if out.Error != "" {
		return "", errors.Join(ErrSendFailed, errors.New(out.Error))
	}

	return out.MessageID, nil
}
