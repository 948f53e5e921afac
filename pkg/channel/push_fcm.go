package channel

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMConfig holds Firebase Cloud Messaging transport configuration.
type FCMConfig struct {
	CredentialsPath string `env:"FCM_CREDENTIALS_PATH,required"`
	ProjectID       string `env:"FCM_PROJECT_ID,required"`
}

type fcmTransport struct {
	client *messaging.Client
}

// NewFCMTransport creates a push transport backed by Firebase Cloud
// Messaging. Message.To carries the device registration token.
func NewFCMTransport(ctx context.Context, cfg FCMConfig) (Transport, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("%w: CredentialsPath is required", ErrInvalidConfig)
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: ProjectID is required", ErrInvalidConfig)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}

	return &fcmTransport{client: client}, nil
}

// Send delivers a push notification to a single device token.
func (t *fcmTransport) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", ErrEmptyRecipient
	}

	out := &messaging.Message{
		Token: msg.To,
		Notification: &messaging.Notification{
			Title: msg.Subject,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := t.client.Send(ctx, out)
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}

	return id, nil
}
