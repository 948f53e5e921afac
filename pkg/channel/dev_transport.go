package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DevTransport implements Transport for local development.
// It saves messages as JSON files (plus the HTML body, when present) to a
// directory instead of sending them through a provider.
type DevTransport struct {
	dir string
}

// NewDevTransport creates a development transport that saves messages to
// disk. The directory is created on first send if it doesn't exist.
func NewDevTransport(dir string) *DevTransport {
	return &DevTransport{dir: dir}
}

type devMessageFile struct {
	Timestamp string            `json:"timestamp"`
	To        string            `json:"to"`
	Subject   string            `json:"subject,omitempty"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}

// Send writes the message to the configured directory and returns a
// generated message id.
func (d *DevTransport) Send(ctx context.Context, msg Message) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory: %w", ErrSendFailed, err)
	}

	now := time.Now()
	id := uuid.NewString()
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(msg.Subject))

	meta, err := json.MarshalIndent(devMessageFile{
		Timestamp: now.Format(time.RFC3339),
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Data:      msg.Data,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal message: %w", ErrSendFailed, err)
	}

	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write message file: %w", ErrSendFailed, err)
	}

	if msg.HTMLBody != "" {
		if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(msg.HTMLBody), 0644); err != nil {
			return "", fmt.Errorf("%w: failed to write HTML file: %w", ErrSendFailed, err)
		}
	}

	return id, nil
}

// sanitizeRegex matches characters that are not alphanumeric, dash, underscore, or dot.
var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename converts a string into a safe filename.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "message"
	}

	return strings.ToLower(s)
}
