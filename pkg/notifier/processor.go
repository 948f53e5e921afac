package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contentpulse/notifykit/pkg/channel"
	"github.com/contentpulse/notifykit/pkg/eventbus"
	"github.com/contentpulse/notifykit/pkg/logger"
	"github.com/contentpulse/notifykit/pkg/settings"
	"github.com/contentpulse/notifykit/pkg/template"
)

// Dispatcher is the sending side of a channel. *channel.Sender satisfies it.
type Dispatcher interface {
	Name() channel.Name
	Send(ctx context.Context, msg channel.Message) (*channel.Result, error)
}

// UserResult is the dispatch outcome for one recipient of one event.
type UserResult struct {
	UserID         string                           `json:"userId"`
	NotificationID uuid.UUID                        `json:"notificationId,omitempty"`
	Channels       map[channel.Name]*channel.Result `json:"channelResults,omitempty"`
	Skipped        bool                             `json:"skipped,omitempty"`
	Error          string                           `json:"error,omitempty"`
}

// Processor translates events into per-recipient notifications.
type Processor struct {
	templates template.Store
	settings  settings.Store
	profiles  ProfileStore
	storage   Storage
	senders   map[channel.Name]Dispatcher
	logger    *slog.Logger
	now       func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithSender registers a channel sender; the channel it serves is taken
// from the sender itself. Channels without a registered sender are decided
// but not dispatched.
func WithSender(d Dispatcher) ProcessorOption {
	return func(p *Processor) {
		if d != nil {
			p.senders[d.Name()] = d
		}
	}
}

// WithProcessorLogger sets the logger for the Processor.
func WithProcessorLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if log != nil {
			p.logger = log
		}
	}
}

// WithProcessorClock overrides the wall-clock source. Intended for tests.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a notification processor.
func New(templates template.Store, settingsStore settings.Store, profiles ProfileStore, storage Storage, opts ...ProcessorOption) (*Processor, error) {
	if templates == nil {
		return nil, ErrTemplateStoreNil
	}
	if settingsStore == nil {
		return nil, ErrSettingsStoreNil
	}
	if profiles == nil {
		return nil, ErrProfileStoreNil
	}
	if storage == nil {
		return nil, ErrStorageNil
	}

	p := &Processor{
		templates: templates,
		settings:  settingsStore,
		profiles:  profiles,
		storage:   storage,
		senders:   make(map[channel.Name]Dispatcher),
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Handler adapts the processor to an event bus subscription. The returned
// handler reports template resolution failures back to the bus so they enter
// the event retry path.
func (p *Processor) Handler(templateID string) eventbus.Handler {
	return func(ctx context.Context, event *eventbus.Event) error {
		_, err := p.ProcessNotification(ctx, event, templateID)
		return err
	}
}

// ProcessNotification fans an event out to its target users.
//
// A missing or inactive template fails the whole call. Per-user problems
// (missing profile, unreadable settings, storage hiccups) are logged and
// reflected in that user's result without aborting the remaining users.
func (p *Processor) ProcessNotification(ctx context.Context, event *eventbus.Event, templateID string) ([]UserResult, error) {
	if event == nil {
		return nil, ErrEventNil
	}

	tpl, err := p.templates.GetActive(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("resolving template for event %s: %w", event.ID, err)
	}

	results := make([]UserResult, 0, len(event.TargetUsers))
	for _, userID := range event.TargetUsers {
		results = append(results, p.processUser(ctx, event, tpl, userID))
	}
	return results, nil
}

func (p *Processor) processUser(ctx context.Context, event *eventbus.Event, tpl *template.Template, userID string) UserResult {
	log := p.logger.With(
		logger.EventID(event.ID),
		logger.EventType(event.Type),
		logger.UserID(userID))

	setting, err := p.settings.GetOrCreate(ctx, userID)
	if err != nil {
		log.Error("failed to load user settings", logger.Error(err))
		return UserResult{UserID: userID, Skipped: true, Error: err.Error()}
	}

	profile, err := p.profiles.Get(ctx, userID)
	if err != nil {
		// A missing user is not a pipeline failure; skip and move on.
		log.Warn("skipping user without profile", logger.Error(err))
		return UserResult{UserID: userID, Skipped: true, Error: err.Error()}
	}

	now := p.now()
	quiet, err := setting.QuietHours.Contains(now)
	if err != nil {
		log.Warn("quiet hours misconfigured, treating as inactive", logger.Error(err))
		quiet = false
	}

	lang := profile.Language
	if lang == "" {
		lang = template.DefaultLanguage
	}
	vars := p.placeholders(event, profile, now)

	record := p.buildRecord(event, tpl, profile, lang, vars, now)
	if err := p.storage.Create(ctx, record); err != nil {
		log.Error("failed to persist notification record", logger.Error(err))
		return UserResult{UserID: userID, Skipped: true, Error: err.Error()}
	}

	decision := DetermineChannels(event.Priority, setting, quiet, tpl)
	channelResults := p.dispatch(ctx, log, tpl, profile, lang, vars, decision, record)

	log.Info("notification processed",
		slog.String("notification_id", record.ID.String()),
		slog.Bool("quiet_hours", quiet),
		slog.Int("channels", len(channelResults)))

	return UserResult{
		UserID:         userID,
		NotificationID: record.ID,
		Channels:       channelResults,
	}
}

// placeholders assembles the substitution map: the standard keys first,
// then caller-supplied payload values, which may override the standard ones.
func (p *Processor) placeholders(event *eventbus.Event, profile *Profile, now time.Time) map[string]string {
	vars := map[string]string{
		"userName":  profile.Name,
		"userId":    profile.ID,
		"timestamp": now.Format(time.RFC3339),
	}
	for _, key := range []string{"contentTitle", "contentId", "senderName"} {
		vars[key] = stringValue(event.Payload[key])
	}
	for key, value := range event.Payload {
		if s := stringValue(value); s != "" {
			vars[key] = s
		}
	}
	return vars
}

// buildRecord derives the persisted record from the in-app content, falling
// back through push content and the payload title to the event type.
func (p *Processor) buildRecord(event *eventbus.Event, tpl *template.Template, profile *Profile, lang string, vars map[string]string, now time.Time) *Record {
	var title, message string
	if content, ok := tpl.InApp.ContentFor(lang); ok {
		rendered := content.Render(vars)
		title, message = rendered.Title, rendered.Message
	}
	if title == "" {
		if content, ok := tpl.Push.ContentFor(lang); ok {
			rendered := content.Render(vars)
			title = rendered.Title
			if message == "" {
				message = rendered.Message
			}
		}
	}
	if title == "" {
		title = stringValue(event.Payload["title"])
	}
	if title == "" {
		title = event.Type
	}

	return &Record{
		ID:        uuid.New(),
		Recipient: profile.ID,
		Sender:    stringValue(event.Payload["senderId"]),
		Type:      event.Type,
		Title:     title,
		Message:   message,
		RelatedContent: RelatedContent{
			ContentType: stringValue(event.Payload["contentType"]),
			ContentID:   stringValue(event.Payload["contentId"]),
		},
		Metadata:  event.Metadata,
		CreatedAt: now,
	}
}

func (p *Processor) dispatch(ctx context.Context, log *slog.Logger, tpl *template.Template, profile *Profile, lang string, vars map[string]string, decision ChannelDecision, record *Record) map[channel.Name]*channel.Result {
	out := make(map[channel.Name]*channel.Result)

	if decision.InApp {
		// The record itself is the in-app delivery.
		out[channel.InApp] = &channel.Result{Success: true, MessageID: record.ID.String()}
	}

	if decision.Push {
		out[channel.Push] = p.sendPush(ctx, log, tpl, profile, lang, vars)
	}
	if decision.Email {
		out[channel.Email] = p.sendEmail(ctx, log, tpl, profile, lang, vars)
	}
	if decision.SMS {
		out[channel.SMS] = p.sendSMS(ctx, log, tpl, profile, lang, vars)
	}

	return out
}

func (p *Processor) sendPush(ctx context.Context, log *slog.Logger, tpl *template.Template, profile *Profile, lang string, vars map[string]string) *channel.Result {
	sender, ok := p.senders[channel.Push]
	if !ok {
		return &channel.Result{Success: false, Error: "no push sender configured"}
	}
	if len(profile.DeviceTokens) == 0 {
		return &channel.Result{Success: false, Error: ErrNoAddress.Error()}
	}

	content, ok := tpl.Push.ContentFor(lang)
	if !ok {
		return &channel.Result{Success: false, Error: template.ErrContentMissing.Error()}
	}
	rendered := content.Render(vars)

	// One message per registered device; the channel result reflects the
	// last failure or the last success.
	var last *channel.Result
	delivered := false
	for _, token := range profile.DeviceTokens {
		res, err := sender.Send(ctx, channel.Message{
			To:      token,
			Subject: rendered.Title,
			Body:    rendered.Message,
			Data:    actionData(rendered),
		})
		if err != nil {
			log.Warn("push dispatch failed", logger.Channel(string(channel.Push)), logger.Error(err))
		}
		if res.Success || res.Queued {
			delivered = true
		}
		last = res
	}
	if delivered && !(last.Success || last.Queued) {
		last = &channel.Result{Success: true}
	}
	return last
}

func (p *Processor) sendEmail(ctx context.Context, log *slog.Logger, tpl *template.Template, profile *Profile, lang string, vars map[string]string) *channel.Result {
	sender, ok := p.senders[channel.Email]
	if !ok {
		return &channel.Result{Success: false, Error: "no email sender configured"}
	}
	if profile.Email == "" {
		return &channel.Result{Success: false, Error: ErrNoAddress.Error()}
	}

	content, ok := tpl.Email.ContentFor(lang)
	if !ok {
		return &channel.Result{Success: false, Error: template.ErrContentMissing.Error()}
	}
	rendered := content.Render(vars)

	res, err := sender.Send(ctx, channel.Message{
		To:       profile.Email,
		Subject:  rendered.Title,
		Body:     rendered.Message,
		HTMLBody: rendered.HTMLMessage,
		Data:     actionData(rendered),
	})
	if err != nil {
		log.Warn("email dispatch failed", logger.Channel(string(channel.Email)), logger.Error(err))
	}
	return res
}

func (p *Processor) sendSMS(ctx context.Context, log *slog.Logger, tpl *template.Template, profile *Profile, lang string, vars map[string]string) *channel.Result {
	sender, ok := p.senders[channel.SMS]
	if !ok {
		return &channel.Result{Success: false, Error: "no sms sender configured"}
	}
	if profile.Phone == "" {
		return &channel.Result{Success: false, Error: ErrNoAddress.Error()}
	}

	content, ok := tpl.SMS.ContentFor(lang)
	if !ok {
		return &channel.Result{Success: false, Error: template.ErrContentMissing.Error()}
	}
	rendered := content.Render(vars)

	res, err := sender.Send(ctx, channel.Message{
		To:   profile.Phone,
		Body: rendered.Message,
	})
	if err != nil {
		log.Warn("sms dispatch failed", logger.Channel(string(channel.SMS)), logger.Error(err))
	}
	return res
}

func actionData(content template.Content) map[string]string {
	if content.CallToAction == nil {
		return nil
	}
	return map[string]string{
		"actionLabel": content.CallToAction.Label,
		"actionUrl":   content.CallToAction.URL,
	}
}

func stringValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}
