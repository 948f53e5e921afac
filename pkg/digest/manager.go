package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/contentpulse/notifykit/pkg/channel"
	"github.com/contentpulse/notifykit/pkg/logger"
	"github.com/contentpulse/notifykit/pkg/notifier"
	"github.com/contentpulse/notifykit/pkg/settings"
)

// Manager runs periodic digest aggregation for users who prefer it.
type Manager struct {
	settings settings.Store
	storage  notifier.Storage
	profiles notifier.ProfileStore
	senders  map[channel.Name]notifier.Dispatcher
	logger   *slog.Logger
	now      func() time.Time

	daily  Schedule
	weekly Schedule

	dailyRunning  atomic.Bool
	weeklyRunning atomic.Bool

	mu     sync.Mutex
	timers map[settings.Cadence]*time.Timer
	closed bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSender registers a channel sender for digest delivery.
func WithSender(d notifier.Dispatcher) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.senders[d.Name()] = d
		}
	}
}

// WithDailySchedule overrides when the daily cadence fires. Defaults to 09:00.
func WithDailySchedule(s Schedule) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.daily = s
		}
	}
}

// WithWeeklySchedule overrides when the weekly cadence fires. Defaults to
// Monday 09:00.
func WithWeeklySchedule(s Schedule) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.weekly = s
		}
	}
}

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// WithManagerClock overrides the wall-clock source. Intended for tests.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a digest manager.
func NewManager(settingsStore settings.Store, storage notifier.Storage, profiles notifier.ProfileStore, opts ...ManagerOption) (*Manager, error) {
	if settingsStore == nil {
		return nil, ErrSettingsStoreNil
	}
	if storage == nil {
		return nil, ErrStorageNil
	}
	if profiles == nil {
		return nil, ErrProfileStoreNil
	}

	m := &Manager{
		settings: settingsStore,
		storage:  storage,
		profiles: profiles,
		senders:  make(map[channel.Name]notifier.Dispatcher),
		timers:   make(map[settings.Cadence]*time.Timer),
		logger:   slog.Default(),
		now:      time.Now,
		daily:    DailyAt(9, 0),
		weekly:   WeeklyOn(time.Monday, 9, 0),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Start schedules both cadences. Each run re-arms its own next occurrence,
// so a started manager keeps firing until Stop.
func (m *Manager) Start(ctx context.Context) {
	m.scheduleNext(ctx, settings.CadenceDaily, m.daily)
	m.scheduleNext(ctx, settings.CadenceWeekly, m.weekly)

	m.logger.Info("digest scheduling started",
		slog.String("daily", m.daily.String()),
		slog.String("weekly", m.weekly.String()))
}

// Stop cancels all pending timers. A run already executing finishes.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for _, t := range m.timers {
		t.Stop()
	}
	clear(m.timers)
}

func (m *Manager) scheduleNext(ctx context.Context, cadence settings.Cadence, schedule Schedule) {
	now := m.now()
	next := schedule.Next(now)
	delay := next.Sub(now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.timers[cadence] = time.AfterFunc(delay, func() {
		if err := m.processCadence(ctx, cadence); err != nil {
			m.logger.Warn("digest run skipped",
				logger.Cadence(string(cadence)),
				logger.Error(err))
		}
		m.scheduleNext(ctx, cadence, schedule)
	})

	m.logger.Debug("digest run scheduled",
		logger.Cadence(string(cadence)),
		slog.Time("next_run", next))
}

// ProcessDailyDigests runs the daily cadence once, immediately.
func (m *Manager) ProcessDailyDigests(ctx context.Context) error {
	return m.processCadence(ctx, settings.CadenceDaily)
}

// ProcessWeeklyDigests runs the weekly cadence once, immediately.
func (m *Manager) ProcessWeeklyDigests(ctx context.Context) error {
	return m.processCadence(ctx, settings.CadenceWeekly)
}

func (m *Manager) guard(cadence settings.Cadence) *atomic.Bool {
	if cadence == settings.CadenceWeekly {
		return &m.weeklyRunning
	}
	return &m.dailyRunning
}

// processCadence runs one digest sweep. An overlapping run of the same
// cadence is skipped, not queued.
func (m *Manager) processCadence(ctx context.Context, cadence settings.Cadence) error {
	running := m.guard(cadence)
	if !running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrRunInProgress, cadence)
	}
	defer running.Store(false)

	users, err := m.settings.ListDigestUsers(ctx, cadence)
	if err != nil {
		return fmt.Errorf("listing %s digest users: %w", cadence, err)
	}

	m.logger.Info("digest run started",
		logger.Cadence(string(cadence)),
		slog.Int("users", len(users)))

	processed, failed := 0, 0
	for _, setting := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Per-user failures never abort the batch.
		if err := m.ProcessUserDigest(ctx, setting, cadence); err != nil {
			failed++
			m.logger.Error("user digest failed",
				logger.Cadence(string(cadence)),
				logger.UserID(setting.UserID),
				logger.Error(err))
			continue
		}
		processed++
	}

	m.logger.Info("digest run finished",
		logger.Cadence(string(cadence)),
		slog.Int("processed", processed),
		slog.Int("failed", failed))

	return nil
}

// ProcessUserDigest aggregates one user's recent notifications and delivers
// the summary through every channel still configured for digest. A user with
// no records in the lookback window is a silent no-op.
func (m *Manager) ProcessUserDigest(ctx context.Context, setting *settings.Setting, cadence settings.Cadence) error {
	lookback := 24 * time.Hour
	if cadence == settings.CadenceWeekly {
		lookback = 7 * 24 * time.Hour
	}
	now := m.now()

	records, err := m.storage.ListSince(ctx, setting.UserID, now.Add(-lookback))
	if err != nil {
		return fmt.Errorf("loading records for user %q: %w", setting.UserID, err)
	}
	if len(records) == 0 {
		return nil
	}

	profile, err := m.profiles.Get(ctx, setting.UserID)
	if err != nil {
		return fmt.Errorf("loading profile for user %q: %w", setting.UserID, err)
	}

	payload := Render(cadence, now, records)

	if setting.Email.Frequency == settings.FrequencyDigest {
		if err := m.sendEmail(ctx, profile, payload); err != nil {
			return err
		}
	}
	if setting.Push.Frequency == settings.FrequencyDigest {
		if err := m.sendPush(ctx, profile, payload); err != nil {
			return err
		}
	}
	if setting.SMS.Frequency == settings.FrequencyDigest {
		if err := m.sendSMS(ctx, profile, payload); err != nil {
			return err
		}
	}

	m.logger.Info("user digest delivered",
		logger.Cadence(string(cadence)),
		logger.UserID(setting.UserID),
		slog.Int("notifications", payload.Total))

	return nil
}

func (m *Manager) sendEmail(ctx context.Context, profile *notifier.Profile, payload Payload) error {
	sender, ok := m.senders[channel.Email]
	if !ok || profile.Email == "" {
		return nil
	}
	_, err := sender.Send(ctx, channel.Message{
		To:       profile.Email,
		Subject:  payload.Title,
		Body:     payload.Text,
		HTMLBody: payload.HTML,
	})
	if err != nil {
		return fmt.Errorf("sending digest email: %w", err)
	}
	return nil
}

func (m *Manager) sendPush(ctx context.Context, profile *notifier.Profile, payload Payload) error {
	sender, ok := m.senders[channel.Push]
	if !ok || len(profile.DeviceTokens) == 0 {
		return nil
	}
	for _, token := range profile.DeviceTokens {
		_, err := sender.Send(ctx, channel.Message{
			To:      token,
			Subject: payload.Title,
			Body:    payload.PushSummary,
		})
		if err != nil {
			return fmt.Errorf("sending digest push: %w", err)
		}
	}
	return nil
}

func (m *Manager) sendSMS(ctx context.Context, profile *notifier.Profile, payload Payload) error {
	sender, ok := m.senders[channel.SMS]
	if !ok || profile.Phone == "" {
		return nil
	}
	_, err := sender.Send(ctx, channel.Message{
		To:   profile.Phone,
		Body: payload.PushSummary,
	})
	if err != nil {
		return fmt.Errorf("sending digest sms: %w", err)
	}
	return nil
}
