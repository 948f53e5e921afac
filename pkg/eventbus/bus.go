package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contentpulse/notifykit/pkg/logger"
)

// Handler processes one event. Handlers for a single event run concurrently;
// any handler error sends the event through the retry path.
type Handler func(ctx context.Context, event *Event) error

// Bus is the publish/subscribe core. The subscriber registry is owned by the
// Bus instance, not global state, so independent buses can coexist in tests.
type Bus struct {
	store  Store
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[uuid.UUID]Handler

	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	backoffBase  time.Duration
	now          func() time.Time

	runMu   sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates an event bus over the given store.
func New(store Store, opts ...Option) (*Bus, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	b := &Bus{
		store:        store,
		logger:       slog.Default(),
		subs:         make(map[string]map[uuid.UUID]Handler),
		pollInterval: 5 * time.Second,
		batchSize:    50,
		maxAttempts:  3,
		backoffBase:  time.Minute,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Subscribe registers a handler for an event type and returns the
// subscription id. Multiple handlers per type are permitted; all are invoked
// on dispatch.
func (b *Bus) Subscribe(eventType string, handler Handler) (uuid.UUID, error) {
	if eventType == "" {
		return uuid.Nil, ErrEventTypeEmpty
	}
	if handler == nil {
		return uuid.Nil, ErrHandlerNil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New()
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uuid.UUID]Handler)
	}
	b.subs[eventType][id] = handler

	b.logger.Debug("handler subscribed",
		logger.EventType(eventType),
		slog.String("subscription_id", id.String()))

	return id, nil
}

// Unsubscribe removes a handler. Idempotent: removing an unknown
// subscription returns false without error.
func (b *Bus) Unsubscribe(eventType string, subscriptionID uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers, ok := b.subs[eventType]
	if !ok {
		return false
	}
	if _, ok := handlers[subscriptionID]; !ok {
		return false
	}

	delete(handlers, subscriptionID)
	if len(handlers) == 0 {
		delete(b.subs, eventType)
	}
	return true
}

// Publish persists a new pending event. Critical and high priority events
// are processed immediately, best effort: a processing failure is logged and
// left to the retry path, not returned to the publisher.
func (b *Bus) Publish(ctx context.Context, eventType string, payload map[string]any, opts ...PublishOption) (*Event, error) {
	if eventType == "" {
		return nil, ErrEventTypeEmpty
	}

	options := &publishOptions{priority: PriorityMedium}
	for _, opt := range opts {
		opt(options)
	}
	if !options.priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, options.priority)
	}

	now := b.now()
	scheduledFor := now
	if options.scheduledFor != nil && options.scheduledFor.After(now) {
		scheduledFor = *options.scheduledFor
	}

	event := &Event{
		ID:           uuid.New(),
		Type:         eventType,
		Publisher:    options.publisher,
		Priority:     options.priority,
		Payload:      payload,
		TargetUsers:  options.targetUsers,
		Metadata:     options.metadata,
		Status:       StatusPending,
		ScheduledFor: scheduledFor,
		CreatedAt:    now,
	}

	if err := b.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("persisting event %q: %w", eventType, err)
	}

	b.logger.Info("event published",
		logger.EventID(event.ID),
		logger.EventType(eventType),
		slog.String("priority", string(event.Priority)))

	// Immediate dispatch for urgent events; scheduled events still wait for
	// their due time in the polling loop.
	if (event.Priority == PriorityCritical || event.Priority == PriorityHigh) && !scheduledFor.After(now) {
		if err := b.processEvent(ctx, event); err != nil {
			b.logger.Warn("immediate processing failed, event left to polling loop",
				logger.EventID(event.ID),
				logger.Error(err))
		}
	}

	return event, nil
}

// Start launches the polling loop. Idempotent: calling Start on a running
// bus is a no-op. Only one loop per Bus instance ever runs.
func (b *Bus) Start(ctx context.Context) error {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if b.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.stopped = make(chan struct{})

	go b.run(loopCtx)

	b.logger.Info("event bus polling started",
		slog.Duration("poll_interval", b.pollInterval),
		slog.Int("batch_size", b.batchSize))

	return nil
}

// Stop terminates the polling loop and waits for the current batch to settle.
func (b *Bus) Stop() {
	b.runMu.Lock()
	cancel := b.cancel
	stopped := b.stopped
	b.cancel = nil
	b.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped

	b.logger.Info("event bus polling stopped")
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.stopped)

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.pollOnce(ctx)
		}
	}
}

// pollOnce fetches one batch of due events and processes them strictly
// sequentially. Sequential processing is a deliberate ordering trade-off, not
// a performance feature.
func (b *Bus) pollOnce(ctx context.Context) {
	events, err := b.store.ListDue(ctx, b.now(), b.batchSize)
	if err != nil {
		b.logger.Error("failed to fetch due events", logger.Error(err))
		return
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return
		}
		if err := b.processEvent(ctx, event); err != nil {
			b.logger.Error("event processing failed",
				logger.EventID(event.ID),
				logger.EventType(event.Type),
				logger.Error(err))
		}
	}
}

// processEvent advances one event through the state machine:
// pending -> processing -> completed, or back to pending with backoff while
// the retry budget lasts, then failed.
func (b *Bus) processEvent(ctx context.Context, event *Event) error {
	event.Status = StatusProcessing
	event.Attempts++
	if err := b.store.UpdateEvent(ctx, event); err != nil {
		return fmt.Errorf("marking event %s processing: %w", event.ID, err)
	}

	handlers := b.handlersFor(event.Type)

	// An event nobody listens for is not an error; complete it immediately.
	if len(handlers) == 0 {
		return b.complete(ctx, event)
	}

	// All handlers run concurrently; the event settles on their combined result.
	var wg sync.WaitGroup
	errs := make([]error, len(handlers))
	for i, h := range handlers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("handler panicked: %v", r)
				}
			}()
			errs[i] = h(ctx, event)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return b.retryOrFail(ctx, event, err)
	}

	return b.complete(ctx, event)
}

func (b *Bus) handlersFor(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := make([]Handler, 0, len(b.subs[eventType]))
	for _, h := range b.subs[eventType] {
		handlers = append(handlers, h)
	}
	return handlers
}

func (b *Bus) complete(ctx context.Context, event *Event) error {
	now := b.now()
	event.Status = StatusCompleted
	event.ProcessedAt = &now
	if err := b.store.UpdateEvent(ctx, event); err != nil {
		return fmt.Errorf("marking event %s completed: %w", event.ID, err)
	}

	b.logger.Info("event completed",
		logger.EventID(event.ID),
		logger.EventType(event.Type),
		logger.Attempts(event.Attempts))

	return nil
}

// retryOrFail returns the event to pending with exponential backoff while
// attempts remain, otherwise marks it permanently failed. ScheduledFor only
// moves forward.
func (b *Bus) retryOrFail(ctx context.Context, event *Event, handlerErr error) error {
	if event.Attempts < b.maxAttempts {
		backoff := b.backoffBase << (event.Attempts - 1)
		event.Status = StatusPending
		event.ScheduledFor = b.now().Add(backoff)
		event.ErrorDetails = handlerErr.Error()
		if err := b.store.UpdateEvent(ctx, event); err != nil {
			return fmt.Errorf("rescheduling event %s: %w", event.ID, err)
		}

		b.logger.Warn("event rescheduled after handler failure",
			logger.EventID(event.ID),
			logger.EventType(event.Type),
			logger.Attempts(event.Attempts),
			slog.Duration("backoff", backoff),
			logger.Error(handlerErr))

		return nil
	}

	now := b.now()
	event.Status = StatusFailed
	event.ProcessedAt = &now
	event.ErrorDetails = handlerErr.Error()
	if err := b.store.UpdateEvent(ctx, event); err != nil {
		return fmt.Errorf("marking event %s failed: %w", event.ID, err)
	}

	b.logger.Error("event failed permanently",
		logger.EventID(event.ID),
		logger.EventType(event.Type),
		logger.Attempts(event.Attempts),
		logger.Error(handlerErr))

	return nil
}
