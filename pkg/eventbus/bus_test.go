package eventbus_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/notifykit/pkg/eventbus"
)

// testClock is a manually advanced time source shared between the bus and
// assertions.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestPublish_PersistsPendingEvent(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	bus, err := eventbus.New(store)
	require.NoError(t, err)

	event, err := bus.Publish(context.Background(), "content.approved",
		map[string]any{"contentTitle": "Hello"},
		eventbus.WithPublisher("content-service"),
		eventbus.WithTargetUsers("u1", "u2"),
	)
	require.NoError(t, err)

	stored, err := store.GetEvent(context.Background(), event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, eventbus.StatusPending, stored.Status)
	assert.Equal(t, eventbus.PriorityMedium, stored.Priority)
	assert.Equal(t, []string{"u1", "u2"}, stored.TargetUsers)
	assert.Equal(t, "content-service", stored.Publisher)
	assert.Equal(t, 0, stored.Attempts)
}

func TestPublish_Validation(t *testing.T) {
	t.Parallel()

	bus, err := eventbus.New(eventbus.NewMemoryStore())
	require.NoError(t, err)

	_, err = bus.Publish(context.Background(), "", nil)
	assert.ErrorIs(t, err, eventbus.ErrEventTypeEmpty)

	_, err = bus.Publish(context.Background(), "x", nil, eventbus.WithPriority("urgent"))
	assert.ErrorIs(t, err, eventbus.ErrInvalidPriority)
}

func TestPublish_CriticalProcessedImmediately(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	bus, err := eventbus.New(store)
	require.NoError(t, err)

	var calls atomic.Int32
	_, err = bus.Subscribe("system.announcement", func(ctx context.Context, e *eventbus.Event) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	event, err := bus.Publish(context.Background(), "system.announcement", nil,
		eventbus.WithPriority(eventbus.PriorityCritical))
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())

	stored, err := store.GetEvent(context.Background(), event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, eventbus.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestPublish_MediumWaitsForPolling(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	bus, err := eventbus.New(store)
	require.NoError(t, err)

	var calls atomic.Int32
	_, err = bus.Subscribe("user.newComment", func(ctx context.Context, e *eventbus.Event) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	event, err := bus.Publish(context.Background(), "user.newComment", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(0), calls.Load(), "medium priority must not dispatch inline")

	stored, err := store.GetEvent(context.Background(), event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, eventbus.StatusPending, stored.Status)
}

func TestPublish_ScheduledCriticalNotProcessedEarly(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	store := eventbus.NewMemoryStore()
	bus, err := eventbus.New(store, eventbus.WithClock(clock.Now))
	require.NoError(t, err)

	var calls atomic.Int32
	_, err = bus.Subscribe("maintenance.window", func(ctx context.Context, e *eventbus.Event) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	_, err = bus.Publish(context.Background(), "maintenance.window", nil,
		eventbus.WithPriority(eventbus.PriorityCritical),
		eventbus.WithScheduledFor(clock.Now().Add(time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, int32(0), calls.Load(), "future-scheduled events wait for their due time")
}

func TestNoSubscriberShortCircuit(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	bus, err := eventbus.New(store, eventbus.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Start(ctx))
	defer bus.Stop()

	event, err := bus.Publish(ctx, "ghost.event", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := store.GetEvent(ctx, event.ID.String())
		return err == nil && stored.Status == eventbus.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := store.GetEvent(ctx, event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts, "attempts incremented exactly once")
}

func TestBackoffProgressionAndPermanentFailure(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	store := eventbus.NewMemoryStore()
	bus, err := eventbus.New(store,
		eventbus.WithClock(clock.Now),
		eventbus.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)

	_, err = bus.Subscribe("flaky.event", func(ctx context.Context, e *eventbus.Event) error {
		return errors.New("downstream unavailable")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Start(ctx))
	defer bus.Stop()

	event, err := bus.Publish(ctx, "flaky.event", nil)
	require.NoError(t, err)

	// Attempt 1: back to pending, scheduled 60s out.
	require.Eventually(t, func() bool {
		stored, err := store.GetEvent(ctx, event.ID.String())
		return err == nil && stored.Attempts == 1 && stored.Status == eventbus.StatusPending
	}, 2*time.Second, 5*time.Millisecond)

	stored, err := store.GetEvent(ctx, event.ID.String())
	require.NoError(t, err)
	firstRetryAt := stored.ScheduledFor
	assert.Equal(t, clock.Now().Add(time.Minute), firstRetryAt)

	// Attempt 2: 120s backoff.
	clock.Advance(61 * time.Second)
	require.Eventually(t, func() bool {
		stored, err := store.GetEvent(ctx, event.ID.String())
		return err == nil && stored.Attempts == 2 && stored.Status == eventbus.StatusPending
	}, 2*time.Second, 5*time.Millisecond)

	stored, err = store.GetEvent(ctx, event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(2*time.Minute), stored.ScheduledFor)
	assert.True(t, stored.ScheduledFor.After(firstRetryAt), "backoff never moves scheduledFor back")

	// Attempt 3: retry budget exhausted, permanently failed.
	clock.Advance(121 * time.Second)
	require.Eventually(t, func() bool {
		stored, err := store.GetEvent(ctx, event.ID.String())
		return err == nil && stored.Status == eventbus.StatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	stored, err = store.GetEvent(ctx, event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts, "failed exactly at attempt 3")
	assert.Contains(t, stored.ErrorDetails, "downstream unavailable")
}

func TestAllHandlersInvokedConcurrently(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	bus, err := eventbus.New(store)
	require.NoError(t, err)

	var calls atomic.Int32
	for range 3 {
		_, err := bus.Subscribe("fanout.event", func(ctx context.Context, e *eventbus.Event) error {
			calls.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	event, err := bus.Publish(context.Background(), "fanout.event", nil,
		eventbus.WithPriority(eventbus.PriorityHigh))
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())

	stored, err := store.GetEvent(context.Background(), event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, eventbus.StatusCompleted, stored.Status)
}

func TestPartialHandlerFailureTriggersRetry(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	bus, err := eventbus.New(store)
	require.NoError(t, err)

	_, err = bus.Subscribe("mixed.event", func(ctx context.Context, e *eventbus.Event) error {
		return nil
	})
	require.NoError(t, err)
	_, err = bus.Subscribe("mixed.event", func(ctx context.Context, e *eventbus.Event) error {
		return errors.New("second handler broke")
	})
	require.NoError(t, err)

	event, err := bus.Publish(context.Background(), "mixed.event", nil,
		eventbus.WithPriority(eventbus.PriorityHigh))
	require.NoError(t, err)

	stored, err := store.GetEvent(context.Background(), event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, eventbus.StatusPending, stored.Status, "any handler failure retries the event")
	assert.Equal(t, 1, stored.Attempts)
	assert.Contains(t, stored.ErrorDetails, "second handler broke")
}

func TestSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	bus, err := eventbus.New(eventbus.NewMemoryStore())
	require.NoError(t, err)

	id, err := bus.Subscribe("a.event", func(ctx context.Context, e *eventbus.Event) error { return nil })
	require.NoError(t, err)

	assert.True(t, bus.Unsubscribe("a.event", id))
	assert.False(t, bus.Unsubscribe("a.event", id), "unsubscribe is idempotent")
	assert.False(t, bus.Unsubscribe("unknown.event", id))

	_, err = bus.Subscribe("", func(ctx context.Context, e *eventbus.Event) error { return nil })
	assert.ErrorIs(t, err, eventbus.ErrEventTypeEmpty)

	_, err = bus.Subscribe("a.event", nil)
	assert.ErrorIs(t, err, eventbus.ErrHandlerNil)
}

func TestStartIsIdempotent(t *testing.T) {
	t.Parallel()

	bus, err := eventbus.New(eventbus.NewMemoryStore(), eventbus.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Start(ctx), "second Start is a no-op")
	bus.Stop()
	bus.Stop() // Stop after Stop is also safe.
}
