package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/notifykit/pkg/eventbus"
)

func makeEvent(t *testing.T, priority eventbus.Priority, createdAt time.Time) *eventbus.Event {
	t.Helper()
	return &eventbus.Event{
		ID:           uuid.New(),
		Type:         "test.event",
		Priority:     priority,
		Status:       eventbus.StatusPending,
		ScheduledFor: createdAt,
		CreatedAt:    createdAt,
	}
}

func TestMemoryStore_ListDueOrdering(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	low := makeEvent(t, eventbus.PriorityLow, base)
	critical := makeEvent(t, eventbus.PriorityCritical, base.Add(time.Second))
	mediumOld := makeEvent(t, eventbus.PriorityMedium, base)
	mediumNew := makeEvent(t, eventbus.PriorityMedium, base.Add(2*time.Second))
	high := makeEvent(t, eventbus.PriorityHigh, base.Add(3*time.Second))

	for _, e := range []*eventbus.Event{low, critical, mediumOld, mediumNew, high} {
		require.NoError(t, store.CreateEvent(ctx, e))
	}

	due, err := store.ListDue(ctx, base.Add(time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, due, 5)

	// Priority rank first, createdAt ascending within a rank.
	assert.Equal(t, critical.ID, due[0].ID)
	assert.Equal(t, high.ID, due[1].ID)
	assert.Equal(t, mediumOld.ID, due[2].ID)
	assert.Equal(t, mediumNew.ID, due[3].ID)
	assert.Equal(t, low.ID, due[4].ID)
}

func TestMemoryStore_ListDueFilters(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	due := makeEvent(t, eventbus.PriorityMedium, now.Add(-time.Minute))

	future := makeEvent(t, eventbus.PriorityMedium, now.Add(-time.Minute))
	future.ScheduledFor = now.Add(time.Hour)

	completed := makeEvent(t, eventbus.PriorityMedium, now.Add(-time.Minute))
	completed.Status = eventbus.StatusCompleted

	processing := makeEvent(t, eventbus.PriorityMedium, now.Add(-time.Minute))
	processing.Status = eventbus.StatusProcessing

	for _, e := range []*eventbus.Event{due, future, completed, processing} {
		require.NoError(t, store.CreateEvent(ctx, e))
	}

	got, err := store.ListDue(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
}

func TestMemoryStore_ListDueLimit(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	for i := range 10 {
		e := makeEvent(t, eventbus.PriorityMedium, now.Add(time.Duration(i)*time.Second))
		e.ScheduledFor = now
		require.NoError(t, store.CreateEvent(ctx, e))
	}

	got, err := store.ListDue(ctx, now.Add(time.Minute), 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMemoryStore_UpdateMissingEvent(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	e := makeEvent(t, eventbus.PriorityMedium, time.Now())

	err := store.UpdateEvent(context.Background(), e)
	assert.ErrorIs(t, err, eventbus.ErrEventNotFound)
}

func TestMemoryStore_GetEvent(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	ctx := context.Background()
	e := makeEvent(t, eventbus.PriorityMedium, time.Now())
	require.NoError(t, store.CreateEvent(ctx, e))

	got, err := store.GetEvent(ctx, e.ID.String())
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = store.GetEvent(ctx, uuid.NewString())
	assert.ErrorIs(t, err, eventbus.ErrEventNotFound)

	_, err = store.GetEvent(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, eventbus.ErrEventNotFound)
}

func TestMemoryStore_ClonesOnReadAndWrite(t *testing.T) {
	t.Parallel()

	store := eventbus.NewMemoryStore()
	ctx := context.Background()
	e := makeEvent(t, eventbus.PriorityMedium, time.Now())
	require.NoError(t, store.CreateEvent(ctx, e))

	// Mutating the original after creation must not affect the stored copy.
	e.Status = eventbus.StatusFailed

	got, err := store.GetEvent(ctx, e.ID.String())
	require.NoError(t, err)
	assert.Equal(t, eventbus.StatusPending, got.Status)
}
