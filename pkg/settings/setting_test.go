package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/notifykit/pkg/settings"
)

func TestQuietHours_Contains(t *testing.T) {
	t.Parallel()

	overnight := settings.QuietHours{
		Enabled:  true,
		Start:    "22:00",
		End:      "08:00",
		Timezone: "UTC",
	}
	daytime := settings.QuietHours{
		Enabled:  true,
		Start:    "09:00",
		End:      "17:00",
		Timezone: "UTC",
	}

	at := func(hour, minute int) time.Time {
		return time.Date(2026, time.March, 1, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		hours settings.QuietHours
		at    time.Time
		want  bool
	}{
		{name: "overnight late evening", hours: overnight, at: at(23, 30), want: true},
		{name: "overnight early morning", hours: overnight, at: at(6, 0), want: true},
		{name: "overnight start boundary inclusive", hours: overnight, at: at(22, 0), want: true},
		{name: "overnight end boundary exclusive", hours: overnight, at: at(8, 0), want: false},
		{name: "overnight midday", hours: overnight, at: at(10, 0), want: false},
		{name: "overnight just before start", hours: overnight, at: at(21, 59), want: false},
		{name: "daytime inside", hours: daytime, at: at(12, 0), want: true},
		{name: "daytime outside", hours: daytime, at: at(18, 0), want: false},
		{name: "daytime end boundary exclusive", hours: daytime, at: at(17, 0), want: false},
		{
			name:  "disabled contains nothing",
			hours: settings.QuietHours{Start: "22:00", End: "08:00"},
			at:    at(23, 0),
			want:  false,
		},
		{
			name:  "zero-length window contains nothing",
			hours: settings.QuietHours{Enabled: true, Start: "10:00", End: "10:00", Timezone: "UTC"},
			at:    at(10, 0),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.hours.Contains(tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuietHours_ContainsTimezoneConversion(t *testing.T) {
	t.Parallel()

	hours := settings.QuietHours{
		Enabled:  true,
		Start:    "22:00",
		End:      "08:00",
		Timezone: "America/New_York",
	}

	// 03:00 UTC is 22:00 or 23:00 in New York depending on DST; either way
	// it falls inside the overnight window.
	quiet, err := hours.Contains(time.Date(2026, time.March, 1, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, quiet)

	// 16:00 UTC is morning-to-midday in New York, outside the window.
	quiet, err = hours.Contains(time.Date(2026, time.March, 1, 16, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, quiet)
}

func TestQuietHours_ContainsErrors(t *testing.T) {
	t.Parallel()

	now := time.Now()

	_, err := settings.QuietHours{Enabled: true, Start: "25:00", End: "08:00"}.Contains(now)
	assert.ErrorIs(t, err, settings.ErrInvalidClockTime)

	_, err = settings.QuietHours{Enabled: true, Start: "2200", End: "08:00"}.Contains(now)
	assert.ErrorIs(t, err, settings.ErrInvalidClockTime)

	_, err = settings.QuietHours{Enabled: true, Start: "22:00", End: "08:00", Timezone: "Mars/Olympus"}.Contains(now)
	assert.ErrorIs(t, err, settings.ErrInvalidTimezone)
}

func TestMemoryStore_GetOrCreate(t *testing.T) {
	t.Parallel()

	store := settings.NewMemoryStore()
	ctx := context.Background()

	created, err := store.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", created.UserID)
	assert.True(t, created.Email.Enabled)
	assert.Equal(t, settings.FrequencyImmediate, created.Push.Frequency)
	assert.False(t, created.SMS.Enabled)
	assert.True(t, created.InApp.Enabled)
	assert.False(t, created.QuietHours.Enabled)

	// Mutations to the returned copy must not leak into the store.
	created.Push.Enabled = false

	again, err := store.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, again.Push.Enabled)
	assert.Equal(t, created.CreatedAt, again.CreatedAt)

	_, err = store.GetOrCreate(ctx, "")
	assert.ErrorIs(t, err, settings.ErrUserIDEmpty)
}

func TestMemoryStore_ListDigestUsers(t *testing.T) {
	t.Parallel()

	store := settings.NewMemoryStore()
	ctx := context.Background()

	dailyDigest, err := store.GetOrCreate(ctx, "daily-user")
	require.NoError(t, err)
	dailyDigest.Email.Frequency = settings.FrequencyDigest
	dailyDigest.Digest.Frequency = settings.CadenceDaily
	require.NoError(t, store.Update(ctx, dailyDigest))

	weeklyDigest, err := store.GetOrCreate(ctx, "weekly-user")
	require.NoError(t, err)
	weeklyDigest.Push.Frequency = settings.FrequencyDigest
	weeklyDigest.Digest.Frequency = settings.CadenceWeekly
	require.NoError(t, store.Update(ctx, weeklyDigest))

	// Daily cadence configured but no channel actually set to digest.
	_, err = store.GetOrCreate(ctx, "immediate-user")
	require.NoError(t, err)

	daily, err := store.ListDigestUsers(ctx, settings.CadenceDaily)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "daily-user", daily[0].UserID)

	weekly, err := store.ListDigestUsers(ctx, settings.CadenceWeekly)
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, "weekly-user", weekly[0].UserID)

	_, err = store.ListDigestUsers(ctx, "hourly")
	assert.ErrorIs(t, err, settings.ErrInvalidCadence)
}
