package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency controls when a channel delivers.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDigest    Frequency = "digest"
	FrequencyOff       Frequency = "off"
)

// Cadence is how often digest delivery runs for a user.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// Valid reports whether the cadence is one of the known values.
func (c Cadence) Valid() bool {
	return c == CadenceDaily || c == CadenceWeekly
}

// ChannelPreference is a user's preference for one outbound channel.
type ChannelPreference struct {
	Enabled   bool      `bson:"enabled"   json:"enabled"`
	Frequency Frequency `bson:"frequency" json:"frequency"`
}

// InAppPreference has no frequency: in-app records are always written
// immediately when the channel is on.
type InAppPreference struct {
	Enabled bool `bson:"enabled" json:"enabled"`
}

// QuietHours is a daily window during which non-critical push and sms are
// suppressed. Start and End are "HH:MM" in the user's timezone; Start > End
// means the window crosses midnight.
type QuietHours struct {
	Enabled  bool   `bson:"enabled"  json:"enabled"`
	Start    string `bson:"start"    json:"start"`
	End      string `bson:"end"      json:"end"`
	Timezone string `bson:"timezone" json:"timezone"`
}

// DigestSettings controls when aggregated delivery runs.
type DigestSettings struct {
	Time      string  `bson:"time"      json:"time"`
	Frequency Cadence `bson:"frequency" json:"frequency"`
}

// Setting is the full preference document for one user.
type Setting struct {
	UserID     string            `bson:"_id"         json:"userId"`
	Email      ChannelPreference `bson:"email"       json:"email"`
	Push       ChannelPreference `bson:"push"        json:"push"`
	SMS        ChannelPreference `bson:"sms"         json:"sms"`
	InApp      InAppPreference   `bson:"in_app"      json:"inApp"`
	QuietHours QuietHours        `bson:"quiet_hours" json:"quietHours"`
	Digest     DigestSettings    `bson:"digest"      json:"digest"`
	Topics     map[string]bool   `bson:"topics,omitempty" json:"topics,omitempty"`
	CreatedAt  time.Time         `bson:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time         `bson:"updated_at"  json:"updatedAt"`
}

// Defaults returns the Setting auto-created on a user's first access.
func Defaults(userID string) *Setting {
	return &Setting{
		UserID: userID,
		Email:  ChannelPreference{Enabled: true, Frequency: FrequencyImmediate},
		Push:   ChannelPreference{Enabled: true, Frequency: FrequencyImmediate},
		SMS:    ChannelPreference{Enabled: false, Frequency: FrequencyOff},
		InApp:  InAppPreference{Enabled: true},
		QuietHours: QuietHours{
			Enabled:  false,
			Start:    "22:00",
			End:      "08:00",
			Timezone: "UTC",
		},
		Digest: DigestSettings{
			Time:      "09:00",
			Frequency: CadenceDaily,
		},
	}
}

// WantsDigest reports whether any channel of this user delivers via digest.
func (s *Setting) WantsDigest() bool {
	return s.Email.Frequency == FrequencyDigest ||
		s.Push.Frequency == FrequencyDigest ||
		s.SMS.Frequency == FrequencyDigest
}

// parseClock converts "HH:MM" to a minute offset from midnight.
func parseClock(value string) (int, error) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	return hour*60 + minute, nil
}

// Contains reports whether the given instant falls inside the quiet window.
// The instant is converted to the configured timezone and compared as a
// minute offset against [start, end). A start after the end means the window
// wraps past midnight. A disabled or zero-length window contains nothing.
func (q QuietHours) Contains(at time.Time) (bool, error) {
	if !q.Enabled {
		return false, nil
	}

	loc := time.UTC
	if q.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(q.Timezone)
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrInvalidTimezone, q.Timezone)
		}
	}

	start, err := parseClock(q.Start)
	if err != nil {
		return false, err
	}
	end, err := parseClock(q.End)
	if err != nil {
		return false, err
	}
	if start == end {
		return false, nil
	}

	local := at.In(loc)
	current := local.Hour()*60 + local.Minute()

	if start < end {
		return current >= start && current < end, nil
	}
	// Overnight window, e.g. 22:00 to 08:00.
	return current >= start || current < end, nil
}
