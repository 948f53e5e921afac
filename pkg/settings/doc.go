// Package settings stores per-user delivery preferences.
//
// Every user has exactly one Setting, created lazily with defaults on first
// access. A Setting carries per-channel enablement and frequency
// (immediate, digest, or off), quiet hours with timezone-aware overnight
// wraparound, and digest scheduling preferences.
//
// Quiet-hours evaluation is a pure method on QuietHours so dispatch code and
// tests share one implementation:
//
//	setting, err := store.GetOrCreate(ctx, userID)
//	quiet, err := setting.QuietHours.Contains(time.Now())
package settings
