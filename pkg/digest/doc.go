// Package digest aggregates recent notifications into periodic summaries
// for users who prefer digest delivery over real-time dispatch.
//
// Scheduling uses self-rescheduling one-shot timers rather than a cron
// daemon: each cadence computes the delay to its next nominal fire time,
// sleeps it out, runs, and schedules the following occurrence. A per-cadence
// in-progress guard skips (never queues) a run that would overlap the
// previous one.
//
//	mgr, err := digest.NewManager(settingsStore, records, profiles,
//		digest.WithSender(emailSender),
//		digest.WithDailySchedule(digest.DailyAt(9, 0)))
//	mgr.Start(ctx)
//	defer mgr.Stop()
package digest
