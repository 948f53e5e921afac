// Package notifier turns generic events into per-recipient, per-channel
// notifications.
//
// The Processor resolves the active template for an event, then walks the
// event's target users: it loads (or lazily creates) each user's settings,
// evaluates quiet hours in the user's timezone, renders localized content
// with placeholder substitution, persists a notification record, and fans
// out to the channel senders selected by DetermineChannels.
//
// DetermineChannels is a pure decision function. Quiet-hours and digest
// suppression are applied first; critical-priority escalation is applied
// last and wins wherever the template permits the channel.
//
// Wire the processor to the event bus with Handler:
//
//	proc, err := notifier.New(templates, settingsStore, profiles, records,
//		notifier.WithSender(emailSender),
//		notifier.WithSender(pushSender))
//	bus.Subscribe("user.newFollower", proc.Handler("new-follower"))
package notifier
