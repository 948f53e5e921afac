// Package eventbus provides a durable publish/subscribe core for the
// notification pipeline.
//
// Events are persisted through the Store interface in "pending" state and
// advanced by a single polling loop per Bus instance. Critical and high
// priority events are additionally processed immediately on publish, best
// effort. Handlers for one event run concurrently; events within a polling
// batch are processed strictly sequentially in priority-then-age order.
//
// A failing handler returns the event to "pending" with exponential backoff
// (60s, 120s, 240s); after three attempts the event is marked "failed" with
// its error details recorded. Events are never deleted; completed and failed
// events remain for audit.
//
// Usage:
//
//	bus, err := eventbus.New(store)
//	if err != nil { ... }
//	subID, _ := bus.Subscribe("content.approved", func(ctx context.Context, e *eventbus.Event) error {
//	    // fan out to recipients
//	    return nil
//	})
//	defer bus.Unsubscribe("content.approved", subID)
//
//	if err := bus.Start(ctx); err != nil { ... }
//	defer bus.Stop()
//
//	_, err := bus.Publish(ctx, "content.approved", payload,
//	    eventbus.WithPriority(eventbus.PriorityHigh),
//	    eventbus.WithTargetUsers("u1", "u2"),
//	)
package eventbus
