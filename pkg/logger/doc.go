// Package logger provides a configured slog.Logger factory and typed
// attribute helpers shared by all notifykit components.
//
// The factory produces JSON output by default for log aggregation systems;
// text output is available for local development. Attribute helpers keep
// log field names consistent across the pipeline (user_id, event_type,
// channel, message_id and so on).
//
// Usage:
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithAttr(slog.String("service", "notifications")),
//	)
//	log.Info("event published", logger.EventType("content.approved"))
package logger
