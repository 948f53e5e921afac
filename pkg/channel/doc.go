// Package channel implements delivery channel senders for the notification
// pipeline.
//
// A Transport is the external provider boundary (Postmark, SMTP, Firebase
// Cloud Messaging, an SMS gateway). A Sender wraps a Transport with a
// per-channel token bucket: messages are dispatched immediately while
// capacity is available, otherwise they are appended to an in-memory FIFO
// queue drained by a single background loop.
//
// Transport-level failures are not retried here; that responsibility sits
// with the event-level retry in the event bus. Only rate-limit exhaustion is
// retried, by waiting for capacity and re-attempting the queue head.
package channel
