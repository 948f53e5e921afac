package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/contentpulse/notifykit/pkg/logger"
	"github.com/contentpulse/notifykit/pkg/ratelimiter"
)

// Sender dispatches messages through a transport, pacing them with a
// per-channel token bucket. Messages that exceed capacity are queued in
// memory and drained by a single background loop in arrival order.
type Sender struct {
	name      Name
	transport Transport
	limiter   *ratelimiter.Bucket
	logger    *slog.Logger

	mu       sync.Mutex
	queue    []queuedMessage
	draining bool
	closed   bool
	done     chan struct{}
	wg       sync.WaitGroup

	interMessageDelay time.Duration
	minRetryDelay     time.Duration
	now               func() time.Time
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithLogger sets the logger for the Sender.
func WithLogger(log *slog.Logger) SenderOption {
	return func(s *Sender) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithInterMessageDelay sets the pause between drained messages. The delay
// smooths catch-up bursts after a rate-limit window opens.
func WithInterMessageDelay(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d >= 0 {
			s.interMessageDelay = d
		}
	}
}

// WithMinRetryDelay sets the lower bound on the drain loop's wait when the
// limiter defers the queue head.
func WithMinRetryDelay(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.minRetryDelay = d
		}
	}
}

// NewSender creates a rate-limited channel sender.
func NewSender(name Name, transport Transport, limiter *ratelimiter.Bucket, opts ...SenderOption) (*Sender, error) {
	if transport == nil {
		return nil, ErrTransportNil
	}
	if limiter == nil {
		return nil, ErrLimiterNil
	}

	s := &Sender{
		name:              name,
		transport:         transport,
		limiter:           limiter,
		logger:            slog.Default(),
		done:              make(chan struct{}),
		interMessageDelay: 100 * time.Millisecond,
		minRetryDelay:     time.Second,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Name returns the channel name this sender serves.
func (s *Sender) Name() Name {
	return s.name
}

// Send dispatches the message immediately when rate-limit capacity is
// available, otherwise queues it for the background drain loop.
//
// A transport error is returned to the caller without channel-level retry;
// the event-level retry budget owns that failure. A queued message yields
// Result.Queued=true and no error.
func (s *Sender) Send(ctx context.Context, msg Message) (*Result, error) {
	if msg.To == "" {
		return &Result{Success: false, Error: ErrEmptyRecipient.Error()}, ErrEmptyRecipient
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &Result{Success: false, Error: ErrSenderClosed.Error()}, ErrSenderClosed
	}
	s.mu.Unlock()

	res, err := s.limiter.TryConsume(ctx, string(s.name))
	if err != nil {
		// A broken limiter backend must not halt delivery; prefer sending
		// over enforcing the limit.
		s.logger.Warn("rate limiter unavailable, sending without pacing",
			logger.Channel(string(s.name)),
			logger.Error(err))
		return s.dispatch(ctx, msg)
	}

	if res.Allowed {
		return s.dispatch(ctx, msg)
	}

	s.enqueue(msg)
	s.logger.Debug("message queued behind rate limit",
		logger.Channel(string(s.name)),
		slog.Duration("retry_after", res.RetryAfter),
		slog.Int("queue_depth", s.queueLen()))

	return &Result{Queued: true}, nil
}

// QueueDepth reports how many messages are waiting behind the rate limit.
func (s *Sender) QueueDepth() int {
	return s.queueLen()
}

// Close stops the drain loop and rejects further sends. Queued messages that
// have not been dispatched yet are dropped.
func (s *Sender) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	dropped := len(s.queue)
	s.queue = nil
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	if dropped > 0 {
		s.logger.Warn("sender closed with undelivered queued messages",
			logger.Channel(string(s.name)),
			slog.Int("dropped", dropped))
	}
}

func (s *Sender) dispatch(ctx context.Context, msg Message) (*Result, error) {
	id, err := s.transport.Send(ctx, msg)
	if err != nil {
		s.logger.Error("transport send failed",
			logger.Channel(string(s.name)),
			logger.Error(err))
		return &Result{Success: false, Error: err.Error()}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	return &Result{Success: true, MessageID: id}, nil
}

func (s *Sender) enqueue(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, queuedMessage{msg: msg, enqueuedAt: s.now()})

	// Single drain loop per sender; started lazily on first deferral.
	if !s.draining {
		s.draining = true
		s.wg.Add(1)
		go s.drain()
	}
}

func (s *Sender) queueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// drain delivers queued messages in FIFO order. The queue head is retried
// until the limiter admits it; a transport failure drops the message after a
// single attempt; event-level retries own transport errors, not the channel.
func (s *Sender) drain() {
	defer s.wg.Done()

	ctx := context.Background()

	for {
		s.mu.Lock()
		if s.closed || len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		head := s.queue[0]
		s.mu.Unlock()

		res, err := s.limiter.TryConsume(ctx, string(s.name))
		if err != nil {
			s.logger.Warn("rate limiter unavailable during drain",
				logger.Channel(string(s.name)),
				logger.Error(err))
			// Fall through and dispatch: same availability trade-off as Send.
		} else if !res.Allowed {
			wait := max(s.minRetryDelay, res.RetryAfter)
			if !s.sleep(wait) {
				return
			}
			continue
		}

		s.popHead()

		if id, err := s.transport.Send(ctx, head.msg); err != nil {
			s.logger.Error("dropping queued message after transport failure",
				logger.Channel(string(s.name)),
				slog.Duration("queued_for", s.now().Sub(head.enqueuedAt)),
				logger.Error(err))
		} else {
			s.logger.Debug("queued message delivered",
				logger.Channel(string(s.name)),
				logger.MessageID(id),
				slog.Duration("queued_for", s.now().Sub(head.enqueuedAt)))
		}

		if !s.sleep(s.interMessageDelay) {
			return
		}
	}
}

func (s *Sender) popHead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		s.queue = s.queue[1:]
	}
}

// sleep waits for d unless the sender is closed first. Returns false when
// the drain loop should exit.
func (s *Sender) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.done:
		return false
	}
}
