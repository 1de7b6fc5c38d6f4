package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"golang.org/x/time/rate"
)

// Delivery outcomes reported to a DeliveryObserver.
const (
	OutcomeSent     = "sent"
	OutcomeRetry    = "retry"
	OutcomeDropped  = "dropped"
	OutcomeFallback = "sync_fallback"
)

type DeliveryObserver interface {
	ObserveDelivery(outcome string)
}

type QueueConfig struct {
	BufferSize     int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
	MaxAttempts    int
	// RatePerSecond caps sends to the relay; zero disables pacing.
	RatePerSecond float64
	Burst         int
}

func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		BufferSize:     100,
		BaseRetryDelay: time.Second,
		MaxRetryDelay:  time.Minute,
		MaxAttempts:    2,
		Burst:          1,
	}
}

type job struct {
	email     string
	token     string
	expiresAt time.Time
}

// Queue is a Sender that hands messages to a background worker. When the
// buffer is full or the queue is closed it falls back to sending inline.
type Queue struct {
	next     Sender
	cfg      QueueConfig
	log      logging.Logger
	limiter  *rate.Limiter
	observer DeliveryObserver

	mu     sync.RWMutex
	closed bool
	jobs   chan job

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	start  sync.Once
}

func NewQueue(next Sender, cfg QueueConfig, log logging.Logger, observer DeliveryObserver) *Queue {
	d := DefaultQueueConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = d.BufferSize
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = d.BaseRetryDelay
	}
	if cfg.MaxRetryDelay < cfg.BaseRetryDelay {
		cfg.MaxRetryDelay = cfg.BaseRetryDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = d.MaxAttempts
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		next:     next,
		cfg:      cfg,
		log:      log.With("module", "mail_queue"),
		limiter:  limiter,
		observer: observer,
		jobs:     make(chan job, cfg.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start launches the worker. Calling it more than once is harmless.
func (q *Queue) Start() {
	q.start.Do(func() { go q.run() })
}

func (q *Queue) SendVerification(ctx context.Context, email, token string, expiresAt time.Time) error {
	if q.enqueue(job{email: email, token: token, expiresAt: expiresAt}) {
		return nil
	}

	q.log.Warn(ctx, "mail queue unavailable, sending synchronously", "email", maskEmail(email))
	q.observe(OutcomeFallback)
	return q.next.SendVerification(ctx, email, token, expiresAt)
}

func (q *Queue) enqueue(j job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.jobs <- j:
		return true
	default:
		return false
	}
}

// Close stops accepting jobs and waits for the buffered ones to be
// delivered. If ctx ends first, pending retries are abandoned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	q.Start()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for j := range q.jobs {
		q.deliver(j)
	}
}

func (q *Queue) deliver(j job) {
	for attempt := 1; ; attempt++ {
		if q.limiter != nil {
			if err := q.limiter.Wait(q.ctx); err != nil {
				q.drop(j, attempt, err)
				return
			}
		}

		err := q.next.SendVerification(q.ctx, j.email, j.token, j.expiresAt)
		if err == nil {
			q.observe(OutcomeSent)
			return
		}
		if attempt >= q.cfg.MaxAttempts || errors.Is(err, context.Canceled) {
			q.drop(j, attempt, err)
			return
		}

		q.observe(OutcomeRetry)
		delay := Backoff(attempt, q.cfg.BaseRetryDelay, q.cfg.MaxRetryDelay)
		q.log.Warn(q.ctx, "verification email failed, retrying",
			"email", maskEmail(j.email), "attempt", attempt, "delay", delay.String(), "error", err)

		if !sleep(q.ctx, delay) {
			q.drop(j, attempt, q.ctx.Err())
			return
		}
	}
}

func (q *Queue) drop(j job, attempts int, err error) {
	q.observe(OutcomeDropped)
	q.log.Error(q.ctx, "verification email dropped", "email", maskEmail(j.email), "attempts", attempts, "error", err)
}

func (q *Queue) observe(outcome string) {
	if q.observer != nil {
		q.observer.ObserveDelivery(outcome)
	}
}

// Backoff returns base doubled per previous attempt, capped at limit.
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
