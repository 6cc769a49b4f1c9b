package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultChannelCapacity = 1024
	dropLogInterval        = 5 * time.Second
)

// Channel is the delivery channel between the producing job goroutine and the
// single consuming observer. Push never blocks the producer: non-terminal
// events are dropped with a rate-limited warning when the buffer is full, and
// terminal events evict the oldest buffered event to guarantee delivery.
type Channel struct {
	mu     sync.Mutex
	events chan Event

	capacity    int
	logger      *zap.Logger
	dropLimiter rateLimiter
	dropped     atomic.Int64
}

// NewChannel builds a Channel. capacity <= 0 selects the default.
func NewChannel(capacity int, logger *zap.Logger) *Channel {
	if capacity <= 0 {
		capacity = defaultChannelCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		events:      make(chan Event, capacity),
		capacity:    capacity,
		logger:      logger,
		dropLimiter: rateLimiter{interval: dropLogInterval},
	}
}

// Push enqueues an event for the observer in production order.
func (c *Channel) Push(evt Event) {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()

	if evt.Terminal() {
		// A terminal event must reach the observer; make room by evicting
		// the oldest buffered event rather than blocking the job goroutine.
		for {
			select {
			case events <- evt:
				return
			default:
			}
			select {
			case <-events:
			default:
			}
		}
	}

	select {
	case events <- evt:
	default:
		c.dropped.Add(1)
		if c.dropLimiter.Allow(time.Now()) {
			count := c.dropped.Swap(0)
			c.logger.Warn("progress events dropped due to backpressure", zap.Int64("dropped", count))
		}
	}
}

// Reset discards all undelivered events. It is called once at job start,
// before the job goroutine produces anything, so a new job's observer never
// sees stale events from a prior abandoned stream. A stale observer still
// blocked in Receive against the old buffer sees no further events; with at
// most one observer expected this race is documented rather than serialized.
func (c *Channel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = make(chan Event, c.capacity)
}

// Receive blocks until an event is available or timeout elapses, in which
// case it synthesizes a heartbeat frame without consuming a real event. The
// caller loops until it observes a terminal event.
func (c *Channel) Receive(timeout time.Duration) Event {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case evt := <-events:
		return evt
	case <-timer.C:
		return Heartbeat()
	}
}

type rateLimiter struct {
	interval time.Duration
	last     atomic.Int64
}

func (r *rateLimiter) Allow(now time.Time) bool {
	if r == nil || r.interval <= 0 {
		return true
	}
	nano := now.UnixNano()
	last := r.last.Load()
	if nano-last < r.interval.Nanoseconds() {
		return false
	}
	return r.last.CompareAndSwap(last, nano)
}
