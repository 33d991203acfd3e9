package exam

import (
	"fmt"
	"sync"
	"time"
)

// DefaultDuration is the exam length used when none is configured.
const DefaultDuration = 45 * time.Minute

// Countdown is a seconds counter that decrements once per tick and clamps at zero.
// Reaching zero has no side effects.
type Countdown struct {
	mu        sync.Mutex
	remaining int

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewCountdown returns a stopped countdown initialised to d (rounded down to seconds).
func NewCountdown(d time.Duration) *Countdown {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return &Countdown{
		remaining: secs,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins ticking once per second until Stop is called.
func (c *Countdown) Start() {
	c.startOnce.Do(func() {
		ticker := time.NewTicker(time.Second)
		go c.run(ticker.C, ticker.Stop)
	})
}

// startWith drives the countdown from an arbitrary tick source.
func (c *Countdown) startWith(ticks <-chan time.Time) {
	c.startOnce.Do(func() {
		go c.run(ticks, func() {})
	})
}

func (c *Countdown) run(ticks <-chan time.Time, release func()) {
	defer close(c.done)
	defer release()
	for {
		select {
		case <-c.stop:
			return
		case <-ticks:
			c.Tick()
		}
	}
}

// Tick removes one second.
func (c *Countdown) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the clock shows 00:00.
func (c *Countdown) Expired() bool {
	return c.Remaining() == 0
}

// Format renders the remaining time as MM:SS.
func (c *Countdown) Format() string {
	return FormatClock(c.Remaining())
}

// Stop releases the tick source and waits for the ticking goroutine to exit.
// It is safe to call more than once, and on a countdown that never started.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
		started := true
		c.startOnce.Do(func() { started = false })
		if started {
			<-c.done
		}
	})
}

// Stopped reports whether Stop has been called.
func (c *Countdown) Stopped() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// FormatClock renders seconds as zero-padded MM:SS. Minutes are not wrapped at 60.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
