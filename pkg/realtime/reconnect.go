package realtime

import (
	"time"

	"github.com/agentstation/homewire/pkg/constants"
)

// ReconnectPolicy is a fixed-delay, bounded retry policy. A reconnect is
// scheduled Delay after each close, at most MaxAttempts times in a row
// without a successful open. MaxAttempts of zero disables reconnection.
type ReconnectPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

// DefaultReconnectPolicy returns 10 attempts spaced 5 seconds apart.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Delay:       constants.ReconnectDelay,
		MaxAttempts: constants.MaxReconnectAttempts,
	}
}

// Clock schedules reconnect timers. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

// SystemClock schedules with time.AfterFunc.
type SystemClock struct{}

// AfterFunc implements Clock.
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// reconnectTask is the handle of the single pending reconnect. The id lets
// the event loop ignore a fire from a timer that was already replaced.
type reconnectTask struct {
	id    uint64
	timer Timer
}

// schedule replaces any pending reconnect with a new one firing after the
// policy delay. Must be called from the event loop.
func (c *Client) schedule() {
	c.cancelPending()
	c.taskSeq++
	id := c.taskSeq
	c.pending = &reconnectTask{
		id: id,
		timer: c.clock.AfterFunc(c.policy.Delay, func() {
			c.post(timerFired{id: id})
		}),
	}
}

// cancelPending stops the pending reconnect, if any. Must be called from
// the event loop.
func (c *Client) cancelPending() {
	if c.pending == nil {
		return
	}
	c.pending.timer.Stop()
	c.pending = nil
}

// onTimer starts a connection attempt if id names the pending task.
func (c *Client) onTimer(id uint64) {
	if c.pending == nil || c.pending.id != id {
		c.logger.Debug().Uint64("task", id).Msg("Ignoring stale reconnect timer")
		return
	}
	c.pending = nil
	c.connect()
}

// onClosed publishes DISCONNECTED and schedules the next attempt unless the
// budget is spent, in which case ERROR is published and nothing is scheduled.
func (c *Client) onClosed() {
	c.status.set(StatusDisconnected)

	if c.attempts >= c.policy.MaxAttempts {
		c.logger.Error().
			Int("attempts", c.attempts).
			Str("endpoint", c.url).
			Msg("Max reconnect attempts reached, giving up")
		c.status.set(StatusError)
		return
	}

	c.attempts++
	c.logger.Info().
		Int("attempt", c.attempts).
		Int("max_attempts", c.policy.MaxAttempts).
		Dur("delay", c.policy.Delay).
		Msg("Scheduling reconnect")
	c.schedule()
}
