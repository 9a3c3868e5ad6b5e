package adapter

import (
	"context"
	"sync/atomic"
	"time"
)

// ClockNonce issues wall-clock milliseconds, bumped by one whenever the clock
// has not advanced past the previous value. Safe for concurrent use.
type ClockNonce struct {
	now  func() time.Time
	last atomic.Int64
}

// NewClockNonce creates an in-process nonce source
func NewClockNonce() *ClockNonce {
	return &ClockNonce{now: time.Now}
}

// Next returns the next nonce
func (c *ClockNonce) Next(_ context.Context) (int64, error) {
	for {
		last := c.last.Load()
		next := c.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if c.last.CompareAndSwap(last, next) {
			return next, nil
		}
	}
}
