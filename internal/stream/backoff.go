package stream

import (
	"math/rand"
	"time"
)

// backoff produces exponentially growing reconnect delays with jitter.
// Each delay is drawn from [d/2, d] where d doubles from base up to max.
type backoff struct {
	base   time.Duration
	cur    time.Duration
	max    time.Duration
	jitter func(n int64) int64 // returns a value in [0, n)
}

func newBackoff(base, max time.Duration) *backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &backoff{base: base, cur: base, max: max, jitter: rand.Int63n}
}

// Next returns the next delay and advances the window.
func (b *backoff) Next() time.Duration {
	d := b.cur
	if b.cur < b.max {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	half := int64(d / 2)
	if half <= 0 {
		return d
	}
	return time.Duration(half + b.jitter(half+1))
}

// Reset restarts the window at base.
func (b *backoff) Reset() {
	b.cur = b.base
}
