package network

import "time"

// Backoff is a doubling delay schedule with a ceiling
type Backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

// NewBackoff creates a schedule starting at base and capped at ceiling
func NewBackoff(base, ceiling time.Duration) *Backoff {
	if ceiling < base {
		ceiling = base
	}
	return &Backoff{base: base, max: ceiling}
}

// Next returns the next delay
func (b *Backoff) Next() time.Duration {
	switch {
	case b.current == 0:
		b.current = b.base
	case b.current < b.max:
		b.current *= 2
	}
	if b.current > b.max {
		b.current = b.max
	}
	return b.current
}

// Reset restarts the schedule at base
func (b *Backoff) Reset() {
	b.current = 0
}
