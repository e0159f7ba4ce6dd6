/*
 * Copyright (c) 2024 Gates Solutions LLC.
 *
 *      This file is part of podpingd.
 *
 *     podpingd is free software: you can redistribute it and/or modify it under the terms of the GNU Lesser General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
 *
 *     podpingd is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser General Public License for more details.
 *
 *     You should have received a copy of the GNU Lesser General Public License along with podpingd. If not, see <https://www.gnu.org/licenses/>.
 */

// Package retry implements the exponential backoff described in §4.1 of
// the spec: base 500ms, cap 30s, jitter +/-20%, unbounded attempts.
package retry

import (
	"context"
	"math/rand"
	"time"
)

const (
	BaseDelay = 500 * time.Millisecond
	MaxDelay  = 30 * time.Second
	Jitter    = 0.2
)

// Backoff computes successive retry delays for an unbounded retry loop.
type Backoff struct {
	attempt int
}

// NewBackoff returns a fresh backoff sequence starting at BaseDelay.
func NewBackoff() *Backoff {
	return &Backoff{}
}

// Next returns the delay to wait before the next attempt and advances the
// sequence. It never returns a negative duration and never exceeds MaxDelay
// plus its jitter margin.
func (b *Backoff) Next() time.Duration {
	delay := BaseDelay << uint(b.attempt)
	if delay <= 0 || delay > MaxDelay {
		delay = MaxDelay
	}
	b.attempt++

	jitterRange := float64(delay) * Jitter
	offset := (rand.Float64()*2 - 1) * jitterRange
	withJitter := time.Duration(float64(delay) + offset)
	if withJitter < 0 {
		withJitter = 0
	}
	return withJitter
}

// Reset returns the sequence to its initial state, used after a successful
// call so the next failure starts again from BaseDelay.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Do retries fn with exponential backoff until it succeeds or ctx is
// cancelled. This is the "retried indefinitely at the client boundary"
// policy of §4.1 for head_block_num and friends.
func Do(ctx context.Context, fn func() error) error {
	b := NewBackoff()
	for {
		err := fn()
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Next()):
		}
	}
}
