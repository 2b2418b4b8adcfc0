// Licensed to the valtron authors under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. The valtron authors license this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package valtron

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Default back-off parameters from spec.md §4.5/§4.6: factor 6, jitter
// 0.75, clamped to [1ms, 1s].
const (
	DefaultBackoffFactor = 6.0
	DefaultBackoffJitter = 0.75
	DefaultBackoffMin    = time.Millisecond
	DefaultBackoffMax    = time.Second
)

// Backoff computes exponential back-off durations with symmetric jitter,
// clamped after jitter is applied so it can never underflow below Min or
// overflow above Max. Safe for concurrent use: each Backoff owns its own
// seeded *rand.Rand and attempt counter, both guarded by a mutex.
type Backoff struct {
	Factor float64
	Jitter float64
	Min    time.Duration
	Max    time.Duration

	mu      sync.Mutex
	rng     *rand.Rand
	attempt int
}

// NewBackoff builds a Backoff with the default parameters, seeded
// deterministically from seed.
func NewBackoff(seed uint64) *Backoff {
	return &Backoff{
		Factor: DefaultBackoffFactor,
		Jitter: DefaultBackoffJitter,
		Min:    DefaultBackoffMin,
		Max:    DefaultBackoffMax,
		rng:    rand.New(rand.NewPCG(seed, seed)),
	}
}

// Next computes the delay for the current attempt, clamps it to
// [Min, Max], and advances the attempt counter.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.attempt
	b.attempt++

	raw := float64(b.Min) * math.Pow(b.Factor, float64(n))
	jitter := b.jitter()
	raw *= jitter

	d := time.Duration(raw)
	if d < b.Min {
		d = b.Min
	}
	if d > b.Max {
		d = b.Max
	}
	return d
}

// jitter returns a value in [1-Jitter, 1+Jitter].
func (b *Backoff) jitter() float64 {
	if b.Jitter <= 0 {
		return 1
	}
	r := b.rng.Float64()*2 - 1 // [-1, 1)
	return 1 + r*b.Jitter
}

// Reset zeroes the attempt counter, e.g. after progress was observed.
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.attempt = 0
	b.mu.Unlock()
}

// Attempt reports the number of Next calls since construction or the last
// Reset.
func (b *Backoff) Attempt() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempt
}
