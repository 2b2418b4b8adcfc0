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
	"sync"

	"go.uber.org/atomic"
)

// OnSignal is a one-shot, idempotent "kill signal": an atomic flag paired
// with a channel that closes the first time Raise is called, so waiters
// can select on it alongside other channels instead of polling Raised.
type OnSignal struct {
	raised atomic.Bool
	once   sync.Once
	ch     chan struct{}
}

// NewOnSignal creates a lowered signal.
func NewOnSignal() *OnSignal {
	return &OnSignal{ch: make(chan struct{})}
}

// Raise raises the signal. Safe to call more than once or concurrently;
// only the first call has an effect.
func (s *OnSignal) Raise() {
	if s.raised.CompareAndSwap(false, true) {
		s.once.Do(func() { close(s.ch) })
	}
}

// Raised reports whether Raise has been called.
func (s *OnSignal) Raised() bool { return s.raised.Load() }

// Done returns a channel that is closed once Raise has been called.
func (s *OnSignal) Done() <-chan struct{} { return s.ch }
