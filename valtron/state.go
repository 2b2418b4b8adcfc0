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

import "time"

// State is the engine-level directive an ExecutionIterator returns after a
// step. It never carries a Ready value directly: those are delivered
// out-of-band via the resolver/ReadyValues channel the iterator variant
// was built with.
type State uint8

const (
	// StateProgressed means visible progress was made; reschedule
	// immediately.
	StateProgressed State = iota
	// StatePending means no progress this step. See StepResult.Delay for
	// whether a re-poll deadline was attached.
	StatePending
	// StateSpawnFinished means a spawn action was applied; reschedule
	// immediately.
	StateSpawnFinished
	// StateSpawnFailed means the spawn action was rejected (e.g. the
	// parent entry is gone); reschedule on the slow path.
	StateSpawnFailed
	// StatePanicked means the task panicked during its last poll; the
	// entry is removed and the panic handler, if any, has been invoked.
	StatePanicked
	// StateDone means the task returned false from Poll; the entry is
	// permanently retired.
	StateDone
)

// String renders the State for logging.
func (s State) String() string {
	switch s {
	case StateProgressed:
		return "progressed"
	case StatePending:
		return "pending"
	case StateSpawnFinished:
		return "spawn_finished"
	case StateSpawnFailed:
		return "spawn_failed"
	case StatePanicked:
		return "panicked"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// StepResult is what ExecutionIterator.Step returns: a State plus, for
// StatePending, an optional re-poll deadline, and for StatePanicked the
// recovered panic payload.
type StepResult struct {
	state    State
	delay    time.Duration
	hasDelay bool
	payload  any
}

// State reports the directive.
func (r StepResult) State() State { return r.state }

// Delay reports the re-poll deadline attached to a StatePending result, if
// any. The second return value is false for Pending(None) and for every
// other State.
func (r StepResult) Delay() (time.Duration, bool) { return r.delay, r.hasDelay }

// Progressed reports StateProgressed.
func Progressed() StepResult { return StepResult{state: StateProgressed} }

// PendingNow reports StatePending with no attached deadline
// (Pending(None)).
func PendingNow() StepResult { return StepResult{state: StatePending} }

// PendingFor reports StatePending with a re-poll deadline d from now. A
// non-positive d degrades to PendingNow, matching the spec's "Delayed(0)
// is equivalent to Pending(None)" boundary case.
func PendingFor(d time.Duration) StepResult {
	if d <= 0 {
		return PendingNow()
	}
	return StepResult{state: StatePending, delay: d, hasDelay: true}
}

// SpawnFinished reports StateSpawnFinished.
func SpawnFinished() StepResult { return StepResult{state: StateSpawnFinished} }

// SpawnFailed reports StateSpawnFailed.
func SpawnFailed() StepResult { return StepResult{state: StateSpawnFailed} }

// Panicked reports StatePanicked, carrying the recovered panic payload so
// the engine can forward it on the activity channel (spec.md §4.4's
// `Panicked(thread_id, payload)` event).
func Panicked(payload any) StepResult { return StepResult{state: StatePanicked, payload: payload} }

// Payload returns the recovered panic payload attached to a StatePanicked
// result. The second return value is false for every other State.
func (r StepResult) Payload() (any, bool) { return r.payload, r.state == StatePanicked }

// Done reports StateDone.
func Done() StepResult { return StepResult{state: StateDone} }
