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
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SingleEngine runs every ExecutionIterator on the calling goroutine: one
// EntryList, one local queue, one Sleepers heap, no stealing. It still
// drains a BroadcastQueue so that goroutines outside the run loop (e.g. a
// caller building up work concurrently with RunUntilComplete) have a
// thread-safe way to hand in new work.
type SingleEngine struct {
	name string

	entries  *EntryList
	local    *LocalQueue
	global   *BroadcastQueue
	sleepers *Sleepers
	idle     *IdleMan

	// spawnBackoff paces the next step of an entry whose Spawn action was
	// rejected (StateSpawnFailed), independent of the idle/backoff state
	// used between scheduling rounds.
	spawnBackoff *Backoff

	priority PriorityOrder
	stats    *EngineStatistics
	kill     *OnSignal
	handle   *EngineHandle
}

// NewSingleEngine builds a SingleEngine. seed deterministically drives both
// the idle backoff and the spawn-retry backoff (spec.md's supplemented
// "deterministic PRNG seed" feature). globalCapacity <= 0 makes the
// broadcast queue unbounded. reg may be nil.
func NewSingleEngine(name string, seed uint64, priority PriorityOrder, globalCapacity int, reg prometheus.Registerer) *SingleEngine {
	e := &SingleEngine{
		name:         name,
		entries:      NewEntryList(),
		local:        NewLocalQueue(),
		global:       NewBroadcastQueue(globalCapacity),
		sleepers:     NewSleepers(),
		idle:         NewIdleMan(seed),
		spawnBackoff: NewBackoff(seed),
		priority:     priority,
		stats:        NewEngineStatistics(reg, name),
		kill:         NewOnSignal(),
	}
	e.handle = &EngineHandle{eng: e}
	return e
}

// KillSignal returns the engine's shared OnSignal, so external code (e.g. a
// SIGINT handler) can request orderly shutdown without reaching into engine
// internals.
func (e *SingleEngine) KillSignal() *OnSignal { return e.kill }

// Stats returns the engine's Prometheus statistics.
func (e *SingleEngine) Stats() *EngineStatistics { return e.stats }

// Spawn registers iter as a new top-level entry and schedules its first
// step on the local queue, returning its Entry handle. Spawn must only be
// called from the same goroutine that drives RunOnce/RunUntilComplete: the
// EntryList and local queue it touches directly are not safe for concurrent
// use. Callers handing in work from another goroutine should use Submit
// instead.
func (e *SingleEngine) Spawn(iter ExecutionIterator) Entry {
	entry := e.entries.Insert(iter, zeroEntry)
	e.local.PushBack(localRunnable(entry))
	e.stats.LiveEntries.Set(float64(e.entries.Len()))
	return entry
}

// Submit enqueues iter on the thread-safe broadcast queue, for the run loop
// to pick up and register on its next round. Unlike Spawn, Submit is safe
// to call from any goroutine.
func (e *SingleEngine) Submit(iter ExecutionIterator) error {
	return e.global.Push(iter)
}

// Idle reports whether the engine has no live entries and nothing queued
// or sleeping: RunUntilComplete's termination condition.
func (e *SingleEngine) Idle() bool {
	return e.entries.Len() == 0 && e.local.Len() == 0 && e.global.Len() == 0 && e.sleepers.Len() == 0
}

// RunOnce advances the schedule by exactly one step, returning false if no
// runnable work was found this round (the caller's cue to consult
// IdleMan-driven back-off, which RunOnce already does internally via
// park/Gosched before returning).
func (e *SingleEngine) RunOnce() bool {
	e.promoteExpiredSleepers()

	r, ok := e.pickNext()
	if !ok {
		e.stats.IdleRounds.Inc()
		directive := e.idle.ProbeIdleRound()
		switch directive.Directive {
		case DirectiveSpin, DirectiveYield:
			runtime.Gosched()
		case DirectiveSleep:
			e.park(directive.Sleep)
		case DirectivePark:
			e.park(0)
		}
		return false
	}

	e.step(r)
	return true
}

// RunUntilComplete runs RunOnce in a loop until the engine goes Idle or its
// kill signal is raised.
func (e *SingleEngine) RunUntilComplete() {
	for !e.kill.Raised() {
		if e.Idle() {
			return
		}
		e.RunOnce()
	}
}

// BlockUntilFinished is the blocking convenience entry point for callers
// that just want to hand in work (via Submit) from other goroutines and
// wait for all of it to drain on this one. It behaves exactly like
// RunUntilComplete: it returns as soon as the engine is Idle or its kill
// signal is raised.
func (e *SingleEngine) BlockUntilFinished() {
	e.RunUntilComplete()
}

// promoteExpiredSleepers moves every entry whose deadline has elapsed back
// onto the local queue.
func (e *SingleEngine) promoteExpiredSleepers() {
	for _, entry := range e.sleepers.PopExpired(time.Now()) {
		e.local.PushBack(localRunnable(entry))
	}
}

// pickNext dequeues the next runnable according to the engine's
// PriorityOrder.
func (e *SingleEngine) pickNext() (runnable, bool) {
	if e.priority == PriorityBottom {
		if r, ok := e.popGlobal(); ok {
			return r, true
		}
		return e.local.PopFront()
	}
	if r, ok := e.local.PopFront(); ok {
		return r, true
	}
	return e.popGlobal()
}

func (e *SingleEngine) popGlobal() (runnable, bool) {
	iter, ok := e.global.Pop()
	if !ok {
		return runnable{}, false
	}
	return freshRunnable(iter), true
}

// park blocks the run loop until new broadcast work arrives, the kill
// signal is raised, or d elapses (d <= 0 instead waits for the next
// Sleepers deadline, or indefinitely if none is pending).
func (e *SingleEngine) park(d time.Duration) {
	e.stats.ParkEvents.Inc()

	var timeoutCh <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeoutCh = timer.C
	} else if dl, ok := e.sleepers.NextDeadline(); ok {
		wait := time.Until(dl)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-e.global.Wake():
	case <-timeoutCh:
	case <-e.kill.Done():
	}
}

// step resolves r to a live (Entry, ExecutionIterator) pair, steps it once,
// and routes the StepResult per the status->state table in spec.md §4.1.
func (e *SingleEngine) step(r runnable) {
	var entry Entry
	var iter ExecutionIterator
	if r.fresh {
		entry = e.entries.Insert(r.iter, zeroEntry)
		iter = r.iter
		e.stats.LiveEntries.Set(float64(e.entries.Len()))
	} else {
		got, ok := e.entries.Get(r.entry)
		if !ok {
			// Stale reschedule of an already-retired entry: drop it.
			return
		}
		entry, iter = r.entry, got
	}

	res := iter.Step(entry, e.handle)

	switch res.State() {
	case StateProgressed:
		e.idle.ResetProgress()
		e.stats.StepsProgressed.Inc()
		e.local.PushBack(localRunnable(entry))
	case StatePending:
		e.stats.StepsPending.Inc()
		if d, ok := res.Delay(); ok {
			e.sleepers.Insert(entry, time.Now().Add(d))
		} else {
			e.local.PushBack(localRunnable(entry))
		}
	case StateSpawnFinished:
		e.idle.ResetProgress()
		e.stats.SpawnFinished.Inc()
		e.local.PushBack(localRunnable(entry))
	case StateSpawnFailed:
		e.stats.SpawnFailed.Inc()
		e.sleepers.Insert(entry, time.Now().Add(e.spawnBackoff.Next()))
	case StatePanicked:
		e.stats.TasksPanicked.Inc()
		e.retire(entry)
	case StateDone:
		e.stats.TasksDone.Inc()
		e.retire(entry)
	}
}

// retire permanently removes entry from the EntryList and any pending
// Sleepers registration.
func (e *SingleEngine) retire(entry Entry) {
	e.entries.Remove(entry)
	e.sleepers.Remove(entry)
	e.stats.LiveEntries.Set(float64(e.entries.Len()))
}

// applyAction implements applier on behalf of Task Spawn actions dispatched
// through an EngineHandle during Step.
func (e *SingleEngine) applyAction(caller Entry, action ExecutionAction) error {
	switch action.Kind() {
	case ActionNone:
		return nil
	case ActionSchedule:
		e.local.PushBack(freshRunnable(action.Iterator()))
		return nil
	case ActionBroadcast:
		return e.global.Push(action.Iterator())
	case ActionLift:
		parentIter, ok := e.entries.Get(caller)
		if !ok {
			return ErrEntryNotFound
		}
		wrapped := NewDependentLifted(parentIter, action.Iterator())
		if !e.entries.Replace(caller, wrapped) {
			return ErrEntryNotFound
		}
		return nil
	default:
		return nil
	}
}
