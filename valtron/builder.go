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

// Engine is the subset of SingleEngine/MultiEngine's surface Builder needs:
// the three initial-registration paths a freshly built iterator can take
// (spec.md §4.7's "initial scheduling mode": schedule / broadcast / lift).
type Engine interface {
	// SpawnIterator registers iter on the thread-safe broadcast queue. Safe
	// to call from any goroutine.
	SpawnIterator(iter ExecutionIterator) error
	// ScheduleIterator registers iter directly, bypassing the broadcast
	// queue. Only safe from the goroutine that owns the target queue (the
	// engine's own driving goroutine for SingleEngine; MultiEngine has no
	// such externally addressable affinity and degrades this to broadcast).
	ScheduleIterator(iter ExecutionIterator) error
	// LiftIterator registers iter as a child of the existing entry parent,
	// exactly like a task-initiated Lift action (spec.md §4.1) but invoked
	// from outside a Step. Returns ErrEntryNotFound if parent is not a live
	// entry.
	LiftIterator(parent Entry, iter ExecutionIterator) error
}

// SpawnIterator implements Engine. Unlike Spawn, it is safe to call from
// any goroutine (it goes through the broadcast queue), at the cost of
// deferring entry registration to whichever goroutine drains it.
func (e *SingleEngine) SpawnIterator(iter ExecutionIterator) error {
	return e.Submit(iter)
}

// ScheduleIterator implements Engine by registering iter directly on the
// local queue, same restriction as Spawn: only safe from the goroutine
// driving RunOnce/RunUntilComplete.
func (e *SingleEngine) ScheduleIterator(iter ExecutionIterator) error {
	e.Spawn(iter)
	return nil
}

// LiftIterator implements Engine by routing through the same applyAction
// path a task-initiated Lift uses during Step.
func (e *SingleEngine) LiftIterator(parent Entry, iter ExecutionIterator) error {
	return e.applyAction(parent, Lift(iter))
}

// SpawnIterator implements Engine.
func (m *MultiEngine) SpawnIterator(iter ExecutionIterator) error {
	return m.Spawn(iter)
}

// ScheduleIterator implements Engine. MultiEngine has no externally
// addressable "current worker" the way SingleEngine's own driving goroutine
// is one, so an external Schedule-mode registration degrades to Broadcast:
// iter still lands on a worker's local queue as soon as any worker next
// drains the global queue.
func (m *MultiEngine) ScheduleIterator(iter ExecutionIterator) error {
	return m.Spawn(iter)
}

// LiftIterator implements Engine by finding whichever worker currently owns
// parent and routing through that worker's applyAction, the same path a
// task-initiated Lift uses during Step. Callers are responsible for not
// racing this against parent being retired by its owning worker, e.g. by
// only calling it from within that worker's own Step.
func (m *MultiEngine) LiftIterator(parent Entry, iter ExecutionIterator) error {
	for id, wc := range m.workers {
		if _, ok := wc.entries.Get(parent); ok {
			return m.applyAction(id, parent, Lift(iter))
		}
	}
	return ErrEntryNotFound
}

// ScheduleMode selects where a Builder-registered task's wrapped iterator
// makes its first appearance (spec.md §4.7's "initial scheduling mode").
type ScheduleMode uint8

const (
	// ModeBroadcast registers on the thread-safe global queue. The
	// default: safe to use from any goroutine on either engine.
	ModeBroadcast ScheduleMode = iota
	// ModeSchedule registers directly on a queue, bypassing the broadcast
	// path (see Engine.ScheduleIterator's per-engine caveats).
	ModeSchedule
	// ModeLift registers as a child of an existing Entry set via
	// Builder.WithParent.
	ModeLift
)

// Builder is a small façade over an Engine for registering Task values
// without hand-wrapping them in an ExecutionIterator variant every time. It
// carries the options spec.md §4.7 assigns to a builder: a resolver or
// collector (supplied by spawn/spawn2 themselves, since Go cannot add type
// parameters to a method beyond its receiver's), zero or more status
// mappers, an optional panic handler, an initial scheduling mode, and an
// optional initial delay.
type Builder struct {
	eng          Engine
	panicHandler PanicHandler
	mode         ScheduleMode
	parent       Entry
	delay        time.Duration
}

// NewBuilder wraps eng. panicHandler, if non-nil, is used for every task
// registered through this Builder.
func NewBuilder(eng Engine, panicHandler PanicHandler) *Builder {
	return &Builder{eng: eng, panicHandler: panicHandler, mode: ModeBroadcast}
}

// WithMode selects the initial scheduling mode used by every spawn/spawn2
// call made through b from this point on. ModeLift requires a parent set
// via WithParent.
func (b *Builder) WithMode(mode ScheduleMode) *Builder {
	b.mode = mode
	return b
}

// WithParent sets the Entry a ModeLift registration attaches to as a child.
func (b *Builder) WithParent(parent Entry) *Builder {
	b.parent = parent
	return b
}

// WithInitialDelay defers every task registered through b by d before its
// first real Poll (spec.md §4.7's `schedule_iter(initial_delay)`); Execute
// uses a 1ns delay to force one scheduling round.
func (b *Builder) WithInitialDelay(d time.Duration) *Builder {
	b.delay = d
	return b
}

// register dispatches iter through whichever Engine entry point b.mode
// selects.
func (b *Builder) register(iter ExecutionIterator) error {
	switch b.mode {
	case ModeSchedule:
		return b.eng.ScheduleIterator(iter)
	case ModeLift:
		return b.eng.LiftIterator(b.parent, iter)
	default:
		return b.eng.SpawnIterator(iter)
	}
}

// StatusMapper transforms a TaskStatus before it reaches a resolver or
// Collector, or suppresses it (returning ok == false, modelling spec.md
// §4.7's `Fn(Option<TaskStatus>) -> Option<TaskStatus>`). A suppressed
// status is replaced with a Pending(None) so the task stays alive without
// forwarding anything that round.
type StatusMapper[R, P any] func(status TaskStatus[R, P], ok bool) (TaskStatus[R, P], bool)

// mappedTask applies a chain of StatusMappers, in registration order, to
// every status a wrapped task produces.
type mappedTask[R, P any] struct {
	task    Task[R, P]
	mappers []StatusMapper[R, P]
}

// newMappedTask wraps task with mappers, applied in order. Returns task
// unchanged if mappers is empty.
func newMappedTask[R, P any](task Task[R, P], mappers []StatusMapper[R, P]) Task[R, P] {
	if len(mappers) == 0 {
		return task
	}
	return &mappedTask[R, P]{task: task, mappers: mappers}
}

// Poll implements Task.
func (t *mappedTask[R, P]) Poll() (TaskStatus[R, P], bool) {
	status, alive := t.task.Poll()
	if !alive {
		return status, false
	}
	ok := true
	for _, mapper := range t.mappers {
		status, ok = mapper(status, ok)
	}
	if !ok {
		var zero P
		return TaskStatusPending[R, P](zero), true
	}
	return status, true
}

// delayedTask defers a wrapped task's first real Poll by delay, reporting
// TaskStatusDelayed(delay) once before forwarding every subsequent Poll
// untouched.
type delayedTask[R, P any] struct {
	task    Task[R, P]
	delay   time.Duration
	elapsed bool
}

// newDelayedTask wraps task so its first Poll reports Delayed(delay).
// Returns task unchanged for a non-positive delay.
func newDelayedTask[R, P any](task Task[R, P], delay time.Duration) Task[R, P] {
	if delay <= 0 {
		return task
	}
	return &delayedTask[R, P]{task: task, delay: delay}
}

// Poll implements Task.
func (t *delayedTask[R, P]) Poll() (TaskStatus[R, P], bool) {
	if !t.elapsed {
		t.elapsed = true
		return TaskStatusDelayed[R, P](t.delay), true
	}
	return t.task.Poll()
}

// spawn registers task as a fire-and-forget DoNext: its Ready values are
// handed to resolver (which may be nil to discard them) and otherwise not
// retained. mappers, if any, run in order before resolver sees a status.
func spawn[R, P any](b *Builder, task Task[R, P], resolver func(TaskStatus[R, P]), mappers ...StatusMapper[R, P]) error {
	wrapped := newDelayedTask(newMappedTask(task, mappers), b.delay)
	return b.register(NewDoNext(wrapped, resolver, b.panicHandler))
}

// spawn2 registers task as a CollectNext backed by a fresh Collector, and
// returns a ReadyValues handle the caller can drain or iterate for the
// Ready values task produces over its lifetime. mappers, if any, run in
// order before a status is appended to the Collector.
func spawn2[R, P any](b *Builder, task Task[R, P], mappers ...StatusMapper[R, P]) (*ReadyValues[R], error) {
	wrapped := newDelayedTask(newMappedTask(task, mappers), b.delay)
	out := NewCollector[R]()
	if err := b.register(NewCollectNext(wrapped, out, b.panicHandler)); err != nil {
		return nil, err
	}
	return &ReadyValues[R]{collector: out}, nil
}

// ReadyValues is a pull iterator over the Ready values a spawn2-registered
// task has produced so far. It is safe to read from any goroutine, since it
// is backed by the same mutex-guarded Collector the engine's CollectNext
// wrapper appends into.
type ReadyValues[R any] struct {
	collector *Collector[R]
}

// Next pops the oldest buffered Ready value, if any have arrived since the
// last call. A false result does not mean the task is finished: it means
// nothing new has been produced yet, and the caller should poll again
// later (e.g. after driving the engine another round).
func (v *ReadyValues[R]) Next() (R, bool) {
	return v.collector.Pop()
}

// Drain returns and clears every Ready value buffered so far.
func (v *ReadyValues[R]) Drain() []R {
	return v.collector.Drain()
}

// Len reports how many Ready values are currently buffered and unread.
func (v *ReadyValues[R]) Len() int {
	return v.collector.Len()
}
