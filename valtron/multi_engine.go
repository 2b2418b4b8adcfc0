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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// ActivityKind tags the event a ThreadActivity report carries, the six
// kinds a coordinator loop listens for per spec.md §4.4.
type ActivityKind uint8

const (
	// ActivityStarted is sent once, the first event a worker emits after
	// entering its scheduling loop.
	ActivityStarted ActivityKind = iota
	// ActivityStopped is sent once, the last event a worker emits before
	// its scheduling loop returns.
	ActivityStopped
	// ActivityIdle is sent while the worker is in IdleMan's spin/yield
	// stage (no work found, below MaxIdleRounds).
	ActivityIdle
	// ActivitySleepy is sent while the worker is in the exponential
	// back-off stage (above MaxIdleRounds, below MaxSleepyRounds).
	ActivitySleepy
	// ActivitySleeping is sent when the worker parks on its condition
	// variable after MaxSleepyRounds fruitless sleepy rounds.
	ActivitySleeping
	// ActivityPanicked is sent when a task's Poll panicked; Payload carries
	// the recovered value (spec.md §4.4's `Panicked(thread_id, payload)`).
	ActivityPanicked
)

// String renders the ActivityKind for logging.
func (k ActivityKind) String() string {
	switch k {
	case ActivityStarted:
		return "started"
	case ActivityStopped:
		return "stopped"
	case ActivityIdle:
		return "idle"
	case ActivitySleepy:
		return "sleepy"
	case ActivitySleeping:
		return "sleeping"
	case ActivityPanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// ThreadActivity is one worker's liveness report, drained off MultiEngine's
// Activity channel. Seq is a monotonic per-worker counter so a coordinator
// can detect a stale or duplicate report after a worker slot restarts
// (spec.md's supplemented "ThreadActivity carries a monotonic sequence
// number" feature). Payload is only set for ActivityPanicked.
type ThreadActivity struct {
	WorkerID int
	Seq      uint64
	Kind     ActivityKind
	Payload  any
}

// workerCore is the private, single-goroutine-owned scheduling state for
// one multi-engine worker: its own EntryList, local queue, Sleepers and
// idle/back-off state machines, exactly mirroring SingleEngine's fields but
// scoped to this worker alone (spec.md §5: "per-worker" EntryList
// ownership).
type workerCore struct {
	id int

	entries      *EntryList
	local        *LocalQueue
	sleepers     *Sleepers
	idle         *IdleMan
	spawnBackoff *Backoff
	kill         *OnSignal
	handle       *EngineHandle

	seq uint64
}

// workerApplier adapts a single worker's applyAction into the applier
// interface an EngineHandle closes over, so Step never needs to know it is
// talking to a multi-thread engine rather than a single-thread one.
type workerApplier struct {
	m  *MultiEngine
	id int
}

func (w workerApplier) applyAction(caller Entry, action ExecutionAction) error {
	return w.m.applyAction(w.id, caller, action)
}

// MultiEngine runs a fixed pool of persistent worker goroutines sharing one
// BroadcastQueue, each with its own local queue and EntryList, stealing
// work from siblings' local queues when its own and the broadcast queue run
// dry (spec.md §4.4). Adapted from lindb's internal/concurrent worker pool:
// unlike that pool's elastic, per-task goroutine model, a MultiEngine's
// worker count is fixed for the engine's lifetime and each worker runs a
// cooperative scheduling loop rather than one-shot task handlers.
type MultiEngine struct {
	name     string
	workers  []*workerCore
	global   *BroadcastQueue
	priority PriorityOrder
	stats    *EngineStatistics

	kill    *OnSignal
	started atomic.Bool
	stopped atomic.Bool

	activity chan ThreadActivity

	group *errgroup.Group
	ready sync.WaitGroup
}

// NewMultiEngine builds a MultiEngine with threadCount persistent workers
// (clamped to at least 1). seed deterministically seeds every worker's idle
// back-off and spawn-retry back-off, offset per worker so their jitter
// streams diverge. globalCapacity <= 0 makes the broadcast queue unbounded.
// reg may be nil.
func NewMultiEngine(name string, seed uint64, threadCount int, priority PriorityOrder, globalCapacity int, reg prometheus.Registerer) *MultiEngine {
	if threadCount < 1 {
		threadCount = 1
	}
	m := &MultiEngine{
		name:     name,
		global:   NewBroadcastQueue(globalCapacity),
		priority: priority,
		stats:    NewEngineStatistics(reg, name),
		kill:     NewOnSignal(),
		activity: make(chan ThreadActivity, threadCount*4),
	}
	m.workers = make([]*workerCore, threadCount)
	for i := 0; i < threadCount; i++ {
		wc := &workerCore{
			id:           i,
			entries:      NewEntryList(),
			local:        NewLocalQueue(),
			sleepers:     NewSleepers(),
			idle:         NewIdleMan(seed + uint64(i)),
			spawnBackoff: NewBackoff(seed + uint64(i)),
			kill:         NewOnSignal(),
		}
		wc.handle = &EngineHandle{eng: workerApplier{m: m, id: i}}
		m.workers[i] = wc
	}
	return m
}

// ThreadCount reports the number of persistent workers.
func (m *MultiEngine) ThreadCount() int { return len(m.workers) }

// KillSignal returns the engine-wide OnSignal; raising it stops every
// worker. Each worker also carries its own OnSignal (not exported), so a
// future extension could stop a single worker slot independently without
// disturbing the rest of the pool.
func (m *MultiEngine) KillSignal() *OnSignal { return m.kill }

// Stats returns the engine's Prometheus statistics.
func (m *MultiEngine) Stats() *EngineStatistics { return m.stats }

// Activity returns the channel ThreadActivity reports are published on.
// Reports are best-effort: a full channel drops the report rather than
// blocking a worker's scheduling loop.
func (m *MultiEngine) Activity() <-chan ThreadActivity { return m.activity }

// Spawn enqueues iter on the shared broadcast queue, the only
// concurrency-safe entry point into a running MultiEngine: whichever
// worker next drains the global queue registers iter under its own
// EntryList and becomes its owner.
func (m *MultiEngine) Spawn(iter ExecutionIterator) error {
	return m.global.Push(iter)
}

// AllIdle reports whether every worker has no live entries and nothing
// queued or sleeping, and the broadcast queue is empty.
func (m *MultiEngine) AllIdle() bool {
	if m.global.Len() != 0 {
		return false
	}
	for _, wc := range m.workers {
		if wc.entries.Len() != 0 || wc.local.Len() != 0 || wc.sleepers.Len() != 0 {
			return false
		}
	}
	return true
}

// Start launches every worker goroutine and blocks until all of them have
// entered their scheduling loop (the "latch" in spec.md §4.4's component
// list), so a caller that Spawns work immediately after Start returns never
// races worker bring-up. Calling Start more than once is a no-op.
func (m *MultiEngine) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	var g errgroup.Group
	m.group = &g
	m.ready.Add(len(m.workers))
	for i := range m.workers {
		id := i
		g.Go(func() error {
			m.ready.Done()
			m.runWorker(id)
			return nil
		})
	}
	m.ready.Wait()
}

// Stop raises the kill signal for the engine and every worker, then blocks
// until all worker goroutines have exited. Calling Stop more than once is a
// no-op. Calling it before Start raises the kill signals without waiting on
// anything, so workers launched by a later Start exit at once.
func (m *MultiEngine) Stop() {
	if !m.stopped.CompareAndSwap(false, true) {
		return
	}
	m.kill.Raise()
	for _, wc := range m.workers {
		wc.kill.Raise()
	}
	if m.group != nil {
		_ = m.group.Wait()
	}
}

// runWorker is the persistent scheduling loop one worker goroutine runs for
// the engine's whole lifetime.
func (m *MultiEngine) runWorker(id int) {
	wc := m.workers[id]
	m.reportActivity(wc, ActivityStarted, nil)
	defer m.reportActivity(wc, ActivityStopped, nil)

	for {
		if m.kill.Raised() || wc.kill.Raised() {
			return
		}

		m.promoteExpiredSleepers(wc)

		r, ok := m.pickNext(wc)
		if !ok {
			if stolen, ok := m.steal(id); ok {
				m.step(wc, stolen)
				continue
			}

			m.stats.IdleRounds.Inc()
			directive := wc.idle.ProbeIdleRound()
			switch directive.Directive {
			case DirectiveSpin, DirectiveYield:
				m.reportActivity(wc, ActivityIdle, nil)
				runtime.Gosched()
			case DirectiveSleep:
				m.reportActivity(wc, ActivitySleepy, nil)
				m.park(wc, directive.Sleep)
			case DirectivePark:
				m.reportActivity(wc, ActivitySleeping, nil)
				m.park(wc, 0)
			}
			continue
		}

		m.step(wc, r)
	}
}

func (m *MultiEngine) reportActivity(wc *workerCore, kind ActivityKind, payload any) {
	wc.seq++
	report := ThreadActivity{WorkerID: wc.id, Seq: wc.seq, Kind: kind, Payload: payload}
	select {
	case m.activity <- report:
	default:
	}
}

func (m *MultiEngine) promoteExpiredSleepers(wc *workerCore) {
	for _, entry := range wc.sleepers.PopExpired(time.Now()) {
		wc.local.PushBack(localRunnable(entry))
	}
}

func (m *MultiEngine) pickNext(wc *workerCore) (runnable, bool) {
	if m.priority == PriorityBottom {
		if r, ok := m.popGlobal(); ok {
			return r, true
		}
		return wc.local.PopFront()
	}
	if r, ok := wc.local.PopFront(); ok {
		return r, true
	}
	return m.popGlobal()
}

func (m *MultiEngine) popGlobal() (runnable, bool) {
	iter, ok := m.global.Pop()
	if !ok {
		return runnable{}, false
	}
	return freshRunnable(iter), true
}

// steal looks for a sibling worker with queued local work, taking half of
// it (LocalQueue.StealBatch's own floor-1 rule), keeping the fresh
// runnables of that batch on id's own local queue and returning one of them
// to step immediately; rescheduled entries in the batch are pushed back onto
// the victim's queue, since only the victim's EntryList can resolve them.
// Siblings are tried in
// round-robin order starting just after id, a simple fixed fairness policy
// rather than a randomized victim choice.
func (m *MultiEngine) steal(id int) (runnable, bool) {
	n := len(m.workers)
	if n < 2 {
		return runnable{}, false
	}
	for i := 1; i < n; i++ {
		victim := (id + i) % n
		batch := m.workers[victim].local.StealBatch()
		var fresh []runnable
		for _, rr := range batch {
			if rr.fresh {
				fresh = append(fresh, rr)
				continue
			}
			// A rescheduled entry lives in the victim's own EntryList, so it
			// goes back onto the victim's queue.
			m.workers[victim].local.PushBack(rr)
		}
		if len(fresh) == 0 {
			continue
		}
		m.stats.StealBatches.Inc()
		m.stats.StolenRunnables.Add(float64(len(fresh)))

		wc := m.workers[id]
		for _, rr := range fresh[1:] {
			wc.local.PushBack(rr)
		}
		return fresh[0], true
	}
	return runnable{}, false
}

func (m *MultiEngine) park(wc *workerCore, d time.Duration) {
	m.stats.ParkEvents.Inc()

	var timeoutCh <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeoutCh = timer.C
	} else if dl, ok := wc.sleepers.NextDeadline(); ok {
		wait := time.Until(dl)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-m.global.Wake():
	case <-timeoutCh:
	case <-m.kill.Done():
	case <-wc.kill.Done():
	}
}

// step resolves r against wc's own EntryList, steps it once, and routes
// the StepResult exactly as SingleEngine.step does, but against this
// worker's private state.
func (m *MultiEngine) step(wc *workerCore, r runnable) {
	var entry Entry
	var iter ExecutionIterator
	if r.fresh {
		entry = wc.entries.Insert(r.iter, zeroEntry)
		iter = r.iter
	} else {
		got, ok := wc.entries.Get(r.entry)
		if !ok {
			return
		}
		entry, iter = r.entry, got
	}

	res := iter.Step(entry, wc.handle)

	switch res.State() {
	case StateProgressed:
		wc.idle.ResetProgress()
		m.stats.StepsProgressed.Inc()
		wc.local.PushBack(localRunnable(entry))
	case StatePending:
		m.stats.StepsPending.Inc()
		if d, ok := res.Delay(); ok {
			wc.sleepers.Insert(entry, time.Now().Add(d))
		} else {
			wc.local.PushBack(localRunnable(entry))
		}
	case StateSpawnFinished:
		wc.idle.ResetProgress()
		m.stats.SpawnFinished.Inc()
		wc.local.PushBack(localRunnable(entry))
	case StateSpawnFailed:
		m.stats.SpawnFailed.Inc()
		wc.sleepers.Insert(entry, time.Now().Add(wc.spawnBackoff.Next()))
	case StatePanicked:
		m.stats.TasksPanicked.Inc()
		payload, _ := res.Payload()
		m.reportActivity(wc, ActivityPanicked, payload)
		wc.entries.Remove(entry)
		wc.sleepers.Remove(entry)
	case StateDone:
		m.stats.TasksDone.Inc()
		wc.entries.Remove(entry)
		wc.sleepers.Remove(entry)
	}
	m.stats.LiveEntries.Set(float64(wc.entries.Len()))
}

// applyAction implements the per-worker applier dispatched to by
// workerApplier on behalf of Task Spawn actions.
func (m *MultiEngine) applyAction(workerID int, caller Entry, action ExecutionAction) error {
	wc := m.workers[workerID]
	switch action.Kind() {
	case ActionNone:
		return nil
	case ActionSchedule:
		wc.local.PushBack(freshRunnable(action.Iterator()))
		return nil
	case ActionBroadcast:
		return m.global.Push(action.Iterator())
	case ActionLift:
		parentIter, ok := wc.entries.Get(caller)
		if !ok {
			return ErrEntryNotFound
		}
		wrapped := NewDependentLifted(parentIter, action.Iterator())
		if !wc.entries.Replace(caller, wrapped) {
			return ErrEntryNotFound
		}
		return nil
	default:
		return nil
	}
}
