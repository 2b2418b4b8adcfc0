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
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/valtron/config"
)

var unifiedLog = logger.GetLogger("Valtron", "Pool")

var (
	poolMu      sync.Mutex
	pool        *MultiEngine
	automaxOnce sync.Once
)

// InitializePool boots the process-wide engine singleton from cfg and
// starts its worker pool. The unified façade (Execute) always runs on a
// MultiEngine, even when cfg.NumThreads resolves to 1: a single-worker
// MultiEngine behaves exactly like a dedicated single-thread engine, which
// keeps Execute's background-driven blocking semantics uniform. Callers
// who want to drive the schedule loop explicitly instead (e.g. tests,
// deterministic replay) should use NewSingleEngine directly rather than
// this façade.
//
// Safe to call more than once; only the first call takes effect, matching
// the original's idempotent pool initialization. Returns the singleton
// either way.
func InitializePool(cfg config.Engine, reg prometheus.Registerer) *MultiEngine {
	automaxOnce.Do(func() {
		_, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...interface{}) {
			unifiedLog.Info(fmt.Sprintf(format, a...))
		}))
		if err != nil {
			unifiedLog.Warn("failed setting GOMAXPROCS", logger.Error(err))
		}
	})

	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		return pool
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	threads := resolveThreadCount(cfg.NumThreads, cfg.MaxThreads)
	priority := priorityFromString(cfg.PriorityOrder)

	pool = NewMultiEngine("valtron", seed, threads, priority, cfg.BroadcastQueueCapacity, reg)
	pool.Start()
	unifiedLog.Info("valtron pool initialized",
		logger.Int("threads", threads), logger.String("priority", cfg.PriorityOrder))
	return pool
}

// Shutdown stops the process-wide engine singleton, if one was ever
// initialized, and blocks until every worker has exited. Safe to call even
// if InitializePool was never called.
func Shutdown() {
	poolMu.Lock()
	p := pool
	pool = nil
	poolMu.Unlock()
	if p != nil {
		p.Stop()
	}
}

func resolveThreadCount(requested, max int) int {
	if requested > 0 {
		if max > 0 && requested > max {
			return max
		}
		return requested
	}
	n := runtime.GOMAXPROCS(0)
	if max > 0 && n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}

func priorityFromString(s string) PriorityOrder {
	if strings.EqualFold(s, "bottom") {
		return PriorityBottom
	}
	return PriorityTop
}

// execResult is what an execIterator delivers on its done channel: exactly
// one of a Ready value or an error.
type execResult[R any] struct {
	value R
	err   error
}

// execIterator adapts a Task into the one-shot "give me the first Ready
// value, or tell me why there wasn't one" contract Execute needs: unlike
// DoNext/CollectNext it delivers only that first value (or the reason there
// was none). The task is still stepped until it ends; later Ready values
// are dropped.
type execIterator[R, P any] struct {
	task         Task[R, P]
	out          chan execResult[R]
	delivered    bool
	panicHandler PanicHandler
}

func (it *execIterator[R, P]) deliver(res execResult[R]) {
	if it.delivered {
		return
	}
	it.delivered = true
	it.out <- res
}

// Step implements ExecutionIterator.
func (it *execIterator[R, P]) Step(entry Entry, handle *EngineHandle) (result StepResult) {
	defer func() {
		if r := recover(); r != nil {
			runPanicHandler(it.panicHandler, r)
			it.deliver(execResult[R]{err: ErrTaskPanicked})
			result = Panicked(r)
		}
	}()

	status, alive := it.task.Poll()
	if !alive {
		it.deliver(execResult[R]{err: ErrNoReadyValue})
		return Done()
	}
	if v, ok := status.IsReady(); ok {
		it.deliver(execResult[R]{value: v})
		return Progressed()
	}
	return applyStatus(status, entry, handle)
}

// executeInitialDelay is the "1 ns initial delay" spec.md §4.7 step 3
// schedules execute's task with, forcing one scheduling round before the
// task's first real Poll.
const executeInitialDelay = 1 * time.Nanosecond

// execute spawns task onto eng and blocks until execIterator delivers a
// result, the shared engine/execute implementation behind both Execute and
// any future per-engine convenience wrapper.
func execute[R, P any](eng Engine, task Task[R, P], panicHandler PanicHandler) (R, error) {
	delayed := newDelayedTask(task, executeInitialDelay)
	it := &execIterator[R, P]{task: delayed, out: make(chan execResult[R], 1), panicHandler: panicHandler}
	if err := eng.SpawnIterator(it); err != nil {
		var zero R
		return zero, err
	}
	res := <-it.out
	return res.value, res.err
}

// Execute spawns task on the process-wide engine singleton and blocks until
// it produces its first Ready value, returning ErrNoReadyValue if the task
// finishes without one, ErrTaskPanicked if it panics before one, or
// ErrNotInitialized if InitializePool has not been called yet.
func Execute[R, P any](task Task[R, P], panicHandler PanicHandler) (R, error) {
	poolMu.Lock()
	p := pool
	poolMu.Unlock()
	if p == nil {
		var zero R
		return zero, ErrNotInitialized
	}
	return execute[R, P](p, task, panicHandler)
}
