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

// DoNext wraps a Task whose Ready values are forwarded to an optional
// resolver and otherwise dropped: it is the fire-and-forget variant, used
// when the caller does not need to drain results synchronously.
type DoNext[R, P any] struct {
	task         Task[R, P]
	resolver     func(TaskStatus[R, P])
	panicHandler PanicHandler
}

// NewDoNext builds a DoNext around task. resolver and panicHandler may be
// nil.
func NewDoNext[R, P any](task Task[R, P], resolver func(TaskStatus[R, P]), panicHandler PanicHandler) *DoNext[R, P] {
	return &DoNext[R, P]{task: task, resolver: resolver, panicHandler: panicHandler}
}

// Step implements ExecutionIterator.
func (d *DoNext[R, P]) Step(entry Entry, handle *EngineHandle) (result StepResult) {
	defer func() {
		if r := recover(); r != nil {
			runPanicHandler(d.panicHandler, r)
			result = Panicked(r)
		}
	}()

	status, alive := d.task.Poll()
	if !alive {
		return Done()
	}
	if d.resolver != nil {
		d.resolver(status)
	}
	return applyStatus(status, entry, handle)
}

// applyStatus maps a TaskStatus to the StepResult the status->state table
// in spec.md §4.1 prescribes, dispatching Spawn actions through handle.
func applyStatus[R, P any](status TaskStatus[R, P], entry Entry, handle *EngineHandle) StepResult {
	switch status.Kind() {
	case statusInit, statusPending:
		return PendingNow()
	case statusDelayed:
		d, _ := status.IsDelayed()
		return PendingFor(d)
	case statusReady:
		return Progressed()
	case statusSpawn:
		action, _ := status.IsSpawn()
		if err := handle.Apply(entry, action); err != nil {
			return SpawnFailed()
		}
		return SpawnFinished()
	default:
		return PendingNow()
	}
}
