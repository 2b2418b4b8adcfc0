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

// Future is a minimal poll-based future: PollFuture reports the result and
// true once ready, or the zero value and false while pending. There is no
// waker callback: the no-op waker the spec describes is implicit in
// returning false, since the cooperative engine will simply poll again on
// its own schedule.
type Future[R any] interface {
	PollFuture() (R, bool)
}

// FutureFunc adapts a plain poll function into a Future.
type FutureFunc[R any] func() (R, bool)

// PollFuture implements Future.
func (f FutureFunc[R]) PollFuture() (R, bool) { return f() }

// FutureTask adapts a Future into a Task[R, struct{}], so it can be driven
// by any ExecutionIterator variant. A Pending future maps to
// TaskStatusPending; a Ready future maps to TaskStatusReady followed, on
// the next poll, by Task completion (Poll returning false) — a FutureTask
// is a one-shot adapter, unlike a general Task which may be a stream.
type FutureTask[R any] struct {
	future    Future[R]
	delivered bool
}

// NewFutureTask wraps future for use as a one-shot Task.
func NewFutureTask[R any](future Future[R]) *FutureTask[R] {
	return &FutureTask[R]{future: future}
}

// Poll implements Task.
func (t *FutureTask[R]) Poll() (TaskStatus[R, struct{}], bool) {
	if t.delivered {
		return TaskStatus[R, struct{}]{}, false
	}
	v, ready := t.future.PollFuture()
	if !ready {
		return TaskStatusPending[R, struct{}](struct{}{}), true
	}
	t.delivered = true
	return TaskStatusReady[R, struct{}](v), true
}
