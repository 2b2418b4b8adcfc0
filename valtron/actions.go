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

// ActionKind enumerates the scheduling side effects a task may request via
// TaskStatusSpawn.
type ActionKind uint8

const (
	// ActionNone is a no-op, the identity element for generic combinators.
	// Applying it always succeeds and is equivalent to StateSpawnFinished
	// with no side effect (spec.md §9 Open Questions).
	ActionNone ActionKind = iota
	// ActionSchedule enqueues iter on the local queue of the worker
	// currently stepping the caller.
	ActionSchedule
	// ActionBroadcast enqueues iter on the global queue, visible to every
	// worker.
	ActionBroadcast
	// ActionLift enqueues iter as a child tied to the caller's Entry: the
	// caller's own step also advances the child (see DependentLifted).
	ActionLift
)

// ExecutionAction is the command a Task hands back to the engine via
// TaskStatusSpawn.
type ExecutionAction struct {
	kind ActionKind
	iter ExecutionIterator
}

// Kind reports which scheduling side effect this action requests.
func (a ExecutionAction) Kind() ActionKind { return a.kind }

// Iterator returns the iterator this action carries. Present for
// ActionSchedule, ActionBroadcast and ActionLift; nil for ActionNone.
func (a ExecutionAction) Iterator() ExecutionIterator { return a.iter }

// NoAction is the identity element: applying it is always a no-op.
func NoAction() ExecutionAction { return ExecutionAction{kind: ActionNone} }

// Schedule enqueues iter on the current worker's local queue.
func Schedule(iter ExecutionIterator) ExecutionAction {
	return ExecutionAction{kind: ActionSchedule, iter: iter}
}

// Broadcast enqueues iter on the global queue.
func Broadcast(iter ExecutionIterator) ExecutionAction {
	return ExecutionAction{kind: ActionBroadcast, iter: iter}
}

// Lift enqueues iter as a child of the entry currently being stepped. Use
// EngineHandle.Apply's caller entry implicitly: the parent is always the
// entry passed to ExecutionIterator.Step, not a value the task chooses.
func Lift(iter ExecutionIterator) ExecutionAction {
	return ExecutionAction{kind: ActionLift, iter: iter}
}
