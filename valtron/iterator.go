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

// ExecutionIterator is the engine-facing adapter wrapping a Task: it hides
// the Task's generic Ready/Pending types behind a single Step method the
// engine can call without knowing them. The closed set of variants is
// DoNext, CollectNext and DependentLifted; FutureTask (future_task.go) is
// a Task adapter that DoNext or CollectNext can drive, not a variant of its
// own. Implementers may add their own as long as they honour the panic-
// isolation and Spawn-dispatch contract documented on Step.
type ExecutionIterator interface {
	// Step advances the wrapped task by exactly one poll and reports the
	// resulting State. entry is this iterator's own stable handle in the
	// owning worker's EntryList; handle is valid only for the duration of
	// this call; implementations must not retain it past Step returning.
	Step(entry Entry, handle *EngineHandle) StepResult
}

// applier is implemented by whichever engine owns the EntryList behind an
// EngineHandle; it is how ExecutionIterator.Step dispatches a Spawn
// action's side effect without depending on the concrete engine type.
type applier interface {
	applyAction(caller Entry, action ExecutionAction) error
}

// EngineHandle is the capability an ExecutionIterator receives for the
// duration of a single Step call, letting it apply a Spawn action. It is
// shared by reference only for that call: tasks and iterators MUST NOT
// retain it across steps.
type EngineHandle struct {
	eng applier
}

// Apply performs the scheduling side effect action requests on behalf of
// caller, returning an error if the action could not be applied (e.g. a
// Lift whose caller entry is no longer live, or a Broadcast rejected by a
// full bounded broadcast queue).
func (h *EngineHandle) Apply(caller Entry, action ExecutionAction) error {
	if action.Kind() == ActionNone {
		return nil
	}
	return h.eng.applyAction(caller, action)
}
