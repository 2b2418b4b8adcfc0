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

// DependentLifted wraps a parent iterator and a child iterator lifted onto
// it, modelling request/response pipelines where the child (e.g. a body
// reader) should not outlive the parent (e.g. the connection owner) while
// both make progress every tick. Stepping rules (spec.md §4.2):
//
//  1. While the child is live, step it; its State is the outer State.
//  2. After stepping the child, opportunistically step the parent too; if
//     the parent is done, drop it, but the child keeps running.
//  3. Once the child is done, only the parent is stepped.
//  4. Once both are done, Step returns StateDone.
type DependentLifted struct {
	parent ExecutionIterator // nil once retired
	child  ExecutionIterator // nil once retired
}

// NewDependentLifted lifts child onto parent.
func NewDependentLifted(parent, child ExecutionIterator) *DependentLifted {
	return &DependentLifted{parent: parent, child: child}
}

func terminal(s State) bool { return s == StateDone || s == StatePanicked }

// Step implements ExecutionIterator.
func (d *DependentLifted) Step(entry Entry, handle *EngineHandle) StepResult {
	if d.child != nil {
		res := d.child.Step(entry, handle)
		childEnded := terminal(res.State())
		if childEnded {
			d.child = nil
		}
		if d.parent != nil {
			pres := d.parent.Step(entry, handle)
			if terminal(pres.State()) {
				d.parent = nil
			}
		}
		if d.child == nil && d.parent == nil {
			return Done()
		}
		if childEnded {
			// The child just retired but the parent is still live: the
			// outer iterator is not done yet, so it must not report a
			// terminal State.
			return PendingNow()
		}
		return res
	}

	// Child already retired: only the parent advances.
	if d.parent == nil {
		return Done()
	}
	pres := d.parent.Step(entry, handle)
	if terminal(pres.State()) {
		d.parent = nil
		return Done()
	}
	return pres
}
