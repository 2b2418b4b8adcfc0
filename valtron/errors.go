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

import "errors"

var (
	// ErrNotInitialized is returned by Execute when InitializePool has not
	// been called yet. SingleEngine has no initialization step and never
	// returns it.
	ErrNotInitialized = errors.New("valtron: pool not initialized, call InitializePool first")

	// ErrEntryNotFound is returned by EngineHandle.Apply when a Lift action's
	// caller Entry has already been retired, and by Engine.LiftIterator
	// when the given parent Entry is not live (on MultiEngine: when no
	// worker currently owns it).
	ErrEntryNotFound = errors.New("valtron: entry not found or already retired")

	// ErrQueueFull is returned when a push onto a bounded broadcast queue at
	// capacity is rejected (a Broadcast action, Submit, Spawn on a
	// MultiEngine, or Engine.SpawnIterator).
	ErrQueueFull = errors.New("valtron: queue is at capacity")

	// ErrNoReadyValue is returned by execute when the task completed
	// without ever producing a Ready value.
	ErrNoReadyValue = errors.New("valtron: task completed without producing a ready value")

	// ErrTaskPanicked is returned by execute when the task panicked before
	// producing any Ready value.
	ErrTaskPanicked = errors.New("valtron: task panicked before producing a ready value")
)
