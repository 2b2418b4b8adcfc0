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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeEngine records which Engine entry point a Builder dispatched through.
type fakeEngine struct {
	spawned    ExecutionIterator
	scheduled  ExecutionIterator
	lifted     ExecutionIterator
	liftParent Entry
}

func (f *fakeEngine) SpawnIterator(iter ExecutionIterator) error {
	f.spawned = iter
	return nil
}

func (f *fakeEngine) ScheduleIterator(iter ExecutionIterator) error {
	f.scheduled = iter
	return nil
}

func (f *fakeEngine) LiftIterator(parent Entry, iter ExecutionIterator) error {
	f.liftParent = parent
	f.lifted = iter
	return nil
}

func TestBuilder_DefaultModeBroadcasts(t *testing.T) {
	eng := &fakeEngine{}
	b := NewBuilder(eng, nil)
	task := &scriptedTask[int, struct{}]{steps: []TaskStatus[int, struct{}]{{}}, alive: []bool{false}, panicOn: -1}

	assert.NoError(t, spawn[int, struct{}](b, task, nil))
	assert.NotNil(t, eng.spawned)
	assert.Nil(t, eng.scheduled)
	assert.Nil(t, eng.lifted)
}

func TestBuilder_ModeScheduleRoutesToScheduleIterator(t *testing.T) {
	eng := &fakeEngine{}
	b := NewBuilder(eng, nil).WithMode(ModeSchedule)
	task := &scriptedTask[int, struct{}]{steps: []TaskStatus[int, struct{}]{{}}, alive: []bool{false}, panicOn: -1}

	assert.NoError(t, spawn[int, struct{}](b, task, nil))
	assert.NotNil(t, eng.scheduled)
	assert.Nil(t, eng.spawned)
}

func TestBuilder_ModeLiftRoutesToLiftIteratorWithParent(t *testing.T) {
	eng := &fakeEngine{}
	parent := Entry{index: 3, generation: 1}
	b := NewBuilder(eng, nil).WithMode(ModeLift).WithParent(parent)
	task := &scriptedTask[int, struct{}]{steps: []TaskStatus[int, struct{}]{{}}, alive: []bool{false}, panicOn: -1}

	assert.NoError(t, spawn[int, struct{}](b, task, nil))
	assert.NotNil(t, eng.lifted)
	assert.Equal(t, parent, eng.liftParent)
}

func TestBuilder_Spawn2ReturnsReadyValuesThroughMappers(t *testing.T) {
	eng := &fakeEngine{}
	b := NewBuilder(eng, nil)
	task := &scriptedTask[int, struct{}]{
		steps:   []TaskStatus[int, struct{}]{TaskStatusReady[int, struct{}](2), TaskStatusReady[int, struct{}](4)},
		alive:   []bool{true, true},
		panicOn: -1,
	}
	double := StatusMapper[int, struct{}](func(s TaskStatus[int, struct{}], ok bool) (TaskStatus[int, struct{}], bool) {
		if !ok {
			return s, false
		}
		if v, isReady := s.IsReady(); isReady {
			return TaskStatusReady[int, struct{}](v * 10), true
		}
		return s, true
	})

	values, err := spawn2[int, struct{}](b, task, double)
	assert.NoError(t, err)
	assert.NotNil(t, eng.spawned)

	res := eng.spawned.Step(Entry{}, nil)
	assert.Equal(t, StateProgressed, res.State())
	v, ok := values.Next()
	assert.True(t, ok)
	assert.Equal(t, 20, v)
}

func TestBuilder_MapperSuppressionYieldsPending(t *testing.T) {
	task := &scriptedTask[int, struct{}]{
		steps:   []TaskStatus[int, struct{}]{TaskStatusReady[int, struct{}](1)},
		alive:   []bool{true},
		panicOn: -1,
	}
	suppressAll := StatusMapper[int, struct{}](func(s TaskStatus[int, struct{}], ok bool) (TaskStatus[int, struct{}], bool) {
		return s, false
	})
	wrapped := newMappedTask[int, struct{}](task, []StatusMapper[int, struct{}]{suppressAll})

	status, alive := wrapped.Poll()
	assert.True(t, alive)
	_, isPending := status.IsPending()
	assert.True(t, isPending)
}

func TestDelayedTask_FirstPollReportsDelayThenForwards(t *testing.T) {
	task := &scriptedTask[int, struct{}]{
		steps:   []TaskStatus[int, struct{}]{TaskStatusReady[int, struct{}](7)},
		alive:   []bool{true},
		panicOn: -1,
	}
	wrapped := newDelayedTask[int, struct{}](task, 5*time.Millisecond)

	status, alive := wrapped.Poll()
	assert.True(t, alive)
	d, isDelayed := status.IsDelayed()
	assert.True(t, isDelayed)
	assert.Equal(t, 5*time.Millisecond, d)

	status, alive = wrapped.Poll()
	assert.True(t, alive)
	v, isReady := status.IsReady()
	assert.True(t, isReady)
	assert.Equal(t, 7, v)
}

func TestDelayedTask_NonPositiveDelayReturnsTaskUnchanged(t *testing.T) {
	task := &scriptedTask[int, struct{}]{steps: []TaskStatus[int, struct{}]{{}}, alive: []bool{false}, panicOn: -1}
	assert.Same(t, Task[int, struct{}](task), newDelayedTask[int, struct{}](task, 0))
}
