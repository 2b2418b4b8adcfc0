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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector_AppendDrainPop(t *testing.T) {
	c := NewCollector[int]()
	assert.Equal(t, 0, c.Len())

	c.Append(1)
	c.Append(2)
	assert.Equal(t, 2, c.Len())

	v, ok := c.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, c.Len())

	all := c.Drain()
	assert.Equal(t, []int{2}, all)
	assert.Equal(t, 0, c.Len())

	_, ok = c.Pop()
	assert.False(t, ok)
}

func TestCollector_ConcurrentAppend(t *testing.T) {
	c := NewCollector[int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			c.Append(v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, c.Len())
}

func TestCollectNext_AppendsReadyValues(t *testing.T) {
	task := &scriptedTask[string, struct{}]{
		steps: []TaskStatus[string, struct{}]{
			TaskStatusReady[string, struct{}]("a"),
			TaskStatusReady[string, struct{}]("b"),
		},
		alive:   []bool{true, true},
		panicOn: -1,
	}
	out := NewCollector[string]()
	c := NewCollectNext[string, struct{}](task, out, nil)

	c.Step(Entry{}, nil)
	c.Step(Entry{}, nil)

	assert.Equal(t, []string{"a", "b"}, out.Drain())
}

func TestCollectNext_PanicIsIsolated(t *testing.T) {
	task := &scriptedTask[string, struct{}]{
		steps:   []TaskStatus[string, struct{}]{{}},
		alive:   []bool{true},
		panicOn: 0,
	}
	out := NewCollector[string]()
	c := NewCollectNext[string, struct{}](task, out, nil)

	res := c.Step(Entry{}, nil)
	assert.Equal(t, StatePanicked, res.State())
	assert.Equal(t, 0, out.Len())
}

func TestCollectNext_Done(t *testing.T) {
	task := &scriptedTask[string, struct{}]{alive: []bool{false}, steps: []TaskStatus[string, struct{}]{{}}}
	out := NewCollector[string]()
	c := NewCollectNext[string, struct{}](task, out, nil)
	res := c.Step(Entry{}, nil)
	assert.Equal(t, StateDone, res.State())
}
