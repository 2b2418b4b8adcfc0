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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitForIdle(t *testing.T, m *MultiEngine) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !m.AllIdle() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for MultiEngine to go idle")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMultiEngine_ThreadCountClampsToAtLeastOne(t *testing.T) {
	m := NewMultiEngine("test", 1, 0, PriorityTop, 0, nil)
	assert.Equal(t, 1, m.ThreadCount())
}

func TestMultiEngine_StartBlocksUntilWorkersReady(t *testing.T) {
	m := NewMultiEngine("test", 1, 4, PriorityTop, 0, nil)
	m.Start()
	defer m.Stop()
	assert.Equal(t, 4, m.ThreadCount())
}

func TestMultiEngine_StartIsIdempotent(t *testing.T) {
	m := NewMultiEngine("test", 1, 2, PriorityTop, 0, nil)
	m.Start()
	m.Start() // must not panic or deadlock
	defer m.Stop()
}

func TestMultiEngine_StopIsIdempotent(t *testing.T) {
	m := NewMultiEngine("test", 1, 2, PriorityTop, 0, nil)
	m.Start()
	m.Stop()
	m.Stop() // must not panic or deadlock
}

func TestMultiEngine_RunsSpawnedTaskToCompletion(t *testing.T) {
	m := NewMultiEngine("test", 1, 2, PriorityTop, 0, nil)
	m.Start()
	defer m.Stop()

	var resolved atomic.Int64
	var mu sync.Mutex
	task := &scriptedTask[int, struct{}]{
		steps:   []TaskStatus[int, struct{}]{TaskStatusReady[int, struct{}](11), {}},
		alive:   []bool{true, false},
		panicOn: -1,
	}
	iter := NewDoNext[int, struct{}](task, func(s TaskStatus[int, struct{}]) {
		mu.Lock()
		defer mu.Unlock()
		if v, ok := s.IsReady(); ok {
			resolved.Store(int64(v))
		}
	}, nil)

	assert.NoError(t, m.Spawn(iter))
	waitForIdle(t, m)
	assert.Equal(t, int64(11), resolved.Load())
}

func TestMultiEngine_ActivityReportsStarted(t *testing.T) {
	m := NewMultiEngine("test", 1, 2, PriorityTop, 0, nil)
	m.Start()
	defer m.Stop()

	seen := make(map[int]bool)
	deadline := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case report := <-m.Activity():
			if report.Kind == ActivityStarted {
				seen[report.WorkerID] = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for every worker to report ActivityStarted")
		}
	}
}

func TestMultiEngine_ActivityReportsPanicWithPayload(t *testing.T) {
	m := NewMultiEngine("test", 1, 1, PriorityTop, 0, nil)
	m.Start()
	defer m.Stop()

	task := &scriptedTask[struct{}, struct{}]{
		steps:   []TaskStatus[struct{}, struct{}]{{}},
		alive:   []bool{true},
		panicOn: 0,
	}
	iter := NewDoNext[struct{}, struct{}](task, nil, nil)
	assert.NoError(t, m.Spawn(iter))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case report := <-m.Activity():
			if report.Kind == ActivityPanicked {
				assert.Equal(t, "scripted panic", report.Payload)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for an ActivityPanicked report")
		}
	}
}

func TestMultiEngine_AllIdleReflectsBroadcastQueueBacklog(t *testing.T) {
	m := NewMultiEngine("test", 1, 1, PriorityTop, 0, nil)
	assert.True(t, m.AllIdle())

	assert.NoError(t, m.global.Push(&fakeIterator{label: "queued"}))
	assert.False(t, m.AllIdle())
}
