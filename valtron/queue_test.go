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

	"github.com/stretchr/testify/assert"
)

func TestLocalQueue_FIFOOrder(t *testing.T) {
	q := NewLocalQueue()
	a, b := freshRunnable(&fakeIterator{label: "a"}), freshRunnable(&fakeIterator{label: "b"})
	q.PushBack(a)
	q.PushBack(b)
	assert.Equal(t, 2, q.Len())

	got, ok := q.PopFront()
	assert.True(t, ok)
	assert.Same(t, a.iter, got.iter)

	got, ok = q.PopFront()
	assert.True(t, ok)
	assert.Same(t, b.iter, got.iter)

	_, ok = q.PopFront()
	assert.False(t, ok)
}

func TestLocalQueue_StealBatchTakesHalfFromTail(t *testing.T) {
	q := NewLocalQueue()
	for _, label := range []string{"a", "b", "c", "d"} {
		q.PushBack(freshRunnable(&fakeIterator{label: label}))
	}

	stolen := q.StealBatch()
	assert.Len(t, stolen, 2, "half of 4 items should be stolen")
	assert.Equal(t, "c", stolen[0].iter.(*fakeIterator).label)
	assert.Equal(t, "d", stolen[1].iter.(*fakeIterator).label)
	assert.Equal(t, 2, q.Len(), "the stolen half must be removed from the queue")
}

func TestLocalQueue_StealBatchFromSingleItemTakesOne(t *testing.T) {
	q := NewLocalQueue()
	q.PushBack(freshRunnable(&fakeIterator{label: "only"}))

	stolen := q.StealBatch()
	assert.Len(t, stolen, 1)
	assert.Equal(t, 0, q.Len())
}

func TestLocalQueue_StealBatchFromEmptyReturnsNil(t *testing.T) {
	q := NewLocalQueue()
	assert.Nil(t, q.StealBatch())
}

func TestBroadcastQueue_FIFOAndLen(t *testing.T) {
	q := NewBroadcastQueue(0)
	a, b := &fakeIterator{label: "a"}, &fakeIterator{label: "b"}
	assert.NoError(t, q.Push(a))
	assert.NoError(t, q.Push(b))
	assert.Equal(t, 2, q.Len())

	got, ok := q.Pop()
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestBroadcastQueue_BoundedRejectsWhenFull(t *testing.T) {
	q := NewBroadcastQueue(1)
	assert.NoError(t, q.Push(&fakeIterator{label: "a"}))
	err := q.Push(&fakeIterator{label: "b"})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestBroadcastQueue_PopEmptyReportsFalse(t *testing.T) {
	q := NewBroadcastQueue(0)
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestBroadcastQueue_PushSignalsWake(t *testing.T) {
	q := NewBroadcastQueue(0)
	assert.NoError(t, q.Push(&fakeIterator{label: "a"}))

	select {
	case <-q.Wake():
	default:
		t.Fatal("expected a pending wake signal after a successful push")
	}
}

func TestBroadcastQueue_WakeDoesNotBlockWhenAlreadySignalled(t *testing.T) {
	q := NewBroadcastQueue(0)
	assert.NoError(t, q.Push(&fakeIterator{label: "a"}))
	assert.NoError(t, q.Push(&fakeIterator{label: "b"}), "a second push must not block even though the wake channel is already full")
}
