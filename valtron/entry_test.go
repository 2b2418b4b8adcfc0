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

type fakeIterator struct{ label string }

func (f *fakeIterator) Step(Entry, *EngineHandle) StepResult { return Progressed() }

func TestEntryList_InsertGetRemove(t *testing.T) {
	l := NewEntryList()
	a := &fakeIterator{label: "a"}
	e := l.Insert(a, zeroEntry)
	assert.Equal(t, 1, l.Len())

	got, ok := l.Get(e)
	assert.True(t, ok)
	assert.Same(t, a, got)

	removed, ok := l.Remove(e)
	assert.True(t, ok)
	assert.Same(t, a, removed)
	assert.Equal(t, 0, l.Len())

	_, ok = l.Get(e)
	assert.False(t, ok, "a removed Entry must not resolve")
}

func TestEntryList_GenerationPreventsStaleAliasing(t *testing.T) {
	l := NewEntryList()
	a := &fakeIterator{label: "a"}
	e1 := l.Insert(a, zeroEntry)
	_, _ = l.Remove(e1)

	b := &fakeIterator{label: "b"}
	e2 := l.Insert(b, zeroEntry)

	assert.Equal(t, e1.index, e2.index, "freed slot should be reused")
	assert.NotEqual(t, e1.generation, e2.generation)

	_, ok := l.Get(e1)
	assert.False(t, ok, "the stale handle must not resolve to the new occupant")
	got, ok := l.Get(e2)
	assert.True(t, ok)
	assert.Same(t, b, got)
}

func TestEntryList_ParentLink(t *testing.T) {
	l := NewEntryList()
	parent := l.Insert(&fakeIterator{label: "parent"}, zeroEntry)
	child := l.Insert(&fakeIterator{label: "child"}, parent)

	got, ok := l.Parent(child)
	assert.True(t, ok)
	assert.Equal(t, parent, got)

	_, ok = l.Parent(parent)
	assert.False(t, ok, "a root entry has no parent")
}

func TestEntryList_Replace(t *testing.T) {
	l := NewEntryList()
	a := &fakeIterator{label: "a"}
	e := l.Insert(a, zeroEntry)

	b := &fakeIterator{label: "b"}
	assert.True(t, l.Replace(e, b))

	got, ok := l.Get(e)
	assert.True(t, ok)
	assert.Same(t, b, got)

	stale := Entry{index: e.index, generation: e.generation + 1}
	assert.False(t, l.Replace(stale, a))
}

func TestEntryList_ForEach(t *testing.T) {
	l := NewEntryList()
	l.Insert(&fakeIterator{label: "a"}, zeroEntry)
	l.Insert(&fakeIterator{label: "b"}, zeroEntry)
	l.Insert(&fakeIterator{label: "c"}, zeroEntry)

	var labels []string
	l.ForEach(func(_ Entry, iter ExecutionIterator) bool {
		labels = append(labels, iter.(*fakeIterator).label)
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, labels)

	var stoppedEarly []string
	l.ForEach(func(_ Entry, iter ExecutionIterator) bool {
		stoppedEarly = append(stoppedEarly, iter.(*fakeIterator).label)
		return false
	})
	assert.Equal(t, []string{"a"}, stoppedEarly)
}

func TestEntry_IsZero(t *testing.T) {
	assert.True(t, zeroEntry.IsZero())
	l := NewEntryList()
	e := l.Insert(&fakeIterator{}, zeroEntry)
	assert.False(t, e.IsZero())
}
