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

// Entry is a stable, opaque handle into an EntryList: an arena index plus
// a generation counter. Two entries compare equal only while the slot
// they address has not been reused; a reused slot gets a new generation,
// so a dangling Entry captured before a removal never aliases a later
// occupant.
//
// Entry is scoped to the EntryList that produced it: in the multi-thread
// engine each worker owns its own EntryList, so an Entry handed to a
// worker's ExecutionIterator must only ever be looked up in that same
// worker's EntryList.
type Entry struct {
	index      uint32
	generation uint32
}

// zeroEntry is never returned by EntryList.Insert and is useful as an
// explicit "no parent" sentinel.
var zeroEntry = Entry{}

// IsZero reports whether e is the zero Entry (never a live handle).
func (e Entry) IsZero() bool { return e == zeroEntry }

// entrySlot is the bookkeeping an EntryList keeps alongside a live
// ExecutionIterator.
type entrySlot struct {
	iter       ExecutionIterator
	generation uint32
	occupied   bool
	parent     Entry // zeroEntry if this entry has no parent link
}

// EntryList is a slotted arena mapping Entry handles to live
// ExecutionIterators. It is not safe for concurrent use: the single-thread
// engine owns one, and each multi-thread worker owns its own, touched only
// by that worker's run loop.
type EntryList struct {
	slots []entrySlot
	free  []uint32
	live  int
}

// NewEntryList creates an empty arena.
func NewEntryList() *EntryList {
	return &EntryList{}
}

// Insert registers iter, returning its new Entry handle. parent may be
// zeroEntry when the entry has no parent link.
func (l *EntryList) Insert(iter ExecutionIterator, parent Entry) Entry {
	if n := len(l.free); n > 0 {
		idx := l.free[n-1]
		l.free = l.free[:n-1]
		slot := &l.slots[idx]
		slot.iter = iter
		slot.occupied = true
		slot.parent = parent
		l.live++
		return Entry{index: idx, generation: slot.generation}
	}
	// New slots start at generation 1, so no live handle equals zeroEntry.
	idx := uint32(len(l.slots))
	l.slots = append(l.slots, entrySlot{iter: iter, generation: 1, occupied: true, parent: parent})
	l.live++
	return Entry{index: idx, generation: 1}
}

// Get returns the iterator registered at e, and whether e is still live.
func (l *EntryList) Get(e Entry) (ExecutionIterator, bool) {
	if int(e.index) >= len(l.slots) {
		return nil, false
	}
	slot := &l.slots[e.index]
	if !slot.occupied || slot.generation != e.generation {
		return nil, false
	}
	return slot.iter, true
}

// Parent returns the parent Entry registered alongside e, if any.
func (l *EntryList) Parent(e Entry) (Entry, bool) {
	if int(e.index) >= len(l.slots) {
		return zeroEntry, false
	}
	slot := &l.slots[e.index]
	if !slot.occupied || slot.generation != e.generation || slot.parent.IsZero() {
		return zeroEntry, false
	}
	return slot.parent, true
}

// Replace swaps the iterator registered at e for iter, keeping e's
// generation and parent link intact. Used to splice a DependentLifted
// wrapper in place of a caller's own iterator when a Lift action arrives.
func (l *EntryList) Replace(e Entry, iter ExecutionIterator) bool {
	if int(e.index) >= len(l.slots) {
		return false
	}
	slot := &l.slots[e.index]
	if !slot.occupied || slot.generation != e.generation {
		return false
	}
	slot.iter = iter
	return true
}

// Remove retires e: the iterator is dropped and the slot's generation is
// bumped so dangling copies of e never alias the slot's next occupant.
func (l *EntryList) Remove(e Entry) (ExecutionIterator, bool) {
	iter, ok := l.Get(e)
	if !ok {
		return nil, false
	}
	slot := &l.slots[e.index]
	slot.iter = nil
	slot.occupied = false
	slot.generation++
	slot.parent = zeroEntry
	l.free = append(l.free, e.index)
	l.live--
	return iter, true
}

// Len reports the number of live entries.
func (l *EntryList) Len() int { return l.live }

// ForEach calls fn for every live entry, in slot order. fn returning false
// stops the iteration early.
func (l *EntryList) ForEach(fn func(Entry, ExecutionIterator) bool) {
	for idx := range l.slots {
		slot := &l.slots[idx]
		if !slot.occupied {
			continue
		}
		e := Entry{index: uint32(idx), generation: slot.generation}
		if !fn(e, slot.iter) {
			return
		}
	}
}
