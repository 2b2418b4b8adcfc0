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
	"container/heap"
	"time"
)

// sleeperItem is one (deadline, Entry) pair tracked by Sleepers.
type sleeperItem struct {
	entry    Entry
	deadline time.Time
	index    int // position in the heap, maintained by container/heap
}

// sleeperHeap is a container/heap.Interface ordered by deadline.
type sleeperHeap []*sleeperItem

func (h sleeperHeap) Len() int            { return len(h) }
func (h sleeperHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h sleeperHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *sleeperHeap) Push(x interface{}) {
	item := x.(*sleeperItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *sleeperHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// Sleepers is a time-ordered structure of (deadline, Entry) pairs: the
// head is always the next entry due to become runnable. It is a min-heap
// keyed by deadline with a sidecar index for O(log n) removal, and is not
// safe for concurrent use (same ownership rule as EntryList: one per
// single-thread engine, one per multi-thread worker).
type Sleepers struct {
	heap  sleeperHeap
	index map[Entry]*sleeperItem
}

// NewSleepers creates an empty Sleepers.
func NewSleepers() *Sleepers {
	return &Sleepers{index: make(map[Entry]*sleeperItem)}
}

// Insert schedules entry to become runnable at deadline. Re-inserting an
// entry already present replaces its deadline.
func (s *Sleepers) Insert(entry Entry, deadline time.Time) {
	if item, ok := s.index[entry]; ok {
		item.deadline = deadline
		heap.Fix(&s.heap, item.index)
		return
	}
	item := &sleeperItem{entry: entry, deadline: deadline}
	heap.Push(&s.heap, item)
	s.index[entry] = item
}

// PopExpired removes and returns every entry whose deadline is <= now, in
// deadline order.
func (s *Sleepers) PopExpired(now time.Time) []Entry {
	var expired []Entry
	for len(s.heap) > 0 && !s.heap[0].deadline.After(now) {
		item := heap.Pop(&s.heap).(*sleeperItem)
		delete(s.index, item.entry)
		expired = append(expired, item.entry)
	}
	return expired
}

// Remove drops entry from the structure, e.g. because it was retired
// before its deadline elapsed. Reports whether entry was present.
func (s *Sleepers) Remove(entry Entry) bool {
	item, ok := s.index[entry]
	if !ok {
		return false
	}
	heap.Remove(&s.heap, item.index)
	delete(s.index, entry)
	return true
}

// NextDeadline peeks the earliest deadline currently tracked.
func (s *Sleepers) NextDeadline() (time.Time, bool) {
	if len(s.heap) == 0 {
		return time.Time{}, false
	}
	return s.heap[0].deadline, true
}

// Len reports how many entries are currently sleeping.
func (s *Sleepers) Len() int { return len(s.heap) }
