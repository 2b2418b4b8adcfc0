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

// Package valtron implements a cooperative task-iterator execution engine.
//
// A Task is a polled state machine that emits a TaskStatus on every poll.
// An ExecutionIterator adapts a Task into the engine's scheduling unit,
// isolating panics and forwarding Spawn actions back into the engine. Two
// Engine implementations drive those iterators to completion: a
// single-threaded cooperative engine, and a multi-threaded work-stealing
// engine built from N single-threaded workers. Both share the same
// contract, so user code written against Builder/ReadyValues/execute does
// not need to know which one is active.
package valtron
