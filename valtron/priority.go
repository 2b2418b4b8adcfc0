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

// PriorityOrder tells an engine whether to drain its local queue before
// consulting the global/broadcast queue (Top) or the reverse (Bottom).
// Top is the default, to preserve cache/scheduling locality.
type PriorityOrder uint8

const (
	// PriorityTop drains the local queue first.
	PriorityTop PriorityOrder = iota
	// PriorityBottom drains the global queue first.
	PriorityBottom
)
