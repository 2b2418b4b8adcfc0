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

func TestPendingFor_PositiveDelay(t *testing.T) {
	r := PendingFor(time.Second)
	assert.Equal(t, StatePending, r.State())
	d, ok := r.Delay()
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestPendingFor_NonPositiveDegradesToPendingNow(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		r := PendingFor(d)
		assert.Equal(t, StatePending, r.State())
		_, ok := r.Delay()
		assert.False(t, ok, "PendingFor(%s) should have no attached deadline", d)
	}
}

func TestStepResult_Constructors(t *testing.T) {
	assert.Equal(t, StateProgressed, Progressed().State())
	assert.Equal(t, StatePending, PendingNow().State())
	assert.Equal(t, StateSpawnFinished, SpawnFinished().State())
	assert.Equal(t, StateSpawnFailed, SpawnFailed().State())
	assert.Equal(t, StatePanicked, Panicked("boom").State())
	assert.Equal(t, StateDone, Done().State())
}

func TestStepResult_Payload(t *testing.T) {
	r := Panicked("boom")
	payload, ok := r.Payload()
	assert.True(t, ok)
	assert.Equal(t, "boom", payload)

	_, ok = Progressed().Payload()
	assert.False(t, ok)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "progressed", StateProgressed.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "unknown", State(99).String())
}
