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

package config

import (
	"fmt"

	"github.com/lindb/common/pkg/ltoml"
)

// Engine represents the configuration of a valtron execution engine,
// whether it ends up running single-threaded or as a worker pool.
type Engine struct {
	// NumThreads is the worker count for the multi-thread engine. 0 means
	// "derive from runtime.GOMAXPROCS", consulted after automaxprocs has
	// run. Overridable by the VALTRON_NUM_THREADS environment variable.
	NumThreads int `env:"NUM_THREADS" toml:"num-threads"`
	// MaxThreads caps the worker count, whether NumThreads is set explicitly
	// or derived, regardless of CPU count.
	MaxThreads int `env:"MAX_THREADS" toml:"max-threads"`
	// PriorityOrder is "top" (drain the local queue before the broadcast
	// queue) or "bottom" (the reverse). Unrecognised values fall back to
	// "top".
	PriorityOrder string `env:"PRIORITY_ORDER" toml:"priority-order"`
	// BroadcastQueueCapacity bounds the shared broadcast queue; 0 means
	// unbounded.
	BroadcastQueueCapacity int `env:"BROADCAST_QUEUE_CAPACITY" toml:"broadcast-queue-capacity"`
	// BackoffMin/BackoffMax clamp the idle/retry exponential back-off.
	BackoffMin ltoml.Duration `env:"BACKOFF_MIN" toml:"backoff-min"`
	BackoffMax ltoml.Duration `env:"BACKOFF_MAX" toml:"backoff-max"`
	// Seed deterministically drives every engine/worker's PRNG (idle
	// jitter, spawn-retry back-off). Steal victims are picked round-robin,
	// not from the PRNG. 0 means "derive a
	// seed from the current time at InitializePool time".
	Seed uint64 `env:"SEED" toml:"seed"`
}

// NewDefaultEngine returns the default Engine configuration.
func NewDefaultEngine() Engine {
	return Engine{
		NumThreads:             0,
		MaxThreads:             32,
		PriorityOrder:          "top",
		BroadcastQueueCapacity: 0,
		BackoffMin:             ltoml.Duration(defaultBackoffMin),
		BackoffMax:             ltoml.Duration(defaultBackoffMax),
		Seed:                   0,
	}
}

// TOML returns Engine's toml config.
func (e *Engine) TOML() string {
	return fmt.Sprintf(`
## Config for the valtron execution engine
[engine]
## number of persistent worker threads for the multi-thread engine.
## 0 derives the count from runtime.GOMAXPROCS after automaxprocs has run.
## Default: %d
## Env: VALTRON_NUM_THREADS
num-threads = %d
## upper bound on the thread count, explicit or derived, regardless of CPU count.
## Default: %d
## Env: VALTRON_MAX_THREADS
max-threads = %d
## "top" drains a worker's local queue before the broadcast queue;
## "bottom" drains the broadcast queue first.
## Default: %q
## Env: VALTRON_PRIORITY_ORDER
priority-order = %q
## bounds the shared broadcast queue; 0 means unbounded.
## Default: %d
## Env: VALTRON_BROADCAST_QUEUE_CAPACITY
broadcast-queue-capacity = %d
## lower bound of the idle/retry exponential back-off.
## Default: %s
## Env: VALTRON_BACKOFF_MIN
backoff-min = "%s"
## upper bound of the idle/retry exponential back-off.
## Default: %s
## Env: VALTRON_BACKOFF_MAX
backoff-max = "%s"
## seed for every engine/worker's deterministic PRNG. 0 derives a seed
## from the current time at pool-initialization time.
## Default: %d
## Env: VALTRON_SEED
seed = %d`,
		e.NumThreads, e.NumThreads,
		e.MaxThreads, e.MaxThreads,
		e.PriorityOrder, e.PriorityOrder,
		e.BroadcastQueueCapacity, e.BroadcastQueueCapacity,
		e.BackoffMin.String(), e.BackoffMin.String(),
		e.BackoffMax.String(), e.BackoffMax.String(),
		e.Seed, e.Seed,
	)
}

const (
	defaultBackoffMin = 1_000_000     // 1ms, in time.Duration units
	defaultBackoffMax = 1_000_000_000 // 1s, in time.Duration units
)
