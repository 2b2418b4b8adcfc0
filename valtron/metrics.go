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

import "github.com/prometheus/client_golang/prometheus"

// EngineStatistics holds the Prometheus counters/gauges every engine
// exposes, mirroring lindb's habit of giving each long-running subsystem
// (e.g. internal/concurrent.Pool) its own statistics struct.
type EngineStatistics struct {
	StepsProgressed prometheus.Counter
	StepsPending    prometheus.Counter
	SpawnFinished   prometheus.Counter
	SpawnFailed     prometheus.Counter
	TasksDone       prometheus.Counter
	TasksPanicked   prometheus.Counter
	StealBatches    prometheus.Counter
	StolenRunnables prometheus.Counter
	IdleRounds      prometheus.Counter
	ParkEvents      prometheus.Counter
	LiveEntries     prometheus.Gauge
}

// NewEngineStatistics builds an EngineStatistics with a constant "engine"
// label identifying which named engine instance (e.g. "default",
// "worker-3") the metrics belong to, and registers it against reg. reg may
// be nil, in which case the counters are created but never registered
// (useful for tests).
func NewEngineStatistics(reg prometheus.Registerer, engine string) *EngineStatistics {
	labels := prometheus.Labels{"engine": engine}
	s := &EngineStatistics{
		StepsProgressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "steps_progressed_total",
			Help: "Number of ExecutionIterator steps that reported StateProgressed.", ConstLabels: labels,
		}),
		StepsPending: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "steps_pending_total",
			Help: "Number of ExecutionIterator steps that reported StatePending.", ConstLabels: labels,
		}),
		SpawnFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "spawn_finished_total",
			Help: "Number of Spawn actions successfully applied.", ConstLabels: labels,
		}),
		SpawnFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "spawn_failed_total",
			Help: "Number of Spawn actions rejected by the engine.", ConstLabels: labels,
		}),
		TasksDone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "tasks_done_total",
			Help: "Number of entries retired because their task finished.", ConstLabels: labels,
		}),
		TasksPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "tasks_panicked_total",
			Help: "Number of entries retired because their task panicked.", ConstLabels: labels,
		}),
		StealBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "steal_batches_total",
			Help: "Number of times a worker stole a batch from a sibling's local queue.", ConstLabels: labels,
		}),
		StolenRunnables: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "stolen_runnables_total",
			Help: "Number of runnables relocated by stealing.", ConstLabels: labels,
		}),
		IdleRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "idle_rounds_total",
			Help: "Number of scheduling rounds that produced no progress.", ConstLabels: labels,
		}),
		ParkEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valtron", Name: "park_events_total",
			Help: "Number of times a worker blocked in park, for a back-off sleep or a full park.", ConstLabels: labels,
		}),
		LiveEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "valtron", Name: "live_entries",
			Help: "Current number of live entries in this engine/worker's EntryList.", ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			s.StepsProgressed, s.StepsPending, s.SpawnFinished, s.SpawnFailed,
			s.TasksDone, s.TasksPanicked, s.StealBatches, s.StolenRunnables,
			s.IdleRounds, s.ParkEvents, s.LiveEntries,
		)
	}
	return s
}
