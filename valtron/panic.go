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
	"os"

	"github.com/lindb/common/pkg/logger"
)

var panicLog = logger.GetLogger("Valtron", "Panic")

// PanicHandler is invoked with the recovered panic payload when a task's
// Poll panics. It must return promptly; runPanicHandler guards every call
// with an abort-on-panic drop guard, since a panic handler that itself
// panics leaves the engine in an unrecoverable state.
type PanicHandler func(payload any)

// runPanicHandler invokes handler under a guard that aborts the process if
// handler itself panics, per spec.md §4.1/§4.2.
func runPanicHandler(handler PanicHandler, payload any) {
	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			panicLog.Error("panic handler itself panicked, aborting process",
				logger.Any("original", payload), logger.Any("handler_panic", r))
			os.Exit(2)
		}
	}()
	handler(payload)
}
