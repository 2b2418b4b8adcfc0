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

// Command valtron is a small demo binary that boots the unified engine
// façade against a few canned tasks and prints their ready values. It is
// not part of the library contract, only a manual smoke-test harness.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lindb/common/pkg/ltoml"

	"github.com/lindb/valtron/config"
	"github.com/lindb/valtron/valtron"
)

const defaultCfgFile = "valtron.toml"

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "valtron",
		Short: "valtron cooperative task-iterator engine demo",
	}
	root.AddCommand(newRunCmd(), newInitConfigCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "create a new default valtron config",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := cfgPath
			if path == "" {
				path = defaultCfgFile
			}
			cfg := config.NewDefaultConfig()
			return ltoml.WriteConfig(path, cfg.TOML())
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "boot the engine and run a handful of canned demo tasks",
		RunE:  runDemo,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		fmt.Sprintf("config file path, default is %s", defaultCfgFile))
	return cmd
}

func runDemo(_ *cobra.Command, _ []string) error {
	cfg := config.NewDefaultConfig()
	if err := config.LoadAndOverride(cfgPath, cfg); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	eng := valtron.InitializePool(cfg.Engine, reg)
	defer valtron.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		eng.KillSignal().Raise()
	}()

	for i := 1; i <= 3; i++ {
		task := valtron.TaskFunc[int, struct{}](countdownTask(i))
		v, err := valtron.Execute[int, struct{}](task, nil)
		if err != nil {
			fmt.Printf("task %d failed: %v\n", i, err)
			continue
		}
		fmt.Printf("task %d ready: %d\n", i, v)
	}
	return nil
}

// countdownTask simulates bounded async work: three Pending polls, then a
// single Ready value, then the task ends.
func countdownTask(n int) func() (valtron.TaskStatus[int, struct{}], bool) {
	remaining := 3
	emitted := false
	return func() (valtron.TaskStatus[int, struct{}], bool) {
		if remaining > 0 {
			remaining--
			return valtron.TaskStatusPending[int, struct{}](struct{}{}), true
		}
		if !emitted {
			emitted = true
			return valtron.TaskStatusReady[int, struct{}](n * n), true
		}
		return valtron.TaskStatus[int, struct{}]{}, false
	}
}
