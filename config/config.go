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

// Package config holds valtron's engine configuration: a plain struct with
// toml/env tags, loaded the same two-step way lindb's own
// config.LoadAndSetStorageConfig loads config.Storage (a TOML file read via
// BurntSushi/toml, then overridden field-by-field from the environment
// using the struct's own `env:"..."` tags, the same tags lindb/common's
// ltoml package already consults for Engine's Duration/Size fields). Every
// env tag resolves flat under VALTRON_, so a field nested two structs deep
// resolves exactly as if it were top-level: Engine.NumThreads's
// `env:"NUM_THREADS"` is VALTRON_NUM_THREADS, never VALTRON_ENGINE_NUM_THREADS.
package config

import (
	"encoding"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/BurntSushi/toml"
)

// envPrefix matches lindb's own "LINDB_"-style convention, scoped to this
// module's name.
const envPrefix = "VALTRON_"

// Config is the root configuration valtron loads: currently just the
// engine's own tuning, kept as its own struct so future additions (e.g. a
// logging section) don't reshape Engine's toml/env tags.
type Config struct {
	Engine Engine `toml:"engine"`
}

// NewDefaultConfig returns the default Config.
func NewDefaultConfig() *Config {
	return &Config{Engine: NewDefaultEngine()}
}

// TOML renders cfg as an annotated TOML document, suitable for writing out
// as a starter config file.
func (cfg *Config) TOML() string {
	return cfg.Engine.TOML()
}

// LoadAndOverride reads path as TOML into cfg, then overrides any field
// with a corresponding VALTRON_* environment variable set. path may be
// empty, in which case cfg keeps its current (typically default) values
// and only the environment override runs. A non-empty path that cannot be
// read or decoded is an error.
func LoadAndOverride(path string, cfg *Config) error {
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("valtron: decoding config file %s: %w", path, err)
		}
	}
	if err := overrideFromEnv(reflect.ValueOf(cfg).Elem(), envPrefix); err != nil {
		return fmt.Errorf("valtron: applying environment overrides: %w", err)
	}
	return nil
}

// overrideFromEnv walks v's fields, consulting prefix+the field's `env:"..."`
// tag for a set environment variable and parsing it in place when present.
// Nested structs recurse with the same prefix rather than one scoped by the
// parent field's name, matching the flat env-tag convention already used by
// Engine's own toml/env tags.
func overrideFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := v.Field(i)
		tag := t.Field(i).Tag.Get("env")

		if u, ok := addrTextUnmarshaler(fv); ok {
			if tag == "" {
				continue
			}
			raw, set := os.LookupEnv(prefix + tag)
			if !set {
				continue
			}
			if err := u.UnmarshalText([]byte(raw)); err != nil {
				return fmt.Errorf("env %s%s: %w", prefix, tag, err)
			}
			continue
		}

		if fv.Kind() == reflect.Struct {
			if err := overrideFromEnv(fv, prefix); err != nil {
				return err
			}
			continue
		}

		if tag == "" {
			continue
		}
		raw, set := os.LookupEnv(prefix + tag)
		if !set {
			continue
		}
		if err := setScalar(fv, raw); err != nil {
			return fmt.Errorf("env %s%s: %w", prefix, tag, err)
		}
	}
	return nil
}

// addrTextUnmarshaler returns fv's addressable value as an
// encoding.TextUnmarshaler, if its type implements the interface. ltoml's
// Duration and Size types do, the same way they already unmarshal the
// quoted duration/size strings Engine.TOML renders.
func addrTextUnmarshaler(fv reflect.Value) (encoding.TextUnmarshaler, bool) {
	if !fv.CanAddr() {
		return nil, false
	}
	u, ok := fv.Addr().Interface().(encoding.TextUnmarshaler)
	return u, ok
}

// setScalar assigns raw, parsed according to fv's kind, into fv.
func setScalar(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetUint(n)
	default:
		return fmt.Errorf("unsupported env-overridable field kind %s", fv.Kind())
	}
	return nil
}
