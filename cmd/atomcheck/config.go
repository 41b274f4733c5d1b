// Copyright 2026 The Softatomic Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// config holds scenario parameters shared by the check commands. Values come
// from defaults, then an optional TOML file, then explicit flags.
type config struct {
	// Workers is the number of concurrent contexts per scenario.
	Workers int `toml:"workers"`

	// Iterations is the per-worker operation count.
	Iterations int `toml:"iterations"`
}

func defaultConfig() config {
	return config{
		Workers:    8,
		Iterations: 100000,
	}
}

// loadConfig overlays the TOML file at path, if any, onto the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decoding %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return cfg, fmt.Errorf("unknown keys in %s: %v", path, undec)
	}
	if cfg.Workers <= 0 || cfg.Iterations <= 0 {
		return cfg, fmt.Errorf("workers and iterations must be positive, got %d and %d", cfg.Workers, cfg.Iterations)
	}
	return cfg, nil
}
