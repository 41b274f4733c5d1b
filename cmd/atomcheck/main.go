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

// atomcheck exercises the atomic operation runtime from outside its own test
// suite: long-running contention stress, lock-collision serialization,
// lock-free/locked path equivalence, and lock table hash distribution. It is
// meant for soak runs on new targets, where a port's masking primitives and
// alignment behavior differ from the development host.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(stressCmd), "checks")
	subcommands.Register(new(collideCmd), "checks")
	subcommands.Register(new(equivalenceCmd), "checks")
	subcommands.Register(new(hashCmd), "checks")

	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false})
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
