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
	"context"
	"fmt"
	"unsafe"

	"flag"
	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"softatomic.dev/softatomic/pkg/atomicmem"
)

// equivalenceCmd implements subcommands.Command for the "equivalence"
// command: a single-threaded harness that runs each operation through the
// lock-free path (aligned cell) and the locked path (misaligned cell) and
// requires bit-identical outcomes.
type equivalenceCmd struct {
	seed int
}

// Name implements subcommands.Command.
func (*equivalenceCmd) Name() string {
	return "equivalence"
}

// Synopsis implements subcommands.Command.
func (*equivalenceCmd) Synopsis() string {
	return "check that lock-free and locked paths produce identical results"
}

// Usage implements subcommands.Command.
func (*equivalenceCmd) Usage() string {
	return `equivalence [flags]`
}

// SetFlags implements subcommands.Command.
func (c *equivalenceCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.seed, "seed", 1, "seed byte for the value patterns")
}

// outcome captures everything observable from one operation sequence.
type outcome struct {
	Memory []byte
	Old    []byte
	CASOK  bool
	CASOut []byte
}

// Execute implements subcommands.Command.
func (c *equivalenceCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	for _, size := range []uintptr{4, 8} {
		diff, err := c.compare(size)
		if err != nil {
			logrus.Errorf("equivalence: size %d: %v", size, err)
			return subcommands.ExitFailure
		}
		if diff != "" {
			logrus.Errorf("equivalence: size %d paths diverge (-lockfree +locked):\n%s", size, diff)
			return subcommands.ExitFailure
		}
		logrus.Infof("size %d: lock-free and locked paths agree", size)
	}
	return subcommands.ExitSuccess
}

func (c *equivalenceCmd) compare(size uintptr) (string, error) {
	aligned, err := cellAt(size, 0, size)
	if err != nil {
		return "", err
	}
	misaligned, err := cellAt(size, 1, size)
	if err != nil {
		return "", err
	}
	if atomicmem.IsLockFree(size, misaligned) {
		return "", fmt.Errorf("misaligned cell unexpectedly lock-free")
	}
	return cmp.Diff(c.run(size, aligned), c.run(size, misaligned)), nil
}

// run performs a fixed store/exchange/compare-exchange/load sequence at p
// and returns the observable outcome.
func (c *equivalenceCmd) run(size uintptr, p unsafe.Pointer) outcome {
	seed := byte(c.seed)
	initial := patternBytes(size, seed)
	value := patternBytes(size, seed+0x40)
	desired := patternBytes(size, seed+0x80)

	atomicmem.Store(size, p, unsafe.Pointer(&initial[0]), atomicmem.SeqCst)

	old := make([]byte, size)
	atomicmem.Exchange(size, p, unsafe.Pointer(&value[0]), unsafe.Pointer(&old[0]), atomicmem.SeqCst)

	// First CAS uses the stale initial value and must fail; the second uses
	// the value the failure reported and must succeed.
	expected := append([]byte(nil), initial...)
	ok1 := atomicmem.CompareExchange(size, p, unsafe.Pointer(&expected[0]), unsafe.Pointer(&desired[0]), atomicmem.SeqCst, atomicmem.SeqCst)
	ok2 := atomicmem.CompareExchange(size, p, unsafe.Pointer(&expected[0]), unsafe.Pointer(&desired[0]), atomicmem.SeqCst, atomicmem.SeqCst)

	mem := make([]byte, size)
	atomicmem.Load(size, p, unsafe.Pointer(&mem[0]), atomicmem.SeqCst)
	return outcome{
		Memory: mem,
		Old:    old,
		CASOK:  !ok1 && ok2,
		CASOut: expected,
	}
}

// cellAt returns a pointer with the requested misalignment relative to
// align, backed by a fresh buffer.
func cellAt(align, misalign, size uintptr) (unsafe.Pointer, error) {
	buf := make([]byte, align*2+size+16)
	base := uintptr(unsafe.Pointer(&buf[0]))
	for off := uintptr(0); off+size <= uintptr(len(buf)); off++ {
		if (base+off)%align == misalign {
			return unsafe.Pointer(&buf[off]), nil
		}
	}
	return nil, fmt.Errorf("no offset with alignment %d+%d", align, misalign)
}

func patternBytes(size uintptr, seed byte) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = seed + byte(i)*3
	}
	return b
}
