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

package atomicmem

// Order is the memory-ordering tag attached to an atomic operation. The
// values and their meanings follow the C11/LLVM memory model.
//
// Every implementation in this module satisfies any requested order: the
// lock-free paths are built on sync/atomic, whose operations are
// sequentially consistent, and the locked fallback's critical section is a
// full barrier. The tag is therefore a contract with the caller, not a
// selector of weaker code paths; it is carried so that call sites written
// against the two-family surface translate one-to-one to a target where the
// orders do differ.
type Order int

const (
	// Relaxed imposes no ordering beyond atomicity.
	Relaxed Order = iota

	// Consume orders dependent loads after the atomic load.
	Consume

	// Acquire orders subsequent accesses after the atomic operation.
	Acquire

	// Release orders prior accesses before the atomic operation.
	Release

	// AcqRel combines Acquire and Release.
	AcqRel

	// SeqCst additionally joins the single total order of all
	// sequentially consistent operations.
	SeqCst
)

// String implements fmt.Stringer.String.
func (o Order) String() string {
	switch o {
	case Relaxed:
		return "relaxed"
	case Consume:
		return "consume"
	case Acquire:
		return "acquire"
	case Release:
		return "release"
	case AcqRel:
		return "acq_rel"
	case SeqCst:
		return "seq_cst"
	default:
		return "unknown"
	}
}
