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

// Package locktable provides the fixed table of address-hashed spinlocks
// backing atomic operations that have no lock-free implementation.
//
// The table is statically allocated and zero-initialized; the zero value of
// every lock is free, so no startup routine runs before the first use. Many
// addresses map to the same lock. That is deliberate: a collision serializes
// unrelated accesses, costing throughput, never correctness.
//
// Locks in this package pair mutual exclusion with local-interrupt masking.
// Masking prevents an interrupt handler on the same core from re-entering a
// lock its interrupted context already holds, and on single-core targets it
// alone makes the critical section atomic; the compare-and-swap covers true
// cross-core contention. A context that acquires a lock it already holds,
// without an intervening release, deadlocks that core permanently — there is
// no reentrancy protection beyond the mask.
package locktable

import (
	"sync/atomic"
	"unsafe"

	"softatomic.dev/softatomic/pkg/irq"
)

// The locked fallback assumes a lock-free pointer-size compare-and-swap; a
// port where uintptr is not 4 or 8 bytes fails to compile here.
const _ = -(unsafe.Sizeof(uintptr(0)) % 4)

const tableMask = Size - 1

// Lock is one slot of the table: a machine-word state cell that is 0 when
// free and 1 when held.
type Lock struct {
	state uintptr
}

// table holds every lock for the lifetime of the process. Never resized,
// never torn down.
var table [Size]Lock

// SlotIndex returns the table slot an address hashes to. The low 4 address
// bits are discarded so that all bytes of one aligned access, and nearby
// fields of one object, share a lock; higher-order bits are folded in by
// exclusive-or so objects with repeated field-offset patterns do not all
// collide on the same slots. Deterministic, allocation-free, lock-free.
func SlotIndex(addr uintptr) uintptr {
	h := addr >> 4
	low := h & tableMask
	h >>= 16
	return (h ^ low) & tableMask
}

// ForAddress returns the lock guarding the given address.
func ForAddress(addr uintptr) *Lock {
	return &table[SlotIndex(addr)]
}

// ForPointer returns the lock guarding the given pointer's address.
func ForPointer(ptr unsafe.Pointer) *Lock {
	return ForAddress(uintptr(ptr))
}

// Acquire masks local interrupts, then spins until the lock is taken, and
// returns the interrupt restore token for the matching Release.
//
// The spin is unbounded and never yields: this code must be usable before
// any scheduler exists and in contexts where yielding is illegal. Contention
// is expected to be rare and critical sections short; nothing here
// guarantees forward progress under sustained contention.
func (l *Lock) Acquire() irq.Token {
	token := irq.DisableSave()
	for !atomic.CompareAndSwapUintptr(&l.state, 0, 1) {
	}
	return token
}

// Release frees the lock with release ordering, then restores local
// interrupts from the token returned by the matching Acquire.
func (l *Lock) Release(token irq.Token) {
	atomic.StoreUintptr(&l.state, 0)
	irq.Restore(token)
}
