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

package atomicops

import (
	"math/bits"
	"unsafe"

	"softatomic.dev/softatomic/pkg/atomicmem"
	"softatomic.dev/softatomic/pkg/locktable"
)

// Uint128 is the 16-byte scalar of the specialized family. Lo precedes Hi
// so the in-memory layout matches a double-width integer on little-endian
// targets.
//
// Go exposes no 16-byte hardware instruction, so every Uint128 operation
// takes the locked path; atomicmem.IsLockFree reports false for size 16
// accordingly.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

func (u Uint128) add(v Uint128) Uint128 {
	lo, carry := bits.Add64(u.Lo, v.Lo, 0)
	hi, _ := bits.Add64(u.Hi, v.Hi, carry)
	return Uint128{Lo: lo, Hi: hi}
}

func (u Uint128) sub(v Uint128) Uint128 {
	lo, borrow := bits.Sub64(u.Lo, v.Lo, 0)
	hi, _ := bits.Sub64(u.Hi, v.Hi, borrow)
	return Uint128{Lo: lo, Hi: hi}
}

// LoadUint128 atomically reads *ptr.
func LoadUint128(ptr *Uint128, order atomicmem.Order) Uint128 {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	val := *ptr
	l.Release(token)
	return val
}

// StoreUint128 atomically writes val to *ptr.
func StoreUint128(ptr *Uint128, val Uint128, order atomicmem.Order) {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	*ptr = val
	l.Release(token)
}

// ExchangeUint128 atomically replaces *ptr with val and returns the
// previous value.
func ExchangeUint128(ptr *Uint128, val Uint128, order atomicmem.Order) Uint128 {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	old := *ptr
	*ptr = val
	l.Release(token)
	return old
}

// CompareExchangeUint128 atomically stores desired to *ptr and returns true
// if *ptr equals *expected; otherwise it writes the observed value into
// *expected and returns false.
func CompareExchangeUint128(ptr, expected *Uint128, desired Uint128, success, failure atomicmem.Order) bool {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	if *ptr == *expected {
		*ptr = desired
		l.Release(token)
		return true
	}
	*expected = *ptr
	l.Release(token)
	return false
}

// FetchAddUint128 atomically adds v to *ptr with wraparound across the full
// 128 bits and returns the previous value.
func FetchAddUint128(ptr *Uint128, v Uint128, order atomicmem.Order) Uint128 {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	old := *ptr
	*ptr = old.add(v)
	l.Release(token)
	return old
}

// FetchSubUint128 atomically subtracts v from *ptr with wraparound across
// the full 128 bits and returns the previous value.
func FetchSubUint128(ptr *Uint128, v Uint128, order atomicmem.Order) Uint128 {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	old := *ptr
	*ptr = old.sub(v)
	l.Release(token)
	return old
}

// FetchAndUint128 atomically stores *ptr & v and returns the previous value.
func FetchAndUint128(ptr *Uint128, v Uint128, order atomicmem.Order) Uint128 {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	old := *ptr
	*ptr = Uint128{Lo: old.Lo & v.Lo, Hi: old.Hi & v.Hi}
	l.Release(token)
	return old
}

// FetchOrUint128 atomically stores *ptr | v and returns the previous value.
func FetchOrUint128(ptr *Uint128, v Uint128, order atomicmem.Order) Uint128 {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	old := *ptr
	*ptr = Uint128{Lo: old.Lo | v.Lo, Hi: old.Hi | v.Hi}
	l.Release(token)
	return old
}

// FetchXorUint128 atomically stores *ptr ^ v and returns the previous value.
func FetchXorUint128(ptr *Uint128, v Uint128, order atomicmem.Order) Uint128 {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	old := *ptr
	*ptr = Uint128{Lo: old.Lo ^ v.Lo, Hi: old.Hi ^ v.Hi}
	l.Release(token)
	return old
}

// FetchNandUint128 atomically stores ^(*ptr & v) and returns the previous
// value.
func FetchNandUint128(ptr *Uint128, v Uint128, order atomicmem.Order) Uint128 {
	l := locktable.ForPointer(unsafe.Pointer(ptr))
	token := l.Acquire()
	old := *ptr
	*ptr = Uint128{Lo: ^(old.Lo & v.Lo), Hi: ^(old.Hi & v.Hi)}
	l.Release(token)
	return old
}
