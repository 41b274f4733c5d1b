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

// Package atomicops provides the atomic operation set for scalars whose
// width is known statically: load, store, exchange, compare-exchange, and
// the fetch-and-op family, instantiated per fixed unsigned width. Each
// operation follows the same structure as the runtime-size layer in
// atomicmem — try the native lock-free instruction, fall back to the
// interrupt-guarded lock — but the size dispatch is resolved per generic
// instantiation rather than per call.
//
// 4- and 8-byte instantiations reach sync/atomic directly; 1- and 2-byte
// instantiations, for which Go exposes no hardware instruction, always take
// the locked path, as does the 16-byte Uint128 family in uint128.go.
//
// Fetch-ops return the value observed before the operation. Add and sub
// wrap; nand stores the complement of the bitwise AND.
package atomicops

import (
	"sync/atomic"
	"unsafe"

	"softatomic.dev/softatomic/pkg/atomicmem"
	"softatomic.dev/softatomic/pkg/locktable"
)

// Unsigned is the closed set of scalar widths the specialized family is
// instantiated over. Uint128 completes the set for 16-byte scalars.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func lockFor[T Unsigned](ptr *T) *locktable.Lock {
	return locktable.ForPointer(unsafe.Pointer(ptr))
}

// Load atomically reads *ptr.
func Load[T Unsigned](ptr *T, order atomicmem.Order) T {
	switch unsafe.Sizeof(*ptr) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			return T(atomic.LoadUint32((*uint32)(unsafe.Pointer(ptr))))
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			return T(atomic.LoadUint64((*uint64)(unsafe.Pointer(ptr))))
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	val := *ptr
	l.Release(token)
	return val
}

// Store atomically writes val to *ptr.
func Store[T Unsigned](ptr *T, val T, order atomicmem.Order) {
	switch unsafe.Sizeof(val) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			atomic.StoreUint32((*uint32)(unsafe.Pointer(ptr)), uint32(val))
			return
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			atomic.StoreUint64((*uint64)(unsafe.Pointer(ptr)), uint64(val))
			return
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	*ptr = val
	l.Release(token)
}

// Exchange atomically replaces *ptr with val and returns the previous value.
func Exchange[T Unsigned](ptr *T, val T, order atomicmem.Order) T {
	switch unsafe.Sizeof(val) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			return T(atomic.SwapUint32((*uint32)(unsafe.Pointer(ptr)), uint32(val)))
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			return T(atomic.SwapUint64((*uint64)(unsafe.Pointer(ptr)), uint64(val)))
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	old := *ptr
	*ptr = val
	l.Release(token)
	return old
}

// CompareExchange atomically stores desired to *ptr and returns true if *ptr
// equals *expected; otherwise it writes the observed value into *expected
// and returns false. Strong semantics: it never fails when the stored value
// equals the expected value.
func CompareExchange[T Unsigned](ptr, expected *T, desired T, success, failure atomicmem.Order) bool {
	switch unsafe.Sizeof(desired) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			p := (*uint32)(unsafe.Pointer(ptr))
			exp := uint32(*expected)
			for {
				cur := atomic.LoadUint32(p)
				if cur != exp {
					*expected = T(cur)
					return false
				}
				if atomic.CompareAndSwapUint32(p, exp, uint32(desired)) {
					return true
				}
			}
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			p := (*uint64)(unsafe.Pointer(ptr))
			exp := uint64(*expected)
			for {
				cur := atomic.LoadUint64(p)
				if cur != exp {
					*expected = T(cur)
					return false
				}
				if atomic.CompareAndSwapUint64(p, exp, uint64(desired)) {
					return true
				}
			}
		}
	}
	l := lockFor(ptr)
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

// FetchAdd atomically adds v to *ptr with wraparound and returns the
// previous value.
func FetchAdd[T Unsigned](ptr *T, v T, order atomicmem.Order) T {
	switch unsafe.Sizeof(v) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			d := uint32(v)
			return T(atomic.AddUint32((*uint32)(unsafe.Pointer(ptr)), d) - d)
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			d := uint64(v)
			return T(atomic.AddUint64((*uint64)(unsafe.Pointer(ptr)), d) - d)
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	old := *ptr
	*ptr = old + v
	l.Release(token)
	return old
}

// FetchSub atomically subtracts v from *ptr with wraparound and returns the
// previous value.
func FetchSub[T Unsigned](ptr *T, v T, order atomicmem.Order) T {
	switch unsafe.Sizeof(v) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			d := uint32(v)
			return T(atomic.AddUint32((*uint32)(unsafe.Pointer(ptr)), -d) + d)
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			d := uint64(v)
			return T(atomic.AddUint64((*uint64)(unsafe.Pointer(ptr)), -d) + d)
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	old := *ptr
	*ptr = old - v
	l.Release(token)
	return old
}

// FetchAnd atomically stores *ptr & v and returns the previous value.
func FetchAnd[T Unsigned](ptr *T, v T, order atomicmem.Order) T {
	switch unsafe.Sizeof(v) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			p := (*uint32)(unsafe.Pointer(ptr))
			m := uint32(v)
			for {
				old := atomic.LoadUint32(p)
				if atomic.CompareAndSwapUint32(p, old, old&m) {
					return T(old)
				}
			}
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			p := (*uint64)(unsafe.Pointer(ptr))
			m := uint64(v)
			for {
				old := atomic.LoadUint64(p)
				if atomic.CompareAndSwapUint64(p, old, old&m) {
					return T(old)
				}
			}
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	old := *ptr
	*ptr = old & v
	l.Release(token)
	return old
}

// FetchOr atomically stores *ptr | v and returns the previous value.
func FetchOr[T Unsigned](ptr *T, v T, order atomicmem.Order) T {
	switch unsafe.Sizeof(v) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			p := (*uint32)(unsafe.Pointer(ptr))
			m := uint32(v)
			for {
				old := atomic.LoadUint32(p)
				if atomic.CompareAndSwapUint32(p, old, old|m) {
					return T(old)
				}
			}
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			p := (*uint64)(unsafe.Pointer(ptr))
			m := uint64(v)
			for {
				old := atomic.LoadUint64(p)
				if atomic.CompareAndSwapUint64(p, old, old|m) {
					return T(old)
				}
			}
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	old := *ptr
	*ptr = old | v
	l.Release(token)
	return old
}

// FetchXor atomically stores *ptr ^ v and returns the previous value.
func FetchXor[T Unsigned](ptr *T, v T, order atomicmem.Order) T {
	switch unsafe.Sizeof(v) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			p := (*uint32)(unsafe.Pointer(ptr))
			m := uint32(v)
			for {
				old := atomic.LoadUint32(p)
				if atomic.CompareAndSwapUint32(p, old, old^m) {
					return T(old)
				}
			}
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			p := (*uint64)(unsafe.Pointer(ptr))
			m := uint64(v)
			for {
				old := atomic.LoadUint64(p)
				if atomic.CompareAndSwapUint64(p, old, old^m) {
					return T(old)
				}
			}
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	old := *ptr
	*ptr = old ^ v
	l.Release(token)
	return old
}

// FetchNand atomically stores ^(*ptr & v) and returns the previous value.
func FetchNand[T Unsigned](ptr *T, v T, order atomicmem.Order) T {
	switch unsafe.Sizeof(v) {
	case 4:
		if atomicmem.IsLockFree(4, unsafe.Pointer(ptr)) {
			p := (*uint32)(unsafe.Pointer(ptr))
			m := uint32(v)
			for {
				old := atomic.LoadUint32(p)
				if atomic.CompareAndSwapUint32(p, old, ^(old & m)) {
					return T(old)
				}
			}
		}
	case 8:
		if atomicmem.IsLockFree(8, unsafe.Pointer(ptr)) {
			p := (*uint64)(unsafe.Pointer(ptr))
			m := uint64(v)
			for {
				old := atomic.LoadUint64(p)
				if atomic.CompareAndSwapUint64(p, old, ^(old & m)) {
					return T(old)
				}
			}
		}
	}
	l := lockFor(ptr)
	token := l.Acquire()
	old := *ptr
	*ptr = ^(old & v)
	l.Release(token)
	return old
}
