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

// Package atomicmem provides atomic memory accesses of runtime-determined
// size. Each operation first checks whether the host can perform it with a
// native lock-free instruction; if so it delegates to sync/atomic, otherwise
// it hashes the address to a slot of the locktable and performs the access
// as a plain byte-region update under that interrupt-guarded spinlock.
//
// Atomicity is per target address: two operations on the same address are
// linearizable with respect to each other. Operations on different addresses
// that collide on a lock slot are serialized for throughput purposes only;
// no ordering between them is implied. There are no multi-location atomics.
//
// Callers own the contract: pointers must address size valid bytes, and
// sizes must be sane for the data being accessed. A size of 0 is a contract
// violation and degenerates to a no-op; it is not reported. A region must be
// accessed at one consistent size — mixing, say, 4-byte lock-free accesses
// with overlapping locked 16-byte accesses tears, exactly as mixed-size
// atomics do on hardware.
package atomicmem

import (
	"sync/atomic"
	"unsafe"

	"softatomic.dev/softatomic/pkg/gohacks"
	"softatomic.dev/softatomic/pkg/locktable"
)

// IsLockFree reports whether the host performs atomic operations of the
// given size at the given address without software locking. A size
// qualifies when the Go runtime reaches a hardware instruction for it (4-
// and 8-byte accesses via sync/atomic) and the pointer is naturally
// aligned. 1-, 2- and 16-byte accesses have no native instruction exposed
// to Go and always take the locked path. Pure predicate; no side effects.
func IsLockFree(size uintptr, ptr unsafe.Pointer) bool {
	switch size {
	case 4, 8:
		return uintptr(ptr)%size == 0
	}
	return false
}

// Load atomically reads size bytes from src into dst. Atomic with respect to
// the source address only; dst is caller-private memory.
func Load(size uintptr, src, dst unsafe.Pointer, order Order) {
	if IsLockFree(size, src) {
		switch size {
		case 4:
			*(*uint32)(dst) = atomic.LoadUint32((*uint32)(src))
		case 8:
			*(*uint64)(dst) = atomic.LoadUint64((*uint64)(src))
		}
		return
	}
	l := locktable.ForPointer(src)
	token := l.Acquire()
	gohacks.Memmove(dst, src, size)
	l.Release(token)
}

// Store atomically writes size bytes from src to dst. Atomic with respect to
// the destination address only; src is caller-private memory.
func Store(size uintptr, dst, src unsafe.Pointer, order Order) {
	if IsLockFree(size, dst) {
		switch size {
		case 4:
			atomic.StoreUint32((*uint32)(dst), *(*uint32)(src))
		case 8:
			atomic.StoreUint64((*uint64)(dst), *(*uint64)(src))
		}
		return
	}
	l := locktable.ForPointer(dst)
	token := l.Acquire()
	gohacks.Memmove(dst, src, size)
	l.Release(token)
}

// Exchange atomically replaces the size bytes at ptr with the bytes at val,
// depositing the previous contents at old. Atomic with respect to the target
// address; val and old are caller-private memory.
func Exchange(size uintptr, ptr, val, old unsafe.Pointer, order Order) {
	if IsLockFree(size, ptr) {
		switch size {
		case 4:
			*(*uint32)(old) = atomic.SwapUint32((*uint32)(ptr), *(*uint32)(val))
		case 8:
			*(*uint64)(old) = atomic.SwapUint64((*uint64)(ptr), *(*uint64)(val))
		}
		return
	}
	l := locktable.ForPointer(ptr)
	token := l.Acquire()
	gohacks.Memmove(old, ptr, size)
	gohacks.Memmove(ptr, val, size)
	l.Release(token)
}

// CompareExchange atomically compares the size bytes at ptr with the bytes
// at expected; on equality it stores the bytes at desired and returns true.
// Otherwise it copies the observed contents of ptr into expected and returns
// false. Semantics are strong: the operation never fails when the stored
// value equals the expected value. A false return is a normal outcome, not
// an error.
func CompareExchange(size uintptr, ptr, expected, desired unsafe.Pointer, success, failure Order) bool {
	if IsLockFree(size, ptr) {
		switch size {
		case 4:
			p := (*uint32)(ptr)
			exp := *(*uint32)(expected)
			for {
				cur := atomic.LoadUint32(p)
				if cur != exp {
					*(*uint32)(expected) = cur
					return false
				}
				if atomic.CompareAndSwapUint32(p, exp, *(*uint32)(desired)) {
					return true
				}
			}
		case 8:
			p := (*uint64)(ptr)
			exp := *(*uint64)(expected)
			for {
				cur := atomic.LoadUint64(p)
				if cur != exp {
					*(*uint64)(expected) = cur
					return false
				}
				if atomic.CompareAndSwapUint64(p, exp, *(*uint64)(desired)) {
					return true
				}
			}
		}
	}
	l := locktable.ForPointer(ptr)
	token := l.Acquire()
	if memequal(ptr, expected, size) {
		gohacks.Memmove(ptr, desired, size)
		l.Release(token)
		return true
	}
	gohacks.Memmove(expected, ptr, size)
	l.Release(token)
	return false
}

// memequal compares two size-byte regions. Called only under the region's
// lock, where plain reads are safe.
func memequal(a, b unsafe.Pointer, size uintptr) bool {
	ab := unsafe.Slice((*byte)(a), size)
	bb := unsafe.Slice((*byte)(b), size)
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}
