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

import (
	"bytes"
	"sync"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

// cell returns a pointer into buf such that uintptr(ptr)%align == misalign,
// with at least size addressable bytes behind it.
func cell(t *testing.T, buf []byte, align, misalign, size uintptr) unsafe.Pointer {
	t.Helper()
	base := uintptr(unsafe.Pointer(&buf[0]))
	for off := uintptr(0); off+size <= uintptr(len(buf)); off++ {
		if (base+off)%align == misalign {
			return unsafe.Pointer(&buf[off])
		}
	}
	t.Fatalf("no offset with alignment %d+%d in %d-byte buffer", align, misalign, len(buf))
	return nil
}

func TestIsLockFree(t *testing.T) {
	buf := make([]byte, 64)
	for _, tc := range []struct {
		size     uintptr
		misalign uintptr
		want     bool
	}{
		{4, 0, true},
		{8, 0, true},
		{4, 1, false},
		{4, 2, false},
		{8, 4, false},
		{1, 0, false},
		{2, 0, false},
		{16, 0, false},
		{3, 0, false},
		{0, 0, false},
	} {
		align := tc.size
		if align == 0 {
			align = 1
		}
		p := cell(t, buf, align, tc.misalign, tc.size)
		if got := IsLockFree(tc.size, p); got != tc.want {
			t.Errorf("IsLockFree(size=%d, %%%d==%d): got %v, wanted %v", tc.size, align, tc.misalign, got, tc.want)
		}
	}
}

var testSizes = []uintptr{1, 2, 3, 4, 5, 7, 8, 9, 15, 16, 24}

func pattern(size uintptr, seed byte) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = seed + byte(i)*3
	}
	return b
}

func TestLoadStoreRoundTrip(t *testing.T) {
	for _, size := range testSizes {
		buf := make([]byte, 64)
		p := cell(t, buf, 8, 0, size)
		want := pattern(size, 0x11)

		Store(size, p, unsafe.Pointer(&want[0]), SeqCst)
		got := make([]byte, size)
		Load(size, p, unsafe.Pointer(&got[0]), SeqCst)

		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("size %d: load after store mismatch (-want +got):\n%s", size, diff)
		}
	}
}

func TestExchange(t *testing.T) {
	for _, size := range testSizes {
		buf := make([]byte, 64)
		p := cell(t, buf, 8, 0, size)
		initial := pattern(size, 0x22)
		next := pattern(size, 0x77)
		old := make([]byte, size)

		Store(size, p, unsafe.Pointer(&initial[0]), SeqCst)
		Exchange(size, p, unsafe.Pointer(&next[0]), unsafe.Pointer(&old[0]), SeqCst)

		if !bytes.Equal(old, initial) {
			t.Errorf("size %d: Exchange old: got %v, wanted %v", size, old, initial)
		}
		got := make([]byte, size)
		Load(size, p, unsafe.Pointer(&got[0]), SeqCst)
		if !bytes.Equal(got, next) {
			t.Errorf("size %d: Exchange stored: got %v, wanted %v", size, got, next)
		}
	}
}

func TestCompareExchangeSuccess(t *testing.T) {
	for _, size := range testSizes {
		buf := make([]byte, 64)
		p := cell(t, buf, 8, 0, size)
		initial := pattern(size, 0x33)
		desired := pattern(size, 0x99)
		expected := append([]byte(nil), initial...)

		Store(size, p, unsafe.Pointer(&initial[0]), SeqCst)
		ok := CompareExchange(size, p, unsafe.Pointer(&expected[0]), unsafe.Pointer(&desired[0]), SeqCst, SeqCst)

		if !ok {
			t.Errorf("size %d: CompareExchange with matching expected failed", size)
		}
		if !bytes.Equal(expected, initial) {
			t.Errorf("size %d: expected modified on success: %v", size, expected)
		}
		got := make([]byte, size)
		Load(size, p, unsafe.Pointer(&got[0]), SeqCst)
		if !bytes.Equal(got, desired) {
			t.Errorf("size %d: memory after successful CAS: got %v, wanted %v", size, got, desired)
		}
	}
}

func TestCompareExchangeFailure(t *testing.T) {
	for _, size := range testSizes {
		buf := make([]byte, 64)
		p := cell(t, buf, 8, 0, size)
		initial := pattern(size, 0x44)
		desired := pattern(size, 0x99)
		wrong := pattern(size, 0x55)
		expected := append([]byte(nil), wrong...)

		Store(size, p, unsafe.Pointer(&initial[0]), SeqCst)
		ok := CompareExchange(size, p, unsafe.Pointer(&expected[0]), unsafe.Pointer(&desired[0]), SeqCst, SeqCst)

		if ok {
			t.Errorf("size %d: CompareExchange with mismatched expected succeeded", size)
		}
		if !bytes.Equal(expected, initial) {
			t.Errorf("size %d: failed CAS expected out: got %v, wanted observed %v", size, expected, initial)
		}
		got := make([]byte, size)
		Load(size, p, unsafe.Pointer(&got[0]), SeqCst)
		if !bytes.Equal(got, initial) {
			t.Errorf("size %d: memory changed by failed CAS: got %v, wanted %v", size, got, initial)
		}
	}
}

// Lock-free and locked paths must produce bit-identical results. For the
// lock-free-eligible sizes, run every operation against an aligned cell
// (native path) and a deliberately misaligned cell (locked path) and compare
// outcomes.
func TestPathEquivalence(t *testing.T) {
	for _, size := range []uintptr{4, 8} {
		aligned := make([]byte, 64)
		misaligned := make([]byte, 64)
		pa := cell(t, aligned, size, 0, size)
		pm := cell(t, misaligned, size, 1, size)
		if IsLockFree(size, pm) {
			t.Fatalf("size %d: misaligned cell unexpectedly lock-free", size)
		}

		initial := pattern(size, 0x10)
		value := pattern(size, 0x60)

		type result struct {
			Memory []byte
			Old    []byte
			CASOK  bool
			CASOut []byte
		}
		run := func(p unsafe.Pointer) result {
			Store(size, p, unsafe.Pointer(&initial[0]), SeqCst)
			old := make([]byte, size)
			Exchange(size, p, unsafe.Pointer(&value[0]), unsafe.Pointer(&old[0]), SeqCst)
			expected := append([]byte(nil), initial...) // now stale
			desired := pattern(size, 0xe0)
			ok := CompareExchange(size, p, unsafe.Pointer(&expected[0]), unsafe.Pointer(&desired[0]), SeqCst, SeqCst)
			mem := make([]byte, size)
			Load(size, p, unsafe.Pointer(&mem[0]), SeqCst)
			return result{Memory: mem, Old: old, CASOK: ok, CASOut: expected}
		}

		if diff := cmp.Diff(run(pa), run(pm)); diff != "" {
			t.Errorf("size %d: lock-free and locked paths diverge (-lockfree +locked):\n%s", size, diff)
		}
	}
}

// Two writers alternate a 16-byte cell between all-ones and all-zeros while
// readers watch for torn values. The 16-byte size always takes the locked
// path, so this exercises mutual exclusion end to end.
func TestNoTornReads(t *testing.T) {
	const (
		size  = 16
		iters = 20000
	)
	buf := make([]byte, 64)
	p := cell(t, buf, 8, 0, size)
	ones := bytes.Repeat([]byte{0xff}, size)
	zeros := make([]byte, size)

	var writers, readers sync.WaitGroup
	stop := make(chan struct{})
	for _, img := range [][]byte{ones, zeros} {
		img := img
		writers.Add(1)
		go func() {
			defer writers.Done()
			for i := 0; i < iters; i++ {
				Store(size, p, unsafe.Pointer(&img[0]), SeqCst)
			}
		}()
	}
	for r := 0; r < 2; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			got := make([]byte, size)
			for {
				select {
				case <-stop:
					return
				default:
				}
				Load(size, p, unsafe.Pointer(&got[0]), SeqCst)
				if !bytes.Equal(got, ones) && !bytes.Equal(got, zeros) {
					t.Errorf("torn read: %v", got)
					return
				}
			}
		}()
	}
	writers.Wait()
	close(stop)
	readers.Wait()
}

// A 16-byte counter incremented only through CompareExchange must not lose
// updates under contention on the locked path.
func TestCompareExchangeContended(t *testing.T) {
	const (
		workers = 4
		iters   = 5000
	)
	buf := make([]byte, 64)
	p := cell(t, buf, 8, 0, 16)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				var expected [2]uint64
				Load(16, p, unsafe.Pointer(&expected[0]), SeqCst)
				for {
					desired := [2]uint64{expected[0] + 1, expected[1]}
					if CompareExchange(16, p, unsafe.Pointer(&expected[0]), unsafe.Pointer(&desired[0]), SeqCst, SeqCst) {
						break
					}
					// expected now holds the observed value; retry.
				}
			}
		}()
	}
	wg.Wait()

	var got [2]uint64
	Load(16, p, unsafe.Pointer(&got[0]), SeqCst)
	if want := uint64(workers * iters); got[0] != want {
		t.Errorf("lost CAS updates: got %d, wanted %d", got[0], want)
	}
}

func TestOrderString(t *testing.T) {
	for o, want := range map[Order]string{
		Relaxed:   "relaxed",
		Consume:   "consume",
		Acquire:   "acquire",
		Release:   "release",
		AcqRel:    "acq_rel",
		SeqCst:    "seq_cst",
		Order(99): "unknown",
	} {
		if got := o.String(); got != want {
			t.Errorf("Order(%d).String(): got %q, wanted %q", int(o), got, want)
		}
	}
}

func BenchmarkLoadLockFree8(b *testing.B) {
	var v uint64
	var out uint64
	for i := 0; i < b.N; i++ {
		Load(8, unsafe.Pointer(&v), unsafe.Pointer(&out), SeqCst)
	}
}

func BenchmarkLoadLocked16(b *testing.B) {
	var v [2]uint64
	var out [2]uint64
	for i := 0; i < b.N; i++ {
		Load(16, unsafe.Pointer(&v), unsafe.Pointer(&out), SeqCst)
	}
}
