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
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"softatomic.dev/softatomic/pkg/atomicmem"
)

func TestUint128LoadStoreExchange(t *testing.T) {
	var v Uint128
	a := Uint128{Lo: 1, Hi: 2}
	b := Uint128{Lo: 3, Hi: 4}

	StoreUint128(&v, a, atomicmem.SeqCst)
	if got := LoadUint128(&v, atomicmem.SeqCst); got != a {
		t.Errorf("Load after Store: got %+v, wanted %+v", got, a)
	}
	if old := ExchangeUint128(&v, b, atomicmem.SeqCst); old != a {
		t.Errorf("Exchange old: got %+v, wanted %+v", old, a)
	}
	if v != b {
		t.Errorf("Exchange stored: got %+v, wanted %+v", v, b)
	}
}

func TestUint128CompareExchange(t *testing.T) {
	v := Uint128{Lo: 7, Hi: 8}
	expected := Uint128{Lo: 7, Hi: 8}
	desired := Uint128{Lo: 9, Hi: 10}

	if !CompareExchangeUint128(&v, &expected, desired, atomicmem.SeqCst, atomicmem.SeqCst) {
		t.Error("CompareExchange with matching expected failed")
	}
	if v != desired {
		t.Errorf("memory after successful CAS: got %+v, wanted %+v", v, desired)
	}

	expected = Uint128{Lo: 1, Hi: 1}
	if CompareExchangeUint128(&v, &expected, Uint128{}, atomicmem.SeqCst, atomicmem.SeqCst) {
		t.Error("CompareExchange with mismatched expected succeeded")
	}
	if diff := cmp.Diff(desired, expected); diff != "" {
		t.Errorf("failed CAS expected out (-want +got):\n%s", diff)
	}
	if v != desired {
		t.Errorf("memory changed by failed CAS: got %+v", v)
	}
}

func TestUint128AddCarry(t *testing.T) {
	v := Uint128{Lo: ^uint64(0), Hi: 5}
	if old := FetchAddUint128(&v, Uint128{Lo: 1}, atomicmem.SeqCst); old.Lo != ^uint64(0) || old.Hi != 5 {
		t.Errorf("FetchAdd old: got %+v", old)
	}
	if want := (Uint128{Lo: 0, Hi: 6}); v != want {
		t.Errorf("carry into Hi: got %+v, wanted %+v", v, want)
	}

	if old := FetchSubUint128(&v, Uint128{Lo: 1}, atomicmem.SeqCst); old != (Uint128{Lo: 0, Hi: 6}) {
		t.Errorf("FetchSub old: got %+v", old)
	}
	if want := (Uint128{Lo: ^uint64(0), Hi: 5}); v != want {
		t.Errorf("borrow from Hi: got %+v, wanted %+v", v, want)
	}
}

func TestUint128Bitwise(t *testing.T) {
	v := Uint128{Lo: 0b1100, Hi: 0b0011}
	if old := FetchAndUint128(&v, Uint128{Lo: 0b1010, Hi: 0b0110}, atomicmem.SeqCst); old != (Uint128{Lo: 0b1100, Hi: 0b0011}) {
		t.Errorf("FetchAnd old: got %+v", old)
	}
	if want := (Uint128{Lo: 0b1000, Hi: 0b0010}); v != want {
		t.Errorf("FetchAnd: got %+v, wanted %+v", v, want)
	}

	if old := FetchOrUint128(&v, Uint128{Lo: 0b0001, Hi: 0b0100}, atomicmem.SeqCst); old != (Uint128{Lo: 0b1000, Hi: 0b0010}) {
		t.Errorf("FetchOr old: got %+v", old)
	}
	if want := (Uint128{Lo: 0b1001, Hi: 0b0110}); v != want {
		t.Errorf("FetchOr: got %+v, wanted %+v", v, want)
	}

	if old := FetchXorUint128(&v, Uint128{Lo: 0b1111, Hi: 0b1111}, atomicmem.SeqCst); old != (Uint128{Lo: 0b1001, Hi: 0b0110}) {
		t.Errorf("FetchXor old: got %+v", old)
	}
	if want := (Uint128{Lo: 0b0110, Hi: 0b1001}); v != want {
		t.Errorf("FetchXor: got %+v, wanted %+v", v, want)
	}

	v = Uint128{Lo: 0b1101, Hi: 0}
	old := FetchNandUint128(&v, Uint128{Lo: 0b0101, Hi: 0}, atomicmem.SeqCst)
	if old != (Uint128{Lo: 0b1101, Hi: 0}) {
		t.Errorf("FetchNand old: got %+v", old)
	}
	if want := (Uint128{Lo: ^uint64(0b0101), Hi: ^uint64(0)}); v != want {
		t.Errorf("FetchNand: got %+v, wanted %+v", v, want)
	}
}

func TestUint128FetchAddStress(t *testing.T) {
	const (
		workers = 4
		iters   = 20000
	)
	var counter Uint128
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				FetchAddUint128(&counter, Uint128{Lo: 1}, atomicmem.Relaxed)
			}
		}()
	}
	wg.Wait()
	want := Uint128{Lo: workers * iters}
	if counter != want {
		t.Errorf("lost updates: got %+v, wanted %+v", counter, want)
	}
}
