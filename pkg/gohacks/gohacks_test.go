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

package gohacks

import (
	"bytes"
	"testing"
	"unsafe"
)

func TestMemmove(t *testing.T) {
	for _, n := range []uintptr{0, 1, 2, 3, 4, 7, 8, 15, 16, 24, 64} {
		src := make([]byte, n+1)
		dst := make([]byte, n+1)
		for i := range src {
			src[i] = byte(i + 1)
		}
		dst[n] = 0xaa // canary past the copied region
		Memmove(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), n)
		if !bytes.Equal(dst[:n], src[:n]) {
			t.Errorf("Memmove(n=%d): got %v, wanted %v", n, dst[:n], src[:n])
		}
		if dst[n] != 0xaa {
			t.Errorf("Memmove(n=%d): wrote past the region", n)
		}
	}
}

func TestMemmoveOverlapping(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	Memmove(unsafe.Pointer(&buf[2]), unsafe.Pointer(&buf[0]), 6)
	want := []byte{1, 2, 1, 2, 3, 4, 5, 6}
	if !bytes.Equal(buf, want) {
		t.Errorf("overlapping Memmove: got %v, wanted %v", buf, want)
	}
}
