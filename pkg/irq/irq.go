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

// Package irq is the local-interrupt masking surface that the atomic
// operation runtime depends on. The runtime itself never manipulates the
// interrupt controller; it only requires two primitives from the platform it
// is integrated into: disable local interrupts returning an opaque token, and
// restore the prior interrupt state from that token.
//
// The platform (an embedded runtime port, a kernel integration layer, or a
// test harness) installs its implementation once at startup via
// SetController. The default controller is a no-op, which is the correct
// behavior for hosted builds: there, no interrupt handler can run on the
// caller's stack, and the spinlock's compare-and-swap alone covers all
// contention.
package irq

// Token is an opaque capture of the prior local-interrupt enable state. It is
// produced by DisableSave and must be consumed exactly once by a matching
// Restore. Tokens are not reentrant: each DisableSave must be paired with
// exactly one Restore using the same token, in LIFO order on a given core.
type Token uintptr

// Controller disables and restores local interrupt delivery for the calling
// core. Implementations must be callable from any context the atomic runtime
// is callable from, including interrupt handlers; they must not allocate,
// block, or yield.
type Controller interface {
	// DisableSave atomically disables local interrupt delivery and returns
	// a token capturing the prior enable state.
	DisableSave() Token

	// Restore restores local interrupt delivery to the state captured in
	// the token.
	Restore(Token)
}

// controller is set once during platform initialization, before any atomic
// operation runs, and never changes afterward. A plain variable keeps the
// hot path to a single indirect call.
var controller Controller = nopController{}

// SetController installs the platform's interrupt controller. It must be
// called before the first atomic operation and never concurrently with one;
// this mirrors the link-time binding of the masking primitives in a
// freestanding build.
func SetController(c Controller) {
	if c == nil {
		c = nopController{}
	}
	controller = c
}

// DisableSave disables local interrupts via the installed controller and
// returns the restore token.
func DisableSave() Token {
	return controller.DisableSave()
}

// Restore restores local interrupts from a token produced by DisableSave.
func Restore(t Token) {
	controller.Restore(t)
}

// nopController is the hosted-build default: interrupt masking is neither
// possible nor needed, so both primitives do nothing.
type nopController struct{}

func (nopController) DisableSave() Token { return 0 }

func (nopController) Restore(Token) {}
