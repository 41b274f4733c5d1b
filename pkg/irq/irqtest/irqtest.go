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

// Package irqtest provides a recording irq.Controller for tests. It stands in
// for the platform interrupt controller the way the surrounding kernel
// supplies the real masking primitives, and lets tests assert that every
// disable is paired with exactly one restore.
package irqtest

import (
	"sync/atomic"

	"softatomic.dev/softatomic/pkg/irq"
)

// Controller counts DisableSave/Restore calls and tracks the current mask
// nesting depth. The zero value is ready to use.
type Controller struct {
	depth    atomic.Int64
	saves    atomic.Int64
	restores atomic.Int64
}

var _ irq.Controller = (*Controller)(nil)

// DisableSave implements irq.Controller.DisableSave. The returned token
// encodes the nesting depth before this call, matching the convention of
// hardware status-register tokens (the token from the outermost disable is
// the one that re-enables).
func (c *Controller) DisableSave() irq.Token {
	d := c.depth.Add(1)
	c.saves.Add(1)
	return irq.Token(d - 1)
}

// Restore implements irq.Controller.Restore. It panics on a restore without
// a matching disable, which is a caller discipline bug the real hardware
// would silently turn into misbehavior.
func (c *Controller) Restore(irq.Token) {
	c.restores.Add(1)
	if c.depth.Add(-1) < 0 {
		panic("irqtest: Restore without matching DisableSave")
	}
}

// Masked reports whether at least one DisableSave is currently unmatched,
// i.e. whether local interrupts would be masked on real hardware.
func (c *Controller) Masked() bool {
	return c.depth.Load() > 0
}

// Saves returns the total number of DisableSave calls observed.
func (c *Controller) Saves() int64 {
	return c.saves.Load()
}

// Restores returns the total number of Restore calls observed.
func (c *Controller) Restores() int64 {
	return c.restores.Load()
}

// Balanced reports whether every DisableSave has been matched by a Restore.
func (c *Controller) Balanced() bool {
	return c.depth.Load() == 0 && c.saves.Load() == c.restores.Load()
}
