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

//go:build !locktable_small && !locktable_large

package locktable

// Size is the number of slots in the lock table. Always a power of two.
//
// The default trades one page of lock state on 32-bit targets (two on
// 64-bit) against collision probability. Integrating builds that want a
// different trade select the locktable_small or locktable_large build tag.
const Size = 1 << 10
