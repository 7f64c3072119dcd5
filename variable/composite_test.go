// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package variable

import (
	"math/rand"
	"testing"
)

func TestCompositeVarProbIsProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a := NewContinuous(0, 1, 0, 100, 10, 2, true)
	b := NewContinuous(0, 1, 0, 100, 10, 2, true)
	c := NewCompositeVar(a, b)
	c.Initialize(rng)

	const idx = 3
	want := a.Prob(idx) * b.Prob(idx)
	if got := c.Prob(idx); got != want {
		t.Errorf("CompositeVar.Prob = %v, want product %v", got, want)
	}
}

func TestCompositeVarMismatchedChildrenPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on mismatched child shapes")
		}
	}()
	a := NewContinuous(0, 1, 0, 100, 10, 2, true)
	b := NewContinuous(0, 1, 1, 100, 10, 2, true)
	NewCompositeVar(a, b)
}
