// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package propose

import (
	"errors"
	"math"
	"testing"

	"github.com/gonum-community/mcintegrate/mcconfig"
	"github.com/gonum-community/mcintegrate/variable"
)

func newUnitIntervalConfig(t *testing.T, dof [][]int, seed int64) *mcconfig.Configuration {
	t.Helper()
	x := variable.NewContinuous(0, 1, 0, 10, 20, 1.5, true)
	cfg, err := mcconfig.New([]variable.Variable{x}, dof, seed)
	if err != nil {
		t.Fatalf("mcconfig.New: %v", err)
	}
	return cfg
}

func constantIntegrand(n int) Integrand {
	return func(cfg *mcconfig.Configuration) ([]complex128, error) {
		values := make([]complex128, n)
		for i := range values {
			values[i] = 1
		}
		return values, nil
	}
}

func TestChangeVariableAlwaysAcceptsConstantIntegrand(t *testing.T) {
	cfg := newUnitIntervalConfig(t, [][]int{{1}}, 1)
	for i := 0; i < 20; i++ {
		if _, err := ChangeVariable(cfg, 0, constantIntegrand(1)); err != nil {
			t.Fatalf("ChangeVariable: %v", err)
		}
	}
	if cfg.Propose[changeVariableMove][0][0] != 20 {
		t.Errorf("Propose count = %v, want 20", cfg.Propose[changeVariableMove][0][0])
	}
	if cfg.Accept[changeVariableMove][0][0] != 20 {
		t.Errorf("Accept count = %v, want 20", cfg.Accept[changeVariableMove][0][0])
	}
}

func TestChangeVariablePropagatesNonFiniteError(t *testing.T) {
	cfg := newUnitIntervalConfig(t, [][]int{{1}}, 1)
	bad := func(cfg *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{complex(math.Inf(1), 0)}, nil
	}
	_, err := ChangeVariable(cfg, 0, bad)
	var nf *NonFiniteError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want *NonFiniteError", err)
	}
}

func TestSwapVariableNoOpWithSingleSlot(t *testing.T) {
	cfg := newUnitIntervalConfig(t, [][]int{{1}}, 1)
	accepted, err := SwapVariable(cfg, 0, constantIntegrand(1))
	if err != nil {
		t.Fatalf("SwapVariable: %v", err)
	}
	if accepted {
		t.Errorf("accepted a swap with fewer than 2 slots")
	}
}

func TestSwapVariableRollsBackOnRejection(t *testing.T) {
	cfg := newUnitIntervalConfig(t, [][]int{{3}}, 1)
	before := make([]float64, 4)
	for idx := 1; idx <= 3; idx++ {
		before[idx] = cfg.Var[0].(*variable.Continuous).Value(idx)
	}

	zero := func(cfg *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{0}, nil
	}
	accepted, err := SwapVariable(cfg, 0, zero)
	if err != nil {
		t.Fatalf("SwapVariable: %v", err)
	}
	if accepted {
		t.Fatalf("a zero-valued integrand should never accept a swap via Metropolis")
	}
	for idx := 1; idx <= 3; idx++ {
		got := cfg.Var[0].(*variable.Continuous).Value(idx)
		if got != before[idx] {
			t.Errorf("slot %d = %v after rejected swap, want unchanged %v", idx, got, before[idx])
		}
	}
}

// TestChangeVariableLeavesPaddingFactorUnchanged guards the Metropolis
// ratio in ChangeVariable: a shift of slot idx is confined to
// [offset+1, DOF[k][v]], so it never touches the padding slots
// (DOF[k][v]+1..MaxDOF[v]) that PaddingFactor(k) depends on, and
// PaddingFactor(k) must read back identical before and after the move.
func TestChangeVariableLeavesPaddingFactorUnchanged(t *testing.T) {
	x := variable.NewContinuous(0, 1, 0, 10, 20, 1.5, true)
	cfg, err := mcconfig.New([]variable.Variable{x}, [][]int{{3}, {1}}, 1)
	if err != nil {
		t.Fatalf("mcconfig.New: %v", err)
	}
	cfg.Curr = 1 // DOF 1 here, 3 for integrand 0: MaxDOF is 3, so slots 2-3 pad.

	before := cfg.PaddingFactor(1)
	if _, err := ChangeVariable(cfg, 0, constantIntegrand(2)); err != nil {
		t.Fatalf("ChangeVariable: %v", err)
	}
	after := cfg.PaddingFactor(1)

	if before != after {
		t.Errorf("PaddingFactor(1) changed from %v to %v across a ChangeVariable move confined to slot 1", before, after)
	}
}

func TestNeighborNeverReturnsK(t *testing.T) {
	cfg := newUnitIntervalConfig(t, [][]int{{1}, {1}, {1}}, 1)
	for k := 0; k <= cfg.N; k++ {
		for i := 0; i < 50; i++ {
			if got := neighbor(cfg, k); got == k {
				t.Errorf("neighbor(%d) = %d, want different integrand", k, got)
			}
		}
	}
}

func TestChangeIntegrandUpdatesVisitedCounter(t *testing.T) {
	cfg := newUnitIntervalConfig(t, [][]int{{1}, {1}}, 1)
	var totalVisited float64
	for i := 0; i < 50; i++ {
		if _, _, err := ChangeIntegrand(cfg, constantIntegrand(2)); err != nil {
			t.Fatalf("ChangeIntegrand: %v", err)
		}
	}
	for _, v := range cfg.Visited {
		totalVisited += v
	}
	if totalVisited == 0 {
		t.Errorf("no integrand was ever visited after 50 proposals")
	}
}
