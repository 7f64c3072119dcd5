// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterate

import (
	"math"
	"testing"

	"github.com/gonum-community/mcintegrate/mcconfig"
	"github.com/gonum-community/mcintegrate/variable"
)

func newUnitIntervalConfig(t *testing.T, seed int64) *mcconfig.Configuration {
	t.Helper()
	vars := []variable.Variable{variable.NewContinuous(0, 1, 0, 500, 50, 1.5, true)}
	cfg, err := mcconfig.New(vars, [][]int{{1}}, seed)
	if err != nil {
		t.Fatalf("mcconfig.New: %v", err)
	}
	return cfg
}

func constantIntegrand(cfg *mcconfig.Configuration) ([]complex128, error) {
	return []complex128{1}, nil
}

func TestRunRecoversConstantIntegrandWithVegas(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 1)
	result, err := Run(cfg, constantIntegrand, Options{
		Solver:  SolverVegas,
		NEval:   2000,
		NIter:   4,
		Block:   4,
		Workers: 2,
		Ignore:  1,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := real(result.Mean[0])
	if math.Abs(got-1) > 0.1 {
		t.Errorf("Mean = %v, want close to 1", got)
	}
	if len(result.History) != 4 {
		t.Errorf("len(History) = %d, want 4 (every iteration stored)", len(result.History))
	}
}

func TestRunRejectsNonPositiveBlock(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 2)
	_, err := Run(cfg, constantIntegrand, Options{NEval: 10, NIter: 1, Block: 0})
	if err != ErrNoBlocks {
		t.Fatalf("got %v, want ErrNoBlocks", err)
	}
}

func TestRunReweightStaysProbabilityVector(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 3)
	_, err := Run(cfg, constantIntegrand, Options{
		Solver: SolverVegas,
		NEval:  1000,
		NIter:  3,
		Block:  2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := cfg.CheckReweight(); err != nil {
		t.Errorf("CheckReweight() = %v, want nil", err)
	}
}

func TestRoundUpToMultiple(t *testing.T) {
	cases := []struct{ n, m, want int }{
		{5, 2, 6},
		{4, 2, 4},
		{1, 4, 4},
		{0, 4, 4},
	}
	for _, c := range cases {
		if got := roundUpToMultiple(c.n, c.m); got != c.want {
			t.Errorf("roundUpToMultiple(%d, %d) = %d, want %d", c.n, c.m, got, c.want)
		}
	}
}
