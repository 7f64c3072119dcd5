// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vegasmc

import (
	"math"
	"testing"

	"github.com/gonum-community/mcintegrate/mcconfig"
	"github.com/gonum-community/mcintegrate/variable"
)

func newUnitIntervalConfig(t *testing.T, seed int64) *mcconfig.Configuration {
	t.Helper()
	vars := []variable.Variable{variable.NewContinuous(0, 1, 0, 2000, 50, 1.5, true)}
	cfg, err := mcconfig.New(vars, [][]int{{1}}, seed)
	if err != nil {
		t.Fatalf("mcconfig.New: %v", err)
	}
	return cfg
}

func TestRunBlockRecoversConstantIntegrand(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 11)
	cfg.SeedBlock(0)

	integrand := func(c *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{1}, nil
	}

	estimate, err := RunBlock(cfg, integrand, 50000, Config{})
	if err != nil {
		t.Fatalf("RunBlock: %v", err)
	}
	got := real(estimate[0])
	if math.Abs(got-1) > 0.1 {
		t.Errorf("estimate = %v, want close to 1", got)
	}
}

func TestRunBlockReturnsErrorOnNonFiniteValue(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 12)
	cfg.SeedBlock(0)

	integrand := func(c *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{complex(math.Inf(1), 0)}, nil
	}

	if _, err := RunBlock(cfg, integrand, 500, Config{}); err == nil {
		t.Fatal("RunBlock with non-finite value: want error, got nil")
	}
}

func TestMixtureDensityIsWeightedSum(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 13)
	cfg.SeedBlock(0)
	cfg.Reweight[0] = 0.5
	cfg.Reweight[1] = 0.5

	p := mixtureDensity(cfg, []complex128{2})
	padUser := cfg.PaddingFactor(0)
	padNorm := cfg.PaddingFactor(1)
	want := 0.5*padUser*2 + 0.5*padNorm*1
	if math.Abs(p-want) > 1e-12 {
		t.Errorf("mixtureDensity = %v, want %v", p, want)
	}
}

func TestVisitedAccumulatesAcrossBlock(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 14)
	cfg.SeedBlock(0)

	integrand := func(c *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{1}, nil
	}

	if _, err := RunBlock(cfg, integrand, 5000, Config{MeasureFreq: 3}); err != nil {
		t.Fatalf("RunBlock: %v", err)
	}
	var total float64
	for _, v := range cfg.Visited {
		total += v
	}
	if total <= 0 {
		t.Errorf("total visited = %v, want > 0", total)
	}
}
