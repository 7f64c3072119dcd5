// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vegas

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/gonum-community/mcintegrate/mcconfig"
	"github.com/gonum-community/mcintegrate/propose"
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
	cfg := newUnitIntervalConfig(t, 1)
	cfg.SeedBlock(0)

	integrand := func(c *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{1}, nil
	}

	estimate, err := RunBlock(cfg, integrand, 20000)
	if err != nil {
		t.Fatalf("RunBlock: %v", err)
	}
	got := real(estimate[0])
	if math.Abs(got-1) > 0.05 {
		t.Errorf("estimate = %v, want close to 1", got)
	}
}

func TestRunBlockRecoversLinearIntegrand(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 2)
	cfg.SeedBlock(0)

	c := cfg.Var[0].(*variable.Continuous)
	integrand := func(cf *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{complex(2 * c.Value(1), 0)}, nil
	}

	estimate, err := RunBlock(cfg, integrand, 20000)
	if err != nil {
		t.Fatalf("RunBlock: %v", err)
	}
	// integral of 2x over [0,1] is 1.
	got := real(estimate[0])
	if math.Abs(got-1) > 0.08 {
		t.Errorf("estimate = %v, want close to 1", got)
	}
}

func TestRunBlockAbortsOnNonFiniteValue(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 3)
	cfg.SeedBlock(0)

	integrand := func(c *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{cmplx.Inf()}, nil
	}

	_, err := RunBlock(cfg, integrand, 10)
	var nfe *propose.NonFiniteError
	if !errors.As(err, &nfe) {
		t.Fatalf("RunBlock error = %v, want *propose.NonFiniteError", err)
	}
}

func TestRunBlockRejectsWrongIntegrandCount(t *testing.T) {
	cfg := newUnitIntervalConfig(t, 4)
	cfg.SeedBlock(0)

	integrand := func(c *mcconfig.Configuration) ([]complex128, error) {
		return []complex128{1, 2}, nil
	}

	if _, err := RunBlock(cfg, integrand, 5); err == nil {
		t.Fatal("RunBlock with mismatched integrand count: want error, got nil")
	}
}
