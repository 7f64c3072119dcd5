// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcintegrate

import (
	"errors"

	"github.com/gonum-community/mcintegrate/iterate"
	"github.com/gonum-community/mcintegrate/mcconfig"
	"github.com/gonum-community/mcintegrate/mcstat"
	"github.com/gonum-community/mcintegrate/propose"
	"github.com/gonum-community/mcintegrate/variable"
)

// Integrand is a user-supplied pure function of the variable tuple held
// in cfg, returning N scalar (real or complex) weights. It must be
// deterministic given the samples currently held in cfg and must not
// retain references to cfg's pool slots.
type Integrand = propose.Integrand

// Settings configures a call to Integrate. The zero value is not
// usable directly: Vars, DOF, NEval, NIter and Block must be set.
// Settings mirrors gonum's optimize.Settings: a plain struct with
// documented per-field defaults, passed once, rather than a chain of
// functional options.
type Settings struct {
	// Vars is the ordered tuple of variable pools the integrand reads.
	Vars []variable.Variable

	// DOF is the per-integrand degrees-of-freedom table: DOF[k][v] is
	// the number of sample slots integrand k consumes from pool v.
	DOF [][]int

	// Solver selects the sampling engine. The zero value is
	// iterate.SolverVegas.
	Solver iterate.Solver

	// NEval is the number of evaluations per block per iteration.
	NEval int

	// NIter is the number of controller iterations.
	NIter int

	// Block is the number of blocks per iteration, rounded up to a
	// multiple of Workers.
	Block int

	// Workers is the worker pool size. Zero defaults to GOMAXPROCS.
	Workers int

	// Seed is the base RNG seed. Each block derives its own seed
	// deterministically from Seed and its global block index.
	Seed int64

	// ReweightAlpha is the reweighting exponent applied each iteration.
	// Zero defaults to 1.5.
	ReweightAlpha float64

	// ReweightMode resolves the engines' differing reweight-rescale
	// conventions; see iterate.ReweightMode.
	ReweightMode iterate.ReweightMode

	// ReweightGoal is an optional user multiplier applied elementwise
	// to the retuned reweight vector before renormalization. Nil means
	// no additional multiplier.
	ReweightGoal []float64

	// ReweightAfter delays reweight retuning until this many
	// iterations have completed, useful for letting the maps settle
	// first. Zero enables retuning from the first iteration.
	ReweightAfter int

	// MeasureFreq and StallThreshold configure the Vegas-MC engine;
	// see vegasmc.Config. Both are ignored for SolverVegas.
	MeasureFreq    int
	StallThreshold float64

	// Ignore is the warm-up iteration count applied at Result
	// construction: all NIter iterations are always run
	// and stored, Ignore only affects which are combined.
	Ignore int

	// PrintEvery, if positive, logs a progress line every that many
	// iterations. Zero disables progress logging.
	PrintEvery int
}

// ErrNoVariables is returned when Settings.Vars is empty.
var ErrNoVariables = errors.New("mcintegrate: Settings.Vars is empty")

// Integrate runs the configured controller over integrand and returns
// the combined result. It is the package's single entry point; solver
// selection, block scheduling, training and reweighting are all driven
// from settings.
func Integrate(integrand Integrand, settings Settings) (*mcstat.Result, error) {
	if len(settings.Vars) == 0 {
		return nil, ErrNoVariables
	}

	cfg, err := mcconfig.New(settings.Vars, settings.DOF, settings.Seed)
	if err != nil {
		return nil, err
	}

	return iterate.Run(cfg, integrand, iterate.Options{
		Solver:         settings.Solver,
		NEval:          settings.NEval,
		NIter:          settings.NIter,
		Block:          settings.Block,
		Workers:        settings.Workers,
		ReweightAlpha:  settings.ReweightAlpha,
		ReweightMode:   settings.ReweightMode,
		ReweightGoal:   settings.ReweightGoal,
		ReweightAfter:  settings.ReweightAfter,
		MeasureFreq:    settings.MeasureFreq,
		StallThreshold: settings.StallThreshold,
		Ignore:         settings.Ignore,
		PrintEvery:     settings.PrintEvery,
	})
}
