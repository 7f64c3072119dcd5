// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vegasmc implements the reweighted Markov-chain engine: a
// single chain over the mixture density
// p(x) = Σ r_i · pad_i(x) · |f_i(x)|, including the synthetic
// normalization integrand f_norm ≡ 1. Every measurement observes every
// integrand at once instead of just the one the chain is currently on.
package vegasmc

import (
	"errors"
	"math/cmplx"

	"github.com/sirupsen/logrus"

	"github.com/gonum-community/mcintegrate/mcconfig"
	"github.com/gonum-community/mcintegrate/propose"
)

// DefaultMeasureFreq is the default number of chain steps between
// measurements.
const DefaultMeasureFreq = 2

// ErrNonPositiveNormalization is returned when a block's normalization
// accumulator is non-positive at block end, a hard block failure.
var ErrNonPositiveNormalization = errors.New("vegasmc: normalization is non-positive at block end")

// Config holds the Vegas-MC engine's tunables.
type Config struct {
	// MeasureFreq is the number of chain steps between measurements.
	// Zero defaults to DefaultMeasureFreq.
	MeasureFreq int

	// StallThreshold, if positive, flags (via a warning, never an
	// abort) a chain whose normalization/visited[norm] ratio falls
	// below it, indicating the chain may be stuck in a region where
	// every integrand vanishes. Zero disables the check.
	StallThreshold float64
}

// mixtureDensity evaluates p(x) = Σ r_i · pad_i(x) · |f_i(x)| over all
// N+1 integrands (the Nth, implicit, is the constant-1 normalization
// integrand), given the already-evaluated user values.
func mixtureDensity(cfg *mcconfig.Configuration, values []complex128) float64 {
	var p float64
	for i := 0; i <= cfg.N; i++ {
		pad := cfg.PaddingFactor(i)
		var f float64
		if i == cfg.Norm {
			f = 1
		} else {
			f = cmplx.Abs(values[i])
		}
		p += cfg.Reweight[i] * pad * f
	}
	return p
}

// RunBlock drives integrand through cfg for neval chain steps, starting
// (or continuing) from cfg.Curr, applying one randomly chosen proposal
// per step and measuring every measureFreq steps once at least
// neval/100 steps have elapsed. It returns the per-integrand estimate
// observable[k]/normalization for this block.
func RunBlock(cfg *mcconfig.Configuration, integrand propose.Integrand, neval int, mcCfg Config) ([]complex128, error) {
	measureFreq := mcCfg.MeasureFreq
	if measureFreq <= 0 {
		measureFreq = DefaultMeasureFreq
	}
	warmup := neval / 100

	for step := 0; step < neval; step++ {
		if err := chainStep(cfg, integrand); err != nil {
			return nil, err
		}

		if step >= warmup && step%measureFreq == 0 {
			if err := measure(cfg, integrand); err != nil {
				return nil, err
			}
		}
		cfg.NEval++
	}

	if cfg.Normalization <= 0 {
		return nil, ErrNonPositiveNormalization
	}
	if mcCfg.StallThreshold > 0 && cfg.Visited[cfg.Norm] > 0 {
		ratio := cfg.Normalization / cfg.Visited[cfg.Norm]
		if ratio < mcCfg.StallThreshold {
			logrus.Warnf("vegasmc: normalization/visited[norm] = %v below stall threshold %v; chain may be stuck in a region where every integrand vanishes",
				ratio, mcCfg.StallThreshold)
		}
	}

	estimate := make([]complex128, cfg.N)
	for k := range estimate {
		estimate[k] = cfg.Observable[k] / complex(cfg.Normalization, 0)
	}
	return estimate, nil
}

// chainStep applies one proposal, chosen uniformly among
// ChangeVariable, SwapVariable (one per pool) and ChangeIntegrand.
func chainStep(cfg *mcconfig.Configuration, integrand propose.Integrand) error {
	numVars := len(cfg.Var)
	switch move := cfg.Rng.Intn(numVars + numVars + 1); {
	case move < numVars:
		_, err := propose.ChangeVariable(cfg, move, integrand)
		return err
	case move < 2*numVars:
		_, err := propose.SwapVariable(cfg, move-numVars, integrand)
		return err
	default:
		_, _, err := propose.ChangeIntegrand(cfg, integrand)
		return err
	}
}

// measure records the mixture-weighted contribution of the current
// sample to every integrand's observable, the normalization, and every
// touched pool's training histogram.
func measure(cfg *mcconfig.Configuration, integrand propose.Integrand) error {
	values, err := integrand(cfg)
	if err != nil {
		return err
	}
	if len(values) != cfg.N {
		return errors.New("vegasmc: integrand returned wrong number of values")
	}
	for _, f := range values {
		if cmplx.IsNaN(f) || cmplx.IsInf(f) {
			return errors.New("vegasmc: non-finite integrand value")
		}
	}

	p := mixtureDensity(cfg, values)
	if p <= 0 {
		// Degenerate mixture density at this sample: skip the
		// measurement rather than divide by zero. Not an error, just
		// every |f_i| vanishing here at once.
		return nil
	}

	for k, f := range values {
		pad := cfg.PaddingFactor(k)
		cfg.Observable[k] += f * complex(pad/p, 0)
	}
	padNorm := cfg.PaddingFactor(cfg.Norm)
	cfg.Normalization += padNorm / p
	cfg.Visited[cfg.Curr]++

	for v, pool := range cfg.Var {
		qPool := poolDensity(cfg, v)
		if qPool <= 0 {
			continue
		}
		k := cfg.Curr
		f := 1.0
		if k != cfg.Norm {
			f = cmplx.Abs(values[k])
		}
		pad := cfg.PaddingFactor(k)
		weight := f * f * pad / (p * qPool)
		for idx := pool.Offset() + 1; idx <= cfg.DOF[k][v]; idx++ {
			pool.Accumulate(idx, weight)
		}
	}
	return nil
}

// poolDensity returns the joint proposal density of pool v's currently
// active slots for the mixture's own MaxDOF width.
func poolDensity(cfg *mcconfig.Configuration, v int) float64 {
	pool := cfg.Var[v]
	q := 1.0
	for idx := pool.Offset() + 1; idx <= cfg.MaxDOF[v]; idx++ {
		q *= pool.Prob(idx)
	}
	return q
}
