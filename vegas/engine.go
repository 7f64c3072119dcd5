// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vegas implements the independent-sample, importance-sampled
// Vegas engine: every evaluation draws a fresh value for
// every pool slot any integrand needs, weights each integrand by the
// inverse of the joint proposal density, and feeds the squared,
// padding-weighted result back into each pool's training histogram.
package vegas

import (
	"errors"
	"math/cmplx"

	"github.com/sirupsen/logrus"

	"github.com/gonum-community/mcintegrate/mcconfig"
	"github.com/gonum-community/mcintegrate/propose"
)

// ErrNonPositiveNormalization is returned when a block's normalization
// accumulator is non-positive at block end, a hard block failure.
var ErrNonPositiveNormalization = errors.New("vegas: normalization is non-positive at block end")

// RunBlock drives integrand through cfg for neval evaluations using the
// Vegas importance-sampling rule, and returns the per-integrand
// estimate observable[k]/normalization for this block. cfg's variable
// pools accumulate training histogram weight as a side effect; the
// caller resets cfg via SeedBlock between blocks and retrains the pools
// between iterations.
func RunBlock(cfg *mcconfig.Configuration, integrand propose.Integrand, neval int) ([]complex128, error) {
	for step := 0; step < neval; step++ {
		q, err := createAll(cfg)
		if err != nil {
			return nil, err
		}

		values, err := integrand(cfg)
		if err != nil {
			return nil, err
		}
		if len(values) != cfg.N {
			return nil, errors.New("vegas: integrand returned wrong number of values")
		}

		for k, f := range values {
			if cmplx.IsNaN(f) || cmplx.IsInf(f) {
				return nil, &propose.NonFiniteError{Integrand: k, Value: f}
			}
			pad := cfg.PaddingFactor(k)
			cfg.Observable[k] += f * complex(pad/q, 0)
			weight := cmplx.Abs(f) * cmplx.Abs(f) * pad / q
			accumulateHistogram(cfg, k, weight)
		}
		padNorm := cfg.PaddingFactor(cfg.Norm)
		cfg.Normalization += padNorm / q
		cfg.NEval++
	}

	if cfg.Normalization <= 0 {
		return nil, ErrNonPositiveNormalization
	}

	estimate := make([]complex128, cfg.N)
	for k := range estimate {
		estimate[k] = cfg.Observable[k] / complex(cfg.Normalization, 0)
	}
	return estimate, nil
}

// createAll draws a fresh value for every slot any integrand uses in
// every pool, and returns the joint proposal density q(x) = Π prob[i].
func createAll(cfg *mcconfig.Configuration) (float64, error) {
	q := 1.0
	for v, pool := range cfg.Var {
		for idx := pool.Offset() + 1; idx <= cfg.MaxDOF[v]; idx++ {
			r := pool.Create(idx, cfg.Rng)
			if r == 0 {
				// Degenerate proposal density (e.g. FermiK with
				// Kamp<=0): not an error, just reject this draw by
				// redrawing once.
				logrus.Debugf("vegas: degenerate create at pool %d slot %d, redrawing", v, idx)
				r = pool.Create(idx, cfg.Rng)
				if r == 0 {
					return 0, errors.New("vegas: pool repeatedly produced a degenerate proposal")
				}
			}
			q *= 1 / r
		}
	}
	return q, nil
}

// accumulateHistogram feeds weight into the training histogram of
// every pool slot that integrand k consumes.
func accumulateHistogram(cfg *mcconfig.Configuration, k int, weight float64) {
	for v, pool := range cfg.Var {
		for idx := pool.Offset() + 1; idx <= cfg.DOF[k][v]; idx++ {
			pool.Accumulate(idx, weight)
		}
	}
}
