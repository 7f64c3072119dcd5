// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mcstat combines the per-iteration (mean, stderr) history
// produced by the controller into a single inverse-variance-weighted
// result with a reduced chi-square consistency check.
package mcstat

import (
	"errors"
	"math"

	"github.com/gonum-community/mcintegrate/mcconfig"
)

// stderrFloor is the minimum per-iteration standard error used when
// building inverse-variance weights, preventing a division by zero
// when an iteration's block estimates all agree exactly or it ran a
// single block.
const stderrFloor = 1e-10

// Sample is one iteration's combined estimate: the per-integrand mean
// and standard error, plus the Configuration snapshot taken at
// iteration end (used for diagnostics and resuming a run).
type Sample struct {
	Mean     []complex128
	Stderr   []float64
	Snapshot mcconfig.Snapshot
}

// ErrEmptyHistory is returned when a Result is built from no samples.
var ErrEmptyHistory = errors.New("mcstat: empty iteration history")

// ErrDimensionMismatch is returned when the samples in history disagree
// on the number of integrands.
var ErrDimensionMismatch = errors.New("mcstat: samples disagree on integrand count")

// Result is the inverse-variance-weighted combination of an iteration
// history, honoring a warm-up count of ignored leading iterations.
type Result struct {
	N         int
	Mean      []complex128
	Stderr    []float64
	ChiSquare []float64

	Ignore  int
	History []Sample
}

// NewResult combines history[ignore:] into a Result. The ignore
// parameter is applied here, at construction, never during sampling:
// every iteration is always stored in History, and
// Result(history, ignore).Mean equals Result(history[ignore:], 0).Mean.
func NewResult(history []Sample, ignore int) (*Result, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	if ignore < 0 {
		ignore = 0
	}
	if ignore > len(history) {
		ignore = len(history)
	}
	used := history[ignore:]

	n := 0
	if len(history) > 0 {
		n = len(history[0].Mean)
	}
	for _, s := range history {
		if len(s.Mean) != n || len(s.Stderr) != n {
			return nil, ErrDimensionMismatch
		}
	}

	mean := make([]complex128, n)
	stderr := make([]float64, n)
	chisq := make([]float64, n)

	for k := 0; k < n; k++ {
		var sumW, sumWRe, sumWIm float64
		for _, s := range used {
			e := s.Stderr[k]
			if e < stderrFloor {
				e = stderrFloor
			}
			w := 1 / (e * e)
			sumW += w
			sumWRe += w * real(s.Mean[k])
			sumWIm += w * imag(s.Mean[k])
		}
		if sumW <= 0 {
			sumW = stderrFloor
		}
		mbar := complex(sumWRe/sumW, sumWIm/sumW)
		mean[k] = mbar
		stderr[k] = 1 / math.Sqrt(sumW)

		if len(used) < 2 {
			chisq[k] = 0
			continue
		}
		var sumSq float64
		for _, s := range used {
			e := s.Stderr[k]
			if e < stderrFloor {
				e = stderrFloor
			}
			w := 1 / (e * e)
			dre := real(s.Mean[k]) - real(mbar)
			dim := imag(s.Mean[k]) - imag(mbar)
			sumSq += w * (dre*dre + dim*dim)
		}
		chisq[k] = sumSq / float64(len(used)-1)
	}

	return &Result{
		N:         n,
		Mean:      mean,
		Stderr:    stderr,
		ChiSquare: chisq,
		Ignore:    ignore,
		History:   history,
	}, nil
}
