// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterate

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"

	"github.com/gonum-community/mcintegrate/mcconfig"
	"github.com/gonum-community/mcintegrate/mcstat"
	"github.com/gonum-community/mcintegrate/propose"
	"github.com/gonum-community/mcintegrate/vegas"
	"github.com/gonum-community/mcintegrate/vegasmc"
)

// Solver picks which sampling engine drives each block.
type Solver int

const (
	// SolverVegas is the independent-sample importance-sampling engine.
	SolverVegas Solver = iota
	// SolverVegasMC is the reweighted Markov-chain engine.
	SolverVegasMC
)

func (s Solver) String() string {
	switch s {
	case SolverVegas:
		return "vegas"
	case SolverVegasMC:
		return "vegas-mc"
	default:
		return fmt.Sprintf("Solver(%d)", int(s))
	}
}

// ReweightMode resolves an ambiguity in how the reweight vector is
// rescaled after each iteration: the reference formula differs between
// a plain power rescale and one that applies the same logarithmic
// remap Continuous training uses. Both are offered explicitly rather
// than picking one silently.
type ReweightMode int

const (
	// ReweightPower retunes reweight[i] by (avg/visited[i])^alpha.
	ReweightPower ReweightMode = iota
	// ReweightLogRemap retunes reweight[i] by
	// ((1-r)/log(1/r))^alpha where r = visited[i]/Σvisited, the same
	// remap Continuous.Train applies to its histogram.
	ReweightLogRemap
)

// Options configures one call to Run.
type Options struct {
	Solver  Solver
	NEval   int
	NIter   int
	Block   int
	Workers int // 0 defaults to GOMAXPROCS

	ReweightAlpha float64      // retuning exponent, defaults to 1.5
	ReweightMode  ReweightMode
	ReweightGoal  []float64 // optional user multiplier, length N+1; nil means all 1
	ReweightAfter int       // iteration index after which retuning is enabled

	MeasureFreq    int     // vegas-mc only
	StallThreshold float64 // vegas-mc only

	// Ignore is the warm-up iteration count passed to mcstat.NewResult.
	Ignore int

	// PrintEvery, if positive, logs a progress line every that many
	// iterations. It never mutates integration state.
	PrintEvery int
}

// ErrNoBlocks is returned when Options.Block is non-positive.
var ErrNoBlocks = errors.New("iterate: Block must be positive")

// ErrNoIterations is returned when Options.NIter is non-positive.
var ErrNoIterations = errors.New("iterate: NIter must be positive")

// Run drives integrand through cfg for opts.NIter iterations, each
// partitioned into opts.Block blocks (rounded up to a multiple of the
// worker count) distributed across a persistent worker pool, and
// returns the combined mcstat.Result.
func Run(cfg *mcconfig.Configuration, integrand propose.Integrand, opts Options) (*mcstat.Result, error) {
	if opts.Block <= 0 {
		return nil, ErrNoBlocks
	}
	if opts.NIter <= 0 {
		return nil, ErrNoIterations
	}
	if opts.ReweightAlpha == 0 {
		opts.ReweightAlpha = 1.5
	}

	wp := newPool(opts.Workers)
	workers := wp.numWorkers
	numBlocks := roundUpToMultiple(opts.Block, workers)

	defer wp.close()

	history := make([]mcstat.Sample, 0, opts.NIter)

	for it := 0; it < opts.NIter; it++ {
		outcomes := wp.runBlocks(numBlocks, func(b int) blockOutcome {
			return runOneBlock(cfg, integrand, opts, it*numBlocks+b)
		})

		mean, stderr, err := reduceBlocks(cfg.N, outcomes)
		if err != nil {
			return nil, fmt.Errorf("iterate: iteration %d: %w", it, err)
		}

		mergeHistograms(cfg, outcomes)
		mergeCounters(cfg, outcomes)
		for _, v := range cfg.Var {
			v.Train()
		}
		if it >= opts.ReweightAfter {
			retuneReweight(cfg, opts)
		}

		history = append(history, mcstat.Sample{
			Mean:     mean,
			Stderr:   stderr,
			Snapshot: cfg.Snapshot(),
		})

		if opts.PrintEvery > 0 && (it+1)%opts.PrintEvery == 0 {
			logrus.WithFields(logrus.Fields{
				"iteration": it + 1,
				"mean":      mean,
				"stderr":    stderr,
			}).Info("iterate: iteration complete")
		}
	}

	return mcstat.NewResult(history, opts.Ignore)
}

// blockOutcome is one block's result: its per-integrand estimate and
// the cloned Configuration it ran on, retained so its accumulated
// training histograms can be merged into the root's pools.
type blockOutcome struct {
	estimate []complex128
	clone    *mcconfig.Configuration
	err      error
}

func runOneBlock(cfg *mcconfig.Configuration, integrand propose.Integrand, opts Options, globalBlock int) blockOutcome {
	clone := cfg.Clone()
	clone.SeedBlock(globalBlock)

	var estimate []complex128
	var err error
	switch opts.Solver {
	case SolverVegasMC:
		estimate, err = vegasmc.RunBlock(clone, integrand, opts.NEval, vegasmc.Config{
			MeasureFreq:    opts.MeasureFreq,
			StallThreshold: opts.StallThreshold,
		})
	default:
		estimate, err = vegas.RunBlock(clone, integrand, opts.NEval)
	}
	return blockOutcome{estimate: estimate, clone: clone, err: err}
}

// reduceBlocks computes the mean and stderr across the block
// estimates, per integrand.
func reduceBlocks(n int, outcomes []blockOutcome) ([]complex128, []float64, error) {
	b := len(outcomes)
	mean := make([]complex128, n)
	stderr := make([]float64, n)

	for k := 0; k < n; k++ {
		var sumRe, sumIm, sumSq float64
		for _, o := range outcomes {
			if o.err != nil {
				return nil, nil, o.err
			}
			re, im := real(o.estimate[k]), imag(o.estimate[k])
			sumRe += re
			sumIm += im
			sumSq += re*re + im*im
		}
		m := complex(sumRe/float64(b), sumIm/float64(b))
		mean[k] = m
		if b < 2 {
			stderr[k] = 0
			continue
		}
		meanSq := sumSq / float64(b)
		variance := (meanSq - cmplx.Abs(m)*cmplx.Abs(m)) / float64(b-1)
		if variance < 0 {
			variance = 0
		}
		stderr[k] = math.Sqrt(variance)
	}
	return mean, stderr, nil
}

// mergeHistograms performs the additive histogram reduction of
// before training: every block clone accumulated its own
// histogram weight during its run, and those are summed into the
// root's pools here, which alone carries state across iterations.
func mergeHistograms(cfg *mcconfig.Configuration, outcomes []blockOutcome) {
	for v, pool := range cfg.Var {
		for _, o := range outcomes {
			pool.MergeHistogram(o.clone.Var[v])
		}
	}
}

// mergeCounters sums every block clone's visit and proposal/accept
// counters into the root Configuration, the statistics retuneReweight
// and diagnostic reporting both read.
func mergeCounters(cfg *mcconfig.Configuration, outcomes []blockOutcome) {
	for i := range cfg.Visited {
		cfg.Visited[i] = 0
	}
	for m := 0; m < len(cfg.Propose); m++ {
		for i := range cfg.Propose[m] {
			for j := range cfg.Propose[m][i] {
				cfg.Propose[m][i][j] = 0
				cfg.Accept[m][i][j] = 0
			}
		}
	}

	for _, o := range outcomes {
		for i, v := range o.clone.Visited {
			cfg.Visited[i] += v
		}
		for m := 0; m < len(cfg.Propose); m++ {
			for i := range cfg.Propose[m] {
				for j := range cfg.Propose[m][i] {
					cfg.Propose[m][i][j] += o.clone.Propose[m][i][j]
					cfg.Accept[m][i][j] += o.clone.Accept[m][i][j]
				}
			}
		}
	}
}

// retuneReweight rescales the reweight vector toward equalizing visit
// counts across integrands, then renormalizes it to a probability
// vector with a floor.
func retuneReweight(cfg *mcconfig.Configuration, opts Options) {
	total := len(cfg.Reweight)
	var sumVisited float64
	for _, v := range cfg.Visited {
		sumVisited += v
	}
	if sumVisited <= 0 {
		// No visits were recorded (the Vegas engine records none), so
		// the vector is left as it is.
		return
	}
	avg := sumVisited / float64(total)

	for i := range cfg.Reweight {
		v := cfg.Visited[i]
		var factor float64
		switch opts.ReweightMode {
		case ReweightLogRemap:
			r := v / math.Max(sumVisited, 1e-10)
			switch {
			case v <= 1:
				factor = math.Pow(avg, opts.ReweightAlpha)
			case r <= 0:
				factor = math.Pow(avg, opts.ReweightAlpha)
			case r >= 1:
				factor = 1
			default:
				factor = math.Pow((1-r)/math.Log(1/r), opts.ReweightAlpha)
			}
		default: // ReweightPower
			if v <= 1 {
				factor = math.Pow(avg, opts.ReweightAlpha)
			} else {
				factor = math.Pow(avg/v, opts.ReweightAlpha)
			}
		}
		cfg.Reweight[i] *= factor
		if i < len(opts.ReweightGoal) {
			cfg.Reweight[i] *= opts.ReweightGoal[i]
		}
	}

	var sum float64
	for _, r := range cfg.Reweight {
		sum += r
	}
	if sum <= 0 {
		sum = 1
	}
	for i := range cfg.Reweight {
		r := cfg.Reweight[i] / sum
		if r < 1e-10 {
			r = 1e-10
		}
		cfg.Reweight[i] = r
	}
}

// roundUpToMultiple rounds n up to the nearest positive multiple of m,
// so that a block count divides evenly across m workers.
func roundUpToMultiple(n, m int) int {
	if m <= 0 {
		return n
	}
	if n <= 0 {
		return m
	}
	return ((n + m - 1) / m) * m
}
