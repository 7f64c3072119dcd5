// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mcconfig holds the Configuration type: the aggregate state
// threaded through every integrand evaluation, including the variable
// tuple, the degrees-of-freedom table, the reweight vector, visit
// counters, the current integrand index, and the per-Configuration RNG.
package mcconfig

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/gonum-community/mcintegrate/variable"
)

// ErrEmptyVariables is returned when a Configuration is built with no
// variable pools.
var ErrEmptyVariables = errors.New("mcconfig: variable tuple is empty")

// ErrMalformedDOF is returned when the dof table's shape does not match
// the number of integrands or variables.
var ErrMalformedDOF = errors.New("mcconfig: dof table is malformed")

// Move kinds index Propose and Accept.
const (
	MoveChangeVariable = iota
	MoveChangeIntegrand
	numMoveKinds
)

// Configuration is the aggregate state passed to every integrand
// evaluation. Norm is the index of the synthetic normalization
// integrand, always N (the last of N+1 slots in Reweight/Visited).
type Configuration struct {
	Var []variable.Variable // ordered tuple of variable pools

	N    int     // number of user integrands
	Norm int     // index of the synthetic normalization integrand, == N
	DOF  [][]int // DOF[k][v]: slots integrand k consumes from pool v
	MaxDOF []int // MaxDOF[v] = max_k DOF[k][v]

	Reweight []float64 // length N+1, sums to 1

	NEval   int64
	Visited []float64 // length N+1
	// Propose/Accept[m][k][j] count move m from integrand k. j is a
	// pool index for MoveChangeVariable and a destination integrand
	// index for MoveChangeIntegrand.
	Propose [numMoveKinds][][]float64
	Accept  [numMoveKinds][][]float64

	Curr int // current integrand (Vegas-MC only)

	AbsWeight     float64
	Probability   float64
	Observable    []complex128 // length N
	Normalization float64

	Seed int64
	Rng  *rand.Rand
}

// New constructs a Configuration over the given variable tuple and dof
// table for N user integrands and fills every pool's active slots with
// fresh samples. It fails fast (returns a non-nil error) on a malformed
// dof table or an empty variable tuple.
func New(vars []variable.Variable, dof [][]int, seed int64) (*Configuration, error) {
	if len(vars) == 0 {
		return nil, ErrEmptyVariables
	}
	n := len(dof)
	if n == 0 {
		return nil, fmt.Errorf("%w: no integrands", ErrMalformedDOF)
	}
	for k, row := range dof {
		if len(row) != len(vars) {
			return nil, fmt.Errorf("%w: integrand %d has %d dof entries, want %d", ErrMalformedDOF, k, len(row), len(vars))
		}
	}

	maxdof := make([]int, len(vars))
	for _, row := range dof {
		for v, d := range row {
			if d > maxdof[v] {
				maxdof[v] = d
			}
		}
	}

	// The synthetic normalization integrand (index norm = n) is
	// appended here, not supplied by the caller: it consumes no slot
	// from any pool, so its own DOF row is all zero and its padding
	// factor is the full joint density.
	fullDOF := make([][]int, n+1)
	copy(fullDOF, dof)
	fullDOF[n] = make([]int, len(vars))

	norm := n
	total := n + 1
	width := total
	if len(vars) > width {
		width = len(vars)
	}
	reweight := make([]float64, total)
	for i := range reweight {
		reweight[i] = 1 / float64(total)
	}
	visited := make([]float64, total)

	// Propose/Accept are [2, N+1, max(N+1, pools)]: the third index
	// means "pool index" for MoveChangeVariable and "destination
	// integrand index" for MoveChangeIntegrand.
	propose := [numMoveKinds][][]float64{}
	accept := [numMoveKinds][][]float64{}
	for m := 0; m < numMoveKinds; m++ {
		propose[m] = make([][]float64, total)
		accept[m] = make([][]float64, total)
		for i := range propose[m] {
			propose[m][i] = make([]float64, width)
			accept[m][i] = make([]float64, width)
		}
	}

	src := NewBlockSource(uint64(seed), 0)
	cfg := &Configuration{
		Var:           vars,
		N:             n,
		Norm:          norm,
		DOF:           fullDOF,
		MaxDOF:        maxdof,
		Reweight:      reweight,
		Visited:       visited,
		Propose:       propose,
		Accept:        accept,
		Observable:    make([]complex128, n),
		Normalization: 0,
		Seed:          seed,
		Rng:           rand.New(src),
	}
	for _, v := range vars {
		v.Initialize(cfg.Rng)
	}
	return cfg, nil
}

// SeedBlock reseeds the Configuration's RNG deterministically from its
// base seed and the given block index, and resets the per-block
// accumulators. The learned variable maps are left untouched: they are
// the only state that flows between iterations.
func (c *Configuration) SeedBlock(block int) {
	c.Rng = rand.New(NewBlockSource(uint64(c.Seed), block))
	c.NEval = 0
	c.AbsWeight = 0
	c.Probability = 0
	c.Normalization = 0
	for i := range c.Observable {
		c.Observable[i] = 0
	}
	for i := range c.Visited {
		c.Visited[i] = 0
	}
	for m := 0; m < numMoveKinds; m++ {
		for i := range c.Propose[m] {
			for j := range c.Propose[m][i] {
				c.Propose[m][i][j] = 0
				c.Accept[m][i][j] = 0
			}
		}
	}
}

// Clone returns an independent copy of c suitable for running one block
// concurrently with others: every variable pool is deep-copied via
// variable.Variable.Clone, and the counters/accumulators start fresh.
// DOF and MaxDOF are shared read-only state between clones within an
// iteration; Reweight is copied by value here so a clone may safely
// mutate its own Reweight without affecting its siblings.
func (c *Configuration) Clone() *Configuration {
	vars := make([]variable.Variable, len(c.Var))
	for i, v := range c.Var {
		vars[i] = v.Clone()
	}

	propose := [numMoveKinds][][]float64{}
	accept := [numMoveKinds][][]float64{}
	for m := 0; m < numMoveKinds; m++ {
		propose[m] = make([][]float64, len(c.Propose[m]))
		accept[m] = make([][]float64, len(c.Accept[m]))
		for i := range propose[m] {
			propose[m][i] = make([]float64, len(c.Propose[m][i]))
			accept[m][i] = make([]float64, len(c.Accept[m][i]))
		}
	}

	return &Configuration{
		Var:           vars,
		N:             c.N,
		Norm:          c.Norm,
		DOF:           c.DOF,
		MaxDOF:        c.MaxDOF,
		Reweight:      append([]float64(nil), c.Reweight...),
		Visited:       make([]float64, len(c.Visited)),
		Propose:       propose,
		Accept:        accept,
		Observable:    make([]complex128, c.N),
		Normalization: 0,
		Seed:          c.Seed,
		Rng:           rand.New(NewBlockSource(uint64(c.Seed), 0)),
	}
}

// PaddingFactor returns the glossary's "padding probability" for
// integrand k: the product of the proposal densities of the slots each
// pool contributes to the mixture (up to MaxDOF) but that integrand k
// itself does not consume (beyond its own DOF[k][v]).
func (c *Configuration) PaddingFactor(k int) float64 {
	p := 1.0
	for v, pool := range c.Var {
		lo, hi := c.DOF[k][v], c.MaxDOF[v]
		for idx := lo + 1; idx <= hi; idx++ {
			p *= pool.Prob(idx)
		}
	}
	return p
}

// CheckReweight reports whether Reweight is a valid probability vector,
// an invariant that must hold after every controller iteration.
func (c *Configuration) CheckReweight() error {
	var sum float64
	for _, r := range c.Reweight {
		if r < 1e-10 {
			return fmt.Errorf("mcconfig: reweight entry %v below floor 1e-10", r)
		}
		sum += r
	}
	if d := sum - 1; d > 1e-9 || d < -1e-9 {
		return fmt.Errorf("mcconfig: reweight sums to %v, want 1", sum)
	}
	return nil
}
