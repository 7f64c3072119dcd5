// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package propose implements the three Metropolis proposals that drive
// a Configuration through its variable pools: ChangeVariable,
// SwapVariable, and ChangeIntegrand. Each accepts or rejects with a
// Metropolis ratio built from the pool's forward proposal ratio and the
// integrand-value ratio, rolling back on rejection.
//
// The acceptance idiom here is the same one
// gonum's stat/sampleuv.MetropolisHastings uses: compute a ratio,
// compare it to a uniform draw, keep or discard.
package propose

import (
	"math/cmplx"

	"github.com/gonum-community/mcintegrate/mcconfig"
)

// Integrand evaluates every user integrand (plus the implicit
// normalization integrand, handled by callers) at the samples currently
// held in cfg.Var. It must be deterministic given those samples and
// must not retain references to pool slots. A non-finite returned value
// is the caller's signal to abort the current block.
type Integrand func(cfg *mcconfig.Configuration) ([]complex128, error)

// Move kinds, matching mcconfig.MoveChangeVariable / MoveChangeIntegrand.
const (
	changeVariableMove = mcconfig.MoveChangeVariable
	changeIntegrandMove = mcconfig.MoveChangeIntegrand
)

// ChangeVariable proposes a shift of one slot of pool v belonging to
// the current integrand, and accepts or rejects it via Metropolis
// against the integrand ratio. It returns whether the proposal was
// accepted.
func ChangeVariable(cfg *mcconfig.Configuration, v int, integrand Integrand) (bool, error) {
	k := cfg.Curr
	dof := cfg.DOF[k][v]
	if dof <= cfg.Var[v].Offset() {
		// No movable slot for this integrand in this pool.
		return false, nil
	}
	idx := cfg.Var[v].Offset() + 1 + cfg.Rng.Intn(dof-cfg.Var[v].Offset())

	before, err := evaluateOne(cfg, k, integrand)
	if err != nil {
		return false, err
	}

	r := cfg.Var[v].Shift(idx, cfg.Rng)

	after, err := evaluateOne(cfg, k, integrand)
	if err != nil {
		cfg.Var[v].Rollback(idx)
		return false, err
	}

	accept := r * cmplx.Abs(after) / cmplx.Abs(before)
	cfg.Propose[changeVariableMove][k][v]++

	if accept >= 1 || cfg.Rng.Float64() < accept {
		cfg.Accept[changeVariableMove][k][v]++
		return true, nil
	}
	cfg.Var[v].Rollback(idx)
	return false, nil
}

// SwapVariable exchanges two slots of pool v within the current
// integrand's dof and accepts or rejects via the integrand ratio alone
// (the proposal ratio of a swap is always 1).
func SwapVariable(cfg *mcconfig.Configuration, v int, integrand Integrand) (bool, error) {
	k := cfg.Curr
	dof := cfg.DOF[k][v]
	offset := cfg.Var[v].Offset()
	if dof-offset < 2 {
		return false, nil
	}
	i := offset + 1 + cfg.Rng.Intn(dof-offset)
	j := offset + 1 + cfg.Rng.Intn(dof-offset)
	if i == j {
		return false, nil
	}

	before, err := evaluateOne(cfg, k, integrand)
	if err != nil {
		return false, err
	}

	cfg.Var[v].Swap(i, j)

	after, err := evaluateOne(cfg, k, integrand)
	if err != nil {
		cfg.Var[v].Swap(i, j)
		return false, err
	}

	accept := cmplx.Abs(after) / cmplx.Abs(before)

	if accept >= 1 || cfg.Rng.Float64() < accept {
		return true, nil
	}
	cfg.Var[v].Swap(i, j) // swap is its own inverse
	return false, nil
}

// neighbor picks a uniformly random integrand index different from k,
// among the N+1 integrands (including the normalization integrand).
func neighbor(cfg *mcconfig.Configuration, k int) int {
	total := cfg.N + 1
	if total < 2 {
		return k
	}
	k2 := cfg.Rng.Intn(total - 1)
	if k2 >= k {
		k2++
	}
	return k2
}

// ChangeIntegrand proposes switching the current integrand to a
// neighbor. Pools whose dof grows pick up freshly created slots; pools
// whose dof shrinks give up slots via Remove. It returns whether the
// move was accepted and the new current integrand.
func ChangeIntegrand(cfg *mcconfig.Configuration, integrand Integrand) (bool, int, error) {
	k := cfg.Curr
	kPrime := neighbor(cfg, k)
	if kPrime == k {
		return false, k, nil
	}

	before, err := evaluateOne(cfg, k, integrand)
	if err != nil {
		return false, k, err
	}

	r := 1.0
	created := make([][]int, len(cfg.Var))
	for v, pool := range cfg.Var {
		oldDOF, newDOF := cfg.DOF[k][v], cfg.DOF[kPrime][v]
		switch {
		case newDOF > oldDOF:
			for idx := oldDOF + 1; idx <= newDOF; idx++ {
				r *= pool.Create(idx, cfg.Rng)
				created[v] = append(created[v], idx)
			}
		case newDOF < oldDOF:
			for idx := newDOF + 1; idx <= oldDOF; idx++ {
				r *= pool.Remove(idx)
			}
		}
	}

	cfg.Curr = kPrime
	after, err := evaluateOne(cfg, kPrime, integrand)
	if err != nil {
		rollbackChangeIntegrand(cfg, created)
		cfg.Curr = k
		return false, k, err
	}

	accept := r * cmplx.Abs(after) / cmplx.Abs(before) * cfg.Reweight[kPrime] / cfg.Reweight[k]
	cfg.Propose[changeIntegrandMove][k][kPrime]++

	if accept >= 1 || cfg.Rng.Float64() < accept {
		cfg.Accept[changeIntegrandMove][k][kPrime]++
		cfg.Visited[kPrime]++
		return true, kPrime, nil
	}

	rollbackChangeIntegrand(cfg, created)
	cfg.Curr = k
	cfg.Visited[k]++
	return false, k, nil
}

func rollbackChangeIntegrand(cfg *mcconfig.Configuration, created [][]int) {
	for v, idxs := range created {
		for _, idx := range idxs {
			cfg.Var[v].Rollback(idx)
		}
	}
}

// evaluateOne runs integrand and returns the value for integrand k,
// normalizing a non-finite result into an error so the caller can
// propagate it as an abort of the current block.
func evaluateOne(cfg *mcconfig.Configuration, k int, integrand Integrand) (complex128, error) {
	values, err := integrand(cfg)
	if err != nil {
		return 0, err
	}
	if k >= len(values) {
		return 1, nil // the synthetic normalization integrand is constant 1
	}
	v := values[k]
	if cmplx.IsInf(v) || cmplx.IsNaN(v) {
		return 0, &NonFiniteError{Integrand: k, Value: v}
	}
	return v, nil
}

// NonFiniteError reports a non-finite integrand value; returning one
// from an Integrand aborts the current block.
type NonFiniteError struct {
	Integrand int
	Value     complex128
}

func (e *NonFiniteError) Error() string {
	return "propose: non-finite value from integrand"
}
