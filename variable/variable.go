// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package variable implements the fixed-capacity sample pools that back
// every integration variable: Continuous (a Vegas-mapped real interval),
// Discrete (a categorical integer range), FermiK (an isotropic momentum
// shell), and CompositeVar (a tuple of the above sharing an offset).
//
// Every pool holds a fixed-capacity array of sample slots. The final
// slot is reserved scratch space used to make a single in-flight
// proposal rollback an O(1), allocation-free operation. Implementations
// must not replace the array with a resizable container.
package variable

import "math/rand"

// TINY is the floor below which histogram mass and proposal densities
// are clamped, so that training and reweighting never divide by zero.
const TINY = 1e-10

// Variable is the common operation set shared by every pool kind. A
// CompositeVar dispatches each method to its children and recomputes
// its own per-slot probability as their product.
type Variable interface {
	// Offset returns the index of the last reserved slot: slots
	// [0, Offset] are never touched by generic moves.
	Offset() int

	// Capacity returns the total number of slots, including the
	// trailing scratch slot.
	Capacity() int

	// Create draws a fresh sample into slot idx from the pool's current
	// map and returns the forward proposal ratio R = 1/q_new.
	Create(idx int, rng *rand.Rand) float64

	// Remove reports q_new for the sample currently held in slot idx,
	// as required when a degree of freedom is discarded by
	// ChangeIntegrand.
	Remove(idx int) float64

	// Shift saves slot idx to scratch, redraws it, and returns the
	// forward proposal ratio R = q_old/q_new.
	Shift(idx int, rng *rand.Rand) float64

	// Swap exchanges the contents of slots i and j and returns the
	// proposal ratio, always 1.
	Swap(i, j int) float64

	// Rollback undoes the most recent Create or Shift on idx by
	// restoring it from the scratch slot.
	Rollback(idx int)

	// Accumulate adds weight into the histogram bin that produced the
	// sample currently in slot idx.
	Accumulate(idx int, weight float64)

	// Train retrains the pool's adaptive map from its accumulated
	// histogram and resets the histogram to its floor. Non-adaptive
	// pools (FermiK) implement Train as a no-op.
	Train()

	// Initialize fills every active slot, [Offset+1, Capacity-2], with
	// a fresh sample.
	Initialize(rng *rand.Rand)

	// Prob reports the proposal density currently recorded for slot
	// idx under the pool's map.
	Prob(idx int) float64

	// Clone returns an independent deep copy of the pool, sharing no
	// mutable state with the receiver. Block-parallel iteration gives
	// every concurrently running block its own clone of each pool so
	// that Create/Shift/Swap calls never race.
	Clone() Variable

	// MergeHistogram adds src's accumulated training histogram into the
	// receiver's, src and the receiver having originated from a common
	// Clone. It is the additive reduction step that combines the
	// histograms of every block's pool copy before the root retrains.
	// Non-adaptive pools (FermiK) implement it as a no-op.
	MergeHistogram(src Variable)

	// Snapshot captures the pool's trained adaptive map, the only state
	// that flows between iterations. Non-adaptive pools (FermiK) return
	// the zero PoolSnapshot.
	Snapshot() PoolSnapshot

	// Restore replaces the pool's trained adaptive map with the contents
	// of a PoolSnapshot captured by a prior call to Snapshot. Non-adaptive
	// pools (FermiK) implement it as a no-op.
	Restore(s PoolSnapshot)
}

// PoolSnapshot is the serializable projection of a pool's trained
// adaptive map: Continuous keeps Grid, Discrete keeps Distribution and
// Accumulation, FermiK keeps none, and CompositeVar nests one
// PoolSnapshot per child in Children.
type PoolSnapshot struct {
	Grid         []float64     `yaml:"grid,omitempty"`
	Distribution []float64     `yaml:"distribution,omitempty"`
	Accumulation []float64     `yaml:"accumulation,omitempty"`
	Children     []PoolSnapshot `yaml:"children,omitempty"`
}

// scratch is the slot bookkeeping embedded by Continuous, Discrete and
// FermiK: the offset and the capacity, with the final index reserved
// for rollback. Each kind keeps its own per-slot data and density
// arrays (FermiK's slots are D-vectors); the save/restore contract is
// identical.
type scratch struct {
	offset   int
	capacity int
}

func (s scratch) Offset() int   { return s.offset }
func (s scratch) Capacity() int { return s.capacity }

// scratchIndex is the reserved slot index used to stash a slot's
// previous contents before a proposal, so Rollback is an O(1) copy.
func (s scratch) scratchIndex() int { return s.capacity - 1 }

func clampFloor(x float64) float64 {
	if x < TINY {
		return TINY
	}
	return x
}
