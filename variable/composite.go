// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package variable

import (
	"fmt"
	"math/rand"
)

// CompositeVar is a tuple of variable pools that share Offset, Capacity
// and adaptivity, and are moved together: every operation is applied to
// every child at the same slot index. Its per-slot probability is the
// product of its children's, recomputed eagerly after each move.
type CompositeVar struct {
	Children []Variable
	prob     []float64 // per-slot cached product of children's Prob
}

// NewCompositeVar builds a CompositeVar from children that must agree
// on Offset and Capacity; mismatches are a configuration error caught
// at construction.
func NewCompositeVar(children ...Variable) *CompositeVar {
	if len(children) == 0 {
		panic("variable: CompositeVar requires at least one child")
	}
	offset, capacity := children[0].Offset(), children[0].Capacity()
	for _, c := range children[1:] {
		if c.Offset() != offset || c.Capacity() != capacity {
			panic(fmt.Sprintf("variable: CompositeVar children disagree on shape: (%d,%d) vs (%d,%d)",
				offset, capacity, c.Offset(), c.Capacity()))
		}
	}
	return &CompositeVar{
		Children: children,
		prob:     make([]float64, capacity),
	}
}

func (c *CompositeVar) Offset() int   { return c.Children[0].Offset() }
func (c *CompositeVar) Capacity() int { return c.Children[0].Capacity() }

func (c *CompositeVar) recompute(idx int) float64 {
	p := 1.0
	for _, child := range c.Children {
		p *= child.Prob(idx)
	}
	c.prob[idx] = p
	return p
}

// Create implements Variable by creating every child at idx and
// recomputing the joint density eagerly.
func (c *CompositeVar) Create(idx int, rng *rand.Rand) float64 {
	for _, child := range c.Children {
		child.Create(idx, rng)
	}
	p := c.recompute(idx)
	if p == 0 {
		return 0
	}
	return 1 / p
}

// Remove implements Variable.
func (c *CompositeVar) Remove(idx int) float64 {
	p := 1.0
	for _, child := range c.Children {
		p *= child.Remove(idx)
	}
	return p
}

// Shift implements Variable, shifting every child and returning the
// product of their individual ratios.
func (c *CompositeVar) Shift(idx int, rng *rand.Rand) float64 {
	r := 1.0
	for _, child := range c.Children {
		r *= child.Shift(idx, rng)
	}
	c.recompute(idx)
	return r
}

// Swap implements Variable.
func (c *CompositeVar) Swap(i, j int) float64 {
	for _, child := range c.Children {
		child.Swap(i, j)
	}
	c.prob[i], c.prob[j] = c.prob[j], c.prob[i]
	return 1
}

// Rollback implements Variable.
func (c *CompositeVar) Rollback(idx int) {
	for _, child := range c.Children {
		child.Rollback(idx)
	}
	c.recompute(idx)
}

// Accumulate implements Variable, forwarding to every child.
func (c *CompositeVar) Accumulate(idx int, weight float64) {
	for _, child := range c.Children {
		child.Accumulate(idx, weight)
	}
}

// Train implements Variable, retraining every child.
func (c *CompositeVar) Train() {
	for _, child := range c.Children {
		child.Train()
	}
}

// Prob implements Variable, returning the cached product of the
// children's densities.
func (c *CompositeVar) Prob(idx int) float64 { return c.prob[idx] }

// Initialize implements Variable.
func (c *CompositeVar) Initialize(rng *rand.Rand) {
	offset, capacity := c.Offset(), c.Capacity()
	for idx := offset + 1; idx <= capacity-2; idx++ {
		c.Create(idx, rng)
	}
}

// Clone implements Variable, cloning every child.
func (c *CompositeVar) Clone() Variable {
	children := make([]Variable, len(c.Children))
	for i, child := range c.Children {
		children[i] = child.Clone()
	}
	return &CompositeVar{
		Children: children,
		prob:     append([]float64(nil), c.prob...),
	}
}

// MergeHistogram implements Variable, forwarding to every child.
func (c *CompositeVar) MergeHistogram(src Variable) {
	other := src.(*CompositeVar)
	for i, child := range c.Children {
		child.MergeHistogram(other.Children[i])
	}
}

// Snapshot implements Variable, nesting one PoolSnapshot per child.
func (c *CompositeVar) Snapshot() PoolSnapshot {
	children := make([]PoolSnapshot, len(c.Children))
	for i, child := range c.Children {
		children[i] = child.Snapshot()
	}
	return PoolSnapshot{Children: children}
}

// Restore implements Variable, forwarding each nested PoolSnapshot to
// its corresponding child by index.
func (c *CompositeVar) Restore(s PoolSnapshot) {
	for i, child := range c.Children {
		if i < len(s.Children) {
			child.Restore(s.Children[i])
		}
	}
}
