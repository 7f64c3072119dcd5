// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package variable

import (
	"fmt"
	"math"
	"math/rand"
)

// smoothDamping is the center-bin weight used when smoothing the
// training histogram before it is rescaled; interior bins are
// smoothed as (h[i-1] + smoothDamping*h[i] + h[i+1]) / (smoothDamping+2).
const smoothDamping = 6

// shiftDelta is the half-width, in the unit map coordinate y, of a
// Continuous shift move.
const shiftDelta = 0.2

// Continuous is a Vegas-mapped real variable sampled from [A, B) via a
// monotone, piecewise-linear grid x(y). The grid has Ninc increments;
// it is retrained between iterations from a histogram of |f|^2-weighted
// visits when Adapt is true.
type Continuous struct {
	scratch

	A, B  float64
	Ninc  int
	Alpha float64
	Adapt bool

	grid []float64 // len Ninc+1, grid[0]=A, grid[Ninc]=B
	hist []float64 // len Ninc, accumulated training weight per bin

	data []float64 // per-slot sample value
	prob []float64 // per-slot proposal density
	gidx []int     // per-slot 1-based bin index (0 = no sample yet)
}

// NewContinuous constructs a Continuous variable over [a, b) with the
// given number of slots (capacity = maxOrder+1), grid resolution ninc,
// smoothing exponent alpha, and adaptivity flag. It panics if the range
// is zero-width or maxOrder is too small to hold offset+1 live slots
// plus the scratch slot: this is a configuration error, caught at
// construction per the fail-fast policy for malformed setup.
func NewContinuous(a, b float64, offset, maxOrder, ninc int, alpha float64, adapt bool) *Continuous {
	if !(b > a) {
		panic(fmt.Sprintf("variable: zero-width or inverted Continuous range [%v, %v)", a, b))
	}
	if ninc < 1 {
		panic("variable: Continuous requires ninc >= 1")
	}
	capacity := maxOrder + 1
	if offset < 0 || offset >= capacity-1 {
		panic(fmt.Sprintf("variable: offset %d out of range for capacity %d", offset, capacity))
	}

	grid := make([]float64, ninc+1)
	for i := range grid {
		grid[i] = a + (b-a)*float64(i)/float64(ninc)
	}
	hist := make([]float64, ninc)
	for i := range hist {
		hist[i] = TINY
	}

	return &Continuous{
		scratch: scratch{offset: offset, capacity: capacity},
		A:       a, B: b, Ninc: ninc, Alpha: alpha, Adapt: adapt,
		grid: grid,
		hist: hist,
		data: make([]float64, capacity),
		prob: make([]float64, capacity),
		gidx: make([]int, capacity),
	}
}

// mapForward evaluates the grid map at y in [0, 1), returning the
// sampled x, its 1-based bin index, and its proposal density.
func (c *Continuous) mapForward(y float64) (x float64, bin int, prob float64) {
	n := float64(c.Ninc)
	yn := y * n
	i := int(yn)
	if i >= c.Ninc {
		i = c.Ninc - 1
	}
	delta := yn - float64(i)
	width := c.grid[i+1] - c.grid[i]
	x = c.grid[i] + delta*width
	prob = 1 / (n * width)
	return x, i + 1, prob
}

// mapInverse recovers the unit coordinate y that produced sample x in
// bin (1-based) gidx.
func (c *Continuous) mapInverse(x float64, gidx int) float64 {
	i := gidx - 1
	width := c.grid[i+1] - c.grid[i]
	delta := (x - c.grid[i]) / width
	return (float64(i) + delta) / float64(c.Ninc)
}

func (c *Continuous) save(idx int) {
	s := c.scratchIndex()
	c.data[s] = c.data[idx]
	c.prob[s] = c.prob[idx]
	c.gidx[s] = c.gidx[idx]
}

// Create implements Variable.
func (c *Continuous) Create(idx int, rng *rand.Rand) float64 {
	c.save(idx)
	x, bin, p := c.mapForward(rng.Float64())
	c.data[idx], c.prob[idx], c.gidx[idx] = x, p, bin
	return 1 / p
}

// Remove implements Variable.
func (c *Continuous) Remove(idx int) float64 {
	return c.prob[idx]
}

// Shift implements Variable. With probability 1/2 it redraws the slot
// uniformly at random (equivalent to Create); otherwise it perturbs the
// slot's unit coordinate by ±shiftDelta with wraparound in [0, 1).
func (c *Continuous) Shift(idx int, rng *rand.Rand) float64 {
	c.save(idx)
	qOld := c.prob[idx]

	var y float64
	if rng.Float64() < 0.5 {
		y = rng.Float64()
	} else {
		y0 := c.mapInverse(c.data[idx], c.gidx[idx])
		y = math.Mod(y0+(2*rng.Float64()-1)*shiftDelta+1, 1)
	}
	x, bin, qNew := c.mapForward(y)
	c.data[idx], c.prob[idx], c.gidx[idx] = x, qNew, bin
	return qOld / qNew
}

// Swap implements Variable.
func (c *Continuous) Swap(i, j int) float64 {
	c.data[i], c.data[j] = c.data[j], c.data[i]
	c.prob[i], c.prob[j] = c.prob[j], c.prob[i]
	c.gidx[i], c.gidx[j] = c.gidx[j], c.gidx[i]
	return 1
}

// Rollback implements Variable.
func (c *Continuous) Rollback(idx int) {
	s := c.scratchIndex()
	c.data[idx] = c.data[s]
	c.prob[idx] = c.prob[s]
	c.gidx[idx] = c.gidx[s]
}

// Accumulate implements Variable.
func (c *Continuous) Accumulate(idx int, weight float64) {
	c.hist[c.gidx[idx]-1] += weight
}

// Prob implements Variable.
func (c *Continuous) Prob(idx int) float64 { return c.prob[idx] }

// Initialize implements Variable.
func (c *Continuous) Initialize(rng *rand.Rand) {
	for idx := c.offset + 1; idx <= c.capacity-2; idx++ {
		c.Create(idx, rng)
	}
}

// Value returns the current sample in slot idx.
func (c *Continuous) Value(idx int) float64 { return c.data[idx] }

// Clone implements Variable.
func (c *Continuous) Clone() Variable {
	clone := *c
	clone.grid = append([]float64(nil), c.grid...)
	clone.hist = append([]float64(nil), c.hist...)
	clone.data = append([]float64(nil), c.data...)
	clone.prob = append([]float64(nil), c.prob...)
	clone.gidx = append([]int(nil), c.gidx...)
	return &clone
}

// MergeHistogram implements Variable.
func (c *Continuous) MergeHistogram(src Variable) {
	other := src.(*Continuous)
	for i := range c.hist {
		c.hist[i] += other.hist[i]
	}
}

// Snapshot implements Variable, capturing the trained grid.
func (c *Continuous) Snapshot() PoolSnapshot {
	return PoolSnapshot{Grid: append([]float64(nil), c.grid...)}
}

// Restore implements Variable, replacing the grid with a snapshotted one.
func (c *Continuous) Restore(s PoolSnapshot) {
	c.grid = append([]float64(nil), s.Grid...)
}

// Train retrains the grid from the accumulated histogram, following
// the Vegas+ windowed-smoothing / rescale / equal-mass-redistribution
// update, then resets the histogram to its floor.
func (c *Continuous) Train() {
	if !c.Adapt {
		return
	}
	n := c.Ninc

	smoothed := make([]float64, n)
	switch {
	case n == 1:
		smoothed[0] = c.hist[0]
	default:
		smoothed[0] = (7*c.hist[0] + c.hist[1]) / 8
		smoothed[n-1] = (c.hist[n-2] + 7*c.hist[n-1]) / 8
		for i := 1; i < n-1; i++ {
			smoothed[i] = (c.hist[i-1] + smoothDamping*c.hist[i] + c.hist[i+1]) / (smoothDamping + 2)
		}
	}

	var total float64
	for _, v := range smoothed {
		total += v
	}
	if total <= 0 {
		total = TINY
	}

	rescaled := make([]float64, n)
	var rescaledSum float64
	for i, v := range smoothed {
		r := v / total
		if r <= 0 {
			rescaled[i] = TINY
		} else if r >= 1 {
			rescaled[i] = 1
		} else {
			d := (1 - r) / math.Log(1/r)
			rescaled[i] = math.Pow(d, c.Alpha)
		}
		rescaledSum += rescaled[i]
	}

	target := rescaledSum / float64(n)
	newGrid := make([]float64, n+1)
	newGrid[0] = c.grid[0]
	newGrid[n] = c.grid[n]

	var cum float64
	old := 0
	for k := 1; k < n; k++ {
		need := float64(k) * target
		for old < n-1 && cum+rescaled[old] < need {
			cum += rescaled[old]
			old++
		}
		// Interpolate the new grid point's position within old bin.
		remaining := need - cum
		frac := 0.0
		if rescaled[old] > 0 {
			frac = remaining / rescaled[old]
		}
		newGrid[k] = c.grid[old] + frac*(c.grid[old+1]-c.grid[old])
	}
	c.grid = newGrid

	for i := range c.hist {
		c.hist[i] = TINY
	}
}
