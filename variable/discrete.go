// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package variable

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Discrete is an integer variable in [Lo, Hi] sampled from a categorical
// distribution. The distribution is retrained between iterations from a
// histogram of accumulated visits when Adapt is true.
type Discrete struct {
	scratch

	Lo, Hi int
	Alpha  float64
	Adapt  bool

	distribution []float64 // len nvals, normalized to sum 1
	accumulation []float64 // len nvals+1, accumulation[0]=0, accumulation[nvals]=1
	hist         []float64 // len nvals

	data []int     // per-slot sampled value
	prob []float64 // per-slot proposal density
	gidx []int     // per-slot category index (0-based)
}

// NewDiscrete constructs a Discrete variable over [lo, hi] with the
// given number of slots (capacity = maxOrder+1). It panics on malformed
// bounds, a construction-time configuration error.
func NewDiscrete(lo, hi, offset, maxOrder int, alpha float64, adapt bool) *Discrete {
	if hi < lo {
		panic(fmt.Sprintf("variable: empty Discrete range [%d, %d]", lo, hi))
	}
	capacity := maxOrder + 1
	if offset < 0 || offset >= capacity-1 {
		panic(fmt.Sprintf("variable: offset %d out of range for capacity %d", offset, capacity))
	}

	nvals := hi - lo + 1
	distribution := make([]float64, nvals)
	for i := range distribution {
		distribution[i] = 1 / float64(nvals)
	}
	accumulation := make([]float64, nvals+1)
	for i := 1; i <= nvals; i++ {
		accumulation[i] = float64(i) / float64(nvals)
	}
	hist := make([]float64, nvals)
	for i := range hist {
		hist[i] = TINY
	}

	return &Discrete{
		scratch:      scratch{offset: offset, capacity: capacity},
		Lo:           lo, Hi: hi, Alpha: alpha, Adapt: adapt,
		distribution: distribution,
		accumulation: accumulation,
		hist:         hist,
		data:         make([]int, capacity),
		prob:         make([]float64, capacity),
		gidx:         make([]int, capacity),
	}
}

// sample picks a category by binary-searching the cumulative
// distribution for a uniform draw.
func (d *Discrete) sample(rng *rand.Rand) (value, category int, prob float64) {
	u := rng.Float64()
	i := sort.Search(len(d.accumulation)-1, func(i int) bool {
		return d.accumulation[i+1] > u
	})
	return d.Lo + i, i, d.distribution[i]
}

func (d *Discrete) save(idx int) {
	s := d.scratchIndex()
	d.data[s] = d.data[idx]
	d.prob[s] = d.prob[idx]
	d.gidx[s] = d.gidx[idx]
}

// Create implements Variable.
func (d *Discrete) Create(idx int, rng *rand.Rand) float64 {
	d.save(idx)
	v, cat, p := d.sample(rng)
	d.data[idx], d.prob[idx], d.gidx[idx] = v, p, cat
	return 1 / p
}

// Remove implements Variable.
func (d *Discrete) Remove(idx int) float64 { return d.prob[idx] }

// Shift implements Variable. Unlike Continuous, a fresh categorical
// draw is already an independent redraw, so Shift is equivalent to
// Create preceded by a save for rollback.
func (d *Discrete) Shift(idx int, rng *rand.Rand) float64 {
	d.save(idx)
	qOld := d.prob[idx]
	_, cat, qNew := d.sample(rng)
	d.data[idx] = d.Lo + cat
	d.prob[idx] = qNew
	d.gidx[idx] = cat
	return qOld / qNew
}

// Swap implements Variable.
func (d *Discrete) Swap(i, j int) float64 {
	d.data[i], d.data[j] = d.data[j], d.data[i]
	d.prob[i], d.prob[j] = d.prob[j], d.prob[i]
	d.gidx[i], d.gidx[j] = d.gidx[j], d.gidx[i]
	return 1
}

// Rollback implements Variable.
func (d *Discrete) Rollback(idx int) {
	s := d.scratchIndex()
	d.data[idx] = d.data[s]
	d.prob[idx] = d.prob[s]
	d.gidx[idx] = d.gidx[s]
}

// Accumulate implements Variable.
func (d *Discrete) Accumulate(idx int, weight float64) {
	d.hist[d.gidx[idx]] += weight
}

// Prob implements Variable.
func (d *Discrete) Prob(idx int) float64 { return d.prob[idx] }

// Value returns the current integer sample in slot idx.
func (d *Discrete) Value(idx int) int { return d.data[idx] }

// Clone implements Variable.
func (d *Discrete) Clone() Variable {
	clone := *d
	clone.distribution = append([]float64(nil), d.distribution...)
	clone.accumulation = append([]float64(nil), d.accumulation...)
	clone.hist = append([]float64(nil), d.hist...)
	clone.data = append([]int(nil), d.data...)
	clone.prob = append([]float64(nil), d.prob...)
	clone.gidx = append([]int(nil), d.gidx...)
	return &clone
}

// MergeHistogram implements Variable.
func (d *Discrete) MergeHistogram(src Variable) {
	other := src.(*Discrete)
	for i := range d.hist {
		d.hist[i] += other.hist[i]
	}
}

// Snapshot implements Variable, capturing the trained distribution and
// its cumulative array.
func (d *Discrete) Snapshot() PoolSnapshot {
	return PoolSnapshot{
		Distribution: append([]float64(nil), d.distribution...),
		Accumulation: append([]float64(nil), d.accumulation...),
	}
}

// Restore implements Variable, replacing the distribution and
// cumulative array with a snapshotted one.
func (d *Discrete) Restore(s PoolSnapshot) {
	d.distribution = append([]float64(nil), s.Distribution...)
	d.accumulation = append([]float64(nil), s.Accumulation...)
}

// Initialize implements Variable.
func (d *Discrete) Initialize(rng *rand.Rand) {
	for idx := d.offset + 1; idx <= d.capacity-2; idx++ {
		d.Create(idx, rng)
	}
}

// Train retrains the categorical distribution from the accumulated
// histogram using the same rescale as Continuous, then rebuilds the
// cumulative array and resets the histogram to its floor.
func (d *Discrete) Train() {
	if !d.Adapt {
		return
	}
	n := len(d.hist)

	var total float64
	for _, v := range d.hist {
		total += v
	}
	if total <= 0 {
		total = TINY
	}

	rescaled := make([]float64, n)
	var rescaledSum float64
	for i, v := range d.hist {
		r := v / total
		var rd float64
		if r <= 0 {
			rd = TINY
		} else if r >= 1 {
			rd = 1
		} else {
			rd = math.Pow((1-r)/math.Log(1/r), d.Alpha)
		}
		rescaled[i] = rd
		rescaledSum += rd
	}

	for i := range rescaled {
		d.distribution[i] = rescaled[i] / rescaledSum
	}
	d.accumulation[0] = 0
	var cum float64
	for i, p := range d.distribution {
		cum += p
		d.accumulation[i+1] = cum
	}
	d.accumulation[n] = 1

	for i := range d.hist {
		d.hist[i] = TINY
	}
}
