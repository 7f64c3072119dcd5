// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package variable

import (
	"fmt"
	"math"
	"math/rand"
)

// fermiScaleLambda bounds the magnitude-scaling shift sub-move:
// Kamp' = Kamp * λ, λ ~ U[1/fermiScaleLambda, fermiScaleLambda].
const fermiScaleLambda = 1.5

// FermiK is a D-dimensional (D=2 or 3) momentum drawn isotropically
// with magnitude uniform in [kF-δk, kF+δk). It is never adaptive: the
// shell geometry is fixed by its parameters, not learned.
type FermiK struct {
	scratch

	D      int
	KF     float64
	DeltaK float64
	MaxK   float64

	data [][]float64 // per-slot D-vector
	prob []float64   // per-slot proposal density (0 if degenerate)
}

// NewFermiK constructs a FermiK variable. It panics if D is not 2 or 3,
// if the shell has non-positive width, or if the shell's upper edge
// kF+δk exceeds maxK: these are configuration errors caught at
// construction.
func NewFermiK(d int, kF, deltaK, maxK float64, offset, maxOrder int) *FermiK {
	if d != 2 && d != 3 {
		panic(fmt.Sprintf("variable: FermiK requires D=2 or D=3, got %d", d))
	}
	if deltaK <= 0 || kF-deltaK >= kF+deltaK {
		panic("variable: FermiK requires a positive-width shell")
	}
	if kF+deltaK > maxK {
		panic(fmt.Sprintf("variable: FermiK shell upper edge %v exceeds MaxK %v", kF+deltaK, maxK))
	}
	capacity := maxOrder + 1
	if offset < 0 || offset >= capacity-1 {
		panic(fmt.Sprintf("variable: offset %d out of range for capacity %d", offset, capacity))
	}

	data := make([][]float64, capacity)
	for i := range data {
		data[i] = make([]float64, d)
	}
	return &FermiK{
		scratch: scratch{offset: offset, capacity: capacity},
		D:       d, KF: kF, DeltaK: deltaK, MaxK: maxK,
		data: data,
		prob: make([]float64, capacity),
	}
}

// sample draws a fresh isotropic momentum, returning its vector and
// proposal density. The density is 0 (rejected) if the drawn magnitude
// is non-positive.
func (f *FermiK) sample(rng *rand.Rand) ([]float64, float64) {
	kamp := f.KF + (rng.Float64()-0.5)*2*f.DeltaK
	if kamp <= 0 {
		return make([]float64, f.D), 0
	}
	return f.vectorAt(kamp, rng)
}

// vectorAt draws isotropic angles for the given magnitude and returns
// the Cartesian vector plus its proposal density.
func (f *FermiK) vectorAt(kamp float64, rng *rand.Rand) ([]float64, float64) {
	phi := 2 * math.Pi * rng.Float64()
	if f.D == 2 {
		v := []float64{kamp * math.Cos(phi), kamp * math.Sin(phi)}
		prob := 1 / (2 * f.DeltaK * 2 * math.Pi * kamp)
		return v, prob
	}
	theta := math.Pi * rng.Float64()
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	v := []float64{
		kamp * sinT * math.Cos(phi),
		kamp * sinT * math.Sin(phi),
		kamp * cosT,
	}
	prob := 1 / (2 * f.DeltaK * 2 * math.Pi * math.Pi * sinT * kamp * kamp)
	return v, prob
}

func (f *FermiK) magnitude(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func (f *FermiK) save(idx int) {
	s := f.scratchIndex()
	copy(f.data[s], f.data[idx])
	f.prob[s] = f.prob[idx]
}

// Create implements Variable.
func (f *FermiK) Create(idx int, rng *rand.Rand) float64 {
	f.save(idx)
	v, p := f.sample(rng)
	copy(f.data[idx], v)
	f.prob[idx] = p
	if p == 0 {
		return 0
	}
	return 1 / p
}

// Remove implements Variable.
func (f *FermiK) Remove(idx int) float64 { return f.prob[idx] }

// Shift implements Variable. It chooses one of three sub-moves with
// equal probability: scale the magnitude by a factor in
// [1/fermiScaleLambda, fermiScaleLambda]; rotate isotropically while
// preserving magnitude; or perturb by a cube of edge DeltaK.
func (f *FermiK) Shift(idx int, rng *rand.Rand) float64 {
	f.save(idx)
	qOld := f.prob[idx]
	if qOld == 0 {
		// Degenerate slot: any proposal from here is itself a fresh
		// draw, matching Create's rollback-safe behavior.
		return f.Create(idx, rng)
	}

	switch rng.Intn(3) {
	case 0: // scale magnitude
		kamp := f.magnitude(f.data[idx])
		lambda := 1/fermiScaleLambda + rng.Float64()*(fermiScaleLambda-1/fermiScaleLambda)
		newKamp := kamp * lambda
		if newKamp <= 0 {
			f.prob[idx] = 0
			return 0
		}
		for i := range f.data[idx] {
			f.data[idx][i] *= lambda
		}
		jacobian := 1.0
		if f.D == 3 {
			jacobian = lambda
		}
		// The scale move leaves the polar angle unchanged, so the new
		// density is read off the formula directly rather than via a
		// fresh angle draw.
		qNew := f.densityAt(newKamp, f.data[idx])
		f.prob[idx] = qNew
		return (qOld / qNew) * jacobian
	case 1: // isotropic rotation, magnitude preserved
		kamp := f.magnitude(f.data[idx])
		v, qNew := f.vectorAt(kamp, rng)
		copy(f.data[idx], v)
		f.prob[idx] = qNew
		return qOld / qNew
	default: // cube perturbation of edge DeltaK
		for i := range f.data[idx] {
			f.data[idx][i] += (rng.Float64() - 0.5) * f.DeltaK
		}
		kamp := f.magnitude(f.data[idx])
		if kamp <= 0 || kamp < f.KF-f.DeltaK || kamp >= f.KF+f.DeltaK {
			f.prob[idx] = 0
			return 0
		}
		qNew := f.densityAt(kamp, f.data[idx])
		f.prob[idx] = qNew
		return qOld / qNew
	}
}

// densityAt returns the proposal density for a vector of the given
// magnitude, using its polar angle when D=3.
func (f *FermiK) densityAt(kamp float64, v []float64) float64 {
	if f.D == 2 {
		return 1 / (2 * f.DeltaK * 2 * math.Pi * kamp)
	}
	theta := math.Acos(v[2] / kamp)
	return 1 / (2 * f.DeltaK * 2 * math.Pi * math.Pi * math.Sin(theta) * kamp * kamp)
}

// Swap implements Variable.
func (f *FermiK) Swap(i, j int) float64 {
	f.data[i], f.data[j] = f.data[j], f.data[i]
	f.prob[i], f.prob[j] = f.prob[j], f.prob[i]
	return 1
}

// Rollback implements Variable.
func (f *FermiK) Rollback(idx int) {
	s := f.scratchIndex()
	copy(f.data[idx], f.data[s])
	f.prob[idx] = f.prob[s]
}

// Accumulate is a no-op: FermiK carries no training histogram.
func (f *FermiK) Accumulate(idx int, weight float64) {}

// Train is a no-op: FermiK is never adaptive.
func (f *FermiK) Train() {}

// Prob implements Variable.
func (f *FermiK) Prob(idx int) float64 { return f.prob[idx] }

// Value returns the current D-vector sample in slot idx.
func (f *FermiK) Value(idx int) []float64 { return f.data[idx] }

// Initialize implements Variable.
func (f *FermiK) Initialize(rng *rand.Rand) {
	for idx := f.offset + 1; idx <= f.capacity-2; idx++ {
		f.Create(idx, rng)
	}
}

// Clone implements Variable.
func (f *FermiK) Clone() Variable {
	clone := *f
	clone.data = make([][]float64, len(f.data))
	for i, v := range f.data {
		clone.data[i] = append([]float64(nil), v...)
	}
	clone.prob = append([]float64(nil), f.prob...)
	return &clone
}

// MergeHistogram is a no-op: FermiK carries no training histogram.
func (f *FermiK) MergeHistogram(src Variable) {}

// Snapshot is a no-op: FermiK is never adaptive and carries no state
// that flows between iterations.
func (f *FermiK) Snapshot() PoolSnapshot { return PoolSnapshot{} }

// Restore is a no-op: FermiK is never adaptive.
func (f *FermiK) Restore(s PoolSnapshot) {}
