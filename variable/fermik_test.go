// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package variable

import (
	"math"
	"math/rand"
	"testing"
)

func TestFermiKShellVolume3D(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	f := NewFermiK(3, 1, 0.5, 10, 0, 100000)
	f.Initialize(rng)

	var sum float64
	n := 0
	for idx := f.offset + 1; idx <= f.capacity-2; idx++ {
		p := f.Prob(idx)
		if p == 0 {
			continue
		}
		sum += 1 / p
		n++
	}
	got := sum / float64(n)

	kf, dk := 1.0, 0.5
	want := (4 / 3.0) * math.Pi * (math.Pow(kf+dk, 3) - math.Pow(kf-dk, 3))
	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("recovered shell volume = %v, want close to %v", got, want)
	}
}

func TestFermiKRejectsNonPositiveMagnitude(t *testing.T) {
	f := NewFermiK(3, 0.1, 0.2, 10, 0, 10)
	// kF-δk = -0.1 < 0, so some draws must be rejected (prob 0).
	rng := rand.New(rand.NewSource(9))
	sawRejection := false
	for i := 0; i < 1000; i++ {
		v, p := f.sample(rng)
		_ = v
		if p == 0 {
			sawRejection = true
			break
		}
	}
	if !sawRejection {
		t.Error("expected at least one degenerate (Kamp<=0) draw in 1000 samples")
	}
}

func TestFermiKShiftRollbackIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	f := NewFermiK(3, 1, 0.5, 10, 0, 10)
	f.Initialize(rng)

	const idx = 3
	before := append([]float64(nil), f.data[idx]...)
	beforeProb := f.prob[idx]

	f.Shift(idx, rng)
	f.Rollback(idx)

	for i := range before {
		if f.data[idx][i] != before[i] {
			t.Errorf("data[%d] = %v, want %v", i, f.data[idx][i], before[i])
		}
	}
	if f.prob[idx] != beforeProb {
		t.Errorf("prob = %v, want %v", f.prob[idx], beforeProb)
	}
}
