// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcconfig

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gonum-community/mcintegrate/variable"
)

func testVars() []variable.Variable {
	return []variable.Variable{variable.NewContinuous(0, 1, 0, 10, 20, 2, true)}
}

func TestNewRejectsEmptyVariables(t *testing.T) {
	_, err := New(nil, [][]int{{1}}, 1)
	if !errors.Is(err, ErrEmptyVariables) {
		t.Fatalf("got %v, want ErrEmptyVariables", err)
	}
}

func TestNewRejectsMalformedDOF(t *testing.T) {
	_, err := New(testVars(), [][]int{{1, 2}}, 1)
	if !errors.Is(err, ErrMalformedDOF) {
		t.Fatalf("got %v, want ErrMalformedDOF", err)
	}
}

func TestNewReweightIsProbabilityVector(t *testing.T) {
	cfg, err := New(testVars(), [][]int{{1}, {1}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.CheckReweight(); err != nil {
		t.Errorf("CheckReweight() = %v, want nil", err)
	}
	if len(cfg.Reweight) != cfg.N+1 {
		t.Errorf("len(Reweight) = %d, want %d", len(cfg.Reweight), cfg.N+1)
	}
}

func TestSeedBlockIsDeterministic(t *testing.T) {
	cfg, err := New(testVars(), [][]int{{1}}, 42)
	if err != nil {
		t.Fatal(err)
	}
	cfg.SeedBlock(3)
	a := cfg.Rng.Float64()

	cfg.SeedBlock(3)
	b := cfg.Rng.Float64()

	if a != b {
		t.Errorf("SeedBlock(3) not reproducible: %v != %v", a, b)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg, err := New(testVars(), [][]int{{1}}, 7)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Visited[0] = 12
	cfg.Reweight[0] = 0.75
	cfg.Reweight[1] = 0.25

	pool := cfg.Var[0].(*variable.Continuous)
	for idx := pool.Offset() + 1; idx <= pool.Capacity()-2; idx++ {
		pool.Accumulate(idx, 1)
	}
	pool.Train()
	trainedGrid := pool.Snapshot()

	data, err := EncodeSnapshot(cfg.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Visited[0] != 12 || got.Reweight[0] != 0.75 {
		t.Errorf("snapshot round-trip lost data: %+v", got)
	}
	if len(got.Vars) != 1 || len(got.Vars[0].Grid) != len(trainedGrid.Grid) {
		t.Fatalf("snapshot round-trip lost pool state: %+v", got.Vars)
	}
	for i, want := range trainedGrid.Grid {
		if got.Vars[0].Grid[i] != want {
			t.Errorf("grid[%d] = %v, want %v", i, got.Vars[0].Grid[i], want)
		}
	}

	restored, err := New(testVars(), [][]int{{1}}, 7)
	if err != nil {
		t.Fatal(err)
	}
	restored.Restore(got)
	restoredGrid := restored.Var[0].(*variable.Continuous).Snapshot()
	if diff := cmp.Diff(trainedGrid.Grid, restoredGrid.Grid); diff != "" {
		t.Errorf("Restore did not reinstate the trained grid (-want +got):\n%s", diff)
	}
}
