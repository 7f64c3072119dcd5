// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcconfig

import (
	"gopkg.in/yaml.v3"

	"github.com/gonum-community/mcintegrate/variable"
)

// Snapshot is the persisted-state projection of a Configuration: the
// counters, reweight vector, RNG seed, and each variable pool's trained
// adaptive map (the only state that flows between iterations) needed
// to resume or audit a run.
type Snapshot struct {
	N        int         `yaml:"n"`
	Reweight []float64   `yaml:"reweight"`
	Visited  []float64   `yaml:"visited"`
	NEval    int64                      `yaml:"neval"`
	Seed     int64                      `yaml:"seed"`
	Propose  [numMoveKinds][][]float64 `yaml:"propose"`
	Accept   [numMoveKinds][][]float64 `yaml:"accept"`
	Vars     []variable.PoolSnapshot   `yaml:"vars"`
}

// Snapshot captures the persisted-state projection of c.
func (c *Configuration) Snapshot() Snapshot {
	vars := make([]variable.PoolSnapshot, len(c.Var))
	for i, pool := range c.Var {
		vars[i] = pool.Snapshot()
	}
	var propose, accept [numMoveKinds][][]float64
	for m := range propose {
		propose[m] = make([][]float64, len(c.Propose[m]))
		accept[m] = make([][]float64, len(c.Accept[m]))
		for i := range propose[m] {
			propose[m][i] = append([]float64(nil), c.Propose[m][i]...)
			accept[m][i] = append([]float64(nil), c.Accept[m][i]...)
		}
	}
	return Snapshot{
		N:        c.N,
		Reweight: append([]float64(nil), c.Reweight...),
		Visited:  append([]float64(nil), c.Visited...),
		NEval:    c.NEval,
		Seed:     c.Seed,
		Propose:  propose,
		Accept:   accept,
		Vars:     vars,
	}
}

// Restore applies a previously captured Snapshot back onto c, including
// restoring each variable pool's trained adaptive map. The variable
// tuple and dof table, which are not part of the snapshot, must already
// be configured identically to when the snapshot was taken.
func (c *Configuration) Restore(s Snapshot) {
	c.Reweight = append([]float64(nil), s.Reweight...)
	c.Visited = append([]float64(nil), s.Visited...)
	c.NEval = s.NEval
	c.Seed = s.Seed
	c.Propose = s.Propose
	c.Accept = s.Accept
	for i, pool := range c.Var {
		if i < len(s.Vars) {
			pool.Restore(s.Vars[i])
		}
	}
}

// EncodeSnapshot serializes a Snapshot to YAML bytes, the
// human-diffable format this module uses for periodic persistence.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodeSnapshot parses YAML bytes produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	err := yaml.Unmarshal(data, &s)
	return s, err
}
