// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iterate implements the multi-iteration controller: it
// partitions each iteration's evaluations into blocks, runs
// them across a small persistent worker pool, reduces the per-block
// means into an iteration-level (mean, stderr), retrains every variable
// pool, and retunes the reweight vector before the next iteration.
package iterate

import (
	"runtime"
	"sync"
)

// pool is a persistent worker pool reused across every iteration's
// block dispatch, avoiding a goroutine spawn per block. Workers are
// spawned once at construction and exit when close is called.
type pool struct {
	numWorkers int
	workC      chan func()
	closeOnce  sync.Once
}

// newPool creates a pool with numWorkers persistent workers. A
// non-positive numWorkers defaults to GOMAXPROCS.
func newPool(numWorkers int) *pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &pool{
		numWorkers: numWorkers,
		workC:      make(chan func(), numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	for fn := range p.workC {
		fn()
	}
}

// close shuts the pool down. Safe to call more than once.
func (p *pool) close() {
	p.closeOnce.Do(func() { close(p.workC) })
}

// runBlocks applies fn to every index in [0, n) using work-stealing
// over the pool's workers, and returns the results in index order.
// Blocks until every index has been processed.
func (p *pool) runBlocks(n int, fn func(i int) blockOutcome) []blockOutcome {
	results := make([]blockOutcome, n)
	if n == 0 {
		return results
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		i := i
		p.workC <- func() {
			defer wg.Done()
			results[i] = fn(i)
		}
	}
	wg.Wait()
	return results
}
