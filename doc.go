// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mcintegrate is an adaptive Monte Carlo integrator for
// high-dimensional integrals whose integration variables may be of
// mixed type: continuous real intervals (package variable, Continuous),
// discrete index sets (Discrete), free momenta on a spherical shell
// (FermiK), or composites of these (CompositeVar).
//
// Two sampling engines drive a user integrand through the variable
// pools: package vegas is an independent-sample importance sampler,
// and package vegasmc is a reweighted Markov chain over the mixture of
// every integrand supplied. Package iterate schedules evaluations into
// blocks across a worker pool, retrains the variable maps between
// iterations, and retunes the mixture's reweight vector. Package
// mcstat combines the resulting per-iteration history into a final
// mean, standard error and reduced chi-square.
//
// The top-level Integrate function wires these together behind a
// single Settings struct, in the style of gonum's optimize.Settings.
package mcintegrate
