// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"github.com/cpmech/gomph/sys"
)

// sweeper is what the space integration needs from a physics system
type sweeper interface {
	sys.Solver
	Sweep(lev int, t float64)
	Time() float64
	SetTime(t float64)
}

// Integration drives the space integration of one physics system over
// the grid levels
type Integration struct {
	system sweeper
	geom   *Geometry
	dt     float64
	dual2  bool
	conv   bool
}

// NewIntegration builds the integration driver of one system
func NewIntegration(system sweeper, geom *Geometry, dt float64, dual2 bool) *Integration {
	return &Integration{system: system, geom: geom, dt: dt, dual2: dual2}
}

// nlevels caps the configured level count by what the grid provides
func (o *Integration) nlevels(cpl *sys.CouplingConfig) int {
	n := cpl.NLevels
	if n > o.geom.NumLevels() {
		n = o.geom.NumLevels()
	}
	if n < 1 {
		n = 1
	}
	return n
}

// MultiGridIteration performs one full sweep over all grid levels,
// coarsest first, finishing on the finest grid
func (o *Integration) MultiGridIteration(cpl *sys.CouplingConfig) (err error) {
	t := o.system.Time()
	for lev := o.nlevels(cpl) - 1; lev >= 0; lev-- {
		o.system.Sweep(lev, t)
	}
	return
}

// SingleGridIteration performs one iteration on the finest grid
func (o *Integration) SingleGridIteration(cpl *sys.CouplingConfig) (err error) {
	o.system.Sweep(0, o.system.Time())
	return
}

// StructuralIteration performs one nonlinear structural iteration.
// Structural systems only iterate on the finest level.
func (o *Integration) StructuralIteration(cpl *sys.CouplingConfig) (err error) {
	o.system.Sweep(0, o.system.Time())
	return
}

// DualTimeShift rotates the time levels of one grid level after a
// converged physical step. The physical time advances with level 0.
func (o *Integration) DualTimeShift(lev int) {
	o.system.Hist(lev).Shift(o.dual2)
	if lev == 0 {
		o.system.SetTime(o.system.Time() + o.dt)
	}
}

// Convergence returns the inner convergence flag
func (o *Integration) Convergence() bool { return o.conv }

// SetConvergence sets the inner convergence flag
func (o *Integration) SetConvergence(flag bool) { o.conv = flag }

var _ sys.Integration = (*Integration)(nil)
