// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"math"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
)

// Mover moves the surface points of the grid. The leading tenth of the
// point cloud plays the role of the moving boundary.
type Mover struct {
	sim  *inp.Simulation
	geom *Geometry
	flow *FlowSystem // tractions driving the aeroelastic response; may be nil

	// aeroelastic state: plunge displacement and velocity
	plunge, plungeVel float64
}

// NewMover builds the surface mover of one zone instance
func NewMover(sim *inp.Simulation, geom *Geometry, flow *FlowSystem) *Mover {
	return &Mover{sim: sim, geom: geom, flow: flow}
}

// nsurf returns the number of boundary points
func (o *Mover) nsurf() int {
	n := o.geom.NumPoints(0) / 10
	if n < 1 {
		n = 1
	}
	return n
}

// SetExternalDeformation imposes the externally prescribed deformation
// on the boundary points
func (o *Mover) SetExternalDeformation(timeIter int) (err error) {
	fcn := o.sim.Motion.ExtFunc
	if fcn == nil {
		return chk.Err("external mesh motion requires the deformation function %q", o.sim.Motion.ExtFcnName)
	}
	t := float64(timeIter) * o.sim.Time.Dt
	hist := o.geom.CoordHist(0)
	for p := 0; p < o.nsurf(); p++ {
		x := hist.V[p]
		x[0] += 0.01 * fcn.F(t, x)
	}
	return
}

// Aeroelastic solves a one degree of freedom plunge response driven by
// the boundary tractions and moves the boundary accordingly
func (o *Mover) Aeroelastic(timeIter int) (err error) {
	if o.flow == nil {
		return chk.Err("the aeroelastic response requires a flow system")
	}
	dt := o.sim.Time.Dt
	if dt <= 0 {
		dt = 1.0
	}

	// total load on the boundary
	load := 0.0
	for p := 0; p < o.nsurf(); p++ {
		load += o.flow.Traction(p)
	}

	// mass-spring response with unit mass and stiffness
	accel := load - o.plunge
	o.plungeVel += dt * accel
	dh := dt * o.plungeVel
	o.plunge += dh

	// plunge acts normal to the freestream; 1D grids plunge along x
	dir := 0
	if o.geom.Ndim() > 1 {
		dir = 1
	}
	hist := o.geom.CoordHist(0)
	for p := 0; p < o.nsurf(); p++ {
		hist.V[p][dir] += dh
	}
	return
}

// Plunge returns the current plunge displacement
func (o *Mover) Plunge() float64 { return o.plunge }

// Deformer propagates a boundary deformation into the volume by
// smoothing the interior point coordinates
type Deformer struct {
	geom  *Geometry
	niter int
}

// NewDeformer builds the volume mesh deformer
func NewDeformer(geom *Geometry, niter int) *Deformer {
	if niter < 1 {
		niter = 3
	}
	return &Deformer{geom: geom, niter: niter}
}

// Deform smooths the interior coordinates toward the average of their
// neighbours, pulling the volume after the moved boundary
func (o *Deformer) Deform(updateGridVel bool) (err error) {
	hist := o.geom.CoordHist(0)
	n := hist.Npts()
	ndim := o.geom.Ndim()
	for it := 0; it < o.niter; it++ {
		for p := 1; p < n-1; p++ {
			for i := 0; i < ndim; i++ {
				avg := 0.5 * (hist.V[p-1][i] + hist.V[p+1][i])
				hist.V[p][i] += 0.5 * (avg - hist.V[p][i])
			}
		}
	}
	if updateGridVel {
		// tangled interior points abort the deformation
		for p := 1; p < n; p++ {
			d := 0.0
			for i := 0; i < ndim; i++ {
				d += math.Abs(hist.V[p][i] - hist.V[p-1][i])
			}
			if d == 0 {
				return chk.Err("mesh deformation collapsed points %d and %d", p-1, p)
			}
		}
	}
	return
}

// NumIterMesh returns the number of smoothing iterations
func (o *Deformer) NumIterMesh() int { return o.niter }

var (
	_ sys.Mover    = (*Mover)(nil)
	_ sys.Deformer = (*Deformer)(nil)
)
