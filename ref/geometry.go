// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ref implements the reference physics services driven by the
// iteration machines: a point-cloud geometry with multigrid levels and
// relaxation systems converging to a prescribed target field
package ref

import (
	"math"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gomph/tape"
	"github.com/cpmech/gosl/chk"
)

// Geometry is a point cloud with multigrid levels. Level 0 is the
// finest; each coarser level keeps every other point of the finer one.
type Geometry struct {

	// data
	ndim    int // space dimension
	nlevels int // number of levels

	// per level
	npts     []int          // number of points
	coords   []*sys.History // coordinate time histories; V is the current position
	gridvel  [][][]float64  // grid velocity of each point
	walldist [][]float64    // wall distances
	spacing  []float64      // minimum point spacing, set by UpdateGeometry

	// recording
	inSlots  []int // tape slots of the level 0 coordinates, point-major
	outSlots []int // tape slots of the level 0 coordinates as dependents
	regGen   int   // tape generation of the registered slots
}

// NewGeometry builds the point cloud of one zone instance: points
// distributed uniformly along the first axis of the domain
func NewGeometry(sim *inp.Simulation) (o *Geometry) {
	o = new(Geometry)
	o.ndim = sim.Data.Ndim
	o.nlevels = sim.NLevels
	o.npts = make([]int, o.nlevels)
	o.coords = make([]*sys.History, o.nlevels)
	o.gridvel = make([][][]float64, o.nlevels)
	o.walldist = make([][]float64, o.nlevels)
	o.spacing = make([]float64, o.nlevels)
	n := sim.Data.Npts
	for lev := 0; lev < o.nlevels; lev++ {
		if n < 2 {
			n = 2
		}
		o.npts[lev] = n
		o.coords[lev] = sys.NewHistory(n, o.ndim)
		o.gridvel[lev] = make([][]float64, n)
		o.walldist[lev] = make([]float64, n)
		dx := 1.0 / float64(n-1)
		for p := 0; p < n; p++ {
			o.coords[lev].V[p][0] = float64(p) * dx
			o.gridvel[lev][p] = make([]float64, o.ndim)
		}
		o.coords[lev].PushN()
		o.coords[lev].PushN1()
		n /= 2
	}
	err := o.UpdateGeometry()
	if err != nil {
		chk.Panic("cannot build geometry:\n%v", err)
	}
	o.ComputeWallDistance()
	return
}

// Ndim returns the space dimension
func (o *Geometry) Ndim() int { return o.ndim }

// NumLevels returns the number of grid levels
func (o *Geometry) NumLevels() int { return o.nlevels }

// NumPoints returns the number of points of one level
func (o *Geometry) NumPoints(lev int) int { return o.npts[lev] }

// CoordHist returns the coordinate time history of one level
func (o *Geometry) CoordHist(lev int) *sys.History { return o.coords[lev] }

// GridVel returns the grid velocity of point p (reference)
func (o *Geometry) GridVel(lev, p int) []float64 { return o.gridvel[lev][p] }

// SetGridVel sets the grid velocity of point p
func (o *Geometry) SetGridVel(lev, p int, v []float64) {
	copy(o.gridvel[lev][p], v)
}

// UpdateGeometry recomputes the metrics after the coordinates moved.
// It fails when two neighbouring points coincide (tangled mesh).
func (o *Geometry) UpdateGeometry() (err error) {
	for lev := 0; lev < o.nlevels; lev++ {
		dmin := math.Inf(1)
		for p := 1; p < o.npts[lev]; p++ {
			d := 0.0
			for i := 0; i < o.ndim; i++ {
				δ := o.coords[lev].V[p][i] - o.coords[lev].V[p-1][i]
				d += δ * δ
			}
			d = math.Sqrt(d)
			if d < dmin {
				dmin = d
			}
		}
		if dmin <= 0 {
			return chk.Err("tangled mesh at level %d: coincident neighbouring points", lev)
		}
		o.spacing[lev] = dmin
	}
	return
}

// ComputeWallDistance recomputes the distance of each point to the
// first point of its level, which plays the role of the wall
func (o *Geometry) ComputeWallDistance() error {
	for lev := 0; lev < o.nlevels; lev++ {
		wall := o.coords[lev].V[0]
		for p := 0; p < o.npts[lev]; p++ {
			d := 0.0
			for i := 0; i < o.ndim; i++ {
				δ := o.coords[lev].V[p][i] - wall[i]
				d += δ * δ
			}
			o.walldist[lev][p] = math.Sqrt(d)
		}
	}
	return nil
}

// WallDistance returns the wall distance of point p
func (o *Geometry) WallDistance(lev, p int) float64 { return o.walldist[lev][p] }

// MinSpacing returns the minimum point spacing of one level
func (o *Geometry) MinSpacing(lev int) float64 { return o.spacing[lev] }

// SetGridVelFD computes the grid velocities by backward differences of
// the coordinate time levels
func (o *Geometry) SetGridVelFD(dt float64, secondOrder bool) {
	for lev := 0; lev < o.nlevels; lev++ {
		h := o.coords[lev]
		for p := 0; p < o.npts[lev]; p++ {
			for i := 0; i < o.ndim; i++ {
				if secondOrder {
					o.gridvel[lev][p][i] = (3.0*h.V[p][i] - 4.0*h.N[p][i] + h.N1[p][i]) / (2.0 * dt)
				} else {
					o.gridvel[lev][p][i] = (h.V[p][i] - h.N[p][i]) / dt
				}
			}
		}
	}
}

// PropagateCoarse restricts the fine-level coordinates and grid
// velocities to the coarser levels by injection
func (o *Geometry) PropagateCoarse() {
	for lev := 1; lev < o.nlevels; lev++ {
		stride := o.npts[0] / o.npts[lev]
		if stride < 1 {
			stride = 1
		}
		for p := 0; p < o.npts[lev]; p++ {
			q := p * stride
			if q >= o.npts[0] {
				q = o.npts[0] - 1
			}
			copy(o.coords[lev].V[p], o.coords[0].V[q])
			copy(o.gridvel[lev][p], o.gridvel[0][q])
		}
	}
}

// RegisterCoordinates registers the level 0 coordinates as independents
func (o *Geometry) RegisterCoordinates(tp *tape.Tape) {
	o.inSlots = o.inSlots[:0]
	o.regGen = tp.Generation()
	for p := 0; p < o.npts[0]; p++ {
		for i := 0; i < o.ndim; i++ {
			o.inSlots = append(o.inSlots, tp.Input(o.coords[0].V[p][i]))
		}
	}
}

// RegisterOutputCoordinates registers the level 0 coordinates as
// dependents. It does nothing if the coordinates were not registered
// as independents in this recording.
func (o *Geometry) RegisterOutputCoordinates(tp *tape.Tape) {
	o.outSlots = o.outSlots[:0]
	for _, slot := range o.CoordSlots(tp) {
		tp.Output(slot)
		o.outSlots = append(o.outSlots, slot)
	}
}

// CoordSlots returns the tape slots of the coordinates registered in
// the current recording, or nil when the registration is stale
func (o *Geometry) CoordSlots(tp *tape.Tape) []int {
	if o.regGen != tp.Generation() {
		return nil
	}
	return o.inSlots
}

// CoordSensitivities returns the adjoints of the registered
// coordinates, point-major
func (o *Geometry) CoordSensitivities(tp *tape.Tape) (sens []float64) {
	slots := o.CoordSlots(tp)
	sens = make([]float64, len(slots))
	for i, slot := range slots {
		sens[i] = tp.Adjoint(slot)
	}
	return
}

// InitiateComms begins the halo exchange of one quantity. There is
// nothing to exchange in a single process run.
func (o *Geometry) InitiateComms(quantity string) {}

// CompleteComms finishes the halo exchange of one quantity
func (o *Geometry) CompleteComms(quantity string) {}
