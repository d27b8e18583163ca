// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"math"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gomph/tape"
	"github.com/cpmech/gosl/chk"
)

// FlowSystem extends the base relaxation system with the behaviour of
// a mean flow solver: freestream data, wind gusts, adaptive CFL,
// fixed lift mode, boundary tractions and turbomachinery averages.
type FlowSystem struct {
	System

	// freestream and gusts
	uinf    []float64     // freestream velocity
	gust    [][][]float64 // imposed gust velocity, per level and point
	gustDer [][][]float64 // gust derivatives, per level and point

	// adaptive CFL
	cfl       float64
	residPrev float64

	// gradients
	grads [][]float64 // spatial gradient of variable 0 at level 0

	// fixed lift mode
	targetCL      float64
	dCLdAlpha     float64
	aoa           float64
	startFD       bool
	iterUpdateAoA int

	// tractions
	tractions []float64 // boundary tractions at level 0
	adjTrac   []float64 // traction adjoints imposed by the coupled zone
	tracBase  int       // index of the first traction output on the tape
	tracGen   int       // tape generation of the traction outputs

	// turbomachinery averages
	avgIn, avgOut float64
}

// NewFlowSystem builds the flow system of one zone instance. The kind
// distinguishes the direct mean flow from its continuous adjoint.
func NewFlowSystem(sim *inp.Simulation, zone *inp.ZoneData, key sys.ZoneInstanceKey, kind sys.PhysicsKind, geom *Geometry, store *Store) (o *FlowSystem) {
	o = new(FlowSystem)
	o.System = *NewSystem(sim, zone, key, kind, geom, store)
	ndim := geom.Ndim()
	o.uinf = make([]float64, ndim)
	o.uinf[0] = 1.0
	o.gust = make([][][]float64, geom.NumLevels())
	o.gustDer = make([][][]float64, geom.NumLevels())
	for lev := 0; lev < geom.NumLevels(); lev++ {
		o.gust[lev] = make([][]float64, geom.NumPoints(lev))
		o.gustDer[lev] = make([][]float64, geom.NumPoints(lev))
		for p := 0; p < geom.NumPoints(lev); p++ {
			o.gust[lev][p] = make([]float64, ndim)
			o.gustDer[lev][p] = make([]float64, 3)
		}
	}
	o.cfl = 1.0
	o.grads = make([][]float64, geom.NumPoints(0))
	for p := range o.grads {
		o.grads[p] = make([]float64, ndim)
	}
	o.targetCL = sim.Coupling.TargetCL
	o.dCLdAlpha = 0.2
	o.tractions = make([]float64, geom.NumPoints(0))
	o.adjTrac = make([]float64, geom.NumPoints(0))
	return
}

// FreestreamVel returns the freestream velocity component i
func (o *FlowSystem) FreestreamVel(i int) float64 { return o.uinf[i] }

// SetWindGust imposes the gust velocity and its derivatives on point p
func (o *FlowSystem) SetWindGust(lev, p int, gust, dgust []float64) {
	copy(o.gust[lev][p], gust)
	copy(o.gustDer[lev][p], dgust)
}

// GustVel returns the imposed gust velocity of point p (reference)
func (o *FlowSystem) GustVel(lev, p int) []float64 { return o.gust[lev][p] }

// AdaptCFL grows the CFL number while the residual keeps falling and
// cuts it back when the residual grows
func (o *FlowSystem) AdaptCFL() {
	res := o.Residual(0)
	if o.residPrev > 0 {
		if res < o.residPrev {
			o.cfl = math.Min(o.cfl*1.05, 1e4)
		} else {
			o.cfl = math.Max(o.cfl*0.5, 0.1)
		}
	}
	o.residPrev = res
}

// CFL returns the current CFL number
func (o *FlowSystem) CFL() float64 { return o.cfl }

// ComputeGradients recomputes the spatial gradients of variable 0 by
// central differences along the point line
func (o *FlowSystem) ComputeGradients() (err error) {
	h := o.Hist(0)
	ch := o.geom.CoordHist(0)
	n := o.geom.NumPoints(0)
	for p := 0; p < n; p++ {
		pa, pb := p-1, p+1
		if pa < 0 {
			pa = 0
		}
		if pb > n-1 {
			pb = n - 1
		}
		dx := ch.V[pb][0] - ch.V[pa][0]
		if dx == 0 {
			continue
		}
		o.grads[p][0] = (h.V[pb][0] - h.V[pa][0]) / dx
	}
	return
}

// lift computes the lift coefficient as the average of variable 0
// weighted by the angle of attack
func (o *FlowSystem) lift() float64 {
	h := o.Hist(0)
	n := o.geom.NumPoints(0)
	sum := 0.0
	for p := 0; p < n; p++ {
		sum += h.V[p][0]
	}
	return sum/float64(n) + o.dCLdAlpha*o.aoa
}

// FixedCLConvergence updates the angle of attack toward the target
// lift and reports the convergence of the fixed lift mode. Once both
// the inner iterations and the lift have converged the finite
// difference step of the lift curve slope begins.
func (o *FlowSystem) FixedCLConvergence(innerIter int, converged bool) bool {
	if !converged {
		return false
	}
	cl := o.lift()
	if math.Abs(cl-o.targetCL) > 1e-3 {
		o.aoa += (o.targetCL - cl) / o.dCLdAlpha
		o.iterUpdateAoA = innerIter
		return false
	}
	if !o.startFD {
		o.startFD = true
		o.iterUpdateAoA = innerIter
	}
	return true
}

// StartFD tells whether the finite difference perturbation step began
func (o *FlowSystem) StartFD() bool { return o.startFD }

// IterUpdateAoA returns the inner iteration of the last angle of
// attack update
func (o *FlowSystem) IterUpdateAoA() int { return o.iterUpdateAoA }

// AngleOfAttack returns the current angle of attack
func (o *FlowSystem) AngleOfAttack() float64 { return o.aoa }

// ComputeVertexTractions recomputes the boundary tractions exchanged
// with a structural zone
func (o *FlowSystem) ComputeVertexTractions() {
	h := o.Hist(0)
	for p := 0; p < o.geom.NumPoints(0); p++ {
		o.tractions[p] = h.V[p][0] * o.geom.MinSpacing(0)
	}
}

// RegisterVertexTractions registers the tractions as dependents of the
// recording
func (o *FlowSystem) RegisterVertexTractions(tp *tape.Tape) {
	slots := o.Slots()
	if len(slots) == 0 {
		return
	}
	o.tracBase = tp.NumOutputs()
	o.tracGen = tp.Generation()
	for p := 0; p < o.geom.NumPoints(0); p++ {
		tp.Output(slots[p*o.Nvars()])
	}
}

// SetVertexTractionsAdjoint seeds the traction outputs with the
// adjoints handed over by the coupled structural zone
func (o *FlowSystem) SetVertexTractionsAdjoint() {
	if o.tp == nil || o.tracGen != o.tp.Generation() {
		return
	}
	for p := 0; p < o.geom.NumPoints(0); p++ {
		o.tp.SeedOutput(o.tracBase+p, o.adjTrac[p])
	}
}

// SetTractionAdjoint stores the traction adjoint of boundary point p
func (o *FlowSystem) SetTractionAdjoint(p int, val float64) { o.adjTrac[p] = val }

// Traction returns the boundary traction of point p
func (o *FlowSystem) Traction(p int) float64 { return o.tractions[p] }

// TurboAverage computes the spanwise average at one turbomachinery
// boundary: the first quarter of points for the inflow, the last for
// the outflow
func (o *FlowSystem) TurboAverage(marker string) (err error) {
	h := o.Hist(0)
	n := o.geom.NumPoints(0)
	q := n / 4
	if q < 1 {
		q = 1
	}
	sum := 0.0
	switch marker {
	case "inflow":
		for p := 0; p < q; p++ {
			sum += h.V[p][0]
		}
		o.avgIn = sum / float64(q)
	case "outflow":
		for p := n - q; p < n; p++ {
			sum += h.V[p][0]
		}
		o.avgOut = sum / float64(q)
	default:
		return chk.Err("unknown turbomachinery marker %q", marker)
	}
	return
}

// GatherAverages collects the averaged values across the processes.
// There is nothing to collect in a single process run.
func (o *FlowSystem) GatherAverages() (err error) { return }

// Averages returns the turbomachinery in/outflow averages
func (o *FlowSystem) Averages() (in, out float64) { return o.avgIn, o.avgOut }

// SetForceProjection imposes the objective on one level through a force
// projection along the freestream, scaled by the lift coefficient
func (o *FlowSystem) SetForceProjection(lev int) (err error) {
	cl := o.lift()
	h := o.Hist(lev)
	for p := range h.V {
		for j := range h.V[p] {
			h.V[p][j] += 1e-3 * cl * o.uinf[0]
		}
	}
	return
}

// PropagateCoeffs copies the fine-level force coefficients to the
// coarse levels. The lift is recomputed from the fine grid, so there is
// nothing to copy besides refreshing the tractions.
func (o *FlowSystem) PropagateCoeffs() {
	o.ComputeVertexTractions()
}

var (
	_ sys.WithFreestream       = (*FlowSystem)(nil)
	_ sys.WithFixedCL          = (*FlowSystem)(nil)
	_ sys.WithTractions        = (*FlowSystem)(nil)
	_ sys.WithForceProjection  = (*FlowSystem)(nil)
	_ sys.WithTurboAverages    = (*FlowSystem)(nil)
	_ sys.WithInitialCondition = (*FlowSystem)(nil)
)
