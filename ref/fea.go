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
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// FEASystem extends the base relaxation system with the behaviour of a
// structural solver: material properties, load incrementation, Newmark
// time integration, Aitken relaxation and topology densities. The
// displacement relaxes toward the target field scaled by the material
// compliance, so the material properties enter the residual and their
// sensitivities are meaningful.
type FEASystem struct {
	System

	// material properties
	young   []float64 // elasticity moduli, one per property set
	poisson []float64 // Poisson ratios
	density []float64 // densities
	densDL  []float64 // dead load densities
	efield  []float64 // electric field moduli
	dv      []float64 // design variables
	e0      float64   // reference elasticity modulus

	// load control
	loadInc   float64 // ramp coefficient of the external loads
	forceCoef float64 // coefficient of the coupled interface loads

	// dynamics (Newmark)
	beta, gamma float64
	vel, accel  [][]float64

	// outer coupling (Aitken)
	aitken    float64
	residOld  []float64 // interface residual of the previous outer iteration
	residCurr []float64

	// recording slots of the material properties
	eSlots, nuSlots, rhoSlots, efSlots, dvSlots []int
	matGen                                      int

	// flags
	dynamic bool
}

// NewFEASystem builds the structural system of one zone instance
func NewFEASystem(sim *inp.Simulation, zone *inp.ZoneData, key sys.ZoneInstanceKey, geom *Geometry, store *Store) (o *FEASystem) {
	o = new(FEASystem)
	o.System = *NewSystem(sim, zone, key, sys.Stru, geom, store)
	fea := &sim.FEA

	nprop := fea.NYoung
	if nprop < 1 {
		nprop = 1
	}
	o.young = fill(nprop, 1.0)
	o.poisson = fill(nprop, 0.3)
	o.density = fill(nprop, 1.0)
	o.densDL = fill(nprop, 1.0)
	o.e0 = 1.0

	nef := fea.NEField
	if nef < 1 {
		nef = 1
	}
	o.efield = fill(nef, 0.0)

	ndv := fea.NDesignVars
	if ndv < 1 {
		ndv = 1
	}
	o.dv = fill(ndv, 1.0)

	o.loadInc = 1.0
	o.forceCoef = 1.0

	o.dynamic = fea.TimeScheme != ""
	o.beta = 0.25
	o.gamma = 0.5
	n := geom.NumPoints(0)
	o.vel = utl.Alloc(n, o.Nvars())
	o.accel = utl.Alloc(n, o.Nvars())

	o.aitken = fea.AitkenInit
	o.residOld = make([]float64, n)
	o.residCurr = make([]float64, n)
	return
}

func fill(n int, val float64) (v []float64) {
	v = make([]float64, n)
	la.Vector(v).Fill(val)
	return
}

// compliance returns the material compliance scaling the target field
func (o *FEASystem) compliance() float64 {
	nu := o.poisson[0]
	return (1.0 - nu*nu) * o.e0 / o.young[0]
}

// loadFactor composes the load increment with the design variables
func (o *FEASystem) loadFactor() float64 {
	sum := 0.0
	for _, v := range o.dv {
		sum += v
	}
	mean := sum / float64(len(o.dv))
	return o.loadInc * o.forceCoef * (1.0 + 0.1*(mean-1.0))
}

// Sweep performs one relaxation pass of the structural equations,
// recording the material dependencies when the tape is active. The
// structural system only iterates on the finest level.
func (o *FEASystem) Sweep(lev int, t float64) {

	if lev != 0 {
		o.System.Sweep(lev, t)
		return
	}
	o.SetTime(t)
	h := o.Hist(0)
	rec := o.recording(0)
	c := o.compliance()
	lf := o.loadFactor()
	ndv := float64(len(o.dv))

	for j := 0; j < o.Nvars(); j++ {
		o.resid[j] = 0
	}

	for p := 0; p < o.geom.NumPoints(0); p++ {
		x := o.geom.CoordHist(0).V[p]
		for j := 0; j < o.Nvars(); j++ {

			T := o.targetAt(t, x, j)
			forcing := lf * c * T
			if len(o.efield) > 0 {
				forcing += 0.1 * o.efield[0] * T
			}
			r := forcing - h.V[p][j]
			if o.dynamic {
				r -= o.density[0] * (h.V[p][j] - h.N[p][j])
			}
			if math.Abs(r) > o.resid[j] {
				o.resid[j] = math.Abs(r)
			}
			vnew := h.V[p][j] + o.omega*r

			if rec {
				k := p*o.Nvars() + j
				in := []int{o.slots[k]}
				dvdu := 1.0 - o.omega
				if o.dynamic {
					dvdu -= o.omega * o.density[0]
				}
				der := []float64{dvdu}

				if o.matGen == o.tp.Generation() {
					// material dependencies
					in = append(in, o.eSlots[0], o.nuSlots[0])
					der = append(der,
						-o.omega*lf*T*c/o.young[0],
						-o.omega*lf*T*2.0*o.poisson[0]*o.e0/o.young[0])
					if o.dynamic {
						in = append(in, o.rhoSlots[0])
						der = append(der, -o.omega*(h.V[p][j]-h.N[p][j]))
					}
					in = append(in, o.efSlots[0])
					der = append(der, o.omega*0.1*T)
					for i := range o.dvSlots {
						in = append(in, o.dvSlots[i])
						der = append(der, o.omega*0.1*o.loadInc*o.forceCoef*c*T/ndv)
					}
				}
				if cs := o.geom.CoordSlots(o.tp); len(cs) > 0 {
					for i := 0; i < o.geom.Ndim(); i++ {
						in = append(in, cs[p*o.geom.Ndim()+i])
						der = append(der, o.omega*lf*c*o.targetGrad(t, x, i, j))
					}
				}
				o.slots[k] = o.tp.Op(vnew, in, der)
			}

			h.V[p][j] = vnew
		}
	}

	if rec {
		o.recordObjective()
	}
}

// SetLoadIncrement sets the ramp coefficient of the external loads
func (o *FEASystem) SetLoadIncrement(coef float64) { o.loadInc = coef }

// SetForceCoeff sets the coefficient of the coupled interface loads
func (o *FEASystem) SetForceCoeff(coef float64) { o.forceCoef = coef }

// LoadIncrement returns the current ramp coefficient
func (o *FEASystem) LoadIncrement() float64 { return o.loadInc }

// PredictDisplacement extrapolates the solution to the new outer
// iteration: order 0 keeps the last converged step, order 1 adds the
// backward difference of the two previous steps
func (o *FEASystem) PredictDisplacement(order int) (err error) {
	h := o.Hist(0)
	switch order {
	case 0:
		h.VfromN()
	case 1:
		for p := range h.V {
			for j := range h.V[p] {
				h.V[p][j] = 2.0*h.N[p][j] - h.N1[p][j]
			}
		}
	default:
		return chk.Err("unknown predictor order %d", order)
	}
	return
}

// ComputeAitken computes the dynamic relaxation parameter from the
// interface residuals of two successive outer iterations
func (o *FEASystem) ComputeAitken(outerIter int) (err error) {
	h := o.Hist(0)
	for p := range h.V {
		o.residCurr[p] = h.V[p][0] - h.Old[p][0]
	}
	if outerIter == 0 {
		copy(o.residOld, o.residCurr)
		return
	}
	num, den := 0.0, 0.0
	for p := range o.residCurr {
		d := o.residCurr[p] - o.residOld[p]
		num += o.residOld[p] * d
		den += d * d
	}
	if den > 0 {
		o.aitken = -o.aitken * num / den
	}
	if o.aitken < 1e-4 {
		o.aitken = 1e-4
	}
	if o.aitken > 1.0 {
		o.aitken = 1.0
	}
	copy(o.residOld, o.residCurr)
	return
}

// SetAitkenRelaxation relaxes the interface solution with the current
// Aitken parameter and stashes it for the next outer iteration
func (o *FEASystem) SetAitkenRelaxation() (err error) {
	h := o.Hist(0)
	for p := range h.V {
		for j := range h.V[p] {
			h.V[p][j] = h.Old[p][j] + o.aitken*(h.V[p][j]-h.Old[p][j])
		}
	}
	h.Stash()
	return
}

// Aitken returns the current relaxation parameter
func (o *FEASystem) Aitken() float64 { return o.aitken }

// RelaxationNewmark commits the dynamic solution of this outer
// iteration: accelerations and velocities follow from the Newmark
// scheme and the converged displacements
func (o *FEASystem) RelaxationNewmark() (err error) {
	if o.dt <= 0 {
		return chk.Err("newmark relaxation needs a positive time step size")
	}
	h := o.Hist(0)
	for p := range h.V {
		for j := range h.V[p] {
			du := h.V[p][j] - h.N[p][j]
			anew := du/(o.beta*o.dt*o.dt) - o.vel[p][j]/(o.beta*o.dt) - (0.5/o.beta-1.0)*o.accel[p][j]
			o.vel[p][j] += o.dt * ((1.0-o.gamma)*o.accel[p][j] + o.gamma*anew)
			o.accel[p][j] = anew
		}
	}
	return
}

// SetInitialCondition resets the solution, velocities and accelerations
func (o *FEASystem) SetInitialCondition(timeIter int) (err error) {
	if timeIter > 0 {
		return
	}
	for lev := 0; lev < o.geom.NumLevels(); lev++ {
		o.SetDefaultSolution(lev)
		o.Hist(lev).PushN()
		o.Hist(lev).PushN1()
	}
	for p := range o.vel {
		la.Vector(o.vel[p]).Fill(0)
		la.Vector(o.accel[p]).Fill(0)
	}
	return
}

// SetDefaultSolution zeroes the displacements of one level
func (o *FEASystem) SetDefaultSolution(lev int) {
	h := o.Hist(lev)
	for p := range h.V {
		la.Vector(h.V[p]).Fill(0)
	}
}

// FilterElementDensities smooths the design variable field by
// neighbour averaging
func (o *FEASystem) FilterElementDensities() (err error) {
	n := len(o.dv)
	if n < 2 {
		return
	}
	filtered := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := i-1, i+1
		if a < 0 {
			a = 0
		}
		if b > n-1 {
			b = n - 1
		}
		filtered[i] = (o.dv[a] + o.dv[i] + o.dv[b]) / 3.0
	}
	copy(o.dv, filtered)
	return
}

// BindMaterialSlots attaches the tape slots of the material properties
// registered as extra independents. The sweeps record the material
// partial derivatives from then on.
func (o *FEASystem) BindMaterialSlots(tp *tape.Tape, eSlots, nuSlots, rhoSlots, efSlots, dvSlots []int) {
	o.eSlots = eSlots
	o.nuSlots = nuSlots
	o.rhoSlots = rhoSlots
	o.efSlots = efSlots
	o.dvSlots = dvSlots
	o.matGen = tp.Generation()
}

// material accessors

func (o *FEASystem) Young(i int) float64                { return o.young[i] }
func (o *FEASystem) Poisson(i int) float64              { return o.poisson[i] }
func (o *FEASystem) Density(i int) (rho, rhoDL float64) { return o.density[i], o.densDL[i] }
func (o *FEASystem) EField(i int) float64               { return o.efield[i] }
func (o *FEASystem) NumDesignVars() int                 { return len(o.dv) }
func (o *FEASystem) DesignVar(i int) float64            { return o.dv[i] }
func (o *FEASystem) Dynamic() bool                      { return o.dynamic }

// SetMaterialProperties sets the elasticity modulus and Poisson ratio
// of property set i
func (o *FEASystem) SetMaterialProperties(i int, e, nu float64) {
	o.young[i] = e
	o.poisson[i] = nu
}

// SetMaterialDensity sets the densities of property set i
func (o *FEASystem) SetMaterialDensity(i int, rho, rhoDL float64) {
	o.density[i] = rho
	o.densDL[i] = rhoDL
}

// SetElectricField sets the electric field modulus of region i
func (o *FEASystem) SetElectricField(i int, val float64) {
	o.efield[i] = val
}

// SetDesignVariable sets design variable i
func (o *FEASystem) SetDesignVariable(i int, val float64) {
	o.dv[i] = val
}

// ObjFuncValue evaluates the structural objective function
func (o *FEASystem) ObjFuncValue(name string) float64 {
	switch name {
	case "refnode":
		return o.Hist(0).V[0][0]
	case "topcomp":
		sum := 0.0
		for _, v := range o.dv {
			sum += v
		}
		return sum / float64(len(o.dv))
	}
	return o.System.ObjFuncValue(name)
}

var (
	_ sys.Structural   = (*FEASystem)(nil)
	_ sys.Numerics     = (*FEASystem)(nil)
	_ sys.WithTopology = (*FEASystem)(nil)
	_ sys.WithObjFunc  = (*FEASystem)(nil)
)
