// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"math"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gomph/tape"
	"github.com/cpmech/gosl/utl"
)

// directSystem is what an adjoint wrapper needs from its direct system
type directSystem interface {
	sys.Solver
	sys.WithObjFunc
	BindTape(tp *tape.Tape, slots []int)
	Slots() []int
	ObjSlot() (slot int, ok bool)
	Nvars() int
}

// AdjointSystem wraps a direct system and holds the adjoint solution.
// It registers the direct solution on the tape, seeds the objective and
// output adjoints and extracts the input adjoints after the reverse
// sweep.
type AdjointSystem struct {
	System

	dir     directSystem // the wrapped direct system
	objName string       // objective function name

	stored [][][]float64 // stored direct solution per level

	// registration bookkeeping
	tp        *tape.Tape
	inSlots   []int // input slots of the direct level 0 solution
	inGen     int
	objOutIdx int // output index of the objective function
	solOutIdx int // output index of the first solution variable
	outGen    int
}

// NewAdjointSystem builds the adjoint wrapper of one direct system
func NewAdjointSystem(sim *inp.Simulation, zone *inp.ZoneData, key sys.ZoneInstanceKey, kind sys.PhysicsKind, geom *Geometry, store *Store, dir directSystem) (o *AdjointSystem) {
	o = new(AdjointSystem)
	o.System = *NewSystem(sim, zone, key, kind, geom, store)
	o.dir = dir
	o.objName = sim.Adjoint.ObjFunc
	o.stored = make([][][]float64, geom.NumLevels())
	for lev := 0; lev < geom.NumLevels(); lev++ {
		o.stored[lev] = utl.Alloc(geom.NumPoints(lev), dir.Nvars())
	}
	// the adjoint solution starts from zero
	for lev := 0; lev < geom.NumLevels(); lev++ {
		h := o.Hist(lev)
		for p := range h.V {
			for j := range h.V[p] {
				h.V[p][j] = 0
			}
		}
	}
	return
}

// Direct returns the wrapped direct system
func (o *AdjointSystem) Direct() sys.Solver { return o.dir }

// StoreDirect saves the converged direct solution of one level
func (o *AdjointSystem) StoreDirect(lev int) {
	h := o.dir.Hist(lev)
	for p := range h.V {
		copy(o.stored[lev][p], h.V[p])
	}
}

// ResetToDirect resets the direct solution of one level to the stored
// converged values, so every recording starts from the same state
func (o *AdjointSystem) ResetToDirect(lev int) {
	h := o.dir.Hist(lev)
	for p := range h.V {
		copy(h.V[p], o.stored[lev][p])
	}
}

// RegisterSolution registers the direct level 0 solution as
// independents and binds the slots to the direct system
func (o *AdjointSystem) RegisterSolution(tp *tape.Tape, lev int) {
	if lev != 0 {
		return
	}
	o.tp = tp
	h := o.dir.Hist(0)
	nv := o.dir.Nvars()
	slots := make([]int, len(h.V)*nv)
	for p := range h.V {
		for j := 0; j < nv; j++ {
			slots[p*nv+j] = tp.Input(h.V[p][j])
		}
	}
	o.dir.BindTape(tp, slots)
	o.inSlots = make([]int, len(slots))
	copy(o.inSlots, slots)
	o.inGen = tp.Generation()
}

// RegisterVariables registers extra independents. The base systems
// have none.
func (o *AdjointSystem) RegisterVariables(tp *tape.Tape) {}

// RegisterOutput registers the objective function and the swept level 0
// solution as dependents
func (o *AdjointSystem) RegisterOutput(tp *tape.Tape, lev int) {
	if lev != 0 {
		return
	}
	o.objOutIdx = tp.NumOutputs()
	if slot, ok := o.dir.ObjSlot(); ok {
		tp.Output(slot)
	} else {
		tp.Output(tp.Const(o.dir.ObjFuncValue(o.objName)))
	}
	o.solOutIdx = tp.NumOutputs()
	for _, slot := range o.dir.Slots() {
		tp.Output(slot)
	}
	o.outGen = tp.Generation()
}

// SetAdjObjFunc seeds the adjoint of the objective function
func (o *AdjointSystem) SetAdjObjFunc(tp *tape.Tape) {
	if o.outGen != tp.Generation() {
		return
	}
	tp.SeedOutput(o.objOutIdx, 1.0)
}

// SetAdjointOutput seeds the adjoints of the solution outputs with the
// current adjoint solution, closing the fixed-point iteration
func (o *AdjointSystem) SetAdjointOutput(tp *tape.Tape, lev int) {
	if lev != 0 || o.outGen != tp.Generation() {
		return
	}
	h := o.Hist(0)
	nv := o.dir.Nvars()
	for p := range h.V {
		for j := 0; j < nv; j++ {
			tp.SeedOutput(o.solOutIdx+p*nv+j, h.V[p][j])
		}
	}
}

// ExtractAdjointSolution pulls the input adjoints into the adjoint
// solution and refreshes the monitored residuals from the change
func (o *AdjointSystem) ExtractAdjointSolution(lev int) {
	if lev != 0 || o.tp == nil || o.inGen != o.tp.Generation() {
		return
	}
	h := o.Hist(0)
	nv := o.dir.Nvars()
	for j := 0; j < nv && j < len(o.resid); j++ {
		o.resid[j] = 0
	}
	for p := range h.V {
		for j := 0; j < nv; j++ {
			a := o.tp.Adjoint(o.inSlots[p*nv+j])
			if j < len(o.resid) {
				d := math.Abs(a - h.V[p][j])
				if d > o.resid[j] {
					o.resid[j] = d
				}
			}
			h.V[p][j] = a
		}
	}
}

// ExtractAdjointVariables pulls the adjoints of the extra independents.
// The base systems have none.
func (o *AdjointSystem) ExtractAdjointVariables() {}

// Preprocessing does nothing: the adjoint residuals are refreshed by
// the extraction, not by the target field
func (o *AdjointSystem) Preprocessing(lev int) (err error) { return }

// Postprocessing does nothing for adjoint systems
func (o *AdjointSystem) Postprocessing(lev int) (err error) { return }

// FEAAdjoint is the structural adjoint system. It adds the material
// properties and design variables as extra independents and extracts
// their sensitivities.
type FEAAdjoint struct {
	AdjointSystem

	fea *FEASystem

	// slots of the extra independents
	eSlots, nuSlots, rhoSlots, efSlots, dvSlots []int
	varGen                                      int

	// extracted sensitivities
	sensE, sensNu, sensRho, sensEF, sensDV []float64
}

// NewFEAAdjoint builds the structural adjoint wrapper
func NewFEAAdjoint(sim *inp.Simulation, zone *inp.ZoneData, key sys.ZoneInstanceKey, geom *Geometry, store *Store, fea *FEASystem) (o *FEAAdjoint) {
	o = new(FEAAdjoint)
	o.AdjointSystem = *NewAdjointSystem(sim, zone, key, sys.AdjStru, geom, store, fea)
	o.fea = fea
	ne := len(fea.young)
	nef := len(fea.efield)
	ndv := len(fea.dv)
	o.eSlots = make([]int, ne)
	o.nuSlots = make([]int, ne)
	o.rhoSlots = make([]int, ne)
	o.efSlots = make([]int, nef)
	o.dvSlots = make([]int, ndv)
	o.sensE = make([]float64, ne)
	o.sensNu = make([]float64, ne)
	o.sensRho = make([]float64, ne)
	o.sensEF = make([]float64, nef)
	o.sensDV = make([]float64, ndv)
	return
}

// RegisterVariables registers the material properties and design
// variables as extra independents and binds their slots to the direct
// structural system
func (o *FEAAdjoint) RegisterVariables(tp *tape.Tape) {
	for i := range o.eSlots {
		o.eSlots[i] = tp.Input(o.fea.Young(i))
		o.nuSlots[i] = tp.Input(o.fea.Poisson(i))
		rho, _ := o.fea.Density(i)
		o.rhoSlots[i] = tp.Input(rho)
	}
	for i := range o.efSlots {
		o.efSlots[i] = tp.Input(o.fea.EField(i))
	}
	for i := range o.dvSlots {
		o.dvSlots[i] = tp.Input(o.fea.DesignVar(i))
	}
	o.fea.BindMaterialSlots(tp, o.eSlots, o.nuSlots, o.rhoSlots, o.efSlots, o.dvSlots)
	o.varGen = tp.Generation()
}

// ExtractAdjointVariables pulls the sensitivities of the material
// properties and design variables
func (o *FEAAdjoint) ExtractAdjointVariables() {
	if o.tp == nil || o.varGen != o.tp.Generation() {
		return
	}
	for i := range o.eSlots {
		o.sensE[i] = o.tp.Adjoint(o.eSlots[i])
		o.sensNu[i] = o.tp.Adjoint(o.nuSlots[i])
		o.sensRho[i] = o.tp.Adjoint(o.rhoSlots[i])
	}
	for i := range o.efSlots {
		o.sensEF[i] = o.tp.Adjoint(o.efSlots[i])
	}
	for i := range o.dvSlots {
		o.sensDV[i] = o.tp.Adjoint(o.dvSlots[i])
	}
}

// material values recorded as extra independents

func (o *FEAAdjoint) ValYoung(i int) float64                { return o.fea.Young(i) }
func (o *FEAAdjoint) ValPoisson(i int) float64              { return o.fea.Poisson(i) }
func (o *FEAAdjoint) ValDensity(i int) (rho, rhoDL float64) { return o.fea.Density(i) }
func (o *FEAAdjoint) ValEField(i int) float64               { return o.fea.EField(i) }
func (o *FEAAdjoint) NumDV() int                            { return o.fea.NumDesignVars() }
func (o *FEAAdjoint) ValDV(i int) float64                   { return o.fea.DesignVar(i) }

// sensitivities extracted from the last reverse sweep

func (o *FEAAdjoint) SensYoung(i int) float64   { return o.sensE[i] }
func (o *FEAAdjoint) SensPoisson(i int) float64 { return o.sensNu[i] }
func (o *FEAAdjoint) SensDensity(i int) float64 { return o.sensRho[i] }
func (o *FEAAdjoint) SensEField(i int) float64  { return o.sensEF[i] }
func (o *FEAAdjoint) SensDV(i int) float64      { return o.sensDV[i] }

var (
	_ sys.Adjoint           = (*AdjointSystem)(nil)
	_ sys.Adjoint           = (*FEAAdjoint)(nil)
	_ sys.StructuralAdjoint = (*FEAAdjoint)(nil)
)
