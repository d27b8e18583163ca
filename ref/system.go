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
	"github.com/cpmech/gosl/fun/dbf"
)

// System is the base implementation of one physics system: a scalar
// relaxation scheme converging to a prescribed target field on the
// point cloud. Every variable j carries the target scaled by its
// freestream value, so systems with several variables converge to
// distinct fields.
type System struct {

	// data
	kind   sys.PhysicsKind
	key    sys.ZoneInstanceKey
	geom   *Geometry
	store  *Store
	target dbf.T   // target field
	nvars  int     // variables per point
	omega  float64 // relaxation coefficient
	dt     float64 // time step size

	// state
	hists      []*sys.History // solution time histories, one per level
	freestream []float64      // default solution values per variable
	resid      []float64      // residuals per variable, refreshed by Sweep
	prim       [][]float64    // derived (primitive) values at level 0
	timeVal    float64        // current physical time

	// recording
	tp       *tape.Tape // active tape; nil outside adjoint runs
	slots    []int      // current tape slots of the level 0 solution, p*nvars+j
	objSlot  int        // tape slot of the objective function
	regGen   int        // tape generation of the slots
	objValid bool       // objSlot belongs to the current generation
}

// NewSystem builds one relaxation system
func NewSystem(sim *inp.Simulation, zone *inp.ZoneData, key sys.ZoneInstanceKey, kind sys.PhysicsKind, geom *Geometry, store *Store) (o *System) {
	o = new(System)
	o.kind = kind
	o.key = key
	o.geom = geom
	o.store = store
	o.nvars = zone.Nvars
	o.omega = zone.Relax
	o.dt = sim.Time.Dt
	var err error
	o.target, err = sim.Functions.Get(zone.FcnName)
	if err != nil {
		chk.Panic("cannot find target function %q:\n%v", zone.FcnName, err)
	}
	o.hists = make([]*sys.History, geom.NumLevels())
	for lev := 0; lev < geom.NumLevels(); lev++ {
		o.hists[lev] = sys.NewHistory(geom.NumPoints(lev), o.nvars)
	}
	o.freestream = make([]float64, o.nvars)
	for j := 0; j < o.nvars; j++ {
		o.freestream[j] = 1.0 / float64(1+j)
	}
	o.resid = make([]float64, o.nvars)
	o.prim = make([][]float64, geom.NumPoints(0))
	for p := range o.prim {
		o.prim[p] = make([]float64, o.nvars)
	}
	o.SetDefaultSolution(0)
	return
}

// Kind returns the physics kind of this system
func (o *System) Kind() sys.PhysicsKind { return o.kind }

// Hist returns the solution time history of one level
func (o *System) Hist(lev int) *sys.History { return o.hists[lev] }

// Time returns the current physical time
func (o *System) Time() float64 { return o.timeVal }

// SetTime sets the current physical time
func (o *System) SetTime(t float64) { o.timeVal = t }

// targetAt evaluates the target of variable j at (t, x)
func (o *System) targetAt(t float64, x []float64, j int) float64 {
	return o.freestream[j] * o.target.F(t, x)
}

// Preprocessing refreshes the residuals before iterating
func (o *System) Preprocessing(lev int) (err error) {
	if lev == 0 {
		o.refreshResiduals()
	}
	return
}

// Postprocessing refreshes the derived quantities after iterating
func (o *System) Postprocessing(lev int) (err error) {
	if lev == 0 {
		o.refreshResiduals()
		err = o.SetPrimitiveVars()
	}
	return
}

// refreshResiduals recomputes the residuals from the current solution
func (o *System) refreshResiduals() {
	h := o.hists[0]
	for j := 0; j < o.nvars; j++ {
		o.resid[j] = 0
	}
	for p := 0; p < o.geom.NumPoints(0); p++ {
		x := o.geom.CoordHist(0).V[p]
		for j := 0; j < o.nvars; j++ {
			r := math.Abs(o.targetAt(o.timeVal, x, j) - h.V[p][j])
			if r > o.resid[j] {
				o.resid[j] = r
			}
		}
	}
}

// SetDefaultSolution imposes the freestream solution on one level
func (o *System) SetDefaultSolution(lev int) {
	h := o.hists[lev]
	for p := 0; p < o.geom.NumPoints(lev); p++ {
		copy(h.V[p], o.freestream)
	}
}

// SetInitialCondition imposes the freestream solution on all levels and
// fills the time levels at the beginning of a computation
func (o *System) SetInitialCondition(timeIter int) (err error) {
	if timeIter > 0 {
		return
	}
	for lev := 0; lev < o.geom.NumLevels(); lev++ {
		o.SetDefaultSolution(lev)
		o.hists[lev].PushN()
		o.hists[lev].PushN1()
	}
	return
}

// SetPrimitiveVars refreshes the derived values at level 0
func (o *System) SetPrimitiveVars() (err error) {
	h := o.hists[0]
	for p := 0; p < o.geom.NumPoints(0); p++ {
		for j := 0; j < o.nvars; j++ {
			o.prim[p][j] = h.V[p][j] * h.V[p][j]
		}
	}
	return
}

// LoadRestart loads the solution of one direct iteration from the
// results store. With updateGeo the saved coordinates are restored and
// the metrics recomputed.
func (o *System) LoadRestart(directIter int, updateGeo bool) (err error) {
	r, err := o.store.Load(o.kind, directIter)
	if err != nil {
		return
	}
	h := o.hists[0]
	if len(r.Sol) != len(h.V) {
		return chk.Err("results of direct iteration %d hold %d points but the grid has %d", directIter, len(r.Sol), len(h.V))
	}
	for p := range r.Sol {
		copy(h.V[p], r.Sol[p])
	}
	if updateGeo && len(r.Coords) > 0 {
		ch := o.geom.CoordHist(0)
		for p := range r.Coords {
			copy(ch.V[p], r.Coords[p])
		}
		o.geom.PropagateCoarse()
		err = o.geom.UpdateGeometry()
		if err != nil {
			return
		}
	}
	o.timeVal = float64(directIter) * o.dt
	o.refreshResiduals()
	return
}

// SaveDirect saves the current solution into the results store
func (o *System) SaveDirect(directIter int) (err error) {
	return o.store.Save(o.kind, directIter, o.hists[0].V, o.geom.CoordHist(0).V)
}

// Residual returns the monitored residual of variable idx
func (o *System) Residual(idx int) float64 {
	if idx < 0 || idx >= o.nvars {
		return 0
	}
	return o.resid[idx]
}

// BindTape attaches the tape and the current slots of the level 0
// solution. The sweeps record their updates on it from then on.
func (o *System) BindTape(tp *tape.Tape, slots []int) {
	o.tp = tp
	o.slots = slots
	o.regGen = tp.Generation()
	o.objValid = false
}

// recording tells whether this sweep must record on the tape
func (o *System) recording(lev int) bool {
	return o.tp != nil && lev == 0 && o.regGen == o.tp.Generation() && o.tp.Recording()
}

// Sweep performs one relaxation pass on one level, recording the
// updates and the objective function when the tape is active
func (o *System) Sweep(lev int, t float64) {

	o.timeVal = t
	h := o.hists[lev]
	rec := o.recording(lev)

	var coordSlots []int
	if rec {
		coordSlots = o.geom.CoordSlots(o.tp)
	}

	if lev == 0 {
		for j := 0; j < o.nvars; j++ {
			o.resid[j] = 0
		}
	}

	ndim := o.geom.Ndim()
	for p := 0; p < o.geom.NumPoints(lev); p++ {
		x := o.geom.CoordHist(lev).V[p]
		for j := 0; j < o.nvars; j++ {

			T := o.targetAt(t, x, j)
			r := T - h.V[p][j]
			if lev == 0 && math.Abs(r) > o.resid[j] {
				o.resid[j] = math.Abs(r)
			}
			vnew := h.V[p][j] + o.omega*r

			if rec {
				k := p*o.nvars + j
				in := []int{o.slots[k]}
				der := []float64{1.0 - o.omega}
				if len(coordSlots) > 0 {
					// dependence of the target on the coordinates
					for i := 0; i < ndim; i++ {
						in = append(in, coordSlots[p*ndim+i])
						der = append(der, o.omega*o.targetGrad(t, x, i, j))
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

// targetGrad computes the spatial derivative of the target of variable
// j by central differences
func (o *System) targetGrad(t float64, x []float64, i, j int) float64 {
	step := 1e-6
	xp := make([]float64, len(x))
	copy(xp, x)
	xp[i] = x[i] + step
	fp := o.targetAt(t, xp, j)
	xp[i] = x[i] - step
	fm := o.targetAt(t, xp, j)
	return (fp - fm) / (2.0 * step)
}

// ObjFuncValue evaluates an objective function on the current solution
func (o *System) ObjFuncValue(name string) float64 {
	h := o.hists[0]
	n := o.geom.NumPoints(0)
	switch name {
	case "refnode":
		return h.V[0][0]
	}
	// mean square by default
	sum := 0.0
	for p := 0; p < n; p++ {
		sum += h.V[p][0] * h.V[p][0]
	}
	return 0.5 * sum / float64(n)
}

// recordObjective records the objective function on the tape after a
// sweep updated the solution slots
func (o *System) recordObjective() {
	h := o.hists[0]
	n := o.geom.NumPoints(0)
	in := make([]int, n)
	der := make([]float64, n)
	sum := 0.0
	for p := 0; p < n; p++ {
		in[p] = o.slots[p*o.nvars]
		der[p] = h.V[p][0] / float64(n)
		sum += h.V[p][0] * h.V[p][0]
	}
	o.objSlot = o.tp.Op(0.5*sum/float64(n), in, der)
	o.objValid = true
}

// Slots returns the current tape slots of the level 0 solution
func (o *System) Slots() []int { return o.slots }

// ObjSlot returns the tape slot of the recorded objective function
func (o *System) ObjSlot() (slot int, ok bool) { return o.objSlot, o.objValid }

// Freestream returns the default solution value of variable j
func (o *System) Freestream(j int) float64 { return o.freestream[j] }

// Nvars returns the number of variables per point
func (o *System) Nvars() int { return o.nvars }
