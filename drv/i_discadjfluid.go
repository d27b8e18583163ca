// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/io"
)

// DiscAdjFluidIteration drives the reverse-mode adjoint of the mean flow
// problem, together with the adjoints of turbulence, weak heat and radiation
// when those couplings are active. The direct flow iteration is replayed on
// the tape by an embedded FluidIteration.
type DiscAdjFluidIteration struct {
	discAdjBase
	direct *FluidIteration
}

// directKinds returns the physics recorded on the tape, primary first
func (o *DiscAdjFluidIteration) directKinds(ctx *Context) []sys.PhysicsKind {
	kinds := []sys.PhysicsKind{sys.Flow}
	if ctx.Cpl.Turbulent {
		kinds = append(kinds, sys.Turb)
	}
	if ctx.Cpl.WeakHeat {
		kinds = append(kinds, sys.Heat)
	}
	return kinds
}

// adjKinds returns the adjoint counterparts with solvers in this zone
func (o *DiscAdjFluidIteration) adjKinds(ctx *Context) []sys.PhysicsKind {
	kinds := []sys.PhysicsKind{sys.AdjFlow}
	if ctx.Cpl.Turbulent && !ctx.Cpl.FrozenVisc {
		kinds = append(kinds, sys.AdjTurb)
	}
	if ctx.Cpl.WeakHeat {
		kinds = append(kinds, sys.AdjHeat)
	}
	if ctx.Cpl.Radiation {
		kinds = append(kinds, sys.AdjRad)
	}
	return kinds
}

// Preprocess loads the direct solution for the current reverse time step and
// stores it so the tape can be rewound to it before every recording
func (o *DiscAdjFluidIteration) Preprocess(ctx *Context) (err error) {

	if ctx.Cpl.Unsteady {
		err = unsteadyRestart(ctx, o.directKinds(ctx))
		if err != nil {
			return
		}
	}

	// store the direct solution as the rewind point
	if ctx.TimeIter == 0 || ctx.Cpl.Dual() {
		for _, kind := range o.adjKinds(ctx) {
			adj := adjointOf(ctx, kind)
			if kind == sys.AdjFlow {
				for lev := 0; lev < ctx.Geom.NumLevels(); lev++ {
					adj.StoreDirect(lev)
				}
			} else {
				adj.StoreDirect(0)
			}
		}
	}

	for _, kind := range o.adjKinds(ctx) {
		err = ctx.Solver(kind).Preprocessing(0)
		if err != nil {
			return
		}
	}
	return
}

// resetSolutions rewinds the direct solvers to the stored state
func (o *DiscAdjFluidIteration) resetSolutions(ctx *Context) {
	for _, kind := range o.adjKinds(ctx) {
		adj := adjointOf(ctx, kind)
		if kind == sys.AdjFlow {
			for lev := 0; lev < ctx.Geom.NumLevels(); lev++ {
				adj.ResetToDirect(lev)
			}
		} else {
			adj.ResetToDirect(0)
		}
	}
}

// registerInput declares the independent variables of the recording
func (o *DiscAdjFluidIteration) registerInput(ctx *Context, mode sys.RecordingMode) {
	tp := ctx.Tape
	switch mode {
	case sys.RecSolvars, sys.RecSolmesh:
		for _, kind := range o.adjKinds(ctx) {
			adj := adjointOf(ctx, kind)
			adj.RegisterSolution(tp, 0)
			if kind == sys.AdjFlow || kind == sys.AdjRad {
				adj.RegisterVariables(tp)
			}
		}
	case sys.RecMeshco:
		// the solution slots must exist on the tape for the sweeps to
		// record, even though only the coordinates are differentiated
		for _, kind := range o.adjKinds(ctx) {
			adjointOf(ctx, kind).RegisterSolution(tp, 0)
		}
		ctx.Geom.RegisterCoordinates(tp)
		if ctx.Cpl.DeformMesh {
			adjointOf(ctx, sys.AdjMesh).RegisterSolution(tp, 0)
		}
	}
}

// setDependencies replays the preprocessing chain so that every quantity the
// residuals depend upon is a function of the registered inputs
func (o *DiscAdjFluidIteration) setDependencies(ctx *Context, mode sys.RecordingMode) (err error) {

	flow := ctx.Solver(sys.Flow)

	if mode == sys.RecMeshco || mode == sys.RecSolmesh || mode == sys.RecNone {
		err = ctx.Geom.UpdateGeometry()
		if err != nil {
			return
		}
		ctx.Geom.ComputeWallDistance()
	}

	ctx.Geom.InitiateComms("solution")
	ctx.Geom.CompleteComms("solution")

	if ctx.Cpl.Turbulent && !ctx.Cpl.FrozenVisc {
		turb := ctx.Solver(sys.Turb)
		if wp, ok := turb.(sys.WithPrimitives); ok {
			err = wp.SetPrimitiveVars()
			if err != nil {
				return
			}
		}
	}

	err = flow.Preprocessing(0)
	if err != nil {
		return
	}

	if ctx.Cpl.Turbulent && !ctx.Cpl.FrozenVisc {
		err = ctx.Solver(sys.Turb).Postprocessing(0)
		if err != nil {
			return
		}
	}

	if ctx.Cpl.WeakHeat {
		heat := ctx.Solver(sys.Heat)
		if ha, ok := heat.(sys.WithHeatfluxAreas); ok {
			err = ha.SetHeatfluxAreas()
			if err != nil {
				return
			}
		}
		err = heat.Preprocessing(0)
		if err != nil {
			return
		}
		err = heat.Postprocessing(0)
		if err != nil {
			return
		}
	}

	if ctx.Cpl.Radiation {
		err = ctx.Solver(sys.Rad).Postprocessing(0)
		if err != nil {
			return
		}
	}
	return
}

// directIterate records one direct flow iteration on the tape
func (o *DiscAdjFluidIteration) directIterate(ctx *Context) error {
	return o.direct.Iterate(ctx)
}

// registerOutput declares the dependent variables of the recording
func (o *DiscAdjFluidIteration) registerOutput(ctx *Context) {
	tp := ctx.Tape
	for _, kind := range o.adjKinds(ctx) {
		adjointOf(ctx, kind).RegisterOutput(tp, 0)
	}
	if ctx.Cpl.FSI {
		if wt, ok := ctx.Solver(sys.Flow).(sys.WithTractions); ok {
			wt.RegisterVertexTractions(tp)
		}
	}
}

// SetRecording re-records the tape in the given mode
func (o *DiscAdjFluidIteration) SetRecording(ctx *Context, mode sys.RecordingMode) error {
	return o.record(ctx, o, mode)
}

// InitializeAdjoint seeds the tape outputs with the objective function and the
// current adjoint solution
func (o *DiscAdjFluidIteration) InitializeAdjoint(ctx *Context) {
	tp := ctx.Tape
	for _, kind := range o.adjKinds(ctx) {
		adj := adjointOf(ctx, kind)
		if kind == sys.AdjFlow {
			adj.SetAdjObjFunc(tp)
		}
		adj.SetAdjointOutput(tp, 0)
	}
	if ctx.Cpl.FSI {
		if wt, ok := ctx.Solver(sys.Flow).(sys.WithTractions); ok {
			wt.SetVertexTractionsAdjoint()
		}
	}
}

// Iterate extracts the next adjoint solution from the evaluated tape
func (o *DiscAdjFluidIteration) Iterate(ctx *Context) (err error) {
	for _, kind := range o.adjKinds(ctx) {
		adj := adjointOf(ctx, kind)
		adj.ExtractAdjointSolution(0)
		if kind == sys.AdjFlow || kind == sys.AdjRad {
			adj.ExtractAdjointVariables()
		}
	}
	return
}

// Monitor writes the adjoint history and checks convergence
func (o *DiscAdjFluidIteration) Monitor(ctx *Context) (stop bool, err error) {
	ctx.Out.WriteHistory(ctx.Key, ctx.TimeIter, ctx.OuterIter, ctx.InnerIter)
	stop = ctx.Out.Convergence()
	return
}

// Update prepares the next physical time step of the reverse sweep
func (o *DiscAdjFluidIteration) Update(ctx *Context) (err error) {
	if ctx.Cpl.Dual() {
		ctx.Integ(sys.AdjFlow).SetConvergence(false)
	}
	return
}

// Solve runs the fixed-point adjoint loop
func (o *DiscAdjFluidIteration) Solve(ctx *Context) error {
	return o.adjointLoop(ctx, o)
}

// MeshSensitivities re-records the tape with respect to the mesh coordinates,
// evaluates it once and returns the surface sensitivities
func (o *DiscAdjFluidIteration) MeshSensitivities(ctx *Context) (sens []float64, err error) {
	err = o.record(ctx, o, sys.RecMeshco)
	if err != nil {
		return
	}
	ctx.Tape.ClearAdjoints()
	o.InitializeAdjoint(ctx)
	ctx.Tape.ComputeAdjoint()
	if ctx.Cpl.DeformMesh {
		adjointOf(ctx, sys.AdjMesh).ExtractAdjointSolution(0)
	}
	sens = ctx.Geom.CoordSensitivities(ctx.Tape)
	if ctx.ShowMsg {
		io.Pf("%s: mesh sensitivities extracted at %d coordinates\n", ctx.Key.String(), len(sens))
	}
	return
}

func init() {
	allocators["discadj-fluid"] = func(sim *inp.Simulation) Iteration {
		return &DiscAdjFluidIteration{
			discAdjBase: discAdjBase{CurrentRecording: sys.RecNone},
			direct:      &FluidIteration{},
		}
	}
}

// both interfaces must be satisfied
var _ Recorder = (*DiscAdjFluidIteration)(nil)
var _ recordHooks = (*DiscAdjFluidIteration)(nil)
