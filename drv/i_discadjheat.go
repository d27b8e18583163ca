// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
)

// DiscAdjHeatIteration drives the reverse-mode adjoint of the standalone heat
// equation. The direct heat iteration is replayed on the tape by an embedded
// HeatIteration.
type DiscAdjHeatIteration struct {
	discAdjBase
	direct *HeatIteration
}

// Preprocess loads the direct heat solution for the current reverse time step
// and stores it as the rewind point
func (o *DiscAdjHeatIteration) Preprocess(ctx *Context) (err error) {

	if ctx.Cpl.Unsteady {
		err = unsteadyRestart(ctx, []sys.PhysicsKind{sys.Heat})
		if err != nil {
			return
		}
	}

	adj := adjointOf(ctx, sys.AdjHeat)
	if ctx.TimeIter == 0 || ctx.Cpl.Dual() {
		adj.StoreDirect(0)
	}

	return ctx.Solver(sys.AdjHeat).Preprocessing(0)
}

func (o *DiscAdjHeatIteration) resetSolutions(ctx *Context) {
	adjointOf(ctx, sys.AdjHeat).ResetToDirect(0)
}

func (o *DiscAdjHeatIteration) registerInput(ctx *Context, mode sys.RecordingMode) {
	adj := adjointOf(ctx, sys.AdjHeat)
	switch mode {
	case sys.RecSolvars, sys.RecSolmesh:
		adj.RegisterSolution(ctx.Tape, 0)
		adj.RegisterVariables(ctx.Tape)
	case sys.RecMeshco:
		adj.RegisterSolution(ctx.Tape, 0)
		ctx.Geom.RegisterCoordinates(ctx.Tape)
	}
}

func (o *DiscAdjHeatIteration) setDependencies(ctx *Context, mode sys.RecordingMode) (err error) {

	if mode == sys.RecMeshco || mode == sys.RecSolmesh || mode == sys.RecNone {
		err = ctx.Geom.UpdateGeometry()
		if err != nil {
			return
		}
		ctx.Geom.ComputeWallDistance()
	}

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

	ctx.Geom.InitiateComms("solution")
	ctx.Geom.CompleteComms("solution")
	return
}

func (o *DiscAdjHeatIteration) directIterate(ctx *Context) error {
	return o.direct.Iterate(ctx)
}

// registerOutput declares the heat residual and the updated coordinates as
// dependents of the recording
func (o *DiscAdjHeatIteration) registerOutput(ctx *Context) {
	adjointOf(ctx, sys.AdjHeat).RegisterOutput(ctx.Tape, 0)
	ctx.Geom.RegisterOutputCoordinates(ctx.Tape)
}

// SetRecording re-records the tape in the given mode
func (o *DiscAdjHeatIteration) SetRecording(ctx *Context, mode sys.RecordingMode) error {
	return o.record(ctx, o, mode)
}

// InitializeAdjoint seeds the tape outputs
func (o *DiscAdjHeatIteration) InitializeAdjoint(ctx *Context) {
	adj := adjointOf(ctx, sys.AdjHeat)
	adj.SetAdjObjFunc(ctx.Tape)
	adj.SetAdjointOutput(ctx.Tape, 0)
}

// Iterate extracts the next adjoint temperature field from the evaluated tape
func (o *DiscAdjHeatIteration) Iterate(ctx *Context) (err error) {
	adjointOf(ctx, sys.AdjHeat).ExtractAdjointSolution(0)
	return
}

func (o *DiscAdjHeatIteration) Monitor(ctx *Context) (stop bool, err error) {
	ctx.Out.WriteHistory(ctx.Key, ctx.TimeIter, ctx.OuterIter, ctx.InnerIter)
	stop = ctx.Out.Convergence()
	return
}

func (o *DiscAdjHeatIteration) Update(ctx *Context) (err error) {
	if ctx.Cpl.Dual() {
		ctx.Integ(sys.AdjHeat).SetConvergence(false)
	}
	return
}

// Output does nothing; adjoint heat results are collected by the run driver
func (o *DiscAdjHeatIteration) Output(ctx *Context, innerIter int, stop bool) (err error) {
	return
}

// Solve runs the fixed-point adjoint loop
func (o *DiscAdjHeatIteration) Solve(ctx *Context) error {
	return o.adjointLoop(ctx, o)
}

func init() {
	allocators["discadj-heat"] = func(sim *inp.Simulation) Iteration {
		return &DiscAdjHeatIteration{
			discAdjBase: discAdjBase{CurrentRecording: sys.RecNone},
			direct:      &HeatIteration{},
		}
	}
}

var _ Recorder = (*DiscAdjHeatIteration)(nil)
var _ recordHooks = (*DiscAdjHeatIteration)(nil)
