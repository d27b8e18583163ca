// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/io"
)

// FluidIteration sequences the mean flow together with its weakly
// coupled companions (turbulence, transition, heat, radiation)
// through one outer step
type FluidIteration struct {
	Base
	FDMode bool // finite-difference perturbation of fixed lift mode is running; disables output
}

// register iteration machine
func init() {
	allocators["fluid"] = func(sim *inp.Simulation) Iteration {
		return &FluidIteration{Base: Base{Name: "fluid"}}
	}
}

// Preprocess sets the initial condition and applies the gust field
func (o *FluidIteration) Preprocess(ctx *Context) (err error) {
	flow := ctx.Solver(sys.Flow)

	// initial condition at the beginning of an unsteady computation, and
	// in the first subiteration of coupled problems. From then on the
	// partially converged solution of the previous subiteration is reused
	first := ctx.Cpl.Unsteady && ctx.TimeIter == 0
	if first || (ctx.Cpl.FSI && ctx.OuterIter == 0) {
		if wic, ok := flow.(sys.WithInitialCondition); ok {
			err = wic.SetInitialCondition(ctx.TimeIter)
			if err != nil {
				return
			}
		}
	}

	// apply a wind gust
	if ctx.Sim.Gust.Active() {
		err = ctx.Motion.ApplyWindGust(ctx.TimeIter)
	}
	return
}

// Iterate runs one iteration of the flow equations and of all the
// weakly coupled models riding on them
func (o *FluidIteration) Iterate(ctx *Context) (err error) {
	flow := ctx.Solver(sys.Flow)
	frozen := (ctx.Cpl.ContinuousAdjoint || ctx.Cpl.DiscreteAdjoint) && ctx.Cpl.FrozenVisc
	turb := ctx.Cpl.Turbulent && !frozen

	// one multigrid iteration of the flow equations
	err = ctx.Integ(sys.Flow).MultiGridIteration(ctx.Cpl)
	if err != nil {
		return
	}

	// turbulence and transition models
	if turb {
		err = ctx.Integ(sys.Turb).SingleGridIteration(ctx.Cpl)
		if err != nil {
			return
		}
		if ctx.Cpl.Transition {
			err = ctx.Integ(sys.Tran).SingleGridIteration(ctx.Cpl)
			if err != nil {
				return
			}
		}
	}

	// weakly coupled heat equation
	if ctx.Cpl.WeakHeat {
		err = ctx.Integ(sys.Heat).SingleGridIteration(ctx.Cpl)
		if err != nil {
			return
		}
	}

	// radiation model
	if ctx.Cpl.Radiation {
		err = ctx.Integ(sys.Rad).SingleGridIteration(ctx.Cpl)
		if err != nil {
			return
		}
	}

	// refresh the dependence of the objective function on the inputs
	if ctx.Cpl.DiscreteAdjoint {
		err = flow.Preprocessing(0)
		if err != nil {
			return
		}
	}

	// adapt the CFL number from the residual history
	if ctx.Cpl.CFLAdapt && !ctx.Cpl.DiscreteAdjoint {
		if wf, ok := flow.(sys.WithFreestream); ok {
			wf.AdaptCFL()
		}
	}

	// dynamic mesh update for unsteady aeroelastic motion
	if ctx.Sim.Motion.Aeroelastic() && ctx.Cpl.Unsteady {
		err = ctx.Motion.GridMovement(ctx.TimeIter, ctx.InnerIter)
		if err != nil {
			return
		}
		interval := ctx.Sim.Motion.AeroIter
		if interval < 1 {
			interval = 1
		}
		if ctx.Sim.Gust.Active() && ctx.InnerIter != 0 && ctx.InnerIter%interval == 0 {
			err = ctx.Motion.ApplyWindGust(ctx.TimeIter)
		}
	}
	return
}

// Monitor writes the history line of this inner iteration and decides
// whether the inner loop may stop
func (o *FluidIteration) Monitor(ctx *Context) (stop bool, err error) {
	ctx.Out.WriteHistory(ctx.Key, ctx.TimeIter, ctx.OuterIter, ctx.InnerIter)
	stop = ctx.Out.Convergence()

	// check convergence of fixed lift mode to the target lift
	if ctx.Cpl.FixedCL {
		stop = o.monitorFixedCL(ctx, stop)
	}

	// defer convergence until the wall functions have switched on
	if stop && ctx.Cpl.WallFunctions && !ctx.Cpl.DiscreteAdjoint && !ctx.Sim.Data.Restart &&
		ctx.InnerIter <= ctx.Sim.Coupling.WallFnStartIter {
		stop = false
		ctx.Sim.Coupling.WallFnStartIter = ctx.InnerIter
	}
	return
}

// monitorFixedCL updates the angle of attack iteration and switches to
// the finite-difference perturbation once the target lift is reached
func (o *FluidIteration) monitorFixedCL(ctx *Context, converged bool) (stop bool) {
	fcl, ok := ctx.Solver(sys.Flow).(sys.WithFixedCL)
	if !ok {
		return converged
	}
	stop = fcl.FixedCLConvergence(ctx.InnerIter, converged)

	// fixed lift mode has ended and finite differencing has started
	if fcl.StartFD() && fcl.IterUpdateAoA() == ctx.InnerIter {
		if ctx.ShowMsg {
			ctx.Out.PrintConvergenceSummary()
		}
		ctx.Out.WriteResults(ctx.Key, ctx.InnerIter, true)
		o.FDMode = true
	}
	return
}

// Update rotates the dual time levels of all systems after a converged
// physical step
func (o *FluidIteration) Update(ctx *Context) (err error) {
	if !ctx.Cpl.Dual() {
		return
	}

	// update the dual time solver on all grid levels
	flowInt := ctx.Integ(sys.Flow)
	for lev := 0; lev < ctx.Cpl.NLevels; lev++ {
		flowInt.DualTimeShift(lev)
		flowInt.SetConvergence(false)
	}

	// update the dual time solver of the dynamic mesh
	if ctx.Cpl.DeformMesh {
		if mesh, ok := ctx.Solvers[sys.Mesh]; ok {
			mesh.Hist(0).Shift(ctx.Cpl.Dual2)
		}
	}

	// update the dual time solver of the turbulence and transition models
	if ctx.Cpl.Turbulent {
		ctx.Integ(sys.Turb).DualTimeShift(0)
		ctx.Integ(sys.Turb).SetConvergence(false)
	}
	if ctx.Cpl.Transition {
		ctx.Integ(sys.Tran).DualTimeShift(0)
		ctx.Integ(sys.Tran).SetConvergence(false)
	}
	return
}

// Postprocess computes the tractions exchanged with other zones
func (o *FluidIteration) Postprocess(ctx *Context) (err error) {
	if tr, ok := ctx.Solver(sys.Flow).(sys.WithTractions); ok {
		tr.ComputeVertexTractions()
	}
	return
}

// Output writes the result files unless the finite-difference
// perturbation of fixed lift mode is running
func (o *FluidIteration) Output(ctx *Context, innerIter int, stop bool) (err error) {
	if o.FDMode {
		return
	}
	return o.Base.Output(ctx, innerIter, stop)
}

// Solve runs the inner loop of one outer step. The caller must have
// called Preprocess before.
func (o *FluidIteration) Solve(ctx *Context) (err error) {
	steady := !ctx.Cpl.Unsteady
	var stop bool

	for innerIter := 0; innerIter < ctx.Sim.Iter.NInner; innerIter++ {
		ctx.InnerIter = innerIter

		err = o.Iterate(ctx)
		if err != nil {
			return
		}
		stop, err = o.Monitor(ctx)
		if err != nil {
			return
		}
		if steady && !ctx.Cpl.Multizone {
			err = o.Output(ctx, innerIter, stop)
			if err != nil {
				return
			}
		}
		if stop {
			if ctx.ShowMsg {
				io.Pf("%v: converged after %d inner iterations\n", ctx.Key, innerIter+1)
			}
			break
		}
	}

	if steady && ctx.Cpl.Multizone {
		err = o.Output(ctx, ctx.OuterIter, stop)
		if err != nil {
			return
		}

		// make sure the outer subiterations keep running
		ctx.Integ(sys.Flow).SetConvergence(false)
	}
	return
}
