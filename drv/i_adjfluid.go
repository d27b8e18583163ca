// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"math"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

// AdjFluidIteration drives the continuous adjoint of the mean flow problem.
// Before the adjoint iterations start it re-runs one direct iteration to
// store the flow data the adjoint boundary conditions depend on.
type AdjFluidIteration struct {
	FluidIteration
}

// Preprocess loads the direct solution, runs one direct iteration to store
// the flow data and computes the force projection vectors
func (o *AdjFluidIteration) Preprocess(ctx *Context) (err error) {

	flow := ctx.Solver(sys.Flow)
	verb := ctx.ShowMsg && ctx.Key.Zone == 0 && (!mpi.IsOn() || mpi.WorldRank() == 0)

	// for the unsteady adjoint, load the direct solution of this reverse step
	if (ctx.Cpl.MovingGrid && ctx.TimeIter == 0) || ctx.Cpl.Unsteady {
		directIter := ctx.Sim.Time.UnstAdjIter - ctx.TimeIter - 1
		if verb && ctx.Cpl.Unsteady {
			io.Pf("\nloading flow solution from direct iteration %d\n", directIter)
		}
		err = flow.LoadRestart(directIter, true)
		if err != nil {
			return
		}
	}

	if ctx.InnerIter == 0 || ctx.Cpl.Unsteady {

		// one direct iteration to store the flow data
		if verb {
			io.Pf("begin direct solver to store flow data (single iteration)\n")
		}
		err = ctx.Integ(sys.Flow).MultiGridIteration(ctx.Cpl)
		if err != nil {
			return
		}
		if ctx.Cpl.Turbulent {
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
		if verb {
			io.Pf("log10[maximum residual]: %g\n", math.Log10(flow.Residual(0)))
		}

		// gradients of the flow variables for the sensitivity computation
		fs, ok := flow.(sys.WithFreestream)
		if !ok {
			chk.Panic("%v: the flow system does not provide gradient computation", ctx.Key)
		}
		fs.ComputeGradients()

		// cost function contribution for the adjoint boundary conditions
		fp, ok := ctx.Solver(sys.AdjFlow).(sys.WithForceProjection)
		if !ok {
			chk.Panic("%v: the adjoint flow system does not provide force projection", ctx.Key)
		}
		fp.PropagateCoeffs()
		for lev := 0; lev < ctx.Geom.NumLevels(); lev++ {
			err = fp.SetForceProjection(lev)
			if err != nil {
				return
			}
		}

		if verb {
			io.Pf("end direct solver, begin adjoint problem\n")
		}
	}
	return
}

// Iterate runs one iteration of the adjoint flow problem and of the adjoint
// turbulence model
func (o *AdjFluidIteration) Iterate(ctx *Context) (err error) {
	err = ctx.Integ(sys.AdjFlow).MultiGridIteration(ctx.Cpl)
	if err != nil {
		return
	}
	if ctx.Cpl.Turbulent && !ctx.Cpl.FrozenVisc {
		err = ctx.Integ(sys.AdjTurb).SingleGridIteration(ctx.Cpl)
	}
	return
}

// Update shifts the adjoint dual time levels and checks the end of the
// reverse time interval
func (o *AdjFluidIteration) Update(ctx *Context) (err error) {
	if ctx.Cpl.Dual() {
		adjInteg := ctx.Integ(sys.AdjFlow)
		for lev := 0; lev < ctx.Geom.NumLevels(); lev++ {
			adjInteg.DualTimeShift(lev)
		}
		adjInteg.SetConvergence(false)
		t := float64(ctx.TimeIter+1) * ctx.Sim.Time.Dt
		if t >= ctx.Sim.MaxTime() {
			adjInteg.SetConvergence(true)
		}
	}
	return
}

// Solve runs the inner adjoint iterations to convergence. The caller must
// have called Preprocess before.
func (o *AdjFluidIteration) Solve(ctx *Context) (err error) {
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
		if stop {
			break
		}
	}
	if ctx.Cpl.Multizone {
		ctx.Out.SetConvergence(false)
	}
	return
}

func init() {
	allocators["adj-fluid"] = func(sim *inp.Simulation) Iteration {
		return new(AdjFluidIteration)
	}
}
