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
)

// FEAIteration sequences the structural equations through one outer
// step: Newton-Raphson subiterations for nonlinear problems, a single
// pass for linear ones, and the incremental load approach when the
// full load is too large to converge directly
type FEAIteration struct {
	Base
}

// register iteration machine
func init() {
	allocators["fea"] = func(sim *inp.Simulation) Iteration {
		return &FEAIteration{Base{Name: "fea"}}
	}
}

// stru returns the structural system with its structural capabilities
func (o *FEAIteration) stru(ctx *Context) sys.Structural {
	s, ok := ctx.Solver(sys.Stru).(sys.Structural)
	if !ok {
		chk.Panic("%v: the fea machine requires a structural system", ctx.Key)
	}
	return s
}

// Iterate runs the full nonlinear solution of one outer step
func (o *FEAIteration) Iterate(ctx *Context) (err error) {

	nonlinear := ctx.Sim.FEA.Nonlinear
	discAdj := ctx.Cpl.DiscreteAdjoint

	// loads applied in steps (not used for the discrete adjoint)
	incremental := ctx.Sim.FEA.IncLoad && !discAdj

	struInt := ctx.Integ(sys.Stru)
	feaSolver := ctx.Solver(sys.Stru)

	// prevent the solver from stopping in intermediate subiterations
	struInt.SetConvergence(false)

	var stop bool
	switch {
	case !nonlinear:

		// linear analysis needs one pass only
		ctx.InnerIter = 0
		err = struInt.StructuralIteration(ctx.Cpl)
		if err != nil {
			return
		}
		if !discAdj {
			_, err = o.Monitor(ctx)
			if err != nil {
				return
			}
			ctx.Out.SetConvergence(true)
		}

	case !incremental:

		// direct approach: no incremental load applied. Keep the current
		// inner iteration to restore it for the adjoint recording, since
		// the file output depends on it
		curIter := ctx.InnerIter

		// Newton-Raphson subiterations
		for intIter := 0; intIter < ctx.Sim.Iter.NInner; intIter++ {
			ctx.InnerIter = intIter
			err = struInt.StructuralIteration(ctx.Cpl)
			if err != nil {
				return
			}

			// the adjoint recording needs one iteration only
			if discAdj {
				ctx.InnerIter = curIter
				break
			}
			stop, err = o.Monitor(ctx)
			if err != nil {
				return
			}
			if stop && intIter > 0 {
				break
			}
		}

	default:

		// incremental load approach. Assume the initial increment as 1.0
		// and run two nonlinear iterations to check whether the ramp can
		// be skipped
		fea := o.stru(ctx)
		fea.SetLoadIncrement(1.0)
		fea.SetForceCoeff(1.0)

		for intIter := 0; intIter < 2; intIter++ {
			ctx.InnerIter = intIter
			err = struInt.StructuralIteration(ctx.Cpl)
			if err != nil {
				return
			}
			stop, err = o.Monitor(ctx)
			if err != nil {
				return
			}
		}
		if stop {
			return // already converged with the full load
		}

		// user-defined criteria deciding whether the ramp is needed
		meetCriteria := true
		for i := 0; i < 3; i++ {
			meetCriteria = meetCriteria && math.Log10(feaSolver.Residual(i)) < ctx.Sim.FEA.IncLoadCrit[i]
		}

		if meetCriteria {

			// the load is not too large: continue the regular calculation
			for intIter := 2; intIter < ctx.Sim.Iter.NInner; intIter++ {
				ctx.InnerIter = intIter
				err = struInt.StructuralIteration(ctx.Cpl)
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
			return
		}

		// ramp the load from zero. The solution must be restored to the
		// initial one, because in multizone runs the old values belong to
		// the maximum loading of the previous outer iteration
		if wic, ok := feaSolver.(sys.WithInitialCondition); ok {
			err = wic.SetInitialCondition(ctx.TimeIter)
			if err != nil {
				return
			}
		}

		nInc := ctx.Sim.FEA.NIncrements
		for inc := 1; inc <= nInc; inc++ {

			fea.SetLoadIncrement(float64(inc) / float64(nInc))

			// force the solver to converge every subiteration
			ctx.Out.SetConvergence(false)

			if ctx.ShowMsg {
				io.Pf("\nincremental load: increment %d\n", inc)
			}

			// Newton-Raphson subiterations
			for intIter := 0; intIter < ctx.Sim.Iter.NInner; intIter++ {
				ctx.InnerIter = intIter
				err = struInt.StructuralIteration(ctx.Cpl)
				if err != nil {
					return
				}
				stop, err = o.Monitor(ctx)
				if err != nil {
					return
				}
				if stop && intIter > 0 {
					break
				}
			}
		}

		// restore the default increment settings
		fea.SetLoadIncrement(1.0)
	}
	return
}

// Monitor writes the history line and checks the inner convergence
func (o *FEAIteration) Monitor(ctx *Context) (stop bool, err error) {
	ctx.Out.WriteHistory(ctx.Key, ctx.TimeIter, ctx.OuterIter, ctx.InnerIter)
	stop = ctx.Out.Convergence()
	return
}

// Update commits the dynamic solution and checks the end of the
// physical time interval
func (o *FEAIteration) Update(ctx *Context) (err error) {
	struInt := ctx.Integ(sys.Stru)

	if ctx.Cpl.Dynamic {
		struInt.DualTimeShift(0)
		struInt.SetConvergence(false)

		// verify the convergence criteria based on the total time
		t := float64(ctx.TimeIter+1) * ctx.Sim.Time.Dt
		if t >= ctx.Sim.MaxTime() {
			struInt.SetConvergence(true)
		}
		return
	}

	if ctx.Cpl.FSI && ctx.Sim.FEA.TimeScheme == "newmark" {
		// output the relaxed result, which is the one transferred into
		// the fluid domain
		err = o.stru(ctx).RelaxationNewmark()
	}
	return
}

// Predictor extrapolates the structural displacement to the new outer
// iteration
func (o *FEAIteration) Predictor(ctx *Context) (err error) {
	return o.stru(ctx).PredictDisplacement(ctx.Sim.FEA.PredictorOrder)
}

// Relaxation computes and applies the Aitken dynamic relaxation
func (o *FEAIteration) Relaxation(ctx *Context) (err error) {
	fea := o.stru(ctx)
	err = fea.ComputeAitken(ctx.OuterIter)
	if err != nil {
		return
	}
	return fea.SetAitkenRelaxation()
}

// Solve runs one structural subiteration and keeps the outer coupling
// loop going
func (o *FEAIteration) Solve(ctx *Context) (err error) {
	err = o.Iterate(ctx)
	if err != nil {
		return
	}

	// make sure the outer subiterations keep running
	ctx.Integ(sys.Stru).SetConvergence(false)
	return
}
