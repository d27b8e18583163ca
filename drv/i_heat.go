// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
)

// HeatIteration sequences a standalone heat equation through one outer
// step. It shares the monitoring of the fluid machine but iterates the
// heat system only.
type HeatIteration struct {
	FluidIteration
}

// register iteration machine
func init() {
	allocators["heat"] = func(sim *inp.Simulation) Iteration {
		return &HeatIteration{FluidIteration{Base: Base{Name: "heat"}}}
	}
}

// Preprocess renormalizes by the integrated heat flux areas
func (o *HeatIteration) Preprocess(ctx *Context) (err error) {
	if ha, ok := ctx.Solver(sys.Heat).(sys.WithHeatfluxAreas); ok {
		err = ha.SetHeatfluxAreas()
	}
	return
}

// Iterate runs one iteration of the heat equation
func (o *HeatIteration) Iterate(ctx *Context) (err error) {
	return ctx.Integ(sys.Heat).SingleGridIteration(ctx.Cpl)
}

// Monitor writes the history line and checks the inner convergence
func (o *HeatIteration) Monitor(ctx *Context) (stop bool, err error) {
	ctx.Out.WriteHistory(ctx.Key, ctx.TimeIter, ctx.OuterIter, ctx.InnerIter)
	stop = ctx.Out.Convergence()
	return
}

// Update rotates the dual time levels on all grid levels
func (o *HeatIteration) Update(ctx *Context) (err error) {
	if !ctx.Cpl.Dual() {
		return
	}
	heatInt := ctx.Integ(sys.Heat)
	for lev := 0; lev < ctx.Cpl.NLevels; lev++ {
		heatInt.DualTimeShift(lev)
		heatInt.SetConvergence(false)
	}
	return
}

// Postprocess does nothing
func (o *HeatIteration) Postprocess(ctx *Context) (err error) { return }

// Solve runs the inner loop of one outer step
func (o *HeatIteration) Solve(ctx *Context) (err error) {
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
			break
		}
	}

	if steady && ctx.Cpl.Multizone {
		err = o.Output(ctx, ctx.OuterIter, stop)
		if err != nil {
			return
		}
		ctx.Integ(sys.Heat).SetConvergence(false)
	}
	return
}
