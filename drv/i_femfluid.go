// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
)

// FEMFluidIteration sequences a high order finite element flow system.
// There is no multigrid and no dual time shifting; the space-time
// discretization advances the physical time itself.
type FEMFluidIteration struct {
	FluidIteration
}

// register iteration machine
func init() {
	allocators["fem-fluid"] = func(sim *inp.Simulation) Iteration {
		return &FEMFluidIteration{FluidIteration{Base: Base{Name: "fem-fluid"}}}
	}
}

// Preprocess sets the initial condition if this is not a restart
func (o *FEMFluidIteration) Preprocess(ctx *Context) (err error) {
	if ctx.TimeIter == 0 && !ctx.Sim.Data.Restart {
		if wic, ok := ctx.Solver(sys.Flow).(sys.WithInitialCondition); ok {
			err = wic.SetInitialCondition(ctx.TimeIter)
		}
	}
	return
}

// Iterate runs one iteration of the flow equations on the finest grid
func (o *FEMFluidIteration) Iterate(ctx *Context) (err error) {
	return ctx.Integ(sys.Flow).SingleGridIteration(ctx.Cpl)
}

// Update does nothing: the element discretization owns the time levels
func (o *FEMFluidIteration) Update(ctx *Context) (err error) { return }

// Postprocess does nothing
func (o *FEMFluidIteration) Postprocess(ctx *Context) (err error) { return }

// Solve runs the inner loop of one outer step
func (o *FEMFluidIteration) Solve(ctx *Context) (err error) {
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
		if !ctx.Cpl.Unsteady && !ctx.Cpl.Multizone {
			err = o.Output(ctx, innerIter, stop)
			if err != nil {
				return
			}
		}
		if stop {
			break
		}
	}
	return
}
