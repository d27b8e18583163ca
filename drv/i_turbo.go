// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
)

// TurboIteration is a fluid machine for turbomachinery zones. It adds
// the spanwise averaging at the in/outflow boundaries around the plain
// fluid sequence.
type TurboIteration struct {
	FluidIteration
}

// register iteration machine
func init() {
	allocators["turbo"] = func(sim *inp.Simulation) Iteration {
		return &TurboIteration{FluidIteration{Base: Base{Name: "turbo"}}}
	}
}

// turboFlow returns the flow system with turbomachinery averaging
func (o *TurboIteration) turboFlow(ctx *Context) sys.WithTurboAverages {
	ta, ok := ctx.Solver(sys.Flow).(sys.WithTurboAverages)
	if !ok {
		chk.Panic("%v: the turbo machine requires a flow system with turbomachinery averages", ctx.Key)
	}
	return ta
}

// Preprocess averages the quantities at the inflow and outflow
// boundaries before the fluid preprocessing
func (o *TurboIteration) Preprocess(ctx *Context) (err error) {
	ta := o.turboFlow(ctx)
	err = ta.TurboAverage("inflow")
	if err != nil {
		return
	}
	err = ta.TurboAverage("outflow")
	if err != nil {
		return
	}
	return o.FluidIteration.Preprocess(ctx)
}

// Postprocess averages the in/outflow quantities again and gathers
// them to compute the machine performance
func (o *TurboIteration) Postprocess(ctx *Context) (err error) {
	ta := o.turboFlow(ctx)
	err = ta.TurboAverage("inflow")
	if err != nil {
		return
	}
	err = ta.TurboAverage("outflow")
	if err != nil {
		return
	}
	return ta.GatherAverages()
}
