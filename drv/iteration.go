// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package drv implements the iteration machines driving the physics
// systems of one zone instance, and the run-level driver on top of them
package drv

import (
	"github.com/cpmech/gomph/gust"
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gomph/tape"
	"github.com/cpmech/gosl/chk"
)

// Context bundles the services of one zone instance handed to an
// iteration machine. The iteration counters are maintained by the
// caller; machines read them but only Solve advances InnerIter.
type Context struct {

	// input and configuration
	Sim *inp.Simulation     // simulation data
	Cpl *sys.CouplingConfig // coupling snapshot of the current outer step
	Key sys.ZoneInstanceKey // zone and instance addressed by this context

	// services
	Geom    sys.Geometry                        // mesh of this zone instance
	Solvers map[sys.PhysicsKind]sys.Solver      // physics systems
	Integs  map[sys.PhysicsKind]sys.Integration // space integration drivers
	Nums    map[sys.Term]sys.Numerics           // numerics terms
	Out     sys.Output                          // history and result files
	Motion  *gust.Coordinator                   // mesh motion and gusts; may be nil
	Tape    *tape.Tape                          // differentiation tape; may be nil

	// iteration counters
	TimeIter  int // physical time iteration
	OuterIter int // outer (coupling) iteration
	InnerIter int // inner iteration

	// control
	ShowMsg bool // show messages
}

// Solver returns the physics system of the given kind; it panics if
// the system was not allocated, since a machine asking for a missing
// system indicates a broken setup
func (o *Context) Solver(kind sys.PhysicsKind) sys.Solver {
	s, ok := o.Solvers[kind]
	if !ok {
		chk.Panic("context %v: %v system is not available", o.Key, kind)
	}
	return s
}

// Integ returns the integration driver of the given kind
func (o *Context) Integ(kind sys.PhysicsKind) sys.Integration {
	g, ok := o.Integs[kind]
	if !ok {
		chk.Panic("context %v: %v integration is not available", o.Key, kind)
	}
	return g
}

// Num returns the numerics of the given term
func (o *Context) Num(term sys.Term) sys.Numerics {
	n, ok := o.Nums[term]
	if !ok {
		chk.Panic("context %v: %v numerics is not available", o.Key, term)
	}
	return n
}

// Time returns the current physical time
func (o *Context) Time() float64 {
	return float64(o.TimeIter) * o.Sim.Time.Dt
}

// Iteration is an iteration machine: the per-zone state machine that
// sequences one kind of physics through an outer step. Solve owns the
// inner loop and calls Iterate/Monitor/Output itself; the remaining
// methods are invoked by the driver around it.
type Iteration interface {
	Preprocess(ctx *Context) (err error)                       // prepare the outer step
	Iterate(ctx *Context) (err error)                          // run one inner iteration
	Solve(ctx *Context) (err error)                            // run the inner loop to convergence
	Monitor(ctx *Context) (stop bool, err error)               // write history and decide whether to stop
	Update(ctx *Context) (err error)                           // commit the converged step (dual time shift)
	Predictor(ctx *Context) (err error)                        // predict the solution of the next outer iteration
	Relaxation(ctx *Context) (err error)                       // relax the solution of this outer iteration
	Postprocess(ctx *Context) (err error)                      // derived quantities after the step
	Output(ctx *Context, innerIter int, stop bool) (err error) // write result files
}

// Recorder is an iteration machine that drives a tape-recording
// adjoint. SetRecording runs the reset-and-record protocol once per
// outer adjoint iteration, before the adjoint solve itself.
type Recorder interface {
	Iteration
	SetRecording(ctx *Context, mode sys.RecordingMode) (err error)
	InitializeAdjoint(ctx *Context) // seed the output adjoints on the recorded tape
}

// Base implements the no-op defaults of an iteration machine.
// Concrete machines embed it and override what their physics needs.
type Base struct {
	Name string // name of this machine; e.g. "fluid"
}

func (o *Base) Preprocess(ctx *Context) (err error)         { return }
func (o *Base) Iterate(ctx *Context) (err error)            { return }
func (o *Base) Solve(ctx *Context) (err error)              { return }
func (o *Base) Monitor(ctx *Context) (stop bool, err error) { return }
func (o *Base) Update(ctx *Context) (err error)             { return }
func (o *Base) Predictor(ctx *Context) (err error)          { return }
func (o *Base) Relaxation(ctx *Context) (err error)         { return }
func (o *Base) Postprocess(ctx *Context) (err error)        { return }

// Output writes the result files of this step
func (o *Base) Output(ctx *Context, innerIter int, stop bool) (err error) {
	_, err = ctx.Out.WriteResults(ctx.Key, innerIter, stop)
	return
}

// allocators holds all available iteration machines
var allocators = make(map[string]func(sim *inp.Simulation) Iteration)

// NewIteration allocates the iteration machine named by name
func NewIteration(name string, sim *inp.Simulation) Iteration {
	allocator, ok := allocators[name]
	if !ok {
		chk.Panic("cannot find iteration machine named %q", name)
	}
	return allocator(sim)
}
