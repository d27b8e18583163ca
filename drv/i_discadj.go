// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// recordHooks are the machine-specific pieces of the tape recording
// protocol shared by all discrete adjoint machines
type recordHooks interface {
	resetSolutions(ctx *Context)                                // reset the working solutions to the stored direct ones
	registerInput(ctx *Context, mode sys.RecordingMode)         // register the independents of this recording mode
	setDependencies(ctx *Context, mode sys.RecordingMode) error // re-evaluate intermediate quantities
	directIterate(ctx *Context) (err error)                     // one iteration of the direct physics
	registerOutput(ctx *Context)                                // register the dependents
}

// discAdjBase holds the recording state shared by the discrete adjoint
// machines and implements the reset-and-record protocol
type discAdjBase struct {
	Base
	CurrentRecording sys.RecordingMode // what the tape currently holds
}

// record runs the recording protocol: reset the tape, reset the
// solutions to the converged direct ones, register the independents,
// re-evaluate the dependencies, run one direct iteration with the tape
// active and register the dependents. Recording the same mode twice
// produces the same tape.
func (o *discAdjBase) record(ctx *Context, h recordHooks, mode sys.RecordingMode) (err error) {

	tp := ctx.Tape
	tp.Reset()

	// if the tape held a different recording, the old variable indices
	// are stale; run one passive iteration to clear them
	if o.CurrentRecording != mode && o.CurrentRecording != sys.RecNone {
		h.resetSolutions(ctx)
		err = h.setDependencies(ctx, sys.RecSolmesh)
		if err != nil {
			return
		}
		tp.BeginPassive()
		err = h.directIterate(ctx)
		tp.EndPassive()
		if err != nil {
			return
		}
	}

	// prepare for recording by resetting the solution to the initial
	// converged solution
	h.resetSolutions(ctx)

	tp.StartRecording()
	h.registerInput(ctx, mode)
	err = h.setDependencies(ctx, mode)
	if err != nil {
		tp.StopRecording()
		return
	}

	// the dynamic adjoint re-runs the direct iteration at the direct
	// step number, not at the (reversed) adjoint one
	timeIter := ctx.TimeIter
	innerIter := ctx.InnerIter
	if ctx.Cpl.Unsteady || ctx.Cpl.Dynamic {
		ctx.TimeIter = ctx.Sim.Time.UnstAdjIter - timeIter - 1
	}
	err = h.directIterate(ctx)
	ctx.TimeIter = timeIter
	ctx.InnerIter = innerIter
	if err != nil {
		tp.StopRecording()
		return
	}

	h.registerOutput(ctx)
	tp.StopRecording()
	o.CurrentRecording = mode
	return
}

// adjointOf returns the adjoint capabilities of the system of kind
func adjointOf(ctx *Context, kind sys.PhysicsKind) sys.Adjoint {
	a, ok := ctx.Solver(kind).(sys.Adjoint)
	if !ok {
		chk.Panic("%v: the %v system does not provide an adjoint", ctx.Key, kind)
	}
	return a
}

// adjointLoop runs the fixed point iterations of the adjoint solve:
// seed the tape, evaluate it backward, extract the new adjoint
// solution and monitor until convergence
func (o *discAdjBase) adjointLoop(ctx *Context, m Recorder) (err error) {
	var stop bool
	for innerIter := 0; innerIter < ctx.Sim.Iter.NInner; innerIter++ {
		ctx.InnerIter = innerIter

		ctx.Tape.ClearAdjoints()
		m.InitializeAdjoint(ctx)
		ctx.Tape.ComputeAdjoint()

		err = m.Iterate(ctx)
		if err != nil {
			return
		}
		stop, err = m.Monitor(ctx)
		if err != nil {
			return
		}
		if stop {
			if ctx.ShowMsg {
				io.Pf("%v: adjoint converged after %d iterations\n", ctx.Key, innerIter+1)
			}
			break
		}
	}
	return
}
