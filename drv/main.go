// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"bytes"
	"time"

	"github.com/cpmech/gomph/gust"
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gomph/tape"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

// Services bundles the physics services of one zone instance. An
// Allocator builds one bundle per (zone, instance) pair; the driver
// wires them into iteration contexts.
type Services struct {
	Geom    sys.Geometry                        // mesh and grid levels
	Solvers map[sys.PhysicsKind]sys.Solver      // physics systems
	Integs  map[sys.PhysicsKind]sys.Integration // space integration drivers
	Nums    map[sys.Term]sys.Numerics           // numerics terms
	Out     sys.Output                          // history and result files
	Surf    sys.Mover                           // surface movement; may be nil
	Vol     sys.Deformer                        // volume mesh deformation; may be nil
}

// Allocator builds the services of one zone instance
type Allocator func(sim *inp.Simulation, key sys.ZoneInstanceKey) (*Services, error)

// ZoneRuntime pairs one iteration machine with its context
type ZoneRuntime struct {
	Machine Iteration // the per-zone state machine
	Ctx     *Context  // services and counters handed to the machine
}

// meshSenser is a machine able to run the secondary recording with
// respect to the mesh coordinates
type meshSenser interface {
	MeshSensitivities(ctx *Context) (sens []float64, err error)
}

// Main holds all data for one simulation run
type Main struct {
	Sim      *inp.Simulation // simulation data
	Runtimes []*ZoneRuntime  // one per (zone, instance) pair
	Nproc    int             // number of processors
	Proc     int             // processor id
	ShowMsg  bool            // show messages
}

// NewMain reads the simulation file, allocates the physics services of
// every zone instance and builds the iteration machines
//
//	Input:
//	 simfilepath   -- simulation (.sim) filename including full path
//	 alias         -- word to be appended to simulation key
//	 erasePrev     -- erase previous results files
//	 allowParallel -- allow parallel execution when MPI is on
//	 verbose       -- show messages
//	 goroutineId   -- go routine id for parallel runs
//	 alloc         -- allocator of the physics services
func NewMain(simfilepath, alias string, erasePrev, allowParallel, verbose bool, goroutineId int, alloc Allocator) (o *Main) {

	// new Main object
	o = new(Main)

	// fix erasePrev flag when MPI is on
	if mpi.IsOn() {
		if mpi.WorldRank() != 0 {
			erasePrev = false
		}
	}

	// read input data
	o.Sim = inp.ReadSim(simfilepath, alias, erasePrev, goroutineId)
	if o.Sim == nil {
		chk.Panic("cannot read simulation input data")
	}

	// multiprocessing data
	o.Nproc = 1
	if mpi.IsOn() && allowParallel {
		o.Proc = mpi.WorldRank()
		o.Nproc = mpi.WorldSize()
	}
	o.ShowMsg = verbose && (o.Proc == 0)

	// message
	if o.ShowMsg {
		io.Pf("> Initialisation step completed\n")
		io.Pf("> Simulation (.sim) file read\n")
	}

	// allocate machines and contexts
	for izone, zone := range o.Sim.Zones {
		for inst := 0; inst < zone.NInst; inst++ {

			key := sys.ZoneInstanceKey{Zone: izone, Inst: inst}
			svc, err := alloc(o.Sim, key)
			if err != nil {
				chk.Panic("cannot allocate services of %v:\n%v", key, err)
			}

			ctx := &Context{
				Sim:     o.Sim,
				Cpl:     sys.NewCouplingConfig(o.Sim, zone),
				Key:     key,
				Geom:    svc.Geom,
				Solvers: svc.Solvers,
				Integs:  svc.Integs,
				Nums:    svc.Nums,
				Out:     svc.Out,
				ShowMsg: o.ShowMsg,
			}

			// mesh motion and gusts
			if ctx.Cpl.MovingGrid || ctx.Cpl.DeformMesh {
				ctx.Motion = gust.NewCoordinator(o.Sim, svc.Geom, svc.Solvers[sys.Flow], svc.Surf, svc.Vol, o.ShowMsg)
			}

			// differentiation tape
			if zone.DiscreteAdjoint() {
				ctx.Tape = tape.New()
			}

			machine := NewIteration(zone.Phys, o.Sim)
			o.Runtimes = append(o.Runtimes, &ZoneRuntime{Machine: machine, Ctx: ctx})
		}
	}
	return
}

// Run runs the simulation: the time loop, and within it the outer
// coupling loop over all zone instances
func (o *Main) Run() (err error) {

	// exit commands
	cputime := time.Now()
	defer func() { err = o.onexit(cputime, err) }()

	nouter := 1
	if o.Sim.Coupling.FSI {
		nouter = o.Sim.Iter.NOuter
	}

	// time loop
	for timeIter := 0; timeIter < o.Sim.Time.NSteps; timeIter++ {

		// outer (coupling) loop
		for outerIter := 0; outerIter < nouter; outerIter++ {

			for _, rt := range o.Runtimes {
				rt.Ctx.TimeIter = timeIter
				rt.Ctx.OuterIter = outerIter
				rt.Ctx.InnerIter = 0

				if o.Sim.Coupling.FSI {
					err = rt.Machine.Predictor(rt.Ctx)
					if err != nil {
						return
					}
				}

				err = rt.Machine.Preprocess(rt.Ctx)
				if err != nil {
					return
				}

				// discrete adjoints re-record the tape every outer step
				if rec, ok := rt.Machine.(Recorder); ok {
					err = rec.SetRecording(rt.Ctx, sys.RecSolvars)
					if err != nil {
						return
					}
				}

				err = rt.Machine.Solve(rt.Ctx)
				if err != nil {
					return
				}

				if o.Sim.Coupling.FSI {
					err = rt.Machine.Relaxation(rt.Ctx)
					if err != nil {
						return
					}
				}
			}

			// stop the outer loop when every zone has converged
			if o.Sim.Coupling.FSI && o.outerConverged() {
				break
			}
		}

		// commit the time step
		for _, rt := range o.Runtimes {
			err = rt.Machine.Update(rt.Ctx)
			if err != nil {
				return
			}
			err = rt.Machine.Postprocess(rt.Ctx)
			if err != nil {
				return
			}
			// the output service skips writes already done by Solve
			stop := rt.Ctx.Out.Convergence() || timeIter == o.Sim.Time.NSteps-1
			err = rt.Machine.Output(rt.Ctx, rt.Ctx.InnerIter, stop)
			if err != nil {
				return
			}
		}
	}

	// secondary recording for the mesh sensitivities
	if o.Sim.Adjoint.MeshSens {
		err = o.meshSensitivities()
	}
	return
}

// outerConverged reports whether all zones converged in this outer iteration
func (o *Main) outerConverged() bool {
	for _, rt := range o.Runtimes {
		if !rt.Ctx.Out.Convergence() {
			return false
		}
	}
	return true
}

// meshSensitivities runs the secondary tape recording of the adjoint
// zones and writes the coordinate sensitivities
func (o *Main) meshSensitivities() (err error) {
	for _, rt := range o.Runtimes {
		ms, ok := rt.Machine.(meshSenser)
		if !ok {
			continue
		}
		var sens []float64
		sens, err = ms.MeshSensitivities(rt.Ctx)
		if err != nil {
			return
		}
		if o.Proc == 0 {
			var buf bytes.Buffer
			io.Ff(&buf, "INDEX\tSENS\n")
			for i, s := range sens {
				io.Ff(&buf, "%d\t%23.15e\n", i, s)
			}
			io.WriteStringToFileD(o.Sim.DirOut, io.Sf("mesh_sens_%v.txt", rt.Ctx.Key), buf.String())
		}
		if o.ShowMsg {
			io.Pf("> Mesh sensitivities of %v written\n", rt.Ctx.Key)
		}
	}
	return
}

// onexit prints the final message with simulation and cpu times
func (o *Main) onexit(cputime time.Time, prevErr error) (err error) {
	if o.ShowMsg {
		if prevErr == nil {
			io.PfGreen("> Success\n")
			io.Pf("> CPU time = %v\n", time.Now().Sub(cputime))
		} else {
			io.PfRed("> Failed\n")
		}
	}
	err = prevErr
	return
}
