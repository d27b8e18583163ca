// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"testing"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gomph/tape"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// countInteg counts the space integration calls of one machine
type countInteg struct {
	iterations int    // number of structural/single grid iterations
	shifts     int    // number of dual time shifts
	convSet    []bool // arguments passed to SetConvergence
}

func (o *countInteg) MultiGridIteration(cpl *sys.CouplingConfig) error  { o.iterations++; return nil }
func (o *countInteg) SingleGridIteration(cpl *sys.CouplingConfig) error { o.iterations++; return nil }
func (o *countInteg) StructuralIteration(cpl *sys.CouplingConfig) error { o.iterations++; return nil }
func (o *countInteg) DualTimeShift(lev int)                             { o.shifts++ }
func (o *countInteg) Convergence() bool                                 { return false }
func (o *countInteg) SetConvergence(flag bool)                          { o.convSet = append(o.convSet, flag) }

// countOutput counts the history lines and reports a fixed inner
// convergence until the machine overrides it
type countOutput struct {
	histories int
	conv      bool
}

func (o *countOutput) WriteHistory(key sys.ZoneInstanceKey, timeIter, outerIter, innerIter int) {
	o.histories++
}
func (o *countOutput) WriteResults(key sys.ZoneInstanceKey, innerIter int, force bool) (bool, error) {
	return false, nil
}
func (o *countOutput) Convergence() bool        { return o.conv }
func (o *countOutput) SetConvergence(flag bool) { o.conv = flag }
func (o *countOutput) PrintConvergenceSummary() {}

// struSolver records the load coefficients imposed by the fea machine
type struSolver struct {
	incs      []float64 // arguments passed to SetLoadIncrement
	coeffs    []float64 // arguments passed to SetForceCoeff
	initConds int       // number of initial condition resets
	res       float64   // monitored residual
}

func (o *struSolver) Kind() sys.PhysicsKind                            { return sys.Stru }
func (o *struSolver) Hist(lev int) *sys.History                        { return nil }
func (o *struSolver) Preprocessing(lev int) error                      { return nil }
func (o *struSolver) Postprocessing(lev int) error                     { return nil }
func (o *struSolver) SetDefaultSolution(lev int)                       {}
func (o *struSolver) LoadRestart(directIter int, updateGeo bool) error { return nil }
func (o *struSolver) Residual(idx int) float64                         { return o.res }
func (o *struSolver) SetLoadIncrement(coef float64)                    { o.incs = append(o.incs, coef) }
func (o *struSolver) SetForceCoeff(coef float64)                       { o.coeffs = append(o.coeffs, coef) }
func (o *struSolver) PredictDisplacement(order int) error              { return nil }
func (o *struSolver) ComputeAitken(outerIter int) error                { return nil }
func (o *struSolver) SetAitkenRelaxation() error                       { return nil }
func (o *struSolver) RelaxationNewmark() error                         { return nil }
func (o *struSolver) SetInitialCondition(timeIter int) error           { o.initConds++; return nil }

func newFeaContext(nInner int) (*Context, *countInteg, *countOutput, *struSolver) {
	sim := new(inp.Simulation)
	sim.FEA.Nonlinear = true
	sim.Iter.NInner = nInner
	integ := new(countInteg)
	out := new(countOutput)
	s := new(struSolver)
	ctx := &Context{
		Sim:     sim,
		Cpl:     new(sys.CouplingConfig),
		Solvers: map[sys.PhysicsKind]sys.Solver{sys.Stru: s},
		Integs:  map[sys.PhysicsKind]sys.Integration{sys.Stru: integ},
		Out:     out,
	}
	return ctx, integ, out, s
}

func Test_feaiter01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("feaiter01. newton subiterations and monitoring")

	// the monitor reports convergence from the start; the machine must
	// still run a second subiteration before accepting it
	ctx, integ, out, _ := newFeaContext(5)
	out.conv = true
	m := &FEAIteration{Base{Name: "fea"}}
	err := m.Iterate(ctx)
	if err != nil {
		tst.Errorf("iterate failed:\n%v", err)
		return
	}
	io.Pfyel("iterations = %v  histories = %v\n", integ.iterations, out.histories)
	chk.IntAssert(integ.iterations, 2)
	chk.IntAssert(out.histories, 2)

	// without convergence the machine exhausts the inner iterations,
	// monitoring each one exactly once
	ctx, integ, out, _ = newFeaContext(5)
	err = m.Iterate(ctx)
	if err != nil {
		tst.Errorf("iterate failed:\n%v", err)
		return
	}
	chk.IntAssert(integ.iterations, 5)
	chk.IntAssert(out.histories, 5)
}

func Test_feaiter02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("feaiter02. incremental load ramp")

	// large residuals after the two trial iterations trigger the ramp
	ctx, integ, out, s := newFeaContext(2)
	ctx.Sim.FEA.IncLoad = true
	ctx.Sim.FEA.NIncrements = 4
	ctx.Sim.FEA.IncLoadCrit = []float64{-3, -3, -3}
	s.res = 1.0
	out.conv = false

	m := &FEAIteration{Base{Name: "fea"}}
	err := m.Iterate(ctx)
	if err != nil {
		tst.Errorf("iterate failed:\n%v", err)
		return
	}

	// full load trial, ramp from 1/4 to 4/4 and reset to the full load
	io.Pfyel("increments = %v\n", s.incs)
	chk.Array(tst, "load increments", 1e-17, s.incs, []float64{1.0, 0.25, 0.5, 0.75, 1.0, 1.0})
	chk.Array(tst, "force coeffs", 1e-17, s.coeffs, []float64{1.0})
	chk.IntAssert(s.initConds, 1)

	// 2 trial iterations plus 2 per increment, each with its history line
	chk.IntAssert(integ.iterations, 10)
	chk.IntAssert(out.histories, 10)
}

// stubGeometry is a single level mesh without points
type stubGeometry struct {
	nlevels int
}

func (o *stubGeometry) Ndim() int                                  { return 2 }
func (o *stubGeometry) NumLevels() int                             { return o.nlevels }
func (o *stubGeometry) NumPoints(lev int) int                      { return 0 }
func (o *stubGeometry) CoordHist(lev int) *sys.History             { return nil }
func (o *stubGeometry) GridVel(lev, p int) []float64               { return nil }
func (o *stubGeometry) SetGridVel(lev, p int, v []float64)         {}
func (o *stubGeometry) UpdateGeometry() error                      { return nil }
func (o *stubGeometry) ComputeWallDistance() error                 { return nil }
func (o *stubGeometry) SetGridVelFD(dt float64, secondOrder bool)  {}
func (o *stubGeometry) PropagateCoarse()                           {}
func (o *stubGeometry) RegisterCoordinates(tp *tape.Tape)          {}
func (o *stubGeometry) RegisterOutputCoordinates(tp *tape.Tape)    {}
func (o *stubGeometry) CoordSensitivities(tp *tape.Tape) []float64 { return nil }
func (o *stubGeometry) InitiateComms(quantity string)              {}
func (o *stubGeometry) CompleteComms(quantity string)              {}

func Test_adjupdate01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("adjupdate01. adjoint dual time convergence")

	sim := new(inp.Simulation)
	sim.Time.Dt = 0.1
	sim.Time.NSteps = 10
	integ := new(countInteg)
	ctx := &Context{
		Sim:    sim,
		Cpl:    &sys.CouplingConfig{Unsteady: true, Dual2: true},
		Geom:   &stubGeometry{nlevels: 2},
		Integs: map[sys.PhysicsKind]sys.Integration{sys.AdjFlow: integ},
	}
	m := new(AdjFluidIteration)

	// intermediate step: shift the time levels, keep iterating
	ctx.TimeIter = 3
	err := m.Update(ctx)
	if err != nil {
		tst.Errorf("update failed:\n%v", err)
		return
	}
	chk.IntAssert(integ.shifts, 2)
	chk.Bools(tst, "convergence", integ.convSet, []bool{false})

	// final step: the physical time reaches the maximum time
	ctx.TimeIter = 9
	err = m.Update(ctx)
	if err != nil {
		tst.Errorf("update failed:\n%v", err)
		return
	}
	chk.IntAssert(integ.shifts, 4)
	chk.Bools(tst, "convergence", integ.convSet, []bool{false, false, true})
}

// recordMachine drives the tape recording protocol with one scalar
// operation standing in for the direct physics
type recordMachine struct {
	discAdjBase
	resets  int                 // number of solution resets
	regs    []sys.RecordingMode // modes passed to registerInput
	deps    []sys.RecordingMode // modes passed to setDependencies
	active  []bool              // tape activity seen by each direct iteration
	inSlot  int
	outSlot int
}

func (o *recordMachine) resetSolutions(ctx *Context) { o.resets++ }

func (o *recordMachine) registerInput(ctx *Context, mode sys.RecordingMode) {
	o.regs = append(o.regs, mode)
	o.inSlot = ctx.Tape.Input(1.5)
}

func (o *recordMachine) setDependencies(ctx *Context, mode sys.RecordingMode) error {
	o.deps = append(o.deps, mode)
	return nil
}

func (o *recordMachine) directIterate(ctx *Context) error {
	o.active = append(o.active, ctx.Tape.Recording())
	o.outSlot = ctx.Tape.Op(3.0, []int{o.inSlot}, []float64{2.0})
	return nil
}

func (o *recordMachine) registerOutput(ctx *Context) { ctx.Tape.Output(o.outSlot) }

func modeInts(modes []sys.RecordingMode) (res []int) {
	for _, m := range modes {
		res = append(res, int(m))
	}
	return
}

// tapeGradient seeds the single output and sweeps back to the input
func tapeGradient(tp *tape.Tape, inSlot int) float64 {
	tp.ClearAdjoints()
	tp.SeedOutput(0, 1.0)
	tp.ComputeAdjoint()
	return tp.Adjoint(inSlot)
}

func Test_record01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("record01. recording idempotence and mode changes")

	m := new(recordMachine)
	ctx := &Context{
		Sim:  new(inp.Simulation),
		Cpl:  new(sys.CouplingConfig),
		Tape: tape.New(),
	}

	// first recording: reset once, register, iterate actively
	err := m.record(ctx, m, sys.RecSolvars)
	if err != nil {
		tst.Errorf("record failed:\n%v", err)
		return
	}
	chk.IntAssert(int(m.CurrentRecording), int(sys.RecSolvars))
	chk.IntAssert(m.resets, 1)
	chk.Ints(tst, "registered modes", modeInts(m.regs), []int{int(sys.RecSolvars)})
	chk.Ints(tst, "dependency modes", modeInts(m.deps), []int{int(sys.RecSolvars)})
	chk.Bools(tst, "tape active", m.active, []bool{true})
	chk.IntAssert(ctx.Tape.NumInputs(), 1)
	chk.IntAssert(ctx.Tape.NumOutputs(), 1)
	chk.IntAssert(ctx.Tape.NumOps(), 1)
	chk.Float64(tst, "gradient", 1e-17, tapeGradient(ctx.Tape, m.inSlot), 2.0)

	// recording the same mode again needs no passive pass and leaves an
	// equivalent tape behind
	err = m.record(ctx, m, sys.RecSolvars)
	if err != nil {
		tst.Errorf("record failed:\n%v", err)
		return
	}
	chk.IntAssert(m.resets, 2)
	chk.Ints(tst, "dependency modes", modeInts(m.deps), []int{int(sys.RecSolvars), int(sys.RecSolvars)})
	chk.Bools(tst, "tape active", m.active, []bool{true, true})
	chk.IntAssert(ctx.Tape.NumInputs(), 1)
	chk.IntAssert(ctx.Tape.NumOutputs(), 1)
	chk.IntAssert(ctx.Tape.NumOps(), 1)
	chk.Float64(tst, "gradient", 1e-17, tapeGradient(ctx.Tape, m.inSlot), 2.0)

	// switching modes flushes the stale indices with one passive direct
	// iteration before the new recording starts
	gen := ctx.Tape.Generation()
	err = m.record(ctx, m, sys.RecMeshco)
	if err != nil {
		tst.Errorf("record failed:\n%v", err)
		return
	}
	chk.IntAssert(int(m.CurrentRecording), int(sys.RecMeshco))
	chk.IntAssert(m.resets, 4)
	chk.Ints(tst, "dependency modes", modeInts(m.deps), []int{
		int(sys.RecSolvars), int(sys.RecSolvars), int(sys.RecSolmesh), int(sys.RecMeshco)})
	chk.Bools(tst, "tape active", m.active, []bool{true, true, false, true})
	chk.IntAssert(ctx.Tape.Generation(), gen+1)
	chk.IntAssert(ctx.Tape.NumOps(), 1)
}
