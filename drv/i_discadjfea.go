// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"bytes"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

// DiscAdjFEAIteration drives the reverse-mode adjoint of the structural
// problem and computes sensitivities with respect to material properties,
// electric fields and design variables. The direct structural iteration is
// replayed on the tape by an embedded FEAIteration.
type DiscAdjFEAIteration struct {
	discAdjBase
	direct     *FEAIteration
	resultsBuf bytes.Buffer // accumulated lines of the sensitivity report
}

// structuralAdjointOf returns the material sensitivity accessors of the
// structural adjoint system
func structuralAdjointOf(ctx *Context) sys.StructuralAdjoint {
	sa, ok := ctx.Solver(sys.AdjStru).(sys.StructuralAdjoint)
	if !ok {
		chk.Panic("%v: the structural adjoint system does not provide material sensitivities", ctx.Key)
	}
	return sa
}

// loadDynamicStep loads one converged dynamic step of the direct structural
// problem, or zeroes the solution when the step precedes the simulation start
func (o *DiscAdjFEAIteration) loadDynamicStep(ctx *Context, directIter int) (err error) {
	stru := ctx.Solver(sys.Stru)
	verb := ctx.ShowMsg && ctx.Key.Zone == 0 && (!mpi.IsOn() || mpi.WorldRank() == 0)
	if directIter >= 0 {
		if verb {
			io.Pf("loading structural solution from direct iteration %d\n", directIter)
		}
		return stru.LoadRestart(directIter, false)
	}
	if verb {
		io.Pf("setting static conditions at direct iteration %d\n", directIter)
	}
	stru.SetDefaultSolution(0)
	return
}

// Preprocess loads the direct structural solution of the current reverse time
// step and stores it as the rewind point
func (o *DiscAdjFEAIteration) Preprocess(ctx *Context) (err error) {

	adj := adjointOf(ctx, sys.AdjStru)

	if ctx.Cpl.Dynamic {

		directIter := ctx.Sim.Time.UnstAdjIter - ctx.TimeIter - 1

		// the already converged solutions at steps n-1 and n
		err = o.loadDynamicStep(ctx, directIter-1)
		if err != nil {
			return
		}
		ctx.Solver(sys.Stru).Hist(0).PushN()

		err = o.loadDynamicStep(ctx, directIter)
		if err != nil {
			return
		}
	}

	adj.StoreDirect(0)
	return ctx.Solver(sys.AdjStru).Preprocessing(0)
}

func (o *DiscAdjFEAIteration) resetSolutions(ctx *Context) {
	adjointOf(ctx, sys.AdjStru).ResetToDirect(0)
}

// registerInput declares displacements and material variables as independents
// or, for the secondary recording, the mesh coordinates and densities
func (o *DiscAdjFEAIteration) registerInput(ctx *Context, mode sys.RecordingMode) {
	adj := adjointOf(ctx, sys.AdjStru)
	adj.RegisterSolution(ctx.Tape, 0)
	adj.RegisterVariables(ctx.Tape)
	if mode == sys.RecMeshco {
		ctx.Geom.RegisterCoordinates(ctx.Tape)
	}
}

// setDependencies pushes the registered material values into the element
// integrands so the residual depends on them through the tape
func (o *DiscAdjFEAIteration) setDependencies(ctx *Context, mode sys.RecordingMode) (err error) {

	sa := structuralAdjointOf(ctx)
	fea := &ctx.Sim.FEA

	nonlinear := fea.Nonlinear
	deEffects := ctx.Cpl.DEEffects && nonlinear
	elementBased := ctx.Cpl.ElementBased && nonlinear

	matTerms := []sys.Term{sys.TermNHComp, sys.TermIdealDE, sys.TermKnowles}

	for i := 0; i < fea.NYoung; i++ {
		e := sa.ValYoung(i)
		nu := sa.ValPoisson(i)
		rho, rhoDL := sa.ValDensity(i)
		ctx.Num(sys.TermStru).SetMaterialProperties(i, e, nu)
		ctx.Num(sys.TermStru).SetMaterialDensity(i, rho, rhoDL)
		if elementBased {
			for _, term := range matTerms {
				ctx.Num(term).SetMaterialProperties(i, e, nu)
				ctx.Num(term).SetMaterialDensity(i, rho, rhoDL)
			}
		}
	}

	if deEffects {
		for i := 0; i < fea.NEField; i++ {
			val := sa.ValEField(i)
			ctx.Num(sys.TermStru).SetElectricField(i, val)
			ctx.Num(sys.TermDE).SetElectricField(i, val)
		}
	}

	switch fea.DVKind {
	case "young", "poisson", "density", "deadweight", "efield":
		for i := 0; i < sa.NumDV(); i++ {
			val := sa.ValDV(i)
			ctx.Num(sys.TermStru).SetDesignVariable(i, val)
			if deEffects {
				ctx.Num(sys.TermDE).SetDesignVariable(i, val)
			}
			if elementBased {
				for _, term := range matTerms {
					ctx.Num(term).SetDesignVariable(i, val)
				}
			}
		}
	}

	if ctx.Cpl.FSI {
		stru, ok := ctx.Solver(sys.Stru).(sys.Structural)
		if !ok {
			chk.Panic("%v: the structural system does not provide displacement prediction", ctx.Key)
		}
		err = stru.PredictDisplacement(fea.PredictorOrder)
		if err != nil {
			return
		}
	}

	ctx.Geom.InitiateComms("solution")
	ctx.Geom.CompleteComms("solution")
	if mode == sys.RecMeshco {
		ctx.Geom.InitiateComms("coordinates")
		ctx.Geom.CompleteComms("coordinates")
	}

	// filtered densities only vary in the secondary recording
	if ctx.Cpl.Topology && mode == sys.RecMeshco {
		topo, ok := ctx.Solver(sys.Stru).(sys.WithTopology)
		if !ok {
			chk.Panic("%v: the structural system does not provide density filtering", ctx.Key)
		}
		err = topo.FilterElementDensities()
	}
	return
}

func (o *DiscAdjFEAIteration) directIterate(ctx *Context) error {
	return o.direct.Iterate(ctx)
}

func (o *DiscAdjFEAIteration) registerOutput(ctx *Context) {
	adjointOf(ctx, sys.AdjStru).RegisterOutput(ctx.Tape, 0)
}

// SetRecording re-records the tape in the given mode
func (o *DiscAdjFEAIteration) SetRecording(ctx *Context, mode sys.RecordingMode) error {
	return o.record(ctx, o, mode)
}

// InitializeAdjoint seeds the objective function and the current adjoint
// solution on the tape outputs
func (o *DiscAdjFEAIteration) InitializeAdjoint(ctx *Context) {
	adj := adjointOf(ctx, sys.AdjStru)
	adj.SetAdjObjFunc(ctx.Tape)
	adj.SetAdjointOutput(ctx.Tape, 0)
}

// Iterate extracts the next adjoint displacements and the material
// sensitivities from the evaluated tape
func (o *DiscAdjFEAIteration) Iterate(ctx *Context) (err error) {
	adj := adjointOf(ctx, sys.AdjStru)
	adj.ExtractAdjointSolution(0)
	adj.ExtractAdjointVariables()
	if ctx.Cpl.Dynamic {
		ctx.Integ(sys.AdjStru).SetConvergence(false)
	}
	return
}

func (o *DiscAdjFEAIteration) Monitor(ctx *Context) (stop bool, err error) {
	ctx.Out.WriteHistory(ctx.Key, ctx.TimeIter, ctx.OuterIter, ctx.InnerIter)
	stop = ctx.Out.Convergence()
	return
}

// Postprocess appends one line per time step to the sensitivity report and
// rewrites the design variable gradient file
func (o *DiscAdjFEAIteration) Postprocess(ctx *Context) (err error) {

	if ctx.Cpl.FSI || (mpi.IsOn() && mpi.WorldRank() != 0) {
		return
	}

	sa := structuralAdjointOf(ctx)
	fea := &ctx.Sim.FEA

	// objective function value, taken from the direct system
	var objval float64
	if wo, ok := ctx.Solver(sys.Stru).(sys.WithObjFunc); ok {
		objval = wo.ObjFuncValue(ctx.Sim.Adjoint.ObjFunc)
	}

	io.Ff(&o.resultsBuf, "%d\t%23.15e\t", ctx.TimeIter, objval)
	for i := 0; i < fea.NYoung; i++ {
		io.Ff(&o.resultsBuf, "%23.15e\t", sa.SensYoung(i))
	}
	for i := 0; i < fea.NPoisson; i++ {
		io.Ff(&o.resultsBuf, "%23.15e\t", sa.SensPoisson(i))
	}
	if ctx.Cpl.Dynamic {
		for i := 0; i < fea.NDensity; i++ {
			io.Ff(&o.resultsBuf, "%23.15e\t", sa.SensDensity(i))
		}
	}
	if fea.DEEffects {
		for i := 0; i < fea.NEField; i++ {
			io.Ff(&o.resultsBuf, "%23.15e\t", sa.SensEField(i))
		}
	}
	for i := 0; i < sa.NumDV(); i++ {
		io.Ff(&o.resultsBuf, "%23.15e\t", sa.SensDV(i))
	}
	io.Ff(&o.resultsBuf, "\n")
	io.WriteStringToFileD(ctx.Sim.DirOut, "Results_Reverse_Adjoint.txt", o.resultsBuf.String())

	// gradient file for the active design variable kind
	var gradfn string
	switch fea.DVKind {
	case "young":
		gradfn = "grad_young.opt"
	case "poisson":
		gradfn = "grad_poisson.opt"
	case "density", "deadweight":
		gradfn = "grad_density.opt"
	case "efield":
		gradfn = "grad_efield.opt"
	default:
		return
	}
	var buf bytes.Buffer
	io.Ff(&buf, "INDEX\tGRAD\n")
	for i := 0; i < sa.NumDV(); i++ {
		io.Ff(&buf, "%d\t%23.15e\n", i, sa.SensDV(i))
	}
	io.WriteStringToFileD(ctx.Sim.DirOut, gradfn, buf.String())
	return
}

// Solve runs the fixed-point adjoint loop
func (o *DiscAdjFEAIteration) Solve(ctx *Context) error {
	return o.adjointLoop(ctx, o)
}

// writeResultsHeader writes the column names of the sensitivity report. The
// columns mirror the per-step lines appended by Postprocess
func (o *DiscAdjFEAIteration) writeResultsHeader(sim *inp.Simulation) {
	if sim.Coupling.FSI || (mpi.IsOn() && mpi.WorldRank() != 0) {
		return
	}
	fea := &sim.FEA
	io.Ff(&o.resultsBuf, "TIMEITER\tObj_Func\t")
	for i := 0; i < fea.NYoung; i++ {
		io.Ff(&o.resultsBuf, "Sens_E_%d\t", i)
	}
	for i := 0; i < fea.NPoisson; i++ {
		io.Ff(&o.resultsBuf, "Sens_Nu_%d\t", i)
	}
	if fea.TimeScheme != "" {
		for i := 0; i < fea.NDensity; i++ {
			io.Ff(&o.resultsBuf, "Sens_Rho_%d\t", i)
		}
	}
	if fea.DEEffects {
		for i := 0; i < fea.NEField; i++ {
			io.Ff(&o.resultsBuf, "Sens_EField_%d\t", i)
		}
	}
	for i := 0; i < fea.NDesignVars; i++ {
		io.Ff(&o.resultsBuf, "Sens_DV_%d\t", i)
	}
	io.Ff(&o.resultsBuf, "\n")
}

func init() {
	allocators["discadj-fea"] = func(sim *inp.Simulation) Iteration {
		o := &DiscAdjFEAIteration{
			discAdjBase: discAdjBase{CurrentRecording: sys.RecNone},
			direct:      &FEAIteration{},
		}
		o.writeResultsHeader(sim)
		return o
	}
}

var _ Recorder = (*DiscAdjFEAIteration)(nil)
var _ recordHooks = (*DiscAdjFEAIteration)(nil)
