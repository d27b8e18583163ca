// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"testing"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func newFEAForTest(fn string) (*inp.Simulation, *FEASystem) {
	sim := inp.ReadSim(fn, "", true, 0)
	geom := NewGeometry(sim)
	store := NewStore(sim.DirOut, sim.Key, sim.EncType)
	key := sys.ZoneInstanceKey{Zone: 0, Inst: 0}
	return sim, NewFEASystem(sim, sim.Zones[0], key, geom, store)
}

func Test_fea01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("fea01. material properties and static sweeps")

	_, fea := newFEAForTest("data/stru.sim")

	// defaults
	chk.Float64(tst, "young  ", 1e-17, fea.Young(0), 1.0)
	chk.Float64(tst, "poisson", 1e-17, fea.Poisson(0), 0.3)
	rho, rhoDL := fea.Density(0)
	chk.Float64(tst, "density", 1e-17, rho, 1.0)
	chk.Float64(tst, "deadload density", 1e-17, rhoDL, 1.0)
	chk.Float64(tst, "efield ", 1e-17, fea.EField(0), 0.0)
	chk.IntAssert(fea.NumDesignVars(), 4)
	chk.Float64(tst, "dv", 1e-17, fea.DesignVar(0), 1.0)
	if fea.Dynamic() {
		tst.Errorf("static analysis must not be dynamic\n")
		return
	}
	chk.Float64(tst, "compliance", 1e-15, fea.compliance(), 0.91)
	chk.Float64(tst, "load factor", 1e-15, fea.loadFactor(), 1.0)

	// the displacements start from zero
	err := fea.SetInitialCondition(0)
	if err != nil {
		tst.Errorf("cannot set initial condition:\n%v", err)
		return
	}
	h := fea.Hist(0)
	chk.Float64(tst, "u initial", 1e-17, h.V[3][0], 0)

	// one sweep toward the compliance-scaled target
	fea.Sweep(0, 0)
	io.Pfyel("u0 = %v\n", h.V[3][0])
	chk.Float64(tst, "u0 after sweep", 1e-15, h.V[3][0], 0.2275)
	chk.Float64(tst, "u1 after sweep", 1e-15, h.V[3][1], 0.113750)
	chk.Float64(tst, "residual", 1e-15, fea.Residual(0), 0.455)

	// converged displacement equals the forcing
	for i := 0; i < 60; i++ {
		fea.Sweep(0, 0)
	}
	chk.Float64(tst, "u0 converged", 1e-14, h.V[3][0], 0.455)

	// stiffer material reduces the compliance
	fea.SetMaterialProperties(0, 2.0, 0.2)
	chk.Float64(tst, "compliance stiff", 1e-15, fea.compliance(), 0.48)

	// the load factor composes increments, coupling loads and densities
	fea.SetLoadIncrement(0.5)
	fea.SetForceCoeff(2.0)
	chk.Float64(tst, "load increment", 1e-17, fea.LoadIncrement(), 0.5)
	chk.Float64(tst, "load factor scaled", 1e-15, fea.loadFactor(), 1.0)
	fea.SetDesignVariable(0, 2.0)
	chk.Float64(tst, "load factor with dv", 1e-15, fea.loadFactor(), 1.025)

	// objective functions
	chk.Float64(tst, "objfunc topcomp", 1e-15, fea.ObjFuncValue("topcomp"), 1.25)
	chk.Float64(tst, "objfunc refnode", 1e-14, fea.ObjFuncValue("refnode"), h.V[0][0])
}

func Test_fea02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("fea02. predictor, Aitken relaxation and density filter")

	_, fea := newFEAForTest("data/stru.sim")
	h := fea.Hist(0)

	// order 0 keeps the last converged step
	err := fea.SetInitialCondition(0)
	if err != nil {
		tst.Errorf("cannot set initial condition:\n%v", err)
		return
	}
	for p := range h.V {
		h.V[p][0] = 3
	}
	h.PushN()
	for p := range h.V {
		h.V[p][0] = 99
	}
	err = fea.PredictDisplacement(0)
	if err != nil {
		tst.Errorf("predictor order 0 failed:\n%v", err)
		return
	}
	chk.Float64(tst, "predictor order 0", 1e-17, h.V[2][0], 3)

	// order 1 extrapolates the two previous steps: n1=0, n=3 gives 6
	err = fea.PredictDisplacement(1)
	if err != nil {
		tst.Errorf("predictor order 1 failed:\n%v", err)
		return
	}
	chk.Float64(tst, "predictor order 1", 1e-17, h.V[2][0], 6)

	// unknown orders are an error
	err = fea.PredictDisplacement(5)
	if err == nil {
		tst.Errorf("unknown predictor order was not detected\n")
		return
	}
	io.Pf("predictor order message: %v\n", err)

	// Aitken: the first outer iteration only seeds the residual history
	chk.Float64(tst, "aitken initial", 1e-17, fea.Aitken(), 0.5)
	h.Zero()
	for p := range h.V {
		h.V[p][0] = 1
	}
	err = fea.ComputeAitken(0)
	if err != nil {
		tst.Errorf("aitken seed failed:\n%v", err)
		return
	}
	chk.Float64(tst, "aitken seeded", 1e-17, fea.Aitken(), 0.5)

	// shrinking interface residuals push the parameter up to the cap
	for p := range h.V {
		h.V[p][0] = 0.5
	}
	err = fea.ComputeAitken(1)
	if err != nil {
		tst.Errorf("aitken update failed:\n%v", err)
		return
	}
	chk.Float64(tst, "aitken capped high", 1e-15, fea.Aitken(), 1.0)

	// growing residuals drive it down to the floor
	for p := range h.V {
		h.V[p][0] = 2.5
	}
	err = fea.ComputeAitken(2)
	if err != nil {
		tst.Errorf("aitken update failed:\n%v", err)
		return
	}
	chk.Float64(tst, "aitken floored", 1e-15, fea.Aitken(), 1e-4)

	// the relaxation blends the stashed and the new interface solution
	h.Zero()
	fea.aitken = 0.25
	for p := range h.V {
		h.V[p][0] = 1
	}
	err = fea.SetAitkenRelaxation()
	if err != nil {
		tst.Errorf("aitken relaxation failed:\n%v", err)
		return
	}
	chk.Float64(tst, "relaxed value", 1e-15, h.V[2][0], 0.25)
	chk.Float64(tst, "stashed value", 1e-15, h.Old[2][0], 0.25)

	// density filter: neighbour averaging
	fea.SetDesignVariable(1, 4)
	err = fea.FilterElementDensities()
	if err != nil {
		tst.Errorf("density filter failed:\n%v", err)
		return
	}
	chk.Float64(tst, "dv filtered 0", 1e-15, fea.DesignVar(0), 2.0)
	chk.Float64(tst, "dv filtered 1", 1e-15, fea.DesignVar(1), 2.0)
	chk.Float64(tst, "dv filtered 2", 1e-15, fea.DesignVar(2), 2.0)
	chk.Float64(tst, "dv filtered 3", 1e-15, fea.DesignVar(3), 1.0)
}

func Test_fea03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("fea03. Newmark dynamics")

	_, fea := newFEAForTest("data/strudyn.sim")
	if !fea.Dynamic() {
		tst.Errorf("newmark analysis must be dynamic\n")
		return
	}

	err := fea.SetInitialCondition(0)
	if err != nil {
		tst.Errorf("cannot set initial condition:\n%v", err)
		return
	}

	// a displacement step of 0.01 over dt=0.1 from rest
	h := fea.Hist(0)
	for p := range h.V {
		for j := range h.V[p] {
			h.V[p][j] = 0.01
		}
	}
	err = fea.RelaxationNewmark()
	if err != nil {
		tst.Errorf("newmark relaxation failed:\n%v", err)
		return
	}
	chk.Float64(tst, "acceleration", 1e-13, fea.accel[0][0], 4.0)
	chk.Float64(tst, "velocity    ", 1e-14, fea.vel[0][0], 0.2)

	// the initial condition wipes the kinematic state
	err = fea.SetInitialCondition(0)
	if err != nil {
		tst.Errorf("cannot reset initial condition:\n%v", err)
		return
	}
	chk.Float64(tst, "acceleration reset", 1e-17, fea.accel[0][0], 0)
	chk.Float64(tst, "velocity reset    ", 1e-17, fea.vel[0][0], 0)

	// a static setup has no time step and cannot run the scheme
	_, stat := newFEAForTest("data/stru.sim")
	err = stat.RelaxationNewmark()
	if err == nil {
		tst.Errorf("missing time step error was not detected\n")
		return
	}
	io.Pf("newmark message: %v\n", err)
}
