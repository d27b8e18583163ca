// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"testing"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// restartSolver tracks which direct iterations were loaded. Every load
// stamps the iteration number on the working solution, so the level
// rotations can be verified by value.
type restartSolver struct {
	kind   sys.PhysicsKind
	hist   *sys.History
	loaded []int
}

func newRestartSolver(kind sys.PhysicsKind) *restartSolver {
	return &restartSolver{kind: kind, hist: sys.NewHistory(4, 1)}
}

func (o *restartSolver) Kind() sys.PhysicsKind        { return o.kind }
func (o *restartSolver) Hist(lev int) *sys.History    { return o.hist }
func (o *restartSolver) Preprocessing(lev int) error  { return nil }
func (o *restartSolver) Postprocessing(lev int) error { return nil }
func (o *restartSolver) Residual(idx int) float64     { return 0 }

func (o *restartSolver) SetDefaultSolution(lev int) {
	for p := range o.hist.V {
		o.hist.V[p][0] = -1
	}
}

func (o *restartSolver) LoadRestart(directIter int, updateGeo bool) error {
	o.loaded = append(o.loaded, directIter)
	for p := range o.hist.V {
		o.hist.V[p][0] = float64(directIter)
	}
	return nil
}

func newRestartContext(unstAdjIter int, dual1, dual2 bool) (*Context, *restartSolver) {
	sim := new(inp.Simulation)
	sim.Time.TimeDomain = true
	sim.Time.Dt = 0.1
	sim.Time.UnstAdjIter = unstAdjIter
	if dual1 {
		sim.Time.Marching = "dual1"
	}
	if dual2 {
		sim.Time.Marching = "dual2"
	}
	s := newRestartSolver(sys.Flow)
	ctx := &Context{
		Sim:     sim,
		Cpl:     &sys.CouplingConfig{Unsteady: true, Dual1: dual1, Dual2: dual2, NLevels: 1},
		Solvers: map[sys.PhysicsKind]sys.Solver{sys.Flow: s},
	}
	return ctx, s
}

func Test_restart01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("restart01. second order unsteady restart")

	ctx, s := newRestartContext(10, false, true)

	// first adjoint step: three direct solutions fill the time levels
	ctx.TimeIter = 0
	err := unsteadyRestart(ctx, []sys.PhysicsKind{sys.Flow})
	if err != nil {
		tst.Errorf("restart failed:\n%v", err)
		return
	}
	io.Pfyel("loaded = %v\n", s.loaded)
	chk.Ints(tst, "loaded iterations", s.loaded, []int{7, 8, 9})
	chk.Float64(tst, "V ", 1e-17, s.hist.V[0][0], 9)
	chk.Float64(tst, "N ", 1e-17, s.hist.N[0][0], 8)
	chk.Float64(tst, "N1", 1e-17, s.hist.N1[0][0], 7)

	// later adjoint steps read one new solution and rotate backward
	ctx.TimeIter = 1
	err = unsteadyRestart(ctx, []sys.PhysicsKind{sys.Flow})
	if err != nil {
		tst.Errorf("restart failed:\n%v", err)
		return
	}
	chk.Ints(tst, "loaded iterations", s.loaded, []int{7, 8, 9, 6})
	chk.Float64(tst, "V  shifted", 1e-17, s.hist.V[0][0], 8)
	chk.Float64(tst, "N  shifted", 1e-17, s.hist.N[0][0], 7)
	chk.Float64(tst, "N1 shifted", 1e-17, s.hist.N1[0][0], 6)
}

func Test_restart02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("restart02. first order restart and freestream fallback")

	ctx, s := newRestartContext(10, true, false)

	ctx.TimeIter = 0
	err := unsteadyRestart(ctx, []sys.PhysicsKind{sys.Flow})
	if err != nil {
		tst.Errorf("restart failed:\n%v", err)
		return
	}
	chk.Ints(tst, "loaded iterations", s.loaded, []int{8, 9})
	chk.Float64(tst, "V", 1e-17, s.hist.V[0][0], 9)
	chk.Float64(tst, "N", 1e-17, s.hist.N[0][0], 8)

	ctx.TimeIter = 1
	err = unsteadyRestart(ctx, []sys.PhysicsKind{sys.Flow})
	if err != nil {
		tst.Errorf("restart failed:\n%v", err)
		return
	}
	chk.Ints(tst, "loaded iterations", s.loaded, []int{8, 9, 7})
	chk.Float64(tst, "V shifted", 1e-17, s.hist.V[0][0], 8)
	chk.Float64(tst, "N shifted", 1e-17, s.hist.N[0][0], 7)

	// steps before the direct run began fall back to the freestream
	ctx2, s2 := newRestartContext(1, true, false)
	ctx2.TimeIter = 0
	err = unsteadyRestart(ctx2, []sys.PhysicsKind{sys.Flow})
	if err != nil {
		tst.Errorf("restart failed:\n%v", err)
		return
	}
	// only iteration 0 exists on file; step n-1 is the default solution
	chk.Ints(tst, "loaded iterations", s2.loaded, []int{0})
	chk.Float64(tst, "V fallback", 1e-17, s2.hist.V[0][0], 0)
	chk.Float64(tst, "N fallback", 1e-17, s2.hist.N[0][0], -1)
}
