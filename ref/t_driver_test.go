// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"strings"
	"testing"

	"github.com/cpmech/gomph/drv"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func Test_run01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("run01. steady fluid zone end to end")

	main := drv.NewMain("data/driver-fluid.sim", "", true, false, false, 0, NewServices)
	err := main.Run()
	if err != nil {
		tst.Errorf("run failed:\n%v", err)
		return
	}

	// the inner loop must have converged
	chk.IntAssert(len(main.Runtimes), 1)
	ctx := main.Runtimes[0].Ctx
	if !ctx.Out.Convergence() {
		tst.Errorf("steady run did not converge\n")
		return
	}
	io.Pfyel("residual = %v\n", ctx.Solvers[sys.Flow].Residual(0))
	if ctx.Solvers[sys.Flow].Residual(0) > main.Sim.Iter.Tol {
		tst.Errorf("flow residual above tolerance\n")
		return
	}

	// the history file holds the header and the iteration lines
	b := io.ReadFile("/tmp/gomph/driver-fluid/history-z0i0.txt")
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) < 2 {
		tst.Errorf("history file has no iteration lines\n")
		return
	}
	if !strings.Contains(lines[0], "RES[flow]") {
		tst.Errorf("history header is wrong: %q\n", lines[0])
		return
	}
	io.Pf("history lines = %d\n", len(lines))
}

func Test_run02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("run02. static structural adjoint end to end")

	main := drv.NewMain("data/driver-dafea.sim", "", true, false, false, 0, NewServices)
	err := main.Run()
	if err != nil {
		tst.Errorf("run failed:\n%v", err)
		return
	}

	// sensitivity report: the column header plus one line for the single
	// (steady) step
	b := io.ReadFile("/tmp/gomph/driver-dafea/Results_Reverse_Adjoint.txt")
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	chk.IntAssert(len(lines), 2)
	header := strings.Fields(lines[0])
	chk.Strings(tst, "header", header, []string{"TIMEITER", "Obj_Func", "Sens_E_0", "Sens_Nu_0", "Sens_DV_0", "Sens_DV_1", "Sens_DV_2"})
	words := strings.Fields(lines[1])
	// time iteration, objective, dJ/dE, dJ/dnu and three design variables
	chk.IntAssert(len(words), 7)
	if io.Atof(words[2]) == 0 {
		tst.Errorf("elasticity modulus sensitivity is zero\n")
		return
	}
	io.Pfyel("dJ/dE = %v\n", words[2])

	// gradient file of the active design variable kind
	b = io.ReadFile("/tmp/gomph/driver-dafea/grad_young.opt")
	lines = strings.Split(strings.TrimSpace(string(b)), "\n")
	chk.IntAssert(len(lines), 4)
	if !strings.HasPrefix(lines[0], "INDEX") {
		tst.Errorf("gradient header is wrong: %q\n", lines[0])
		return
	}
	for _, line := range lines[1:] {
		if io.Atof(strings.Fields(line)[1]) == 0 {
			tst.Errorf("design variable gradient is zero: %q\n", line)
			return
		}
	}
}
