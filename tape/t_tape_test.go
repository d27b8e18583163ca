// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tape

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_tape01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("tape01. record and reverse sweep")

	// y = 3 * x^2 at x = 2
	tp := New()
	tp.StartRecording()
	x := tp.Input(2.0)
	v := tp.Op(4.0, []int{x}, []float64{4.0}) // x^2, d/dx = 2x
	y := tp.Op(12.0, []int{v}, []float64{3.0})
	tp.Output(y)
	tp.StopRecording()

	chk.IntAssert(tp.NumInputs(), 1)
	chk.IntAssert(tp.NumOutputs(), 1)
	chk.IntAssert(tp.NumOps(), 2)

	tp.ClearAdjoints()
	tp.SeedOutput(0, 1.0)
	tp.ComputeAdjoint()
	chk.Float64(tst, "dy/dx", 1e-15, tp.Adjoint(x), 12.0)

	// a second sweep accumulates unless the adjoints are cleared
	tp.SeedOutput(0, 1.0)
	tp.ComputeAdjoint()
	chk.Float64(tst, "accumulated", 1e-15, tp.Adjoint(x), 36.0)

	tp.ClearAdjoints()
	tp.SeedOutput(0, 2.0)
	tp.ComputeAdjoint()
	chk.Float64(tst, "seeded by 2", 1e-15, tp.Adjoint(x), 24.0)
}

func Test_tape02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("tape02. two inputs and shared operations")

	// f = a*b + a at a = 3, b = 5
	tp := New()
	tp.StartRecording()
	a := tp.Input(3.0)
	b := tp.Input(5.0)
	ab := tp.Op(15.0, []int{a, b}, []float64{5.0, 3.0})
	f := tp.Op(18.0, []int{ab, a}, []float64{1.0, 1.0})
	tp.Output(f)
	tp.StopRecording()

	tp.ClearAdjoints()
	tp.SeedOutput(0, 1.0)
	tp.ComputeAdjoint()
	chk.Float64(tst, "df/da", 1e-15, tp.Adjoint(a), 6.0)
	chk.Float64(tst, "df/db", 1e-15, tp.Adjoint(b), 3.0)
}

func Test_tape03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("tape03. passive regions and generations")

	tp := New()
	gen0 := tp.Generation()

	tp.StartRecording()
	x := tp.Input(1.0)

	// operations inside a passive region behave as constants
	tp.BeginPassive()
	if tp.Recording() {
		tst.Errorf("tape must not record inside a passive region")
		return
	}
	c := tp.Op(2.0, []int{x}, []float64{7.0})
	tp.EndPassive()

	y := tp.Op(3.0, []int{x, c}, []float64{2.0, 1.0})
	tp.Output(y)
	tp.StopRecording()

	chk.IntAssert(tp.NumOps(), 1)

	tp.ClearAdjoints()
	tp.SeedOutput(0, 1.0)
	tp.ComputeAdjoint()
	chk.Float64(tst, "dy/dx", 1e-15, tp.Adjoint(x), 2.0)

	// a reset invalidates the old registrations
	tp.Reset()
	if tp.Generation() != gen0+1 {
		tst.Errorf("reset must advance the generation")
		return
	}
	chk.IntAssert(tp.NumInputs(), 0)
	chk.IntAssert(tp.NumOutputs(), 0)
	chk.IntAssert(tp.NumOps(), 0)
}
