// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sys

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_hist01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("hist01. time level rotation")

	h := NewHistory(2, 1)
	h.V[0][0] = 1.0
	h.V[1][0] = 2.0

	// first order shift: V goes to N, N1 is untouched
	h.Shift(false)
	chk.Float64(tst, "N[0]", 1e-17, h.N[0][0], 1.0)
	chk.Float64(tst, "N1[0]", 1e-17, h.N1[0][0], 0.0)

	// second order shift: N goes to N1 first
	h.V[0][0] = 3.0
	h.Shift(true)
	chk.Float64(tst, "N[0]", 1e-17, h.N[0][0], 3.0)
	chk.Float64(tst, "N1[0]", 1e-17, h.N1[0][0], 1.0)

	// the current values are kept by the shift
	chk.Float64(tst, "V[0]", 1e-17, h.V[0][0], 3.0)
	chk.Float64(tst, "V[1]", 1e-17, h.V[1][0], 2.0)
}

func Test_hist02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("hist02. restart re-ordering operations")

	h := NewHistory(1, 2)
	h.V[0][0], h.V[0][1] = 5.0, 6.0
	h.Shift(true)

	// stash, replace, then restore via the scratch level
	h.V[0][0] = 7.0
	h.Stash()
	h.VfromN()
	chk.Float64(tst, "V from N", 1e-17, h.V[0][0], 5.0)
	h.NfromOld()
	chk.Float64(tst, "N from Old", 1e-17, h.N[0][0], 7.0)

	h.N1[0][0] = 9.0
	h.NfromN1()
	chk.Float64(tst, "N from N1", 1e-17, h.N[0][0], 9.0)
	h.N1fromOld()
	chk.Float64(tst, "N1 from Old", 1e-17, h.N1[0][0], 7.0)

	// transfers copy values, not slice headers
	h.Old[0][0] = -1.0
	chk.Float64(tst, "N1 unaffected", 1e-17, h.N1[0][0], 7.0)
}
