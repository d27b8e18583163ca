// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gust

import (
	"math"
	"testing"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func Test_field01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("field01. sine gust window and derivatives")

	d := &inp.GustData{Type: "sine", XBegin: 0, TBegin: 0, WaveLength: 4, Periods: 1, Amp: 2, Dir: 1}
	uinf := 1.0
	gs := make([]float64, 2)
	der := make([]float64, 3)

	// quarter wavelength into the gust: peak velocity, zero slope
	Field(d, nil, uinf, 0, 1, 0, gs, der)
	chk.Float64(tst, "gust[0]", 1e-17, gs[0], 0)
	chk.Float64(tst, "gust[1]", 1e-15, gs[1], 2)
	chk.Float64(tst, "dudx   ", 1e-15, der[0], 0)
	chk.Float64(tst, "dudt   ", 1e-15, der[2], 0)

	// eighth wavelength: check the space and time derivatives
	Field(d, nil, uinf, 0, 0.5, 0, gs, der)
	chk.Float64(tst, "gust[1]", 1e-15, gs[1], 2*math.Sin(math.Pi/4))
	chk.Float64(tst, "dudx   ", 1e-15, der[0], math.Pi*math.Cos(math.Pi/4))
	chk.Float64(tst, "dudt   ", 1e-15, der[2], -uinf*math.Pi*math.Cos(math.Pi/4))

	// the gust convects with the freestream
	Field(d, nil, uinf, 1, 2, 0, gs, der)
	chk.Float64(tst, "gust[1] convected", 1e-15, gs[1], 2)

	// outside the window and before the gust begins: zeros
	Field(d, nil, uinf, 0, 5, 0, gs, der)
	chk.Float64(tst, "gust[1] outside", 1e-17, gs[1], 0)
	chk.Float64(tst, "dudx    outside", 1e-17, der[0], 0)
	d.TBegin = 10
	Field(d, nil, uinf, 0, 1, 0, gs, der)
	chk.Float64(tst, "gust[1] early", 1e-17, gs[1], 0)
}

func Test_field02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("field02. tophat, 1-cos and eog profiles")

	uinf := 0.0
	gs := make([]float64, 2)
	der := make([]float64, 3)

	// tophat: constant amplitude inside the window
	d := &inp.GustData{Type: "tophat", WaveLength: 2, Periods: 1, Amp: 3, Dir: 0}
	Field(d, nil, uinf, 0, 1, 0, gs, der)
	chk.Float64(tst, "tophat inside ", 1e-17, gs[0], 3)
	Field(d, nil, uinf, 0, 3, 0, gs, der)
	chk.Float64(tst, "tophat outside", 1e-17, gs[0], 0)

	// 1-cos: peak is twice the amplitude, zero slope at the peak
	d = &inp.GustData{Type: "1-cos", WaveLength: 2, Periods: 1, Amp: 3, Dir: 1}
	Field(d, nil, uinf, 0, 1, 0, gs, der)
	chk.Float64(tst, "1-cos peak", 1e-14, gs[1], 6)
	chk.Float64(tst, "1-cos dudx", 1e-14, der[0], 0)

	// extreme operating gust
	d = &inp.GustData{Type: "eog", WaveLength: 4, Periods: 1, Amp: 1, Dir: 1}
	Field(d, nil, uinf, 0, 1, 0, gs, der)
	chk.Float64(tst, "eog", 1e-15, gs[1], -0.37*math.Sin(3*math.Pi/4))
}

func Test_vortex01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("vortex01. vortex gust and distribution file")

	// one clockwise vortex at the origin; velocity at (1,0) points down
	vd := VortexDistribution{{X: 0, Y: 0, Strength: 2 * math.Pi, Rcore: 0}}
	d := &inp.GustData{Type: "vortex"}
	gs := make([]float64, 2)
	der := make([]float64, 3)
	Field(d, vd, 0, 0, 1, 0, gs, der)
	chk.Float64(tst, "u at (1,0)", 1e-15, gs[0], 0)
	chk.Float64(tst, "v at (1,0)", 1e-15, gs[1], -1)

	// the core radius regularizes the induced velocity
	vd[0].Rcore = 1
	Field(d, vd, 0, 0, 1, 0, gs, der)
	chk.Float64(tst, "v regularized", 1e-15, gs[1], -0.5)

	// at the centre of a vortex the induced velocity is zero, not NaN
	vd = VortexDistribution{{X: 0.5, Y: -1, Strength: 2 * math.Pi, Rcore: 0.1}}
	Field(d, vd, 0, 0, 0.5, -1, gs, der)
	chk.Float64(tst, "u at centre", 1e-17, gs[0], 0)
	chk.Float64(tst, "v at centre", 1e-17, gs[1], 0)

	// read a distribution file
	io.WriteStringToFileD("/tmp/gomph/gust", "vortex01.txt", "XLOC YLOC STRENGTH CORERADIUS\n0.5 -1.0 2.5 0.1\n1.5  2.0 -1.0 0.2\n")
	vd = ReadVortexDistribution("/tmp/gomph/gust/vortex01.txt")
	chk.IntAssert(len(vd), 2)
	chk.Float64(tst, "x0   ", 1e-17, vd[0].X, 0.5)
	chk.Float64(tst, "y0   ", 1e-17, vd[0].Y, -1.0)
	chk.Float64(tst, "lam0 ", 1e-17, vd[0].Strength, 2.5)
	chk.Float64(tst, "eta1 ", 1e-17, vd[1].Rcore, 0.2)
}
