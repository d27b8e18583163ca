// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"testing"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/tape"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func Test_geom01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geom01. levels, spacing and wall distance")

	sim := inp.ReadSim("data/onezone.sim", "", true, 0)
	geom := NewGeometry(sim)

	io.Pfyel("ndim    = %v\n", geom.Ndim())
	io.Pfyel("nlevels = %v\n", geom.NumLevels())
	io.Pfyel("npts    = %v %v\n", geom.NumPoints(0), geom.NumPoints(1))

	chk.IntAssert(geom.Ndim(), 2)
	chk.IntAssert(geom.NumLevels(), 2)
	chk.IntAssert(geom.NumPoints(0), 8)
	chk.IntAssert(geom.NumPoints(1), 4)

	// uniform points along the first axis
	chk.Float64(tst, "x of point 3", 1e-15, geom.CoordHist(0).V[3][0], 3.0/7.0)
	chk.Float64(tst, "spacing lev 0", 1e-15, geom.MinSpacing(0), 1.0/7.0)
	chk.Float64(tst, "spacing lev 1", 1e-15, geom.MinSpacing(1), 1.0/3.0)

	// the first point of each level plays the role of the wall
	chk.Float64(tst, "walldist point 0", 1e-17, geom.WallDistance(0, 0), 0)
	chk.Float64(tst, "walldist point 3", 1e-15, geom.WallDistance(0, 3), 3.0/7.0)

	// coincident neighbouring points tangle the mesh
	h := geom.CoordHist(0)
	saved := h.V[1][0]
	h.V[1][0] = h.V[0][0]
	err := geom.UpdateGeometry()
	if err == nil {
		tst.Errorf("tangled mesh error was not detected\n")
		return
	}
	io.Pf("tangled mesh message: %v\n", err)
	h.V[1][0] = saved
	err = geom.UpdateGeometry()
	if err != nil {
		tst.Errorf("cannot recover geometry:\n%v", err)
		return
	}
}

func Test_geom02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geom02. grid velocities and coarse propagation")

	sim := inp.ReadSim("data/onezone.sim", "", true, 0)
	geom := NewGeometry(sim)

	// move one fine point; the time levels keep the original position
	h := geom.CoordHist(0)
	h.V[2][0] += 0.01

	// backward differences of first and second order
	geom.SetGridVelFD(0.1, false)
	chk.Float64(tst, "gv 1st order", 1e-15, geom.GridVel(0, 2)[0], 0.1)
	chk.Float64(tst, "gv unmoved  ", 1e-17, geom.GridVel(0, 3)[0], 0)
	geom.SetGridVelFD(0.1, true)
	chk.Float64(tst, "gv 2nd order", 1e-15, geom.GridVel(0, 2)[0], 0.15)

	// injection to the coarse level: point 1 tracks fine point 2
	geom.PropagateCoarse()
	chk.Float64(tst, "coarse coord", 1e-15, geom.CoordHist(1).V[1][0], 2.0/7.0+0.01)
	chk.Float64(tst, "coarse gv   ", 1e-15, geom.GridVel(1, 1)[0], 0.15)

	// prescribed grid velocity
	geom.SetGridVel(0, 4, []float64{1, 2})
	chk.Float64(tst, "set gv x", 1e-17, geom.GridVel(0, 4)[0], 1)
	chk.Float64(tst, "set gv y", 1e-17, geom.GridVel(0, 4)[1], 2)
}

func Test_geom03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geom03. coordinate registration on the tape")

	sim := inp.ReadSim("data/onezone.sim", "", true, 0)
	geom := NewGeometry(sim)
	tp := tape.New()

	tp.StartRecording()
	geom.RegisterCoordinates(tp)
	tp.StopRecording()

	slots := geom.CoordSlots(tp)
	chk.IntAssert(len(slots), 8*2)

	// resetting the tape invalidates the registration
	tp.Reset()
	if geom.CoordSlots(tp) != nil {
		tst.Errorf("stale coordinate slots survived a tape reset\n")
		return
	}
}
