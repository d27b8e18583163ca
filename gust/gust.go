// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package gust implements wind gust fields and prescribed mesh motion.
// The gust is imposed on the flow field via the grid velocities (field
// velocity method): the desired gust is prescribed as the negative of
// the grid velocity. The derivatives needed by a split velocity source
// term are evaluated here as well.
package gust

import (
	"math"

	"github.com/cpmech/gomph/inp"
)

// Field evaluates the gust velocity and its derivatives at one point.
// The gust convects with the freestream velocity uinf; t is the
// physical time and x, y the point location. Results are placed in
// gust (velocity per dimension) and der (d/dx, d/dy, d/dt); both are
// zeroed first, so points outside the active gust window get zeros.
// Field has no state; it never modifies d or vd.
func Field(d *inp.GustData, vd VortexDistribution, uinf, t, x, y float64, gust, der []float64) {

	for i := 0; i < len(gust); i++ {
		gust[i] = 0
	}
	for i := 0; i < len(der); i++ {
		der[i] = 0
	}
	if t < d.TBegin {
		return
	}

	// gust coordinate
	xg := (x - d.XBegin - uinf*(t-d.TBegin)) / d.WaveLength

	switch d.Type {

	case "tophat":
		if xg > 0 && xg < d.Periods {
			gust[d.Dir] = d.Amp
		}

	case "sine":
		if xg > 0 && xg < d.Periods {
			gust[d.Dir] = d.Amp * math.Sin(2*math.Pi*xg)
			der[0] = d.Amp * 2 * math.Pi * math.Cos(2*math.Pi*xg) / d.WaveLength
			der[2] = -uinf * der[0]
		}

	case "1-cos":
		if xg > 0 && xg < d.Periods {
			gust[d.Dir] = d.Amp * (1 - math.Cos(2*math.Pi*xg))
			der[0] = d.Amp * 2 * math.Pi * math.Sin(2*math.Pi*xg) / d.WaveLength
			der[2] = -uinf * der[0]
		}

	case "eog":
		if xg > 0 && xg < d.Periods {
			gust[d.Dir] = -0.37 * d.Amp * math.Sin(3*math.Pi*xg) * (1 - math.Cos(2*math.Pi*xg))
		}

	case "vortex":
		// algebraic vortex superposition; vortices are positive in
		// the clockwise direction and convect with the freestream
		for _, v := range vd {
			xv := v.X + uinf*(t-d.TBegin)
			r2 := (x-xv)*(x-xv) + (y-v.Y)*(y-v.Y)
			if r2 == 0 {
				// the induced velocity vanishes at the vortex centre
				continue
			}
			r := math.Sqrt(r2)
			vtheta := v.Strength / (2 * math.Pi) * r / (r2 + v.Rcore*v.Rcore)
			gust[0] += vtheta * (y - v.Y) / r
			gust[1] -= vtheta * (x - xv) / r
		}
	}
}
