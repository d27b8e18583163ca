// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gust

import (
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Vortex holds the parameters of one convecting vortex
type Vortex struct {
	X, Y     float64 // initial location
	Strength float64 // circulation strength (lambda)
	Rcore    float64 // core radius (eta)
}

// VortexDistribution holds the vortices superposed into a gust field
type VortexDistribution []Vortex

// ReadVortexDistribution reads a vortex distribution file. The first
// line is a header; every following non-blank line holds the four
// values: xloc yloc strength coreradius. A missing or malformed file
// aborts the simulation.
func ReadVortexDistribution(filename string) (vd VortexDistribution) {
	io.ReadLines(filename, func(idx int, line string) (stop bool) {
		if idx == 0 {
			return
		}
		words := strings.Fields(line)
		if len(words) == 0 {
			return
		}
		if len(words) != 4 {
			chk.Panic("vortex distribution file %q: line %d must have 4 values: xloc yloc strength coreradius", filename, idx+1)
		}
		vd = append(vd, Vortex{
			X:        io.Atof(words[0]),
			Y:        io.Atof(words[1]),
			Strength: io.Atof(words[2]),
			Rcore:    io.Atof(words[3]),
		})
		return
	})
	if len(vd) == 0 {
		chk.Panic("vortex distribution file %q has no vortex data", filename)
	}
	return
}
