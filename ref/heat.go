// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
)

// HeatSystem extends the base relaxation system with the heat flux
// area normalization of a heat solver
type HeatSystem struct {
	System
	hfArea float64 // integrated heat flux area of the wall boundary
}

// NewHeatSystem builds the heat system of one zone instance
func NewHeatSystem(sim *inp.Simulation, zone *inp.ZoneData, key sys.ZoneInstanceKey, geom *Geometry, store *Store) (o *HeatSystem) {
	o = new(HeatSystem)
	o.System = *NewSystem(sim, zone, key, sys.Heat, geom, store)
	return
}

// SetHeatfluxAreas integrates the areas of the wall boundary
func (o *HeatSystem) SetHeatfluxAreas() (err error) {
	o.hfArea = float64(o.geom.NumPoints(0)) * o.geom.MinSpacing(0)
	return
}

// HeatfluxArea returns the integrated heat flux area
func (o *HeatSystem) HeatfluxArea() float64 { return o.hfArea }
