// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sys

import "github.com/cpmech/gomph/inp"

// CouplingConfig is an immutable snapshot of the coupling flags driving
// one outer iteration of a zone. It is computed once from the input data
// before the iteration machines run and is never mutated by them.
type CouplingConfig struct {

	// physics participation
	Turbulent  bool // a turbulence model is solved together with the mean flow
	Transition bool // a transition model is solved together with the turbulence model
	WeakHeat   bool // a weakly coupled heat equation runs after the flow
	Radiation  bool // a radiation model runs after the flow
	FrozenVisc bool // adjoint: eddy viscosity is frozen (no turbulence adjoint)

	// multizone and mesh
	Multizone  bool // more than one zone is present
	FSI        bool // fluid-structure interaction outer coupling is active
	DeformMesh bool // the mesh deforms during the iterations
	MovingGrid bool // any grid movement is active (rigid, aeroelastic, external, gust)
	Dynamic    bool // structural dynamics (time integration) is active

	// time marching
	Unsteady bool // time-domain simulation
	Dual1    bool // first order dual time-stepping
	Dual2    bool // second order dual time-stepping

	// adjoint
	DiscreteAdjoint   bool // this zone runs a tape-recording adjoint machine
	ContinuousAdjoint bool // this zone runs a continuous adjoint machine

	// flow extras
	FixedCL       bool // fixed lift coefficient mode
	WallFunctions bool // wall functions are active
	CFLAdapt      bool // adaptive CFL is active

	// structural extras
	DEEffects    bool // dielectric elastomer effects
	ElementBased bool // element-based (hybrid) material behaviour
	Topology     bool // topology optimization filtering is active

	// grid levels
	NLevels int // total number of grid levels (1 means single grid)
}

// NewCouplingConfig computes the coupling snapshot for one zone
func NewCouplingConfig(sim *inp.Simulation, zone *inp.ZoneData) (o *CouplingConfig) {
	o = new(CouplingConfig)
	o.Turbulent = sim.Coupling.Turbulent
	o.Transition = sim.Coupling.TransModel != ""
	o.WeakHeat = sim.Coupling.WeakHeat
	o.Radiation = sim.Coupling.Radiation
	o.FrozenVisc = sim.Coupling.FrozenVisc
	o.Multizone = len(sim.Zones) > 1
	o.FSI = sim.Coupling.FSI
	o.DeformMesh = sim.Coupling.DeformMesh
	o.MovingGrid = sim.Motion.Moving() || sim.Gust.Active()
	o.Dynamic = sim.FEA.TimeScheme != ""
	o.Unsteady = sim.Time.TimeDomain
	o.Dual1 = sim.Time.Dual1()
	o.Dual2 = sim.Time.Dual2()
	o.DiscreteAdjoint = zone.DiscreteAdjoint()
	o.ContinuousAdjoint = zone.ContinuousAdjoint()
	o.FixedCL = sim.Coupling.FixedCL
	o.WallFunctions = sim.Coupling.WallFunctions
	o.CFLAdapt = sim.Coupling.CFLAdapt
	o.DEEffects = sim.FEA.DEEffects
	o.ElementBased = sim.FEA.ElementBased
	o.Topology = sim.FEA.Topology
	o.NLevels = sim.NLevels
	return
}

// Dual returns true for either order of dual time-stepping
func (o *CouplingConfig) Dual() bool { return o.Dual1 || o.Dual2 }
