// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"github.com/cpmech/gomph/drv"
	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
)

// NewServices allocates the reference physics services of one zone
// instance. It is the drv.Allocator handed to the run driver.
func NewServices(sim *inp.Simulation, key sys.ZoneInstanceKey) (svc *drv.Services, err error) {

	zone := sim.Zones[key.Zone]
	geom := NewGeometry(sim)
	store := NewStore(sim.DirOut, sim.Key, sim.EncType)

	b := &builder{
		sim:   sim,
		zone:  zone,
		key:   key,
		geom:  geom,
		store: store,
		svc: &drv.Services{
			Geom:    geom,
			Solvers: make(map[sys.PhysicsKind]sys.Solver),
			Integs:  make(map[sys.PhysicsKind]sys.Integration),
			Nums:    make(map[sys.Term]sys.Numerics),
		},
	}

	switch zone.Phys {
	case "fluid", "turbo", "fem-fluid":
		b.fluidDirect()
	case "heat":
		b.heat()
	case "fea":
		b.fea()
	case "adj-fluid":
		b.contAdjFluid()
	case "discadj-fluid":
		b.discAdjFluid()
	case "discadj-heat":
		b.discAdjHeat()
	case "discadj-fea":
		b.discAdjFEA()
	default:
		return nil, chk.Err("cannot allocate services for machine %q", zone.Phys)
	}

	// moving or deforming grids need the surface mover and the deformer
	if sim.Motion.Moving() || sim.Coupling.DeformMesh {
		flow, _ := b.svc.Solvers[sys.Flow].(*FlowSystem)
		b.svc.Surf = NewMover(sim, geom, flow)
		b.svc.Vol = NewDeformer(geom, 0)
	}

	b.svc.Out = NewOutput(sim, key, b.svc.Solvers, b.order)
	return b.svc, nil
}

// builder accumulates the systems of one zone instance
type builder struct {
	sim   *inp.Simulation
	zone  *inp.ZoneData
	key   sys.ZoneInstanceKey
	geom  *Geometry
	store *Store
	svc   *drv.Services
	order []sys.PhysicsKind // monitoring order
}

// add registers one system with its integration driver
func (o *builder) add(kind sys.PhysicsKind, s sweeper) {
	o.svc.Solvers[kind] = s
	o.svc.Integs[kind] = NewIntegration(s, o.geom, o.sim.Time.Dt, o.sim.Time.Dual2())
	o.order = append(o.order, kind)
}

// plain builds a relaxation system without extra behaviour
func (o *builder) plain(kind sys.PhysicsKind) *System {
	return NewSystem(o.sim, o.zone, o.key, kind, o.geom, o.store)
}

// fluidDirect builds the mean flow and its companion systems
func (o *builder) fluidDirect() {
	flow := NewFlowSystem(o.sim, o.zone, o.key, sys.Flow, o.geom, o.store)
	o.add(sys.Flow, flow)
	if o.sim.Coupling.Turbulent {
		o.add(sys.Turb, o.plain(sys.Turb))
	}
	if o.sim.Coupling.TransModel != "" {
		o.add(sys.Tran, o.plain(sys.Tran))
	}
	if o.sim.Coupling.WeakHeat {
		o.add(sys.Heat, NewHeatSystem(o.sim, o.zone, o.key, o.geom, o.store))
	}
	if o.sim.Coupling.Radiation {
		o.add(sys.Rad, o.plain(sys.Rad))
	}
	if o.sim.Coupling.DeformMesh {
		o.add(sys.Mesh, o.plain(sys.Mesh))
	}
}

// heat builds the standalone heat system
func (o *builder) heat() {
	o.add(sys.Heat, NewHeatSystem(o.sim, o.zone, o.key, o.geom, o.store))
}

// fea builds the structural system and binds its numerics terms
func (o *builder) fea() *FEASystem {
	fea := NewFEASystem(o.sim, o.zone, o.key, o.geom, o.store)
	o.add(sys.Stru, fea)
	o.svc.Nums[sys.TermStru] = fea
	if o.sim.FEA.DEEffects {
		o.svc.Nums[sys.TermDE] = fea
	}
	if o.sim.FEA.ElementBased {
		o.svc.Nums[sys.TermNHComp] = fea
		o.svc.Nums[sys.TermIdealDE] = fea
		o.svc.Nums[sys.TermKnowles] = fea
	}
	return fea
}

// contAdjFluid builds the direct flow plus its continuous adjoint
func (o *builder) contAdjFluid() {
	o.fluidDirect()
	o.add(sys.AdjFlow, NewFlowSystem(o.sim, o.zone, o.key, sys.AdjFlow, o.geom, o.store))
	if o.sim.Coupling.Turbulent && !o.sim.Coupling.FrozenVisc {
		o.add(sys.AdjTurb, o.plain(sys.AdjTurb))
	}
}

// discAdjFluid builds the direct flow chain and the tape-recording
// adjoint wrappers around it
func (o *builder) discAdjFluid() {
	o.fluidDirect()
	flow := o.svc.Solvers[sys.Flow].(*FlowSystem)
	o.add(sys.AdjFlow, NewAdjointSystem(o.sim, o.zone, o.key, sys.AdjFlow, o.geom, o.store, flow))
	if o.sim.Coupling.Turbulent && !o.sim.Coupling.FrozenVisc {
		turb := o.svc.Solvers[sys.Turb].(*System)
		o.add(sys.AdjTurb, NewAdjointSystem(o.sim, o.zone, o.key, sys.AdjTurb, o.geom, o.store, turb))
	}
	if o.sim.Coupling.WeakHeat {
		heat := o.svc.Solvers[sys.Heat].(*HeatSystem)
		o.add(sys.AdjHeat, NewAdjointSystem(o.sim, o.zone, o.key, sys.AdjHeat, o.geom, o.store, heat))
	}
	if o.sim.Coupling.Radiation {
		rad := o.svc.Solvers[sys.Rad].(*System)
		o.add(sys.AdjRad, NewAdjointSystem(o.sim, o.zone, o.key, sys.AdjRad, o.geom, o.store, rad))
	}
	if o.sim.Coupling.DeformMesh {
		mesh := o.svc.Solvers[sys.Mesh].(*System)
		o.add(sys.AdjMesh, NewAdjointSystem(o.sim, o.zone, o.key, sys.AdjMesh, o.geom, o.store, mesh))
	}
}

// discAdjHeat builds the heat system and its adjoint wrapper
func (o *builder) discAdjHeat() {
	heat := NewHeatSystem(o.sim, o.zone, o.key, o.geom, o.store)
	o.add(sys.Heat, heat)
	o.add(sys.AdjHeat, NewAdjointSystem(o.sim, o.zone, o.key, sys.AdjHeat, o.geom, o.store, heat))
}

// discAdjFEA builds the structural system and its adjoint wrapper
func (o *builder) discAdjFEA() {
	fea := o.fea()
	o.add(sys.AdjStru, NewFEAAdjoint(o.sim, o.zone, o.key, o.geom, o.store, fea))
}
