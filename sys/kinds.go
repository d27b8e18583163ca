// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sys defines the common types shared by the iteration drivers,
// the physics systems and the recording machinery
package sys

import "github.com/cpmech/gosl/io"

// PhysicsKind identifies the physics sub-system a solver or integrator belongs to
type PhysicsKind int

const (
	Flow    PhysicsKind = iota // mean flow equations
	Turb                       // turbulence model
	Tran                       // transition model
	Heat                       // heat equation
	Rad                        // radiation model
	Stru                       // structural equations
	Mesh                       // mesh deformation pseudo-solid
	AdjFlow                    // adjoint of the mean flow
	AdjTurb                    // adjoint of the turbulence model
	AdjHeat                    // adjoint of the heat equation
	AdjStru                    // adjoint of the structural equations
	AdjRad                     // adjoint of the radiation model
	AdjMesh                    // adjoint of the mesh deformation
)

// String returns the name of this physics kind
func (o PhysicsKind) String() string {
	switch o {
	case Flow:
		return "flow"
	case Turb:
		return "turb"
	case Tran:
		return "tran"
	case Heat:
		return "heat"
	case Rad:
		return "rad"
	case Stru:
		return "stru"
	case Mesh:
		return "mesh"
	case AdjFlow:
		return "adjflow"
	case AdjTurb:
		return "adjturb"
	case AdjHeat:
		return "adjheat"
	case AdjStru:
		return "adjstru"
	case AdjRad:
		return "adjrad"
	case AdjMesh:
		return "adjmesh"
	}
	return io.Sf("physics(%d)", int(o))
}

// RecordingMode selects which independent variables a tape pass records
type RecordingMode int

const (
	RecNone    RecordingMode = iota // no recording
	RecSolvars                      // conservative/solution variables are independents
	RecMeshco                       // mesh coordinates are independents
	RecSolmesh                      // both solution variables and mesh coordinates
)

// String returns the name of this recording mode
func (o RecordingMode) String() string {
	switch o {
	case RecNone:
		return "none"
	case RecSolvars:
		return "solution-variables"
	case RecMeshco:
		return "mesh-coordinates"
	case RecSolmesh:
		return "solution-and-mesh"
	}
	return io.Sf("recording(%d)", int(o))
}

// Term identifies a numerics term within a physics sub-system
type Term int

const (
	TermStru    Term = iota // main structural term
	TermDE                  // dielectric elastomer term
	TermNHComp              // compressible neo-Hookean material term
	TermIdealDE             // ideal dielectric elastomer material term
	TermKnowles             // Knowles material term
)

// String returns the name of this term
func (o Term) String() string {
	switch o {
	case TermStru:
		return "structural"
	case TermDE:
		return "dielectric"
	case TermNHComp:
		return "neo-hookean"
	case TermIdealDE:
		return "ideal-de"
	case TermKnowles:
		return "knowles"
	}
	return io.Sf("term(%d)", int(o))
}

// ZoneInstanceKey addresses one (zone, instance) pair within a simulation
type ZoneInstanceKey struct {
	Zone int // zone index
	Inst int // instance index within zone
}

// String returns a short representation; e.g. "z0i0"
func (o ZoneInstanceKey) String() string {
	return io.Sf("z%di%d", o.Zone, o.Inst)
}
