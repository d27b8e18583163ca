// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sys

import "github.com/cpmech/gomph/tape"

// Geometry is the mesh service used by the iteration drivers. One
// Geometry holds all multigrid levels of one zone instance; level 0 is
// the finest grid.
type Geometry interface {

	// basic data
	Ndim() int      // space dimension
	NumLevels() int // number of grid levels (at least 1)
	NumPoints(lev int) int

	// coordinates and grid velocities
	CoordHist(lev int) *History         // coordinate time history of one level
	GridVel(lev, p int) []float64       // grid velocity of point p (reference)
	SetGridVel(lev, p int, v []float64) // set grid velocity of point p

	// geometrical quantities
	UpdateGeometry() error // recompute metrics after coordinate changes
	ComputeWallDistance() error
	SetGridVelFD(dt float64, secondOrder bool) // finite-difference grid velocities from the coordinate history
	PropagateCoarse()                          // restrict fine-level coordinates and velocities to coarser levels

	// recording
	RegisterCoordinates(tp *tape.Tape)          // register coordinates as independents
	RegisterOutputCoordinates(tp *tape.Tape)    // register coordinates as dependents
	CoordSensitivities(tp *tape.Tape) []float64 // adjoints of the registered coordinates, point-major

	// halo communication
	InitiateComms(quantity string)
	CompleteComms(quantity string)
}

// Solver is the common surface of all physics systems. Extra behaviour
// is expressed by the capability interfaces below; drivers type-assert
// for them instead of relying on fat interfaces.
type Solver interface {
	Kind() PhysicsKind
	Hist(lev int) *History                            // solution time history of one level
	Preprocessing(lev int) error                      // refresh dependent quantities before iterating
	Postprocessing(lev int) error                     // refresh derived quantities after iterating
	SetDefaultSolution(lev int)                       // impose the default (freestream/initial) solution
	LoadRestart(directIter int, updateGeo bool) error // load the solution of one direct step
	Residual(idx int) float64                         // monitored residual
}

// WithInitialCondition is implemented by systems that impose an initial
// condition at the beginning of a time-domain computation
type WithInitialCondition interface {
	SetInitialCondition(timeIter int) error
}

// WithFreestream is implemented by flow systems
type WithFreestream interface {
	FreestreamVel(i int) float64                   // freestream velocity component
	SetWindGust(lev, p int, gust, dgust []float64) // impose gust velocity and its spatial derivatives on point p
	AdaptCFL()                                     // adapt the CFL number from the residual history
	ComputeGradients() error                       // recompute solution gradients
}

// WithFixedCL is implemented by flow systems running in fixed lift mode
type WithFixedCL interface {
	FixedCLConvergence(innerIter int, converged bool) bool // update the AoA iteration; returns the convergence of the fixed lift mode
	StartFD() bool                                         // true when the finite-difference AoA perturbation step begins
	IterUpdateAoA() int                                    // inner iteration at which the AoA was last updated
}

// WithTractions is implemented by flow systems that exchange boundary
// tractions with a structural zone
type WithTractions interface {
	ComputeVertexTractions()
	RegisterVertexTractions(tp *tape.Tape)
	SetVertexTractionsAdjoint()
}

// WithForceProjection is implemented by continuous adjoint flow
// systems that impose the objective through a force projection vector
// on the wall boundaries
type WithForceProjection interface {
	SetForceProjection(lev int) error
	PropagateCoeffs() // copy the fine-level force coefficients to the coarse levels
}

// WithPrimitives is implemented by turbulence systems whose primitive
// variables must be refreshed after the mean flow moves
type WithPrimitives interface {
	SetPrimitiveVars() error
}

// WithHeatfluxAreas is implemented by heat systems that renormalize by
// the integrated heat flux areas before iterating
type WithHeatfluxAreas interface {
	SetHeatfluxAreas() error
}

// WithTurboAverages is implemented by flow systems computing spanwise
// averages at turbomachinery in/outflow boundaries
type WithTurboAverages interface {
	TurboAverage(marker string) error // "inflow" or "outflow"
	GatherAverages() error            // collect averaged values across ranks
}

// Structural is implemented by structural systems
type Structural interface {
	SetLoadIncrement(coef float64)       // ramp coefficient applied to external loads
	SetForceCoeff(coef float64)          // coefficient applied to coupled interface loads
	PredictDisplacement(order int) error // extrapolate the structural solution to the new outer iteration
	ComputeAitken(outerIter int) error   // compute the Aitken dynamic relaxation parameter
	SetAitkenRelaxation() error          // apply the Aitken relaxation to the interface solution
	RelaxationNewmark() error            // relax and commit the dynamic solution
}

// Adjoint is implemented by tape-recording adjoint systems. Each one
// wraps its direct counterpart and owns the slots of the recorded
// variables.
type Adjoint interface {
	Direct() Solver                          // the underlying direct system
	StoreDirect(lev int)                     // save the converged direct solution for later resets
	ResetToDirect(lev int)                   // reset the working solution to the stored direct one
	RegisterSolution(tp *tape.Tape, lev int) // register the direct solution as independents
	RegisterVariables(tp *tape.Tape)         // register extra independents (material properties, design variables)
	RegisterOutput(tp *tape.Tape, lev int)   // register the direct solution as dependents
	SetAdjObjFunc(tp *tape.Tape)             // seed the objective function adjoint
	SetAdjointOutput(tp *tape.Tape, lev int) // seed the output adjoints from the stored adjoint solution
	ExtractAdjointSolution(lev int)          // pull the input adjoints into the adjoint solution
	ExtractAdjointVariables()                // pull the adjoints of the extra independents
}

// StructuralAdjoint is implemented by structural adjoint systems that
// expose the material values recorded as extra independents and the
// sensitivities extracted from them
type StructuralAdjoint interface {
	ValYoung(i int) float64
	ValPoisson(i int) float64
	ValDensity(i int) (rho, rhoDL float64)
	ValEField(i int) float64
	NumDV() int
	ValDV(i int) float64
	SensYoung(i int) float64
	SensPoisson(i int) float64
	SensDensity(i int) float64
	SensEField(i int) float64
	SensDV(i int) float64
}

// WithObjFunc is implemented by direct systems that evaluate a scalar
// objective function
type WithObjFunc interface {
	ObjFuncValue(name string) float64
}

// WithDependencies is implemented by adjoint systems whose recording
// needs intermediate quantities re-evaluated between the registration
// of the inputs and of the outputs
type WithDependencies interface {
	SetDependencies(tp *tape.Tape, mode RecordingMode) error
}

// WithTopology is implemented by structural systems running topology
// optimization
type WithTopology interface {
	FilterElementDensities() error
}

// Integration drives the space integration of one physics system
type Integration interface {
	MultiGridIteration(cpl *CouplingConfig) error  // one full multigrid sweep
	SingleGridIteration(cpl *CouplingConfig) error // one iteration on the finest grid
	StructuralIteration(cpl *CouplingConfig) error // one nonlinear structural iteration
	DualTimeShift(lev int)                         // rotate the time levels after a converged physical step
	Convergence() bool
	SetConvergence(flag bool)
}

// Output writes history lines and result files and tracks the inner
// convergence of one zone instance
type Output interface {
	WriteHistory(key ZoneInstanceKey, timeIter, outerIter, innerIter int)
	WriteResults(key ZoneInstanceKey, innerIter int, force bool) (wrote bool, err error)
	Convergence() bool
	SetConvergence(flag bool)
	PrintConvergenceSummary()
}

// Numerics receives the material and design parameters re-evaluated
// during the dependency pass of a structural adjoint recording
type Numerics interface {
	SetMaterialProperties(i int, e, nu float64)
	SetMaterialDensity(i int, rho, rhoDL float64)
	SetElectricField(i int, val float64)
	SetDesignVariable(i int, val float64)
}

// Mover deforms the boundary of the mesh
type Mover interface {
	SetExternalDeformation(timeIter int) error // impose a prescribed boundary deformation
	Aeroelastic(timeIter int) error            // solve the aeroelastic equations and move the surface
}

// Deformer propagates a boundary deformation into the volume mesh
type Deformer interface {
	Deform(updateGridVel bool) error
	NumIterMesh() int
}
