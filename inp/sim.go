// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.sim) JSON file
package inp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

// Data holds global data
type Data struct {
	Desc    string `json:"desc"`    // description of simulation
	DirOut  string `json:"dirout"`  // directory for output; e.g. /tmp/gomph
	Encoder string `json:"encoder"` // encoder name; e.g. "gob" "json"
	Ndim    int    `json:"ndim"`    // space dimension
	Npts    int    `json:"npts"`    // number of grid points of the reference grid
	Restart bool   `json:"restart"` // restart from a previous computation
}

// TimeData holds time marching control data
type TimeData struct {
	TimeDomain  bool    `json:"timedomain"`  // time-domain (unsteady) computation
	Marching    string  `json:"marching"`    // time marching scheme: "" "dual1" "dual2"
	Dt          float64 `json:"dt"`          // physical time step
	NSteps      int     `json:"nsteps"`      // number of physical time steps
	UnstAdjIter int     `json:"unstadjiter"` // direct iteration offset for the unsteady adjoint
	DtFcnName   string  `json:"dtfcn"`       // name of time step function; optional

	// derived
	DtFunc dbf.T `json:"-"` // time step function
}

// Dual1 tells whether first order dual time-stepping is active
func (o *TimeData) Dual1() bool { return o.TimeDomain && o.Marching == "dual1" }

// Dual2 tells whether second order dual time-stepping is active
func (o *TimeData) Dual2() bool { return o.TimeDomain && o.Marching == "dual2" }

// IterData holds inner/outer iteration control data
type IterData struct {
	NInner int     `json:"ninner"` // maximum number of inner iterations
	NOuter int     `json:"nouter"` // maximum number of outer iterations
	Tol    float64 `json:"tol"`    // residual tolerance to stop inner iterations
	ShowR  bool    `json:"showr"`  // show residuals
}

// PostProcess performs a sanity check and sets default values
func (o *IterData) PostProcess() {
	if o.NInner < 1 {
		o.NInner = 10
	}
	if o.NOuter < 1 {
		o.NOuter = 1
	}
	if o.Tol <= 0 {
		o.Tol = 1e-8
	}
}

// CouplingData holds the flags coupling the physics sub-systems
type CouplingData struct {
	Turbulent       bool    `json:"turbulent"`   // solve a turbulence model with the mean flow
	TransModel      string  `json:"transmodel"`  // transition model name; "" means none
	WeakHeat        bool    `json:"weakheat"`    // weakly coupled heat equation
	Radiation       bool    `json:"radiation"`   // radiation model
	FrozenVisc      bool    `json:"frozenvisc"`  // adjoint: frozen eddy viscosity
	FSI             bool    `json:"fsi"`         // fluid-structure interaction
	DeformMesh      bool    `json:"deformmesh"`  // mesh deformation during iterations
	WallFunctions   bool    `json:"wallfns"`     // wall functions
	WallFnStartIter int     `json:"wallfnstart"` // inner iteration to activate wall functions
	CFLAdapt        bool    `json:"cfladapt"`    // adaptive CFL
	FixedCL         bool    `json:"fixedcl"`     // fixed lift coefficient mode
	TargetCL        float64 `json:"targetcl"`    // target lift coefficient
}

// MotionData holds prescribed mesh motion data
type MotionData struct {
	Kind       string    `json:"kind"`       // "" "rigid" "aeroelastic" "aeroelastic-rigid" "external" "external-rotation"
	AeroIter   int       `json:"aeroiter"`   // inner iterations between aeroelastic updates
	TransRate  []float64 `json:"transrate"`  // rigid translation rate
	PlungeAmp  []float64 `json:"plungeamp"`  // plunging amplitude per direction
	PlungeOm   []float64 `json:"plungeom"`   // plunging circular frequency per direction
	PitchAmp   float64   `json:"pitchamp"`   // pitching amplitude about the z axis [rad]
	PitchOm    float64   `json:"pitchom"`    // pitching circular frequency
	PitchPhase float64   `json:"pitchphase"` // pitching phase lag [rad]
	RotRate    float64   `json:"rotrate"`    // steady rotation rate about the z axis
	Center     []float64 `json:"center"`     // motion center
	ExtFcnName string    `json:"extfcn"`     // name of external deformation function

	// derived
	ExtFunc dbf.T `json:"-"` // external deformation function
}

// Moving tells whether any prescribed motion is active
func (o *MotionData) Moving() bool { return o.Kind != "" }

// Rigid tells whether rigid motion of the whole grid is active
func (o *MotionData) Rigid() bool {
	return o.Kind == "rigid" || o.Kind == "aeroelastic-rigid"
}

// Aeroelastic tells whether the aeroelastic surface motion is active
func (o *MotionData) Aeroelastic() bool {
	return o.Kind == "aeroelastic" || o.Kind == "aeroelastic-rigid"
}

// External tells whether an externally prescribed deformation is active
func (o *MotionData) External() bool {
	return o.Kind == "external" || o.Kind == "external-rotation"
}

// GustData holds wind gust data
type GustData struct {
	Type       string  `json:"type"`       // "" "tophat" "sine" "1-cos" "eog" "vortex"
	XBegin     float64 `json:"xbegin"`     // location where the gust begins
	TBegin     float64 `json:"tbegin"`     // time when the gust begins
	WaveLength float64 `json:"wavelength"` // gust wavelength
	Periods    float64 `json:"periods"`    // number of gust periods
	Amp        float64 `json:"amp"`        // gust amplitude
	Dir        int     `json:"dir"`        // direction of the gust velocity: 0 == x, 1 == y
	VortexFile string  `json:"vortexfile"` // file with the vortex distribution
}

// Active tells whether a wind gust is imposed
func (o *GustData) Active() bool { return o.Type != "" }

// FEAData holds structural analysis data
type FEAData struct {
	Nonlinear      bool      `json:"nonlinear"`    // geometrically nonlinear analysis
	IncLoad        bool      `json:"incload"`      // incremental loading
	NIncrements    int       `json:"nincrements"`  // number of load increments
	IncLoadCrit    []float64 `json:"incloadcrit"`  // 3 criteria deciding whether ramping is needed
	TimeScheme     string    `json:"timescheme"`   // dynamic time integration scheme; "" "newmark"
	AitkenInit     float64   `json:"aitkeninit"`   // initial Aitken relaxation parameter
	PredictorOrder int       `json:"predorder"`    // order of the displacement predictor
	NYoung         int       `json:"nyoung"`       // number of elasticity moduli
	NPoisson       int       `json:"npoisson"`     // number of Poisson ratios
	NDensity       int       `json:"ndensity"`     // number of material densities
	NEField        int       `json:"nefield"`      // number of electric field regions
	NDesignVars    int       `json:"ndesignvars"`  // number of design variables
	DVKind         string    `json:"dvkind"`       // design variable kind; "" "young" "poisson" "density" "deadweight" "efield"
	DEEffects      bool      `json:"deeffects"`    // dielectric elastomer effects
	ElementBased   bool      `json:"elementbased"` // element-based material behaviour
	Topology       bool      `json:"topology"`     // topology optimization
}

// PostProcess performs a sanity check and sets default values
func (o *FEAData) PostProcess() {
	if o.NIncrements < 1 {
		o.NIncrements = 1
	}
	if len(o.IncLoadCrit) == 0 {
		o.IncLoadCrit = []float64{0, 0, 0}
	}
	if len(o.IncLoadCrit) != 3 {
		chk.Panic("fea: incloadcrit must have 3 values. %d is invalid", len(o.IncLoadCrit))
	}
	if o.AitkenInit <= 0 {
		o.AitkenInit = 0.5
	}
	if o.NYoung < 1 {
		o.NYoung = 1
	}
	if o.NPoisson < 1 {
		o.NPoisson = 1
	}
	if o.NDensity < 1 {
		o.NDensity = 1
	}
}

// AdjointData holds discrete adjoint data
type AdjointData struct {
	ObjFunc  string `json:"objfunc"`  // objective function name; e.g. "refgeom" "refnode" "topcomp"
	MeshSens bool   `json:"meshsens"` // extract mesh coordinate sensitivities after convergence
}

// ZoneData holds the data of one zone
type ZoneData struct {
	Phys    string  `json:"phys"`  // name of the iteration machine; e.g. "fluid" "fea" "discadj-fluid"
	NInst   int     `json:"ninst"` // number of instances; e.g. harmonic balance instances
	FcnName string  `json:"fcn"`   // name of the target field function; "zero" if empty
	Relax   float64 `json:"relax"` // relaxation coefficient of the iterative solver; 0.5 if zero
	Nvars   int     `json:"nvars"` // number of solution variables per point; ndim+2 if zero
}

// PostProcess performs a sanity check and sets default values
func (o *ZoneData) PostProcess() {
	if o.Phys == "" {
		chk.Panic("zone: phys (iteration machine name) must be specified")
	}
	if o.NInst < 1 {
		o.NInst = 1
	}
	if o.FcnName == "" {
		o.FcnName = "zero"
	}
	if o.Relax <= 0 {
		o.Relax = 0.5
	}
}

// DiscreteAdjoint tells whether this zone runs a tape-recording machine
func (o *ZoneData) DiscreteAdjoint() bool {
	switch o.Phys {
	case "discadj-fluid", "discadj-heat", "discadj-fea":
		return true
	}
	return false
}

// ContinuousAdjoint tells whether this zone runs a continuous adjoint machine
func (o *ZoneData) ContinuousAdjoint() bool {
	return o.Phys == "adj-fluid"
}

// Simulation holds all simulation data
type Simulation struct {

	// input
	Data      Data         `json:"data"`      // global data
	Time      TimeData     `json:"time"`      // time marching control
	Iter      IterData     `json:"iter"`      // iteration control
	Coupling  CouplingData `json:"coupling"`  // coupling flags
	Motion    MotionData   `json:"motion"`    // mesh motion
	Gust      GustData     `json:"gust"`      // wind gust
	FEA       FEAData      `json:"fea"`       // structural analysis
	Adjoint   AdjointData  `json:"adjoint"`   // discrete adjoint
	Functions FuncsData    `json:"functions"` // time functions
	Zones     []*ZoneData  `json:"zones"`     // zones
	NLevels   int          `json:"nlevels"`   // total number of grid levels (at least 1)

	// derived
	GoroutineID int    // go routine id for parallel runs
	DirOut      string // output directory
	Key         string // simulation key; e.g. mysim01 or mysim01-alias
	EncType     string // encoder type
}

// ReadSim reads a simulation input file
// It panics on errors, since a broken input file cannot be recovered from
func ReadSim(simfilepath, alias string, erasePrev bool, goroutineId int) (o *Simulation) {

	// new sim and filename key
	o = new(Simulation)
	o.GoroutineID = goroutineId
	dir := filepath.Dir(simfilepath)
	fn := filepath.Base(simfilepath)
	fnkey := io.FnKey(fn)
	o.Key = fnkey
	if alias != "" {
		o.Key += "-" + alias
	}

	// read file
	b := io.ReadFile(filepath.Join(dir, fn))

	// decode
	err := json.Unmarshal(b, o)
	if err != nil {
		chk.Panic("cannot unmarshal simulation file %q:\n%v", simfilepath, err)
	}

	// sanity checks and default values
	if o.Data.Ndim < 2 || o.Data.Ndim > 3 {
		chk.Panic("ndim must be 2 or 3. %d is invalid", o.Data.Ndim)
	}
	if o.Data.Npts < 1 {
		o.Data.Npts = 8
	}
	if len(o.Zones) < 1 {
		chk.Panic("at least one zone must be specified")
	}
	if o.NLevels < 1 {
		o.NLevels = 1
	}
	if o.Time.TimeDomain {
		if o.Time.Dt <= 0 {
			chk.Panic("dt must be positive for time-domain computations. %g is invalid", o.Time.Dt)
		}
		if o.Time.NSteps < 1 {
			o.Time.NSteps = 1
		}
	} else {
		o.Time.NSteps = 1
	}
	o.Iter.PostProcess()
	o.FEA.PostProcess()
	for _, z := range o.Zones {
		z.PostProcess()
		if z.Nvars < 1 {
			z.Nvars = o.Data.Ndim + 2
		}
	}

	// derived: output directory and encoder
	o.DirOut = o.Data.DirOut
	if o.DirOut == "" {
		o.DirOut = "/tmp/gomph/" + fnkey
	}
	o.EncType = o.Data.Encoder
	if o.EncType != "gob" && o.EncType != "json" {
		o.EncType = "gob"
	}

	// create directory and erase previous simulation results
	if goroutineId == 0 && (!mpi.IsOn() || mpi.WorldRank() == 0) {
		if erasePrev {
			os.RemoveAll(o.DirOut)
		}
		err = os.MkdirAll(o.DirOut, 0777)
		if err != nil {
			chk.Panic("cannot create directory for output results (%s):\n%v", o.DirOut, err)
		}
	}

	// derived: time step function
	if o.Time.DtFcnName != "" {
		o.Time.DtFunc, err = o.Functions.Get(o.Time.DtFcnName)
		if err != nil {
			chk.Panic("cannot get time step function:\n%v", err)
		}
	} else {
		o.Time.DtFunc = NewConstant(o.Time.Dt)
	}

	// derived: external deformation function
	if o.Motion.External() {
		if o.Motion.ExtFcnName == "" {
			chk.Panic("external mesh motion requires an extfcn function name")
		}
		o.Motion.ExtFunc, err = o.Functions.Get(o.Motion.ExtFcnName)
		if err != nil {
			chk.Panic("cannot get external deformation function:\n%v", err)
		}
	}

	// derived: motion defaults
	if len(o.Motion.Center) == 0 {
		o.Motion.Center = make([]float64, o.Data.Ndim)
	}
	return
}

// MaxTime returns the final physical time
func (o *Simulation) MaxTime() float64 {
	return float64(o.Time.NSteps) * o.Time.Dt
}
