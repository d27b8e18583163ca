// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gust

import (
	"math"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Coordinator applies grid movement and wind gusts to one zone
// instance. It dispatches rigid motion, aeroelastic and external
// surface deformation, volume mesh deformation and gust fields, and
// keeps the grid velocities and coarse levels consistent afterwards.
type Coordinator struct {

	// input
	Sim  *inp.Simulation // simulation data
	Geom sys.Geometry    // the mesh being moved
	Flow sys.Solver      // flow system; may be nil when no gust is imposed
	Surf sys.Mover       // surface mover; may be nil
	Vol  sys.Deformer    // volume deformer; may be nil

	// derived
	Vortices VortexDistribution // vortex distribution for vortex gusts
	ShowMsg  bool               // show messages
}

// NewCoordinator returns a new motion/gust coordinator. For vortex
// gusts the vortex distribution file is read here; a missing file
// aborts the simulation.
func NewCoordinator(sim *inp.Simulation, geom sys.Geometry, flow sys.Solver, surf sys.Mover, vol sys.Deformer, showMsg bool) (o *Coordinator) {
	o = &Coordinator{Sim: sim, Geom: geom, Flow: flow, Surf: surf, Vol: vol, ShowMsg: showMsg}
	if sim.Gust.Type == "vortex" {
		fn := sim.Gust.VortexFile
		if fn == "" {
			fn = "vortex_distribution.txt"
		}
		o.Vortices = ReadVortexDistribution(fn)
	}
	return
}

// GridMovement performs the grid movement of one outer step. Rigid
// motion moves all points analytically; aeroelastic and external
// deformations move the surface first and then propagate the motion
// into the volume. Grid velocities of deformed meshes come from finite
// differences of the coordinate time history.
func (o *Coordinator) GridMovement(timeIter, innerIter int) (err error) {
	m := &o.Sim.Motion
	if !m.Moving() {
		return
	}
	t := float64(timeIter) * o.Sim.Time.Dt

	// rigid motion of the whole grid
	if m.Rigid() {
		if o.ShowMsg {
			io.Pf("rigid mesh motion. time %g\n", t)
		}
		o.rigidMotion(t)
		err = o.Geom.UpdateGeometry()
		if err != nil {
			return
		}
	}

	// externally prescribed surface deformation
	if m.External() {
		if o.Surf == nil {
			return chk.Err("external mesh motion requires a surface mover")
		}
		err = o.Surf.SetExternalDeformation(timeIter)
		if err != nil {
			return
		}
		err = o.deformVolume()
		if err != nil {
			return
		}
	}

	// aeroelastic surface motion at the prescribed interval
	if m.Aeroelastic() && innerIter > 0 {
		interval := m.AeroIter
		if interval < 1 {
			interval = 1
		}
		if innerIter%interval == 0 {
			if o.Surf == nil {
				return chk.Err("aeroelastic mesh motion requires a surface mover")
			}
			if o.ShowMsg {
				io.Pf("aeroelastic surface update. time iteration %d\n", timeIter)
			}
			err = o.Surf.Aeroelastic(timeIter)
			if err != nil {
				return
			}
			err = o.deformVolume()
			if err != nil {
				return
			}
		}
	}

	// propagate the fine-level motion to the coarse levels
	o.Geom.PropagateCoarse()
	return
}

// deformVolume propagates a surface deformation into the volume mesh
// and recomputes grid velocities and metrics
func (o *Coordinator) deformVolume() (err error) {
	if o.Vol != nil {
		err = o.Vol.Deform(true)
		if err != nil {
			return
		}
	}
	if o.Sim.Time.TimeDomain {
		o.Geom.SetGridVelFD(o.Sim.Time.Dt, o.Sim.Time.Dual2())
	}
	return o.Geom.UpdateGeometry()
}

// rigidMotion composes translation, plunging, pitching and rotation
// over one physical step ending at time t. Displacements are applied
// incrementally to the fine grid; the grid velocities are analytic.
func (o *Coordinator) rigidMotion(t float64) {
	m := &o.Sim.Motion
	dt := o.Sim.Time.Dt
	told := t - dt
	ndim := o.Geom.Ndim()

	// translation and plunging displacement and velocity
	disp := make([]float64, ndim)
	vel := make([]float64, ndim)
	for i := 0; i < ndim; i++ {
		if i < len(m.TransRate) {
			disp[i] += m.TransRate[i] * dt
			vel[i] += m.TransRate[i]
		}
		if i < len(m.PlungeAmp) && i < len(m.PlungeOm) {
			disp[i] += m.PlungeAmp[i] * (math.Sin(m.PlungeOm[i]*t) - math.Sin(m.PlungeOm[i]*told))
			vel[i] += m.PlungeAmp[i] * m.PlungeOm[i] * math.Cos(m.PlungeOm[i]*t)
		}
	}

	// pitching and steady rotation about the z axis through the center
	dtheta := m.PitchAmp*(math.Sin(m.PitchOm*t+m.PitchPhase)-math.Sin(m.PitchOm*told+m.PitchPhase)) + m.RotRate*dt
	omega := m.PitchAmp*m.PitchOm*math.Cos(m.PitchOm*t+m.PitchPhase) + m.RotRate
	cosT, sinT := math.Cos(dtheta), math.Sin(dtheta)

	hist := o.Geom.CoordHist(0)
	for p := 0; p < hist.Npts(); p++ {
		x := hist.V[p]

		// rotate about the center
		dx := x[0] - m.Center[0]
		dy := x[1] - m.Center[1]
		x[0] = m.Center[0] + cosT*dx - sinT*dy
		x[1] = m.Center[1] + sinT*dx + cosT*dy

		// translate and plunge
		for i := 0; i < ndim; i++ {
			x[i] += disp[i]
		}

		// analytic grid velocity: translation + plunge + omega x r
		gv := make([]float64, ndim)
		copy(gv, vel)
		gv[0] += -omega * (x[1] - m.Center[1])
		gv[1] += omega * (x[0] - m.Center[0])
		o.Geom.SetGridVel(0, p, gv)
	}
}

// ApplyWindGust evaluates the gust field at the current physical time
// and imposes it on the flow system and the grid velocities of all
// levels. With gust-only movement the grid velocities are reset first,
// so the field is recomputed from scratch every step.
func (o *Coordinator) ApplyWindGust(timeIter int) (err error) {
	g := &o.Sim.Gust
	if !g.Active() {
		return
	}
	if o.ShowMsg {
		io.Pf("\nrunning simulation with a wind gust\n")
		if o.Geom.Ndim() != 2 {
			io.Pf("warning: the wind gust capability is only verified for 2 dimensional simulations\n")
		}
	}
	flow, ok := o.Flow.(sys.WithFreestream)
	if !ok {
		return chk.Err("wind gusts require a flow system with freestream data")
	}
	if g.WaveLength <= 0 && g.Type != "vortex" {
		chk.Panic("the gust wavelength needs to be positive. %g is invalid", g.WaveLength)
	}

	uinf := flow.FreestreamVel(0)
	t := float64(timeIter) * o.Sim.Time.Dt
	gustOnly := !o.Sim.Motion.Moving()
	ndim := o.Geom.Ndim()
	gv := make([]float64, ndim)
	gs := make([]float64, ndim)
	der := make([]float64, 3)

	for lev := 0; lev < o.Geom.NumLevels(); lev++ {
		hist := o.Geom.CoordHist(lev)
		for p := 0; p < o.Geom.NumPoints(lev); p++ {

			if gustOnly {
				for i := 0; i < ndim; i++ {
					gv[i] = 0
				}
				o.Geom.SetGridVel(lev, p, gv)
			}

			x := hist.V[p]
			Field(g, o.Vortices, uinf, t, x[0], x[1], gs, der)
			flow.SetWindGust(lev, p, gs, der)

			// the gust enters the equations as negative grid velocity
			old := o.Geom.GridVel(lev, p)
			for i := 0; i < ndim; i++ {
				gv[i] = old[i] - gs[i]
			}
			o.Geom.SetGridVel(lev, p, gv)
		}
	}
	return
}
