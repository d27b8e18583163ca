// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drv

import (
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/io"
)

// histOp applies one history operation to all solution histories of
// the given systems on all grid levels, and to the coordinate
// histories when the grid is moving
func histOp(ctx *Context, kinds []sys.PhysicsKind, op func(h *sys.History)) {
	for _, kind := range kinds {
		s := ctx.Solver(kind)
		for lev := 0; lev < ctx.Cpl.NLevels; lev++ {
			op(s.Hist(lev))
		}
	}
	if ctx.Cpl.MovingGrid {
		for lev := 0; lev < ctx.Cpl.NLevels; lev++ {
			op(ctx.Geom.CoordHist(lev))
		}
	}
}

// loadDirectStep loads the direct solution of one iteration into the
// working arrays of the given systems. A negative iteration means the
// requested solution lies before the beginning of the direct run; the
// default (freestream) solution is imposed instead of reading a file.
// The first kind is the primary system; only its restart updates the
// geometry.
func loadDirectStep(ctx *Context, kinds []sys.PhysicsKind, directIter int) (err error) {

	if directIter >= 0 {
		if ctx.ShowMsg && ctx.Key.Zone == 0 {
			io.Pf(" loading direct solution from iteration %d\n", directIter)
		}
		for i, kind := range kinds {
			err = ctx.Solver(kind).LoadRestart(directIter, i == 0)
			if err != nil {
				return
			}
		}
		return
	}

	// there is no solution file for this iteration
	if ctx.ShowMsg && ctx.Key.Zone == 0 {
		io.Pf(" setting freestream conditions at direct iteration %d\n", directIter)
	}
	for lev := 0; lev < ctx.Cpl.NLevels; lev++ {
		for i, kind := range kinds {
			s := ctx.Solver(kind)
			s.SetDefaultSolution(lev)
			if i == 0 {
				err = s.Preprocessing(lev)
			} else {
				err = s.Postprocessing(lev)
			}
			if err != nil {
				return
			}
		}
	}
	return
}

// unsteadyRestart loads the direct solutions that the adjoint of the
// current physical step needs and orders them into the time levels.
// The direct run marched forward; the adjoint marches backward, so the
// direct iteration is counted down from the total number of direct
// steps. The first kind in kinds is the primary system.
func unsteadyRestart(ctx *Context, kinds []sys.PhysicsKind) (err error) {

	directIter := ctx.Sim.Time.UnstAdjIter - ctx.TimeIter - 2

	// for dual time-stepping load the already converged solution at step n
	if ctx.Cpl.Dual() {
		directIter++
	}

	if ctx.TimeIter == 0 {

		if ctx.Cpl.Dual2 {

			// load the solution at step n-2 and push it back
			err = loadDirectStep(ctx, kinds, directIter-2)
			if err != nil {
				return
			}
			histOp(ctx, kinds, func(h *sys.History) { h.PushN(); h.PushN1() })
		}

		if ctx.Cpl.Dual() {

			// load the solution at step n-1 and push it back
			err = loadDirectStep(ctx, kinds, directIter-1)
			if err != nil {
				return
			}
			histOp(ctx, kinds, func(h *sys.History) { h.PushN() })
		}

		// load the solution at step n
		err = loadDirectStep(ctx, kinds, directIter)
		if err != nil {
			return
		}

		if ctx.Cpl.DeformMesh {
			err = ctx.Solver(sys.Mesh).LoadRestart(directIter, true)
			if err != nil {
				return
			}
		}

	} else if ctx.Cpl.Dual() {

		// the working arrays already hold the solutions of the previous
		// adjoint step; only one new direct solution must be read and the
		// levels rotated backward by one

		if ctx.Cpl.DeformMesh {
			err = ctx.Solver(sys.Mesh).LoadRestart(directIter, true)
			if err != nil {
				return
			}
		}

		// load step n-1 (first order) or n-2 (second order)
		if ctx.Cpl.Dual1 {
			err = loadDirectStep(ctx, kinds, directIter-1)
		} else {
			err = loadDirectStep(ctx, kinds, directIter-2)
		}
		if err != nil {
			return
		}

		// stash the freshly loaded solution and move step n into the
		// working arrays
		histOp(ctx, kinds, func(h *sys.History) { h.Stash(); h.VfromN() })

		if ctx.Cpl.Dual1 {
			// step n becomes the loaded solution
			histOp(ctx, kinds, func(h *sys.History) { h.NfromOld() })
		} else {
			// step n becomes n-1; step n-1 becomes the loaded solution
			histOp(ctx, kinds, func(h *sys.History) { h.NfromN1(); h.N1fromOld() })
		}
	}

	// grid velocities via finite differences of the coordinates
	if ctx.Cpl.MovingGrid {
		ctx.Geom.SetGridVelFD(ctx.Sim.Time.Dt, ctx.Cpl.Dual2)
	}
	return
}
