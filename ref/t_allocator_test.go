// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"testing"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
)

func Test_alloc01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("alloc01. services of a deforming adjoint fluid zone")

	sim := inp.ReadSim("data/dafluid.sim", "", true, 0)
	svc, err := NewServices(sim, sys.ZoneInstanceKey{Zone: 0, Inst: 0})
	if err != nil {
		tst.Errorf("cannot allocate services:\n%v", err)
		return
	}

	// direct chain plus the adjoint wrapper of every direct system,
	// the deforming mesh included
	for _, kind := range []sys.PhysicsKind{sys.Flow, sys.Turb, sys.Mesh,
		sys.AdjFlow, sys.AdjTurb, sys.AdjMesh} {
		if _, ok := svc.Solvers[kind]; !ok {
			tst.Errorf("the %v system is missing", kind)
			return
		}
		if _, ok := svc.Integs[kind]; !ok {
			tst.Errorf("the %v integration is missing", kind)
			return
		}
	}

	// each adjoint wraps its direct counterpart
	for adj, dir := range map[sys.PhysicsKind]sys.PhysicsKind{
		sys.AdjFlow: sys.Flow, sys.AdjTurb: sys.Turb, sys.AdjMesh: sys.Mesh} {
		a, ok := svc.Solvers[adj].(sys.Adjoint)
		if !ok {
			tst.Errorf("the %v system has no adjoint capabilities", adj)
			return
		}
		if a.Direct().Kind() != dir {
			tst.Errorf("the %v system wraps %v instead of %v", adj, a.Direct().Kind(), dir)
			return
		}
	}

	// deforming grids carry the surface mover and the volume deformer
	if svc.Surf == nil || svc.Vol == nil {
		tst.Errorf("the mesh motion services are missing")
		return
	}
}
