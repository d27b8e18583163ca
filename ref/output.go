// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"bytes"

	"github.com/cpmech/gomph/inp"
	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

// saver is implemented by systems that can save their solution into
// the results store
type saver interface {
	SaveDirect(directIter int) error
}

// Output writes history lines and result files and tracks the inner
// convergence of one zone instance
type Output struct {
	sim     *inp.Simulation
	key     sys.ZoneInstanceKey
	solvers map[sys.PhysicsKind]sys.Solver
	order   []sys.PhysicsKind // deterministic iteration order

	histBuf  bytes.Buffer
	conv     bool
	timeIter int
	written  map[string]bool // result files already written
}

// NewOutput builds the output service of one zone instance. The systems
// are monitored in the given order.
func NewOutput(sim *inp.Simulation, key sys.ZoneInstanceKey, solvers map[sys.PhysicsKind]sys.Solver, order []sys.PhysicsKind) (o *Output) {
	o = new(Output)
	o.sim = sim
	o.key = key
	o.solvers = solvers
	o.order = order
	o.written = make(map[string]bool)
	io.Ff(&o.histBuf, "%10s%10s%10s", "TIMEITER", "OUTER", "INNER")
	for _, kind := range order {
		io.Ff(&o.histBuf, "%23s", io.Sf("RES[%v]", kind))
	}
	io.Ff(&o.histBuf, "\n")
	return
}

// WriteHistory appends one line with the residuals of all monitored
// systems and refreshes the convergence flag
func (o *Output) WriteHistory(key sys.ZoneInstanceKey, timeIter, outerIter, innerIter int) {
	o.timeIter = timeIter
	io.Ff(&o.histBuf, "%10d%10d%10d", timeIter, outerIter, innerIter)
	conv := true
	for _, kind := range o.order {
		r := o.solvers[kind].Residual(0)
		io.Ff(&o.histBuf, "%23.15e", r)
		if r > o.sim.Iter.Tol {
			conv = false
		}
	}
	io.Ff(&o.histBuf, "\n")
	o.conv = conv
	if o.sim.Iter.ShowR && (!mpi.IsOn() || mpi.WorldRank() == 0) {
		io.Pf("%v: it=%d/%d/%d residual=%23.15e\n", key, timeIter, outerIter, innerIter, o.solvers[o.order[0]].Residual(0))
	}
}

// WriteResults saves the solutions of the monitored systems into the
// results store and flushes the history file. Repeated calls for the
// same iteration are skipped unless force is given, so the commit phase
// does not duplicate the writes already done while solving.
func (o *Output) WriteResults(key sys.ZoneInstanceKey, innerIter int, force bool) (wrote bool, err error) {
	id := io.Sf("%v-%d-%d", key, o.timeIter, innerIter)
	if o.written[id] && !force {
		return
	}
	if mpi.IsOn() && mpi.WorldRank() != 0 {
		o.written[id] = true
		return true, nil
	}
	for _, kind := range o.order {
		if s, ok := o.solvers[kind].(saver); ok {
			err = s.SaveDirect(o.timeIter)
			if err != nil {
				return
			}
		}
	}
	io.WriteStringToFileD(o.sim.DirOut, io.Sf("history-%v.txt", key), o.histBuf.String())
	o.written[id] = true
	return true, nil
}

// Convergence returns the inner convergence flag of the last history line
func (o *Output) Convergence() bool { return o.conv }

// SetConvergence overrides the inner convergence flag
func (o *Output) SetConvergence(flag bool) { o.conv = flag }

// PrintConvergenceSummary prints the final residuals of all monitored systems
func (o *Output) PrintConvergenceSummary() {
	if mpi.IsOn() && mpi.WorldRank() != 0 {
		return
	}
	io.Pf("%v: convergence summary:\n", o.key)
	for _, kind := range o.order {
		io.Pf("  %-10v residual = %23.15e\n", kind, o.solvers[kind].Residual(0))
	}
}

var _ sys.Output = (*Output)(nil)
