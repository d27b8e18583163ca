// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sys

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// History holds a per-point field together with its time levels for
// dual time-stepping. V is the working value of the current physical
// step; N and N1 are the converged values at steps n and n-1; Old is a
// scratch level used when re-ordering the levels after a restart.
// All level transfers copy values, never slice headers.
type History struct {
	V   [][]float64 // current values; one slice per point
	N   [][]float64 // values at time n
	N1  [][]float64 // values at time n-1
	Old [][]float64 // scratch level
}

// NewHistory allocates a history with npts points and nvars variables per point
func NewHistory(npts, nvars int) (o *History) {
	o = new(History)
	alloc := func() (w [][]float64) {
		w = make([][]float64, npts)
		for p := 0; p < npts; p++ {
			w[p] = make([]float64, nvars)
		}
		return
	}
	o.V = alloc()
	o.N = alloc()
	o.N1 = alloc()
	o.Old = alloc()
	return
}

// Npts returns the number of points
func (o *History) Npts() int { return len(o.V) }

// Zero fills all levels with zeros
func (o *History) Zero() {
	for p := 0; p < len(o.V); p++ {
		la.Vector(o.V[p]).Fill(0)
		la.Vector(o.N[p]).Fill(0)
		la.Vector(o.N1[p]).Fill(0)
		la.Vector(o.Old[p]).Fill(0)
	}
}

// PushN copies the current values into level n
func (o *History) PushN() {
	for p := 0; p < len(o.V); p++ {
		copy(o.N[p], o.V[p])
	}
}

// PushN1 copies level n into level n-1
func (o *History) PushN1() {
	for p := 0; p < len(o.V); p++ {
		copy(o.N1[p], o.N[p])
	}
}

// Shift rotates the time levels after a converged physical step.
// With secondOrder, level n is first pushed to n-1; the current values
// are then pushed to level n. The current values themselves are kept.
func (o *History) Shift(secondOrder bool) {
	if secondOrder {
		o.PushN1()
	}
	o.PushN()
}

// Stash copies the current values into the scratch level
func (o *History) Stash() {
	for p := 0; p < len(o.V); p++ {
		copy(o.Old[p], o.V[p])
	}
}

// VfromN copies level n into the current values
func (o *History) VfromN() {
	for p := 0; p < len(o.V); p++ {
		copy(o.V[p], o.N[p])
	}
}

// NfromN1 copies level n-1 into level n
func (o *History) NfromN1() {
	for p := 0; p < len(o.V); p++ {
		copy(o.N[p], o.N1[p])
	}
}

// NfromOld copies the scratch level into level n
func (o *History) NfromOld() {
	for p := 0; p < len(o.V); p++ {
		copy(o.N[p], o.Old[p])
	}
}

// N1fromOld copies the scratch level into level n-1
func (o *History) N1fromOld() {
	for p := 0; p < len(o.V); p++ {
		copy(o.N1[p], o.Old[p])
	}
}

// Set copies vals into the current values of point p
func (o *History) Set(p int, vals []float64) {
	if len(vals) != len(o.V[p]) {
		chk.Panic("history: cannot set point %d: wrong number of variables: %d != %d", p, len(vals), len(o.V[p]))
	}
	copy(o.V[p], vals)
}
