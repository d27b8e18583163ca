// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package tape implements a scalar reverse-mode differentiation tape.
// Physics systems register independent variables, record elementary
// operations with their partial derivatives while the tape is active,
// register dependent variables, and finally evaluate the adjoints with
// a single reverse sweep.
package tape

import "github.com/cpmech/gosl/chk"

// op is one recorded elementary operation
type op struct {
	out  int       // slot of the result
	in   []int     // slots of the arguments
	dfdx []float64 // partial derivatives w.r.t the arguments
}

// Tape records elementary operations and computes adjoints
type Tape struct {
	vals      []float64 // values per slot
	adjs      []float64 // adjoints per slot
	ops       []op      // recorded operations
	inputs    []int     // slots of registered independent variables
	outputs   []int     // slots of registered dependent variables
	recording bool      // operations are being recorded
	passive   int       // depth of passive regions
	gen       int       // recording generation; incremented by Reset
}

// New returns an empty tape
func New() *Tape {
	return new(Tape)
}

// StartRecording activates the tape. The tape must have been reset or
// stopped before; nested recordings indicate a driver bug and panic.
func (o *Tape) StartRecording() {
	if o.recording {
		chk.Panic("tape: cannot start recording: tape is active already")
	}
	o.recording = true
}

// StopRecording deactivates the tape, keeping the recorded operations
func (o *Tape) StopRecording() {
	if !o.recording {
		chk.Panic("tape: cannot stop recording: tape is not active")
	}
	o.recording = false
}

// Recording tells whether operations are currently being recorded
func (o *Tape) Recording() bool {
	return o.recording && o.passive == 0
}

// Reset discards all recorded operations, slots and registrations.
// The tape must not be active.
func (o *Tape) Reset() {
	if o.recording {
		chk.Panic("tape: cannot reset an active tape")
	}
	o.vals = o.vals[:0]
	o.adjs = o.adjs[:0]
	o.ops = o.ops[:0]
	o.inputs = o.inputs[:0]
	o.outputs = o.outputs[:0]
	o.passive = 0
	o.gen++
}

// Generation returns the recording generation. Slots registered before
// the last Reset belong to an older generation and must not be used.
func (o *Tape) Generation() int { return o.gen }

// BeginPassive opens a region whose operations are not recorded
func (o *Tape) BeginPassive() { o.passive++ }

// EndPassive closes the innermost passive region
func (o *Tape) EndPassive() {
	if o.passive == 0 {
		chk.Panic("tape: cannot end passive region: none is open")
	}
	o.passive--
}

// newSlot appends a slot holding val
func (o *Tape) newSlot(val float64) int {
	o.vals = append(o.vals, val)
	o.adjs = append(o.adjs, 0)
	return len(o.vals) - 1
}

// Input registers one independent variable and returns its slot.
// Inputs may only be registered while the tape is active.
func (o *Tape) Input(val float64) (slot int) {
	if !o.Recording() {
		chk.Panic("tape: cannot register input: tape is not active")
	}
	slot = o.newSlot(val)
	o.inputs = append(o.inputs, slot)
	return
}

// Output registers one dependent variable by its slot
func (o *Tape) Output(slot int) {
	if slot < 0 || slot >= len(o.vals) {
		chk.Panic("tape: cannot register output: slot %d is out of range", slot)
	}
	o.outputs = append(o.outputs, slot)
}

// Const creates a slot for a value with no dependencies
func (o *Tape) Const(val float64) int {
	return o.newSlot(val)
}

// Op records one elementary operation with result val, argument slots
// in and partial derivatives dfdx, and returns the slot of the result.
// Outside an active recording the value is stored but no operation is
// recorded, so the result behaves as a constant.
func (o *Tape) Op(val float64, in []int, dfdx []float64) (slot int) {
	if len(in) != len(dfdx) {
		chk.Panic("tape: number of arguments and partials do not match: %d != %d", len(in), len(dfdx))
	}
	slot = o.newSlot(val)
	if !o.Recording() {
		return
	}
	ins := make([]int, len(in))
	der := make([]float64, len(dfdx))
	copy(ins, in)
	copy(der, dfdx)
	o.ops = append(o.ops, op{out: slot, in: ins, dfdx: der})
	return
}

// ClearAdjoints zeroes all adjoints, keeping the recorded operations
func (o *Tape) ClearAdjoints() {
	for i := range o.adjs {
		o.adjs[i] = 0
	}
}

// SeedOutput adds seed to the adjoint of the i-th registered output
func (o *Tape) SeedOutput(i int, seed float64) {
	if i < 0 || i >= len(o.outputs) {
		chk.Panic("tape: cannot seed output %d: only %d outputs are registered", i, len(o.outputs))
	}
	o.adjs[o.outputs[i]] += seed
}

// ComputeAdjoint runs the reverse sweep, propagating the seeded output
// adjoints back to the registered inputs. The tape must not be active.
func (o *Tape) ComputeAdjoint() {
	if o.recording {
		chk.Panic("tape: cannot evaluate an active tape")
	}
	for i := len(o.ops) - 1; i >= 0; i-- {
		a := o.adjs[o.ops[i].out]
		if a == 0 {
			continue
		}
		for j, slot := range o.ops[i].in {
			o.adjs[slot] += o.ops[i].dfdx[j] * a
		}
	}
}

// Adjoint returns the adjoint stored in slot
func (o *Tape) Adjoint(slot int) float64 {
	if slot < 0 || slot >= len(o.adjs) {
		chk.Panic("tape: cannot get adjoint: slot %d is out of range", slot)
	}
	return o.adjs[slot]
}

// Value returns the value stored in slot
func (o *Tape) Value(slot int) float64 {
	if slot < 0 || slot >= len(o.vals) {
		chk.Panic("tape: cannot get value: slot %d is out of range", slot)
	}
	return o.vals[slot]
}

// NumInputs returns the number of registered independent variables
func (o *Tape) NumInputs() int { return len(o.inputs) }

// NumOutputs returns the number of registered dependent variables
func (o *Tape) NumOutputs() int { return len(o.outputs) }

// NumOps returns the number of recorded operations
func (o *Tape) NumOps() int { return len(o.ops) }

// CheckInputs verifies that exactly n independent variables are
// registered. Extraction code calls this before pulling adjoints, since
// a mismatch means the recording pass diverged from the direct pass.
func (o *Tape) CheckInputs(n int) {
	if len(o.inputs) != n {
		chk.Panic("tape: inconsistent recording: %d inputs registered but %d expected", len(o.inputs), n)
	}
}
