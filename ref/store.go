// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ref

import (
	"os"
	"path/filepath"

	"github.com/cpmech/gomph/sys"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

// Record is the saved state of one direct iteration of one system
type Record struct {
	Kind   string      // physics kind
	Iter   int         // direct iteration number
	Sol    [][]float64 // level 0 solution
	Coords [][]float64 // level 0 coordinates
}

// Store saves and loads the per-iteration solutions the unsteady
// adjoint reads back. Records are kept in memory and mirrored to disk
// so a later run can restart from them.
type Store struct {
	DirOut  string // output directory
	Key     string // simulation key
	EncType string // encoder type; "gob" or "json"
	records map[string]*Record
}

// NewStore returns a store writing under dirout
func NewStore(dirout, key, enctype string) *Store {
	return &Store{DirOut: dirout, Key: key, EncType: enctype, records: make(map[string]*Record)}
}

func (o *Store) fnkey(kind sys.PhysicsKind, iter int) string {
	return io.Sf("%s-%v-%04d.res", o.Key, kind, iter)
}

// Save stores the solution and coordinates of one direct iteration
func (o *Store) Save(kind sys.PhysicsKind, iter int, sol, coords [][]float64) (err error) {

	r := &Record{Kind: kind.String(), Iter: iter}
	r.Sol = cloneMat(sol)
	r.Coords = cloneMat(coords)
	fn := o.fnkey(kind, iter)
	o.records[fn] = r

	fil, err := os.Create(filepath.Join(o.DirOut, fn))
	if err != nil {
		return chk.Err("cannot create results file:\n%v", err)
	}
	defer fil.Close()
	enc := utl.NewEncoder(fil, o.EncType)
	err = enc.Encode(r)
	if err != nil {
		return chk.Err("cannot encode record %q:\n%v", fn, err)
	}
	return
}

// Load returns the record of one direct iteration, reading the results
// file when the record is not in memory
func (o *Store) Load(kind sys.PhysicsKind, iter int) (r *Record, err error) {

	fn := o.fnkey(kind, iter)
	if r, ok := o.records[fn]; ok {
		return r, nil
	}

	fil, err := os.Open(filepath.Join(o.DirOut, fn))
	if err != nil {
		return nil, chk.Err("cannot find results of direct iteration %d (%v)", iter, kind)
	}
	defer fil.Close()
	r = new(Record)
	dec := utl.NewDecoder(fil, o.EncType)
	err = dec.Decode(r)
	if err != nil {
		return nil, chk.Err("cannot decode record %q:\n%v", fn, err)
	}
	o.records[fn] = r
	return
}

func cloneMat(a [][]float64) (b [][]float64) {
	b = make([][]float64, len(a))
	for i := range a {
		b[i] = make([]float64, len(a[i]))
		copy(b[i], a[i])
	}
	return
}
