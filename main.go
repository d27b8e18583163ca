// Copyright 2016 The Gomph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/cpmech/gomph/drv"
	"github.com/cpmech/gomph/ref"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/gosl/utl"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			if mpi.WorldRank() == 0 {
				io.PfRed("\nERROR: %v", err)
				io.Pf("See location of error below:\n")
				chk.Verbose = true
				for i := 5; i > 3; i-- {
					chk.CallerInfo(i)
				}
			}
		}
		mpi.Stop()
	}()
	mpi.Start()

	// read input parameters
	fnamepath, _ := io.ArgToFilename(0, "", ".sim", true)
	verbose := io.ArgToBool(1, true)
	erasePrev := io.ArgToBool(2, true)
	allowParallel := io.ArgToBool(3, true)
	doprof := io.ArgToInt(4, 0)

	// message
	if mpi.WorldRank() == 0 && verbose {
		io.PfWhite("\nGomph -- Go Multiphysics Iteration Driver\n")
		io.Pf("Copyright 2016 The Gomph Authors. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n")

		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"filename path", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
			"erase previous results", "erasePrev", erasePrev,
			"allow parallel run", "allowParallel", allowParallel,
			"profiling: 0=none 1=CPU 2=MEM", "doprof", doprof,
		))
	}

	// profiling?
	if doprof > 0 {
		defer utl.Prof(doprof == 2, false)()
	}

	// simulation driver
	alias := ""
	driver := drv.NewMain(fnamepath, alias, erasePrev, allowParallel, verbose, 0, ref.NewServices)

	// run simulation
	err := driver.Run()
	if err != nil {
		chk.Panic("Run failed:\n%v", err)
	}
}
