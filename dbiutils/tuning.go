// ===========================================================================
//
//                            PUBLIC DOMAIN NOTICE
//            National Center for Biotechnology Information (NCBI)
//
//  This software/database is a "United States Government Work" under the
//  terms of the United States Copyright Act. It was written as part of
//  the author's official duties as a United States Government employee and
//  thus cannot be copyrighted. This software/database is freely available
//  to the public for use. The National Library of Medicine and the U.S.
//  Government do not place any restriction on its use or reproduction.
//  We would, however, appreciate having the NCBI and the author cited in
//  any work or product based on this material.
//
//  Although all reasonable efforts have been taken to ensure the accuracy
//  and reliability of the software and data, the NLM and the U.S.
//  Government do not and cannot warrant the performance or results that
//  may be obtained by using this software or data. The NLM and the U.S.
//  Government disclaim all warranties, express or implied, including
//  warranties of performance, merchantability or fitness for any particular
//  purpose.
//
// ===========================================================================
//
// File Name:  tuning.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
)

// concurrency parameters, set once by SetTunings
var (
	numProcs  int
	numServe  int
	chanDepth int
	goGc      int
)

// SetTunings adjusts processor, sort worker, and channel settings, zero meaning default
func SetTunings(nmProcs, nmServe, chDepth, gcPercent int) {

	ncpu := runtime.NumCPU()
	if ncpu < 1 {
		ncpu = 1
	}

	numProcs = nmProcs
	if numProcs < 1 {
		// external sorts are disk bound, one per physical core is plenty
		numProcs = ncpu
		if cpuid.CPU.ThreadsPerCore > 1 {
			cores := ncpu / cpuid.CPU.ThreadsPerCore
			if cores > 0 {
				numProcs = cores
			}
		}
	}
	if numProcs > ncpu {
		numProcs = ncpu
	}

	// allow simultaneous threads for multiplexed goroutines
	runtime.GOMAXPROCS(numProcs)

	numServe = nmServe
	if numServe < 1 {
		numServe = numProcs
	}
	if numServe > 128 {
		numServe = 128
	}

	chanDepth = chDepth
	if chanDepth < 1 {
		chanDepth = 16
	}

	goGc = gcPercent
	if goGc >= 50 && goGc <= 1000 {
		debug.SetGCPercent(goGc)
	}
}

// NumServe is the number of concurrent per-file sorts
func NumServe() int {

	if numServe < 1 {
		SetTunings(0, 0, 0, 0)
	}

	return numServe
}

// ChanDepth is the buffer size of merge channels
func ChanDepth() int {

	if chanDepth < 1 {
		SetTunings(0, 0, 0, 0)
	}

	return chanDepth
}

// PrintStats prints machine and tuning values for -stats
func PrintStats(w io.Writer) {

	ncpu := runtime.NumCPU()
	tpc := cpuid.CPU.ThreadsPerCore
	if tpc < 1 {
		tpc = 1
	}

	fmt.Fprintf(w, "Core %d\n", ncpu/tpc)
	fmt.Fprintf(w, "Thrd %d\n", ncpu)
	fmt.Fprintf(w, "Mmry %d\n", memory.TotalMemory()/(1024*1024*1024))

	fmt.Fprintf(w, "Proc %d\n", numProcs)
	fmt.Fprintf(w, "Serv %d\n", NumServe())
	fmt.Fprintf(w, "Chan %d\n", ChanDepth())
	fmt.Fprintf(w, "Gogc %d\n", goGc)

	fmt.Fprintf(w, "\n")
}

// ResolveBulkMode turns AUTO into MEMORY or EXTERNAL, a quarter of physical
// memory being the limit for annotation kept in pointer arrays
func ResolveBulkMode(mode BulkMode, sourceBytes int64) BulkMode {

	if mode != AUTO {
		return mode
	}

	total := memory.TotalMemory()
	if total == 0 {
		return EXTERNAL
	}

	if uint64(sourceBytes) > total/4 {
		return EXTERNAL
	}

	return MEMORY
}
