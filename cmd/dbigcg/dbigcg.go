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
// File Name:  dbigcg.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package main

import (
	"fmt"
	"os"
	"runtime"
	"seqdbi/dbiutils"
	"strconv"
	"strings"
	"time"
)

const dbigcgVersion = "1.4"

const dbigcgHelp = `
Database Definition

  -dbname        Database name (at most 20 characters)
  -release       Release tag (at most 10 characters)
  -date          Release date as DD/MM/YY [today]

Source Files

  -directory     Database directory [.]
  -filenames     File name pattern [*.seq, or *.dat for -layout flat]
  -exclude       Pattern of file names to skip
  -idformat      Annotation format: embl, swiss, genbank, pir [embl]
  -layout        gcg for paired .ref/.seq files, flat for single files [gcg]

Index Output

  -indexdir      Index directory [.]
  -maxid         Maximum identifier width [15]
  -maxacc        Maximum accession width [15]
  -bigendian     Write integers in big-endian order

Sorting

  -bulk          memory, external, or auto [memory]
  -sort          internal or command [internal]
  -sortcmd       External sort program [sort]
  -tempdir       Directory for intermediate files [index directory]
  -chunk         Lines per sorted chunk of resolved accessions
  -gzip          Compress intermediate files
  -keep          Retain intermediate files

Settings File

  -config        TOML file of settings, applied in argument order so
                 that later arguments override it and it overrides earlier ones

Miscellaneous

  -progress      Show progress bar
  -quiet         Suppress warnings
  -timer         Report processing duration and rate
  -stats         Show machine and tuning values
  -proc          Number of processors
  -serv          Number of concurrent sorts
  -version       Print version number
  -help          Print this document

Environment

  SEQDBI_GOGC    Garbage collection percentage
  SEQDBI_SERV    Number of concurrent sorts

Examples

  dbigcg -dbname embl -release 141 -directory /data/embl -indexdir /data/index

  dbigcg -dbname pir -idformat pir -layout flat -filenames "*.pir" -bulk external -gzip

`

func envNumber(name string) int {

	str := os.Getenv(name)
	if str == "" {
		return 0
	}

	value, err := strconv.Atoi(str)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %s value '%s' is not an integer\n", name, str)
		os.Exit(1)
	}

	return value
}

func main() {

	// skip past executable name
	args := os.Args[1:]

	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "\nERROR: No command-line arguments supplied to dbigcg\n")
		os.Exit(1)
	}

	ncpu := runtime.NumCPU()
	if ncpu < 1 {
		ncpu = 1
	}

	// performance arguments, environment variables provide defaults
	numProcs := 0
	numServe := envNumber("SEQDBI_SERV")
	goGc := envNumber("SEQDBI_GOGC")

	// debugging
	stts := false
	timr := false
	quiet := false

	cfg := dbiutils.DefaultConfig()

	inSwitch := true

	// get arguments in any order
	for {

		inSwitch = true

		switch args[0] {

		case "-version":
			fmt.Printf("%s\n", dbigcgVersion)
			return
		case "-help", "--help":
			fmt.Printf("dbigcg %s\n", dbigcgVersion)
			fmt.Fprintf(os.Stdout, "%s", dbigcgHelp)
			return

		// settings file, applied where it appears among the other arguments
		case "-config":
			if err := cfg.Load(dbiutils.GetStringArg(args, "Configuration file")); err != nil {
				fmt.Fprintf(os.Stderr, "\nERROR: %s\n", err.Error())
				os.Exit(1)
			}
			args = args[1:]

		// database definition
		case "-dbname":
			cfg.DbName = dbiutils.GetStringArg(args, "Database name")
			args = args[1:]
		case "-release":
			cfg.Release = dbiutils.GetStringArg(args, "Release tag")
			args = args[1:]
		case "-date":
			cfg.Date = dbiutils.GetStringArg(args, "Release date")
			args = args[1:]

		// source files
		case "-directory", "-dir":
			cfg.Directory = dbiutils.GetStringArg(args, "Database directory")
			args = args[1:]
		case "-filenames", "-files":
			cfg.Filenames = dbiutils.GetStringArg(args, "File name pattern")
			args = args[1:]
		case "-exclude":
			cfg.Exclude = dbiutils.GetStringArg(args, "Exclusion pattern")
			args = args[1:]
		case "-idformat", "-format":
			cfg.Dialect = dbiutils.GetStringArg(args, "Database format")
			args = args[1:]
		case "-layout":
			cfg.Layout = strings.ToLower(dbiutils.GetStringArg(args, "File layout"))
			args = args[1:]
		case "-flat":
			cfg.Layout = dbiutils.LAYOUTFLAT

		// index output
		case "-indexdir", "-index":
			cfg.IndexDir = dbiutils.GetStringArg(args, "Index directory")
			args = args[1:]
		case "-maxid":
			cfg.MaxIDLen = dbiutils.GetNumericArg(args, "Maximum identifier width", 15, 1, 255)
			args = args[1:]
		case "-maxacc":
			cfg.MaxAccLen = dbiutils.GetNumericArg(args, "Maximum accession width", 15, 1, 255)
			args = args[1:]
		case "-bigendian":
			cfg.BigEndian = true

		// sorting
		case "-bulk":
			cfg.Bulk = dbiutils.GetStringArg(args, "Bulk mode")
			args = args[1:]
		case "-external":
			cfg.Bulk = "external"
		case "-sort":
			cfg.Sorter = dbiutils.GetStringArg(args, "Sort strategy")
			args = args[1:]
		case "-sortcmd":
			cfg.Sorter = "command"
			cfg.SortCmd = dbiutils.GetStringArg(args, "Sort program")
			args = args[1:]
		case "-tempdir":
			cfg.TempDir = dbiutils.GetStringArg(args, "Intermediate file directory")
			args = args[1:]
		case "-chunk":
			cfg.Chunk = dbiutils.GetNumericArg(args, "Chunk size", 1<<20, 1, 1<<30)
			args = args[1:]
		case "-gzip":
			cfg.Compress = true
		case "-keep", "-nocleanup":
			cfg.Keep = true

		// performance tuning flags
		case "-proc":
			numProcs = dbiutils.GetNumericArg(args, "Number of processors", ncpu, 1, ncpu)
			args = args[1:]
		case "-serv":
			numServe = dbiutils.GetNumericArg(args, "Concurrent sort count", 0, 1, 128)
			args = args[1:]
		case "-gogc":
			goGc = dbiutils.GetNumericArg(args, "Garbage collection percentage", 0, 50, 1000)
			args = args[1:]

		// debugging flags
		case "-progress":
			cfg.Progress = true
		case "-quiet", "-silent":
			quiet = true
		case "-stats", "-stat":
			stts = true
		case "-timer":
			timr = true

		default:
			// if not any of the controls, set flag to break out of for loop
			inSwitch = false
		}

		if !inSwitch {
			break
		}

		// skip past argument
		args = args[1:]

		if len(args) < 1 {
			break
		}
	}

	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "\nERROR: Unrecognized argument '%s'\n", args[0])
		os.Exit(1)
	}

	dbiutils.SetTunings(numProcs, numServe, 0, goGc)

	// -stats prints number of CPUs and performance tuning values
	if stts {
		dbiutils.PrintStats(os.Stderr)
		if cfg.DbName == "" {
			return
		}
	}

	lg := dbiutils.NewLogger(os.Stderr, quiet)

	startTime := time.Now()

	info, err := dbiutils.BuildIndex(cfg, lg)
	if err != nil {
		lg.Errorf("%s", err.Error())
		os.Exit(1)
	}

	if warn := lg.Warnings(); warn > 0 && !quiet {
		fmt.Fprintf(os.Stderr, "\n%s\n", dbiutils.CountOf(warn, "warning"))
	}

	if timr {
		dbiutils.PrintDuration(os.Stderr, info, time.Since(startTime))
	}
}
