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
// File Name:  dbilook.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"seqdbi/dbiutils"
	"strings"
)

const dbilookHelp = `
Query Index

  -indexdir      Index directory [.]
  -id            Entry name to find
  -acc           Accession to find
  -info          Print index headers and manifest

Names given after the flags, or one per line on stdin with -stdin,
are looked up as entry names, then as accessions.

`

func main() {

	// skip past executable name
	args := os.Args[1:]

	dir := "."
	info := false
	stdn := false

	var ids []string
	var accs []string

	for len(args) > 0 {

		switch args[0] {
		case "-help", "--help":
			fmt.Fprintf(os.Stdout, "%s", dbilookHelp)
			return
		case "-indexdir", "-index":
			dir = dbiutils.GetStringArg(args, "Index directory")
			args = args[1:]
		case "-id":
			ids = append(ids, dbiutils.GetStringArg(args, "Entry name"))
			args = args[1:]
		case "-acc":
			accs = append(accs, dbiutils.GetStringArg(args, "Accession"))
			args = args[1:]
		case "-info":
			info = true
		case "-stdin":
			stdn = true
		default:
			if strings.HasPrefix(args[0], "-") {
				fmt.Fprintf(os.Stderr, "\nERROR: Unrecognized argument '%s'\n", args[0])
				os.Exit(1)
			}
			ids = append(ids, args[0])
		}

		args = args[1:]
	}

	ix, err := dbiutils.OpenIndex(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %s\n", err.Error())
		os.Exit(1)
	}

	defer ix.Close()

	wrtr := bufio.NewWriter(os.Stdout)

	// flush results found so far before reporting a fatal error
	fail := func(err error) {
		wrtr.Flush()
		fmt.Fprintf(os.Stderr, "\nERROR: %s\n", err.Error())
		os.Exit(1)
	}

	if info {
		printInfo(wrtr, ix)
	}

	lk := &lookup{ix: ix, wrtr: wrtr}

	for _, id := range ids {
		found, err := lk.byName(id, true)
		if err != nil {
			fail(err)
		}
		if !found {
			fmt.Fprintf(os.Stderr, "%s not found\n", id)
		}
	}

	for _, acc := range accs {
		found, err := lk.byAccession(acc)
		if err != nil {
			fail(err)
		}
		if !found {
			fmt.Fprintf(os.Stderr, "%s not found\n", acc)
		}
	}

	if stdn {
		scanr := bufio.NewScanner(os.Stdin)
		for scanr.Scan() {
			str := strings.TrimSpace(scanr.Text())
			if str == "" {
				continue
			}
			found, err := lk.byName(str, true)
			if err != nil {
				fail(err)
			}
			if !found {
				fmt.Fprintf(os.Stderr, "%s not found\n", str)
			}
		}
	}

	wrtr.Flush()
}

// lookup prints one tab-delimited line per matching entry
type lookup struct {
	ix   *dbiutils.Index
	wrtr io.Writer
}

func (lk *lookup) printEntry(ord uint32, ent *dbiutils.Entry, label string) {

	fmt.Fprintf(lk.wrtr, "%s\t%s\t%d\t%d\t%d\t%s\n",
		label, ent.ID, ord, ent.RefOffset, ent.SeqOffset, lk.ix.DivisionName(ent.FileNum))
}

// byAccession prints every entry carrying acc
func (lk *lookup) byAccession(acc string) (bool, error) {

	ords, err := lk.ix.FindAccession(acc)
	if err != nil {
		return false, err
	}

	for _, ord := range ords {
		ent, err := lk.ix.EntryAt(ord)
		if err != nil {
			return false, err
		}
		lk.printEntry(ord, ent, acc)
	}

	return len(ords) > 0, nil
}

// byName prints the entry named id, trying it as an accession if fallback is set
func (lk *lookup) byName(id string, fallback bool) (bool, error) {

	ent, ord, err := lk.ix.FindEntry(id)
	if err != nil {
		return false, err
	}
	if ent != nil {
		lk.printEntry(ord, ent, id)
		return true, nil
	}
	if !fallback {
		return false, nil
	}

	return lk.byAccession(id)
}

func printInfo(wrtr *bufio.Writer, ix *dbiutils.Index) {

	fmt.Fprintf(wrtr, "Order\t%s\n", dbiutils.OrderName(ix.Order()))

	for _, name := range dbiutils.IndexFiles {
		hdr := ix.Header(name)
		if hdr == nil {
			continue
		}
		fmt.Fprintf(wrtr, "%s\t%s\t%s\t%02d/%02d/%02d\t%d records\t%d bytes wide\t%d bytes\n",
			name, hdr.DbName, hdr.Release, hdr.Date[3], hdr.Date[2], hdr.Date[1],
			hdr.RecCount, hdr.RecWidth, hdr.FileSize)
	}

	if ix.Info != nil {
		fmt.Fprintf(wrtr, "Format\t%s\t%s\n", ix.Info.Dialect, ix.Info.Layout)
		fmt.Fprintf(wrtr, "Counts\t%s\t%s\t%s\n", dbiutils.CountOf(ix.Info.Entries, "entry"),
			dbiutils.CountOf(ix.Info.Accessions, "accession"), dbiutils.CountOf(ix.Info.Hits, "hit"))
	}
}
