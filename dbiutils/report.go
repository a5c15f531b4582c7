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
// File Name:  report.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"io"
	"time"

	"github.com/gedex/inflector"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CountOf formats a count with thousands separators and a plural noun when needed
func CountOf(count int, noun string) string {

	if count != 1 {
		noun = inflector.Pluralize(noun)
	}

	p := message.NewPrinter(language.English)

	return p.Sprintf("%d %s", count, noun)
}

// PrintDuration prints the -timer summary of an indexing run
func PrintDuration(w io.Writer, info *IndexInfo, elapsed time.Duration) {

	if info == nil {
		return
	}

	p := message.NewPrinter(language.English)

	seconds := elapsed.Seconds()

	p.Fprintf(w, "\nIndexed %s, %s, and %s from %s in %.3f seconds",
		CountOf(info.Entries, "entry"), CountOf(info.Accessions, "accession"),
		CountOf(info.Hits, "hit"), CountOf(info.Files, "file"), seconds)

	if seconds >= 0.001 && info.Entries > 0 {
		rate := int(float64(info.Entries) / seconds)
		p.Fprintf(w, " (%d entries/second)", rate)
	}

	p.Fprintf(w, "\n\n")
}
