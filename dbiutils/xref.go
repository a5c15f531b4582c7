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
// File Name:  xref.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"io"
	"math"
)

// CrossReference walks identifier-sorted entries and identifier-sorted links
// in lockstep. Every entry is passed to onEntry with its 1-based ordinal, and
// every link is passed to onLink carrying the ordinal of the first entry with
// its identifier. A link whose identifier has no entry is fatal.
func CrossReference(ents EntryStream, lnks LinkStream, lg *Logger,
	onEntry func(ord uint32, ent *Entry) error, onLink func(lnk *Link) error) (int, int, error) {

	var (
		curr    *Entry
		prevID  string
		ord     uint32
		linkOrd uint32
		nlinks  int
	)

	// advance reads the next entry, assigning its ordinal
	advance := func() error {

		ent, err := ents.Next()
		if err == io.EOF {
			curr = nil
			return nil
		}
		if err != nil {
			return err
		}
		if ord == math.MaxUint32 {
			return structureError("too many entries for a 4-byte ordinal")
		}

		ord++
		if ord > 1 && ent.ID == prevID {
			lg.Warnf("duplicate entry name %s, accessions refer to the first", ent.ID)
		} else {
			linkOrd = ord
		}
		prevID = ent.ID
		curr = ent

		return onEntry(ord, ent)
	}

	if err := advance(); err != nil {
		return 0, 0, err
	}

	for {
		lnk, err := lnks.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, err
		}

		// entries that precede this link's identifier have no more links
		for curr != nil && curr.ID < lnk.ID {
			if err := advance(); err != nil {
				return 0, 0, err
			}
		}

		// links never resolve to a later duplicate, so compare against the
		// identifier that set linkOrd rather than the current entry
		if ord < 1 || prevID != lnk.ID {
			return 0, 0, structureError("accession %s refers to entry %s, which was not indexed", lnk.Acc, lnk.ID)
		}

		lnk.Ordinal = linkOrd
		if err := onLink(lnk); err != nil {
			return 0, 0, err
		}
		nlinks++
	}

	// remaining entries carry no accessions
	for curr != nil {
		if err := advance(); err != nil {
			return 0, 0, err
		}
	}

	return int(ord), nlinks, nil
}
