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
// File Name:  build.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"io"
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// newProgress shows one bar tick per scanned source file
func newProgress(total int) (*mpb.Progress, *mpb.Bar) {

	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))

	bar := pbs.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("scanned files: ", decor.WC{W: len("scanned files: "), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 10),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)

	return pbs, bar
}

// BuildIndex runs scanner, collector, sort, cross-reference, and index
// writer over every source file named by cfg. Either all four index files
// and the manifest are replaced, or none of them are.
func BuildIndex(cfg *Config, lg *Logger) (*IndexInfo, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dlct, err := LookupDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	date, err := ParseReleaseDate(cfg.Date)
	if err != nil {
		return nil, err
	}

	srcs, err := ListSources(cfg)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, src := range srcs {
		total += src.Size
	}

	mode, err := ParseBulkMode(cfg.Bulk)
	if err != nil {
		return nil, err
	}
	mode = ResolveBulkMode(mode, total)

	bulk, err := NewBulk(mode, cfg, lg)
	if err != nil {
		return nil, err
	}

	// remove intermediate files on every exit path
	defer bulk.Cleanup()

	coll := NewCollector(bulk, lg)

	var (
		pbs *mpb.Progress
		bar *mpb.Bar
	)
	if cfg.Progress {
		pbs, bar = newProgress(len(srcs))
	}

	for _, src := range srcs {

		start := time.Now()

		err := coll.CollectFile(src, dlct, cfg)
		if err != nil {
			if pbs != nil {
				bar.Abort(false)
				pbs.Wait()
			}
			return nil, err
		}

		if bar != nil {
			bar.EwmaIncrBy(1, time.Since(start))
		}
	}

	if pbs != nil {
		pbs.Wait()
	}

	hdr := Header{DbName: cfg.DbName, Release: cfg.Release, Date: date}
	wdth := Widths{ID: coll.IDWidth, Acc: coll.AccWidth, Name: coll.NameWidth}

	wrtr, err := CreateIndexWriter(cfg.IndexDir, hdr, wdth, DiskOrder(cfg.BigEndian), lg)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			wrtr.Abort()
		}
	}()

	for _, src := range coll.Files {
		if err := wrtr.WriteDivision(src); err != nil {
			return nil, err
		}
	}

	ents, err := bulk.Entries()
	if err != nil {
		return nil, err
	}
	lnks, err := bulk.Links()
	if err != nil {
		return nil, err
	}

	nents, nlinks, err := CrossReference(ents, lnks, lg, wrtr.WriteEntry, bulk.AddStamped)
	if err != nil {
		return nil, err
	}
	if nents != coll.Entries || nlinks != coll.Links {
		return nil, structureError("sorted %d entries and %d accessions, collected %d and %d",
			nents, nlinks, coll.Entries, coll.Links)
	}

	stamped, err := bulk.Stamped()
	if err != nil {
		return nil, err
	}

	for {
		lnk, err := stamped.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := wrtr.WriteHit(lnk); err != nil {
			return nil, err
		}
	}

	if err := wrtr.Finish(); err != nil {
		return nil, err
	}

	info := &IndexInfo{
		DbName:     cfg.DbName,
		Release:    cfg.Release,
		Date:       cfg.Date,
		Dialect:    dlct.Name(),
		Layout:     cfg.Layout,
		Bulk:       mode.String(),
		ByteOrder:  OrderName(wrtr.Order()),
		HostOrder:  OrderName(HostOrder()),
		IDWidth:    wdth.ID,
		AccWidth:   wdth.Acc,
		NameWidth:  wdth.Name,
		Files:      len(coll.Files),
		Entries:    nents,
		Accessions: wrtr.Targets(),
		Hits:       wrtr.Hits(),
		Residues:   coll.Residues,
	}

	// manifest is replaced in the same step as the index files
	if err := wrtr.StageManifest(info); err != nil {
		return nil, err
	}
	if err := wrtr.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return info, nil
}
