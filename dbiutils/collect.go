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
// File Name:  collect.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"io"
)

// Collector passes scanner output to a Bulk store, measuring the widest
// identifier, accession, and division name so that index record widths are
// known before anything is written
type Collector struct {
	bulk Bulk
	lg   *Logger

	IDWidth   int
	AccWidth  int
	NameWidth int

	Files    []*SourceFile
	Entries  int
	Links    int
	Residues int64
	Empty    int
}

// NewCollector wraps a Bulk store
func NewCollector(bulk Bulk, lg *Logger) *Collector {

	return &Collector{bulk: bulk, lg: lg}
}

// StartFile begins a new source file
func (c *Collector) StartFile(src *SourceFile) error {

	c.Files = append(c.Files, src)
	if w := len(src.DivisionName()); w > c.NameWidth {
		c.NameWidth = w
	}

	return c.bulk.StartFile(src)
}

// Add stores one entry and one link per accession
func (c *Collector) Add(raw *RawEntry) error {

	if len(raw.Accessions) < 1 {
		c.Empty++
		c.lg.Warnf("entry %s has no accession numbers", raw.ID)
	}

	ent := &Entry{ID: raw.ID, RefOffset: uint32(raw.RefOffset), SeqOffset: uint32(raw.SeqOffset)}
	if err := c.bulk.AddEntry(ent); err != nil {
		return err
	}

	c.Entries++
	c.Residues += raw.Length
	if w := len(raw.ID); w > c.IDWidth {
		c.IDWidth = w
	}

	for _, acc := range raw.Accessions {
		if err := c.bulk.AddLink(&Link{ID: raw.ID, Acc: acc}); err != nil {
			return err
		}
		c.Links++
		if w := len(acc); w > c.AccWidth {
			c.AccWidth = w
		}
	}

	return nil
}

// EndFile finishes the current source file
func (c *Collector) EndFile() error {

	return c.bulk.EndFile()
}

// CollectFile scans every record of one source file, releasing the file
// before returning
func (c *Collector) CollectFile(src *SourceFile, dlct Dialect, cfg *Config) (err error) {

	scnr, err := OpenScanner(src, dlct, cfg.MaxIDLen, cfg.MaxAccLen, c.lg)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := scnr.Close(); cerr != nil && err == nil {
			err = ioError(cerr, "unable to close '%s'", src.RefPath)
		}
	}()

	if err := c.StartFile(src); err != nil {
		return err
	}

	for {
		raw, err := scnr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := c.Add(raw); err != nil {
			return err
		}
	}

	return c.EndFile()
}
