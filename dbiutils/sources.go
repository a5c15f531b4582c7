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
// File Name:  sources.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MAXFILES is the largest file ordinal a 2-byte division field can hold
const MAXFILES = 65535

// SourceFile is one database file, or one reference/sequence pair
type SourceFile struct {
	Ordinal int
	RefName string
	SeqName string
	RefPath string
	SeqPath string
	Size    int64
}

// DivisionName is the string stored in the division table
func (src *SourceFile) DivisionName() string {

	if src.SeqName == "" {
		return src.RefName
	}

	return src.RefName + " " + src.SeqName
}

// ListSources enumerates matching files in name order, assigning ordinals from 1
func ListSources(cfg *Config) ([]*SourceFile, error) {

	dirEntries, err := os.ReadDir(cfg.Directory)
	if err != nil {
		return nil, configError("source directory '%s' is not readable", cfg.Directory)
	}

	var names []string

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		ok, err := filepath.Match(cfg.Filenames, name)
		if err != nil {
			return nil, configError("bad filename pattern '%s'", cfg.Filenames)
		}
		if !ok {
			continue
		}
		if cfg.Exclude != "" {
			skip, err := filepath.Match(cfg.Exclude, name)
			if err != nil {
				return nil, configError("bad exclude pattern '%s'", cfg.Exclude)
			}
			if skip {
				continue
			}
		}
		names = append(names, name)
	}

	sort.Strings(names)

	if len(names) < 1 {
		return nil, configError("no files matching '%s' in '%s'", cfg.Filenames, cfg.Directory)
	}
	if len(names) > MAXFILES {
		return nil, configError("%d source files exceed the limit of %d", len(names), MAXFILES)
	}

	var srcs []*SourceFile

	for i, name := range names {

		src := &SourceFile{Ordinal: i + 1}

		if cfg.Layout == LAYOUTGCG {
			src.SeqName = name
			src.SeqPath = filepath.Join(cfg.Directory, name)
			src.RefName = strings.TrimSuffix(name, filepath.Ext(name)) + ".ref"
			src.RefPath = filepath.Join(cfg.Directory, src.RefName)
			if src.RefName == src.SeqName {
				return nil, configError("sequence file '%s' has no separate reference file", name)
			}
		} else {
			src.RefName = name
			src.RefPath = filepath.Join(cfg.Directory, name)
		}

		fi, err := os.Stat(src.RefPath)
		if err != nil {
			return nil, ioError(err, "unable to open reference file '%s'", src.RefPath)
		}
		src.Size = fi.Size()

		if src.SeqPath != "" {
			fi, err = os.Stat(src.SeqPath)
			if err != nil {
				return nil, ioError(err, "unable to open sequence file '%s'", src.SeqPath)
			}
			src.Size += fi.Size()
		}

		srcs = append(srcs, src)
	}

	return srcs, nil
}
