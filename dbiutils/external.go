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
// File Name:  external.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// externalBulk writes one id file and one accession file per source file,
// sorts each, and merges them. Resolved accessions go to numbered chunks
// of at most cfg.Chunk lines, sorted and merged the same way.
type externalBulk struct {
	lg   *Logger
	srt  LineSorter
	zipp bool
	keep bool

	prefix string
	chunk  int

	fileNum uint16
	idOut   *lineWriter
	acOut   *lineWriter

	idFiles []string
	acFiles []string

	stampOut   *lineWriter
	stampFiles []string

	// every intermediate file name, sorted names included, for cleanup
	made   []string
	merges []*MergedLines
}

func newExternalBulk(cfg *Config, lg *Logger) (*externalBulk, error) {

	srt, err := NewLineSorter(cfg)
	if err != nil {
		return nil, err
	}

	dir := cfg.TempDir
	if dir == "" {
		dir = cfg.IndexDir
	}

	eb := &externalBulk{
		lg:     lg,
		srt:    srt,
		zipp:   cfg.Compress,
		keep:   cfg.Keep,
		prefix: filepath.Join(dir, cfg.DbName),
		chunk:  cfg.Chunk,
	}
	if eb.chunk < 1 {
		eb.chunk = 1 << 20
	}

	return eb, nil
}

func (eb *externalBulk) tempName(kind string, num int) string {

	name := fmt.Sprintf("%s.%05d.%s", eb.prefix, num, kind)
	if eb.zipp {
		name += ".gz"
	}

	eb.made = append(eb.made, name, sortedName(name))

	return name
}

func (eb *externalBulk) StartFile(src *SourceFile) error {

	var err error

	eb.fileNum = uint16(src.Ordinal)

	eb.idOut, err = createLineWriter(eb.tempName("ids", src.Ordinal), eb.zipp)
	if err != nil {
		return err
	}

	eb.acOut, err = createLineWriter(eb.tempName("acc", src.Ordinal), eb.zipp)

	return err
}

func (eb *externalBulk) AddEntry(ent *Entry) error {

	ent.FileNum = eb.fileNum

	return eb.idOut.WriteLine(formatEntryLine(ent))
}

func (eb *externalBulk) AddLink(lnk *Link) error {

	return eb.acOut.WriteLine(formatLinkLine(lnk))
}

func (eb *externalBulk) EndFile() error {

	if err := eb.idOut.Close(); err != nil {
		return err
	}
	if err := eb.acOut.Close(); err != nil {
		return err
	}

	eb.idFiles = append(eb.idFiles, eb.idOut.name)
	eb.acFiles = append(eb.acFiles, eb.acOut.name)

	eb.idOut = nil
	eb.acOut = nil

	return nil
}

// mergeLines sorts each file, then returns their k-way merge
func (eb *externalBulk) mergeLines(files []string) (*lineStream, error) {

	sorted, err := sortFiles(eb.srt, files, eb.zipp, eb.keep)
	if err != nil {
		return nil, err
	}

	eb.lg.Infof("Sorted %s with %s sort", CountOf(len(sorted), "file"), eb.srt.Name())

	mrg := MergeSortedFiles(sorted, eb.zipp)
	eb.merges = append(eb.merges, mrg)

	return &lineStream{mrg: mrg, files: sorted, keep: eb.keep}, nil
}

func (eb *externalBulk) Entries() (EntryStream, error) {

	ls, err := eb.mergeLines(eb.idFiles)
	if err != nil {
		return nil, err
	}

	return &lineEntryStream{ls}, nil
}

func (eb *externalBulk) Links() (LinkStream, error) {

	ls, err := eb.mergeLines(eb.acFiles)
	if err != nil {
		return nil, err
	}

	return &lineLinkStream{ls: ls, parse: parseLinkLine}, nil
}

func (eb *externalBulk) AddStamped(lnk *Link) error {

	if eb.stampOut != nil && eb.stampOut.count >= eb.chunk {
		if err := eb.stampOut.Close(); err != nil {
			return err
		}
		eb.stampOut = nil
	}

	if eb.stampOut == nil {
		var err error
		eb.stampOut, err = createLineWriter(eb.tempName("hit", len(eb.stampFiles)+1), eb.zipp)
		if err != nil {
			return err
		}
		eb.stampFiles = append(eb.stampFiles, eb.stampOut.name)
	}

	return eb.stampOut.WriteLine(formatHitLine(lnk))
}

func (eb *externalBulk) Stamped() (LinkStream, error) {

	if eb.stampOut != nil {
		if err := eb.stampOut.Close(); err != nil {
			return nil, err
		}
		eb.stampOut = nil
	}

	ls, err := eb.mergeLines(eb.stampFiles)
	if err != nil {
		return nil, err
	}

	return &lineLinkStream{ls: ls, parse: parseHitLine}, nil
}

func (eb *externalBulk) Cleanup() error {

	eb.idOut.Close()
	eb.acOut.Close()
	eb.stampOut.Close()

	for _, mrg := range eb.merges {
		mrg.Close()
	}
	eb.merges = nil

	if eb.keep {
		return nil
	}

	for _, name := range eb.made {
		err := os.Remove(name)
		if err != nil && !os.IsNotExist(err) {
			eb.lg.Warnf("unable to remove intermediate file '%s'", name)
		}
	}
	eb.made = nil

	return nil
}

// lineStream reads merged lines, deleting the sorted files once exhausted
type lineStream struct {
	mrg   *MergedLines
	files []string
	keep  bool
	done  bool
}

func (ls *lineStream) next() (string, error) {

	if ls.done {
		return "", io.EOF
	}

	str, err := ls.mrg.Next()
	if err == io.EOF {
		ls.done = true
		ls.mrg.Close()
		if !ls.keep {
			for _, name := range ls.files {
				os.Remove(name)
			}
		}
	}

	return str, err
}

type lineEntryStream struct {
	ls *lineStream
}

func (s *lineEntryStream) Next() (*Entry, error) {

	str, err := s.ls.next()
	if err != nil {
		return nil, err
	}

	return parseEntryLine(str)
}

type lineLinkStream struct {
	ls    *lineStream
	parse func(string) (*Link, error)
}

func (s *lineLinkStream) Next() (*Link, error) {

	str, err := s.ls.next()
	if err != nil {
		return nil, err
	}

	return s.parse(str)
}
