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
// File Name:  lines.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// lineReader reads a database file line by line, tracking the byte offset
// at which each line starts, with one line of push-back
type lineReader struct {
	name string
	fl   *os.File
	brd  *bufio.Reader

	// offset of next unread byte
	pos int64

	held bool
	line string
	lpos int64
}

func openLineReader(fileName string) (*lineReader, error) {

	fl, err := os.Open(fileName)
	if err != nil {
		return nil, ioError(err, "unable to open input file '%s'", fileName)
	}

	return &lineReader{name: fileName, fl: fl, brd: bufio.NewReaderSize(fl, 65536)}, nil
}

// ReadLine returns the next line without its terminator, and its starting offset
func (r *lineReader) ReadLine() (string, int64, error) {

	if r.held {
		r.held = false
		return r.line, r.lpos, nil
	}

	str, err := r.brd.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", r.pos, ioError(err, "unable to read '%s'", r.name)
	}
	if err == io.EOF && str == "" {
		return "", r.pos, io.EOF
	}

	r.lpos = r.pos
	r.pos += int64(len(str))

	str = strings.TrimSuffix(str, "\n")
	str = strings.TrimSuffix(str, "\r")
	r.line = str

	return str, r.lpos, nil
}

// Unread pushes the last line back, so the next ReadLine returns it again
func (r *lineReader) Unread() {
	r.held = true
}

// Skip discards n bytes following the last line read, which must not be held
func (r *lineReader) Skip(n int64) error {

	for n > 0 {
		chunk := n
		if chunk > 1<<30 {
			chunk = 1 << 30
		}
		got, err := r.brd.Discard(int(chunk))
		r.pos += int64(got)
		n -= int64(got)
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return ioError(err, "unable to read '%s'", r.name)
		}
	}

	return nil
}

func (r *lineReader) Close() error {

	if r == nil || r.fl == nil {
		return nil
	}

	err := r.fl.Close()
	r.fl = nil

	return err
}

// intermediate records are tab-delimited with zero-padded numbers, so that
// sorting whole lines by byte value orders them exactly as the in-memory
// comparators do

func formatEntryLine(ent *Entry) string {

	return fmt.Sprintf("%s\t%05d\t%010d\t%010d", ent.ID, ent.FileNum, ent.RefOffset, ent.SeqOffset)
}

func parseEntryLine(str string) (*Entry, error) {

	flds := strings.Split(str, "\t")
	if len(flds) != 4 {
		return nil, structureError("malformed intermediate entry line '%s'", str)
	}

	fnum, err1 := strconv.ParseUint(flds[1], 10, 16)
	rofs, err2 := strconv.ParseUint(flds[2], 10, 32)
	sofs, err3 := strconv.ParseUint(flds[3], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, structureError("malformed intermediate entry line '%s'", str)
	}

	return &Entry{ID: flds[0], FileNum: uint16(fnum), RefOffset: uint32(rofs), SeqOffset: uint32(sofs)}, nil
}

func formatLinkLine(lnk *Link) string {

	return lnk.ID + "\t" + lnk.Acc
}

func parseLinkLine(str string) (*Link, error) {

	id, acc, ok := strings.Cut(str, "\t")
	if !ok || id == "" || acc == "" {
		return nil, structureError("malformed intermediate accession line '%s'", str)
	}

	return &Link{ID: id, Acc: acc}, nil
}

func formatHitLine(lnk *Link) string {

	return fmt.Sprintf("%s\t%010d", lnk.Acc, lnk.Ordinal)
}

func parseHitLine(str string) (*Link, error) {

	acc, num, ok := strings.Cut(str, "\t")
	if !ok || acc == "" {
		return nil, structureError("malformed intermediate hit line '%s'", str)
	}

	ord, err := strconv.ParseUint(num, 10, 32)
	if err != nil || ord < 1 {
		return nil, structureError("malformed intermediate hit line '%s'", str)
	}

	return &Link{Acc: acc, Ordinal: uint32(ord)}, nil
}
