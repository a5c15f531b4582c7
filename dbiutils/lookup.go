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
// File Name:  lookup.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
)

// indexReader gives random access to the fixed-width records of one index file
type indexReader struct {
	fl  *os.File
	hdr *Header
}

func commonOpenFile(dir, name string) (*os.File, int64, error) {

	fpath := filepath.Join(dir, name)

	fl, err := os.Open(fpath)
	if err != nil {
		return nil, 0, ioError(err, "unable to open index file '%s'", fpath)
	}

	fi, err := fl.Stat()
	if err != nil {
		fl.Close()
		return nil, 0, ioError(err, "unable to stat index file '%s'", fpath)
	}

	return fl, fi.Size(), nil
}

// openIndexReader checks the header against the real file size, which also
// identifies the byte order when no manifest says which was used
func openIndexReader(dir, name string, order binary.ByteOrder) (*indexReader, binary.ByteOrder, error) {

	fl, size, err := commonOpenFile(dir, name)
	if err != nil {
		return nil, nil, err
	}

	buf := make([]byte, HEADERSIZE)
	if _, err := fl.ReadAt(buf, 0); err != nil {
		fl.Close()
		return nil, nil, structureError("index file '%s' is shorter than its header", name)
	}

	orders := []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}
	if order != nil {
		orders = []binary.ByteOrder{order}
	}

	for _, ord := range orders {
		hdr, err := DecodeHeader(buf, ord)
		if err != nil {
			fl.Close()
			return nil, nil, err
		}
		if int64(hdr.FileSize) == size && int64(HEADERSIZE)+int64(hdr.RecCount)*int64(hdr.RecWidth) == size {
			return &indexReader{fl: fl, hdr: hdr}, ord, nil
		}
	}

	fl.Close()

	return nil, nil, structureError("index file '%s' header does not match its size of %d bytes", name, size)
}

// record returns the 1-based nth record
func (ir *indexReader) record(n uint32) ([]byte, error) {

	if n < 1 || n > ir.hdr.RecCount {
		return nil, structureError("record %d out of range 1 to %d", n, ir.hdr.RecCount)
	}

	width := int64(ir.hdr.RecWidth)
	buf := make([]byte, width)

	if _, err := ir.fl.ReadAt(buf, int64(HEADERSIZE)+int64(n-1)*width); err != nil {
		return nil, ioError(err, "unable to read index record %d", n)
	}

	return buf, nil
}

// search finds the first record whose key is not less than key, keyed
// by the string field at [from:from+len]
func (ir *indexReader) search(key string, from, length int) (uint32, bool, error) {

	var serr error

	idx := sort.Search(int(ir.hdr.RecCount), func(i int) bool {
		if serr != nil {
			return true
		}
		rec, err := ir.record(uint32(i + 1))
		if err != nil {
			serr = err
			return true
		}
		return getString(rec[from:from+length]) >= key
	})
	if serr != nil {
		return 0, false, serr
	}

	if idx >= int(ir.hdr.RecCount) {
		return 0, false, nil
	}

	rec, err := ir.record(uint32(idx + 1))
	if err != nil {
		return 0, false, err
	}

	return uint32(idx + 1), getString(rec[from:from+length]) == key, nil
}

// Index is a read-only view of a finished index directory
type Index struct {
	Info  *IndexInfo
	order binary.ByteOrder

	division *indexReader
	entries  *indexReader
	targets  *indexReader
	hits     *indexReader

	divs map[uint16]string
}

// OpenIndex opens the four index files of dir
func OpenIndex(dir string) (*Index, error) {

	info, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	ix := &Index{Info: info, divs: make(map[uint16]string)}

	var order binary.ByteOrder
	if info != nil {
		order = info.Order()
	}

	readers := make([]*indexReader, len(IndexFiles))

	for i, name := range IndexFiles {
		ir, ord, err := openIndexReader(dir, name, order)
		if err != nil {
			ix.closeReaders(readers)
			return nil, err
		}
		readers[i] = ir
		order = ord
	}

	ix.order = order
	ix.division, ix.entries, ix.targets, ix.hits = readers[0], readers[1], readers[2], readers[3]

	for n := uint32(1); n <= ix.division.hdr.RecCount; n++ {
		rec, err := ix.division.record(n)
		if err != nil {
			ix.Close()
			return nil, err
		}
		ix.divs[order.Uint16(rec[0:2])] = getString(rec[2:])
	}

	return ix, nil
}

func (ix *Index) closeReaders(readers []*indexReader) {

	for _, ir := range readers {
		if ir != nil {
			ir.fl.Close()
		}
	}
}

// Close releases all index files
func (ix *Index) Close() error {

	ix.closeReaders([]*indexReader{ix.division, ix.entries, ix.targets, ix.hits})

	return nil
}

// Order is the byte order of the index integers
func (ix *Index) Order() binary.ByteOrder {
	return ix.order
}

// Header returns the header of one of the four index files
func (ix *Index) Header(name string) *Header {

	switch name {
	case DIVISIONFILE:
		return ix.division.hdr
	case ENTRYFILE:
		return ix.entries.hdr
	case TARGETFILE:
		return ix.targets.hdr
	case HITFILE:
		return ix.hits.hdr
	}

	return nil
}

// NumEntries is the number of entry-name records
func (ix *Index) NumEntries() uint32 {
	return ix.entries.hdr.RecCount
}

// DivisionName returns the "ref seq" names of a file ordinal
func (ix *Index) DivisionName(num uint16) string {
	return ix.divs[num]
}

// EntryAt decodes the entry with the given 1-based ordinal
func (ix *Index) EntryAt(ord uint32) (*Entry, error) {

	rec, err := ix.entries.record(ord)
	if err != nil {
		return nil, err
	}

	width := int(ix.entries.hdr.RecWidth) - 10

	return &Entry{
		ID:        getString(rec[:width]),
		RefOffset: ix.order.Uint32(rec[width : width+4]),
		SeqOffset: ix.order.Uint32(rec[width+4 : width+8]),
		FileNum:   ix.order.Uint16(rec[width+8 : width+10]),
	}, nil
}

// FindEntry looks up an identifier, returning the entry and its ordinal
func (ix *Index) FindEntry(id string) (*Entry, uint32, error) {

	id = NormalizeKey(id)

	width := int(ix.entries.hdr.RecWidth) - 10
	if width < 1 || len(id) > width {
		return nil, 0, nil
	}

	ord, ok, err := ix.entries.search(id, 0, width)
	if err != nil || !ok {
		return nil, 0, err
	}

	ent, err := ix.EntryAt(ord)
	if err != nil {
		return nil, 0, err
	}

	return ent, ord, nil
}

// FindAccession returns the ordinals of every entry carrying acc, in increasing order
func (ix *Index) FindAccession(acc string) ([]uint32, error) {

	acc = NormalizeKey(acc)

	width := int(ix.targets.hdr.RecWidth) - 8
	if width < 1 || len(acc) > width {
		return nil, nil
	}

	pos, ok, err := ix.targets.search(acc, 8, width)
	if err != nil || !ok {
		return nil, err
	}

	rec, err := ix.targets.record(pos)
	if err != nil {
		return nil, err
	}

	nhits := ix.order.Uint32(rec[0:4])
	first := ix.order.Uint32(rec[4:8])

	var ords []uint32

	for i := uint32(0); i < nhits; i++ {
		hit, err := ix.hits.record(first + i)
		if err != nil {
			return nil, err
		}
		ords = append(ords, ix.order.Uint32(hit))
	}

	return ords, nil
}
