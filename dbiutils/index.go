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
// File Name:  index.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"bufio"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
)

// index file names
const (
	DIVISIONFILE = "division.lkp"
	ENTRYFILE    = "entrynam.idx"
	TARGETFILE   = "acnum.trg"
	HITFILE      = "acnum.hit"
)

// IndexFiles lists the four index files in writing order
var IndexFiles = []string{DIVISIONFILE, ENTRYFILE, TARGETFILE, HITFILE}

// header layout, {filesize:4}{reccount:4}{recwidth:2}{dbname:20}{release:10}{date:4}{padding:256}
const (
	HEADERSIZE = 300
	hdrPadding = 256
)

// Header is the common prefix of all four index files
type Header struct {
	FileSize uint32
	RecCount uint32
	RecWidth uint16
	DbName   string
	Release  string
	Date     [4]byte
}

// putString copies str into a NUL-padded field
func putString(buf []byte, str string) {

	n := copy(buf, str)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// getString strips NUL padding from a field
func getString(buf []byte) string {

	for i, ch := range buf {
		if ch == 0 {
			return string(buf[:i])
		}
	}

	return string(buf)
}

// Encode returns the 300-byte header in the given byte order
func (hdr *Header) Encode(order binary.ByteOrder) []byte {

	buf := make([]byte, HEADERSIZE)

	order.PutUint32(buf[0:4], hdr.FileSize)
	order.PutUint32(buf[4:8], hdr.RecCount)
	order.PutUint16(buf[8:10], hdr.RecWidth)
	putString(buf[10:30], hdr.DbName)
	putString(buf[30:40], hdr.Release)
	copy(buf[40:44], hdr.Date[:])

	// remaining hdrPadding bytes stay zero

	return buf
}

// DecodeHeader reads a header written by Encode
func DecodeHeader(buf []byte, order binary.ByteOrder) (*Header, error) {

	if len(buf) < HEADERSIZE {
		return nil, structureError("index header is %d bytes, expected %d", len(buf), HEADERSIZE)
	}

	hdr := &Header{
		FileSize: order.Uint32(buf[0:4]),
		RecCount: order.Uint32(buf[4:8]),
		RecWidth: order.Uint16(buf[8:10]),
		DbName:   getString(buf[10:30]),
		Release:  getString(buf[30:40]),
	}
	copy(hdr.Date[:], buf[40:44])

	return hdr, nil
}

// HostOrder reports the native byte order of this machine
func HostOrder() binary.ByteOrder {

	var buf [2]byte
	binary.NativeEndian.PutUint16(buf[:], 1)
	if buf[0] == 1 {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// DiskOrder is the byte order written to index files, little-endian unless requested
func DiskOrder(bigEndian bool) binary.ByteOrder {

	if bigEndian {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// OrderName returns "little" or "big"
func OrderName(order binary.ByteOrder) string {

	if order == binary.BigEndian {
		return "big"
	}

	return "little"
}

// record encoders, each returning a freshly allocated record of the given width

// EncodeDivision builds {ordinal:2}{name:width}
func EncodeDivision(order binary.ByteOrder, num uint16, name string, width int) []byte {

	rec := make([]byte, 2+width)
	order.PutUint16(rec[0:2], num)
	putString(rec[2:], name)

	return rec
}

// EncodeEntry builds {id:width}{refoffset:4}{seqoffset:4}{fileord:2}
func EncodeEntry(order binary.ByteOrder, ent *Entry, width int) []byte {

	rec := make([]byte, width+10)
	putString(rec[:width], ent.ID)
	order.PutUint32(rec[width:width+4], ent.RefOffset)
	order.PutUint32(rec[width+4:width+8], ent.SeqOffset)
	order.PutUint16(rec[width+8:width+10], ent.FileNum)

	return rec
}

// EncodeTarget builds {nhits:4}{firsthit:4}{accession:width}
func EncodeTarget(order binary.ByteOrder, nhits, first uint32, acc string, width int) []byte {

	rec := make([]byte, 8+width)
	order.PutUint32(rec[0:4], nhits)
	order.PutUint32(rec[4:8], first)
	putString(rec[8:], acc)

	return rec
}

// EncodeHit builds {ordinal:4}
func EncodeHit(order binary.ByteOrder, ord uint32) []byte {

	rec := make([]byte, 4)
	order.PutUint32(rec, ord)

	return rec
}

// IndexFile is one index file being written under a temporary name. The
// header is written first as a placeholder and rewritten in place once the
// record count is known.
type IndexFile struct {
	path  string
	tmp   string
	fl    *os.File
	wrtr  *bufio.Writer
	order binary.ByteOrder
	hdr   Header
}

func createIndexFile(dir, name string, hdr Header, order binary.ByteOrder) (*IndexFile, error) {

	fl, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return nil, ioError(err, "unable to create index file '%s'", name)
	}

	ixf := &IndexFile{
		path:  filepath.Join(dir, name),
		tmp:   fl.Name(),
		fl:    fl,
		wrtr:  bufio.NewWriterSize(fl, 65536),
		order: order,
		hdr:   hdr,
	}

	if _, err := ixf.wrtr.Write(hdr.Encode(order)); err != nil {
		ixf.abort()
		return nil, ioError(err, "unable to write index file '%s'", name)
	}

	return ixf, nil
}

func (ixf *IndexFile) write(rec []byte) error {

	if len(rec) != int(ixf.hdr.RecWidth) {
		return structureError("record of %d bytes in '%s' with width %d", len(rec), ixf.path, ixf.hdr.RecWidth)
	}
	if ixf.hdr.RecCount == math.MaxUint32 {
		return structureError("too many records for '%s'", ixf.path)
	}

	if _, err := ixf.wrtr.Write(rec); err != nil {
		return ioError(err, "unable to write index file '%s'", ixf.path)
	}
	ixf.hdr.RecCount++

	return nil
}

// finish flushes records and rewrites the header with final counts
func (ixf *IndexFile) finish() error {

	if err := ixf.wrtr.Flush(); err != nil {
		return ioError(err, "unable to write index file '%s'", ixf.path)
	}

	size := int64(HEADERSIZE) + int64(ixf.hdr.RecCount)*int64(ixf.hdr.RecWidth)
	if size > math.MaxUint32 {
		return structureError("index file '%s' would exceed 4 GB", ixf.path)
	}
	ixf.hdr.FileSize = uint32(size)

	if _, err := ixf.fl.WriteAt(ixf.hdr.Encode(ixf.order), 0); err != nil {
		return ioError(err, "unable to rewrite header of '%s'", ixf.path)
	}
	if err := ixf.fl.Sync(); err != nil {
		return ioError(err, "unable to sync '%s'", ixf.path)
	}
	if err := ixf.fl.Close(); err != nil {
		return ioError(err, "unable to close '%s'", ixf.path)
	}
	ixf.fl = nil

	return nil
}

func (ixf *IndexFile) abort() {

	if ixf == nil {
		return
	}
	if ixf.fl != nil {
		ixf.fl.Close()
		ixf.fl = nil
	}
	os.Remove(ixf.tmp)
}

// Widths are the variable field widths of the index records
type Widths struct {
	ID   int
	Acc  int
	Name int
}

// IndexWriter produces the division, entry-name, target, and hit files
type IndexWriter struct {
	dir   string
	order binary.ByteOrder
	wdth  Widths
	lg    *Logger

	// temporary manifest, renamed last
	manifest string

	division *IndexFile
	entries  *IndexFile
	targets  *IndexFile
	hits     *IndexFile

	// current accession group
	currAcc   string
	currFirst uint32
	currCount uint32
	prevOrd   uint32
	numHits   uint32
	numTrgs   int
}

// CreateIndexWriter opens all four files under temporary names in dir
func CreateIndexWriter(dir string, hdr Header, wdth Widths, order binary.ByteOrder, lg *Logger) (*IndexWriter, error) {

	if wdth.ID+10 > math.MaxUint16 || wdth.Acc+8 > math.MaxUint16 || wdth.Name+2 > math.MaxUint16 {
		return nil, configError("index field widths %d, %d, %d are too large", wdth.ID, wdth.Acc, wdth.Name)
	}

	w := &IndexWriter{dir: dir, order: order, wdth: wdth, lg: lg}

	recWidths := map[string]int{
		DIVISIONFILE: 2 + wdth.Name,
		ENTRYFILE:    wdth.ID + 10,
		TARGETFILE:   8 + wdth.Acc,
		HITFILE:      4,
	}

	for _, name := range IndexFiles {
		fhdr := hdr
		fhdr.RecWidth = uint16(recWidths[name])
		fhdr.RecCount = 0
		fhdr.FileSize = 0

		ixf, err := createIndexFile(dir, name, fhdr, order)
		if err != nil {
			w.Abort()
			return nil, err
		}

		switch name {
		case DIVISIONFILE:
			w.division = ixf
		case ENTRYFILE:
			w.entries = ixf
		case TARGETFILE:
			w.targets = ixf
		case HITFILE:
			w.hits = ixf
		}
	}

	return w, nil
}

// Order reports the byte order used for every integer field
func (w *IndexWriter) Order() binary.ByteOrder {
	return w.order
}

// WriteDivision adds the record of one source file
func (w *IndexWriter) WriteDivision(src *SourceFile) error {

	return w.division.write(EncodeDivision(w.order, uint16(src.Ordinal), src.DivisionName(), w.wdth.Name))
}

// WriteEntry adds one entry, which must arrive in ordinal order
func (w *IndexWriter) WriteEntry(ord uint32, ent *Entry) error {

	if ord != w.entries.hdr.RecCount+1 {
		return structureError("entry %s has ordinal %d, expected %d", ent.ID, ord, w.entries.hdr.RecCount+1)
	}

	return w.entries.write(EncodeEntry(w.order, ent, w.wdth.ID))
}

func (w *IndexWriter) flushTarget() error {

	if w.currCount < 1 {
		return nil
	}

	err := w.targets.write(EncodeTarget(w.order, w.currCount, w.currFirst, w.currAcc, w.wdth.Acc))
	w.numTrgs++
	w.currCount = 0

	return err
}

// WriteHit adds one resolved link; links must arrive ordered by accession,
// then ordinal, and each accession group becomes one target record
func (w *IndexWriter) WriteHit(lnk *Link) error {

	if w.currCount > 0 && lnk.Acc < w.currAcc {
		return structureError("accession %s follows %s in hit order", lnk.Acc, w.currAcc)
	}

	if w.currCount == 0 || lnk.Acc != w.currAcc {
		if err := w.flushTarget(); err != nil {
			return err
		}
		w.currAcc = lnk.Acc
		w.currFirst = w.numHits + 1
		w.prevOrd = 0
	}

	if lnk.Ordinal < w.prevOrd {
		return structureError("accession %s lists entry %d after %d", lnk.Acc, lnk.Ordinal, w.prevOrd)
	}
	w.prevOrd = lnk.Ordinal

	if err := w.hits.write(EncodeHit(w.order, lnk.Ordinal)); err != nil {
		return err
	}

	w.numHits++
	w.currCount++

	return nil
}

// Targets is the number of target records written
func (w *IndexWriter) Targets() int {
	return w.numTrgs
}

// Hits is the number of hit records written
func (w *IndexWriter) Hits() int {
	return int(w.numHits)
}

// Finish writes the last target and final headers of all four files
func (w *IndexWriter) Finish() error {

	if err := w.flushTarget(); err != nil {
		return err
	}

	for _, ixf := range []*IndexFile{w.division, w.entries, w.targets, w.hits} {
		if err := ixf.finish(); err != nil {
			return err
		}
	}

	return nil
}

// StageManifest writes the manifest under a temporary name, so that it is
// replaced together with the four index files
func (w *IndexWriter) StageManifest(info *IndexInfo) error {

	tmp, err := createManifestTemp(w.dir, info)
	if err != nil {
		return err
	}

	os.Remove(w.manifest)
	w.manifest = tmp

	return nil
}

// Commit renames all four files, then any staged manifest, into place.
// Either every target is replaced or every existing target is left as it was.
func (w *IndexWriter) Commit() error {

	var files []stagedFile
	for _, ixf := range []*IndexFile{w.division, w.entries, w.targets, w.hits} {
		if ixf.fl != nil {
			return structureError("index file '%s' committed before it was finished", ixf.path)
		}
		files = append(files, stagedFile{tmp: ixf.tmp, path: ixf.path})
	}
	if w.manifest != "" {
		files = append(files, stagedFile{tmp: w.manifest, path: filepath.Join(w.dir, MANIFESTFILE)})
	}

	if err := replaceAll(files, w.lg); err != nil {
		return err
	}
	w.manifest = ""

	if err := syncDir(w.dir); err != nil {
		w.lg.Warnf("unable to sync index directory '%s': %v", w.dir, err)
	}

	return nil
}

// Abort discards any temporary files
func (w *IndexWriter) Abort() {

	for _, ixf := range []*IndexFile{w.division, w.entries, w.targets, w.hits} {
		ixf.abort()
	}
	if w.manifest != "" {
		os.Remove(w.manifest)
		w.manifest = ""
	}
}

// BACKUPSUFFIX marks a previous index file moved aside during replacement
const BACKUPSUFFIX = ".old"

// stagedFile is a finished temporary file and the name it will replace
type stagedFile struct {
	tmp  string
	path string
}

// replaceAll moves every existing target aside, renames each temporary file
// into place, and only then removes the saved copies. On any failure the
// new files are removed and the saved copies restored.
func replaceAll(files []stagedFile, lg *Logger) error {

	var saved, placed []stagedFile

	rollback := func() {
		for _, sf := range placed {
			os.Remove(sf.path)
		}
		for _, sf := range saved {
			if err := os.Rename(sf.path+BACKUPSUFFIX, sf.path); err != nil {
				lg.Warnf("unable to restore '%s' from '%s'", sf.path, sf.path+BACKUPSUFFIX)
			}
		}
	}

	// nothing is moved unless every target is a plain file or absent
	for _, sf := range files {
		fi, err := os.Lstat(sf.path)
		if err != nil && !os.IsNotExist(err) {
			return ioError(err, "unable to replace '%s'", sf.path)
		}
		if err == nil && fi.IsDir() {
			return ioError(errors.New("target is a directory"), "unable to replace '%s'", sf.path)
		}
	}

	for _, sf := range files {
		_, err := os.Lstat(sf.path)
		if os.IsNotExist(err) {
			continue
		}
		if err == nil {
			err = os.Rename(sf.path, sf.path+BACKUPSUFFIX)
		}
		if err != nil {
			rollback()
			return ioError(err, "unable to move aside '%s'", sf.path)
		}
		saved = append(saved, sf)
	}

	for _, sf := range files {
		if err := os.Rename(sf.tmp, sf.path); err != nil {
			rollback()
			return ioError(err, "unable to replace '%s'", sf.path)
		}
		placed = append(placed, sf)
	}

	for _, sf := range saved {
		if err := os.Remove(sf.path + BACKUPSUFFIX); err != nil {
			lg.Warnf("unable to remove previous index file '%s'", sf.path+BACKUPSUFFIX)
		}
	}

	return nil
}

// syncDir makes renames durable
func syncDir(dir string) error {

	fl, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer fl.Close()

	return fl.Sync()
}
