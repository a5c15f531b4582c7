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
// File Name:  scan.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// GCG sequence and reference records both begin with this marker
const gcgMarker = ">>>>"

// RawEntry is one logical database record, split fragments already merged
type RawEntry struct {
	ID         string
	RefOffset  int64
	SeqOffset  int64
	FileNum    int
	Length     int64
	Accessions []string
	Parts      int
}

// seqHeader holds the fields of a GCG sequence marker line
type seqHeader struct {
	ID     string
	Length int64
	// residues per stored byte
	Ratio int64
}

// payload bytes following the documentation line
func (hdr *seqHeader) payload() int64 {

	return (hdr.Length + hdr.Ratio - 1) / hdr.Ratio
}

func markerName(line string) string {

	flds := strings.Fields(line[len(gcgMarker):])
	if len(flds) < 1 {
		return ""
	}

	return flds[0]
}

// parseSeqHeader reads >>>>NAME ... 2bit|ascii ... Len: N ...
func parseSeqHeader(line string) (*seqHeader, error) {

	flds := strings.Fields(line[len(gcgMarker):])
	if len(flds) < 1 {
		return nil, structureError("sequence marker without name: '%s'", line)
	}

	hdr := &seqHeader{ID: flds[0], Length: -1, Ratio: 1}

	for i := 1; i < len(flds); i++ {
		fld := flds[i]
		switch {
		case strings.EqualFold(fld, "2bit"):
			hdr.Ratio = 4
		case strings.EqualFold(fld, "ascii"), strings.EqualFold(fld, "char"):
			hdr.Ratio = 1
		case strings.HasPrefix(fld, "Len:"):
			num := strings.TrimPrefix(fld, "Len:")
			if num == "" && i+1 < len(flds) {
				i++
				num = flds[i]
			}
			val, err := strconv.ParseInt(num, 10, 64)
			if err != nil || val < 0 {
				return nil, structureError("bad length '%s' in header of %s", num, hdr.ID)
			}
			hdr.Length = val
		}
	}

	if hdr.Length < 0 {
		return nil, structureError("missing length in header of %s", hdr.ID)
	}

	return hdr, nil
}

// Scanner walks one SourceFile, returning RawEntry records in physical order
type Scanner struct {
	src    *SourceFile
	dlct   Dialect
	parser RecordParser
	lg     *Logger

	maxID  int
	maxAcc int

	ref *lineReader
	seq *lineReader

	// single-stream lookahead while merging split fragments
	pending *RawEntry
}

// OpenScanner opens the file or file pair of src, seq stream only for paired layouts
func OpenScanner(src *SourceFile, dlct Dialect, maxID, maxAcc int, lg *Logger) (*Scanner, error) {

	if dlct == nil {
		return nil, configError("no database format selected")
	}

	ref, err := openLineReader(src.RefPath)
	if err != nil {
		return nil, err
	}

	s := &Scanner{src: src, dlct: dlct, parser: dlct.NewParser(), lg: lg, maxID: maxID, maxAcc: maxAcc, ref: ref}

	if src.SeqPath != "" {
		s.seq, err = openLineReader(src.SeqPath)
		if err != nil {
			ref.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases both cursors
func (s *Scanner) Close() error {

	err := s.ref.Close()
	if s.seq != nil {
		if serr := s.seq.Close(); err == nil {
			err = serr
		}
	}

	return err
}

// Next returns the next record, or io.EOF after the last one
func (s *Scanner) Next() (*RawEntry, error) {

	if s.seq != nil {
		return s.nextPaired()
	}

	return s.nextSingle()
}

// findMarker skips to the next >>>> line
func findMarker(r *lineReader) (string, int64, error) {

	for {
		line, pos, err := r.ReadLine()
		if err != nil {
			return "", pos, err
		}
		if strings.HasPrefix(line, gcgMarker) {
			return line, pos, nil
		}
	}
}

// skipPayload passes the documentation line and the stored residues
func (s *Scanner) skipPayload(hdr *seqHeader) error {

	_, _, err := s.seq.ReadLine()
	if err == io.EOF {
		return truncatedError("end of file in header of %s in '%s'", hdr.ID, s.src.SeqPath)
	}
	if err != nil {
		return err
	}

	err = s.seq.Skip(hdr.payload())
	if err == io.ErrUnexpectedEOF {
		return truncatedError("end of file in sequence of %s in '%s'", hdr.ID, s.src.SeqPath)
	}

	return err
}

// readAnnotation feeds reference lines up to the next marker to the parser
func (s *Scanner) readAnnotation() (string, []string, error) {

	s.parser.Reset()

	id := ""
	var accs []string

	for {
		line, _, err := s.ref.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}
		if strings.HasPrefix(line, gcgMarker) {
			s.ref.Unread()
			break
		}

		res := s.parser.ParseLine(line, id)
		switch res.Kind {
		case IDLINE:
			id = res.ID
		case ACCLINE:
			accs = append(accs, res.Accessions...)
		}
	}

	return id, accs, nil
}

// skipAnnotation passes reference lines up to the next marker
func (s *Scanner) skipAnnotation() error {

	for {
		line, _, err := s.ref.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, gcgMarker) {
			s.ref.Unread()
			return nil
		}
	}
}

// seqFragments consumes sequence records continuing a split entry
func (s *Scanner) seqFragments(prefix string) (int, int64, error) {

	count := 0
	var length int64

	for {
		line, _, err := findMarker(s.seq)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, err
		}
		hdr, err := parseSeqHeader(line)
		if err != nil {
			return 0, 0, err
		}
		if !IsSplitPart(hdr.ID, prefix) {
			s.seq.Unread()
			break
		}
		if err := s.skipPayload(hdr); err != nil {
			return 0, 0, err
		}
		count++
		length += hdr.Length
	}

	return count, length, nil
}

// refFragments consumes reference records continuing a split entry
func (s *Scanner) refFragments(prefix string) (int, error) {

	count := 0

	for {
		line, _, err := findMarker(s.ref)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if !IsSplitPart(markerName(line), prefix) {
			s.ref.Unread()
			break
		}
		if err := s.skipAnnotation(); err != nil {
			return 0, err
		}
		count++
	}

	return count, nil
}

func (s *Scanner) nextPaired() (*RawEntry, error) {

	line, seqPos, err := findMarker(s.seq)
	if err == io.EOF {
		// left over reference records mean the two streams were built separately
		if rline, _, rerr := findMarker(s.ref); rerr == nil {
			s.lg.Warnf("reference file '%s' has entry %s beyond the end of '%s'",
				s.src.RefPath, markerName(rline), s.src.SeqPath)
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}

	hdr, err := parseSeqHeader(line)
	if err != nil {
		return nil, err
	}
	if err := s.skipPayload(hdr); err != nil {
		return nil, err
	}

	rline, refPos, err := findMarker(s.ref)
	if err == io.EOF {
		return nil, truncatedError("reference file '%s' ends before entry %s", s.src.RefPath, hdr.ID)
	}
	if err != nil {
		return nil, err
	}

	if rname := markerName(rline); rname != hdr.ID {
		s.lg.Warnf("reference name %s does not match sequence name %s in '%s'", rname, hdr.ID, s.src.RefPath)
	}

	ent := &RawEntry{
		ID:        hdr.ID,
		RefOffset: refPos,
		SeqOffset: seqPos,
		FileNum:   s.src.Ordinal,
		Length:    hdr.Length,
		Parts:     1,
	}

	annotID, accs, err := s.readAnnotation()
	if err != nil {
		return nil, err
	}
	ent.Accessions = accs

	if base, prefix, split := SplitBase(hdr.ID); split {

		// fragment runs are counted independently on each stream
		seqParts, length, err := s.seqFragments(prefix)
		if err != nil {
			return nil, err
		}
		refParts, err := s.refFragments(prefix)
		if err != nil {
			return nil, err
		}
		if seqParts != refParts {
			return nil, structureError("split entry %s has %d sequence parts but %d reference parts in '%s'",
				base, seqParts+1, refParts+1, s.src.RefPath)
		}

		ent.ID = base
		ent.Length += length
		ent.Parts += seqParts
	}

	return s.finishEntry(ent, annotID)
}

// readRecord parses one complete single-stream record
func (s *Scanner) readRecord() (*RawEntry, error) {

	var (
		line string
		pos  int64
		err  error
	)

	for {
		line, pos, err = s.ref.ReadLine()
		if err != nil {
			return nil, err
		}
		if s.dlct.StartsRecord(line) {
			break
		}
	}

	s.parser.Reset()

	res := s.parser.ParseLine(line, "")
	id := res.ID

	ent := &RawEntry{RefOffset: pos, SeqOffset: pos, FileNum: s.src.Ordinal, Parts: 1}

	inSeq := false

	for {
		line, _, err = s.ref.ReadLine()
		if err == io.EOF {
			name := id
			if name == "" {
				name = "at offset " + strconv.FormatInt(pos, 10)
			}
			return nil, truncatedError("end of file in entry %s in '%s'", name, s.src.RefPath)
		}
		if err != nil {
			return nil, err
		}
		if s.dlct.EndsRecord(line) {
			break
		}
		if s.dlct.StartsRecord(line) {
			s.ref.Unread()
			s.lg.Warnf("entry %s in '%s' has no terminator line", id, s.src.RefPath)
			break
		}
		if inSeq {
			ent.Length += countResidues(line)
			continue
		}
		if s.dlct.StartsSequence(line) {
			inSeq = true
			continue
		}

		res = s.parser.ParseLine(line, id)
		switch res.Kind {
		case IDLINE:
			id = res.ID
		case ACCLINE:
			ent.Accessions = append(ent.Accessions, res.Accessions...)
		}
	}

	if id == "" {
		return nil, structureError("entry at offset %d in '%s' has no identifier", pos, s.src.RefPath)
	}
	ent.ID = id

	return ent, nil
}

func countResidues(line string) int64 {

	var num int64

	for i := 0; i < len(line); i++ {
		ch := line[i]
		if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || ch == '*' || ch == '-' {
			num++
		}
	}

	return num
}

func (s *Scanner) nextSingle() (*RawEntry, error) {

	ent := s.pending
	s.pending = nil

	if ent == nil {
		var err error
		ent, err = s.readRecord()
		if err != nil {
			return nil, err
		}
	}

	if base, prefix, split := SplitBase(ent.ID); split {
		for {
			nxt, err := s.readRecord()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if !IsSplitPart(nxt.ID, prefix) {
				s.pending = nxt
				break
			}
			ent.Length += nxt.Length
			ent.Parts++
		}
		ent.ID = base
	}

	return s.finishEntry(ent, "")
}

// finishEntry normalizes keys, applies width limits, and removes repeated accessions
func (s *Scanner) finishEntry(ent *RawEntry, annotID string) (*RawEntry, error) {

	id := NormalizeKey(ent.ID)
	if id == "" {
		return nil, structureError("entry at offset %d in '%s' has no usable identifier", ent.RefOffset, s.src.RefPath)
	}

	if annotID != "" {
		aid := NormalizeKey(annotID)
		if base, _, split := SplitBase(aid); split {
			aid = base
		}
		if aid != id {
			s.lg.Warnf("annotation names entry %s as %s in '%s'", id, aid, s.src.RefPath)
		}
	}

	if short, cut := truncateKey(id, s.maxID); cut {
		s.lg.Warnf("identifier %s truncated to %s", id, short)
		id = short
	}
	ent.ID = id

	if ent.RefOffset > math.MaxUint32 || ent.SeqOffset > math.MaxUint32 {
		return nil, structureError("offset of entry %s exceeds the 4-byte index field", id)
	}

	if len(ent.Accessions) > 0 {
		seen := make(map[string]bool)
		var accs []string
		for _, acc := range ent.Accessions {
			acc = NormalizeKey(acc)
			if acc == "" {
				continue
			}
			if short, cut := truncateKey(acc, s.maxAcc); cut {
				s.lg.Warnf("accession %s of entry %s truncated to %s", acc, id, short)
				acc = short
			}
			if seen[acc] {
				continue
			}
			seen[acc] = true
			accs = append(accs, acc)
		}
		ent.Accessions = accs
	}

	return ent, nil
}
