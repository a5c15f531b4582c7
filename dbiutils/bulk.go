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
// File Name:  bulk.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"io"
	"sort"
)

// Entry is one row of the entry-name table
type Entry struct {
	ID        string
	FileNum   uint16
	RefOffset uint32
	SeqOffset uint32
}

// Link ties an accession to the identifier of the entry that carries it,
// Ordinal being filled in by the cross-referencer
type Link struct {
	ID      string
	Acc     string
	Ordinal uint32
}

// EntryStream yields entries in identifier order, nil and io.EOF at the end
type EntryStream interface {
	Next() (*Entry, error)
}

// LinkStream yields links in the order promised by its producer
type LinkStream interface {
	Next() (*Link, error)
}

// Bulk holds everything the scanner produced and returns it sorted.
// AddStamped accepts links after cross-referencing, and Stamped returns them
// ordered by accession, then by entry ordinal.
type Bulk interface {
	StartFile(src *SourceFile) error
	AddEntry(ent *Entry) error
	AddLink(lnk *Link) error
	EndFile() error

	Entries() (EntryStream, error)
	Links() (LinkStream, error)

	AddStamped(lnk *Link) error
	Stamped() (LinkStream, error)

	Cleanup() error
}

// NewBulk returns the store for a resolved bulk mode
func NewBulk(mode BulkMode, cfg *Config, lg *Logger) (Bulk, error) {

	switch mode {
	case MEMORY:
		return &memoryBulk{}, nil
	case EXTERNAL:
		return newExternalBulk(cfg, lg)
	}

	return nil, configError("bulk mode %s must be resolved before use", mode)
}

// comparators shared by both modes, intermediate line formats sort the same way

func lessEntry(a, b *Entry) bool {

	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if a.FileNum != b.FileNum {
		return a.FileNum < b.FileNum
	}
	if a.RefOffset != b.RefOffset {
		return a.RefOffset < b.RefOffset
	}
	return a.SeqOffset < b.SeqOffset
}

func lessLink(a, b *Link) bool {

	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Acc < b.Acc
}

func lessStamped(a, b *Link) bool {

	if a.Acc != b.Acc {
		return a.Acc < b.Acc
	}
	return a.Ordinal < b.Ordinal
}

type sliceEntryStream struct {
	arry []*Entry
	pos  int
}

func (s *sliceEntryStream) Next() (*Entry, error) {

	if s.pos >= len(s.arry) {
		return nil, io.EOF
	}
	ent := s.arry[s.pos]
	s.pos++

	return ent, nil
}

type sliceLinkStream struct {
	arry []*Link
	pos  int
}

func (s *sliceLinkStream) Next() (*Link, error) {

	if s.pos >= len(s.arry) {
		return nil, io.EOF
	}
	lnk := s.arry[s.pos]
	s.pos++

	return lnk, nil
}

// memoryBulk keeps pointer arrays and sorts them with the comparators above
type memoryBulk struct {
	fileNum uint16
	entries []*Entry
	links   []*Link
	stamped []*Link
}

func (mb *memoryBulk) StartFile(src *SourceFile) error {

	mb.fileNum = uint16(src.Ordinal)

	return nil
}

func (mb *memoryBulk) AddEntry(ent *Entry) error {

	ent.FileNum = mb.fileNum
	mb.entries = append(mb.entries, ent)

	return nil
}

func (mb *memoryBulk) AddLink(lnk *Link) error {

	mb.links = append(mb.links, lnk)

	return nil
}

func (mb *memoryBulk) EndFile() error {

	return nil
}

func (mb *memoryBulk) Entries() (EntryStream, error) {

	sort.Slice(mb.entries, func(i, j int) bool { return lessEntry(mb.entries[i], mb.entries[j]) })

	return &sliceEntryStream{arry: mb.entries}, nil
}

func (mb *memoryBulk) Links() (LinkStream, error) {

	sort.Slice(mb.links, func(i, j int) bool { return lessLink(mb.links[i], mb.links[j]) })

	return &sliceLinkStream{arry: mb.links}, nil
}

func (mb *memoryBulk) AddStamped(lnk *Link) error {

	mb.stamped = append(mb.stamped, lnk)

	return nil
}

func (mb *memoryBulk) Stamped() (LinkStream, error) {

	sort.Slice(mb.stamped, func(i, j int) bool { return lessStamped(mb.stamped[i], mb.stamped[j]) })

	return &sliceLinkStream{arry: mb.stamped}, nil
}

func (mb *memoryBulk) Cleanup() error {

	mb.entries = nil
	mb.links = nil
	mb.stamped = nil

	return nil
}
