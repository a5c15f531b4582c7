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
// File Name:  index_test.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() Header {

	return Header{DbName: "testdb", Release: "1.0", Date: [4]byte{0, 26, 10, 16}}
}

func TestHeaderLayout(t *testing.T) {

	hdr := Header{FileSize: 0x01020304, RecCount: 7, RecWidth: 25, DbName: "embl", Release: "141", Date: [4]byte{0, 99, 12, 31}}

	buf := hdr.Encode(binary.LittleEndian)
	require.Len(t, buf, HEADERSIZE)

	assert.Equal(t, []byte{4, 3, 2, 1}, buf[0:4])
	assert.Equal(t, []byte{7, 0, 0, 0}, buf[4:8])
	assert.Equal(t, []byte{25, 0}, buf[8:10])
	assert.Equal(t, "embl", string(buf[10:14]))
	assert.Equal(t, make([]byte, 16), buf[14:30])
	assert.Equal(t, "141", string(buf[30:33]))
	assert.Equal(t, []byte{0, 99, 12, 31}, buf[40:44])
	assert.Equal(t, make([]byte, 256), buf[44:])

	big := hdr.Encode(binary.BigEndian)
	assert.Equal(t, []byte{1, 2, 3, 4}, big[0:4])
	assert.Equal(t, buf[10:], big[10:])

	back, err := DecodeHeader(big, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, hdr, *back)

	_, err = DecodeHeader(buf[:100], binary.LittleEndian)
	assert.True(t, errors.Is(err, ErrStructure))
}

func TestRecordEncoders(t *testing.T) {

	ord := binary.LittleEndian

	div := EncodeDivision(ord, 3, "a.ref a.seq", 12)
	assert.Equal(t, append([]byte{3, 0}, []byte("a.ref a.seq\x00")...), div)

	ent := EncodeEntry(ord, &Entry{ID: "AB1", RefOffset: 0x100, SeqOffset: 2, FileNum: 5}, 4)
	assert.Equal(t, []byte{'A', 'B', '1', 0, 0, 1, 0, 0, 2, 0, 0, 0, 5, 0}, ent)

	trg := EncodeTarget(ord, 2, 9, "X1", 3)
	assert.Equal(t, []byte{2, 0, 0, 0, 9, 0, 0, 0, 'X', '1', 0}, trg)

	assert.Equal(t, []byte{0, 0, 0, 7}, EncodeHit(binary.BigEndian, 7))
}

func TestIndexWriterRoundTrip(t *testing.T) {

	dir := t.TempDir()

	lg, buf := quietLogger()

	wrtr, err := CreateIndexWriter(dir, testHeader(), Widths{ID: 6, Acc: 4, Name: 11}, binary.BigEndian, lg)
	require.NoError(t, err)

	require.NoError(t, wrtr.WriteDivision(&SourceFile{Ordinal: 1, RefName: "a.ref", SeqName: "a.seq"}))
	require.NoError(t, wrtr.WriteEntry(1, &Entry{ID: "A00001", FileNum: 1, RefOffset: 0, SeqOffset: 0}))
	require.NoError(t, wrtr.WriteEntry(2, &Entry{ID: "A00002", FileNum: 1, RefOffset: 90, SeqOffset: 80}))

	require.NoError(t, wrtr.WriteHit(&Link{Acc: "X1", Ordinal: 1}))
	require.NoError(t, wrtr.WriteHit(&Link{Acc: "X1", Ordinal: 2}))
	require.NoError(t, wrtr.WriteHit(&Link{Acc: "X2", Ordinal: 1}))

	require.NoError(t, wrtr.Finish())

	// nothing is visible until commit
	_, err = os.Stat(filepath.Join(dir, ENTRYFILE))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, wrtr.Commit())
	assert.Equal(t, 0, lg.Warnings(), buf.String())

	assert.Equal(t, 2, wrtr.Targets())
	assert.Equal(t, 3, wrtr.Hits())

	trg := readIndexFile(t, dir, TARGETFILE)
	require.Len(t, trg, HEADERSIZE+2*12)
	hdr, err := DecodeHeader(trg, binary.BigEndian)
	require.NoError(t, err)
	assert.EqualValues(t, len(trg), hdr.FileSize)
	assert.EqualValues(t, 2, hdr.RecCount)
	assert.EqualValues(t, 12, hdr.RecWidth)
	assert.Equal(t, "testdb", hdr.DbName)

	ix, err := OpenIndex(dir)
	require.NoError(t, err)
	defer ix.Close()

	assert.Equal(t, binary.BigEndian, ix.Order())
	assert.EqualValues(t, 2, ix.NumEntries())
	assert.Equal(t, "a.ref a.seq", ix.DivisionName(1))

	ent, ord, err := ix.FindEntry("a00002")
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.EqualValues(t, 2, ord)
	assert.EqualValues(t, 90, ent.RefOffset)
	assert.EqualValues(t, 80, ent.SeqOffset)

	ent, _, err = ix.FindEntry("A00003")
	require.NoError(t, err)
	assert.Nil(t, ent)

	ords, err := ix.FindAccession("x1")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, ords)

	ords, err = ix.FindAccession("X2")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, ords)

	ords, err = ix.FindAccession("X3")
	require.NoError(t, err)
	assert.Empty(t, ords)
}

func TestIndexWriterOrderChecks(t *testing.T) {

	dir := t.TempDir()

	wrtr, err := CreateIndexWriter(dir, testHeader(), Widths{ID: 4, Acc: 4, Name: 4}, binary.LittleEndian, nil)
	require.NoError(t, err)
	defer wrtr.Abort()

	err = wrtr.WriteEntry(2, &Entry{ID: "A"})
	assert.True(t, errors.Is(err, ErrStructure))

	require.NoError(t, wrtr.WriteHit(&Link{Acc: "X2", Ordinal: 3}))
	err = wrtr.WriteHit(&Link{Acc: "X2", Ordinal: 1})
	assert.True(t, errors.Is(err, ErrStructure))

	err = wrtr.WriteHit(&Link{Acc: "X1", Ordinal: 5})
	assert.True(t, errors.Is(err, ErrStructure))
}

func TestIndexWriterAbort(t *testing.T) {

	dir := t.TempDir()

	wrtr, err := CreateIndexWriter(dir, testHeader(), Widths{ID: 4, Acc: 4, Name: 4}, binary.LittleEndian, nil)
	require.NoError(t, err)
	require.NoError(t, wrtr.WriteEntry(1, &Entry{ID: "A"}))
	wrtr.Abort()

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOpenIndexRejectsDamage(t *testing.T) {

	dir := t.TempDir()

	wrtr, err := CreateIndexWriter(dir, testHeader(), Widths{ID: 4, Acc: 4, Name: 4}, binary.LittleEndian, nil)
	require.NoError(t, err)
	require.NoError(t, wrtr.WriteEntry(1, &Entry{ID: "A"}))
	require.NoError(t, wrtr.Finish())
	require.NoError(t, wrtr.Commit())

	path := filepath.Join(dir, ENTRYFILE)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, 0), 0644))

	_, err = OpenIndex(dir)
	assert.True(t, errors.Is(err, ErrStructure))
}

func TestOrderNames(t *testing.T) {

	assert.Equal(t, "little", OrderName(DiskOrder(false)))
	assert.Equal(t, "big", OrderName(DiskOrder(true)))

	host := HostOrder()
	assert.True(t, host == binary.LittleEndian || host == binary.BigEndian)
}

// smallIndex writes and commits a one-entry index whose entry is named id
func smallIndex(t *testing.T, dir, id string) *IndexWriter {

	t.Helper()

	wrtr, err := CreateIndexWriter(dir, testHeader(), Widths{ID: 8, Acc: 4, Name: 4}, binary.LittleEndian, nil)
	require.NoError(t, err)
	require.NoError(t, wrtr.WriteDivision(&SourceFile{Ordinal: 1, RefName: "a"}))
	require.NoError(t, wrtr.WriteEntry(1, &Entry{ID: id}))
	require.NoError(t, wrtr.WriteHit(&Link{Acc: "X1", Ordinal: 1}))
	require.NoError(t, wrtr.Finish())

	return wrtr
}

func snapshot(t *testing.T, dir string) map[string][]byte {

	t.Helper()

	files := make(map[string][]byte)
	for _, name := range IndexFiles {
		files[name] = readIndexFile(t, dir, name)
	}

	return files
}

func TestCommitRestoresOnFailure(t *testing.T) {

	dir := t.TempDir()

	require.NoError(t, smallIndex(t, dir, "OLD").Commit())
	before := snapshot(t, dir)

	// the hit file cannot be moved aside, after three others already were
	blocker := filepath.Join(dir, HITFILE+BACKUPSUFFIX)
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "x"), 0755))

	wrtr := smallIndex(t, dir, "NEWER")
	err := wrtr.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	wrtr.Abort()

	assert.Equal(t, before, snapshot(t, dir))

	names, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, fi := range names {
		if fi.Name() == HITFILE+BACKUPSUFFIX {
			continue
		}
		assert.NotContains(t, fi.Name(), BACKUPSUFFIX)
		assert.NotContains(t, fi.Name(), ".tmp-")
	}
}

func TestCommitRejectsDirectoryTarget(t *testing.T) {

	dir := t.TempDir()

	require.NoError(t, smallIndex(t, dir, "OLD").Commit())
	entries := readIndexFile(t, dir, ENTRYFILE)

	target := filepath.Join(dir, TARGETFILE)
	require.NoError(t, os.Remove(target))
	require.NoError(t, os.MkdirAll(filepath.Join(target, "x"), 0755))

	wrtr := smallIndex(t, dir, "NEWER")
	err := wrtr.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	wrtr.Abort()

	assert.Equal(t, entries, readIndexFile(t, dir, ENTRYFILE))
}

func TestCommitStagedManifest(t *testing.T) {

	dir := t.TempDir()

	wrtr := smallIndex(t, dir, "ONE")
	require.NoError(t, wrtr.StageManifest(&IndexInfo{DbName: "testdb", ByteOrder: "little", Entries: 1}))

	// staged manifest is invisible until commit
	_, err := os.Stat(filepath.Join(dir, MANIFESTFILE))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, wrtr.Commit())

	info, err := ReadManifest(dir)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 1, info.Entries)
}

func TestSyncDirReportsFailure(t *testing.T) {

	assert.NoError(t, syncDir(t.TempDir()))
	assert.Error(t, syncDir(filepath.Join(t.TempDir(), "absent")))
}
