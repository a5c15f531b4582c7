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
// File Name:  scan_test.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairedSource(dir, base string) *SourceFile {

	return &SourceFile{
		Ordinal: 1,
		RefName: base + ".ref",
		SeqName: base + ".seq",
		RefPath: filepath.Join(dir, base+".ref"),
		SeqPath: filepath.Join(dir, base+".seq"),
	}
}

func scanAll(t *testing.T, src *SourceFile, dialect string, lg *Logger) ([]*RawEntry, error) {

	t.Helper()

	dlct, err := LookupDialect(dialect)
	require.NoError(t, err)

	scnr, err := OpenScanner(src, dlct, 15, 15, lg)
	require.NoError(t, err)
	defer scnr.Close()

	var ents []*RawEntry
	for {
		ent, err := scnr.Next()
		if err == io.EOF {
			return ents, nil
		}
		if err != nil {
			return ents, err
		}
		ents = append(ents, ent)
	}
}

func TestScanPaired(t *testing.T) {

	dir := t.TempDir()
	writeGCG(t, dir, "db", []gcgRecord{
		{Name: "ONE", Seq: "ACGTACGTAA", Lines: emblLines("ONE", "A1", "A2", "a1")},
		{Name: "TWO", Seq: strings.Repeat("ACGT", 9) + "A", TwoBit: true, Lines: emblLines("TWO", "B1")},
		{Name: "THREE", Seq: "GG", Lines: emblLines("THREE")},
	})

	lg, buf := quietLogger()

	ents, err := scanAll(t, pairedSource(dir, "db"), "embl", lg)
	require.NoError(t, err)
	require.Len(t, ents, 3)

	assert.Equal(t, "ONE", ents[0].ID)
	assert.EqualValues(t, 0, ents[0].RefOffset)
	assert.EqualValues(t, 0, ents[0].SeqOffset)
	assert.EqualValues(t, 10, ents[0].Length)
	assert.Equal(t, []string{"A1", "A2"}, ents[0].Accessions)

	assert.Equal(t, "TWO", ents[1].ID)
	assert.EqualValues(t, 37, ents[1].Length)
	assert.Equal(t, []string{"B1"}, ents[1].Accessions)

	// third record found after skipping a 2bit payload of (37+3)/4 bytes
	assert.Equal(t, "THREE", ents[2].ID)
	assert.Empty(t, ents[2].Accessions)

	seq, err := os.ReadFile(filepath.Join(dir, "db.seq"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(seq[ents[2].SeqOffset:]), ">>>>THREE"))

	assert.Equal(t, 0, lg.Warnings(), buf.String())
}

func TestScanSplitRecords(t *testing.T) {

	dir := t.TempDir()
	writeGCG(t, dir, "db", []gcgRecord{
		{Name: "LONG_00", Seq: strings.Repeat("A", 10), Lines: emblLines("LONG", "L1")},
		{Name: "LONG_01", Seq: strings.Repeat("C", 5), Lines: emblLines("LONG")},
		{Name: "LONG_02", Seq: strings.Repeat("G", 7), Lines: emblLines("LONG")},
		{Name: "NEXT", Seq: "TT", Lines: emblLines("NEXT", "N1")},
	})

	lg, _ := quietLogger()

	ents, err := scanAll(t, pairedSource(dir, "db"), "embl", lg)
	require.NoError(t, err)
	require.Len(t, ents, 2)

	assert.Equal(t, "LONG", ents[0].ID)
	assert.EqualValues(t, 22, ents[0].Length)
	assert.Equal(t, 3, ents[0].Parts)
	assert.Equal(t, []string{"L1"}, ents[0].Accessions)

	assert.Equal(t, "NEXT", ents[1].ID)
	assert.Equal(t, []string{"N1"}, ents[1].Accessions)
}

func TestScanSplitMismatch(t *testing.T) {

	dir := t.TempDir()
	writeGCG(t, dir, "db", []gcgRecord{
		{Name: "LONG_0", Seq: "AAAA", Lines: emblLines("LONG", "L1")},
		{Name: "LONG_1", Seq: "CCCC", Lines: emblLines("LONG")},
		{Name: "LONG_2", RefAs: "OTHER", Seq: "GGGG", Lines: emblLines("OTHER")},
	})

	lg, _ := quietLogger()

	_, err := scanAll(t, pairedSource(dir, "db"), "embl", lg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructure), err.Error())
	assert.Contains(t, err.Error(), "LONG")
}

func TestScanNameMismatchWarns(t *testing.T) {

	dir := t.TempDir()
	writeGCG(t, dir, "db", []gcgRecord{
		{Name: "SEQNAME", RefAs: "REFNAME", Seq: "ACGT", Lines: emblLines("SEQNAME", "M1")},
	})

	lg, buf := quietLogger()

	ents, err := scanAll(t, pairedSource(dir, "db"), "embl", lg)
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, "SEQNAME", ents[0].ID)
	assert.Equal(t, 1, lg.Warnings())
	assert.Contains(t, buf.String(), "REFNAME")
}

func TestScanReferenceEndsEarly(t *testing.T) {

	dir := t.TempDir()
	writeGCG(t, dir, "db", []gcgRecord{
		{Name: "ONE", Seq: "ACGT", Lines: emblLines("ONE", "A1")},
		{Name: "TWO", Seq: "ACGT", Lines: emblLines("TWO", "A2")},
	})

	ref := filepath.Join(dir, "db.ref")
	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	cut := strings.Index(string(data), ">>>>TWO")
	require.NoError(t, os.WriteFile(ref, data[:cut], 0644))

	lg, _ := quietLogger()

	ents, err := scanAll(t, pairedSource(dir, "db"), "embl", lg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.Contains(t, err.Error(), "TWO")
	assert.Len(t, ents, 1)
}

func TestScanMissingLength(t *testing.T) {

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db.seq"), []byte(">>>>ONE ascii\ndoc\nACGT\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db.ref"), []byte(">>>>ONE\nAC   A1;\n"), 0644))

	lg, _ := quietLogger()

	_, err := scanAll(t, pairedSource(dir, "db"), "embl", lg)
	assert.True(t, errors.Is(err, ErrStructure))
}

func TestScanTruncatesLongKeys(t *testing.T) {

	dir := t.TempDir()
	writeGCG(t, dir, "db", []gcgRecord{
		{Name: "VERYLONGENTRYNAME123", Seq: "ACGT", Lines: emblLines("VERYLONGENTRYNAME123", "ACCESSIONTOOLONG99")},
	})

	lg, _ := quietLogger()

	ents, err := scanAll(t, pairedSource(dir, "db"), "embl", lg)
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, "VERYLONGENTRYNA", ents[0].ID)
	assert.Equal(t, []string{"ACCESSIONTOOLON"}, ents[0].Accessions)
	assert.Equal(t, 2, lg.Warnings())
}

func TestScanSingleStreamTruncated(t *testing.T) {

	dir := t.TempDir()
	text := "LOCUS       AB000001     10 bp    DNA\nACCESSION   AB000001\nORIGIN\n        1 acgtacgtac\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gb.dat"), []byte(text), 0644))

	src := &SourceFile{Ordinal: 1, RefName: "gb.dat", RefPath: filepath.Join(dir, "gb.dat")}
	lg, _ := quietLogger()

	_, err := scanAll(t, src, "genbank", lg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.Contains(t, err.Error(), "AB000001")
}

func TestScanSingleStreamGenBank(t *testing.T) {

	dir := t.TempDir()
	text := strings.Join([]string{
		"LOCUS       AB000001     10 bp    DNA     linear   PRI 01-JAN-2000",
		"DEFINITION  test.",
		"ACCESSION   AB000001 AB000002",
		"            AB000003",
		"VERSION     AB000001.1",
		"ORIGIN",
		"        1 acgtacgtac",
		"//",
		"LOCUS       AB000009     3 bp    DNA",
		"ACCESSION   AB000009 REGION: 1..3",
		"ORIGIN",
		"        1 acg",
		"//",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gb.dat"), []byte(text), 0644))

	src := &SourceFile{Ordinal: 1, RefName: "gb.dat", RefPath: filepath.Join(dir, "gb.dat")}
	lg, _ := quietLogger()

	ents, err := scanAll(t, src, "genbank", lg)
	require.NoError(t, err)
	require.Len(t, ents, 2)

	assert.Equal(t, "AB000001", ents[0].ID)
	assert.Equal(t, []string{"AB000001", "AB000002", "AB000003"}, ents[0].Accessions)
	assert.EqualValues(t, 10, ents[0].Length)

	assert.Equal(t, "AB000009", ents[1].ID)
	assert.Equal(t, []string{"AB000009"}, ents[1].Accessions)
	assert.True(t, strings.HasPrefix(text[ents[1].RefOffset:], "LOCUS       AB000009"))
}

func flatSource(t *testing.T, name string, lines ...string) *SourceFile {

	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	return &SourceFile{Ordinal: 1, RefName: name, RefPath: path}
}

func TestScanSingleStreamSplitRecords(t *testing.T) {

	src := flatSource(t, "split.dat",
		"ID   BIG_0; SV 1; linear; DNA; STD; HUM; 4 BP.",
		"AC   K1;",
		"SQ   Sequence 4 BP;",
		"     acgt",
		"//",
		"ID   BIG_1; SV 1; linear; DNA; STD; HUM; 3 BP.",
		"AC   K2;",
		"SQ   Sequence 3 BP;",
		"     acg",
		"//",
		"ID   BIG_2; SV 1; linear; DNA; STD; HUM; 2 BP.",
		"SQ   Sequence 2 BP;",
		"     ac",
		"//",
		"ID   ZED; SV 1; linear; DNA; STD; HUM; 1 BP.",
		"AC   Z1;",
		"SQ   Sequence 1 BP;",
		"     a",
		"//",
	)

	lg, buf := quietLogger()

	ents, err := scanAll(t, src, "embl", lg)
	require.NoError(t, err)
	require.Len(t, ents, 2)

	assert.Equal(t, "BIG", ents[0].ID)
	assert.EqualValues(t, 9, ents[0].Length)
	assert.Equal(t, 3, ents[0].Parts)
	assert.EqualValues(t, 0, ents[0].RefOffset)
	assert.Equal(t, []string{"K1"}, ents[0].Accessions)

	// record read ahead while merging is still returned
	assert.Equal(t, "ZED", ents[1].ID)
	assert.EqualValues(t, 1, ents[1].Length)
	assert.Equal(t, 1, ents[1].Parts)
	assert.Equal(t, []string{"Z1"}, ents[1].Accessions)

	assert.Equal(t, 0, lg.Warnings(), buf.String())
}

func TestScanSingleStreamPIR(t *testing.T) {

	src := flatSource(t, "pir.dat",
		"ENTRY           CCHU       #type complete",
		"TITLE           cytochrome c - human",
		"ACCESSIONS      A31764; A05676;",
		"                A00001",
		"SEQUENCE",
		"                5        10",
		"      1 G D V E K G K K I F",
		"///",
		"ENTRY           CCHO       #type complete",
		"ACCESSIONS      A00002",
		"SEQUENCE",
		"      1 M K",
		"///",
	)

	lg, _ := quietLogger()

	ents, err := scanAll(t, src, "pir", lg)
	require.NoError(t, err)
	require.Len(t, ents, 2)

	assert.Equal(t, "CCHU", ents[0].ID)
	assert.EqualValues(t, 10, ents[0].Length)
	assert.Equal(t, []string{"A31764", "A05676", "A00001"}, ents[0].Accessions)

	assert.Equal(t, "CCHO", ents[1].ID)
	assert.EqualValues(t, 2, ents[1].Length)
	assert.Equal(t, []string{"A00002"}, ents[1].Accessions)

	data, err := os.ReadFile(src.RefPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data[ents[1].RefOffset:]), "ENTRY           CCHO"))
}

func TestScanSingleStreamPIRNeedsTripleSlash(t *testing.T) {

	src := flatSource(t, "pir.dat",
		"ENTRY           CCHU",
		"ACCESSIONS      A31764",
		"SEQUENCE",
		"      1 G D V",
		"//",
	)

	lg, _ := quietLogger()

	_, err := scanAll(t, src, "pir", lg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.Contains(t, err.Error(), "CCHU")
}
