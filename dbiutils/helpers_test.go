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
// File Name:  helpers_test.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// gcgRecord is one entry of a synthetic paired database
type gcgRecord struct {
	Name   string
	RefAs  string
	Seq    string
	TwoBit bool
	Lines  []string
}

// emblLines builds ID and AC lines for a record
func emblLines(id string, accs ...string) []string {

	lines := []string{"ID   " + id + "; SV 1; linear; DNA; STD; HUM; 10 BP."}
	if len(accs) > 0 {
		lines = append(lines, "AC   "+strings.Join(accs, "; ")+";")
	}
	lines = append(lines, "DE   synthetic entry "+id)

	return lines
}

// writeGCG writes base.seq and base.ref into dir
func writeGCG(t *testing.T, dir, base string, recs []gcgRecord) {

	t.Helper()

	var seq, ref bytes.Buffer

	for _, rec := range recs {
		kind := "ascii"
		payload := rec.Seq
		if rec.TwoBit {
			kind = "2bit"
			payload = strings.Repeat("\x1b", (len(rec.Seq)+3)/4)
		}
		fmt.Fprintf(&seq, ">>>>%s  16/10/26  %s  Len: %d  Check: 1234  ..\n", rec.Name, kind, len(rec.Seq))
		fmt.Fprintf(&seq, "synthetic sequence %s\n", rec.Name)
		seq.WriteString(payload)
		seq.WriteString("\n")

		name := rec.Name
		if rec.RefAs != "" {
			name = rec.RefAs
		}
		fmt.Fprintf(&ref, ">>>>%s\n", name)
		for _, line := range rec.Lines {
			ref.WriteString(line)
			ref.WriteString("\n")
		}
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, base+".seq"), seq.Bytes(), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, base+".ref"), ref.Bytes(), 0644))
}

// scenarioDatabase writes the two-file database of the acceptance scenario
func scenarioDatabase(t *testing.T) string {

	t.Helper()

	dir := t.TempDir()

	writeGCG(t, dir, "a", []gcgRecord{
		{Name: "A00001", Seq: "ACGTACGTAC", Lines: emblLines("A00001", "X1", "X2")},
		{Name: "A00002", Seq: "GGGGCCCC", Lines: emblLines("A00002", "X1")},
	})
	writeGCG(t, dir, "b", []gcgRecord{
		{Name: "B00001", Seq: "TTTT", Lines: emblLines("B00001")},
	})

	return dir
}

// testConfig returns a valid configuration over src writing to a new index directory
func testConfig(t *testing.T, src string) *Config {

	t.Helper()

	cfg := DefaultConfig()
	cfg.DbName = "testdb"
	cfg.Release = "1.0"
	cfg.Date = "16/10/26"
	cfg.Directory = src
	cfg.IndexDir = t.TempDir()

	return cfg
}

func quietLogger() (*Logger, *bytes.Buffer) {

	var buf bytes.Buffer

	return NewLogger(&buf, false), &buf
}

func readIndexFile(t *testing.T, dir, name string) []byte {

	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	return data
}
