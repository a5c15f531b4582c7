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
// File Name:  manifest_test.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {

	dir := t.TempDir()

	info, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Nil(t, info)

	info = &IndexInfo{
		DbName:     "embl",
		Release:    "141",
		Date:       "16/10/26",
		Dialect:    "embl",
		Layout:     LAYOUTGCG,
		Bulk:       "external",
		ByteOrder:  "big",
		HostOrder:  OrderName(HostOrder()),
		IDWidth:    8,
		AccWidth:   6,
		NameWidth:  11,
		Files:      2,
		Entries:    3,
		Accessions: 2,
		Hits:       3,
		Residues:   22,
	}
	tmp, err := createManifestTemp(dir, info)
	require.NoError(t, err)
	require.NoError(t, replaceAll([]stagedFile{{tmp: tmp, path: filepath.Join(dir, MANIFESTFILE)}}, nil))

	back, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, info, back)
	assert.Equal(t, binary.BigEndian, back.Order())

	data, err := os.ReadFile(filepath.Join(dir, MANIFESTFILE))
	require.NoError(t, err)
	assert.Contains(t, string(data), "byte-order = 'big'")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCountOf(t *testing.T) {

	assert.Equal(t, "1 entry", CountOf(1, "entry"))
	assert.Equal(t, "0 entries", CountOf(0, "entry"))
	assert.Equal(t, "12,345 accessions", CountOf(12345, "accession"))
}

func TestPrintDuration(t *testing.T) {

	var buf bytes.Buffer

	PrintDuration(&buf, nil, time.Second)
	assert.Empty(t, buf.String())

	PrintDuration(&buf, &IndexInfo{Entries: 2000, Accessions: 1, Hits: 2, Files: 1}, 2*time.Second)
	assert.Contains(t, buf.String(), "Indexed 2,000 entries, 1 accession, and 2 hits from 1 file")
	assert.Contains(t, buf.String(), "(1,000 entries/second)")
}
