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
// File Name:  manifest.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// MANIFESTFILE describes the index set in the index directory
const MANIFESTFILE = "dbinfo.toml"

// IndexInfo summarizes one build, without timestamps so rebuilds are identical
type IndexInfo struct {
	DbName    string `toml:"dbname" comment:"database name"`
	Release   string `toml:"release" comment:"release tag"`
	Date      string `toml:"date" comment:"release date, DD/MM/YY"`
	Dialect   string `toml:"idformat" comment:"annotation format"`
	Layout    string `toml:"layout" comment:"gcg or flat"`
	Bulk      string `toml:"bulk" comment:"sorting mode used"`
	ByteOrder string `toml:"byte-order" comment:"byte order of index integers"`
	HostOrder string `toml:"host-order" comment:"native byte order of the indexing machine"`

	IDWidth   int `toml:"id-width" comment:"identifier field width"`
	AccWidth  int `toml:"acc-width" comment:"accession field width"`
	NameWidth int `toml:"name-width" comment:"division name field width"`

	Files      int   `toml:"files" comment:"number of source files"`
	Entries    int   `toml:"entries" comment:"number of entries"`
	Accessions int   `toml:"accessions" comment:"number of distinct accessions"`
	Hits       int   `toml:"hits" comment:"number of accession occurrences"`
	Residues   int64 `toml:"residues" comment:"total sequence length"`
}

// Order returns the byte order named in the manifest
func (info *IndexInfo) Order() binary.ByteOrder {

	return DiskOrder(info.ByteOrder == "big")
}

// createManifestTemp writes the encoded manifest to a new temporary file in dir
func createManifestTemp(dir string, info *IndexInfo) (string, error) {

	data, err := toml.Marshal(info)
	if err != nil {
		return "", ioError(err, "unable to encode manifest")
	}

	fl, err := os.CreateTemp(dir, "."+MANIFESTFILE+".tmp-*")
	if err != nil {
		return "", ioError(err, "unable to create manifest")
	}
	tmp := fl.Name()

	if _, err := fl.Write(data); err != nil {
		fl.Close()
		os.Remove(tmp)
		return "", ioError(err, "unable to write manifest")
	}
	if err := fl.Sync(); err != nil {
		fl.Close()
		os.Remove(tmp)
		return "", ioError(err, "unable to sync manifest")
	}
	if err := fl.Close(); err != nil {
		os.Remove(tmp)
		return "", ioError(err, "unable to write manifest")
	}

	return tmp, nil
}

// ReadManifest loads dbinfo.toml, returning nil without error if it is absent
func ReadManifest(dir string) (*IndexInfo, error) {

	data, err := os.ReadFile(filepath.Join(dir, MANIFESTFILE))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, ioError(err, "unable to read manifest")
	}

	info := &IndexInfo{}
	if err := toml.Unmarshal(data, info); err != nil {
		return nil, ioError(err, "unable to parse manifest")
	}

	return info, nil
}
