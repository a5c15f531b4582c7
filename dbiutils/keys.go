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
// File Name:  keys.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"strings"
	"unicode"

	"github.com/rainycape/unidecode"
)

// NormalizeKey folds an identifier or accession to upper-case printable ASCII,
// so byte order of keys is independent of source encoding and no key character
// sorts below the tab that separates intermediate fields
func NormalizeKey(str string) string {

	isASCII := true
	for i := 0; i < len(str); i++ {
		if str[i] >= 0x80 {
			isASCII = false
			break
		}
	}

	if !isASCII {
		str = unidecode.Unidecode(str)
	}

	var buffer strings.Builder

	for _, ch := range str {
		if ch <= ' ' || ch == 0x7F || unicode.IsSpace(ch) {
			continue
		}
		buffer.WriteRune(unicode.ToUpper(ch))
	}

	return buffer.String()
}

// truncateKey shortens a key to max bytes, reporting whether it was cut
func truncateKey(str string, max int) (string, bool) {

	if max > 0 && len(str) > max {
		return str[:max], true
	}

	return str, false
}

// SplitBase reports whether id names the first fragment of a split record,
// returning the shared name and the prefix every later fragment starts with
func SplitBase(id string) (string, string, bool) {

	if strings.HasSuffix(id, "_00") {
		base := id[:len(id)-3]
		if base != "" {
			return base, base + "_", true
		}
	}
	if strings.HasSuffix(id, "_0") {
		base := id[:len(id)-2]
		if base != "" {
			return base, base + "_", true
		}
	}

	return id, "", false
}

// IsSplitPart reports whether id is a numbered fragment following prefix
func IsSplitPart(id, prefix string) bool {

	if prefix == "" || !strings.HasPrefix(id, prefix) {
		return false
	}

	num := id[len(prefix):]
	if num == "" {
		return false
	}

	for _, ch := range num {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}
