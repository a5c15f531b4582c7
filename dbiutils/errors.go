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
// File Name:  errors.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"errors"
	"fmt"
)

// error kinds, every fatal condition wraps exactly one of these
var (
	// ErrConfig reports an unusable setting, detected before any output is written
	ErrConfig = errors.New("configuration error")

	// ErrIO reports a failure to open, read, or write a source, temporary, or index file
	ErrIO = errors.New("i/o error")

	// ErrStructure reports inconsistent database content, such as split
	// records that end at different places in the two streams or an
	// accession that cannot be resolved to an entry
	ErrStructure = errors.New("structural error")

	// ErrTruncated reports end of file inside a record
	ErrTruncated = errors.New("truncated record")
)

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

func ioError(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %v", ErrIO, fmt.Sprintf(format, args...), err)
}

func structureError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStructure, fmt.Sprintf(format, args...))
}

func truncatedError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTruncated, fmt.Sprintf(format, args...))
}
