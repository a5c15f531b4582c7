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
// File Name:  logger.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Logger writes warnings and progress notes, counting the warnings
type Logger struct {
	out      io.Writer
	quiet    bool
	warnings int
	mu       sync.Mutex

	warnColor *color.Color
	errColor  *color.Color
	infoColor *color.Color
}

// NewLogger returns a logger on the given writer, os.Stderr if nil
func NewLogger(out io.Writer, quiet bool) *Logger {

	if out == nil {
		out = os.Stderr
	}

	lg := &Logger{out: out, quiet: quiet}

	lg.warnColor = color.New()
	lg.warnColor.Add(color.FgYellow)
	lg.errColor = color.New()
	lg.errColor.Add(color.FgRed, color.Bold)
	lg.infoColor = color.New()
	lg.infoColor.Add(color.FgBlue)

	// only colorize the real terminal, never a captured buffer
	if out != os.Stderr {
		lg.warnColor.DisableColor()
		lg.errColor.DisableColor()
		lg.infoColor.DisableColor()
	}

	return lg
}

// Warnf records a data-quality problem that does not stop the run
func (lg *Logger) Warnf(format string, args ...interface{}) {

	if lg == nil {
		return
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	lg.warnings++
	if lg.quiet {
		return
	}

	lg.warnColor.Fprintf(lg.out, "WARNING:")
	fmt.Fprintf(lg.out, " %s\n", fmt.Sprintf(format, args...))
}

// Errorf prints a fatal message in the same form the commands use before exiting
func (lg *Logger) Errorf(format string, args ...interface{}) {

	if lg == nil {
		return
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	fmt.Fprintf(lg.out, "\n")
	lg.errColor.Fprintf(lg.out, "ERROR:")
	fmt.Fprintf(lg.out, " %s\n", fmt.Sprintf(format, args...))
}

// Infof prints a progress note unless quiet
func (lg *Logger) Infof(format string, args ...interface{}) {

	if lg == nil {
		return
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	if lg.quiet {
		return
	}

	lg.infoColor.Fprintf(lg.out, "%s\n", fmt.Sprintf(format, args...))
}

// Warnings returns the number of warnings issued so far
func (lg *Logger) Warnings() int {

	if lg == nil {
		return 0
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	return lg.warnings
}
