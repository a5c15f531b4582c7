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
// File Name:  linesort.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/klauspost/pgzip"
	"github.com/twotwotwo/sorts/sortutil"
)

// lineFile reads one intermediate file, decompressing if needed
type lineFile struct {
	*bufio.Scanner
	fl *os.File
	zr *pgzip.Reader
}

func openLineFile(fileName string, zipp bool) (*lineFile, error) {

	fl, err := os.Open(fileName)
	if err != nil {
		return nil, ioError(err, "unable to open intermediate file '%s'", fileName)
	}

	lf := &lineFile{fl: fl}

	var in io.Reader = bufio.NewReaderSize(fl, 65536)

	// use decompressor for reading file
	if zipp {
		zr, err := pgzip.NewReader(in)
		if err != nil {
			fl.Close()
			return nil, ioError(err, "unable to create decompressor on '%s'", fileName)
		}
		lf.zr = zr
		in = zr
	}

	lf.Scanner = bufio.NewScanner(in)
	lf.Scanner.Buffer(make([]byte, 65536), 16*1024*1024)

	return lf, nil
}

func (lf *lineFile) Close() error {

	if lf.zr != nil {
		lf.zr.Close()
	}

	return lf.fl.Close()
}

// lineWriter writes one intermediate file, compressing if requested
type lineWriter struct {
	name  string
	fl    *os.File
	zw    *pgzip.Writer
	wrtr  *bufio.Writer
	count int
}

func createLineWriter(fileName string, zipp bool) (*lineWriter, error) {

	// overwrites and truncates existing file
	fl, err := os.Create(fileName)
	if err != nil {
		return nil, ioError(err, "unable to create intermediate file '%s'", fileName)
	}

	lw := &lineWriter{name: fileName, fl: fl}

	var out io.Writer = fl

	if zipp {
		zw, err := pgzip.NewWriterLevel(fl, pgzip.BestSpeed)
		if err != nil {
			fl.Close()
			return nil, ioError(err, "unable to create compressor on '%s'", fileName)
		}
		lw.zw = zw
		out = zw
	}

	lw.wrtr = bufio.NewWriterSize(out, 65536)

	return lw, nil
}

func (lw *lineWriter) WriteLine(str string) error {

	lw.wrtr.WriteString(str)
	if err := lw.wrtr.WriteByte('\n'); err != nil {
		return ioError(err, "unable to write '%s'", lw.name)
	}
	lw.count++

	return nil
}

func (lw *lineWriter) Close() error {

	if lw == nil || lw.fl == nil {
		return nil
	}

	err := lw.wrtr.Flush()
	if lw.zw != nil {
		if zerr := lw.zw.Close(); err == nil {
			err = zerr
		}
	}
	if cerr := lw.fl.Close(); err == nil {
		err = cerr
	}
	lw.fl = nil

	if err != nil {
		return ioError(err, "unable to write '%s'", lw.name)
	}

	return nil
}

// LineSorter sorts the lines of one intermediate file by byte value
type LineSorter interface {
	Name() string
	SortFile(in, out string, zipp bool) error
}

// NewLineSorter returns the in-process sorter, or one running an external sort program
func NewLineSorter(cfg *Config) (LineSorter, error) {

	switch cfg.Sorter {
	case "internal", "":
		return internalSorter{}, nil
	case "command":
		path, err := exec.LookPath(cfg.SortCmd)
		if err != nil {
			return nil, configError("sort program '%s' not found", cfg.SortCmd)
		}
		return commandSorter{program: path}, nil
	}

	return nil, configError("unrecognized sort strategy '%s'", cfg.Sorter)
}

// internalSorter holds one file in memory and uses a parallel radix sort
type internalSorter struct{}

func (internalSorter) Name() string {
	return "internal"
}

func (internalSorter) SortFile(in, out string, zipp bool) error {

	rdr, err := openLineFile(in, zipp)
	if err != nil {
		return err
	}

	var lines []string
	for rdr.Scan() {
		lines = append(lines, rdr.Text())
	}
	err = rdr.Err()
	rdr.Close()
	if err != nil {
		return ioError(err, "unable to read '%s'", in)
	}

	sortutil.Strings(lines)

	wrtr, err := createLineWriter(out, zipp)
	if err != nil {
		return err
	}

	for _, str := range lines {
		if err := wrtr.WriteLine(str); err != nil {
			wrtr.Close()
			return err
		}
	}

	return wrtr.Close()
}

// commandSorter pipes a file through sort with byte collation
type commandSorter struct {
	program string
}

func (cs commandSorter) Name() string {
	return cs.program
}

func (cs commandSorter) SortFile(in, out string, zipp bool) error {

	fl, err := os.Open(in)
	if err != nil {
		return ioError(err, "unable to open intermediate file '%s'", in)
	}
	defer fl.Close()

	var src io.Reader = fl
	if zipp {
		zr, err := pgzip.NewReader(bufio.NewReader(fl))
		if err != nil {
			return ioError(err, "unable to create decompressor on '%s'", in)
		}
		defer zr.Close()
		src = zr
	}

	wrtr, err := createLineWriter(out, zipp)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer

	cmd := exec.Command(cs.program)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.Stdin = src
	cmd.Stdout = wrtr.wrtr
	cmd.Stderr = &stderr

	err = cmd.Run()
	cerr := wrtr.Close()

	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return ioError(err, "%s failed on '%s': %s", cs.program, in, msg)
		}
		return ioError(err, "%s failed on '%s'", cs.program, in)
	}

	return cerr
}

// sortedName inserts .srt before any compression suffix
func sortedName(fileName string) string {

	if strings.HasSuffix(fileName, ".gz") {
		return strings.TrimSuffix(fileName, ".gz") + ".srt.gz"
	}

	return fileName + ".srt"
}

// sortFiles sorts independent intermediate files concurrently, removing
// each unsorted file after its sorted copy is complete unless keep is set
func sortFiles(srt LineSorter, files []string, zipp, keep bool) ([]string, error) {

	sorted := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup

	// limit number of concurrent sorts
	sem := make(chan struct{}, NumServe())

	// launch multiple sorter goroutines
	for i, fileName := range files {

		wg.Add(1)

		go func(i int, fileName string) {

			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			out := sortedName(fileName)

			err := srt.SortFile(fileName, out, zipp)
			if err != nil {
				errs[i] = err
				return
			}

			sorted[i] = out

			if !keep {
				os.Remove(fileName)
			}
		}(i, fileName)
	}

	// wait until all sorters are done
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return sorted, nil
}
