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
// File Name:  merge.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"container/heap"
	"io"
	"runtime"
	"sync"
)

// Plex is one line from one of several sorted files
type Plex struct {
	Which int
	Text  string
}

// PlexHeap methods satisfy heap.Interface
type PlexHeap []Plex

func (h PlexHeap) Len() int {
	return len(h)
}
func (h PlexHeap) Less(i, j int) bool {
	if h[i].Text != h[j].Text {
		return h[i].Text < h[j].Text
	}
	return h[i].Which < h[j].Which
}
func (h PlexHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Push works on pointer to PlexHeap
func (h *PlexHeap) Push(x interface{}) {
	*h = append(*h, x.(Plex))
}

// Pop works on pointer to PlexHeap
func (h *PlexHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// mergeState lets the consumer stop the goroutines and learn of read failures
type mergeState struct {
	done chan struct{}
	once sync.Once
	mu   sync.Mutex
	err  error
}

func (ms *mergeState) fail(err error) {

	ms.mu.Lock()
	if ms.err == nil {
		ms.err = err
	}
	ms.mu.Unlock()
}

func (ms *mergeState) failed() error {

	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.err
}

// CreatePresenters creates one channel per sorted input file
func CreatePresenters(files []string, zipp bool, ms *mergeState) []<-chan Plex {

	if files == nil {
		return nil
	}

	chns := make([]<-chan Plex, len(files))

	// linePresenter sends each line of one sorted file through channel
	linePresenter := func(fileNum int, fileName string, out chan<- Plex) {

		// close channel when all lines have been sent
		defer close(out)

		rdr, err := openLineFile(fileName, zipp)
		if err != nil {
			ms.fail(err)
			return
		}

		// close input file when all lines have been sent
		defer rdr.Close()

		for rdr.Scan() {
			select {
			case out <- Plex{fileNum, rdr.Text()}:
			case <-ms.done:
				return
			}
		}

		if err := rdr.Err(); err != nil {
			ms.fail(ioError(err, "unable to read '%s'", fileName))
		}
	}

	// launch multiple presenter goroutines
	for i, str := range files {

		chn := make(chan Plex, ChanDepth())

		go linePresenter(i, str, chn)

		chns[i] = chn
	}

	return chns
}

// CreateManifold sends lines from all presenters in sorted order
func CreateManifold(inp []<-chan Plex, ms *mergeState) <-chan Plex {

	if inp == nil {
		return nil
	}

	out := make(chan Plex, ChanDepth())

	// lineManifold restores global order of per-file sorted lines
	lineManifold := func(inp []<-chan Plex, out chan<- Plex) {

		// close channel when all lines have been processed
		defer close(out)

		// initialize empty heap
		hp := &PlexHeap{}
		heap.Init(hp)

		// read first line from all input channels in turn
		for _, chn := range inp {
			plx, ok := <-chn
			if ok {
				heap.Push(hp, plx)
			}
		}

		rec := 0

		// reading from heap returns lines in byte order
		for hp.Len() > 0 {

			// remove lowest item from heap, use interface type assertion
			curr := heap.Pop(hp).(Plex)

			select {
			case out <- curr:
			case <-ms.done:
				return
			}

			rec++
			if rec%65536 == 0 {
				runtime.Gosched()
			}

			// read next line from channel that just supplied lowest item
			chn := inp[curr.Which]
			plx, ok := <-chn
			if ok {
				heap.Push(hp, plx)
			}
		}
	}

	// launch single manifold goroutine
	go lineManifold(inp, out)

	return out
}

// MergedLines is the k-way merge of several sorted line files
type MergedLines struct {
	out <-chan Plex
	ms  *mergeState
}

// MergeSortedFiles starts presenters and manifold over already sorted files
func MergeSortedFiles(files []string, zipp bool) *MergedLines {

	ms := &mergeState{done: make(chan struct{})}

	chns := CreatePresenters(files, zipp, ms)
	if chns == nil {
		closed := make(chan Plex)
		close(closed)
		return &MergedLines{out: closed, ms: ms}
	}

	return &MergedLines{out: CreateManifold(chns, ms), ms: ms}
}

// Next returns the next line in global order, or io.EOF
func (m *MergedLines) Next() (string, error) {

	plx, ok := <-m.out

	if err := m.ms.failed(); err != nil {
		return "", err
	}
	if !ok {
		return "", io.EOF
	}

	return plx.Text, nil
}

// Close stops any goroutines still waiting to send
func (m *MergedLines) Close() {

	m.ms.once.Do(func() { close(m.ms.done) })
}
