// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package test contains helpers for tests that exercise code from several
// goroutines.
package test // import "genesis.network/go-metawallet/pkg/test"

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/require"
)

// ConcurrentT lets goroutines of a test fail it. Work is grouped into named
// stages. Every goroutine of a stage waits for the others before it returns,
// and any goroutine can wait for a stage to complete.
type ConcurrentT struct {
	t        require.TestingT
	failOnce sync.Once

	mu     sync.Mutex
	stages map[string]*stage
}

// NewConcurrent creates a concurrent testing object on top of t.
func NewConcurrent(t require.TestingT) *ConcurrentT {
	return &ConcurrentT{t: t, stages: make(map[string]*stage)}
}

type stage struct {
	require.TestingT
	name string

	mu     sync.Mutex
	n      int
	joined int
	ready  chan struct{}
	wg     sync.WaitGroup
	failed atomic.Bool
}

// FailNow aborts the calling goroutine. The stage is marked failed by
// StageN.
func (s *stage) FailNow() {
	runtime.Goexit()
}

func (s *stage) join(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case n <= 0:
		panic(fmt.Sprintf("stage %q needs at least one goroutine", s.name))
	case s.n == 0:
		s.n = n
		s.wg.Add(n)
		close(s.ready)
	case s.n != n:
		panic(fmt.Sprintf("stage %q joined with %d goroutines, want %d", s.name, n, s.n))
	case s.joined == s.n:
		panic(fmt.Sprintf("stage %q joined too often", s.name))
	}
	s.joined++
}

func (t *ConcurrentT) stage(name string) *stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stages[name]
	if !ok {
		s = &stage{TestingT: t.t, name: name, ready: make(chan struct{})}
		t.stages[name] = s
	}
	return s
}

// StageN runs fn as one of the goroutines goroutines of stage name. The same
// name must always be used with the same number of goroutines, and exactly
// that many calls must be made. If fn fails, the stage and the test fail.
// StageN returns once all goroutines of the stage are done.
func (t *ConcurrentT) StageN(name string, goroutines int, fn func(require.TestingT)) {
	s := t.stage(name)
	s.join(goroutines)

	passed := false
	defer func() {
		if !passed {
			s.failed.Store(true)
			s.wg.Done()
			t.FailNow()
		}
	}()
	fn(s)
	passed = true
	s.wg.Done()
	t.Wait(name)
}

// Stage is StageN with a single goroutine.
func (t *ConcurrentT) Stage(name string, fn func(require.TestingT)) {
	t.StageN(name, 1, fn)
}

// Wait blocks until the named stages are done. If one of them failed, the
// calling goroutine is aborted.
func (t *ConcurrentT) Wait(names ...string) {
	if len(names) == 0 {
		panic("Wait needs at least one stage")
	}
	for _, name := range names {
		s := t.stage(name)
		<-s.ready
		s.wg.Wait()
		if s.failed.Load() {
			runtime.Goexit()
		}
	}
}

// FailNow fails the test once and aborts the calling goroutine.
func (t *ConcurrentT) FailNow() {
	first := false
	t.failOnce.Do(func() { first = true })
	if first {
		t.t.FailNow()
	}
	runtime.Goexit()
}
