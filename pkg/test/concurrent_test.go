// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a TestingT that records failures instead of failing.
type recorder struct {
	mu     sync.Mutex
	failed bool
	errors int
}

func (r *recorder) Errorf(string, ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors++
}

func (r *recorder) FailNow() {
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()
	runtime.Goexit()
}

func TestConcurrentT_Stages(t *testing.T) {
	ct := NewConcurrent(t)
	var count int32

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ct.StageN("count", 4, func(require.TestingT) {
				atomic.AddInt32(&count, 1)
			})
			assert.EqualValues(t, 4, atomic.LoadInt32(&count), "stage returns after all goroutines")
		}()
	}
	ct.Wait("count")
	assert.EqualValues(t, 4, atomic.LoadInt32(&count))
	wg.Wait()
}

func TestConcurrentT_Fail(t *testing.T) {
	r := new(recorder)
	ct := NewConcurrent(r)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ct.Stage("fail", func(t require.TestingT) {
			require.True(t, false)
		})
		t.Error("Stage must not return after a failure")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("failing stage did not terminate")
	}
	assert.True(t, r.failed)
	assert.Equal(t, 1, r.errors)

	waited := make(chan struct{})
	go func() {
		defer close(waited)
		ct.Wait("fail")
		t.Error("Wait must not return for a failed stage")
	}()
	<-waited
}

func TestConcurrentT_Misuse(t *testing.T) {
	ct := NewConcurrent(t)
	assert.Panics(t, func() { ct.Wait() })
	assert.Panics(t, func() { ct.StageN("zero", 0, func(require.TestingT) {}) })

	go ct.StageN("two", 2, func(require.TestingT) {})
	time.Sleep(10 * time.Millisecond)
	assert.Panics(t, func() { ct.StageN("two", 3, func(require.TestingT) {}) })
	ct.StageN("two", 2, func(require.TestingT) {})
}
