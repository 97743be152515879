// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package ui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder records int messages and quits after n of them.
type recorder struct {
	n   int
	got []int
}

func (r recorder) Init() tea.Cmd { return nil }

func (r recorder) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if i, ok := msg.(int); ok {
		r.got = append(r.got, i)
		if len(r.got) == r.n {
			return r, tea.Quit
		}
	}
	return r, nil
}

func (r recorder) View() string { return "" }

func TestRelay_Attach(t *testing.T) {
	const n = 32
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var r Relay
	for i := 0; i < n; i++ {
		r.Send(i)
	}

	p := tea.NewProgram(recorder{n: n},
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	r.Attach(p)
	final, err := p.Run()
	require.NoError(t, err)

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, final.(recorder).got, "queued messages keep their order")
}
