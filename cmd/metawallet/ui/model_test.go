// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package ui

import (
	"context"
	"math/big"
	"math/rand"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genesis.network/go-metawallet/atm"
	"genesis.network/go-metawallet/backend/ethereum/binding"
	"genesis.network/go-metawallet/backend/sim"
	"genesis.network/go-metawallet/wallet"
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func newModel(t *testing.T, host wallet.Host) (Model, *atm.Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	s := atm.NewSession(binding.Binder{})
	require.NoError(t, s.Start(ctx, host))
	c := atm.NewController(s)
	return New(ctx, c), c
}

func newSim(opts ...sim.Option) *sim.Backend {
	return sim.NewRandom(rand.New(rand.NewSource(0xBEEF)), 1, eth(1), opts...)
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// apply updates m with msg and runs the resulting commands to completion.
func apply(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 16, "command chain too long")
		msg := cmd()
		if msg == nil {
			break
		}
		next, cmd = got.Update(msg)
		got = next.(Model)
	}
	return got
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = apply(t, m, key(k))
	}
	return m
}

func TestModel_InstallPrompt(t *testing.T) {
	m, _ := newModel(t, wallet.NoHost)
	assert.Contains(t, m.View(), "No wallet provider found")

	_, cmd := m.Update(key("c"))
	assert.Nil(t, cmd, "nothing to connect to")
}

func TestModel_Connect(t *testing.T) {
	b := newSim()
	m, c := newModel(t, wallet.StaticHost(b))
	assert.Contains(t, m.View(), "connect your wallet")
	assert.Nil(t, m.Init())

	m = press(t, m, "c")
	acc := b.Accounts()[0]
	assert.Equal(t, "Connected "+wallet.Short(acc), m.status)
	assert.False(t, m.statusErr)
	assert.Equal(t, atm.Bound, c.Session().Phase())
	assert.Contains(t, m.View(), acc.Hex())
	assert.Contains(t, m.View(), "loading...")

	m = press(t, m, "r")
	assert.Contains(t, m.View(), "1 ETH")
}

func TestModel_ConnectRejected(t *testing.T) {
	b := newSim()
	b.RejectRequests(true)
	m, c := newModel(t, wallet.StaticHost(b))

	m = press(t, m, "c")
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "rejected")
	assert.Equal(t, atm.Disconnected, c.Session().Phase())
	assert.Empty(t, m.busy)
}

func TestModel_Deposit(t *testing.T) {
	m, c := newModel(t, wallet.StaticHost(newSim(sim.WithAuthorized(1))))
	m = apply(t, m, m.Init()())

	m = press(t, m, "2", "enter")
	assert.False(t, m.statusErr, m.status)
	assert.Equal(t, "Deposit of 2 confirmed", m.status)
	assert.Empty(t, c.DepositInput(), "buffer is cleared after success")
	assert.Contains(t, m.View(), "3 ETH")
}

func TestModel_WithdrawInsufficient(t *testing.T) {
	m, c := newModel(t, wallet.StaticHost(newSim(sim.WithAuthorized(1))))

	m = press(t, m, "tab", "1", "0", "0", "enter")
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "transaction failed")
	assert.Equal(t, "100", c.WithdrawInput(), "buffer is kept after failure")
	assert.Empty(t, c.DepositInput())
}

func TestModel_Inputs(t *testing.T) {
	m, c := newModel(t, wallet.StaticHost(newSim(sim.WithAuthorized(1))))

	m = press(t, m, "+", "+", "-")
	assert.Equal(t, "1", c.DepositInput())
	m = press(t, m, ".", "5", "backspace")
	assert.Equal(t, "1.", c.DepositInput())
	m = press(t, m, "x")
	assert.Equal(t, "1.", c.DepositInput(), "non-numeric keys are ignored")

	m = press(t, m, "tab", "-")
	assert.Equal(t, "-1", c.WithdrawInput())
	press(t, m, "tab", "backspace")
	assert.Equal(t, "1", c.DepositInput())
}

func TestModel_Toggles(t *testing.T) {
	b := newSim(sim.WithAuthorized(1))
	m, _ := newModel(t, wallet.StaticHost(b))
	m = apply(t, m, m.Init()())
	acc := b.Accounts()[0].Hex()
	require.Contains(t, m.View(), acc)

	m = press(t, m, "a")
	assert.NotContains(t, m.View(), acc)
	m = press(t, m, "b")
	assert.NotContains(t, m.View(), "1 ETH")
	m = press(t, m, "a", "b")
	assert.Contains(t, m.View(), acc)
	assert.Contains(t, m.View(), "1 ETH")
}

func TestModel_Approval(t *testing.T) {
	m, _ := newModel(t, wallet.NoHost)
	offered := []common.Address{common.HexToAddress("0xabc")}

	for _, tt := range []struct {
		key  string
		want bool
	}{{"y", true}, {"n", false}} {
		reply := make(chan bool, 1)
		m = apply(t, m, ApprovalRequest{Offered: offered, reply: reply})
		assert.Contains(t, m.View(), offered[0].Hex())

		m = press(t, m, tt.key)
		assert.Equal(t, tt.want, <-reply)
		assert.Nil(t, m.approval)
		assert.NotContains(t, m.View(), offered[0].Hex())
	}
}

func TestApprover(t *testing.T) {
	ctx := context.Background()
	offered := []common.Address{common.HexToAddress("0xabc"), common.HexToAddress("0xdef")}

	approve := Approver(func(msg tea.Msg) {
		req := msg.(ApprovalRequest)
		req.answer(true)
	})
	accs, err := approve(ctx, offered)
	require.NoError(t, err)
	assert.Equal(t, offered, accs)

	reject := Approver(func(msg tea.Msg) {
		req := msg.(ApprovalRequest)
		req.answer(false)
	})
	_, err = reject(ctx, offered)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Approver(func(tea.Msg) {})(ctx, offered)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForward(t *testing.T) {
	b := newSim(sim.WithAuthorized(1))
	m, c := newModel(t, wallet.StaticHost(b))

	msgs := make(chan tea.Msg, 16)
	go Forward(m.ctx, c, func(msg tea.Msg) { msgs <- msg })
	time.Sleep(20 * time.Millisecond)

	c.Session().HandleAccountsChanged(nil)
	select {
	case msg := <-msgs:
		tr, ok := msg.(transitionMsg)
		require.True(t, ok, "got %T", msg)
		assert.Equal(t, atm.Bound, tr.From)
		assert.Equal(t, atm.Disconnected, tr.To)
		m = apply(t, m, msg)
		assert.Equal(t, "Wallet disconnected", m.status)
	case <-time.After(time.Second):
		t.Fatal("no transition forwarded")
	}
}
