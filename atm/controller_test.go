// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package atm

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genesis.network/go-metawallet/backend/ethereum/binding"
	"genesis.network/go-metawallet/backend/sim"
	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/wallet"
)

// newBoundFake returns a controller on a session bound to a fake contract
// holding balance.
func newBoundFake(t *testing.T, balance int64) (*Controller, *fakeBinder, *countingMetrics) {
	t.Helper()
	binder := &fakeBinder{balance: balance}
	p := &fakeProvider{existing: []common.Address{common.HexToAddress("0xabc")}}
	s := NewSession(binder)
	require.NoError(t, s.Start(testContext(t), wallet.StaticHost(p)))
	require.Equal(t, Bound, s.Phase())
	m := new(countingMetrics)
	return NewController(s, WithMetrics(m)), binder, m
}

// newBoundSim returns a controller on a session bound to the owner account of
// a simulated wallet whose ledger holds balance.
func newBoundSim(t *testing.T, balance int64, opts ...sim.Option) (*Controller, *sim.Backend, *countingMetrics) {
	t.Helper()
	opts = append([]sim.Option{sim.WithAuthorized(1)}, opts...)
	b := sim.NewRandom(rand.New(rand.NewSource(0xCAFE)), 1, eth(balance), opts...)
	s := NewSession(binding.Binder{})
	require.NoError(t, s.Start(testContext(t), wallet.StaticHost(b)))
	require.Equal(t, Bound, s.Phase())
	m := new(countingMetrics)
	return NewController(s, WithMetrics(m)), b, m
}

func TestController_Unbound(t *testing.T) {
	ctx := testContext(t)
	s := NewSession(new(fakeBinder))
	require.NoError(t, s.Start(ctx, wallet.NoHost))
	c := NewController(s)

	assert.NoError(t, c.RefreshBalance(ctx), "refresh without contract is a no-op")
	_, ok := c.CurrentBalance()
	assert.False(t, ok)

	c.SetDepositInput("1")
	err := c.Deposit(ctx)
	assert.True(t, IsKind(err, TransactionFailed), "deposit without contract: %v", err)
	assert.Equal(t, "1", c.DepositInput())
	assert.True(t, IsKind(c.WithdrawAmount(ctx, "1"), TransactionFailed))
}

func TestController_RefreshBalanceIdempotent(t *testing.T) {
	c, b, m := newBoundSim(t, 1)
	ctx := testContext(t)

	_, ok := c.CurrentBalance()
	assert.False(t, ok, "no balance before the first refresh")
	assert.Zero(t, b.Calls("eth_call"), "reading the balance must not fetch")

	require.NoError(t, c.RefreshBalance(ctx))
	first, ok := c.CurrentBalance()
	require.True(t, ok)
	require.NoError(t, c.RefreshBalance(ctx))
	second, ok := c.CurrentBalance()
	require.True(t, ok)

	assert.True(t, first.Equal(second))
	assert.Equal(t, "1", second.String())
	assert.Equal(t, 2, m.Refreshes())
	assert.Equal(t, 0, eth(1).Cmp(b.LedgerBalance()))
}

func TestController_Deposit(t *testing.T) {
	c, b, m := newBoundSim(t, 1)
	ctx := testContext(t)
	require.NoError(t, c.RefreshBalance(ctx))

	events := make(chan TxEvent, 4)
	sub := c.SubscribeTxEvents(events)
	defer sub.Unsubscribe()

	c.SetDepositInput("2")
	require.NoError(t, c.Deposit(ctx))

	assert.Equal(t, 2, m.Refreshes(), "exactly one refresh after confirmation")
	assert.Equal(t, 1, m.Txs(OpDeposit+"/ok"))
	assert.Empty(t, c.DepositInput(), "deposit buffer is cleared")
	bal, ok := c.CurrentBalance()
	require.True(t, ok)
	assert.Equal(t, "3", bal.String())
	assert.Equal(t, 0, eth(3).Cmp(b.LedgerBalance()))

	submitted, confirmed := <-events, <-events
	assert.Equal(t, TxSubmitted, submitted.Status)
	assert.Equal(t, TxConfirmed, confirmed.Status)
	assert.Equal(t, submitted.Hash, confirmed.Hash)
	assert.Equal(t, "2", confirmed.Amount)
}

func TestController_RefreshAfterConfirmation(t *testing.T) {
	c, binder, m := newBoundFake(t, 1)
	ctx := testContext(t)

	require.NoError(t, c.DepositAmount(ctx, "2"))
	assert.Equal(t, []string{"deposit", "wait", "balance"}, binder.Last().Calls())
	assert.Equal(t, 1, m.Refreshes())
	bal, ok := c.CurrentBalance()
	require.True(t, ok)
	assert.Equal(t, "3", bal.String())
}

func TestController_DepositWaitsForConfirmation(t *testing.T) {
	c, b, m := newBoundSim(t, 1, sim.WithManualMining())
	ctx := testContext(t)

	done := make(chan error, 1)
	go func() { done <- c.DepositAmount(ctx, "2") }()

	assert.Eventually(t, func() bool { return b.Pending() == 1 }, timeout, 10*time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("deposit returned before confirmation: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, m.Refreshes(), "no refresh before confirmation")

	b.Mine()
	require.NoError(t, <-done)
	assert.Equal(t, 1, m.Refreshes())
	bal, ok := c.CurrentBalance()
	require.True(t, ok)
	assert.Equal(t, "3", bal.String())
}

func TestController_WithdrawInsufficient(t *testing.T) {
	c, b, m := newBoundSim(t, 1)
	ctx := testContext(t)
	require.NoError(t, c.RefreshBalance(ctx))

	events := make(chan TxEvent, 4)
	sub := c.SubscribeTxEvents(events)
	defer sub.Unsubscribe()

	c.SetWithdrawInput("100")
	err := c.Withdraw(ctx)
	require.True(t, IsKind(err, TransactionFailed), "withdraw beyond balance: %v", err)
	assert.Contains(t, err.Error(), "InsufficientBalance")

	assert.Equal(t, "100", c.WithdrawInput(), "withdraw buffer is kept")
	bal, ok := c.CurrentBalance()
	require.True(t, ok)
	assert.Equal(t, "1", bal.String(), "balance unchanged")
	assert.Equal(t, 1, m.Refreshes(), "no refresh after a failure")
	assert.Equal(t, 1, m.Txs(OpWithdraw+"/failed"))
	assert.Equal(t, 0, eth(1).Cmp(b.LedgerBalance()))

	ev := <-events
	assert.Equal(t, TxFailed, ev.Status)
	assert.Equal(t, common.Hash{}, ev.Hash)
	assert.Error(t, ev.Err)
}

func TestController_Withdraw(t *testing.T) {
	c, b, _ := newBoundSim(t, 2)
	ctx := testContext(t)

	c.SetWithdrawInput("0.5")
	require.NoError(t, c.Withdraw(ctx))
	assert.Empty(t, c.WithdrawInput())
	bal, ok := c.CurrentBalance()
	require.True(t, ok)
	assert.Equal(t, "1.5", bal.String())
	assert.Equal(t, "1.5", ledger.FormatBalance(b.LedgerBalance()))
}

func TestController_TransactionFailures(t *testing.T) {
	ctx := testContext(t)

	tests := []struct {
		name   string
		amount string
		setup  func(*fakeContract)
		calls  []string
	}{
		{"not a number", "abc", nil, nil},
		{"empty", "", nil, nil},
		{"too precise", "0.0000000000000000001", nil, nil},
		{"rejected", "1", func(c *fakeContract) { c.submitErr = errors.New("User denied transaction signature.") }, []string{"deposit"}},
		{"reverted", "1", func(c *fakeContract) { c.waitErr = errors.New("transaction reverted") }, []string{"deposit", "wait"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, binder, m := newBoundFake(t, 1)
			contract := binder.Last()
			if tt.setup != nil {
				tt.setup(contract)
			}
			c.SetDepositInput(tt.amount)

			err := c.Deposit(ctx)
			assert.True(t, IsKind(err, TransactionFailed), "got %v", err)
			assert.Equal(t, tt.amount, c.DepositInput(), "buffer is kept")
			assert.Equal(t, tt.calls, contract.Calls())
			assert.Zero(t, m.Refreshes())
		})
	}
}

func TestController_Buffers(t *testing.T) {
	c, binder, _ := newBoundFake(t, 1)

	assert.Equal(t, "1", c.IncrementDeposit())
	assert.Equal(t, "2", c.IncrementDeposit())
	assert.Equal(t, "1", c.DecrementDeposit())
	assert.Equal(t, "-1", c.DecrementWithdraw())
	assert.Equal(t, "0", c.IncrementWithdraw())

	c.SetDepositInput("abc")
	assert.Equal(t, "1", c.IncrementDeposit(), "invalid buffer counts as zero")
	c.SetWithdrawInput("1.5")
	assert.Equal(t, "2.5", c.IncrementWithdraw())

	assert.Empty(t, binder.Last().Calls(), "buffer helpers never touch the chain")
}

func TestController_Run(t *testing.T) {
	a, b := common.HexToAddress("0xa"), common.HexToAddress("0xb")
	binder := &fakeBinder{balance: 5}
	s := NewSession(binder)
	c := NewController(s)
	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	time.Sleep(20 * time.Millisecond) // let Run subscribe

	require.NoError(t, s.Start(ctx, wallet.StaticHost(new(fakeProvider))))
	s.HandleAccountsChanged([]common.Address{a})
	assert.Eventually(t, func() bool {
		bal, ok := c.CurrentBalance()
		return ok && bal.String() == "5"
	}, timeout, 10*time.Millisecond, "balance is fetched when the session becomes bound")
	assert.Equal(t, []string{"balance"}, binder.Last().Calls())

	s.HandleAccountsChanged([]common.Address{b})
	assert.Eventually(t, func() bool {
		_, ok := c.CurrentBalance()
		return ok && binder.Last().Signer() == b && len(binder.Last().Calls()) == 1
	}, timeout, 10*time.Millisecond, "balance is fetched again after rebinding")

	s.HandleAccountsChanged(nil)
	assert.Eventually(t, func() bool {
		_, ok := c.CurrentBalance()
		return !ok
	}, timeout, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
