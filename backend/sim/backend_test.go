// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package sim

import (
	"context"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/wallet"
)

func newTestBackend(opts ...Option) *Backend {
	return NewRandom(rand.New(rand.NewSource(0x5157)), 2, big.NewInt(10), opts...)
}

func errorCode(t *testing.T, err error) int {
	t.Helper()
	var e *Error
	require.True(t, errors.As(err, &e), "want *sim.Error, got %v", err)
	return e.Code
}

func nextAccounts(t *testing.T, ch <-chan []common.Address) []common.Address {
	t.Helper()
	select {
	case accs := <-ch:
		return accs
	case <-time.After(time.Second):
		t.Fatal("no account notification")
	}
	return nil
}

func TestBackend_Accounts(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend()
	changes := make(chan []common.Address, 4)
	sub := b.SubscribeAccountsChanged(changes)
	defer sub.Unsubscribe()

	accs, err := wallet.Accounts(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, accs, "nothing is authorized initially")

	accs, err = wallet.RequestAccounts(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, b.Accounts(), accs)
	assert.Equal(t, accs, nextAccounts(t, changes))
	assert.Equal(t, accs, b.Authorized())

	require.NoError(t, b.SwitchAccount(accs[1]))
	assert.Equal(t, []common.Address{accs[1], accs[0]}, nextAccounts(t, changes))
	assert.Error(t, b.SwitchAccount(common.HexToAddress("0xabc")))

	b.Disconnect()
	assert.Empty(t, nextAccounts(t, changes))
	b.Disconnect()
	select {
	case accs := <-changes:
		t.Errorf("unexpected notification %v", accs)
	case <-time.After(20 * time.Millisecond):
	}

	assert.Equal(t, 1, b.Calls(wallet.MethodAccounts))
	assert.Equal(t, 1, b.Calls(wallet.MethodRequestAccounts))
}

func TestBackend_WithAuthorized(t *testing.T) {
	b := newTestBackend(WithAuthorized(1))
	accs, err := wallet.Accounts(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, b.Accounts()[:1], accs)
	assert.Equal(t, b.Accounts()[0], b.LedgerOwner())
}

func TestBackend_Errors(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend()

	b.RejectRequests(true)
	_, err := wallet.RequestAccounts(ctx, b)
	assert.Equal(t, CodeUserRejected, errorCode(t, err))
	assert.Empty(t, b.Authorized())

	err = b.Request(ctx, nil, "eth_mine")
	assert.Equal(t, CodeMethodNotFound, errorCode(t, err))

	err = b.Request(ctx, nil, "eth_getTransactionCount")
	assert.Equal(t, CodeInvalidParams, errorCode(t, err))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, b.Request(cctx, nil, wallet.MethodAccounts), context.Canceled)
}

func TestBackend_Chain(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend()

	var id hexutil.Big
	require.NoError(t, b.Request(ctx, &id, "eth_chainId"))
	assert.EqualValues(t, ChainID, id.ToInt().Int64())

	var code hexutil.Bytes
	require.NoError(t, b.Request(ctx, &code, "eth_getCode", ledger.Address, "latest"))
	assert.NotEmpty(t, code)
	require.NoError(t, b.Request(ctx, &code, "eth_getCode", common.HexToAddress("0x1"), "latest"))
	assert.Empty(t, code)

	var price hexutil.Big
	require.NoError(t, b.Request(ctx, &price, "eth_gasPrice"))
	assert.Equal(t, GasPrice, price.ToInt())
}

func TestLedgerState(t *testing.T) {
	rng := rand.New(rand.NewSource(0x1ed9))
	owner, other := NewRandomAddress(rng), NewRandomAddress(rng)
	l := &ledgerState{owner: owner, balance: big.NewInt(5)}

	pack := func(method string, args ...interface{}) []byte {
		data, err := ledger.ABI.Pack(method, args...)
		require.NoError(t, err)
		return data
	}
	balance := func() *big.Int {
		out, _, rev := l.call(other, pack(ledger.MethodGetBalance))
		require.Nil(t, rev)
		res, err := ledger.ABI.Unpack(ledger.MethodGetBalance, out)
		require.NoError(t, err)
		return res[0].(*big.Int)
	}

	_, logs, rev := l.call(owner, pack(ledger.MethodDeposit, big.NewInt(3)))
	require.Nil(t, rev)
	require.Len(t, logs, 1)
	assert.Equal(t, ledger.ABI.Events[ledger.EventDeposit].ID, logs[0].Topics[0])
	assert.EqualValues(t, 8, balance().Int64())

	_, _, rev = l.call(other, pack(ledger.MethodDeposit, big.NewInt(1)))
	require.NotNil(t, rev)
	assert.Equal(t, notOwner, rev.reason)

	_, _, rev = l.call(owner, pack(ledger.MethodWithdraw, big.NewInt(100)))
	require.NotNil(t, rev)
	assert.Equal(t, ledger.ErrorInsufficientBalance, rev.reason)
	assert.EqualValues(t, 8, balance().Int64(), "failed calls leave the state unchanged")

	c := l.clone()
	_, _, rev = c.call(owner, pack(ledger.MethodWithdraw, big.NewInt(8)))
	require.Nil(t, rev)
	assert.Zero(t, c.balance.Sign())
	assert.EqualValues(t, 8, balance().Int64(), "clones do not share state")

	_, _, rev = l.call(owner, []byte{1, 2})
	assert.NotNil(t, rev)
}
