// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package atm

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/wallet"
)

// fakeProvider answers the account methods only.
type fakeProvider struct {
	mu       sync.Mutex
	existing []common.Address // answer to eth_accounts
	approve  []common.Address // answer to eth_requestAccounts
	reject   error
	feed     event.Feed
}

var _ wallet.Provider = (*fakeProvider)(nil)

func (p *fakeProvider) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var accs []common.Address
	switch method {
	case wallet.MethodAccounts:
		accs = p.existing
	case wallet.MethodRequestAccounts:
		if p.reject != nil {
			return p.reject
		}
		accs = p.approve
		p.existing = p.approve
	default:
		return errors.Errorf("method %s not supported", method)
	}
	*(result.(*[]common.Address)) = append([]common.Address{}, accs...)
	return nil
}

func (p *fakeProvider) SubscribeAccountsChanged(sink chan<- []common.Address) event.Subscription {
	return p.feed.Subscribe(sink)
}

// fakeContract records the order of its calls. Transactions are confirmed
// when waited for.
type fakeContract struct {
	signer common.Address

	mu        sync.Mutex
	balance   *big.Int
	calls     []string
	submitErr error
	waitErr   error
}

var _ ledger.Contract = (*fakeContract)(nil)

func newFakeContract(signer common.Address, balance int64) *fakeContract {
	return &fakeContract{signer: signer, balance: new(big.Int).Mul(big.NewInt(balance), big.NewInt(1e18))}
}

func (c *fakeContract) Address() common.Address { return ledger.Address }
func (c *fakeContract) Signer() common.Address  { return c.signer }

func (c *fakeContract) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *fakeContract) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		return nil
	}
	return append([]string{}, c.calls...)
}

func (c *fakeContract) Balance(ctx context.Context) (*big.Int, error) {
	c.record("balance")
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balance), nil
}

func (c *fakeContract) Deposit(ctx context.Context, amount *big.Int) (ledger.Transaction, error) {
	return c.submit(ledger.MethodDeposit, amount)
}

func (c *fakeContract) Withdraw(ctx context.Context, amount *big.Int) (ledger.Transaction, error) {
	return c.submit(ledger.MethodWithdraw, new(big.Int).Neg(amount))
}

func (c *fakeContract) submit(method string, delta *big.Int) (ledger.Transaction, error) {
	c.record(method)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	return &fakeTx{c: c, delta: delta}, nil
}

type fakeTx struct {
	c     *fakeContract
	delta *big.Int
}

func (tx *fakeTx) Hash() common.Hash { return common.BytesToHash(tx.delta.Bytes()) }

func (tx *fakeTx) Wait(ctx context.Context) (*types.Receipt, error) {
	tx.c.record("wait")
	tx.c.mu.Lock()
	defer tx.c.mu.Unlock()
	if tx.c.waitErr != nil {
		return nil, tx.c.waitErr
	}
	tx.c.balance = new(big.Int).Add(tx.c.balance, tx.delta)
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

// fakeBinder creates a fake contract with the given balance per bind and
// remembers the last one.
type fakeBinder struct {
	balance int64

	mu   sync.Mutex
	last *fakeContract
	n    int
}

func (b *fakeBinder) Bind(p wallet.Provider, acc common.Address) (ledger.Contract, error) {
	if p == nil {
		return nil, errors.New("no provider")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = newFakeContract(acc, b.balance)
	b.n++
	return b.last, nil
}

func (b *fakeBinder) Last() *fakeContract {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// countingMetrics counts the recorded events.
type countingMetrics struct {
	mu        sync.Mutex
	refreshes int
	txs       map[string]int
}

func (m *countingMetrics) BalanceRefreshed(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
}

func (m *countingMetrics) TransactionDone(op string, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txs == nil {
		m.txs = make(map[string]int)
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.txs[op+"/"+result]++
}

func (m *countingMetrics) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

func (m *countingMetrics) Txs(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txs[key]
}
