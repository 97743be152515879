// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package sim provides a simulated host wallet on top of an in-memory chain
// running the ledger contract. It implements wallet.Provider and is meant for
// tests and demos.
package sim // import "genesis.network/go-metawallet/backend/sim"

import (
	"crypto/ecdsa"
	"math/big"
	"math/rand"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/log"
	"genesis.network/go-metawallet/wallet"
)

const (
	// ChainID is the chain id of the simulated chain.
	ChainID = 31337
	// GasLimit is the block gas limit of the simulated chain.
	GasLimit = 30000000

	txGas = 50000
)

// GasPrice is the price and tip the simulated chain suggests, one gwei.
var GasPrice = big.NewInt(1000000000)

// Backend is a simulated host wallet with its own chain. All methods are safe
// for concurrent use.
type Backend struct {
	mu sync.Mutex

	chainID *big.Int
	keys    map[common.Address]*ecdsa.PrivateKey
	accs    []common.Address // all wallet accounts, in wallet order
	authed  []common.Address // accounts the user authorized
	reject  bool             // whether eth_requestAccounts is rejected

	blocks   []*types.Header
	pending  []*types.Transaction
	nonces   map[common.Address]uint64
	txs      map[common.Hash]*types.Transaction
	receipts map[common.Hash]*types.Receipt
	logs     []types.Log
	ledger   *ledgerState
	autoMine bool

	accountsFeed event.Feed
	calls        map[string]int
}

var _ wallet.Provider = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithManualMining disables automatic mining. Submitted transactions stay
// pending until Mine is called.
func WithManualMining() Option {
	return func(b *Backend) { b.autoMine = false }
}

// WithAuthorized marks the first n wallet accounts as already authorized, as
// if the user connected them in an earlier session.
func WithAuthorized(n int) Option {
	return func(b *Backend) { b.authed = append([]common.Address(nil), b.accs[:n]...) }
}

// New creates a simulated host wallet holding the given keys. The ledger
// contract is deployed at ledger.Address, owned by the first key's account
// and holding initBalance base units.
func New(keys []*ecdsa.PrivateKey, initBalance *big.Int, opts ...Option) *Backend {
	if len(keys) == 0 {
		log.Panic("simulated wallet needs at least one key")
	}
	b := &Backend{
		chainID:  big.NewInt(ChainID),
		keys:     make(map[common.Address]*ecdsa.PrivateKey),
		nonces:   make(map[common.Address]uint64),
		txs:      make(map[common.Hash]*types.Transaction),
		receipts: make(map[common.Hash]*types.Receipt),
		autoMine: true,
		calls:    make(map[string]int),
	}
	for _, k := range keys {
		addr := crypto.PubkeyToAddress(k.PublicKey)
		b.keys[addr] = k
		b.accs = append(b.accs, addr)
	}
	if initBalance == nil {
		initBalance = new(big.Int)
	}
	b.ledger = &ledgerState{owner: b.accs[0], balance: new(big.Int).Set(initBalance)}
	b.blocks = []*types.Header{b.newHeader(common.Hash{}, 0)}

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewRandom creates a simulated host wallet with n random keys.
func NewRandom(rng *rand.Rand, n int, initBalance *big.Int, opts ...Option) *Backend {
	keys := make([]*ecdsa.PrivateKey, n)
	for i := range keys {
		keys[i] = NewRandomKey(rng)
	}
	return New(keys, initBalance, opts...)
}

// NewRandomKey creates a new secp256k1 key from rng.
func NewRandomKey(rng *rand.Rand) *ecdsa.PrivateKey {
	for {
		seed := make([]byte, 32)
		rng.Read(seed)
		if k, err := crypto.ToECDSA(seed); err == nil {
			return k
		}
	}
}

// NewRandomAddress creates a new random address from rng.
func NewRandomAddress(rng *rand.Rand) common.Address {
	var addr common.Address
	rng.Read(addr[:])
	return addr
}

// Accounts returns all accounts of the wallet, whether authorized or not.
func (b *Backend) Accounts() []common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]common.Address(nil), b.accs...)
}

// Authorized returns the accounts the user authorized.
func (b *Backend) Authorized() []common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]common.Address(nil), b.authed...)
}

// RejectRequests sets whether the simulated user rejects account requests.
func (b *Backend) RejectRequests(reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reject = reject
}

// Disconnect simulates the user disconnecting all accounts.
func (b *Backend) Disconnect() {
	b.setAuthorized(nil)
}

// SwitchAccount simulates the user selecting another authorized account in
// the wallet. The selected account moves to the front of the account list.
func (b *Backend) SwitchAccount(acc common.Address) error {
	b.mu.Lock()
	if _, ok := b.keys[acc]; !ok {
		b.mu.Unlock()
		return errors.Errorf("unknown account %s", acc.Hex())
	}
	accs := []common.Address{acc}
	for _, a := range b.accs {
		if a != acc {
			accs = append(accs, a)
		}
	}
	b.mu.Unlock()
	b.setAuthorized(accs)
	return nil
}

// setAuthorized replaces the authorized accounts and notifies subscribers if
// they changed. The notification is sent without holding the lock.
func (b *Backend) setAuthorized(accs []common.Address) {
	b.mu.Lock()
	changed := !wallet.Equal(b.authed, accs)
	b.authed = append([]common.Address{}, accs...)
	b.mu.Unlock()

	if changed {
		log.Debugf("sim: accounts changed to %v", accs)
		b.accountsFeed.Send(append([]common.Address{}, accs...))
	}
}

// SubscribeAccountsChanged implements wallet.Provider.
func (b *Backend) SubscribeAccountsChanged(sink chan<- []common.Address) event.Subscription {
	return b.accountsFeed.Subscribe(sink)
}

// LedgerBalance returns the confirmed base-unit balance of the ledger
// contract.
func (b *Backend) LedgerBalance() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.ledger.balance)
}

// LedgerOwner returns the owner of the ledger contract.
func (b *Backend) LedgerOwner() common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.owner
}

// Calls returns how often method was requested.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// Pending returns the number of submitted but unmined transactions.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Mine includes all pending transactions in a new block.
func (b *Backend) Mine() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mine()
}

func (b *Backend) head() *types.Header {
	return b.blocks[len(b.blocks)-1]
}

func (b *Backend) newHeader(parent common.Hash, number uint64) *types.Header {
	return &types.Header{
		ParentHash:  parent,
		UncleHash:   types.EmptyUncleHash,
		Root:        types.EmptyRootHash,
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  new(big.Int),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    GasLimit,
		Time:        1700000000 + number*12,
		BaseFee:     new(big.Int).Set(GasPrice),
		Extra:       []byte{},
	}
}

// mine executes all pending transactions and appends a block. The caller
// must hold the lock.
func (b *Backend) mine() {
	header := b.newHeader(b.head().Hash(), b.head().Number.Uint64()+1)
	var (
		receipts []*types.Receipt
		gasUsed  uint64
	)
	for i, tx := range b.pending {
		from, _ := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
		receipt := &types.Receipt{
			Type:              tx.Type(),
			Status:            types.ReceiptStatusSuccessful,
			TxHash:            tx.Hash(),
			GasUsed:           txGas,
			EffectiveGasPrice: new(big.Int).Set(GasPrice),
			BlockNumber:       new(big.Int).Set(header.Number),
			TransactionIndex:  uint(i),
			Logs:              []*types.Log{},
		}
		if to := tx.To(); to != nil && *to == ledger.Address {
			_, logs, rev := b.ledger.call(from, tx.Data())
			if rev != nil {
				log.Debugf("sim: transaction %s reverted: %s", tx.Hash().Hex(), rev.reason)
				receipt.Status = types.ReceiptStatusFailed
			} else {
				receipt.Logs = logs
			}
		}
		gasUsed += receipt.GasUsed
		receipt.CumulativeGasUsed = gasUsed
		receipts = append(receipts, receipt)
	}
	header.GasUsed = gasUsed
	hash := header.Hash()

	for _, r := range receipts {
		r.BlockHash = hash
		for _, l := range r.Logs {
			l.BlockNumber = header.Number.Uint64()
			l.BlockHash = hash
			l.TxHash = r.TxHash
			l.TxIndex = r.TransactionIndex
			l.Index = uint(len(b.logs))
			b.logs = append(b.logs, *l)
		}
		b.receipts[r.TxHash] = r
	}
	b.blocks = append(b.blocks, header)
	b.pending = nil
	log.Tracef("sim: mined block %d with %d transactions", header.Number.Uint64(), len(receipts))
}

// pendingNonce returns the next nonce of acc including pending transactions.
// The caller must hold the lock.
func (b *Backend) pendingNonce(acc common.Address) uint64 {
	return b.nonces[acc]
}
