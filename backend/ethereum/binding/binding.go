// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package binding binds the ledger contract to an account of a wallet
// provider. The provider serves as both signer and chain connection.
package binding // import "genesis.network/go-metawallet/backend/ethereum/binding"

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/log"
	"genesis.network/go-metawallet/wallet"
)

// ErrNoProvider is returned when binding without a wallet provider.
var ErrNoProvider = errors.New("no wallet provider")

// Binder binds the ledger contract. Its zero value is ready to use.
type Binder struct{}

// Bind implements the session's binder by calling Bind.
func (Binder) Bind(p wallet.Provider, account common.Address) (ledger.Contract, error) {
	c, err := Bind(p, account)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Contract is a handle to the ledger contract that signs with one account of
// a wallet provider. It is never modified after creation.
type Contract struct {
	address  common.Address
	account  common.Address
	provider wallet.Provider
	backend  ContractInterface
	contract *bind.BoundContract
}

var _ ledger.Contract = (*Contract)(nil)

// Bind creates a handle to the ledger contract at ledger.Address that signs
// with account. No request is made until an operation is invoked.
func Bind(p wallet.Provider, account common.Address) (*Contract, error) {
	return BindAt(p, account, ledger.Address, ledger.ABI)
}

// BindAt creates a handle to a contract with the ledger interface at address.
func BindAt(p wallet.Provider, account, address common.Address, schema abi.ABI) (*Contract, error) {
	if p == nil {
		return nil, ErrNoProvider
	}
	backend := NewProviderBackend(p)
	return &Contract{
		address:  address,
		account:  account,
		provider: p,
		backend:  backend,
		contract: bind.NewBoundContract(address, schema, backend, backend, backend),
	}, nil
}

// Address returns the contract address.
func (c *Contract) Address() common.Address { return c.address }

// Signer returns the account that signs transactions.
func (c *Contract) Signer() common.Address { return c.account }

// Balance calls getBalance().
func (c *Contract) Balance(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: c.account}
	if err := c.contract.Call(opts, &out, ledger.MethodGetBalance); err != nil {
		return nil, errors.WithMessage(err, "calling getBalance")
	}
	if len(out) != 1 {
		return nil, errors.Errorf("getBalance returned %d values", len(out))
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("getBalance returned %T", out[0])
	}
	return bal, nil
}

// Deposit submits deposit(amount).
func (c *Contract) Deposit(ctx context.Context, amount *big.Int) (ledger.Transaction, error) {
	return c.transact(ctx, ledger.MethodDeposit, amount)
}

// Withdraw submits withdraw(amount).
func (c *Contract) Withdraw(ctx context.Context, amount *big.Int) (ledger.Transaction, error) {
	return c.transact(ctx, ledger.MethodWithdraw, amount)
}

func (c *Contract) transact(ctx context.Context, method string, amount *big.Int) (ledger.Transaction, error) {
	if amount == nil {
		return nil, errors.New("nil amount")
	}
	if amount.Sign() < 0 {
		return nil, errors.Errorf("%s amount %v is negative", method, amount)
	}
	tx, err := c.contract.Transact(c.newTransactor(ctx), method, amount)
	if err != nil {
		if reason, ok := RevertReason(err); ok {
			return nil, errors.WithMessagef(err, "%s reverted: %s", method, reason)
		}
		return nil, errors.WithMessagef(err, "submitting %s", method)
	}
	log.Debugf("Sent %s transaction with txHash: %s", method, tx.Hash().Hex())
	return &Transaction{tx: tx, backend: c.backend}, nil
}

// newTransactor creates the transaction options for one transaction. Nonce,
// fees and gas are filled in from the provider.
func (c *Contract) newTransactor(ctx context.Context) *bind.TransactOpts {
	return &bind.TransactOpts{
		From:    c.account,
		Signer:  NewProviderSigner(ctx, c.provider, c.account),
		Context: ctx,
	}
}

// Transaction is a submitted ledger transaction.
type Transaction struct {
	tx      *types.Transaction
	backend bind.DeployBackend
}

var _ ledger.Transaction = (*Transaction)(nil)

// Hash returns the transaction hash.
func (t *Transaction) Hash() common.Hash { return t.tx.Hash() }

// Wait waits until the transaction is mined. It fails if the transaction
// reverted or ctx is done first.
func (t *Transaction) Wait(ctx context.Context) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, t.backend, t.tx)
	if err != nil {
		return nil, errors.WithMessage(err, "waiting for confirmation")
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, errors.Errorf("transaction %s reverted in block %v", t.tx.Hash().Hex(), receipt.BlockNumber)
	}
	return receipt, nil
}
