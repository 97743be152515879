// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package ledger describes the on-chain ledger contract the session operates
// on: its fixed address, its interface schema and the handle types used to
// call it. The contract logic itself lives on chain.
package ledger // import "genesis.network/go-metawallet/ledger"

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Address is the on-chain address of the ledger contract.
var Address = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// Method and event names of the ledger contract.
const (
	MethodGetBalance = "getBalance"
	MethodDeposit    = "deposit"
	MethodWithdraw   = "withdraw"

	EventDeposit  = "Deposit"
	EventWithdraw = "Withdraw"

	ErrorInsufficientBalance = "InsufficientBalance"
)

// ABIJSON is the interface schema of the ledger contract.
const ABIJSON = `[
	{"inputs":[{"internalType":"uint256","name":"initBalance","type":"uint256"}],"stateMutability":"payable","type":"constructor"},
	{"inputs":[{"internalType":"uint256","name":"balance","type":"uint256"},{"internalType":"uint256","name":"withdrawAmount","type":"uint256"}],"name":"InsufficientBalance","type":"error"},
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}],"name":"Deposit","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}],"name":"Withdraw","type":"event"},
	{"inputs":[],"name":"balance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"_amount","type":"uint256"}],"name":"deposit","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[],"name":"getBalance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address payable","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"_withdrawAmount","type":"uint256"}],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// ABI is the parsed interface schema of the ledger contract.
var ABI = mustParseABI(ABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("ledger: invalid contract ABI: " + err.Error())
	}
	return parsed
}

// Contract is a bound, callable handle to the ledger contract, scoped to the
// signer it was created for. Implementations make network calls only when an
// operation is invoked.
type Contract interface {
	// Address returns the contract address the handle is bound to.
	Address() common.Address
	// Signer returns the account that signs the handle's transactions.
	Signer() common.Address

	// Balance calls getBalance() and returns the base-unit balance.
	Balance(ctx context.Context) (*big.Int, error)
	// Deposit submits deposit(amount). The returned transaction is only
	// accepted by the node, not yet confirmed.
	Deposit(ctx context.Context, amount *big.Int) (Transaction, error)
	// Withdraw submits withdraw(amount).
	Withdraw(ctx context.Context, amount *big.Int) (Transaction, error)
}

// Transaction is a handle to a submitted state-changing transaction.
type Transaction interface {
	// Hash returns the transaction hash.
	Hash() common.Hash
	// Wait blocks until the transaction is included in the chain. It returns
	// an error if the transaction failed or ctx is done first.
	Wait(ctx context.Context) (*types.Receipt, error)
}
