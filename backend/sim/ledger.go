// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package sim

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"genesis.network/go-metawallet/ledger"
)

// ledgerCode stands in for the deployed runtime bytecode. Only its presence
// matters to callers.
var ledgerCode = crypto.Keccak256([]byte("Assessment"))

const notOwner = "You are not the owner of this account"

// ledgerState simulates the ledger contract: a single balance that only its
// owner may change.
type ledgerState struct {
	owner   common.Address
	balance *big.Int
}

func (l *ledgerState) clone() *ledgerState {
	return &ledgerState{owner: l.owner, balance: new(big.Int).Set(l.balance)}
}

// revert is an execution failure of the simulated contract.
type revert struct {
	reason string
	data   []byte
}

func (r *revert) rpcError() *Error {
	return &Error{
		Code:    CodeExecution,
		Message: "execution reverted: " + r.reason,
		Data:    hexutil.Encode(r.data),
	}
}

// revertReason encodes reason like Solidity's Error(string).
func revertReason(reason string) *revert {
	typ, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: typ}}.Pack(reason)
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return &revert{reason: reason, data: append(selector, packed...)}
}

func insufficientBalance(balance, amount *big.Int) *revert {
	e := ledger.ABI.Errors[ledger.ErrorInsufficientBalance]
	packed, _ := e.Inputs.Pack(balance, amount)
	return &revert{
		reason: ledger.ErrorInsufficientBalance,
		data:   append(common.CopyBytes(e.ID[:4]), packed...),
	}
}

// call executes input against the contract on behalf of from. It returns the
// ABI encoded output and the emitted logs. The state is only modified if the
// call succeeds.
func (l *ledgerState) call(from common.Address, input []byte) ([]byte, []*types.Log, *revert) {
	if len(input) < 4 {
		return nil, nil, revertReason("no fallback function")
	}
	method, err := ledger.ABI.MethodById(input[:4])
	if err != nil {
		return nil, nil, revertReason("unknown function selector")
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, nil, revertReason("invalid call data")
	}

	switch method.Name {
	case ledger.MethodGetBalance, "balance":
		out, _ := method.Outputs.Pack(new(big.Int).Set(l.balance))
		return out, nil, nil
	case "owner":
		out, _ := method.Outputs.Pack(l.owner)
		return out, nil, nil
	case ledger.MethodDeposit:
		if !bytes.Equal(from.Bytes(), l.owner.Bytes()) {
			return nil, nil, revertReason(notOwner)
		}
		amount := args[0].(*big.Int)
		l.balance = new(big.Int).Add(l.balance, amount)
		return nil, []*types.Log{l.event(ledger.EventDeposit, amount)}, nil
	case ledger.MethodWithdraw:
		if !bytes.Equal(from.Bytes(), l.owner.Bytes()) {
			return nil, nil, revertReason(notOwner)
		}
		amount := args[0].(*big.Int)
		if l.balance.Cmp(amount) < 0 {
			return nil, nil, insufficientBalance(l.balance, amount)
		}
		l.balance = new(big.Int).Sub(l.balance, amount)
		return nil, []*types.Log{l.event(ledger.EventWithdraw, amount)}, nil
	}
	return nil, nil, revertReason("unsupported function " + method.Name)
}

func (l *ledgerState) event(name string, amount *big.Int) *types.Log {
	ev := ledger.ABI.Events[name]
	data, _ := ev.Inputs.Pack(amount)
	return &types.Log{
		Address: ledger.Address,
		Topics:  []common.Hash{ev.ID},
		Data:    data,
	}
}
