// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package binding

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/wallet"
)

// ContractInterface is the chain access a contract handle needs: calling,
// transacting and waiting for receipts.
type ContractInterface interface {
	bind.ContractBackend
	bind.DeployBackend
}

// ProviderBackend implements ContractInterface on top of a wallet provider.
// Every chain access is a request to the provider, so the host's wallet also
// acts as the node connection.
type ProviderBackend struct {
	provider wallet.Provider
}

// compile time check that we implement the contract interface
var _ ContractInterface = (*ProviderBackend)(nil)

// NewProviderBackend creates a contract backend that sends all requests to p.
func NewProviderBackend(p wallet.Provider) *ProviderBackend {
	return &ProviderBackend{provider: p}
}

// CodeAt returns the code of the given account.
func (b *ProviderBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	var code hexutil.Bytes
	err := b.provider.Request(ctx, &code, "eth_getCode", contract, toBlockNumArg(blockNumber))
	return code, errors.WithMessage(err, "eth_getCode")
}

// CallContract executes a message call without creating a transaction.
func (b *ProviderBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out hexutil.Bytes
	err := b.provider.Request(ctx, &out, "eth_call", toCallArg(call), toBlockNumArg(blockNumber))
	return out, errors.WithMessage(err, "eth_call")
}

// HeaderByNumber returns the header of the given block, or the latest header
// if number is nil.
func (b *ProviderBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var head *types.Header
	if err := b.provider.Request(ctx, &head, "eth_getBlockByNumber", toBlockNumArg(number), false); err != nil {
		return nil, errors.WithMessage(err, "eth_getBlockByNumber")
	}
	if head == nil {
		return nil, ethereum.NotFound
	}
	return head, nil
}

// PendingCodeAt returns the code of the given account in the pending state.
func (b *ProviderBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	var code hexutil.Bytes
	err := b.provider.Request(ctx, &code, "eth_getCode", account, "pending")
	return code, errors.WithMessage(err, "eth_getCode")
}

// PendingNonceAt returns the next nonce of account including pending
// transactions.
func (b *ProviderBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	err := b.provider.Request(ctx, &nonce, "eth_getTransactionCount", account, "pending")
	return uint64(nonce), errors.WithMessage(err, "eth_getTransactionCount")
}

// SuggestGasPrice returns the gas price suggested by the provider.
func (b *ProviderBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price hexutil.Big
	if err := b.provider.Request(ctx, &price, "eth_gasPrice"); err != nil {
		return nil, errors.WithMessage(err, "eth_gasPrice")
	}
	return (*big.Int)(&price), nil
}

// SuggestGasTipCap returns the priority fee suggested by the provider.
func (b *ProviderBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	var tip hexutil.Big
	if err := b.provider.Request(ctx, &tip, "eth_maxPriorityFeePerGas"); err != nil {
		return nil, errors.WithMessage(err, "eth_maxPriorityFeePerGas")
	}
	return (*big.Int)(&tip), nil
}

// EstimateGas estimates the gas needed to execute call. A call that would
// revert fails here, before anything is signed.
func (b *ProviderBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	var gas hexutil.Uint64
	err := b.provider.Request(ctx, &gas, "eth_estimateGas", toCallArg(call))
	return uint64(gas), errors.WithMessage(err, "eth_estimateGas")
}

// SendTransaction submits a signed transaction.
func (b *ProviderBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	data, err := tx.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encoding transaction")
	}
	return errors.WithMessage(
		b.provider.Request(ctx, nil, "eth_sendRawTransaction", hexutil.Encode(data)),
		"eth_sendRawTransaction")
}

// TransactionReceipt returns the receipt of a mined transaction, or
// ethereum.NotFound if it is not mined yet.
func (b *ProviderBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var r *types.Receipt
	if err := b.provider.Request(ctx, &r, "eth_getTransactionReceipt", txHash); err != nil {
		return nil, errors.WithMessage(err, "eth_getTransactionReceipt")
	}
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// FilterLogs executes a log filter query.
func (b *ProviderBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := b.provider.Request(ctx, &logs, "eth_getLogs", toFilterArg(q))
	return logs, errors.WithMessage(err, "eth_getLogs")
}

// SubscribeFilterLogs is not supported by wallet providers, which only push
// account notifications.
func (b *ProviderBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("log subscriptions are not supported by wallet providers")
}

func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	if number.Sign() < 0 {
		return "pending"
	}
	return hexutil.EncodeBig(number)
}

func toCallArg(msg ethereum.CallMsg) interface{} {
	arg := map[string]interface{}{
		"from": msg.From,
		"to":   msg.To,
	}
	if len(msg.Data) > 0 {
		arg["input"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	if msg.GasFeeCap != nil {
		arg["maxFeePerGas"] = (*hexutil.Big)(msg.GasFeeCap)
	}
	if msg.GasTipCap != nil {
		arg["maxPriorityFeePerGas"] = (*hexutil.Big)(msg.GasTipCap)
	}
	return arg
}

func toFilterArg(q ethereum.FilterQuery) interface{} {
	arg := map[string]interface{}{
		"address": q.Addresses,
		"topics":  q.Topics,
	}
	if q.BlockHash != nil {
		arg["blockHash"] = *q.BlockHash
		return arg
	}
	if q.FromBlock != nil {
		arg["fromBlock"] = toBlockNumArg(q.FromBlock)
	}
	if q.ToBlock != nil {
		arg["toBlock"] = toBlockNumArg(q.ToBlock)
	}
	return arg
}
