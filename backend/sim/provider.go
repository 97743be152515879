// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package sim

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/log"
	"genesis.network/go-metawallet/wallet"
)

// Request implements wallet.Provider. Parameters and results pass through
// their JSON encoding, as they would over the wire.
func (b *Backend) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	args, err := decodeParams(params)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.calls[method]++
	b.mu.Unlock()
	log.Tracef("sim: request %s", method)

	if method == wallet.MethodRequestAccounts {
		accs, err := b.requestAccounts()
		if err != nil {
			return err
		}
		return encodeResult(accs, result)
	}

	b.mu.Lock()
	res, err := b.handle(method, args)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return encodeResult(res, result)
}

// requestAccounts handles eth_requestAccounts. It authorizes all wallet
// accounts unless the simulated user rejects the request.
func (b *Backend) requestAccounts() ([]common.Address, error) {
	b.mu.Lock()
	if b.reject {
		b.mu.Unlock()
		return nil, newError(CodeUserRejected, "User rejected the request.")
	}
	accs := b.authed
	if len(accs) == 0 {
		accs = b.accs
	}
	accs = append([]common.Address(nil), accs...)
	b.mu.Unlock()

	b.setAuthorized(accs)
	return accs, nil
}

// handle dispatches a request. The caller must hold the lock.
func (b *Backend) handle(method string, args []json.RawMessage) (interface{}, error) {
	switch method {
	case wallet.MethodAccounts:
		return append([]common.Address{}, b.authed...), nil
	case "eth_chainId":
		return (*hexutil.Big)(b.chainID), nil
	case "eth_blockNumber":
		return hexutil.Uint64(b.head().Number.Uint64()), nil
	case "eth_getBlockByNumber":
		return b.blockByNumber(args)
	case "eth_gasPrice", "eth_maxPriorityFeePerGas":
		return (*hexutil.Big)(GasPrice), nil
	case "eth_getTransactionCount":
		var acc common.Address
		if err := param(args, 0, &acc); err != nil {
			return nil, err
		}
		return hexutil.Uint64(b.pendingNonce(acc)), nil
	case "eth_getCode":
		var acc common.Address
		if err := param(args, 0, &acc); err != nil {
			return nil, err
		}
		if acc == ledger.Address {
			return hexutil.Bytes(ledgerCode), nil
		}
		return hexutil.Bytes{}, nil
	case "eth_call":
		var call txArgs
		if err := param(args, 0, &call); err != nil {
			return nil, err
		}
		out, err := b.dryRun(&call)
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(out), nil
	case "eth_estimateGas":
		var call txArgs
		if err := param(args, 0, &call); err != nil {
			return nil, err
		}
		if _, err := b.dryRun(&call); err != nil {
			return nil, err
		}
		return hexutil.Uint64(txGas), nil
	case "eth_signTransaction":
		var tx txArgs
		if err := param(args, 0, &tx); err != nil {
			return nil, err
		}
		signed, err := b.signTx(&tx)
		if err != nil {
			return nil, err
		}
		raw, err := signed.MarshalBinary()
		if err != nil {
			return nil, newError(CodeInternal, "encoding transaction: %v", err)
		}
		return hexutil.Bytes(raw), nil
	case "eth_sendTransaction":
		var tx txArgs
		if err := param(args, 0, &tx); err != nil {
			return nil, err
		}
		signed, err := b.signTx(&tx)
		if err != nil {
			return nil, err
		}
		return b.submit(signed)
	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := param(args, 0, &raw); err != nil {
			return nil, err
		}
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(raw); err != nil {
			return nil, newError(CodeInvalidParams, "invalid transaction: %v", err)
		}
		return b.submit(tx)
	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := param(args, 0, &hash); err != nil {
			return nil, err
		}
		// A missing receipt encodes as null.
		return b.receipts[hash], nil
	case "eth_getLogs":
		var filter logFilter
		if err := param(args, 0, &filter); err != nil {
			return nil, err
		}
		return b.filterLogs(&filter)
	}
	return nil, newError(CodeMethodNotFound, "the method %s does not exist/is not available", method)
}

func (b *Backend) blockByNumber(args []json.RawMessage) (interface{}, error) {
	var tag string
	if err := param(args, 0, &tag); err != nil {
		return nil, err
	}
	switch tag {
	case "latest", "pending", "safe", "finalized":
		return b.head(), nil
	case "earliest":
		return b.blocks[0], nil
	}
	n, err := hexutil.DecodeUint64(tag)
	if err != nil {
		return nil, newError(CodeInvalidParams, "invalid block number %q", tag)
	}
	if n >= uint64(len(b.blocks)) {
		return nil, nil
	}
	return b.blocks[n], nil
}

// dryRun executes call against a copy of the ledger state.
func (b *Backend) dryRun(call *txArgs) ([]byte, error) {
	if call.To == nil || *call.To != ledger.Address {
		return nil, nil
	}
	out, _, rev := b.ledger.clone().call(call.from(), call.data())
	if rev != nil {
		return nil, rev.rpcError()
	}
	return out, nil
}

// signTx signs the transaction described by args with the key of its sender.
// Only authorized accounts may sign.
func (b *Backend) signTx(args *txArgs) (*types.Transaction, error) {
	from := args.from()
	key, ok := b.keys[from]
	if !ok || !b.isAuthorized(from) {
		return nil, newError(CodeUnauthorized, "the requested account %s has not been authorized by the user", from.Hex())
	}
	if args.ChainID != nil && args.ChainID.ToInt().Cmp(b.chainID) != 0 {
		return nil, newError(CodeInvalidParams, "chain id mismatch: %v", args.ChainID.ToInt())
	}

	nonce := b.pendingNonce(from)
	if args.Nonce != nil {
		nonce = uint64(*args.Nonce)
	}
	gas := uint64(txGas)
	if args.Gas != nil {
		gas = uint64(*args.Gas)
	}
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}

	var data types.TxData
	if args.GasPrice != nil {
		data = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: args.GasPrice.ToInt(),
			Gas:      gas,
			To:       args.To,
			Value:    value,
			Data:     args.data(),
		}
	} else {
		tip, feeCap := new(big.Int).Set(GasPrice), new(big.Int).Mul(GasPrice, big.NewInt(2))
		if args.MaxPriorityFeePerGas != nil {
			tip = args.MaxPriorityFeePerGas.ToInt()
		}
		if args.MaxFeePerGas != nil {
			feeCap = args.MaxFeePerGas.ToInt()
		}
		data = &types.DynamicFeeTx{
			ChainID:   b.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        args.To,
			Value:     value,
			Data:      args.data(),
		}
	}
	tx, err := types.SignNewTx(key, types.LatestSignerForChainID(b.chainID), data)
	if err != nil {
		return nil, newError(CodeInternal, "signing transaction: %v", err)
	}
	return tx, nil
}

func (b *Backend) isAuthorized(acc common.Address) bool {
	for _, a := range b.authed {
		if a == acc {
			return true
		}
	}
	return false
}

// submit adds a signed transaction to the pending set and mines it if
// automatic mining is enabled.
func (b *Backend) submit(tx *types.Transaction) (interface{}, error) {
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return nil, newError(CodeInvalidParams, "invalid sender: %v", err)
	}
	if _, known := b.txs[tx.Hash()]; known {
		return nil, newError(CodeInvalidParams, "already known")
	}
	if want := b.pendingNonce(from); tx.Nonce() != want {
		return nil, newError(CodeInvalidParams, "invalid nonce: have %d, want %d", tx.Nonce(), want)
	}
	b.nonces[from]++
	b.txs[tx.Hash()] = tx
	b.pending = append(b.pending, tx)
	log.Debugf("sim: accepted transaction %s from %s", tx.Hash().Hex(), from.Hex())
	if b.autoMine {
		b.mine()
	}
	return tx.Hash(), nil
}

func (b *Backend) filterLogs(f *logFilter) (interface{}, error) {
	addrs, err := f.addresses()
	if err != nil {
		return nil, newError(CodeInvalidParams, "%v", err)
	}
	logs := []types.Log{}
	for _, l := range b.logs {
		if f.FromBlock != nil && l.BlockNumber < f.FromBlock.ToInt().Uint64() {
			continue
		}
		if f.ToBlock != nil && l.BlockNumber > f.ToBlock.ToInt().Uint64() {
			continue
		}
		if len(addrs) > 0 && !containsAddress(addrs, l.Address) {
			continue
		}
		if !matchTopics(f.Topics, l.Topics) {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func containsAddress(addrs []common.Address, a common.Address) bool {
	for _, addr := range addrs {
		if addr == a {
			return true
		}
	}
	return false
}

func matchTopics(filter [][]common.Hash, topics []common.Hash) bool {
	if len(filter) > len(topics) {
		return false
	}
	for i, alternatives := range filter {
		if len(alternatives) == 0 {
			continue
		}
		found := false
		for _, t := range alternatives {
			if t == topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
