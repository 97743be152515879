// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package sim

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// JSON-RPC error codes used by the simulated wallet.
const (
	CodeUserRejected   = 4001
	CodeUnauthorized   = 4100
	CodeExecution      = 3
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// Error is a JSON-RPC error returned by the simulated wallet.
type Error struct {
	Code    int
	Message string
	Data    interface{}
}

var (
	_ rpc.Error     = (*Error)(nil)
	_ rpc.DataError = (*Error)(nil)
)

func (e *Error) Error() string { return e.Message }

// ErrorCode returns the JSON-RPC error code.
func (e *Error) ErrorCode() int { return e.Code }

// ErrorData returns the JSON-RPC error data, if any.
func (e *Error) ErrorData() interface{} { return e.Data }

func newError(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// txArgs are the transaction fields of eth_call, eth_estimateGas,
// eth_signTransaction and eth_sendTransaction.
type txArgs struct {
	From                 *common.Address `json:"from"`
	To                   *common.Address `json:"to"`
	Gas                  *hexutil.Uint64 `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                *hexutil.Uint64 `json:"nonce"`
	Data                 *hexutil.Bytes  `json:"data"`
	Input                *hexutil.Bytes  `json:"input"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func (a *txArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

func (a *txArgs) from() common.Address {
	if a.From == nil {
		return common.Address{}
	}
	return *a.From
}

// logFilter is the subset of the eth_getLogs filter object the simulation
// supports.
type logFilter struct {
	Address   interface{}     `json:"address"`
	FromBlock *hexutil.Big    `json:"fromBlock"`
	ToBlock   *hexutil.Big    `json:"toBlock"`
	Topics    [][]common.Hash `json:"topics"`
}

func (f *logFilter) addresses() ([]common.Address, error) {
	switch a := f.Address.(type) {
	case nil:
		return nil, nil
	case string:
		return []common.Address{common.HexToAddress(a)}, nil
	case []interface{}:
		addrs := make([]common.Address, 0, len(a))
		for _, v := range a {
			s, ok := v.(string)
			if !ok {
				return nil, errors.New("invalid address in filter")
			}
			addrs = append(addrs, common.HexToAddress(s))
		}
		return addrs, nil
	default:
		return nil, errors.New("invalid address in filter")
	}
}

// decodeParams splits the positional request parameters after a JSON round
// trip, so that handlers see exactly what a remote wallet would see.
func decodeParams(params []interface{}) ([]json.RawMessage, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "encoding params")
	}
	var args []json.RawMessage
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, errors.Wrap(err, "decoding params")
	}
	return args, nil
}

func param(args []json.RawMessage, i int, v interface{}) error {
	if i >= len(args) {
		return newError(CodeInvalidParams, "missing value for required argument %d", i)
	}
	if err := json.Unmarshal(args[i], v); err != nil {
		return newError(CodeInvalidParams, "invalid argument %d: %v", i, err)
	}
	return nil
}

// encodeResult copies res into result through its JSON encoding.
func encodeResult(res, result interface{}) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	return errors.Wrap(json.Unmarshal(raw, result), "decoding result")
}
