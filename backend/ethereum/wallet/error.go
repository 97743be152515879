// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package wallet contains the wallet providers for Ethereum hosts: a remote
// wallet reached over JSON-RPC and a local wallet backed by a keystore.
package wallet // import "genesis.network/go-metawallet/backend/ethereum/wallet"

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// Provider error codes, as defined by EIP-1193.
const (
	CodeUserRejected  = 4001
	CodeUnauthorized  = 4100
	CodeInvalidParams = -32602
)

// Error is an error answered by a local wallet provider.
type Error struct {
	Code    int
	Message string
}

var _ rpc.Error = (*Error)(nil)

func (e *Error) Error() string { return e.Message }

// ErrorCode returns the provider error code.
func (e *Error) ErrorCode() int { return e.Code }

func newError(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// setResult copies res into result through its JSON encoding, as if it had
// been received over the wire.
func setResult(res, result interface{}) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	return errors.Wrap(json.Unmarshal(raw, result), "decoding result")
}

// decodeParam decodes the i-th request parameter into v.
func decodeParam(params []interface{}, i int, v interface{}) error {
	if i >= len(params) {
		return newError(CodeInvalidParams, "missing value for required argument %d", i)
	}
	raw, err := json.Marshal(params[i])
	if err != nil {
		return errors.Wrapf(err, "encoding argument %d", i)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newError(CodeInvalidParams, "invalid argument %d: %v", i, err)
	}
	return nil
}
