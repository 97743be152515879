// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package binding

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/ledger"
)

const revertPrefix = "execution reverted"

// RevertReason extracts a human readable revert reason from an error returned
// by a provider. Custom errors of the ledger contract are decoded with their
// arguments. It returns false if err is not a revert.
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if reason, ok := decodeRevert(de.ErrorData()); ok {
			return reason, true
		}
	}
	msg := err.Error()
	i := strings.Index(msg, revertPrefix)
	if i < 0 {
		return "", false
	}
	reason := strings.TrimPrefix(strings.TrimSpace(msg[i+len(revertPrefix):]), ":")
	return strings.TrimSpace(reason), true
}

func decodeRevert(data interface{}) (string, bool) {
	s, ok := data.(string)
	if !ok {
		return "", false
	}
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) < 4 {
		return "", false
	}
	if reason, err := abi.UnpackRevert(raw); err == nil {
		return reason, true
	}
	for name, e := range ledger.ABI.Errors {
		if !bytes.Equal(e.ID[:4], raw[:4]) {
			continue
		}
		args, err := e.Inputs.Unpack(raw[4:])
		if err != nil {
			return name, true
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprintf("%s=%v", e.Inputs[i].Name, a)
		}
		return name + "(" + strings.Join(parts, ", ") + ")", true
	}
	return "", false
}
