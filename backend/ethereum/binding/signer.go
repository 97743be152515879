// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package binding

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/log"
	"genesis.network/go-metawallet/wallet"
)

// NewProviderSigner returns a bind.SignerFn that lets the wallet provider
// sign transactions of account with eth_signTransaction. The keys never leave
// the wallet. The signed transaction is checked against the one that was
// handed to the wallet.
func NewProviderSigner(ctx context.Context, p wallet.Provider, account common.Address) bind.SignerFn {
	return func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if from != account {
			return nil, errors.Errorf("not authorized to sign for %s", from.Hex())
		}
		var raw hexutil.Bytes
		if err := p.Request(ctx, &raw, "eth_signTransaction", toTxArg(from, tx)); err != nil {
			return nil, errors.WithMessage(err, "eth_signTransaction")
		}
		signed := new(types.Transaction)
		if err := signed.UnmarshalBinary(raw); err != nil {
			return nil, errors.Wrap(err, "decoding signed transaction")
		}
		if err := checkSigned(from, tx, signed); err != nil {
			return nil, err
		}
		log.Tracef("Wallet signed transaction %s", signed.Hash().Hex())
		return signed, nil
	}
}

func toTxArg(from common.Address, tx *types.Transaction) interface{} {
	arg := map[string]interface{}{
		"from":  from,
		"to":    tx.To(),
		"gas":   hexutil.Uint64(tx.Gas()),
		"nonce": hexutil.Uint64(tx.Nonce()),
		"value": (*hexutil.Big)(tx.Value()),
		"input": hexutil.Bytes(tx.Data()),
	}
	if tx.Type() == types.LegacyTxType {
		arg["gasPrice"] = (*hexutil.Big)(tx.GasPrice())
	} else {
		arg["maxFeePerGas"] = (*hexutil.Big)(tx.GasFeeCap())
		arg["maxPriorityFeePerGas"] = (*hexutil.Big)(tx.GasTipCap())
	}
	if id := tx.ChainId(); id != nil && id.Sign() > 0 {
		arg["chainId"] = (*hexutil.Big)(id)
	}
	return arg
}

// checkSigned verifies that the wallet signed what it was asked to sign, with
// the requested account.
func checkSigned(from common.Address, want, got *types.Transaction) error {
	switch {
	case got.Nonce() != want.Nonce():
		return errors.Errorf("wallet changed nonce from %d to %d", want.Nonce(), got.Nonce())
	case !bytes.Equal(got.Data(), want.Data()):
		return errors.New("wallet changed transaction data")
	case (got.To() == nil) != (want.To() == nil) || (got.To() != nil && *got.To() != *want.To()):
		return errors.New("wallet changed transaction recipient")
	case got.Value().Cmp(want.Value()) != 0:
		return errors.New("wallet changed transaction value")
	}
	sender, err := types.Sender(types.LatestSignerForChainID(got.ChainId()), got)
	if err != nil {
		return errors.Wrap(err, "recovering transaction sender")
	}
	if sender != from {
		return errors.Errorf("wallet signed with %s instead of %s", sender.Hex(), from.Hex())
	}
	return nil
}
