// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/log"
	metawallet "genesis.network/go-metawallet/wallet"
)

// Approver asks the user which of the offered accounts to connect. It returns
// the approved accounts, or an error if the user rejected the request.
type Approver func(ctx context.Context, offered []common.Address) ([]common.Address, error)

// ApproveAll approves all offered accounts without asking.
func ApproveAll(_ context.Context, offered []common.Address) ([]common.Address, error) {
	return offered, nil
}

// KeystoreProvider is a local host wallet. Keys are kept in a go-ethereum
// keystore and all chain requests are forwarded to a node.
type KeystoreProvider struct {
	ks         *keystore.KeyStore
	node       *rpc.Client
	chain      *ethclient.Client
	passphrase string
	approve    Approver

	mu      sync.Mutex
	authed  []common.Address
	chainID *big.Int

	feed   event.Feed
	ksSub  event.Subscription
	closed chan struct{}
}

var _ metawallet.Provider = (*KeystoreProvider)(nil)

// NewKeystoreProvider creates a local wallet provider. Accounts are unlocked
// with passphrase for every signature. chainID may be nil, in which case it is
// queried from the node on first use.
func NewKeystoreProvider(ks *keystore.KeyStore, node *rpc.Client, passphrase string, chainID *big.Int, approve Approver) *KeystoreProvider {
	if approve == nil {
		approve = ApproveAll
	}
	p := &KeystoreProvider{
		ks:         ks,
		node:       node,
		chain:      ethclient.NewClient(node),
		passphrase: passphrase,
		approve:    approve,
		chainID:    chainID,
		closed:     make(chan struct{}),
	}
	events := make(chan accounts.WalletEvent, 8)
	p.ksSub = ks.Subscribe(events)
	go p.watchKeystore(events)
	return p
}

// watchKeystore revokes the authorization of accounts whose key file
// disappears.
func (p *KeystoreProvider) watchKeystore(events <-chan accounts.WalletEvent) {
	for {
		select {
		case ev := <-events:
			if ev.Kind != accounts.WalletDropped {
				continue
			}
			for _, acc := range ev.Wallet.Accounts() {
				p.revoke(acc.Address)
			}
		case <-p.ksSub.Err():
			return
		case <-p.closed:
			return
		}
	}
}

func (p *KeystoreProvider) revoke(addr common.Address) {
	p.mu.Lock()
	authed := make([]common.Address, 0, len(p.authed))
	for _, a := range p.authed {
		if a != addr {
			authed = append(authed, a)
		}
	}
	changed := len(authed) != len(p.authed)
	p.authed = authed
	p.mu.Unlock()

	if changed {
		log.Infof("Key of account %s was removed from the keystore", addr.Hex())
		p.feed.Send(append([]common.Address{}, authed...))
	}
}

// Request implements wallet.Provider. Account and signing requests are
// answered locally, everything else is forwarded to the node.
func (p *KeystoreProvider) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	switch method {
	case metawallet.MethodAccounts:
		return setResult(p.Authorized(), result)
	case metawallet.MethodRequestAccounts:
		accs, err := p.requestAccounts(ctx)
		if err != nil {
			return err
		}
		return setResult(accs, result)
	case "eth_signTransaction":
		tx, err := p.signTransaction(ctx, params)
		if err != nil {
			return err
		}
		raw, err := tx.MarshalBinary()
		if err != nil {
			return errors.Wrap(err, "encoding transaction")
		}
		return setResult(hexutil.Bytes(raw), result)
	case "eth_sendTransaction":
		tx, err := p.signTransaction(ctx, params)
		if err != nil {
			return err
		}
		if err := p.chain.SendTransaction(ctx, tx); err != nil {
			return err
		}
		return setResult(tx.Hash(), result)
	}
	return p.node.CallContext(ctx, result, method, params...)
}

// Authorized returns the accounts the user connected.
func (p *KeystoreProvider) Authorized() []common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]common.Address{}, p.authed...)
}

func (p *KeystoreProvider) requestAccounts(ctx context.Context) ([]common.Address, error) {
	if authed := p.Authorized(); len(authed) > 0 {
		return authed, nil
	}
	ksAccs := p.ks.Accounts()
	offered := make([]common.Address, len(ksAccs))
	for i, a := range ksAccs {
		offered[i] = a.Address
	}
	approved, err := p.approve(ctx, offered)
	if err != nil {
		log.WithError(err).Debug("Account request rejected")
		return nil, newError(CodeUserRejected, "User rejected the request.")
	}
	if len(approved) == 0 {
		return nil, newError(CodeUserRejected, "User rejected the request.")
	}
	for _, a := range approved {
		if !p.ks.HasAddress(a) {
			return nil, newError(CodeUnauthorized, "account %s is not in the keystore", a.Hex())
		}
	}

	p.mu.Lock()
	changed := !metawallet.Equal(p.authed, approved)
	p.authed = append([]common.Address{}, approved...)
	p.mu.Unlock()
	if changed {
		p.feed.Send(append([]common.Address{}, approved...))
	}
	return approved, nil
}

// txArgs are the fields of an eth_signTransaction request.
type txArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to"`
	Gas                  *hexutil.Uint64 `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                *hexutil.Uint64 `json:"nonce"`
	Data                 *hexutil.Bytes  `json:"data"`
	Input                *hexutil.Bytes  `json:"input"`
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

// signTransaction builds the requested transaction, filling in missing fields
// from the node, and signs it with the keystore.
func (p *KeystoreProvider) signTransaction(ctx context.Context, params []interface{}) (*types.Transaction, error) {
	var args txArgs
	if err := decodeParam(params, 0, &args); err != nil {
		return nil, err
	}
	if !p.isAuthorized(args.From) {
		return nil, newError(CodeUnauthorized, "the requested account %s has not been authorized by the user", args.From.Hex())
	}
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}
	var nonce uint64
	if args.Nonce != nil {
		nonce = uint64(*args.Nonce)
	} else if nonce, err = p.chain.PendingNonceAt(ctx, args.From); err != nil {
		return nil, errors.WithMessage(err, "querying nonce")
	}
	var gas uint64
	if args.Gas != nil {
		gas = uint64(*args.Gas)
	} else {
		msg := ethereum.CallMsg{From: args.From, To: args.To, Value: value, Data: args.data()}
		if gas, err = p.chain.EstimateGas(ctx, msg); err != nil {
			return nil, errors.WithMessage(err, "estimating gas")
		}
	}

	var data types.TxData
	switch {
	case args.MaxFeePerGas != nil:
		tip := new(big.Int)
		if args.MaxPriorityFeePerGas != nil {
			tip = args.MaxPriorityFeePerGas.ToInt()
		}
		data = &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: args.MaxFeePerGas.ToInt(),
			Gas:       gas,
			To:        args.To,
			Value:     value,
			Data:      args.data(),
		}
	default:
		var price *big.Int
		if args.GasPrice != nil {
			price = args.GasPrice.ToInt()
		} else if price, err = p.chain.SuggestGasPrice(ctx); err != nil {
			return nil, errors.WithMessage(err, "querying gas price")
		}
		data = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       args.To,
			Value:    value,
			Data:     args.data(),
		}
	}

	tx, err := p.ks.SignTxWithPassphrase(accounts.Account{Address: args.From}, p.passphrase, types.NewTx(data), chainID)
	if err != nil {
		return nil, errors.Wrap(err, "signing transaction")
	}
	log.Debugf("Keystore signed transaction %s for %s", tx.Hash().Hex(), args.From.Hex())
	return tx, nil
}

func (p *KeystoreProvider) isAuthorized(addr common.Address) bool {
	for _, a := range p.Authorized() {
		if a == addr {
			return true
		}
	}
	return false
}

// ChainID returns the chain id transactions are signed for.
func (p *KeystoreProvider) ChainID(ctx context.Context) (*big.Int, error) {
	p.mu.Lock()
	id := p.chainID
	p.mu.Unlock()
	if id != nil {
		return id, nil
	}
	id, err := p.chain.ChainID(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "querying chain id")
	}
	p.mu.Lock()
	p.chainID = id
	p.mu.Unlock()
	return id, nil
}

// SubscribeAccountsChanged implements wallet.Provider.
func (p *KeystoreProvider) SubscribeAccountsChanged(sink chan<- []common.Address) event.Subscription {
	return p.feed.Subscribe(sink)
}

// Close stops watching the keystore and closes the node connection.
func (p *KeystoreProvider) Close() {
	select {
	case <-p.closed:
		return
	default:
		close(p.closed)
	}
	p.ksSub.Unsubscribe()
	p.node.Close()
}
