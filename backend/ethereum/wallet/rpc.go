// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/log"
	metawallet "genesis.network/go-metawallet/wallet"
)

// RPCProvider is a wallet provider reached over JSON-RPC, e.g. a signer
// daemon or a node with unlocked accounts. Remote wallets do not push account
// changes, so the provider publishes every change it observes in account
// responses.
type RPCProvider struct {
	client *rpc.Client

	mu       sync.Mutex
	accounts []common.Address
	seen     bool

	feed event.Feed
}

var _ metawallet.Provider = (*RPCProvider)(nil)

// DialRPC connects to the wallet endpoint at url.
func DialRPC(ctx context.Context, url string) (*RPCProvider, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing wallet at %s", url)
	}
	return NewRPCProvider(c), nil
}

// NewRPCProvider creates a provider on top of an existing client.
func NewRPCProvider(c *rpc.Client) *RPCProvider {
	return &RPCProvider{client: c}
}

// Request forwards the request to the remote wallet.
func (p *RPCProvider) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	var raw json.RawMessage
	if err := p.client.CallContext(ctx, &raw, method, params...); err != nil {
		return err
	}
	if method == metawallet.MethodAccounts || method == metawallet.MethodRequestAccounts {
		var accs []common.Address
		if err := json.Unmarshal(raw, &accs); err == nil {
			p.observe(accs)
		}
	}
	if result == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, result), "decoding result")
}

// observe records the accounts of an account response and notifies
// subscribers if they differ from the last response. The first response only
// sets the baseline.
func (p *RPCProvider) observe(accs []common.Address) {
	p.mu.Lock()
	changed := p.seen && !metawallet.Equal(p.accounts, accs)
	p.accounts = append([]common.Address{}, accs...)
	p.seen = true
	p.mu.Unlock()

	if changed {
		log.Debugf("Remote wallet accounts changed to %v", accs)
		p.feed.Send(append([]common.Address{}, accs...))
	}
}

// SubscribeAccountsChanged implements wallet.Provider.
func (p *RPCProvider) SubscribeAccountsChanged(sink chan<- []common.Address) event.Subscription {
	return p.feed.Subscribe(sink)
}

// PollAccounts queries eth_accounts every interval until ctx is done, so that
// changes made in the remote wallet reach subscribers.
func (p *RPCProvider) PollAccounts(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := metawallet.Accounts(ctx, p); err != nil && ctx.Err() == nil {
				log.WithError(err).Warn("Polling remote wallet accounts failed")
			}
		}
	}
}

// Close closes the connection to the remote wallet.
func (p *RPCProvider) Close() {
	p.client.Close()
}
