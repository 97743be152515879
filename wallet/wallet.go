// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package wallet defines an abstraction to wallet providers.
// A wallet provider is a capability exposed by the host environment that
// holds the user's keys, answers account queries and signs transactions on
// the user's behalf. Providers can be browser extensions bridged over RPC,
// local keystores or simulations.
package wallet // import "genesis.network/go-metawallet/wallet"

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Provider request methods used by the session.
const (
	// MethodAccounts queries already-authorized accounts without prompting.
	MethodAccounts = "eth_accounts"
	// MethodRequestAccounts asks the user to authorize accounts.
	MethodRequestAccounts = "eth_requestAccounts"
)

// Provider is the wallet provider capability. It is borrowed from the host
// for the lifetime of a session and never mutated.
type Provider interface {
	// Request issues a JSON-RPC style request and decodes its result into
	// result, which must be a pointer or nil.
	Request(ctx context.Context, result interface{}, method string, params ...interface{}) error

	// SubscribeAccountsChanged subscribes to account-change notifications.
	// Every notification carries the complete new account list, which is
	// empty if the user disconnected all accounts.
	SubscribeAccountsChanged(sink chan<- []common.Address) event.Subscription
}

// Accounts queries the provider for already-authorized accounts.
func Accounts(ctx context.Context, p Provider) ([]common.Address, error) {
	var accs []common.Address
	err := p.Request(ctx, &accs, MethodAccounts)
	return accs, err
}

// RequestAccounts asks the provider to let the user authorize accounts.
func RequestAccounts(ctx context.Context, p Provider) ([]common.Address, error) {
	var accs []common.Address
	err := p.Request(ctx, &accs, MethodRequestAccounts)
	return accs, err
}
