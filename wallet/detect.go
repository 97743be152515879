// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"genesis.network/go-metawallet/log"
)

// Host is the environment a session runs in. It may or may not expose a
// wallet provider.
type Host interface {
	// WalletProvider returns the host's wallet provider, if there is one.
	WalletProvider() (Provider, bool)
}

// HostFunc adapts a function to the Host interface.
type HostFunc func() (Provider, bool)

// WalletProvider calls f.
func (f HostFunc) WalletProvider() (Provider, bool) { return f() }

// NoHost is a host without a wallet provider.
var NoHost Host = HostFunc(func() (Provider, bool) { return nil, false })

// StaticHost returns a host that always exposes p.
func StaticHost(p Provider) Host {
	return HostFunc(func() (Provider, bool) { return p, p != nil })
}

// Detect checks whether host exposes a wallet provider and returns it, or nil
// if there is none. The capability cannot appear later during a session, so
// callers must not retry detection.
func Detect(host Host) Provider {
	if host == nil {
		log.Warn("No host environment, wallet provider unavailable")
		return nil
	}
	p, ok := host.WalletProvider()
	if !ok || p == nil {
		log.Warn("No wallet provider found in host environment")
		return nil
	}
	log.Debug("Wallet provider found")
	return p
}
