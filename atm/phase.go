// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package atm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"genesis.network/go-metawallet/ledger"
)

// Phase is the phase of a session.
type Phase uint8

// Phases of a session, in the order a session normally passes through them.
const (
	// NoProvider is terminal: the host has no wallet.
	NoProvider Phase = iota
	// ProviderFound means a provider was detected but not queried yet.
	ProviderFound
	// Disconnected means the wallet has no authorized account.
	Disconnected
	// Connected means an account is active but not bound yet.
	Connected
	// Bound means the ledger contract is bound to the active account. Only
	// bound sessions can read the balance and transact.
	Bound
)

var phaseNames = [...]string{"NoProvider", "ProviderFound", "Disconnected", "Connected", "Bound"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Transition is published whenever a session changes its phase. It carries
// the account and contract of the target phase.
type Transition struct {
	From, To Phase
	Account  common.Address
	Contract ledger.Contract
}

func (t Transition) String() string {
	return fmt.Sprintf("%v->%v", t.From, t.To)
}
