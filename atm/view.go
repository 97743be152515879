// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package atm

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ContentKind selects what the user interface shows.
type ContentKind uint8

// Content kinds.
const (
	// InstallPrompt asks the user to install a wallet.
	InstallPrompt ContentKind = iota
	// ConnectPrompt asks the user to connect an account.
	ConnectPrompt
	// AccountView shows the account and ledger operations.
	AccountView
)

func (k ContentKind) String() string {
	switch k {
	case InstallPrompt:
		return "InstallPrompt"
	case ConnectPrompt:
		return "ConnectPrompt"
	case AccountView:
		return "AccountView"
	}
	return "unknown"
}

// Content is a snapshot of what to render.
type Content struct {
	Kind ContentKind

	// The following fields are only set for AccountView.
	Account       common.Address
	ShowAccount   bool
	ShowBalance   bool
	Balance       decimal.Decimal
	HasBalance    bool
	DepositInput  string
	WithdrawInput string
	// NeedsRefresh is set if the session is bound but no balance is cached.
	// Content never fetches, the caller decides whether to refresh.
	NeedsRefresh bool
}

// ViewState holds presentation-only state on top of a controller.
type ViewState struct {
	controller *Controller

	mu          sync.Mutex
	showAccount bool
	showBalance bool
}

// NewViewState creates a view state that shows account and balance.
func NewViewState(c *Controller) *ViewState {
	return &ViewState{controller: c, showAccount: true, showBalance: true}
}

// ToggleAccount toggles whether the account is shown and returns the new
// setting.
func (v *ViewState) ToggleAccount() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.showAccount = !v.showAccount
	return v.showAccount
}

// ToggleBalance toggles whether the balance is shown and returns the new
// setting.
func (v *ViewState) ToggleBalance() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.showBalance = !v.showBalance
	return v.showBalance
}

// Content derives what to render. It has no side effects.
func (v *ViewState) Content() Content {
	s := v.controller.Session()
	if s.Provider() == nil {
		return Content{Kind: InstallPrompt}
	}
	acc, ok := s.Account()
	if !ok {
		return Content{Kind: ConnectPrompt}
	}

	bal, hasBal := v.controller.CurrentBalance()
	v.mu.Lock()
	defer v.mu.Unlock()
	return Content{
		Kind:          AccountView,
		Account:       acc,
		ShowAccount:   v.showAccount,
		ShowBalance:   v.showBalance,
		Balance:       bal,
		HasBalance:    hasBal,
		DepositInput:  v.controller.DepositInput(),
		WithdrawInput: v.controller.WithdrawInput(),
		NeedsRefresh:  !hasBal && s.Contract() != nil,
	}
}
