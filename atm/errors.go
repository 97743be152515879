// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package atm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the failures of session and ledger operations.
type Kind int

// Error kinds.
const (
	// WalletUnavailable means the host has no wallet provider. The user has to
	// install one.
	WalletUnavailable Kind = iota + 1
	// ConnectionDenied means the user rejected the account request or the
	// provider failed to answer it.
	ConnectionDenied
	// BindingUnavailable means the contract could not be bound.
	BindingUnavailable
	// TransactionFailed means a deposit or withdrawal was not confirmed.
	TransactionFailed
)

func (k Kind) String() string {
	switch k {
	case WalletUnavailable:
		return "wallet unavailable"
	case ConnectionDenied:
		return "connection denied"
	case BindingUnavailable:
		return "binding unavailable"
	case TransactionFailed:
		return "transaction failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Operation names used in errors and events.
const (
	OpLoad     = "load accounts"
	OpConnect  = "connect"
	OpWatch    = "watch accounts"
	OpBind     = "bind"
	OpRefresh  = "refresh balance"
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
)

// Error is returned by all operations that fail at the session boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Cause returns the underlying cause, for errors.Cause.
func (e *Error) Cause() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind, looking through
// wrapped errors.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

var (
	errNoProvider = errors.New("no wallet provider installed")
	errNotBound   = errors.New("no account connected")
	errNoAccounts = errors.New("wallet returned no accounts")
)
