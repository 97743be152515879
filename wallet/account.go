// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"github.com/ethereum/go-ethereum/common"
)

// First returns the first entry of an account list, which is the account a
// session operates on. It returns false for an empty list.
func First(accounts []common.Address) (common.Address, bool) {
	if len(accounts) == 0 {
		return common.Address{}, false
	}
	return accounts[0], true
}

// Equal reports whether two account lists contain the same accounts in the
// same order.
func Equal(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Short returns an abbreviated form of an account for display, e.g.
// "0x5FbD…0aa3".
func Short(acc common.Address) string {
	s := acc.Hex()
	return s[:6] + "…" + s[len(s)-4:]
}
