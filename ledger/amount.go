// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package ledger

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of the ledger's native unit.
const Decimals = 18

// Step is the amount by which the input helpers adjust a pending amount.
const Step = 1

// ToBaseUnits converts a human-decimal amount like "0.5" into base units.
// It fails on non-numeric input and on more fractional digits than the unit
// supports. Negative amounts are converted; whether they are acceptable is up
// to the contract encoding.
func ToBaseUnits(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", amount)
	}
	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return nil, errors.Errorf("amount %q exceeds %d decimals", amount, Decimals)
	}
	return shifted.BigInt(), nil
}

// FromBaseUnits converts a base-unit amount into its decimal representation.
// A nil amount is treated as zero.
func FromBaseUnits(amount *big.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -Decimals)
}

// FormatBalance formats a base-unit amount for display, e.g. "1.5".
func FormatBalance(amount *big.Int) string {
	return FromBaseUnits(amount).String()
}

// Adjust adds step to the decimal amount held in buf and returns the new
// buffer contents. A missing or invalid buffer counts as zero.
func Adjust(buf string, step int64) string {
	d, err := decimal.NewFromString(strings.TrimSpace(buf))
	if err != nil {
		d = decimal.Zero
	}
	return d.Add(decimal.NewFromInt(step)).String()
}

// Increment adds Step to the amount held in buf.
func Increment(buf string) string { return Adjust(buf, Step) }

// Decrement subtracts Step from the amount held in buf.
func Decrement(buf string) string { return Adjust(buf, -Step) }
