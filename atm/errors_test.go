// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package atm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsKind(t *testing.T) {
	cause := errors.New("boom")
	err := newError(TransactionFailed, OpDeposit, cause)

	assert.True(t, IsKind(err, TransactionFailed))
	assert.False(t, IsKind(err, ConnectionDenied))
	assert.True(t, IsKind(errors.WithMessage(err, "outer"), TransactionFailed), "kind is found through wrapping")
	assert.False(t, IsKind(cause, TransactionFailed))
	assert.False(t, IsKind(nil, TransactionFailed))

	assert.Equal(t, cause, errors.Cause(err))
	assert.Equal(t, "deposit: transaction failed: boom", err.Error())
	assert.Equal(t, "connect: wallet unavailable", newError(WalletUnavailable, OpConnect, nil).Error())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "NoProvider", NoProvider.String())
	assert.Equal(t, "Bound", Bound.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
	assert.Equal(t, "Connected->Bound", Transition{From: Connected, To: Bound}.String())
}
