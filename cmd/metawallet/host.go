// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"golang.org/x/term"

	ethwallet "genesis.network/go-metawallet/backend/ethereum/wallet"
	"genesis.network/go-metawallet/backend/sim"
	"genesis.network/go-metawallet/cmd/metawallet/ui"
	"genesis.network/go-metawallet/config"
	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/log"
	"genesis.network/go-metawallet/wallet"
)

const (
	accountPollInterval = 2 * time.Second
	simAccounts         = 2
)

// newHost creates the host environment selected by c. Account approvals of
// the keystore wallet are asked through send. The returned function releases
// the host's connections.
func newHost(ctx context.Context, c config.WalletConfig, send func(tea.Msg)) (wallet.Host, func(), error) {
	noop := func() {}
	switch c.Kind {
	case config.WalletNone:
		return wallet.NoHost, noop, nil

	case config.WalletSim:
		bal, err := ledger.ToBaseUnits(c.SimBalance)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "wallet.sim_balance")
		}
		if bal.Sign() < 0 {
			return nil, nil, errors.Errorf("wallet.sim_balance %s is negative", c.SimBalance)
		}
		b := sim.NewRandom(rand.New(rand.NewSource(time.Now().UnixNano())), simAccounts, bal)
		log.Infof("Simulated wallet with accounts %v", b.Accounts())
		return wallet.StaticHost(b), noop, nil

	case config.WalletRPC:
		p, err := ethwallet.DialRPC(ctx, c.RPCURL)
		if err != nil {
			return nil, nil, err
		}
		go p.PollAccounts(ctx, accountPollInterval)
		return wallet.StaticHost(p), p.Close, nil

	case config.WalletKeystore:
		ks := keystore.NewKeyStore(c.KeystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
		node, err := rpc.DialContext(ctx, c.NodeURL)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "dialing node %s", c.NodeURL)
		}
		pass := c.Password
		if pass == "" {
			if pass, err = promptPassword("Keystore password"); err != nil {
				node.Close()
				return nil, nil, err
			}
		}
		var chainID *big.Int
		if c.ChainID != 0 {
			chainID = big.NewInt(c.ChainID)
		}
		p := ethwallet.NewKeystoreProvider(ks, node, pass, chainID, ui.Approver(send))
		return wallet.StaticHost(p), p.Close, nil
	}
	return nil, nil, errors.Errorf("unknown wallet kind %q", c.Kind)
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt+": ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pass), nil
}
