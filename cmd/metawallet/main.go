// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Command metawallet is a terminal ATM for the ledger contract. It connects
// to a wallet provider, shows the connected account and its ledger balance and
// submits deposits and withdrawals.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"genesis.network/go-metawallet/config"
)

var (
	v = config.New()

	rootFlags struct {
		cfgFile  string
		envFiles []string
	}
)

var rootCmd = &cobra.Command{
	Use:   "metawallet",
	Short: "Terminal ATM for the ledger contract",
	Long: `metawallet connects to a wallet provider and lets the connected account
deposit into and withdraw from the ledger contract.

Configuration is read from $HOME/.config/metawallet/config.toml, .env files
and METAWALLET_ environment variables, e.g. METAWALLET_WALLET_KIND=keystore.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.cfgFile, "config", "", "config file (default $HOME/.config/metawallet/config.toml)")
	pf.StringSliceVar(&rootFlags.envFiles, "env-file", nil, ".env files to load (default ./.env)")
	pf.String("log-level", "info", "log level: trace|debug|info|warn|error")
	pf.String("log-file", "", "log file (default metawallet.log in the temp dir)")
	pf.String("wallet", config.WalletSim, "wallet provider: rpc|keystore|sim|none")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address")

	for key, flag := range map[string]string{
		"log.level":    "log-level",
		"log.file":     "log-file",
		"wallet.kind":  "wallet",
		"metrics.addr": "metrics-addr",
	} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
