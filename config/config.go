// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package config loads the host application's configuration from defaults, an
// optional config file, .env files and METAWALLET_ environment variables.
package config // import "genesis.network/go-metawallet/config"

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. METAWALLET_WALLET_KIND for wallet.kind.
const EnvPrefix = "METAWALLET"

// Wallet kinds.
const (
	WalletRPC      = "rpc"
	WalletKeystore = "keystore"
	WalletSim      = "sim"
	WalletNone     = "none"
)

// Config is the host application's configuration.
type Config struct {
	Wallet  WalletConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// WalletConfig selects and configures the wallet provider.
type WalletConfig struct {
	Kind        string
	RPCURL      string `mapstructure:"rpc_url"`
	KeystoreDir string `mapstructure:"keystore_dir"`
	Password    string
	NodeURL     string `mapstructure:"node_url"`
	ChainID     int64  `mapstructure:"chain_id"`
	// SimBalance is the initial ledger balance of the simulated wallet.
	SimBalance string `mapstructure:"sim_balance"`
}

// LogConfig configures logging. Logs go to File, or to stderr if File is
// empty.
type LogConfig struct {
	Level string
	File  string
}

// MetricsConfig configures the metrics endpoint. An empty address disables
// it.
type MetricsConfig struct {
	Addr string
}

// New creates a viper instance with defaults and the environment bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("wallet.kind", WalletSim)
	v.SetDefault("wallet.rpc_url", "http://127.0.0.1:8550")
	v.SetDefault("wallet.keystore_dir", filepath.Join(os.Getenv("HOME"), ".ethereum", "keystore"))
	v.SetDefault("wallet.password", "")
	v.SetDefault("wallet.node_url", "http://127.0.0.1:8545")
	v.SetDefault("wallet.chain_id", 0)
	v.SetDefault("wallet.sim_balance", "1")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(os.TempDir(), "metawallet.log"))
	v.SetDefault("metrics.addr", "")

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env files, the config file and the environment into a Config.
// cfgFile overrides the config file location, which otherwise is
// $METAWALLET_CONFIG or $HOME/.config/metawallet/config.toml. A missing
// default config file is not an error.
func Load(v *viper.Viper, cfgFile string, envFiles ...string) (Config, error) {
	if err := loadEnv(envFiles...); err != nil {
		return Config{}, err
	}

	if cfgFile == "" {
		cfgFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config file %s", cfgFile)
		}
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "metawallet"))
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, errors.Wrap(err, "reading config file")
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	return c, c.Validate()
}

// loadEnv loads the given .env files, or ./.env if none are given. Variables
// that are already set are not overridden. A missing default file is ignored.
func loadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	return errors.Wrap(godotenv.Load(files...), "loading env files")
}

// Validate checks that the configuration is complete for the selected wallet.
func (c Config) Validate() error {
	switch c.Wallet.Kind {
	case WalletRPC:
		if c.Wallet.RPCURL == "" {
			return errors.New("wallet.rpc_url is required for the rpc wallet")
		}
	case WalletKeystore:
		if c.Wallet.KeystoreDir == "" || c.Wallet.NodeURL == "" {
			return errors.New("wallet.keystore_dir and wallet.node_url are required for the keystore wallet")
		}
	case WalletSim, WalletNone:
	default:
		return errors.Errorf("unknown wallet.kind %q", c.Wallet.Kind)
	}
	return nil
}
