// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"genesis.network/go-metawallet/atm"
	"genesis.network/go-metawallet/backend/ethereum/binding"
	"genesis.network/go-metawallet/cmd/metawallet/ui"
	"genesis.network/go-metawallet/config"
	"genesis.network/go-metawallet/log"
	plogrus "genesis.network/go-metawallet/log/logrus"
	"genesis.network/go-metawallet/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the ATM in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(v, rootFlags.cfgFile, rootFlags.envFiles...)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func run(ctx context.Context, cfg config.Config) error {
	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var opts []atm.ControllerOption
	if cfg.Metrics.Addr != "" {
		m, err := serveMetrics(ctx, cfg.Metrics.Addr)
		if err != nil {
			return err
		}
		opts = append(opts, atm.WithMetrics(m))
	}

	relay := new(ui.Relay)
	host, closeHost, err := newHost(ctx, cfg.Wallet, relay.Send)
	if err != nil {
		return err
	}
	defer closeHost()

	session := atm.NewSession(binding.Binder{})
	ctrl := atm.NewController(session, opts...)
	if err := session.Start(ctx, host); err != nil {
		log.WithError(err).Warn("Starting session")
	}
	log.WithField("session", session.ID()).Infof("Session started in phase %v", session.Phase())

	p := tea.NewProgram(ui.New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	relay.Attach(p)

	go func() {
		if err := ctrl.Run(ctx); err != nil {
			log.WithError(err).Error("Controller stopped")
		}
	}()
	go func() {
		if err := ui.Forward(ctx, ctrl, relay.Send); err != nil {
			log.WithError(err).Error("Forwarding events stopped")
		}
	}()
	if session.Provider() != nil {
		go func() {
			if err := session.Watch(ctx); err != nil {
				log.WithError(err).Error("Watching account changes stopped")
			}
		}()
	}

	_, err = p.Run()
	return errors.Wrap(err, "running terminal ui")
}

// setupLogging installs a logrus logger writing to the configured file. The
// terminal belongs to the ui, so stderr is only used without a file.
func setupLogging(c config.LogConfig) (func(), error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(err, "parsing log level")
	}
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	closer := func() {}
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, errors.Wrap(err, "opening log file")
		}
		l.SetOutput(f)
		closer = func() { f.Close() }
	}
	log.Set(plogrus.FromLogrus(l))
	return closer, nil
}

func serveMetrics(ctx context.Context, addr string) (*metrics.Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := metrics.Serve(ctx, addr, reg); err != nil {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()
	return m, nil
}
