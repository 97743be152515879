// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package metrics exports the activity of the ledger controller as Prometheus
// metrics.
package metrics // import "genesis.network/go-metawallet/metrics"

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genesis.network/go-metawallet/log"
)

const namespace = "metawallet"

// Result label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics implements the controller's metrics on Prometheus collectors.
type Metrics struct {
	refreshes *prometheus.CounterVec
	txs       *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "balance_refreshes_total",
			Help:      "Balance reads from the ledger contract by result.",
		}, []string{"result"}),
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Deposits and withdrawals by operation and result.",
		}, []string{"op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transaction_seconds",
			Help:      "Time from submission to the outcome of deposits and withdrawals.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 15, 30, 60, 120},
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{m.refreshes, m.txs, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering collector")
		}
	}
	return m, nil
}

func result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultOK
}

// BalanceRefreshed counts a balance read.
func (m *Metrics) BalanceRefreshed(err error) {
	m.refreshes.WithLabelValues(result(err)).Inc()
}

// TransactionDone counts a finished transaction and observes its latency.
func (m *Metrics) TransactionDone(op string, err error, latency time.Duration) {
	m.txs.WithLabelValues(op, result(err)).Inc()
	m.latency.WithLabelValues(op).Observe(latency.Seconds())
}

// Serve serves the metrics of g under /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Infof("Serving metrics on %s/metrics", addr)

	select {
	case err := <-errc:
		return errors.Wrap(err, "serving metrics")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutting down metrics server")
	}
}
