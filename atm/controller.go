// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package atm

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/log"
)

// Metrics records the controller's activity.
type Metrics interface {
	// BalanceRefreshed is called after every balance fetch.
	BalanceRefreshed(err error)
	// TransactionDone is called when a deposit or withdrawal ends. latency
	// is the time from submission to the outcome.
	TransactionDone(op string, err error, latency time.Duration)
}

type noMetrics struct{}

func (noMetrics) BalanceRefreshed(error)                       {}
func (noMetrics) TransactionDone(string, error, time.Duration) {}

// TxStatus is the progress of a transaction.
type TxStatus uint8

// Transaction progress.
const (
	TxSubmitted TxStatus = iota
	TxConfirmed
	TxFailed
)

func (s TxStatus) String() string {
	switch s {
	case TxSubmitted:
		return "submitted"
	case TxConfirmed:
		return "confirmed"
	case TxFailed:
		return "failed"
	}
	return "unknown"
}

// TxEvent reports the progress of a deposit or withdrawal.
type TxEvent struct {
	Op     string
	Amount string
	Status TxStatus
	Hash   common.Hash // zero if the transaction was never submitted
	Err    error       // set iff Status is TxFailed
}

// Controller offers the ledger operations of a session: it caches the
// balance of the bound contract, holds the user's pending amounts and
// submits deposits and withdrawals. All methods are safe for concurrent use.
type Controller struct {
	session *Session
	log     log.Logger
	metrics Metrics

	mu         sync.Mutex
	balance    decimal.Decimal
	hasBalance bool
	balanceOf  ledger.Contract // contract the cached balance was read from
	depositIn  string
	withdrawIn string

	txFeed event.Feed
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMetrics makes the controller record into m.
func WithMetrics(m Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController creates a controller operating on the session's contract.
func NewController(s *Session, opts ...ControllerOption) *Controller {
	c := &Controller{
		session: s,
		log:     s.log.WithField("component", "controller"),
		metrics: noMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the controller's session.
func (c *Controller) Session() *Session { return c.session }

// Run follows the session's phase transitions until ctx is done. The balance
// is fetched when the session becomes bound and no balance is cached, and
// dropped whenever the session leaves Bound.
func (c *Controller) Run(ctx context.Context) error {
	transitions := make(chan Transition, 16)
	sub := c.session.SubscribeTransitions(transitions)
	defer sub.Unsubscribe()

	c.log.Trace("Listening for phase transitions")
	defer c.log.Trace("No longer listening for phase transitions")
	for {
		select {
		case t := <-transitions:
			c.log.Tracef("Tracked phase transition %v", t)
			c.handleTransition(ctx, t)
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Controller) handleTransition(ctx context.Context, t Transition) {
	if t.To != Bound {
		c.clearBalance()
		return
	}
	if _, ok := c.CurrentBalance(); ok {
		return
	}
	if err := c.RefreshBalance(ctx); err != nil {
		c.log.WithError(err).Warn("Fetching balance failed")
	}
}

// RefreshBalance reads the balance from the contract and caches it. It does
// nothing if the session is not bound. The cached balance is only replaced if
// the contract did not change during the read.
func (c *Controller) RefreshBalance(ctx context.Context) error {
	contract := c.session.Contract()
	if contract == nil {
		return nil
	}
	bal, err := contract.Balance(ctx)
	c.metrics.BalanceRefreshed(err)
	if err != nil {
		return errors.WithMessage(err, OpRefresh)
	}

	value := ledger.FromBaseUnits(bal)
	if c.session.Contract() != contract {
		c.log.Debug("Contract changed while fetching balance, dropping result")
		return nil
	}
	c.mu.Lock()
	c.balance, c.hasBalance, c.balanceOf = value, true, contract
	c.mu.Unlock()
	c.log.Debugf("Balance of %s is %s", contract.Signer().Hex(), value)
	return nil
}

// CurrentBalance returns the cached balance. It never fetches.
func (c *Controller) CurrentBalance() (decimal.Decimal, bool) {
	contract := c.session.Contract()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasBalance || contract == nil || contract != c.balanceOf {
		return decimal.Decimal{}, false
	}
	return c.balance, true
}

func (c *Controller) clearBalance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance, c.hasBalance, c.balanceOf = decimal.Decimal{}, false, nil
}

// Deposit deposits the pending deposit amount. See DepositAmount. The pending
// amount is cleared on success and kept on failure.
func (c *Controller) Deposit(ctx context.Context) error {
	amount := c.DepositInput()
	if err := c.DepositAmount(ctx, amount); err != nil {
		return err
	}
	c.mu.Lock()
	if c.depositIn == amount {
		c.depositIn = ""
	}
	c.mu.Unlock()
	return nil
}

// Withdraw withdraws the pending withdraw amount. See WithdrawAmount. The
// pending amount is cleared on success and kept on failure.
func (c *Controller) Withdraw(ctx context.Context) error {
	amount := c.WithdrawInput()
	if err := c.WithdrawAmount(ctx, amount); err != nil {
		return err
	}
	c.mu.Lock()
	if c.withdrawIn == amount {
		c.withdrawIn = ""
	}
	c.mu.Unlock()
	return nil
}

// DepositAmount deposits the decimal amount and waits for its confirmation.
// The balance is refreshed afterwards. Every failure is a TransactionFailed
// error.
func (c *Controller) DepositAmount(ctx context.Context, amount string) error {
	return c.transact(ctx, OpDeposit, amount)
}

// WithdrawAmount withdraws the decimal amount and waits for its confirmation.
// The contract decides whether the balance suffices.
func (c *Controller) WithdrawAmount(ctx context.Context, amount string) error {
	return c.transact(ctx, OpWithdraw, amount)
}

func (c *Controller) transact(ctx context.Context, op, amount string) error {
	contract := c.session.Contract()
	if contract == nil {
		return c.fail(op, amount, common.Hash{}, 0, errNotBound)
	}
	value, err := ledger.ToBaseUnits(amount)
	if err != nil {
		return c.fail(op, amount, common.Hash{}, 0, err)
	}

	start := time.Now()
	var tx ledger.Transaction
	switch op {
	case OpDeposit:
		tx, err = contract.Deposit(ctx, value)
	case OpWithdraw:
		tx, err = contract.Withdraw(ctx, value)
	default:
		log.Panicf("unknown ledger operation %q", op)
	}
	if err != nil {
		return c.fail(op, amount, common.Hash{}, time.Since(start), err)
	}
	c.log.Infof("Submitted %s of %s in transaction %s", op, amount, tx.Hash().Hex())
	c.txFeed.Send(TxEvent{Op: op, Amount: amount, Status: TxSubmitted, Hash: tx.Hash()})

	if _, err := tx.Wait(ctx); err != nil {
		return c.fail(op, amount, tx.Hash(), time.Since(start), err)
	}
	c.metrics.TransactionDone(op, nil, time.Since(start))
	c.log.Infof("Confirmed %s of %s", op, amount)
	c.txFeed.Send(TxEvent{Op: op, Amount: amount, Status: TxConfirmed, Hash: tx.Hash()})

	if err := c.RefreshBalance(ctx); err != nil {
		c.log.WithError(err).Warn("Fetching balance after confirmation failed")
	}
	return nil
}

func (c *Controller) fail(op, amount string, hash common.Hash, latency time.Duration, cause error) error {
	err := newError(TransactionFailed, op, cause)
	c.log.WithError(cause).Warnf("%s of %q failed", op, amount)
	c.metrics.TransactionDone(op, err, latency)
	c.txFeed.Send(TxEvent{Op: op, Amount: amount, Status: TxFailed, Hash: hash, Err: err})
	return err
}

// SubscribeTxEvents subscribes to the progress of deposits and withdrawals.
func (c *Controller) SubscribeTxEvents(sink chan<- TxEvent) event.Subscription {
	return c.txFeed.Subscribe(sink)
}

// DepositInput returns the pending deposit amount.
func (c *Controller) DepositInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depositIn
}

// WithdrawInput returns the pending withdraw amount.
func (c *Controller) WithdrawInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.withdrawIn
}

// SetDepositInput replaces the pending deposit amount. It is not validated
// before submission.
func (c *Controller) SetDepositInput(amount string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depositIn = amount
}

// SetWithdrawInput replaces the pending withdraw amount.
func (c *Controller) SetWithdrawInput(amount string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.withdrawIn = amount
}

// IncrementDeposit adds one unit to the pending deposit amount.
func (c *Controller) IncrementDeposit() string { return c.adjust(&c.depositIn, ledger.Increment) }

// DecrementDeposit subtracts one unit from the pending deposit amount.
func (c *Controller) DecrementDeposit() string { return c.adjust(&c.depositIn, ledger.Decrement) }

// IncrementWithdraw adds one unit to the pending withdraw amount.
func (c *Controller) IncrementWithdraw() string { return c.adjust(&c.withdrawIn, ledger.Increment) }

// DecrementWithdraw subtracts one unit from the pending withdraw amount.
func (c *Controller) DecrementWithdraw() string { return c.adjust(&c.withdrawIn, ledger.Decrement) }

func (c *Controller) adjust(buf *string, f func(string) string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	*buf = f(*buf)
	return *buf
}
