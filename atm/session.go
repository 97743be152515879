// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package atm implements a wallet session for the ledger contract: it detects
// the host's wallet provider, tracks the active account, keeps the contract
// bound to it and offers balance, deposit and withdraw operations on top.
package atm // import "genesis.network/go-metawallet/atm"

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/ledger"
	"genesis.network/go-metawallet/log"
	"genesis.network/go-metawallet/wallet"
)

// Binder binds the ledger contract to an account of a provider. Binding must
// not make network requests.
type Binder interface {
	Bind(p wallet.Provider, account common.Address) (ledger.Contract, error)
}

// BinderFunc allows ordinary functions to be used as a Binder.
type BinderFunc func(p wallet.Provider, account common.Address) (ledger.Contract, error)

// Bind calls f(p, account).
func (f BinderFunc) Bind(p wallet.Provider, account common.Address) (ledger.Contract, error) {
	return f(p, account)
}

// Session tracks the wallet provider and the active account of one user and
// keeps the contract bound to them. All methods are safe for concurrent use.
//
// The contract is present iff both the provider and an account are present.
type Session struct {
	id     uuid.UUID
	log    log.Logger
	binder Binder

	mu       sync.Mutex
	phase    Phase
	provider wallet.Provider
	account  common.Address
	contract ledger.Contract

	transitions event.Feed
	pubMu       sync.Mutex   // serializes flush
	pending     []Transition // guarded by mu
}

// NewSession creates a session in phase NoProvider. Start it with Start.
func NewSession(binder Binder) *Session {
	id := uuid.New()
	return &Session{
		id:     id,
		log:    log.WithField("session", id.String()),
		binder: binder,
	}
}

// ID returns the session's unique id.
func (s *Session) ID() uuid.UUID { return s.id }

// Start detects the host's wallet provider. Without a provider the session
// stays in phase NoProvider for good. Otherwise the accounts the user already
// authorized are loaded. Only the latter can fail, see LoadExistingAccounts.
func (s *Session) Start(ctx context.Context, host wallet.Host) error {
	p := wallet.Detect(host)
	if p == nil {
		s.log.Info("No wallet provider, install one to use the ATM")
		return nil
	}

	s.mu.Lock()
	if s.provider != nil {
		s.mu.Unlock()
		return errors.New("session already started")
	}
	s.provider = p
	s.setPhase(ProviderFound)
	s.mu.Unlock()
	s.flush()

	return s.LoadExistingAccounts(ctx)
}

// LoadExistingAccounts queries the accounts the user authorized before,
// without prompting. The first one becomes the active account. Errors leave
// the session unchanged.
func (s *Session) LoadExistingAccounts(ctx context.Context) error {
	p := s.Provider()
	if p == nil {
		return newError(WalletUnavailable, OpLoad, errNoProvider)
	}
	accs, err := wallet.Accounts(ctx, p)
	if err != nil {
		s.log.WithError(err).Warn("Loading existing accounts failed")
		return errors.WithMessage(err, "querying accounts")
	}
	s.log.Debugf("Found %d authorized accounts", len(accs))
	s.HandleAccountsChanged(accs)
	return nil
}

// Connect asks the user to authorize accounts and adopts the first one. It is
// meant to be called on a user action and is never retried. An empty answer
// disconnects the session and is reported as ConnectionDenied.
func (s *Session) Connect(ctx context.Context) (common.Address, error) {
	p := s.Provider()
	if p == nil {
		return common.Address{}, newError(WalletUnavailable, OpConnect, errNoProvider)
	}
	accs, err := wallet.RequestAccounts(ctx, p)
	if err != nil {
		s.log.WithError(err).Info("Connecting account failed")
		return common.Address{}, newError(ConnectionDenied, OpConnect, err)
	}
	s.HandleAccountsChanged(accs)
	acc, ok := wallet.First(accs)
	if !ok {
		return common.Address{}, newError(ConnectionDenied, OpConnect, errNoAccounts)
	}
	return acc, nil
}

// HandleAccountsChanged applies an account list reported by the wallet. The
// first account becomes the active one, an empty list disconnects. The
// contract is rebound whenever the account changes. Without a provider, the
// list is ignored.
func (s *Session) HandleAccountsChanged(accounts []common.Address) {
	acc, ok := wallet.First(accounts)

	s.mu.Lock()
	if s.provider == nil {
		s.mu.Unlock()
		s.log.Warn("Ignoring account change without a wallet provider")
		return
	}
	switch {
	case !ok:
		s.account, s.contract = common.Address{}, nil
		s.setPhase(Disconnected)
	case s.phase == Bound && s.account == acc:
		// The active account did not change.
	default:
		s.account, s.contract = acc, nil
		s.setPhase(Connected)
		if c, err := s.bind(); err == nil {
			s.contract = c
			s.setPhase(Bound)
		}
	}
	s.mu.Unlock()

	s.flush()
}

// bind binds the contract to the active account. The caller must hold the
// lock.
func (s *Session) bind() (ledger.Contract, error) {
	if s.provider == nil {
		err := newError(BindingUnavailable, OpBind, errNoProvider)
		s.log.WithError(err).Warn("Cannot bind contract")
		return nil, err
	}
	c, err := s.binder.Bind(s.provider, s.account)
	if err != nil {
		err := newError(BindingUnavailable, OpBind, err)
		s.log.WithError(err).Warn("Cannot bind contract")
		return nil, err
	}
	s.log.Debugf("Bound contract %s to account %s", c.Address().Hex(), s.account.Hex())
	return c, nil
}

// setPhase changes the phase and queues the transition for flush. Entering
// Connected from Bound passes through a transition, so that subscribers see
// every rebinding. The caller must hold the lock.
func (s *Session) setPhase(to Phase) {
	from := s.phase
	if from == to && to != Connected {
		return
	}
	s.phase = to
	s.log.Tracef("Phase transition %v->%v", from, to)
	s.pending = append(s.pending, Transition{From: from, To: to, Account: s.account, Contract: s.contract})
}

// flush publishes the queued transitions. Transitions reach subscribers in
// the order they were made, even if several goroutines change the session at
// once. The caller must not hold the lock.
func (s *Session) flush() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	trans := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, t := range trans {
		s.transitions.Send(t)
	}
}

// Watch applies the provider's account-change notifications in order until
// ctx is done or the subscription fails.
func (s *Session) Watch(ctx context.Context) error {
	p := s.Provider()
	if p == nil {
		return newError(WalletUnavailable, OpWatch, errNoProvider)
	}
	changes := make(chan []common.Address, 8)
	sub := p.SubscribeAccountsChanged(changes)
	defer sub.Unsubscribe()

	s.log.Trace("Watching account changes")
	defer s.log.Trace("No longer watching account changes")
	for {
		select {
		case accs := <-changes:
			s.log.Debugf("Accounts changed to %v", accs)
			s.HandleAccountsChanged(accs)
		case err := <-sub.Err():
			return errors.WithMessage(err, "account subscription failed")
		case <-ctx.Done():
			return nil
		}
	}
}

// SubscribeTransitions subscribes to the session's phase transitions.
func (s *Session) SubscribeTransitions(sink chan<- Transition) event.Subscription {
	return s.transitions.Subscribe(sink)
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Provider returns the detected provider, or nil.
func (s *Session) Provider() wallet.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// Account returns the active account, if any.
func (s *Session) Account() (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.phase >= Connected
}

// Contract returns the bound contract, or nil if the session is not bound.
func (s *Session) Contract() ledger.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contract
}
