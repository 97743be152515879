// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package ui

import (
	"context"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"genesis.network/go-metawallet/atm"
	ethwallet "genesis.network/go-metawallet/backend/ethereum/wallet"
)

// ApprovalRequest asks the user whether to connect the offered accounts.
type ApprovalRequest struct {
	Offered []common.Address
	reply   chan<- bool
}

func (r *ApprovalRequest) answer(ok bool) {
	select {
	case r.reply <- ok:
	default:
	}
}

func (r *ApprovalRequest) view() string {
	lines := []string{"Connect the following accounts?"}
	for _, a := range r.Offered {
		lines = append(lines, "  "+a.Hex())
	}
	lines = append(lines, hintStyle.Render("y approve  n reject"))
	return modalStyle.Render(strings.Join(lines, "\n"))
}

// Approver returns a keystore approver that asks the user through the
// program reached by send.
func Approver(send func(tea.Msg)) ethwallet.Approver {
	return func(ctx context.Context, offered []common.Address) ([]common.Address, error) {
		reply := make(chan bool, 1)
		send(ApprovalRequest{Offered: offered, reply: reply})
		select {
		case ok := <-reply:
			if !ok {
				return nil, errors.New("user rejected the account request")
			}
			return offered, nil
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "waiting for approval")
		}
	}
}

// Relay sends messages to a program that may not be running yet. Messages
// sent before Attach are queued.
type Relay struct {
	mu      sync.Mutex
	p       *tea.Program
	pending []tea.Msg
}

// Attach delivers the queued messages to p, in the order they were sent, and
// routes all further messages to it.
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()
	if len(pending) == 0 {
		return
	}
	go func() {
		for _, msg := range pending {
			p.Send(msg)
		}
	}()
}

// Send sends msg to the attached program or queues it.
func (r *Relay) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	if p == nil {
		r.pending = append(r.pending, msg)
	}
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Forward sends the session's phase transitions and the controller's
// transaction events to send until ctx is done.
func Forward(ctx context.Context, c *atm.Controller, send func(tea.Msg)) error {
	transitions := make(chan atm.Transition, 16)
	tsub := c.Session().SubscribeTransitions(transitions)
	defer tsub.Unsubscribe()
	txs := make(chan atm.TxEvent, 16)
	xsub := c.SubscribeTxEvents(txs)
	defer xsub.Unsubscribe()

	for {
		select {
		case t := <-transitions:
			send(transitionMsg(t))
		case ev := <-txs:
			send(txEventMsg(ev))
		case err := <-tsub.Err():
			return err
		case err := <-xsub.Err():
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
