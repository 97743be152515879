// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package ui renders a session in the terminal. It is a thin layer on top of
// atm.ViewState: every frame is derived from ViewState.Content and every key
// maps to one controller or session operation.
package ui // import "genesis.network/go-metawallet/cmd/metawallet/ui"

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"genesis.network/go-metawallet/atm"
	"genesis.network/go-metawallet/wallet"
)

const appName = "MetaWallet ATM"

type field uint8

const (
	depositField field = iota
	withdrawField
)

func (f field) op() string {
	if f == withdrawField {
		return atm.OpWithdraw
	}
	return atm.OpDeposit
}

type (
	transitionMsg atm.Transition
	txEventMsg    atm.TxEvent
	connectedMsg  struct {
		account common.Address
		err     error
	}
	doneMsg struct {
		op, amount string
		err        error
	}
	refreshedMsg struct{ err error }
)

// Model is the bubbletea model of a session.
type Model struct {
	ctx  context.Context
	ctrl *atm.Controller
	view *atm.ViewState

	focus     field
	busy      string
	status    string
	statusErr bool
	approval  *ApprovalRequest
	width     int
}

// New creates a model for the controller. Operations started from the model
// run under ctx.
func New(ctx context.Context, c *atm.Controller) Model {
	return Model{ctx: ctx, ctrl: c, view: atm.NewViewState(c)}
}

// Init fetches the balance if the session is already bound.
func (m Model) Init() tea.Cmd {
	if m.view.Content().NeedsRefresh {
		return m.refresh()
	}
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case transitionMsg:
		switch msg.To {
		case atm.Disconnected:
			m.setStatus("Wallet disconnected", false)
		case atm.Bound:
			if msg.From == atm.Connected && msg.Account != (common.Address{}) {
				m.setStatus("Using account "+wallet.Short(msg.Account), false)
			}
		}
		if m.view.Content().NeedsRefresh {
			return m, m.refresh()
		}
		return m, nil

	case txEventMsg:
		if msg.Status == atm.TxSubmitted && m.busy == msg.Op {
			m.setStatus(fmt.Sprintf("%s of %s submitted in %s, waiting for confirmation",
				title(msg.Op), msg.Amount, shortHash(msg.Hash)), false)
		}
		return m, nil

	case connectedMsg:
		m.busy = ""
		if msg.err != nil {
			if atm.IsKind(msg.err, atm.ConnectionDenied) {
				m.setStatus("Connection request was rejected", true)
			} else {
				m.setStatus(msg.err.Error(), true)
			}
			return m, nil
		}
		m.setStatus("Connected "+wallet.Short(msg.account), false)
		return m, nil

	case doneMsg:
		m.busy = ""
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("%s of %s confirmed", title(msg.op), msg.amount), false)
		}
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.setStatus("Fetching balance failed: "+msg.err.Error(), true)
		}
		return m, nil

	case ApprovalRequest:
		m.approval = &msg
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.approval != nil {
		switch key {
		case "y", "enter":
			m.approval.answer(true)
			m.approval = nil
		case "n", "esc":
			m.approval.answer(false)
			m.approval = nil
		case "ctrl+c":
			m.approval.answer(false)
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	c := m.view.Content()
	switch c.Kind {
	case atm.ConnectPrompt:
		if (key == "c" || key == "enter") && m.busy == "" {
			m.busy = atm.OpConnect
			m.setStatus("Waiting for the wallet...", false)
			return m, m.connect()
		}
	case atm.AccountView:
		return m.updateAccountView(key)
	}
	return m, nil
}

func (m Model) updateAccountView(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "a":
		m.view.ToggleAccount()
	case "b":
		m.view.ToggleBalance()
	case "r":
		return m, m.refresh()
	case "tab", "up", "down":
		if m.focus == depositField {
			m.focus = withdrawField
		} else {
			m.focus = depositField
		}
	case "+", "=":
		if m.focus == depositField {
			m.ctrl.IncrementDeposit()
		} else {
			m.ctrl.IncrementWithdraw()
		}
	case "-":
		if m.focus == depositField {
			m.ctrl.DecrementDeposit()
		} else {
			m.ctrl.DecrementWithdraw()
		}
	case "backspace":
		if buf := m.input(); buf != "" {
			m.setInput(buf[:len(buf)-1])
		}
	case "enter":
		if m.busy != "" {
			return m, nil
		}
		op, amount := m.focus.op(), m.input()
		m.busy = op
		m.setStatus(fmt.Sprintf("Requesting %s of %s...", op, amount), false)
		return m, m.submit(op, amount)
	default:
		if len(key) == 1 && strings.ContainsAny(key, "0123456789.") {
			m.setInput(m.input() + key)
		}
	}
	return m, nil
}

func (m Model) input() string {
	if m.focus == depositField {
		return m.ctrl.DepositInput()
	}
	return m.ctrl.WithdrawInput()
}

func (m Model) setInput(s string) {
	if m.focus == depositField {
		m.ctrl.SetDepositInput(s)
	} else {
		m.ctrl.SetWithdrawInput(s)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m Model) connect() tea.Cmd {
	return func() tea.Msg {
		acc, err := m.ctrl.Session().Connect(m.ctx)
		return connectedMsg{account: acc, err: err}
	}
}

func (m Model) submit(op, amount string) tea.Cmd {
	return func() tea.Msg {
		var err error
		if op == atm.OpWithdraw {
			err = m.ctrl.Withdraw(m.ctx)
		} else {
			err = m.ctrl.Deposit(m.ctx)
		}
		return doneMsg{op: op, amount: amount, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.ctrl.RefreshBalance(m.ctx)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(appName))
	b.WriteString("\n")

	c := m.view.Content()
	switch c.Kind {
	case atm.InstallPrompt:
		b.WriteString(valueStyle.Render("No wallet provider found."))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("Install a wallet or set wallet.kind to use this ATM."))
	case atm.ConnectPrompt:
		b.WriteString(valueStyle.Render("Please connect your wallet."))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("c connect  q quit"))
	case atm.AccountView:
		b.WriteString(m.accountView(c))
	}

	if m.approval != nil {
		b.WriteString("\n\n")
		b.WriteString(m.approval.view())
	}
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = statusErrStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.status))
	}
	return b.String() + "\n"
}

func (m Model) accountView(c atm.Content) string {
	account := "hidden"
	if c.ShowAccount {
		account = c.Account.Hex()
	}
	balance := "hidden"
	if c.ShowBalance {
		if c.HasBalance {
			balance = c.Balance.String() + " ETH"
		} else {
			balance = "loading..."
		}
	}

	deposit, withdraw := inputStyle, inputStyle
	if m.focus == depositField {
		deposit = focusedInputStyle
	} else {
		withdraw = focusedInputStyle
	}

	rows := []string{
		labelStyle.Render("Account") + valueStyle.Render(account),
		labelStyle.Render("Balance") + valueStyle.Render(balance),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center, labelStyle.Render("Deposit"), deposit.Render(c.DepositInput)),
		lipgloss.JoinHorizontal(lipgloss.Center, labelStyle.Render("Withdraw"), withdraw.Render(c.WithdrawInput)),
		hintStyle.Render("tab switch  +/- adjust  enter submit  a/b show/hide  r refresh  q quit"),
	}
	return strings.Join(rows, "\n")
}

func title(op string) string {
	if op == "" {
		return op
	}
	return strings.ToUpper(op[:1]) + op[1:]
}

func shortHash(h common.Hash) string {
	s := h.Hex()
	return s[:10] + "…"
}
