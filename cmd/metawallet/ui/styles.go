// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package ui

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent  lipgloss.Color = "#cba6f7"
	colorText    lipgloss.Color = "#cdd6f4"
	colorMuted   lipgloss.Color = "#7f849c"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorError   lipgloss.Color = "#f38ba8"
	colorWarning lipgloss.Color = "#f9e2af"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(colorMuted).Width(10)
	valueStyle = lipgloss.NewStyle().Foreground(colorText)
	hintStyle  = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorMuted).
			Width(24)
	focusedInputStyle = inputStyle.BorderForeground(colorAccent)

	statusStyle    = lipgloss.NewStyle().Foreground(colorSuccess).MarginTop(1)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorError).MarginTop(1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Padding(0, 1)
)
