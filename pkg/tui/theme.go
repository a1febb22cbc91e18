package tui

import (
	"github.com/charmbracelet/lipgloss"

	"spyglass-hq/spyglass/pkg/txstore"
)

// Theme defines the color palette for the spyglass TUI. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Outcome colors.
	OutcomeSuccess   lipgloss.Color
	OutcomeError     lipgloss.Color
	OutcomeCancelled lipgloss.Color

	// Upstream health.
	Healthy lipgloss.Color
	Cooling lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Status bar notices.
	ErrorText  lipgloss.Color
	NoticeText lipgloss.Color
}

// OutcomeColor returns the color for a transaction outcome. Successful
// exchanges render green, upstream and routing failures red, client
// cancellations gray.
func (theme Theme) OutcomeColor(outcome txstore.Outcome) lipgloss.Color {
	switch outcome {
	case txstore.OutcomeSuccess:
		return theme.OutcomeSuccess
	case txstore.OutcomeClientCancelled:
		return theme.OutcomeCancelled
	case txstore.OutcomeUpstreamError, txstore.OutcomeNoRouteMatch, txstore.OutcomeNoHealthyUpstream:
		return theme.OutcomeError
	default:
		return theme.NormalText
	}
}

// HealthColor returns the color for an upstream health status string.
func (theme Theme) HealthColor(status string) lipgloss.Color {
	if status == "healthy" {
		return theme.Healthy
	}
	return theme.Cooling
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed for
// 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	OutcomeSuccess:   lipgloss.Color("114"), // green
	OutcomeError:     lipgloss.Color("196"), // red
	OutcomeCancelled: lipgloss.Color("245"), // gray

	Healthy: lipgloss.Color("114"), // green
	Cooling: lipgloss.Color("208"), // orange

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	ErrorText:  lipgloss.Color("196"),
	NoticeText: lipgloss.Color("220"),
}
