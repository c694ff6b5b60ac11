// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette shared by every CLI renderer. Tuned for dark backgrounds.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
	ColorVerbose   = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle is for section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	// SubtitleStyle is for secondary text.
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	// SuccessStyle is for positive outcomes.
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	// WarningStyle is for warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	// CmdStyle is for aliases and other things the user can type.
	CmdStyle = lipgloss.NewStyle().Foreground(ColorHighlight)
	// VerboseStyle is for supplementary detail.
	VerboseStyle = lipgloss.NewStyle().Foreground(ColorVerbose)

	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	renderHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorError).
				MarginBottom(1)

	renderCommandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorHighlight)

	renderLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorWarning)

	renderValueStyle = lipgloss.NewStyle().
				Foreground(ColorVerbose)

	renderHintStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true).
			MarginTop(1)
)
