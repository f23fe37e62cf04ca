// SPDX-License-Identifier: Apache-2.0

package doctor

import "github.com/charmbracelet/lipgloss"

var (
	colorError      = lipgloss.Color("#EF4444")
	colorResolution = lipgloss.Color("#F59E0B")
	colorMuted      = lipgloss.Color("#6B7280")

	errorHeadingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorError)

	resolutionHeadingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorResolution)

	errorBlockStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(colorError).
			PaddingLeft(1)

	resolutionBlockStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(colorResolution).
				PaddingLeft(1)

	labelStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)
