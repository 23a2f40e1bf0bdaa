package ui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

var (
	brandPurple = lipgloss.Color("#6C5CE7")
	brandIndigo = lipgloss.Color("#5D4FFF")
	cream       = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	grey        = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#777777"}
	faintGrey   = lipgloss.AdaptiveColor{Light: "#DDDADA", Dark: "#3C3C3C"}
	red         = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	mintGreen   = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen   = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(brandPurple).
			Bold(true).
			Padding(0, 1)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red).
				Render

	statusBarSpeechStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(brandIndigo).
				Render

	headingStyle = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(grey)
	errorStyle   = lipgloss.NewStyle().Foreground(red)

	chipStyle = lipgloss.NewStyle().
			Foreground(grey).
			Padding(0, 1)

	chipSelectedStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(brandPurple).
				Padding(0, 1)

	chipCursorStyle = lipgloss.NewStyle().
			Underline(true).
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(brandPurple).
			Bold(true).
			Padding(0, 3)

	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(grey).
				Background(faintGrey).
				Padding(0, 3)

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render
)

func logoView() string {
	return logoStyle.Render("Buzzar Brief")
}

// fadeRamp runs from nearly invisible to full white on 256-color
// terminals.
var fadeRamp = []int{235, 237, 239, 241, 243, 245, 247, 249, 251, 253, 255}

// fade returns the foreground color for text at the given opacity.
func fade(opacity float64) lipgloss.TerminalColor {
	opacity = math.Max(0, math.Min(1, opacity))
	i := int(math.Round(opacity * float64(len(fadeRamp)-1)))
	return lipgloss.Color(fmt.Sprint(fadeRamp[i]))
}
