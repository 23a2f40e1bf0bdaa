package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type splashModel struct {
	common *commonModel
}

func newSplashModel(common *commonModel) splashModel {
	return splashModel{common: common}
}

func (m splashModel) init() tea.Cmd {
	return tea.Tick(m.common.cfg.SplashDuration, func(time.Time) tea.Msg {
		return splashDoneMsg{}
	})
}

func (m splashModel) update(msg tea.Msg) (splashModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" {
			return m, send(quitMsg{})
		}
		// Any other key skips the wait.
		return m, send(splashDoneMsg{})
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease {
			return m, send(splashDoneMsg{})
		}
	}
	return m, nil
}

func (m splashModel) view() string {
	s := lipgloss.JoinVertical(lipgloss.Center,
		logoView(),
		"",
		subtleStyle.Render("News that speaks for itself"),
	)
	if m.common.width == 0 || m.common.height == 0 {
		return s
	}
	return lipgloss.Place(m.common.width, m.common.height, lipgloss.Center, lipgloss.Center, s)
}
