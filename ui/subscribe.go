package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/buzzarbrief/brief/internal/news"
)

type subscribeResultMsg struct {
	attempt   int
	subscribe bool
	err       error
}

type subscribeState int

const (
	subscribeStateInput subscribeState = iota
	subscribeStateSending
	subscribeStateDone
)

// subscribeModel is the newsletter sign-up form.
type subscribeModel struct {
	common  *commonModel
	state   subscribeState
	input   textinput.Model
	spinner spinner.Model

	// unsubscribe flips the form to removing the number.
	unsubscribe bool
	attempt     int
	message     string
	isError     bool
}

func newSubscribeModel(common *commonModel) subscribeModel {
	ti := textinput.New()
	ti.Prompt = "☎ "
	ti.Placeholder = "+91 98765 43210"
	ti.CharLimit = 20

	return subscribeModel{
		common:  common,
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m *subscribeModel) setSize(w, _ int) {
	m.input.Width = max(10, min(w-8, 30))
}

func (m *subscribeModel) open() tea.Cmd {
	m.state = subscribeStateInput
	m.message = ""
	m.isError = false
	m.input.SetValue("")
	if m.common.svc.Subscriber == nil {
		m.message = "Newsletter is not configured"
		m.isError = true
		return nil
	}
	return m.input.Focus()
}

func (m subscribeModel) update(msg tea.Msg) (subscribeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case subscribeResultMsg:
		if msg.attempt != m.attempt || m.state != subscribeStateSending {
			return m, nil
		}
		m.state = subscribeStateDone
		if msg.err != nil {
			log.Error("newsletter request failed", "subscribe", msg.subscribe, "error", msg.err)
			m.state = subscribeStateInput
			m.message = "Something went wrong. Please try again."
			m.isError = true
			return m, m.input.Focus()
		}
		m.isError = false
		if msg.subscribe {
			m.message = "You're subscribed! Your daily brief is on its way."
		} else {
			m.message = "You've been unsubscribed."
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != subscribeStateSending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.input.Blur()
			return m, send(closeSubscribeMsg{})
		}

		if m.common.svc.Subscriber == nil || m.state == subscribeStateSending {
			return m, nil
		}
		if m.state == subscribeStateDone {
			if msg.String() == "enter" || msg.String() == "q" {
				return m, send(closeSubscribeMsg{})
			}
			return m, nil
		}

		switch msg.String() {
		case "tab":
			m.unsubscribe = !m.unsubscribe
			return m, nil
		case "enter":
			return m, m.submit()
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.isError {
			m.message, m.isError = "", false
		}
		return m, cmd
	}
	return m, nil
}

// submit validates the number locally; only a valid number reaches the
// backend.
func (m *subscribeModel) submit() tea.Cmd {
	phone, err := news.NormalizePhone(m.input.Value(), m.common.cfg.PhoneRegion)
	if err != nil {
		log.Debug("rejected phone number", "error", err)
		m.message = "Please enter a valid phone number"
		m.isError = true
		return nil
	}

	m.attempt++
	m.state = subscribeStateSending
	m.message = ""
	m.isError = false
	m.input.Blur()

	sub, ctx := m.common.svc.Subscriber, m.common.ctx
	attempt, subscribe := m.attempt, !m.unsubscribe
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		err := sub.Subscribe(ctx, phone, subscribe)
		return subscribeResultMsg{attempt: attempt, subscribe: subscribe, err: err}
	})
}

func (m subscribeModel) view() string {
	var b strings.Builder

	title := "Get your daily brief on WhatsApp"
	action := "SUBSCRIBE"
	if m.unsubscribe {
		title = "Stop your daily brief"
		action = "UNSUBSCRIBE"
	}

	fmt.Fprintln(&b, logoView())
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, headingStyle.Render(title))
	fmt.Fprintln(&b)

	if m.common.svc.Subscriber != nil {
		switch m.state {
		case subscribeStateSending:
			fmt.Fprintf(&b, "%s Sending…\n", m.spinner.View())
		case subscribeStateDone:
		default:
			fmt.Fprintln(&b, m.input.View())
			fmt.Fprintln(&b)
			fmt.Fprintln(&b, buttonStyle.Render(action))
		}
	}

	if m.message != "" {
		style := subtleStyle.Bold(true)
		if m.isError {
			style = errorStyle
		}
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, style.Render(m.message))
	}

	fmt.Fprintln(&b)
	switch {
	case m.common.svc.Subscriber == nil:
		fmt.Fprint(&b, subtleStyle.Render("esc back"))
	case m.state == subscribeStateDone:
		fmt.Fprint(&b, subtleStyle.Render("enter/esc back"))
	default:
		fmt.Fprint(&b, subtleStyle.Render("enter submit • tab subscribe/unsubscribe • esc back"))
	}

	return "\n" + indent(b.String(), 3)
}
