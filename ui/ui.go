// Package ui provides the terminal screens of brief.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	te "github.com/muesli/termenv"

	"github.com/buzzarbrief/brief/internal/news"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "link copied"
	ellipsis             = "…"
)

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, svc Services) *tea.Program {
	log.Debug(
		"Starting brief",
		"glamour", cfg.GlamourEnabled,
		"mouse", cfg.EnableMouse,
		"speech", svc.NewSpeaker != nil,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, svc), opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// state is the top-level application state: the screen on display.
type state int

const (
	stateSplash state = iota
	stateSelection
	stateFetching
	stateFeed
	stateSubscribe
)

func (s state) String() string {
	return map[state]string{
		stateSplash:    "showing splash",
		stateSelection: "selecting interests",
		stateFetching:  "fetching news",
		stateFeed:      "showing feed",
		stateSubscribe: "subscribing",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	svc    Services
	ctx    context.Context
	width  int
	height int
}

type model struct {
	common   *commonModel
	state    state
	fatalErr error

	// Sub-models
	splash    splashModel
	selection selectionModel
	fetching  fetchingModel
	feed      feedModel
	subscribe subscribeModel

	cancel context.CancelFunc
}

func newModel(cfg Config, svc Services) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}
	if svc.Copy == nil {
		svc.Copy = copyToClipboard
	}

	ctx, cancel := context.WithCancel(context.Background())
	common := &commonModel{cfg: cfg, svc: svc, ctx: ctx}

	return model{
		common:    common,
		state:     stateSplash,
		splash:    newSplashModel(common),
		selection: newSelectionModel(common),
		fetching:  newFetchingModel(common),
		feed:      newFeedModel(common),
		subscribe: newSubscribeModel(common),
		cancel:    cancel,
	}
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	return m.splash.init()
}

// quit releases everything the screens hold before exiting.
func (m model) quit() (tea.Model, tea.Cmd) {
	m.feed.unmount()
	m.cancel()
	return m, tea.Quit
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m.quit()
		}
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		// Ctrl+C always quits no matter where in the application you are.
		case "ctrl+c":
			return m.quit()
		case "ctrl+z":
			return m, tea.Suspend
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.selection.setSize(msg.Width, msg.Height)
		m.feed.setSize(msg.Width, msg.Height)
		m.subscribe.setSize(msg.Width, msg.Height)

	case errMsg:
		m.fatalErr = msg.err
		return m, nil

	case splashDoneMsg:
		if m.state != stateSplash {
			return m, nil
		}
		m.state = stateSelection
		return m, m.selection.init()

	case getNewsMsg:
		m.state = stateFetching
		return m, m.fetching.start(msg.query)

	case showFeedMsg:
		if m.state != stateFetching {
			return m, nil
		}
		m.state = stateFeed
		return m, m.feed.mount(msg.query, msg.articles, msg.err)

	case backToSelectionMsg:
		m.feed.unmount()
		m.state = stateSelection
		return m, nil

	case openSubscribeMsg:
		m.state = stateSubscribe
		return m, m.subscribe.open()

	case closeSubscribeMsg:
		m.state = stateFeed
		return m, nil

	case quitMsg:
		return m.quit()
	}

	switch m.state {
	case stateSplash:
		m.splash, cmd = m.splash.update(msg)
	case stateSelection:
		m.selection, cmd = m.selection.update(msg)
	case stateFetching:
		m.fetching, cmd = m.fetching.update(msg)
	case stateFeed:
		m.feed, cmd = m.feed.update(msg)
	case stateSubscribe:
		m.subscribe, cmd = m.subscribe.update(msg)
	}

	// Speech events and settle timers keep flowing to the feed while the
	// newsletter screen covers it.
	if m.state == stateSubscribe {
		switch msg.(type) {
		case speechEventMsg, settleMsg:
			var feedCmd tea.Cmd
			m.feed, feedCmd = m.feed.update(msg)
			cmd = tea.Batch(cmd, feedCmd)
		}
	}

	return m, cmd
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	switch m.state {
	case stateSplash:
		return m.splash.view()
	case stateSelection:
		return m.selection.view()
	case stateFetching:
		return m.fetching.view()
	case stateSubscribe:
		return m.subscribe.view()
	default:
		return m.feed.view()
	}
}

// Navigation messages between screens.
type (
	splashDoneMsg      struct{}
	backToSelectionMsg struct{}
	openSubscribeMsg   struct{}
	closeSubscribeMsg  struct{}
	quitMsg            struct{}

	getNewsMsg struct {
		query news.Query
	}

	showFeedMsg struct {
		query    news.Query
		articles []news.Article
		err      error
	}
)

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%s\n\n%s",
		errorStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
