package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/buzzarbrief/brief/internal/news"
)

type (
	articlesMsg struct {
		fetch    int
		articles []news.Article
		err      error
	}
	fetchMinElapsedMsg struct{ fetch int }
)

// fetchingModel shows a spinner while articles load. The screen stays up
// for at least cfg.MinFetchDisplay even when the fetch returns sooner.
type fetchingModel struct {
	common  *commonModel
	spinner spinner.Model

	// fetch numbers each start so results of an abandoned fetch are
	// dropped.
	fetch    int
	query    news.Query
	result   *articlesMsg
	elapsed  bool
	finished bool
}

func newFetchingModel(common *commonModel) fetchingModel {
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = lipgloss.NewStyle().Foreground(brandPurple)
	return fetchingModel{common: common, spinner: sp}
}

func (m *fetchingModel) start(q news.Query) tea.Cmd {
	m.fetch++
	m.query = q
	m.result = nil
	m.elapsed = false
	m.finished = false

	log.Debug("fetching articles", "industries", q.Industries, "fetch", m.fetch)

	fetch := m.fetch
	return tea.Batch(
		m.spinner.Tick,
		fetchArticles(m.common, fetch, q),
		tea.Tick(m.common.cfg.MinFetchDisplay, func(time.Time) tea.Msg {
			return fetchMinElapsedMsg{fetch: fetch}
		}),
	)
}

func fetchArticles(common *commonModel, fetch int, q news.Query) tea.Cmd {
	src := common.svc.Articles
	ctx := common.ctx
	return func() tea.Msg {
		articles, err := src.SearchArticles(ctx, q)
		if news.IsNoResults(err) {
			articles, err = nil, nil
		}
		return articlesMsg{fetch: fetch, articles: articles, err: err}
	}
}

func (m fetchingModel) update(msg tea.Msg) (fetchingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case articlesMsg:
		if msg.fetch != m.fetch {
			return m, nil
		}
		if msg.err != nil {
			log.Error("fetching articles", "error", msg.err)
		}
		m.result = &msg
		return m, m.done()

	case fetchMinElapsedMsg:
		if msg.fetch != m.fetch {
			return m, nil
		}
		m.elapsed = true
		return m, m.done()

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, send(quitMsg{})
		}
	}
	return m, nil
}

// done emits the feed once both the result and the minimum display time are
// in.
func (m *fetchingModel) done() tea.Cmd {
	if m.finished || m.result == nil || !m.elapsed {
		return nil
	}
	m.finished = true
	return send(showFeedMsg{
		query:    m.query,
		articles: m.result.articles,
		err:      m.result.err,
	})
}

func (m fetchingModel) view() string {
	body := fmt.Sprintf("%s\n\n%s %s\n\n%s",
		logoView(),
		m.spinner.View(),
		headingStyle.Render("Fetching Your News"),
		subtleStyle.Render("Personalising your feed…"),
	)
	if m.common.width == 0 || m.common.height == 0 {
		return "\n" + indent(body, 2)
	}
	return lipgloss.Place(m.common.width, m.common.height, lipgloss.Center, lipgloss.Center, body)
}
