package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/wordwrap"

	"github.com/buzzarbrief/brief/internal/news"
	"github.com/buzzarbrief/brief/internal/plaintext"
	"github.com/buzzarbrief/brief/internal/selection"
)

type industriesLoadedMsg struct {
	industries []news.Industry
	err        error
}

// chip is one selectable sub-industry on screen.
type chip struct {
	industry int
	name     string
}

type selectionModel struct {
	common  *commonModel
	loading bool
	err     error
	spinner spinner.Model
	search  textinput.Model
	help    help.Model
	sel     *selection.Model

	// Visible chips for the current search, and the highlighted one.
	chips  []chip
	cursor int
}

func newSelectionModel(common *commonModel) selectionModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = subtleStyle.Foreground(brandPurple)

	ti := textinput.New()
	ti.Prompt = "⌕ "
	ti.Placeholder = "Search for interests"
	ti.CharLimit = 64

	return selectionModel{
		common:  common,
		spinner: sp,
		search:  ti,
		help:    help.New(),
		sel:     selection.New(nil),
	}
}

func (m *selectionModel) setSize(w, _ int) {
	m.search.Width = max(10, w-8)
	m.help.Width = w
}

// init loads the industries unless they are already loaded.
func (m *selectionModel) init() tea.Cmd {
	if len(m.sel.Industries()) > 0 && m.err == nil {
		return nil
	}
	m.loading = true
	m.err = nil
	return tea.Batch(m.spinner.Tick, loadIndustries(m.common))
}

func loadIndustries(common *commonModel) tea.Cmd {
	lister := common.svc.Industries
	ctx := common.ctx
	return func() tea.Msg {
		industries, err := lister.Industries(ctx)
		return industriesLoadedMsg{industries: industries, err: err}
	}
}

func (m selectionModel) update(msg tea.Msg) (selectionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case industriesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			log.Error("loading industries", "error", msg.err)
			m.err = msg.err
			return m, nil
		}
		m.sel = selection.New(msg.industries)
		m.refilter()

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		if m.loading {
			if key.Matches(msg, selectionKeys.Quit) {
				return m, send(quitMsg{})
			}
			return m, nil
		}
		if m.err != nil {
			switch msg.String() {
			case "r":
				return m, m.init()
			case "q", "esc":
				return m, send(quitMsg{})
			}
			return m, nil
		}
		if m.search.Focused() {
			return m.updateSearch(msg)
		}

		switch {
		case key.Matches(msg, selectionKeys.Quit):
			return m, send(quitMsg{})
		case key.Matches(msg, selectionKeys.Search):
			return m, m.search.Focus()
		case key.Matches(msg, selectionKeys.Up):
			m.moveLine(-1)
		case key.Matches(msg, selectionKeys.Down):
			m.moveLine(1)
		case key.Matches(msg, selectionKeys.Left):
			m.cursor = max(0, m.cursor-1)
		case key.Matches(msg, selectionKeys.Right):
			m.cursor = min(len(m.chips)-1, m.cursor+1)
		case key.Matches(msg, selectionKeys.Toggle):
			if c, ok := m.current(); ok {
				m.sel.Toggle(c.name)
			}
		case key.Matches(msg, selectionKeys.Submit):
			if m.sel.Ready() {
				return m, send(getNewsMsg{query: m.sel.Query()})
			}
		case msg.String() == "esc" && m.search.Value() != "":
			m.search.SetValue("")
			m.refilter()
		}
	}

	return m, nil
}

func (m selectionModel) updateSearch(msg tea.KeyMsg) (selectionModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Blur()
		m.search.SetValue("")
		m.refilter()
		return m, nil
	case "enter", "down", "tab":
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refilter()
	return m, cmd
}

// refilter rebuilds the visible chips, keeping the cursor on the same chip
// when it is still visible.
func (m *selectionModel) refilter() {
	var prev string
	if c, ok := m.current(); ok {
		prev = c.name
	}

	m.chips = m.chips[:0]
	for i, ind := range m.sel.Filter(m.search.Value()) {
		for _, sub := range ind.SubIndustries {
			m.chips = append(m.chips, chip{industry: i, name: sub})
		}
	}

	m.cursor = 0
	for i, c := range m.chips {
		if c.name == prev {
			m.cursor = i
			break
		}
	}
}

func (m selectionModel) current() (chip, bool) {
	if m.cursor < 0 || m.cursor >= len(m.chips) {
		return chip{}, false
	}
	return m.chips[m.cursor], true
}

// moveLine moves the cursor to the first chip of the neighbouring
// industry.
func (m *selectionModel) moveLine(delta int) {
	c, ok := m.current()
	if !ok {
		return
	}
	target := c.industry + delta
	for i, other := range m.chips {
		if other.industry == target {
			m.cursor = i
			return
		}
	}
}

func (m selectionModel) view() string {
	var b strings.Builder

	fmt.Fprintln(&b, logoView())
	fmt.Fprintln(&b)

	switch {
	case m.loading:
		fmt.Fprintf(&b, "  %s Loading interests…\n", m.spinner.View())
		return b.String()
	case m.err != nil:
		fmt.Fprintln(&b, errorStyle.Render("  Failed to load industries"))
		fmt.Fprintln(&b, subtleStyle.Render("  "+m.err.Error()))
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, subtleStyle.Render("  r retry • q quit"))
		return b.String()
	}

	fmt.Fprintln(&b, "  "+m.search.View())
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, headingStyle.Render("  Customise Your News Feed ⭐"))
	fmt.Fprintln(&b, subtleStyle.Render(fmt.Sprintf("  Choose at least %d interests to get started", selection.MinSelections)))
	fmt.Fprintln(&b)

	body, cursorLine := m.chipsView()
	fmt.Fprint(&b, m.window(body, cursorLine))

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "  "+m.buttonView())
	fmt.Fprintln(&b)
	fmt.Fprint(&b, "  "+m.help.View(selectionKeys))
	return b.String()
}

// chipsView renders every visible industry with its chips and reports the
// line holding the cursor.
func (m selectionModel) chipsView() ([]string, int) {
	width := max(20, m.common.width-4)
	industries := m.sel.Filter(m.search.Value())

	if len(industries) == 0 {
		return []string{subtleStyle.Render("  No interests match your search")}, 0
	}

	var (
		lines      []string
		cursorLine int
		n          int
	)
	for _, ind := range industries {
		lines = append(lines, headingStyle.Render("  "+plaintext.CapitalizeWords(ind.Name)))

		chips := make([]string, 0, len(ind.SubIndustries))
		for _, sub := range ind.SubIndustries {
			style := chipStyle
			if m.sel.Selected(sub) {
				style = chipSelectedStyle
			}
			label := sub
			if n == m.cursor && !m.search.Focused() {
				label = chipCursorStyle.Render(label)
				cursorLine = len(lines)
			}
			chips = append(chips, style.Render(label))
			n++
		}
		wrapped := wordwrap.String(strings.Join(chips, " "), width)
		for _, l := range strings.Split(wrapped, "\n") {
			lines = append(lines, "  "+l)
		}
		lines = append(lines, "")
	}
	return lines, cursorLine
}

// window keeps the cursor line on screen when the list is taller than the
// space left for it.
func (m selectionModel) window(lines []string, cursorLine int) string {
	const chrome = 12
	height := m.common.height - chrome
	if height <= 0 || len(lines) <= height {
		return strings.Join(lines, "\n") + "\n"
	}
	start := max(0, min(cursorLine-height/2, len(lines)-height))
	return strings.Join(lines[start:start+height], "\n") + "\n"
}

func (m selectionModel) buttonView() string {
	if m.sel.Ready() {
		return buttonStyle.Render("GET NEWS")
	}
	return buttonDisabledStyle.Render("GET NEWS") +
		subtleStyle.Render(fmt.Sprintf("  pick %d more", m.sel.Remaining()))
}
