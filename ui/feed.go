package ui

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	te "github.com/muesli/termenv"

	"github.com/buzzarbrief/brief/internal/carousel"
	"github.com/buzzarbrief/brief/internal/news"
	"github.com/buzzarbrief/brief/internal/plaintext"
)

const (
	statusBarHeight   = 1
	feedHeaderHeight  = 2
	cardPadding       = 2
	speechEventBuffer = 64
	wordsPerMinute    = 200

	// Cards fainter than this are not drawn at all.
	minVisibleOpacity = 0.05
)

type (
	settleMsg struct{ generation uint64 }

	speechEventMsg struct {
		mount int
		id    int
		kind  speechEvent
	}

	readMoreMsg struct {
		mount int
		index int
		text  string
		err   error
	}

	statusMessageTimeoutMsg struct{ seq int }
)

type speechEvent int

const (
	speechStarted speechEvent = iota
	speechEnded
)

type feedState int

const (
	feedStateBrowse feedState = iota
	feedStateReadMore
)

// speechStatus tracks the utterance started from this screen. Events for
// any other id are stale.
type speechStatus struct {
	id      int
	active  bool
	started bool
	paused  bool
}

type feedModel struct {
	common *commonModel
	state  feedState

	// mountID increments every time the screen is shown; messages carry it so
	// work from a previous visit is dropped.
	mountID  int
	query    news.Query
	err      error
	carousel *carousel.Controller
	gesture  *carousel.Gesture

	speaker Speaker
	events  chan speechEventMsg
	done    chan struct{}
	speech  speechStatus

	bodies *bodyCache

	readMore        viewport.Model
	readMoreIndex   int
	readMoreLoading bool

	search textinput.Model

	help     help.Model
	showHelp bool

	statusMessage string
	statusIsError bool
	statusSeq     int
}

func newFeedModel(common *commonModel) feedModel {
	c := carousel.New(nil)

	ti := textinput.New()
	ti.Prompt = "⌕ "
	ti.Placeholder = "Search articles, #keyword to match tags"
	ti.CharLimit = 120

	return feedModel{
		common:   common,
		carousel: c,
		gesture:  carousel.NewGesture(c, common.cfg.PixelsPerRow),
		bodies:   newBodyCache(),
		readMore: viewport.New(0, 0),
		search:   ti,
		help:     help.New(),
	}
}

func (m *feedModel) setSize(w, h int) {
	m.help.Width = w
	m.search.Width = max(10, w-8)
	m.readMore.Width = w
	m.readMore.Height = max(0, h-statusBarHeight-m.helpHeight())
	m.bodies.resize(m.cardWidth())
}

func (m feedModel) helpHeight() int {
	if !m.showHelp {
		return 0
	}
	return lipgloss.Height(m.helpView())
}

func (m feedModel) cardWidth() int {
	return max(10, m.common.width-2*cardPadding)
}

func (m feedModel) cardHeight() int {
	return max(3, m.common.height-feedHeaderHeight-statusBarHeight-m.helpHeight())
}

// mount shows a fresh set of articles. The speaker lives exactly as long
// as the screen does.
func (m *feedModel) mount(q news.Query, articles []news.Article, err error) tea.Cmd {
	m.unmount()

	m.mountID++
	m.query = q
	m.err = err
	m.state = feedStateBrowse
	m.speech = speechStatus{}
	m.carousel = carousel.New(articles)
	m.gesture = carousel.NewGesture(m.carousel, m.common.cfg.PixelsPerRow)
	m.bodies.reset()
	m.search.Blur()

	log.Debug("feed mounted", "articles", len(articles), "error", err, "mount", m.mountID)

	if err != nil || len(articles) == 0 || m.common.svc.NewSpeaker == nil {
		return nil
	}

	m.events = make(chan speechEventMsg, speechEventBuffer)
	m.done = make(chan struct{})
	m.speaker = m.common.svc.NewSpeaker()
	m.speaker.Init(m.common.ctx)
	return listenSpeech(m.events, m.done)
}

// unmount releases the speaker and stops the speech listener. It is safe to
// call more than once.
func (m *feedModel) unmount() {
	m.carousel.Cancel()
	if m.speaker != nil {
		if err := m.speaker.Close(); err != nil {
			log.Debug("closing speaker", "error", err)
		}
		m.speaker = nil
	}
	if m.done != nil {
		close(m.done)
		m.done = nil
		m.events = nil
	}
	m.speech = speechStatus{}
}

func listenSpeech(events <-chan speechEventMsg, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-events:
			return ev
		case <-done:
			return nil
		}
	}
}

// emitter returns a speech callback. It never blocks: the adapter may call
// it from the update loop itself.
func (m *feedModel) emitter(id int, kind speechEvent) func() {
	events, mount := m.events, m.mountID
	return func() {
		select {
		case events <- speechEventMsg{mount: mount, id: id, kind: kind}:
		default:
			log.Warn("dropping speech event", "id", id, "kind", kind)
		}
	}
}

func (m feedModel) update(msg tea.Msg) (feedModel, tea.Cmd) {
	switch msg := msg.(type) {
	case speechEventMsg:
		if msg.mount != m.mountID || m.done == nil {
			return m, nil
		}
		cmd := m.onSpeechEvent(msg)
		return m, tea.Batch(cmd, listenSpeech(m.events, m.done))

	case settleMsg:
		if m.carousel.Settle(msg.generation) {
			log.Debug("card settled", "index", m.carousel.Index())
			m.stopSpeech()
		}
		return m, nil

	case statusMessageTimeoutMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil

	case readMoreMsg:
		if msg.mount != m.mountID || msg.index != m.readMoreIndex || m.state != feedStateReadMore {
			return m, nil
		}
		m.readMoreLoading = false
		m.readMore.SetContent(m.readMoreContent(msg.text, msg.err))
		return m, nil

	case tea.MouseMsg:
		if m.state == feedStateReadMore {
			var cmd tea.Cmd
			m.readMore, cmd = m.readMore.Update(msg)
			return m, cmd
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.state == feedStateReadMore {
			return m.updateReadMore(msg)
		}
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m feedModel) handleKey(msg tea.KeyMsg) (feedModel, tea.Cmd) {
	switch {
	case key.Matches(msg, feedKeys.Quit):
		return m, send(quitMsg{})
	case key.Matches(msg, feedKeys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.setSize(m.common.width, m.common.height)
		return m, nil
	case key.Matches(msg, feedKeys.Back):
		return m, send(backToSelectionMsg{})
	case key.Matches(msg, feedKeys.Refresh):
		m.stopSpeech()
		return m, send(getNewsMsg{query: m.query})
	case key.Matches(msg, feedKeys.Subscribe):
		return m, send(openSubscribeMsg{})
	case key.Matches(msg, feedKeys.Search):
		m.search.SetValue(searchValue(m.query))
		m.search.CursorEnd()
		return m, m.search.Focus()
	}

	if m.carousel.Len() == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, feedKeys.Next):
		return m, m.step(carousel.Forward)
	case key.Matches(msg, feedKeys.Prev):
		return m, m.step(carousel.Backward)
	case key.Matches(msg, feedKeys.Speak):
		return m, m.toggleSpeech()
	case key.Matches(msg, feedKeys.Pause):
		m.togglePause()
	case key.Matches(msg, feedKeys.Share):
		return m, m.share()
	case key.Matches(msg, feedKeys.ReadMore):
		return m, m.openReadMore()
	}
	return m, nil
}

func (m feedModel) handleMouse(msg tea.MouseMsg) (feedModel, tea.Cmd) {
	if m.carousel.Len() == 0 {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			return m, m.step(carousel.Forward)
		case tea.MouseButtonWheelUp:
			return m, m.step(carousel.Backward)
		case tea.MouseButtonLeft:
			// A new drag cannot start while a card is still settling.
			if !m.carousel.Animating() {
				m.gesture.Press(msg.Y)
			}
		}
	case tea.MouseActionMotion:
		m.gesture.Motion(msg.Y)
	case tea.MouseActionRelease:
		return m, m.schedule(m.gesture.Release(msg.Y))
	}
	return m, nil
}

func (m *feedModel) step(dir carousel.Direction) tea.Cmd {
	return m.schedule(m.carousel.Step(dir))
}

// schedule arranges for a committed transition to settle.
func (m *feedModel) schedule(t carousel.Transition) tea.Cmd {
	if !t.Committed {
		return nil
	}
	gen := t.Generation
	return tea.Tick(t.Settle, func(time.Time) tea.Msg {
		return settleMsg{generation: gen}
	})
}

// SPEECH

func (m *feedModel) toggleSpeech() tea.Cmd {
	if m.speaker == nil {
		return m.showStatusMessage("Listening is not available", true)
	}
	if m.speech.active {
		m.stopSpeech()
		return nil
	}

	a, ok := m.carousel.Current()
	if !ok {
		return nil
	}
	text := plaintext.ArticleSpeech(a)
	if text == "" {
		return m.showStatusMessage("Nothing to read", true)
	}

	id := m.speech.id + 1
	m.speech = speechStatus{id: id, active: true}
	log.Debug("speaking article", "index", m.carousel.Index(), "id", id)
	m.speaker.Speak(text, m.emitter(id, speechStarted), m.emitter(id, speechEnded))
	return nil
}

// stopSpeech ends the current utterance on the user's behalf; its end event
// is then ignored.
func (m *feedModel) stopSpeech() {
	if !m.speech.active {
		return
	}
	m.speech.active = false
	m.speech.paused = false
	m.speaker.Stop()
}

func (m *feedModel) togglePause() {
	if !m.speech.active || !m.speech.started {
		return
	}
	if m.speech.paused {
		m.speaker.Resume()
	} else {
		m.speaker.Pause()
	}
	m.speech.paused = !m.speech.paused
}

func (m *feedModel) onSpeechEvent(ev speechEventMsg) tea.Cmd {
	if ev.id != m.speech.id || !m.speech.active {
		return nil
	}
	switch ev.kind {
	case speechStarted:
		m.speech.started = true
	case speechEnded:
		started := m.speech.started
		m.speech.active = false
		m.speech.paused = false
		if !started {
			return m.showStatusMessage("Speech unavailable", true)
		}
	}
	return nil
}

// SEARCH

func (m feedModel) updateSearch(msg tea.KeyMsg) (feedModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		q := m.query
		q.Text, q.Keywords = parseSearch(m.search.Value())
		q.Page = 1
		if q.Text == m.query.Text && slices.Equal(q.Keywords, m.query.Keywords) {
			return m, nil
		}
		m.stopSpeech()
		log.Debug("searching articles", "text", q.Text, "keywords", q.Keywords)
		return m, send(getNewsMsg{query: q})
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// parseSearch splits the search bar: words starting with # are keywords,
// the rest is free text.
func parseSearch(s string) (text string, keywords []string) {
	var words []string
	for _, w := range strings.Fields(s) {
		if k := strings.TrimLeft(w, "#"); k != w {
			if k != "" {
				keywords = append(keywords, k)
			}
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), keywords
}

// searchValue is the inverse of parseSearch.
func searchValue(q news.Query) string {
	parts := make([]string, 0, len(q.Keywords)+1)
	if q.Text != "" {
		parts = append(parts, q.Text)
	}
	for _, k := range q.Keywords {
		parts = append(parts, "#"+k)
	}
	return strings.Join(parts, " ")
}

// ACTIONS

func (m *feedModel) share() tea.Cmd {
	a, ok := m.carousel.Current()
	if !ok {
		return nil
	}
	if strings.TrimSpace(a.URL) == "" {
		return m.showStatusMessage("This article has no link", true)
	}
	if err := m.common.svc.Copy(a.URL); err != nil {
		log.Error("copying link", "error", err)
		return m.showStatusMessage("Couldn't copy link", true)
	}
	return m.showStatusMessage("Link copied", false)
}

// copyToClipboard sends text to the terminal over OSC 52 and to the system
// clipboard. Without a clipboard tool OSC 52 is all there is; a clipboard
// tool that fails is an error.
func copyToClipboard(text string) error {
	te.Copy(text)
	if clipboard.Unsupported {
		log.Debug("system clipboard unavailable, relying on OSC 52")
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("unable to write to clipboard: %w", err)
	}
	return nil
}

func (m *feedModel) openReadMore() tea.Cmd {
	a, ok := m.carousel.Current()
	if !ok {
		return nil
	}
	m.state = feedStateReadMore
	m.readMoreIndex = m.carousel.Index()
	m.readMore.GotoTop()

	fetch := m.common.svc.ReadMore
	if fetch == nil || strings.TrimSpace(a.URL) == "" {
		m.readMoreLoading = false
		m.readMore.SetContent(m.readMoreContent("", nil))
		return nil
	}

	m.readMoreLoading = true
	m.readMore.SetContent(indent(subtleStyle.Render("Loading full article…"), cardPadding))

	ctx, mount, index, url := m.common.ctx, m.mountID, m.readMoreIndex, a.URL
	return func() tea.Msg {
		text, err := fetch(ctx, url)
		return readMoreMsg{mount: mount, index: index, text: text, err: err}
	}
}

// readMoreContent renders the full text, or the article's own content when
// the page could not be read.
func (m feedModel) readMoreContent(text string, err error) string {
	a := m.carousel.Articles()[m.readMoreIndex]

	var note string
	if err != nil {
		log.Error("reading full article", "url", a.URL, "error", err)
		note = errorStyle.Render("Couldn't load the full article; showing the summary.") + "\n\n"
	}
	if strings.TrimSpace(text) == "" {
		text = a.Content
		if strings.TrimSpace(text) == "" {
			text = a.Lead()
		}
	}

	md := "# " + a.Title + "\n\n" + text
	if a.URL != "" {
		md += "\n\n" + a.URL
	}
	out, rerr := renderMarkdown(m.common.cfg, m.readMore.Width, md)
	if rerr != nil {
		log.Error("rendering article", "error", rerr)
		out = wordwrap.String(md, max(10, m.readMore.Width-2*cardPadding))
	}
	return indent(note, cardPadding) + out
}

func (m feedModel) updateReadMore(msg tea.KeyMsg) (feedModel, tea.Cmd) {
	switch {
	case key.Matches(msg, feedKeys.Quit):
		return m, send(quitMsg{})
	case key.Matches(msg, feedKeys.Back), msg.String() == "r":
		m.state = feedStateBrowse
		m.readMoreLoading = false
		return m, nil
	case key.Matches(msg, feedKeys.Speak):
		return m, m.toggleSpeech()
	case key.Matches(msg, feedKeys.Pause):
		m.togglePause()
		return m, nil
	case key.Matches(msg, feedKeys.Share):
		return m, m.share()
	}

	var cmd tea.Cmd
	m.readMore, cmd = m.readMore.Update(msg)
	return m, cmd
}

func (m *feedModel) showStatusMessage(text string, isError bool) tea.Cmd {
	m.statusSeq++
	m.statusMessage = text
	m.statusIsError = isError
	seq := m.statusSeq
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{seq: seq}
	})
}

// VIEW

func (m feedModel) view() string {
	var b strings.Builder

	if m.state == feedStateReadMore {
		fmt.Fprint(&b, m.readMore.View()+"\n")
	} else {
		fmt.Fprintln(&b, " "+logoView())
		fmt.Fprintln(&b, m.searchView())
		fmt.Fprint(&b, m.bodyView()+"\n")
	}

	m.statusBarView(&b)

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

func (m feedModel) helpView() string {
	s := "\n" + indent(m.help.View(feedKeys), cardPadding)

	// Fill up empty cells with spaces for background coloring
	if m.common.width > 0 {
		lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
		for i := range lines {
			n := max(m.common.width-runewidth.StringWidth(xansi.Strip(lines[i])), 0)
			lines[i] += strings.Repeat(" ", n)
		}
		s = strings.Join(lines, "\n")
	}
	return helpViewStyle(s)
}

func (m feedModel) bodyView() string {
	height := m.cardHeight()

	var s string
	switch {
	case m.err != nil:
		s = fmt.Sprintf("%s\n\n%s\n\n%s",
			errorStyle.Render("Couldn't load your news"),
			wordwrap.String(m.err.Error(), m.cardWidth()),
			subtleStyle.Render("R retry • / search • esc change interests • q quit"),
		)
	case m.carousel.Len() == 0:
		s = fmt.Sprintf("%s\n\n%s",
			headingStyle.Render("No articles found"),
			subtleStyle.Render("esc change interests • / search • R retry • q quit"),
		)
	default:
		return m.cardsView(m.cardWidth(), height)
	}

	lines := strings.Split(indent(s, cardPadding), "\n")
	return strings.Join(fit(lines, height), "\n")
}

// cardsView composes the card stack: each card is drawn at its offset,
// later (higher) cards over earlier ones.
func (m feedModel) cardsView(width, height int) string {
	canvas := make([]string, height)
	for _, card := range m.carousel.Layout() {
		if card.Opacity < minVisibleOpacity {
			continue
		}
		shift := int(math.Round(card.Offset * float64(height)))
		for i, line := range m.cardView(card, width, height) {
			row := i + shift
			if row >= 0 && row < height {
				canvas[row] = line
			}
		}
	}
	return strings.Join(canvas, "\n")
}

func (m feedModel) cardView(card carousel.Card, width, height int) []string {
	a := card.Article
	opaque := card.Opacity >= 1-minVisibleOpacity

	text := lipgloss.NewStyle().Foreground(fade(card.Opacity))
	meta, title := text, text.Bold(true)
	if opaque {
		meta, title = subtleStyle, headingStyle
	}

	var lines []string
	add := func(style lipgloss.Style, s string) {
		for _, l := range strings.Split(s, "\n") {
			lines = append(lines, style.Render(l))
		}
	}

	add(meta, strings.Join(articleMeta(a), " • "))
	lines = append(lines, "")
	add(title, wordwrap.String(a.Title, width))
	lines = append(lines, "")

	// Body takes what the header and footer leave.
	footer := m.cardFooter(card, width)
	room := max(1, height-len(lines)-len(footer)-1)

	var body []string
	if opaque {
		body = strings.Split(m.bodies.get(m.common.cfg, card.Index, a.Lead(), width), "\n")
	} else {
		for _, l := range strings.Split(wordwrap.String(plaintext.FromMarkdown(a.Lead()), width), "\n") {
			body = append(body, text.Render(l))
		}
	}
	lines = append(lines, fit(body, room)...)
	lines = append(lines, "")
	if opaque {
		lines = append(lines, footer...)
	} else {
		for _, l := range footer {
			lines = append(lines, text.Render(xansi.Strip(l)))
		}
	}

	pad := strings.Repeat(" ", cardPadding)
	for i, l := range lines {
		lines[i] = pad + truncate.StringWithTail(l, uint(width), ellipsis) //nolint:gosec
	}
	return lines
}

func (m feedModel) cardFooter(card carousel.Card, width int) []string {
	a := card.Article
	var lines []string
	if len(a.Categories) > 0 {
		chips := make([]string, len(a.Categories))
		for i, c := range a.Categories {
			chips[i] = chipStyle.Render(plaintext.CapitalizeWords(c))
		}
		lines = append(lines, strings.Join(chips, ""))
	}
	if a.URL != "" {
		lines = append(lines, subtleStyle.Render(truncate.StringWithTail(a.URL, uint(width), ellipsis))) //nolint:gosec
	}
	if card.Role == carousel.RoleCurrent {
		lines = append(lines, m.actionsView())
	}
	return lines
}

func (m feedModel) actionsView() string {
	listen := "space listen"
	switch {
	case m.speaker == nil:
		listen = ""
	case m.speech.active && m.speech.paused:
		listen = "space stop • p resume"
	case m.speech.active:
		listen = "space stop • p pause"
	}
	actions := []string{"r read more", "s share"}
	if listen != "" {
		actions = append([]string{listen}, actions...)
	}
	return subtleStyle.Render(strings.Join(actions, " • "))
}

func articleMeta(a news.Article) []string {
	var meta []string
	if a.Source != "" {
		meta = append(meta, a.Source)
	}
	if !a.PublishedDate.IsZero() {
		meta = append(meta, humanize.Time(a.PublishedDate))
	}
	meta = append(meta, fmt.Sprintf("%d min read", readingMinutes(a)))
	return meta
}

func readingMinutes(a news.Article) int {
	text := a.Content
	if strings.TrimSpace(text) == "" {
		text = a.Lead()
	}
	words := len(strings.Fields(text))
	return max(1, (words+wordsPerMinute-1)/wordsPerMinute)
}

func (m feedModel) statusBarView(b *strings.Builder) {
	showStatusMessage := m.statusMessage != ""

	logo := logoView()

	position := ""
	if n := m.carousel.Len(); n > 0 {
		position = fmt.Sprintf(" %d/%d ", m.carousel.Index()+1, n)
	}
	if m.state == feedStateReadMore {
		percent := math.Max(0, math.Min(1, m.readMore.ScrollPercent()))
		position = fmt.Sprintf(" %3.f%% ", percent*100)
	}
	position = statusBarNoteStyle(position)

	helpNote := statusBarHelpStyle(" ? Help ")

	var note string
	switch {
	case showStatusMessage:
		note = m.statusMessage
	case m.speech.active:
		note = m.speechNote()
	case m.state == feedStateReadMore && m.readMoreLoading:
		note = "Loading full article…"
	default:
		note = m.queryNote()
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(position)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	noteStyle := statusBarNoteStyle
	switch {
	case showStatusMessage && m.statusIsError:
		noteStyle = statusBarErrorStyle
	case showStatusMessage:
		noteStyle = statusBarMessageStyle
	case m.speech.active:
		noteStyle = statusBarSpeechStyle
	}
	note = noteStyle(note)

	padding := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(position)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := noteStyle(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		position,
		helpNote,
	)
}

func (m feedModel) speechNote() string {
	var engine string
	if m.speaker != nil {
		st := m.speaker.State()
		engine = st.EngineName
		if st.Switched {
			engine += " (fallback)"
		}
	}
	status := "Preparing voice…"
	switch {
	case m.speech.paused:
		status = "Paused"
	case m.speech.started:
		status = "Speaking"
	}
	if engine == "" {
		return "🔊 " + status
	}
	return fmt.Sprintf("🔊 %s · %s", status, engine)
}

// searchView is the header line under the logo: the search bar while
// typing, the active search otherwise.
func (m feedModel) searchView() string {
	switch {
	case m.search.Focused():
		return "  " + m.search.View()
	case searchValue(m.query) != "":
		return "  " + subtleStyle.Render(truncate.StringWithTail( //nolint:gosec
			"⌕ "+searchValue(m.query)+" • / edit", uint(m.cardWidth()), ellipsis))
	}
	return ""
}

func (m feedModel) queryNote() string {
	note := "Your news"
	if len(m.query.Industries) > 0 {
		note = strings.Join(m.query.Industries, ", ")
	}
	if s := searchValue(m.query); s != "" {
		note += " · " + s
	}
	return note
}

// bodyCache keeps glamour-rendered card bodies for the current width.
type bodyCache struct {
	width  int
	bodies map[int]string
}

func newBodyCache() *bodyCache {
	return &bodyCache{bodies: make(map[int]string)}
}

func (c *bodyCache) reset() {
	clear(c.bodies)
}

func (c *bodyCache) resize(width int) {
	if width != c.width {
		c.width = width
		c.reset()
	}
}

func (c *bodyCache) get(cfg Config, index int, md string, width int) string {
	c.resize(width)
	if s, ok := c.bodies[index]; ok {
		return s
	}
	s, err := renderMarkdown(cfg, width, md)
	if err != nil {
		log.Error("error rendering with Glamour", "error", err)
		s = wordwrap.String(plaintext.FromMarkdown(md), width)
	}
	s = strings.Trim(s, "\n")
	c.bodies[index] = s
	return s
}

// renderMarkdown renders md for the terminal at the given width.
func renderMarkdown(cfg Config, width int, md string) (string, error) {
	if !cfg.GlamourEnabled {
		return wordwrap.String(md, width), nil
	}

	if cfg.GlamourMaxWidth > 0 {
		width = min(int(cfg.GlamourMaxWidth), width) //nolint:gosec
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(cfg.GlamourStyle),
		glamour.WithWordWrap(max(0, width)),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}

// fit trims lines to height, marking the cut with an ellipsis.
func fit(lines []string, height int) []string {
	if len(lines) <= height {
		return lines
	}
	if height <= 0 {
		return nil
	}
	out := append([]string(nil), lines[:height-1]...)
	return append(out, subtleStyle.Render(ellipsis))
}
