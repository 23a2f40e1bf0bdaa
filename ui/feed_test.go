package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buzzarbrief/brief/internal/carousel"
	"github.com/buzzarbrief/brief/internal/news"
	"github.com/buzzarbrief/brief/internal/plaintext"
)

func mountedFeed(t *testing.T, svc Services, articles []news.Article) feedModel {
	t.Helper()
	m := newFeedModel(testCommon(svc))
	m.setSize(80, 24)
	m.mount(news.DefaultQuery(), articles, nil)
	return m
}

// nextSpeechEvent delivers the next queued speech callback to the model.
func nextSpeechEvent(t *testing.T, m feedModel) feedModel {
	t.Helper()
	select {
	case ev := <-m.events:
		m, _ = m.update(ev)
		return m
	case <-time.After(time.Second):
		t.Fatal("no speech event")
		return m
	}
}

func settle(t *testing.T, m feedModel, cmd tea.Cmd) feedModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a settle command")
	}
	msg, ok := cmd().(settleMsg)
	if !ok {
		t.Fatalf("command produced %T, want settleMsg", msg)
	}
	m, _ = m.update(msg)
	return m
}

func TestFeed_StepAndSettle(t *testing.T) {
	m := mountedFeed(t, Services{}, testArticles())

	m, cmd := m.update(runeKey("j"))
	if !m.carousel.Animating() {
		t.Fatal("carousel should be settling after j")
	}
	// A second flick while settling is ignored.
	if _, again := m.update(runeKey("j")); again != nil {
		t.Error("flick while settling should not schedule another settle")
	}
	m = settle(t, m, cmd)
	if got := m.carousel.Index(); got != 1 {
		t.Fatalf("Index() = %d, want 1", got)
	}

	m, cmd = m.update(runeKey("k"))
	m = settle(t, m, cmd)
	if got := m.carousel.Index(); got != 0 {
		t.Fatalf("Index() = %d, want 0", got)
	}

	// Nothing before the first article.
	if _, cmd := m.update(runeKey("k")); cmd != nil {
		t.Error("k on the first article should do nothing")
	}
}

func TestFeed_StaleSettleIgnored(t *testing.T) {
	m := mountedFeed(t, Services{}, testArticles())
	m, _ = m.update(runeKey("j"))
	m, _ = m.update(settleMsg{generation: 999})
	if m.carousel.Index() != 0 || !m.carousel.Animating() {
		t.Errorf("stale settle moved the carousel: index=%d animating=%v", m.carousel.Index(), m.carousel.Animating())
	}
}

func TestFeed_MouseDrag(t *testing.T) {
	press := func(y int) tea.MouseMsg {
		return tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, Y: y}
	}
	motion := func(y int) tea.MouseMsg {
		return tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft, Y: y}
	}
	release := func(y int) tea.MouseMsg {
		return tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonNone, Y: y}
	}

	t.Run("short drag snaps back", func(t *testing.T) {
		m := mountedFeed(t, Services{}, testArticles())
		m, _ = m.update(press(20))
		m, _ = m.update(motion(17))
		if m.carousel.State() != carousel.StateDragging {
			t.Fatalf("State() = %v, want dragging", m.carousel.State())
		}
		_ = m.view()
		m, cmd := m.update(release(17))
		if cmd != nil || m.carousel.Progress() != 0 {
			t.Errorf("short drag committed: progress=%v", m.carousel.Progress())
		}
	})

	t.Run("long drag up commits forward", func(t *testing.T) {
		m := mountedFeed(t, Services{}, testArticles())
		m, _ = m.update(press(20))
		m, _ = m.update(motion(5))
		m, cmd := m.update(release(5))
		m = settle(t, m, cmd)
		if got := m.carousel.Index(); got != 1 {
			t.Errorf("Index() = %d, want 1", got)
		}
	})

	t.Run("wheel", func(t *testing.T) {
		m := mountedFeed(t, Services{}, testArticles())
		m, cmd := m.update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
		m = settle(t, m, cmd)
		if got := m.carousel.Index(); got != 1 {
			t.Errorf("Index() = %d, want 1", got)
		}
	})
}

func TestFeed_SpeakPauseStop(t *testing.T) {
	spk := &fakeSpeaker{}
	m := mountedFeed(t, Services{NewSpeaker: func() Speaker { return spk }}, testArticles())
	if spk.inits != 1 {
		t.Fatalf("speaker initialised %d times, want 1", spk.inits)
	}

	m, _ = m.update(spaceKey)
	if len(spk.spoken) != 1 {
		t.Fatalf("spoke %d times, want 1", len(spk.spoken))
	}
	if want := plaintext.ArticleSpeech(testArticles()[0]); spk.spoken[0] != want {
		t.Errorf("spoke %q, want %q", spk.spoken[0], want)
	}

	// Pause does nothing until audio has started.
	m, _ = m.update(runeKey("p"))
	if spk.pauses != 0 {
		t.Error("paused before speech started")
	}

	spk.onStart()
	m = nextSpeechEvent(t, m)
	if !m.speech.started {
		t.Fatal("started event not applied")
	}
	if !containsAll(m.view(), "Speaking", "fake") {
		t.Errorf("status bar does not show speech: %q", m.view())
	}

	m, _ = m.update(runeKey("p"))
	m, _ = m.update(runeKey("p"))
	if spk.pauses != 1 || spk.resumes != 1 {
		t.Errorf("pauses=%d resumes=%d, want 1 and 1", spk.pauses, spk.resumes)
	}

	m, _ = m.update(spaceKey)
	if spk.stops != 1 || m.speech.active {
		t.Fatalf("stops=%d active=%v after second space", spk.stops, m.speech.active)
	}
	// The end event caused by the stop is not an error.
	m = nextSpeechEvent(t, m)
	if m.statusMessage != "" {
		t.Errorf("status message %q after user stop", m.statusMessage)
	}
}

func TestFeed_SpeechUnavailable(t *testing.T) {
	spk := &fakeSpeaker{}
	m := mountedFeed(t, Services{NewSpeaker: func() Speaker { return spk }}, testArticles())

	m, _ = m.update(spaceKey)
	spk.end()
	m = nextSpeechEvent(t, m)

	if m.speech.active {
		t.Error("speech still active after end")
	}
	if m.statusMessage != "Speech unavailable" || !m.statusIsError {
		t.Errorf("status = %q (error %v), want Speech unavailable", m.statusMessage, m.statusIsError)
	}
}

func TestFeed_CardChangeStopsSpeech(t *testing.T) {
	spk := &fakeSpeaker{}
	m := mountedFeed(t, Services{NewSpeaker: func() Speaker { return spk }}, testArticles())

	m, _ = m.update(spaceKey)
	m, cmd := m.update(runeKey("j"))
	if spk.stops != 0 {
		t.Fatal("speech stopped before the card settled")
	}
	m = settle(t, m, cmd)
	if spk.stops != 1 || m.speech.active {
		t.Errorf("stops=%d active=%v after card change", spk.stops, m.speech.active)
	}
}

func TestFeed_StaleSpeechEventsIgnored(t *testing.T) {
	spk := &fakeSpeaker{}
	m := mountedFeed(t, Services{NewSpeaker: func() Speaker { return spk }}, testArticles())

	m, _ = m.update(spaceKey)
	m, _ = m.update(speechEventMsg{mount: m.mountID, id: m.speech.id + 5, kind: speechEnded})
	if !m.speech.active {
		t.Error("event for another utterance ended the current one")
	}
	m, _ = m.update(speechEventMsg{mount: m.mountID - 1, id: m.speech.id, kind: speechEnded})
	if !m.speech.active {
		t.Error("event from a previous mount ended the current utterance")
	}
}

func TestFeed_NoSpeaker(t *testing.T) {
	m := mountedFeed(t, Services{}, testArticles())
	m, cmd := m.update(spaceKey)
	if cmd == nil || m.statusMessage != "Listening is not available" {
		t.Errorf("status = %q", m.statusMessage)
	}
}

func TestFeed_UnmountClosesSpeaker(t *testing.T) {
	spk := &fakeSpeaker{}
	svc := Services{NewSpeaker: func() Speaker { return spk }}
	m := newFeedModel(testCommon(svc))
	listen := m.mount(news.DefaultQuery(), testArticles(), nil)

	m.unmount()
	m.unmount()
	if spk.closes != 1 {
		t.Errorf("Close called %d times, want 1", spk.closes)
	}
	if msg := listen(); msg != nil {
		t.Errorf("listener returned %v after unmount, want nil", msg)
	}
}

func TestFeed_NoSpeakerForEmptyFeed(t *testing.T) {
	called := false
	svc := Services{NewSpeaker: func() Speaker { called = true; return &fakeSpeaker{} }}
	m := mountedFeed(t, svc, nil)
	if called {
		t.Error("speaker created for an empty feed")
	}
	if !containsAll(m.view(), "No articles found") {
		t.Errorf("view() = %q", m.view())
	}
	if _, cmd := m.update(runeKey("j")); cmd != nil {
		t.Error("j on an empty feed should do nothing")
	}
}

func TestFeed_ErrorView(t *testing.T) {
	m := newFeedModel(testCommon(Services{}))
	m.setSize(80, 24)
	m.mount(news.DefaultQuery(), nil, errors.New("server unreachable"))
	if !containsAll(m.view(), "Couldn't load your news", "server unreachable") {
		t.Errorf("view() = %q", m.view())
	}

	_, cmd := m.update(runeKey("R"))
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("R = %v", msgs)
	}
	if _, ok := msgs[0].(getNewsMsg); !ok {
		t.Errorf("R = %T, want getNewsMsg", msgs[0])
	}
}

func TestFeed_Share(t *testing.T) {
	tests := []struct {
		name     string
		articles []news.Article
		copyErr  error
		wantMsg  string
		wantErr  bool
		wantCopy string
	}{
		{"copies link", testArticles(), nil, "Link copied", false, "https://example.com/1"},
		{"no link", []news.Article{{Title: "Offline"}}, nil, "This article has no link", true, ""},
		{"clipboard fails", testArticles(), errors.New("no clipboard"), "Couldn't copy link", true, "https://example.com/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var copied string
			svc := Services{Copy: func(s string) error { copied = s; return tt.copyErr }}
			m := mountedFeed(t, svc, tt.articles)

			m, _ = m.update(runeKey("s"))
			if copied != tt.wantCopy {
				t.Errorf("copied %q, want %q", copied, tt.wantCopy)
			}
			if m.statusMessage != tt.wantMsg || m.statusIsError != tt.wantErr {
				t.Errorf("status = %q (error %v), want %q (error %v)", m.statusMessage, m.statusIsError, tt.wantMsg, tt.wantErr)
			}
		})
	}
}

func TestFeed_StatusMessageTimeout(t *testing.T) {
	m := mountedFeed(t, Services{Copy: func(string) error { return nil }}, testArticles())
	m, _ = m.update(runeKey("s"))
	seq := m.statusSeq

	m, _ = m.update(statusMessageTimeoutMsg{seq: seq - 1})
	if m.statusMessage == "" {
		t.Fatal("an older timeout cleared the message")
	}
	m, _ = m.update(statusMessageTimeoutMsg{seq: seq})
	if m.statusMessage != "" {
		t.Errorf("status = %q after timeout", m.statusMessage)
	}
}

func TestFeed_ReadMore(t *testing.T) {
	t.Run("full text", func(t *testing.T) {
		var fetched string
		svc := Services{ReadMore: func(_ context.Context, url string) (string, error) {
			fetched = url
			return "Full text of the story.", nil
		}}
		m := mountedFeed(t, svc, testArticles())

		m, cmd := m.update(runeKey("r"))
		if m.state != feedStateReadMore || !m.readMoreLoading {
			t.Fatalf("state = %v loading = %v", m.state, m.readMoreLoading)
		}
		m, _ = m.update(cmd())
		if fetched != "https://example.com/1" {
			t.Errorf("fetched %q", fetched)
		}
		if !containsAll(m.readMore.View(), "Full text of the story.") {
			t.Errorf("read more view = %q", m.readMore.View())
		}

		m, _ = m.update(escKey)
		if m.state != feedStateBrowse {
			t.Error("esc should return to the cards")
		}
	})

	t.Run("fetch fails", func(t *testing.T) {
		svc := Services{ReadMore: func(context.Context, string) (string, error) {
			return "", errors.New("blocked")
		}}
		m := mountedFeed(t, svc, testArticles())
		m, cmd := m.update(runeKey("r"))
		m, _ = m.update(cmd())
		if !containsAll(m.readMore.View(), "Couldn't load the full article", "The rupee held firm.") {
			t.Errorf("read more view = %q", m.readMore.View())
		}
	})

	t.Run("stale result", func(t *testing.T) {
		m := mountedFeed(t, Services{ReadMore: func(context.Context, string) (string, error) {
			return "late", nil
		}}, testArticles())
		m, cmd := m.update(runeKey("r"))
		msg := cmd()
		m, _ = m.update(escKey)
		m, _ = m.update(msg)
		if m.state != feedStateBrowse {
			t.Error("late result reopened read more")
		}
	})
}

func TestFeed_Navigation(t *testing.T) {
	m := mountedFeed(t, Services{}, testArticles())
	tests := []struct {
		key  tea.KeyMsg
		want tea.Msg
	}{
		{escKey, backToSelectionMsg{}},
		{runeKey("n"), openSubscribeMsg{}},
		{runeKey("q"), quitMsg{}},
	}
	for _, tt := range tests {
		_, cmd := m.update(tt.key)
		msgs := collect(cmd)
		if len(msgs) != 1 || msgs[0] != tt.want {
			t.Errorf("%q = %v, want %T", tt.key.String(), msgs, tt.want)
		}
	}
}

func TestFeed_View(t *testing.T) {
	m := mountedFeed(t, Services{}, testArticles())
	v := m.view()
	if !containsAll(v, "Rupee steadies", "Mint", "1/3", "https://example.com/1") {
		t.Errorf("view() = %q", v)
	}

	m, _ = m.update(runeKey("?"))
	if !containsAll(m.view(), "next article") {
		t.Error("help not shown after ?")
	}
}

func TestReadingMinutes(t *testing.T) {
	long := news.Article{Content: strings.Repeat("word ", 450)}
	tests := []struct {
		a    news.Article
		want int
	}{
		{news.Article{}, 1},
		{news.Article{Summary: "short"}, 1},
		{long, 3},
	}
	for _, tt := range tests {
		if got := readingMinutes(tt.a); got != tt.want {
			t.Errorf("readingMinutes() = %d, want %d", got, tt.want)
		}
	}
}

func TestFit(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	if got := fit(lines, 10); len(got) != 4 {
		t.Errorf("fit kept %d lines, want 4", len(got))
	}
	got := fit(lines, 2)
	if len(got) != 2 || got[0] != "a" {
		t.Errorf("fit(2) = %q", got)
	}
	if got := fit(lines, 0); got != nil {
		t.Errorf("fit(0) = %q, want nil", got)
	}
}

func TestFeed_Search(t *testing.T) {
	m := mountedFeed(t, Services{}, testArticles())
	m.query.Industries = []string{"Energy"}

	m, _ = m.update(runeKey("/"))
	if !m.search.Focused() {
		t.Fatal("/ should open the search bar")
	}
	m, _ = m.update(runeKey("rupee #forex j"))
	if m.carousel.Animating() {
		t.Error("typing in the search bar must not move the carousel")
	}
	if !strings.Contains(m.view(), "rupee #forex j") {
		t.Errorf("search bar not shown: %q", m.view())
	}

	m, cmd := m.update(enterKey)
	if m.search.Focused() {
		t.Error("enter should close the search bar")
	}
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("enter = %v", msgs)
	}
	get, ok := msgs[0].(getNewsMsg)
	if !ok {
		t.Fatalf("enter = %T, want getNewsMsg", msgs[0])
	}
	q := get.query
	if q.Text != "rupee j" {
		t.Errorf("Text = %q, want %q", q.Text, "rupee j")
	}
	if len(q.Keywords) != 1 || q.Keywords[0] != "forex" {
		t.Errorf("Keywords = %v, want [forex]", q.Keywords)
	}
	if len(q.Industries) != 1 || q.Industries[0] != "Energy" || q.Page != 1 {
		t.Errorf("query lost its filters: %+v", q)
	}
}

func TestFeed_SearchCancel(t *testing.T) {
	q := news.DefaultQuery()
	q.Text = "steel"
	m := newFeedModel(testCommon(Services{}))
	m.setSize(80, 24)
	m.mount(q, testArticles(), nil)

	if !strings.Contains(m.view(), "⌕ steel") {
		t.Errorf("active search not shown: %q", m.view())
	}

	m, _ = m.update(runeKey("/"))
	if got := m.search.Value(); got != "steel" {
		t.Errorf("search bar = %q, want the active search", got)
	}
	m, cmd := m.update(escKey)
	if m.search.Focused() || cmd != nil {
		t.Error("esc should close the search bar without fetching")
	}

	// Submitting the same search does not refetch.
	m, _ = m.update(runeKey("/"))
	if _, cmd := m.update(enterKey); cmd != nil {
		t.Error("unchanged search should not refetch")
	}
}

func TestParseSearch(t *testing.T) {
	tests := []struct {
		in       string
		text     string
		keywords []string
	}{
		{"", "", nil},
		{"  rbi   policy ", "rbi policy", nil},
		{"#ipo", "", []string{"ipo"}},
		{"tata #steel ## #ev", "tata", []string{"steel", "ev"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			text, keywords := parseSearch(tt.in)
			if text != tt.text {
				t.Errorf("text = %q, want %q", text, tt.text)
			}
			if strings.Join(keywords, ",") != strings.Join(tt.keywords, ",") {
				t.Errorf("keywords = %v, want %v", keywords, tt.keywords)
			}
			if tt.keywords == nil && len(keywords) != 0 {
				t.Errorf("keywords = %v, want none", keywords)
			}
		})
	}
}
