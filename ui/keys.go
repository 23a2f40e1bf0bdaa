package ui

import "github.com/charmbracelet/bubbles/key"

type selectionKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Toggle key.Binding
	Search key.Binding
	Submit key.Binding
	Quit   key.Binding
}

func (k selectionKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Search, k.Submit, k.Quit}
}

func (k selectionKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var selectionKeys = selectionKeyMap{
	Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
	Left:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "previous")),
	Right:  key.NewBinding(key.WithKeys("l", "right", "tab"), key.WithHelp("→/l", "next")),
	Toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "get news")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type feedKeyMap struct {
	Next      key.Binding
	Prev      key.Binding
	Speak     key.Binding
	Pause     key.Binding
	Share     key.Binding
	ReadMore  key.Binding
	Subscribe key.Binding
	Refresh   key.Binding
	Search    key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k feedKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Speak, k.ReadMore, k.Help, k.Quit}
}

func (k feedKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Refresh, k.Search, k.Back},
		{k.Speak, k.Pause, k.Share, k.ReadMore},
		{k.Subscribe, k.Help, k.Quit},
	}
}

var feedKeys = feedKeyMap{
	Next:      key.NewBinding(key.WithKeys("j", "down", "pgdown"), key.WithHelp("↓/j", "next article")),
	Prev:      key.NewBinding(key.WithKeys("k", "up", "pgup"), key.WithHelp("↑/k", "previous article")),
	Speak:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "listen/stop")),
	Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
	Share:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "copy link")),
	ReadMore:  key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "read more")),
	Subscribe: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "newsletter")),
	Refresh:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search articles")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "interests")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
