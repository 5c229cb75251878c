package cli

import "github.com/charmbracelet/bubbles/key"

type boardKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Grab      key.Binding
	ResizeL   key.Binding
	ResizeR   key.Binding
	Link      key.Binding
	LinkType  key.Binding
	Unlink    key.Binding
	Visible   key.Binding
	Refresh   key.Binding
	Cancel    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultBoardKeys() boardKeyMap {
	return boardKeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous day")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
		PrevMonth: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous month")),
		NextMonth: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next month")),
		Grab:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "grab / drop")),
		ResizeL:   key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "resize start")),
		ResizeR:   key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "resize end")),
		Link:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "link from here")),
		LinkType:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle link type")),
		Unlink:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "unlink (again: next link)")),
		Visible:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "hide / show")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.ResizeL, k.ResizeR, k.Link, k.Cancel, k.Help, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PrevMonth, k.NextMonth},
		{k.Grab, k.ResizeL, k.ResizeR, k.Cancel},
		{k.Link, k.LinkType, k.Unlink, k.Visible, k.Refresh},
		{k.Help, k.Quit},
	}
}
