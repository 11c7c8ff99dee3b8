package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Expand        key.Binding
	Collapse      key.Binding
	Click         key.Binding
	Open          key.Binding
	Settings      key.Binding
	Add           key.Binding
	Remove        key.Binding
	ToggleDeleted key.Binding
	ToggleFiles   key.Binding
	Reload        key.Binding
	Copy          key.Binding
	Logs          key.Binding
	NextPanel     key.Binding
	Close         key.Binding
	Top           key.Binding
	Bottom        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Expand:        key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "expand")),
		Collapse:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "collapse")),
		Click:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Settings:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		Add:           key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Remove:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		ToggleDeleted: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deleted")),
		ToggleFiles:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "all files")),
		Reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Copy:          key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
		Logs:          key.NewBinding(key.WithKeys("l", "L"), key.WithHelp("l", "logs")),
		NextPanel:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		Close:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Top:           key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:        key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	}
}
