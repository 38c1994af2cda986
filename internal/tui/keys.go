package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up     key.Binding
	down   key.Binding
	tab    key.Binding
	enter  key.Binding
	esc    key.Binding
	quit   key.Binding
	new    key.Binding
	sync   key.Binding
	delete key.Binding
	yes    key.Binding
	no     key.Binding
}

var keys = keyMap{
	up:     key.NewBinding(key.WithKeys("up", "k")),
	down:   key.NewBinding(key.WithKeys("down", "j")),
	tab:    key.NewBinding(key.WithKeys("tab")),
	enter:  key.NewBinding(key.WithKeys("enter")),
	esc:    key.NewBinding(key.WithKeys("esc")),
	quit:   key.NewBinding(key.WithKeys("q", "ctrl+c")),
	new:    key.NewBinding(key.WithKeys("n")),
	sync:   key.NewBinding(key.WithKeys("s")),
	delete: key.NewBinding(key.WithKeys("d")),
	yes:    key.NewBinding(key.WithKeys("y")),
	no:     key.NewBinding(key.WithKeys("n")),
}
