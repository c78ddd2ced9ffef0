package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type (
	renderMsg string
	scrollMsg struct{}
	alertMsg  string
	doneMsg   struct{ err error }
)

// bridge forwards controller callbacks into the bubbletea event loop. The
// controller runs in a tea.Cmd goroutine so all state changes of the Model
// still happen in Update.
type bridge struct {
	send func(tea.Msg)
}

func (b *bridge) Render(response string) {
	b.send(renderMsg(response))
}

func (b *bridge) ScrollToBottom() {
	b.send(scrollMsg{})
}

func (b *bridge) Alert(msg string) {
	b.send(alertMsg(msg))
}
