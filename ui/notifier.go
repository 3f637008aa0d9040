package ui

import tea "github.com/charmbracelet/bubbletea"

// RefreshMsg asks the model to re-read the view.
type RefreshMsg struct{}

// Notifier coalesces view changes into RefreshMsg. Notify never blocks, so it
// can be called from the change feed goroutine.
type Notifier chan struct{}

func NewNotifier() Notifier {
	return make(Notifier, 1)
}

func (n Notifier) Notify() {
	select {
	case n <- struct{}{}:
	default:
	}
}

// Wait returns a command delivering the next RefreshMsg.
func (n Notifier) Wait() tea.Cmd {
	return func() tea.Msg {
		<-n
		return RefreshMsg{}
	}
}
