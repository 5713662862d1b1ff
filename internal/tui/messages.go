package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/praeterii/radio/internal/dispatch"
)

// dispatchMsg carries a queued closure into Update, which runs it on the
// program goroutine alongside rendering.
type dispatchMsg struct {
	fn func()
}

// Pump forwards queued closures into the program until ctx is done.
// Run it in its own goroutine.
func Pump(ctx context.Context, q *dispatch.Queue, p *tea.Program) {
	for {
		fn, err := q.Next(ctx)
		if err != nil {
			return
		}
		p.Send(dispatchMsg{fn: fn})
	}
}
