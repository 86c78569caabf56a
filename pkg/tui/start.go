package tui

import (
	"context"
	"fmt"
	"os"

	"xchbal/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

// Start runs the balance screen until the user quits. The watcher is mounted once the
// screen has subscribed to it.
func Start(w *watcher.Watcher, opts Options, version string) {
	Version = version
	m := initialModel(w, opts)
	defer w.Unsubscribe(m.sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
