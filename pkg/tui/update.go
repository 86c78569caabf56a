package tui

import (
	"context"
	"time"

	"xchbal/pkg/display"
	"xchbal/pkg/screen"
	"xchbal/pkg/watcher"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case watcher.Event:
		cmds = append(cmds, listenForWatcher(m.sub))

		switch msg.Type {
		case watcher.EventStateChanged:
			if snap, ok := msg.Data.(screen.Snapshot); ok {
				m.applySnapshot(snap)
			}
		case watcher.EventRefreshIgnored:
			m.statusMessage = "Nothing to refresh, no address selected"
			cmds = append(cmds, clearStatusAfter(2*time.Second))
		}

	case modeLoadedMsg:
		if !m.modeLoaded {
			m.mode = msg.mode
			m.modeLoaded = true
		}
		if msg.err != nil {
			m.log.Warn("could not load display mode", zap.Error(msg.err))
		}

	case modeSavedMsg:
		if msg.err != nil {
			m.log.Warn("could not save display mode", zap.String("mode", msg.mode.String()), zap.Error(msg.err))
			m.statusMessage = "Display mode not saved"
			cmds = append(cmds, clearStatusAfter(2*time.Second))
		}

	case configSavedMsg:
		if msg.err != nil {
			m.log.Warn("could not save config", zap.String("path", m.configPath), zap.Error(msg.err))
			m.statusMessage = "Failed to save config"
			cmds = append(cmds, clearStatusAfter(2*time.Second))
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if msg.String() == "?" {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.showHelp {
			if msg.String() == "q" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		if m.showAddresses {
			switch msg.String() {
			case "q", "esc", "a":
				m.showAddresses = false
			case "ctrl+c":
				return m, tea.Quit
			case "up", "k":
				if m.addrCursor > 0 {
					m.addrCursor--
				}
			case "down", "j":
				if m.addrCursor < len(m.cfg.Addresses)-1 {
					m.addrCursor++
				}
			case " ", "x":
				cmds = append(cmds, m.toggleAddress())
			}
			return m, tea.Batch(cmds...)
		}

		if m.showGraph {
			switch msg.String() {
			case "q", "esc", "g":
				m.showGraph = false
			case "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit

		case "r":
			cmds = append(cmds, runPending(m.watcher.StageRefresh(context.Background())))

		case "f", "enter":
			cmds = append(cmds, m.cycleMode())

		case "]", "right", "l":
			cmds = append(cmds, m.shiftCurrency(1))
		case "[", "left", "h":
			cmds = append(cmds, m.shiftCurrency(-1))

		case "a":
			m.showAddresses = true

		case "g":
			m.showGraph = true

		case "c":
			if m.snapshot.State != screen.Success {
				m.statusMessage = "No balance to copy"
			} else if err := clipboard.WriteAll(display.Format(m.snapshot.Aggregate.TotalCoins, m.mode).String()); err != nil {
				m.statusMessage = "Failed to copy to clipboard"
			} else {
				m.statusMessage = "Balance copied to clipboard!"
			}
			cmds = append(cmds, clearStatusAfter(2*time.Second))
		}

	case clearStatusMsg:
		m.statusMessage = ""
	}

	return m, tea.Batch(cmds...)
}
