package tui

import (
	"context"
	"sync"
	"time"

	"xchbal/pkg/config"
	"xchbal/pkg/display"
	"xchbal/pkg/prefs"
	"xchbal/pkg/screen"
	"xchbal/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

// prefsTimeout bounds a single preference read or write.
const prefsTimeout = 5 * time.Second

func listenForWatcher(sub watcher.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func loadModeCmd(store prefs.Store) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return modeLoadedMsg{mode: display.Simplified}
		}
		ctx, cancel := context.WithTimeout(context.Background(), prefsTimeout)
		defer cancel()
		mode, err := display.LoadMode(ctx, store)
		return modeLoadedMsg{mode: mode, err: err}
	}
}

func saveModeCmd(store prefs.Store, mode display.Mode) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), prefsTimeout)
		defer cancel()
		return modeSavedMsg{mode: mode, err: display.SaveMode(ctx, store, mode)}
	}
}

// configWriter serialises config saves and drops any that arrive after a newer one was written.
type configWriter struct {
	path    string
	mu      sync.Mutex
	seq     uint64
	written uint64
}

func newConfigWriter(path string) *configWriter {
	return &configWriter{path: path}
}

// next reserves the sequence number for a save. Call it from Update, in event order.
func (c *configWriter) next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

func (c *configWriter) save(seq uint64, cfg config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.written {
		return nil
	}
	if err := config.SaveConfig(cfg, c.path); err != nil {
		return err
	}
	c.written = seq
	return nil
}

func saveConfigCmd(w *configWriter, cfg config.Config) tea.Cmd {
	if w == nil || w.path == "" {
		return nil
	}
	seq := w.next()
	return func() tea.Msg {
		return configSavedMsg{err: w.save(seq, cfg)}
	}
}

// runPending fetches a staged trigger in the background. The outcome arrives through the
// subscription.
func runPending(p *watcher.Pending) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		p.Run()
		return nil
	}
}

// applySnapshot stores a new controller snapshot and records successful fiat values.
func (m *model) applySnapshot(snap screen.Snapshot) {
	m.snapshot = snap
	if snap.State != screen.Success || snap.Refreshing {
		return
	}
	m.lastUpdate = snap.UpdatedAt
	m.fiatHistory = append(m.fiatHistory, snap.Aggregate.FiatValue())
	if len(m.fiatHistory) > maxHistory {
		m.fiatHistory = m.fiatHistory[len(m.fiatHistory)-maxHistory:]
	}
}

// cycleMode advances the display mode. It is a no-op until the stored mode has loaded,
// so a late load can never overwrite a user choice.
func (m *model) cycleMode() tea.Cmd {
	if !m.modeLoaded {
		return nil
	}
	m.mode = m.mode.Cycle()
	return saveModeCmd(m.store, m.mode)
}

// toggleAddress flips the checked flag of the address under the cursor.
func (m *model) toggleAddress() tea.Cmd {
	if m.addrCursor < 0 || m.addrCursor >= len(m.cfg.Addresses) {
		return nil
	}
	addrs := append([]config.AddressConfig(nil), m.cfg.Addresses...)
	addrs[m.addrCursor].Checked = !addrs[m.addrCursor].Checked
	m.cfg.Addresses = addrs
	// The history mixes totals of different address sets otherwise.
	m.fiatHistory = nil
	p := m.watcher.StageAddresses(context.Background(), addrs)
	return tea.Batch(runPending(p), saveConfigCmd(m.configWriter, m.cfg))
}

// shiftCurrency moves the selected currency by delta, wrapping around the list.
func (m *model) shiftCurrency(delta int) tea.Cmd {
	n := len(m.cfg.Currencies)
	if n < 2 {
		return nil
	}
	idx := (m.cfg.CurrencyIndex() + delta%n + n) % n
	m.cfg.SelectedCurrency = m.cfg.Currencies[idx]
	m.fiatHistory = nil
	p := m.watcher.StageCurrency(context.Background(), m.cfg.SelectedCurrency)
	return tea.Batch(runPending(p), saveConfigCmd(m.configWriter, m.cfg))
}
