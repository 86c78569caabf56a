package tui

import (
	"fmt"
	"strings"

	"xchbal/pkg/display"
	"xchbal/pkg/fiat"
	"xchbal/pkg/screen"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}
	if m.showAddresses {
		return m.viewAddresses()
	}
	if m.showGraph {
		return m.viewGraph()
	}

	header := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Chia Address"),
		subtleStyle.Render("Balance"),
	)

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", m.viewBalance()))

	var footerLines []string
	footerLines = append(footerLines, m.viewInfoLine())
	if m.statusMessage != "" {
		footerLines = append(footerLines, infoStyle.Render(m.statusMessage))
	}
	footerLines = append(footerLines, subtleStyle.Render("r: refresh • f: format • [/]: currency • a: addresses • ?: help • q: quit"))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", strings.Join(footerLines, "\n")),
	)
}

// viewBalance renders the body for the current screen state. A manual refresh keeps the
// previous body visible under a spinner.
func (m model) viewBalance() string {
	body := m.viewStateBody()
	if m.snapshot.Refreshing {
		body = lipgloss.JoinVertical(lipgloss.Center, body, fmt.Sprintf("%s refreshing", m.spinner.View()))
	}
	return body
}

func (m model) viewStateBody() string {
	switch m.snapshot.State {
	case screen.Loading:
		return fmt.Sprintf("%s %s", m.spinner.View(), screen.MsgLoading)
	case screen.Error:
		return lipgloss.JoinVertical(lipgloss.Center,
			errStyle.Render(screen.MsgError),
			subtleStyle.Render("press r to try again"),
		)
	case screen.NoAddresses:
		return lipgloss.JoinVertical(lipgloss.Center,
			subtleStyle.Render(screen.MsgNoAddresses),
			subtleStyle.Render("press a to select addresses"),
		)
	}

	agg := m.snapshot.Aggregate
	d := display.Format(agg.TotalCoins, m.mode)

	var lines []string
	lines = append(lines, display.MoodFor(agg.TotalCoins).Face())
	if d.Detailed() {
		lines = append(lines,
			balanceStyle.Render(fmt.Sprintf("%s %s", d.Amount, d.Unit)),
			balanceStyle.Render(fmt.Sprintf("%s %s", d.BaseAmount, d.BaseUnit)),
		)
	} else {
		lines = append(lines, balanceStyle.Render(d.String()))
	}
	if fl := display.FiatLine(agg.TotalCoins, agg.FiatPricePerCoin, fiat.MustLookup(m.snapshot.Currency)); fl != "" {
		lines = append(lines, infoStyle.Render(fl))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m model) viewInfoLine() string {
	currency := fiat.MustLookup(m.cfg.SelectedCurrency).Code
	parts := []string{
		fmt.Sprintf("Format: %s", m.mode),
		fmt.Sprintf("Currency: %s", currency),
		fmt.Sprintf("Addresses: %d/%d", m.snapshot.CheckedCount, len(m.cfg.Addresses)),
	}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, fmt.Sprintf("Updated: %s", m.lastUpdate.Format("15:04:05")))
	}
	return subtleStyle.Render(strings.Join(parts, " • "))
}

func (m model) viewAddresses() string {
	header := titleStyle.Render("Addresses")

	var rows []string
	for i, a := range m.cfg.Addresses {
		row := fmt.Sprintf("%s %s", checkbox(a.Checked), addressLabel(a))
		if i == m.addrCursor {
			row = selectedStyle.Render("> " + row)
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	body := strings.Join(rows, "\n")
	if len(rows) == 0 {
		body = subtleStyle.Render(fmt.Sprintf("No addresses in %s", m.configPath))
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", body))
	footer := subtleStyle.Render("↑/↓: move • space: include/exclude • a/q/esc: back")
	if m.statusMessage != "" {
		footer = lipgloss.JoinVertical(lipgloss.Center, infoStyle.Render(m.statusMessage), footer)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewGraph() string {
	info := fiat.MustLookup(m.cfg.SelectedCurrency)
	header := titleStyle.Render("Balance History")
	var graph string
	if len(m.fiatHistory) > 1 {
		width := m.width - 10
		if width < 10 {
			width = 10
		}
		height := m.height - 12
		if height < 5 {
			height = 5
		}
		graph = asciigraph.Plot(m.fiatHistory,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Precision(uint(info.Scale)),
			asciigraph.Caption(fmt.Sprintf("Balance Value History (%s)", info.Code)),
		)
	} else {
		graph = "Not enough data to draw graph."
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", graph))
	footer := subtleStyle.Render("g/q/esc: back")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewHelp() string {
	var title string
	var shortcuts []string

	if m.showAddresses {
		title = "Addresses"
		shortcuts = []string{"↑/k: Up", "↓/j: Down", "space/x: Include or Exclude", "a/q/esc: Back"}
	} else if m.showGraph {
		title = "Balance History"
		shortcuts = []string{"g/q/esc: Back"}
	} else {
		title = "Main View"
		shortcuts = []string{
			"r: Refresh",
			"f/enter: Cycle Format (simplified, normal, detailed)",
			"]/l/Right: Next Currency",
			"[/h/Left: Previous Currency",
			"a: Select Addresses",
			"g: Balance History",
			"c: Copy Balance",
			"q/esc: Quit",
			"?: Toggle Help",
		}
	}

	header := titleStyle.Render(fmt.Sprintf("Help: %s", title))
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", strings.Join(shortcuts, "\n")))
	footer := subtleStyle.Render("Press '?' or 'esc' to close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
	)
}
