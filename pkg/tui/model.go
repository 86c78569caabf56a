package tui

import (
	"time"

	"xchbal/pkg/config"
	"xchbal/pkg/display"
	"xchbal/pkg/prefs"
	"xchbal/pkg/screen"
	"xchbal/pkg/watcher"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Version is set by Start()
var Version = "dev"

// maxHistory caps the fiat value history kept for the graph.
const maxHistory = 720

// --- Messages ---

type clearStatusMsg struct{}

type modeLoadedMsg struct {
	mode display.Mode
	err  error
}

type modeSavedMsg struct {
	mode display.Mode
	err  error
}

type configSavedMsg struct {
	err error
}

// --- Model ---

type model struct {
	watcher      *watcher.Watcher
	sub          watcher.Subscriber
	store        prefs.Store
	log          *zap.Logger
	cfg          config.Config
	configPath   string
	configWriter *configWriter

	snapshot   screen.Snapshot
	mode       display.Mode
	modeLoaded bool

	showAddresses bool
	addrCursor    int
	showGraph     bool
	showHelp      bool
	fiatHistory   []float64

	width         int
	height        int
	spinner       spinner.Model
	statusMessage string
	lastUpdate    time.Time
}

// Options carries everything the TUI needs besides the watcher.
type Options struct {
	Config     config.Config
	ConfigPath string
	Prefs      prefs.Store
	Logger     *zap.Logger
}

func initialModel(w *watcher.Watcher, opts Options) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return model{
		watcher:      w,
		sub:          w.Subscribe(),
		store:        opts.Prefs,
		log:          log,
		cfg:          opts.Config,
		configPath:   opts.ConfigPath,
		configWriter: newConfigWriter(opts.ConfigPath),
		snapshot:     w.Snapshot(),
		mode:         display.Simplified,
		spinner:      s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForWatcher(m.sub),
		m.spinner.Tick,
		loadModeCmd(m.store),
	)
}
