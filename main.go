package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"xchbal/pkg/api"
	"xchbal/pkg/config"
	"xchbal/pkg/fiat"
	"xchbal/pkg/logger"
	"xchbal/pkg/metrics"
	"xchbal/pkg/models"
	"xchbal/pkg/prefs"
	"xchbal/pkg/server"
	"xchbal/pkg/tui"
	"xchbal/pkg/utils"
	"xchbal/pkg/watcher"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Version should be set during build
var Version = "dev"

func main() {
	testFlag := flag.Bool("t", false, "Test configuration and exit")
	testLongFlag := flag.Bool("test", false, "Test configuration and exit")
	jsonFlag := flag.Bool("json", false, "Output test results as JSON")
	configFlag := flag.String("config", "", "Path to configuration file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	serverFlag := flag.Bool("server", false, "Run in headless server mode")
	portFlag := flag.Int("port", 8080, "Port for API server")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("xchbal version %s\n", Version)
		os.Exit(0)
	}

	cfgInput := *configFlag
	if cfgInput == "" && len(flag.Args()) > 0 {
		cfgInput = flag.Args()[0]
	}
	path, err := config.GetConfigPath(cfgInput)
	if err != nil {
		fmt.Printf("Error determining config path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		fmt.Printf("Error loading config from %s: %v\n", path, err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.Global, "xchbal/"+Version)

	if *testFlag || *testLongFlag {
		report := runTest(context.Background(), cfg, path, client)
		if *jsonFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		} else {
			printReport(os.Stdout, report)
		}
		if !report.ValidStructure || report.Failed() {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// The TUI owns the terminal, so it logs to a file.
	logPath := ""
	if !*serverFlag {
		logPath, err = config.GetLogPath(cfg.Global.LogFile)
		if err != nil {
			fmt.Printf("Error determining log path: %v\n", err)
			os.Exit(1)
		}
	}
	log, err := logger.New(cfg.Global.LogLevel, logPath)
	if err != nil {
		fmt.Printf("Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var ds watcher.DataSource = client
	if cfg.Global.PriceCacheSeconds > 0 {
		ds = api.NewCachedClient(client, time.Duration(cfg.Global.PriceCacheSeconds)*time.Second)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	w := watcher.NewWatcher(cfg.Addresses, cfg.SelectedCurrency, cfg.Global, ds, m, log)

	srv := server.NewServer(w, reg, log)
	go func() {
		if err := srv.Start(*portFlag); err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	if *serverFlag {
		log.Info("running in server mode", zap.Int("port", *portFlag), zap.String("config", path))
		w.Start(context.Background())
		select {} // Keep alive
	}

	prefsPath, err := config.GetPrefsPath(cfg.Global.PrefsPath)
	if err != nil {
		fmt.Printf("Error determining preferences path: %v\n", err)
		os.Exit(1)
	}

	tui.Start(w, tui.Options{
		Config:     cfg,
		ConfigPath: path,
		Prefs:      prefs.NewFileStore(prefsPath),
		Logger:     log,
	}, Version)
}

// runTest checks the configuration structure and then queries every checked address
// and the selected currency's price once, without the screen.
func runTest(ctx context.Context, cfg config.Config, path string, ds watcher.DataSource) models.TestReport {
	report := models.TestReport{
		ConfigPath:     path,
		ValidStructure: true,
		AddressCount:   len(cfg.Addresses),
		CheckedCount:   len(config.CheckedAddresses(cfg.Addresses)),
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		report.ValidStructure = false
		report.StructureErrors = problems
		return report
	}

	for _, a := range cfg.Addresses {
		res := models.AddressResult{
			Address: strings.TrimSpace(a.Address),
			Name:    a.Name,
			Checked: a.Checked,
		}
		bal, err := ds.FetchBalance(ctx, res.Address)
		if err != nil {
			res.Status = "error"
			res.Error = err.Error()
		} else {
			res.Status = "ok"
			res.Balance = bal.UnspentBalance
			if a.Checked {
				report.TotalCoins += bal.UnspentBalance
			}
		}
		report.Addresses = append(report.Addresses, res)
	}

	pr := &models.PriceResult{Currency: cfg.SelectedCurrency}
	price, err := ds.FetchPrice(ctx, cfg.SelectedCurrency)
	if err != nil {
		pr.Status = "error"
		pr.Error = err.Error()
	} else {
		pr.Status = "ok"
		pr.Price = price.Price
	}
	report.Price = pr

	return report
}

func printReport(out io.Writer, report models.TestReport) {
	_, _ = fmt.Fprintf(out, "Testing configuration at: %s\n", report.ConfigPath)
	if !report.ValidStructure {
		for _, e := range report.StructureErrors {
			_, _ = fmt.Fprintf(out, "Error: %s\n", e)
		}
		return
	}
	_, _ = fmt.Fprintf(out, "Found %d addresses (%d checked).\n", report.AddressCount, report.CheckedCount)
	for _, a := range report.Addresses {
		label := a.Address
		if a.Name != "" {
			label = fmt.Sprintf("%s (%s)", a.Name, a.Address)
		}
		if !a.Checked {
			label += " [unchecked]"
		}
		if a.Status == "ok" {
			_, _ = fmt.Fprintf(out, "  %s ... OK (%v XCH)\n", label, a.Balance)
		} else {
			_, _ = fmt.Fprintf(out, "  %s ... Failed: %s\n", label, a.Error)
		}
	}
	if p := report.Price; p != nil {
		if p.Status == "ok" {
			info := fiat.MustLookup(p.Currency)
			_, _ = fmt.Fprintf(out, "Price (%s): OK (%s)\n", info.Code, utils.FormatFloat(p.Price, info.Scale))
		} else {
			_, _ = fmt.Fprintf(out, "Price (%s): Failed: %s\n", strings.ToUpper(p.Currency), p.Error)
		}
	}
	_, _ = fmt.Fprintf(out, "Total of checked addresses: %v XCH\n", report.TotalCoins)
}
