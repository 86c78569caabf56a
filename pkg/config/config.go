package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	ConfigFileName = ".xchbal.json"
	PrefsFileName  = ".xchbal.prefs.json"
	LogFileName    = ".xchbal.log"

	DefaultCurrency = "usd"
)

var DefaultCurrencies = []string{"usd", "eur", "gbp", "jpy", "cny", "cad", "aud", "chf"}

// AddressConfig holds configuration for a monitored address.
type AddressConfig struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Checked bool   `json:"checked"`
}

// GlobalConfig holds application-wide settings.
type GlobalConfig struct {
	BalanceAPIURL          string  `json:"balance_api_url"`
	PriceAPIURL            string  `json:"price_api_url"`
	CoinID                 string  `json:"coin_id"`
	RequestTimeoutSeconds  int     `json:"request_timeout_seconds"`
	RateLimitPerSecond     float64 `json:"rate_limit_per_second"`
	RateLimitBurst         int     `json:"rate_limit_burst"`
	MaxConcurrentFetches   int     `json:"max_concurrent_fetches"`
	RefreshIntervalSeconds int     `json:"refresh_interval_seconds"`
	PriceCacheSeconds      int     `json:"price_cache_seconds"`
	LogLevel               string  `json:"log_level"`
	LogFile                string  `json:"log_file,omitempty"`
	PrefsPath              string  `json:"prefs_path,omitempty"`
}

// Config is the full content of the configuration file.
type Config struct {
	Addresses        []AddressConfig
	Currencies       []string
	SelectedCurrency string
	Global           GlobalConfig
}

// DefaultGlobalConfig returns the settings used when the file omits them.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		BalanceAPIURL:          "https://xchscan.com/api",
		PriceAPIURL:            "https://api.coingecko.com/api/v3",
		CoinID:                 "chia",
		RequestTimeoutSeconds:  10,
		RateLimitPerSecond:     5,
		RateLimitBurst:         5,
		MaxConcurrentFetches:   8,
		RefreshIntervalSeconds: 0,
		PriceCacheSeconds:      0,
		LogLevel:               "info",
	}
}

// Default returns an empty configuration with default settings.
func Default() Config {
	return Config{
		Addresses:        []AddressConfig{},
		Currencies:       append([]string(nil), DefaultCurrencies...),
		SelectedCurrency: DefaultCurrency,
		Global:           DefaultGlobalConfig(),
	}
}

// CheckedAddresses returns the addresses flagged for inclusion in the total, in order.
func CheckedAddresses(addresses []AddressConfig) []string {
	var out []string
	for _, a := range addresses {
		clean := strings.TrimSpace(a.Address)
		if a.Checked && clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// CurrencyIndex returns the position of code in the currency list, or 0.
func (c Config) CurrencyIndex() int {
	for i, cur := range c.Currencies {
		if strings.EqualFold(cur, c.SelectedCurrency) {
			return i
		}
	}
	return 0
}

func GetConfigPath(customPath string) (string, error) {
	return homePath(customPath, ConfigFileName)
}

func GetPrefsPath(customPath string) (string, error) {
	return homePath(customPath, PrefsFileName)
}

func GetLogPath(customPath string) (string, error) {
	return homePath(customPath, LogFileName)
}

func homePath(customPath, name string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, name), nil
}

func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		Addresses              json.RawMessage `json:"addresses"`
		Currencies             []string        `json:"currencies"`
		SelectedCurrency       string          `json:"selected_currency"`
		BalanceAPIURL          *string         `json:"balance_api_url"`
		PriceAPIURL            *string         `json:"price_api_url"`
		CoinID                 *string         `json:"coin_id"`
		RequestTimeoutSeconds  *int            `json:"request_timeout_seconds"`
		RateLimitPerSecond     *float64        `json:"rate_limit_per_second"`
		RateLimitBurst         *int            `json:"rate_limit_burst"`
		MaxConcurrentFetches   *int            `json:"max_concurrent_fetches"`
		RefreshIntervalSeconds *int            `json:"refresh_interval_seconds"`
		PriceCacheSeconds      *int            `json:"price_cache_seconds"`
		LogLevel               *string         `json:"log_level"`
		LogFile                *string         `json:"log_file"`
		PrefsPath              *string         `json:"prefs_path"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if len(raw.Addresses) > 0 {
		addrs, err := decodeAddresses(raw.Addresses)
		if err != nil {
			return Config{}, err
		}
		cfg.Addresses = addrs
	}

	if len(raw.Currencies) > 0 {
		cfg.Currencies = nil
		for _, c := range raw.Currencies {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				cfg.Currencies = append(cfg.Currencies, c)
			}
		}
	}
	if raw.SelectedCurrency != "" {
		cfg.SelectedCurrency = strings.ToLower(strings.TrimSpace(raw.SelectedCurrency))
	}
	if !containsFold(cfg.Currencies, cfg.SelectedCurrency) {
		cfg.Currencies = append(cfg.Currencies, cfg.SelectedCurrency)
	}

	g := &cfg.Global
	if raw.BalanceAPIURL != nil {
		g.BalanceAPIURL = *raw.BalanceAPIURL
	}
	if raw.PriceAPIURL != nil {
		g.PriceAPIURL = *raw.PriceAPIURL
	}
	if raw.CoinID != nil {
		g.CoinID = *raw.CoinID
	}
	if raw.RequestTimeoutSeconds != nil {
		g.RequestTimeoutSeconds = *raw.RequestTimeoutSeconds
	}
	if raw.RateLimitPerSecond != nil {
		g.RateLimitPerSecond = *raw.RateLimitPerSecond
	}
	if raw.RateLimitBurst != nil {
		g.RateLimitBurst = *raw.RateLimitBurst
	}
	if raw.MaxConcurrentFetches != nil {
		g.MaxConcurrentFetches = *raw.MaxConcurrentFetches
	}
	if raw.RefreshIntervalSeconds != nil {
		g.RefreshIntervalSeconds = *raw.RefreshIntervalSeconds
	}
	if raw.PriceCacheSeconds != nil {
		g.PriceCacheSeconds = *raw.PriceCacheSeconds
	}
	if raw.LogLevel != nil {
		g.LogLevel = *raw.LogLevel
	}
	if raw.LogFile != nil {
		g.LogFile = *raw.LogFile
	}
	if raw.PrefsPath != nil {
		g.PrefsPath = *raw.PrefsPath
	}

	return cfg, nil
}

// decodeAddresses accepts either a list of objects or a list of plain address strings.
// Objects without a "checked" field are included in the total.
func decodeAddresses(data json.RawMessage) ([]AddressConfig, error) {
	var objs []struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Checked *bool  `json:"checked"`
	}
	if err := json.Unmarshal(data, &objs); err == nil {
		addrs := make([]AddressConfig, 0, len(objs))
		for _, o := range objs {
			checked := true
			if o.Checked != nil {
				checked = *o.Checked
			}
			addrs = append(addrs, AddressConfig{
				Address: strings.TrimSpace(o.Address),
				Name:    o.Name,
				Checked: checked,
			})
		}
		return addrs, nil
	}

	var strAddrs []string
	if err := json.Unmarshal(data, &strAddrs); err != nil {
		return nil, fmt.Errorf("addresses: expected list of objects or strings: %w", err)
	}
	addrs := make([]AddressConfig, 0, len(strAddrs))
	for _, a := range strAddrs {
		addrs = append(addrs, AddressConfig{Address: strings.TrimSpace(a), Checked: true})
	}
	return addrs, nil
}

// Validate reports structural problems of the configuration, one message per problem.
func (c Config) Validate() []string {
	var problems []string
	seen := make(map[string]bool)
	for i, a := range c.Addresses {
		addr := strings.TrimSpace(a.Address)
		switch {
		case addr == "":
			problems = append(problems, fmt.Sprintf("address at index %d is empty", i))
		case !strings.HasPrefix(addr, "xch1") && !strings.HasPrefix(addr, "txch1"):
			problems = append(problems, fmt.Sprintf("address %q is not a chia address", addr))
		case seen[addr]:
			problems = append(problems, fmt.Sprintf("address %q is listed twice", addr))
		}
		seen[addr] = true
	}
	if len(c.Currencies) == 0 {
		problems = append(problems, "no currencies configured")
	}
	if c.Global.RequestTimeoutSeconds <= 0 {
		problems = append(problems, "request_timeout_seconds must be positive")
	}
	return problems
}

func SaveConfig(cfg Config, path string) error {
	if len(cfg.Currencies) == 0 {
		return fmt.Errorf("validation failed: configuration must have at least one currency")
	}
	for i, a := range cfg.Addresses {
		if strings.TrimSpace(a.Address) == "" {
			return fmt.Errorf("validation failed: address at index %d is empty", i)
		}
	}

	g := cfg.Global
	out := struct {
		Addresses              []AddressConfig `json:"addresses"`
		Currencies             []string        `json:"currencies"`
		SelectedCurrency       string          `json:"selected_currency"`
		BalanceAPIURL          string          `json:"balance_api_url"`
		PriceAPIURL            string          `json:"price_api_url"`
		CoinID                 string          `json:"coin_id"`
		RequestTimeoutSeconds  int             `json:"request_timeout_seconds"`
		RateLimitPerSecond     float64         `json:"rate_limit_per_second"`
		RateLimitBurst         int             `json:"rate_limit_burst"`
		MaxConcurrentFetches   int             `json:"max_concurrent_fetches"`
		RefreshIntervalSeconds int             `json:"refresh_interval_seconds"`
		PriceCacheSeconds      int             `json:"price_cache_seconds"`
		LogLevel               string          `json:"log_level"`
		LogFile                string          `json:"log_file,omitempty"`
		PrefsPath              string          `json:"prefs_path,omitempty"`
	}{
		Addresses:              cfg.Addresses,
		Currencies:             cfg.Currencies,
		SelectedCurrency:       cfg.SelectedCurrency,
		BalanceAPIURL:          g.BalanceAPIURL,
		PriceAPIURL:            g.PriceAPIURL,
		CoinID:                 g.CoinID,
		RequestTimeoutSeconds:  g.RequestTimeoutSeconds,
		RateLimitPerSecond:     g.RateLimitPerSecond,
		RateLimitBurst:         g.RateLimitBurst,
		MaxConcurrentFetches:   g.MaxConcurrentFetches,
		RefreshIntervalSeconds: g.RefreshIntervalSeconds,
		PriceCacheSeconds:      g.PriceCacheSeconds,
		LogLevel:               g.LogLevel,
		LogFile:                g.LogFile,
		PrefsPath:              g.PrefsPath,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
