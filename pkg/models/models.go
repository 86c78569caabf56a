package models

// BalanceResult is the outcome of a single address balance lookup, in coin units.
type BalanceResult struct {
	Address        string  `json:"address"`
	UnspentBalance float64 `json:"unspent_balance"`
}

// PriceData contains the fiat price of one coin.
type PriceData struct {
	Currency string  `json:"currency"`
	Price    float64 `json:"price"`
}

// FetchResult is the joined outcome of one refresh: every checked balance plus the price.
type FetchResult struct {
	Balances []BalanceResult
	Price    PriceData
}

// AggregateResult is the derived total across all checked addresses.
type AggregateResult struct {
	TotalCoins       float64 `json:"total_coins"`
	FiatPricePerCoin float64 `json:"fiat_price_per_coin"`
}

// FiatValue is the fiat worth of the total. It is not stored, callers recompute it per render.
func (a AggregateResult) FiatValue() float64 {
	return a.TotalCoins * a.FiatPricePerCoin
}

// AddressResult holds test results for a single address.
type AddressResult struct {
	Address string  `json:"address"`
	Name    string  `json:"name,omitempty"`
	Checked bool    `json:"checked"`
	Status  string  `json:"status"` // "ok", "error" or "skipped"
	Balance float64 `json:"balance,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// PriceResult holds test results for the price feed.
type PriceResult struct {
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
	Price    float64 `json:"price,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// TestReport holds the results of the configuration test.
type TestReport struct {
	ConfigPath      string          `json:"config_path"`
	ValidStructure  bool            `json:"valid_structure"`
	StructureErrors []string        `json:"structure_errors,omitempty"`
	AddressCount    int             `json:"address_count"`
	CheckedCount    int             `json:"checked_count"`
	Addresses       []AddressResult `json:"addresses,omitempty"`
	Price           *PriceResult    `json:"price,omitempty"`
	TotalCoins      float64         `json:"total_coins"`
}

// Failed reports whether any lookup of the test run failed.
func (r TestReport) Failed() bool {
	for _, a := range r.Addresses {
		if a.Status == "error" {
			return true
		}
	}
	return r.Price != nil && r.Price.Status == "error"
}
