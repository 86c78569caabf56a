package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xchbal/pkg/config"
	"xchbal/pkg/models"

	"golang.org/x/time/rate"
)

const MojosPerXCH = 1e12

var (
	ErrBadStatus     = errors.New("unexpected http status")
	ErrMissingField  = errors.New("response is missing the balance")
	ErrMissingPrice  = errors.New("response is missing the price")
	ErrEmptyCurrency = errors.New("currency code is empty")
)

// Client performs balance lookups against xchscan and price lookups against CoinGecko.
type Client struct {
	balanceURL string
	priceURL   string
	coinID     string
	userAgent  string
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client from the global settings. A non-positive rate disables limiting.
func NewClient(g config.GlobalConfig, userAgent string) *Client {
	timeout := time.Duration(g.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if g.RateLimitPerSecond > 0 {
		burst := g.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(g.RateLimitPerSecond), burst)
	}
	coinID := g.CoinID
	if coinID == "" {
		coinID = "chia"
	}
	return &Client{
		balanceURL: strings.TrimRight(g.BalanceAPIURL, "/"),
		priceURL:   strings.TrimRight(g.PriceAPIURL, "/"),
		coinID:     coinID,
		userAgent:  userAgent,
		http:       &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

type balanceResp struct {
	UnspentBalance *float64 `json:"unspentBalance"`
	XCH            *float64 `json:"xch"`
	Mojo           *float64 `json:"mojo"`
}

// FetchBalance returns the unspent balance of address in XCH.
func (c *Client) FetchBalance(ctx context.Context, address string) (models.BalanceResult, error) {
	q := url.Values{}
	q.Set("address", address)
	u := fmt.Sprintf("%s/account/balance?%s", c.balanceURL, q.Encode())

	var resp balanceResp
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return models.BalanceResult{}, fmt.Errorf("balance %s: %w", address, err)
	}

	var bal float64
	switch {
	case resp.UnspentBalance != nil:
		bal = *resp.UnspentBalance
	case resp.XCH != nil:
		bal = *resp.XCH
	case resp.Mojo != nil:
		bal = *resp.Mojo / MojosPerXCH
	default:
		return models.BalanceResult{}, fmt.Errorf("balance %s: %w", address, ErrMissingField)
	}
	return models.BalanceResult{Address: address, UnspentBalance: bal}, nil
}

// FetchPrice returns the price of one coin in the given fiat currency.
func (c *Client) FetchPrice(ctx context.Context, currency string) (models.PriceData, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return models.PriceData{}, ErrEmptyCurrency
	}
	q := url.Values{}
	q.Set("ids", c.coinID)
	q.Set("vs_currencies", currency)
	u := fmt.Sprintf("%s/simple/price?%s", c.priceURL, q.Encode())

	var result map[string]map[string]float64
	if err := c.getJSON(ctx, u, &result); err != nil {
		return models.PriceData{}, fmt.Errorf("price %s: %w", currency, err)
	}
	price, ok := result[c.coinID][currency]
	if !ok {
		return models.PriceData{}, fmt.Errorf("price %s: %w", currency, ErrMissingPrice)
	}
	return models.PriceData{Currency: currency, Price: price}, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
