package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"xchbal/pkg/config"
	"xchbal/pkg/metrics"
	"xchbal/pkg/models"
	"xchbal/pkg/watcher"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct{}

func (staticSource) FetchBalance(ctx context.Context, address string) (models.BalanceResult, error) {
	return models.BalanceResult{Address: address, UnspentBalance: 10.5}, nil
}

func (staticSource) FetchPrice(ctx context.Context, currency string) (models.PriceData, error) {
	return models.PriceData{Currency: currency, Price: 20}, nil
}

func newTestServer(addrs []config.AddressConfig) (*Server, *watcher.Watcher) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	w := watcher.NewWatcher(addrs, "usd", config.DefaultGlobalConfig(), staticSource{}, m, nil)
	return NewServer(w, reg, nil), w
}

func TestHandleStatus(t *testing.T) {
	s, w := newTestServer([]config.AddressConfig{{Address: "xch1a", Checked: true}})
	w.SetCurrency(context.Background(), "usd")

	req, _ := http.NewRequest("GET", "/api/status", nil)
	rr := httptest.NewRecorder()

	s.mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Contains(t, resp, "snapshot")
	assert.Equal(t, "usd", resp["currency"])
	assert.Equal(t, 210.0, resp["fiat_value"])

	snap := resp["snapshot"].(map[string]interface{})
	assert.Equal(t, "success", snap["state"])
}

func TestHandleRefresh(t *testing.T) {
	s, _ := newTestServer(nil)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/refresh", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/refresh", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)

	s2, _ := newTestServer([]config.AddressConfig{{Address: "xch1a", Checked: true}})
	rr = httptest.NewRecorder()
	s2.mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/refresh", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestHandleMetrics(t *testing.T) {
	s, w := newTestServer([]config.AddressConfig{{Address: "xch1a", Checked: true}})
	w.SetCurrency(context.Background(), "usd")

	srv := httptest.NewServer(s.mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "xchbal_total_coins 10.5")
	assert.Contains(t, string(body), `xchbal_refreshes_total{outcome="success",trigger="currency_changed"} 1`)
}

func TestHandleWS(t *testing.T) {
	s, _ := newTestServer(nil)
	server := httptest.NewServer(s.mux)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	// Read initial state
	var msg map[string]interface{}
	err = ws.ReadJSON(&msg)
	assert.NoError(t, err)
	assert.Equal(t, "initial", msg["type"])
}

func TestBroadcast(t *testing.T) {
	s, w := newTestServer([]config.AddressConfig{{Address: "xch1a", Checked: true}})
	go s.listenToWatcher()

	server := httptest.NewServer(s.mux)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	var initial map[string]interface{}
	require.NoError(t, ws.ReadJSON(&initial))

	// Wait for the listener to subscribe before triggering.
	time.Sleep(50 * time.Millisecond)
	w.SetCurrency(context.Background(), "usd")

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev map[string]interface{}
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, string(watcher.EventStateChanged), ev["type"])
}
