package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"xchbal/pkg/config"
	"xchbal/pkg/metrics"
	"xchbal/pkg/models"
	"xchbal/pkg/screen"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrFetchFailure wraps any balance or price lookup failure of a refresh.
var ErrFetchFailure = errors.New("fetch failed")

// DataSource defines the interface for fetching data.
type DataSource interface {
	FetchBalance(ctx context.Context, address string) (models.BalanceResult, error)
	FetchPrice(ctx context.Context, currency string) (models.PriceData, error)
}

// Watcher drives the screen controller: it applies triggers, runs the joined fetch,
// and broadcasts the resulting snapshots to subscribers.
type Watcher struct {
	config    config.GlobalConfig
	addresses []config.AddressConfig
	currency  string

	ctrl       *screen.Controller
	dataSource DataSource
	metrics    *metrics.Metrics
	log        *zap.Logger

	subscribers []Subscriber
	mu          sync.RWMutex
	subMu       sync.RWMutex
	stopOnce    sync.Once
	stopChan    chan struct{}
}

// NewWatcher creates a new Watcher instance. A nil metrics gets an unregistered set.
func NewWatcher(addresses []config.AddressConfig, currency string, globalCfg config.GlobalConfig, ds DataSource, m *metrics.Metrics, log *zap.Logger) *Watcher {
	if m == nil {
		m = metrics.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		config:     globalCfg,
		addresses:  append([]config.AddressConfig(nil), addresses...),
		currency:   strings.ToLower(currency),
		ctrl:       screen.NewController(),
		dataSource: ds,
		metrics:    m,
		log:        log,
		stopChan:   make(chan struct{}),
	}
}

// SetDataSource allows overriding the data source (useful for testing).
func (w *Watcher) SetDataSource(ds DataSource) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dataSource = ds
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (w *Watcher) Subscribe() Subscriber {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	ch := make(Subscriber, 100)
	w.subscribers = append(w.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (w *Watcher) Unsubscribe(ch Subscriber) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	for i, sub := range w.subscribers {
		if sub == ch {
			w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (w *Watcher) notify(event Event) {
	w.subMu.RLock()
	defer w.subMu.RUnlock()
	for _, sub := range w.subscribers {
		select {
		case sub <- event:
		default:
			w.log.Warn("dropping event for slow subscriber", zap.String("type", string(event.Type)))
		}
	}
}

// Start mounts the screen and, when an interval is configured, keeps refreshing it.
// It returns immediately.
func (w *Watcher) Start(ctx context.Context) {
	go w.pollingLoop(ctx)
}

// Stop stops the polling loop and cancels any in-flight fetch.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		w.ctrl.Close()
		w.mu.Unlock()
	})
}

func (w *Watcher) pollingLoop(ctx context.Context) {
	w.trigger(ctx, screen.Mount)

	if w.config.RefreshIntervalSeconds <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(w.config.RefreshIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.trigger(ctx, screen.ManualRefresh)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Refresh re-fetches while the last state stays visible. It reports false when there is
// nothing checked to refresh. It blocks until the fetch resolves.
func (w *Watcher) Refresh(ctx context.Context) bool {
	return w.trigger(ctx, screen.ManualRefresh)
}

// SetAddresses replaces the address list and restarts the cycle. It blocks until the fetch
// resolves.
func (w *Watcher) SetAddresses(ctx context.Context, addresses []config.AddressConfig) {
	w.StageAddresses(ctx, addresses).Run()
}

// SetCurrency switches the fiat currency and restarts the cycle. It blocks until the fetch
// resolves.
func (w *Watcher) SetCurrency(ctx context.Context, currency string) {
	w.StageCurrency(ctx, currency).Run()
}

// StageRefresh accepts a manual refresh without fetching. Run the returned Pending to fetch.
// It returns nil when nothing is checked.
func (w *Watcher) StageRefresh(ctx context.Context) *Pending {
	return w.begin(ctx, screen.ManualRefresh, nil)
}

// StageAddresses replaces the address list and moves the screen to its next state without
// fetching. Stages apply in call order, so the last call always wins whatever order the
// returned fetches run in. It returns nil when no fetch is needed.
func (w *Watcher) StageAddresses(ctx context.Context, addresses []config.AddressConfig) *Pending {
	addrs := append([]config.AddressConfig(nil), addresses...)
	return w.begin(ctx, screen.AddressesChanged, func() {
		w.addresses = addrs
	})
}

// StageCurrency is StageAddresses for the fiat currency.
func (w *Watcher) StageCurrency(ctx context.Context, currency string) *Pending {
	cur := strings.ToLower(strings.TrimSpace(currency))
	return w.begin(ctx, screen.CurrencyChanged, func() {
		w.currency = cur
	})
}

// Snapshot returns the current screen state.
func (w *Watcher) Snapshot() screen.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ctrl.Snapshot()
}

// GetAddresses returns a copy of the address list.
func (w *Watcher) GetAddresses() []config.AddressConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]config.AddressConfig(nil), w.addresses...)
}

// Currency returns the selected currency code.
func (w *Watcher) Currency() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currency
}

// Pending is an accepted trigger whose fetch has not run yet.
type Pending struct {
	w   *Watcher
	t   screen.Trigger
	req screen.Request
	ds  DataSource
}

// ID is the request id the fetch completes under.
func (p *Pending) ID() uint64 {
	if p == nil {
		return 0
	}
	return p.req.ID
}

func (w *Watcher) trigger(ctx context.Context, t screen.Trigger) bool {
	p := w.begin(ctx, t, nil)
	if p == nil {
		return false
	}
	p.Run()
	return true
}

// begin applies mutate and the trigger under one lock and publishes the new state.
func (w *Watcher) begin(ctx context.Context, t screen.Trigger, mutate func()) *Pending {
	w.mu.Lock()
	if mutate != nil {
		mutate()
	}
	checked := config.CheckedAddresses(w.addresses)
	req, ok := w.ctrl.Begin(ctx, t, checked, w.currency)
	snap := w.ctrl.Snapshot()
	ds := w.dataSource
	w.mu.Unlock()

	if !ok {
		if t == screen.ManualRefresh {
			w.metrics.Refreshes.WithLabelValues(t.String(), "ignored").Inc()
			w.log.Debug("refresh ignored, no checked addresses")
			w.notify(Event{Type: EventRefreshIgnored, Data: snap})
			return nil
		}
		w.metrics.Refreshes.WithLabelValues(t.String(), "no_addresses").Inc()
		w.metrics.TotalCoins.Set(0)
		w.notify(Event{Type: EventStateChanged, Data: snap})
		return nil
	}
	w.notify(Event{Type: EventStateChanged, Data: snap})
	return &Pending{w: w, t: t, req: req, ds: ds}
}

// Run fetches and completes the request. A nil Pending does nothing.
func (p *Pending) Run() {
	if p == nil {
		return
	}
	w, t, req := p.w, p.t, p.req

	start := time.Now()
	res, err := w.fetchAll(req.Ctx, p.ds, req.Addresses, req.Currency)
	w.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	w.mu.Lock()
	applied := w.ctrl.Complete(req.ID, res, err)
	snap := w.ctrl.Snapshot()
	w.mu.Unlock()

	if !applied {
		w.metrics.StaleResponses.Inc()
		w.log.Debug("discarding stale fetch result", zap.Uint64("request_id", req.ID), zap.String("trigger", t.String()))
		w.notify(Event{Type: EventStaleDiscarded, Data: req.ID})
		return
	}

	if err != nil {
		w.metrics.Refreshes.WithLabelValues(t.String(), "error").Inc()
		w.log.Warn("refresh failed", zap.String("trigger", t.String()), zap.Uint64("request_id", req.ID), zap.Error(err))
	} else {
		w.metrics.Refreshes.WithLabelValues(t.String(), "success").Inc()
		w.metrics.TotalCoins.Set(snap.Aggregate.TotalCoins)
		w.metrics.FiatValue.WithLabelValues(snap.Currency).Set(snap.Aggregate.FiatValue())
		w.log.Info("refresh succeeded",
			zap.String("trigger", t.String()),
			zap.Uint64("request_id", req.ID),
			zap.Int("addresses", len(req.Addresses)),
			zap.Float64("total_coins", snap.Aggregate.TotalCoins),
		)
	}
	w.notify(Event{Type: EventStateChanged, Data: snap})
}

// fetchAll issues every balance lookup and the price lookup concurrently and joins them.
// The first failure cancels the rest and fails the whole batch.
func (w *Watcher) fetchAll(ctx context.Context, ds DataSource, addresses []string, currency string) (models.FetchResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	if w.config.MaxConcurrentFetches > 0 {
		g.SetLimit(w.config.MaxConcurrentFetches)
	}

	balances := make([]models.BalanceResult, len(addresses))
	var price models.PriceData

	g.Go(func() error {
		p, err := ds.FetchPrice(gctx, currency)
		if err != nil {
			w.countFailure("price", err)
			return fmt.Errorf("price %s: %w", currency, err)
		}
		price = p
		return nil
	})
	for i, addr := range addresses {
		g.Go(func() error {
			b, err := ds.FetchBalance(gctx, addr)
			if err != nil {
				w.countFailure("balance", err)
				return fmt.Errorf("balance %s: %w", addr, err)
			}
			balances[i] = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.FetchResult{}, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}
	return models.FetchResult{Balances: balances, Price: price}, nil
}

// countFailure skips cancellations, which come from a superseded request or a failed sibling.
func (w *Watcher) countFailure(kind string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	w.metrics.FetchFailures.WithLabelValues(kind).Inc()
}
