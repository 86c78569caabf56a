// Package screen holds the balance screen state machine.
//
// Every accepted trigger is stamped with a monotonically increasing request id and
// cancels the request it supersedes. Completions carrying an older id are discarded,
// so a slow response can never overwrite a newer one.
package screen

import (
	"context"
	"fmt"
	"time"

	"xchbal/pkg/aggregate"
	"xchbal/pkg/models"
)

// State is the screen's display state.
type State int

const (
	Loading State = iota
	Success
	Error
	NoAddresses
)

const (
	MsgLoading     = "Harvesting Chia ..."
	MsgError       = "Could not fetch data."
	MsgNoAddresses = "No Chia Address added."
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	case NoAddresses:
		return "no_addresses"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Message is the user-visible text for non-success states.
func (s State) Message() string {
	switch s {
	case Loading:
		return MsgLoading
	case Error:
		return MsgError
	case NoAddresses:
		return MsgNoAddresses
	case Success:
		return ""
	default:
		return ""
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Trigger is the event that started a refresh cycle.
type Trigger int

const (
	Mount Trigger = iota
	AddressesChanged
	CurrencyChanged
	ManualRefresh
)

func (t Trigger) String() string {
	switch t {
	case Mount:
		return "mount"
	case AddressesChanged:
		return "addresses_changed"
	case CurrencyChanged:
		return "currency_changed"
	case ManualRefresh:
		return "manual_refresh"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

// Request is a fetch the caller must perform and then hand back to Complete.
type Request struct {
	ID        uint64
	Trigger   Trigger
	Addresses []string
	Currency  string
	Ctx       context.Context
}

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	State        State                  `json:"state"`
	Message      string                 `json:"message,omitempty"`
	Aggregate    models.AggregateResult `json:"aggregate"`
	Currency     string                 `json:"currency"`
	Refreshing   bool                   `json:"refreshing"`
	RequestID    uint64                 `json:"request_id"`
	CheckedCount int                    `json:"checked_count"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Controller is not safe for concurrent use; callers serialise access.
type Controller struct {
	state        State
	agg          models.AggregateResult
	currency     string
	refreshing   bool
	checkedCount int
	updatedAt    time.Time

	seq    uint64
	cancel context.CancelFunc
	now    func() time.Time
}

func NewController() *Controller {
	return &Controller{state: Loading, now: time.Now}
}

// Begin applies a trigger. It returns a Request and true when a fetch must be issued.
//
// Mount, address and currency triggers go to NoAddresses when nothing is checked and to
// Loading otherwise. A manual refresh with nothing checked is ignored; otherwise the last
// state stays visible with Refreshing set until the fetch resolves.
func (c *Controller) Begin(ctx context.Context, t Trigger, checked []string, currency string) (Request, bool) {
	if t == ManualRefresh && len(checked) == 0 {
		return Request{}, false
	}

	c.supersede()
	c.checkedCount = len(checked)
	c.currency = currency

	if len(checked) == 0 {
		c.state = NoAddresses
		c.agg = models.AggregateResult{}
		c.refreshing = false
		c.updatedAt = c.now()
		return Request{}, false
	}

	switch t {
	case ManualRefresh:
		c.refreshing = true
	case Mount, AddressesChanged, CurrencyChanged:
		c.state = Loading
		c.refreshing = false
	default:
		panic(fmt.Sprintf("screen: unhandled trigger %v", t))
	}

	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return Request{
		ID:        c.seq,
		Trigger:   t,
		Addresses: append([]string(nil), checked...),
		Currency:  currency,
		Ctx:       reqCtx,
	}, true
}

// Complete applies the outcome of request id. It reports false, leaving state untouched,
// when the request has been superseded.
func (c *Controller) Complete(id uint64, res models.FetchResult, err error) bool {
	if id != c.seq || c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	c.refreshing = false
	c.updatedAt = c.now()

	if err != nil {
		c.state = Error
		c.agg = models.AggregateResult{}
		return true
	}
	c.state = Success
	c.agg = aggregate.Aggregate(res.Balances, res.Price.Price)
	if res.Price.Currency != "" {
		c.currency = res.Price.Currency
	}
	return true
}

// Latest is the id of the most recent request, accepted or not.
func (c *Controller) Latest() uint64 {
	return c.seq
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:        c.state,
		Message:      c.state.Message(),
		Aggregate:    c.agg,
		Currency:     c.currency,
		Refreshing:   c.refreshing,
		RequestID:    c.seq,
		CheckedCount: c.checkedCount,
		UpdatedAt:    c.updatedAt,
	}
}

// Close cancels any in-flight request.
func (c *Controller) Close() {
	c.supersede()
}

func (c *Controller) supersede() {
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
