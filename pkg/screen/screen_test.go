package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"xchbal/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okResult() models.FetchResult {
	return models.FetchResult{
		Balances: []models.BalanceResult{
			{Address: "xch1a", UnspentBalance: 10.5},
			{Address: "xch1b", UnspentBalance: 5.25},
		},
		Price: models.PriceData{Currency: "usd", Price: 20},
	}
}

func TestInitialState(t *testing.T) {
	c := NewController()
	snap := c.Snapshot()
	assert.Equal(t, Loading, snap.State)
	assert.Equal(t, MsgLoading, snap.Message)
}

func TestBegin_NoCheckedAddresses(t *testing.T) {
	for _, trig := range []Trigger{Mount, AddressesChanged, CurrencyChanged} {
		c := NewController()
		_, ok := c.Begin(context.Background(), trig, nil, "usd")
		assert.False(t, ok, trig.String())
		assert.Equal(t, NoAddresses, c.Snapshot().State, trig.String())
		assert.Equal(t, MsgNoAddresses, c.Snapshot().Message)
	}
}

func TestBeginComplete_Success(t *testing.T) {
	c := NewController()
	req, ok := c.Begin(context.Background(), Mount, []string{"xch1a", "xch1b"}, "usd")
	require.True(t, ok)
	assert.Equal(t, Loading, c.Snapshot().State)
	assert.Equal(t, []string{"xch1a", "xch1b"}, req.Addresses)
	assert.Equal(t, 2, c.Snapshot().CheckedCount)

	assert.True(t, c.Complete(req.ID, okResult(), nil))

	snap := c.Snapshot()
	assert.Equal(t, Success, snap.State)
	assert.Equal(t, 15.75, snap.Aggregate.TotalCoins)
	assert.Equal(t, 315.0, snap.Aggregate.FiatValue())
	assert.Equal(t, "usd", snap.Currency)
	assert.Empty(t, snap.Message)
	assert.Error(t, req.Ctx.Err(), "completed request context is released")
}

func TestComplete_Error(t *testing.T) {
	c := NewController()
	req, _ := c.Begin(context.Background(), Mount, []string{"xch1a"}, "usd")

	assert.True(t, c.Complete(req.ID, models.FetchResult{}, errors.New("boom")))
	assert.Equal(t, Error, c.Snapshot().State)
	assert.Equal(t, MsgError, c.Snapshot().Message)
}

func TestManualRefresh_KeepsLastState(t *testing.T) {
	c := NewController()
	req, _ := c.Begin(context.Background(), Mount, []string{"xch1a"}, "usd")
	c.Complete(req.ID, okResult(), nil)

	req2, ok := c.Begin(context.Background(), ManualRefresh, []string{"xch1a"}, "usd")
	require.True(t, ok)
	snap := c.Snapshot()
	assert.Equal(t, Success, snap.State)
	assert.True(t, snap.Refreshing)
	assert.Equal(t, 15.75, snap.Aggregate.TotalCoins)

	c.Complete(req2.ID, models.FetchResult{}, errors.New("offline"))
	snap = c.Snapshot()
	assert.Equal(t, Error, snap.State)
	assert.False(t, snap.Refreshing)
	// A failed refresh abandons the previous total.
	assert.Equal(t, models.AggregateResult{}, snap.Aggregate)
	assert.Equal(t, 0.0, snap.Aggregate.FiatValue())
}

func TestManualRefresh_IgnoredWithoutAddresses(t *testing.T) {
	c := NewController()
	req, _ := c.Begin(context.Background(), Mount, []string{"xch1a"}, "usd")
	c.Complete(req.ID, okResult(), nil)
	before := c.Snapshot()

	_, ok := c.Begin(context.Background(), ManualRefresh, nil, "usd")
	assert.False(t, ok)
	assert.Equal(t, before, c.Snapshot())
}

func TestStaleCompletionDiscarded(t *testing.T) {
	c := NewController()
	first, _ := c.Begin(context.Background(), Mount, []string{"xch1a"}, "usd")
	second, _ := c.Begin(context.Background(), CurrencyChanged, []string{"xch1a"}, "eur")

	assert.Error(t, first.Ctx.Err(), "superseded request is cancelled")
	assert.NoError(t, second.Ctx.Err())
	assert.Greater(t, second.ID, first.ID)

	eur := models.FetchResult{
		Balances: []models.BalanceResult{{UnspentBalance: 1}},
		Price:    models.PriceData{Currency: "eur", Price: 18},
	}
	assert.True(t, c.Complete(second.ID, eur, nil))
	assert.False(t, c.Complete(first.ID, okResult(), nil))

	snap := c.Snapshot()
	assert.Equal(t, "eur", snap.Currency)
	assert.Equal(t, 1.0, snap.Aggregate.TotalCoins)
}

func TestNoAddressesInvalidatesInFlight(t *testing.T) {
	c := NewController()
	req, _ := c.Begin(context.Background(), Mount, []string{"xch1a"}, "usd")
	_, ok := c.Begin(context.Background(), AddressesChanged, nil, "usd")
	assert.False(t, ok)

	assert.False(t, c.Complete(req.ID, okResult(), nil))
	assert.Equal(t, NoAddresses, c.Snapshot().State)
}

func TestCompleteTwiceIgnored(t *testing.T) {
	c := NewController()
	req, _ := c.Begin(context.Background(), Mount, []string{"xch1a"}, "usd")
	assert.True(t, c.Complete(req.ID, okResult(), nil))
	assert.False(t, c.Complete(req.ID, models.FetchResult{}, errors.New("late")))
	assert.Equal(t, Success, c.Snapshot().State)
}

func TestClose(t *testing.T) {
	c := NewController()
	req, _ := c.Begin(context.Background(), Mount, []string{"xch1a"}, "usd")
	c.Close()
	assert.Error(t, req.Ctx.Err())
	assert.False(t, c.Complete(req.ID, okResult(), nil))
}

func TestUpdatedAt(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewController()
	c.now = func() time.Time { return fixed }

	req, _ := c.Begin(context.Background(), Mount, []string{"xch1a"}, "usd")
	c.Complete(req.ID, okResult(), nil)
	assert.Equal(t, fixed, c.Snapshot().UpdatedAt)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "no_addresses", NoAddresses.String())
	assert.Equal(t, "manual_refresh", ManualRefresh.String())
	b, err := Success.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "success", string(b))
}
