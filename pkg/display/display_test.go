package display

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"xchbal/pkg/fiat"
	"xchbal/pkg/prefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		mode     Mode
		expected string
	}{
		{"simplified rounds", 15.756, Simplified, "15.76 XCH"},
		{"simplified pads", 15.5, Simplified, "15.50 XCH"},
		{"normal full precision", 37.4326060001, Normal, "37.4326060001 XCH"},
		{"normal integer", 3, Normal, "3 XCH"},
		{"detailed", 15.75, Detailed, "15 XCH 750000000000 Mojos"},
		{"detailed sub-coin", 0.000000000001, Detailed, "0 XCH 1 Mojos"},
		{"zero simplified", 0, Simplified, "0 XCH"},
		{"zero normal", 0, Normal, "0 XCH"},
		{"zero detailed", 0, Detailed, "0 XCH"},
		{"nan simplified", math.NaN(), Simplified, "0 XCH"},
		{"nan detailed", math.NaN(), Detailed, "0 XCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.total, tt.mode).String())
		})
	}
}

func TestFormat_ZeroIsNeverDetailed(t *testing.T) {
	d := Format(0, Detailed)
	assert.False(t, d.Detailed())
	assert.Equal(t, Display{Amount: "0", Unit: CoinSymbol}, d)
}

func TestFormat_Idempotent(t *testing.T) {
	for _, m := range []Mode{Simplified, Normal, Detailed} {
		assert.Equal(t, Format(12.345678, m), Format(12.345678, m))
	}
}

func TestSplitBaseUnits(t *testing.T) {
	whole, frac := SplitBaseUnits(15.75)
	assert.Equal(t, uint64(15), whole)
	assert.Equal(t, uint64(750000000000), frac)

	w, f := SplitBaseUnits(-1)
	assert.Zero(t, w)
	assert.Zero(t, f)
}

func TestSplitBaseUnits_RoundTrip(t *testing.T) {
	for _, v := range []float64{0.1, 1, 2.5, 15.75, 37.4326060001, 1234.000000000001, 0.333333333333, 21000000.123456789012} {
		whole, frac := SplitBaseUnits(v)
		assert.Less(t, frac, uint64(1e12), "%v", v)
		got := float64(whole)*1e12 + float64(frac)
		assert.InDelta(t, math.Round(v*1e12), got, math.Max(1, v*1e12*1e-15), "%v", v)
	}
}

func TestCycle(t *testing.T) {
	assert.Equal(t, Normal, Simplified.Cycle())
	assert.Equal(t, Detailed, Normal.Cycle())
	assert.Equal(t, Simplified, Detailed.Cycle())

	for _, m := range []Mode{Simplified, Normal, Detailed} {
		assert.Equal(t, m, m.Cycle().Cycle().Cycle())
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Simplified, Normal, Detailed} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("verbose")
	assert.Error(t, err)
}

func TestMood(t *testing.T) {
	assert.Equal(t, Happy, MoodFor(0.5))
	assert.Equal(t, Sad, MoodFor(0.001))
	assert.Equal(t, Sad, MoodFor(0))
	assert.NotEqual(t, Happy.Face(), Sad.Face())
}

func TestFiatLine(t *testing.T) {
	usd := fiat.Info{Code: "USD", Symbol: "$", Scale: 2}
	assert.Equal(t, "≈ $ 315.00", FiatLine(15.75, 20, usd))
	assert.Equal(t, "", FiatLine(0, 20, usd))
	assert.Equal(t, "", FiatLine(math.NaN(), 20, usd))
}

func TestLoadSaveMode(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))

	m, err := LoadMode(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Simplified, m)

	require.NoError(t, SaveMode(ctx, store, Detailed))
	m, err = LoadMode(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Detailed, m)

	require.NoError(t, store.Set(ctx, ModePreferenceKey, "garbage"))
	m, err = LoadMode(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Simplified, m)
}

type MockStore struct {
	mock.Mock
}

func (s *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := s.Called(key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (s *MockStore) Set(ctx context.Context, key, value string) error {
	return s.Called(key, value).Error(0)
}

func TestLoadMode_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("Get", ModePreferenceKey).Return("", false, errors.New("disk gone"))

	m, err := LoadMode(context.Background(), store)
	assert.Error(t, err)
	assert.Equal(t, Simplified, m)
}

func TestSaveMode_WritesName(t *testing.T) {
	store := new(MockStore)
	store.On("Set", ModePreferenceKey, "normal").Return(nil)

	require.NoError(t, SaveMode(context.Background(), store, Normal))
	store.AssertExpectations(t)
}
