package fa

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/fa/date"
	"github.com/shopspring/decimal"
)

// fakeMarket is an in-memory MarketDataProvider counting its calls.
type fakeMarket struct {
	closes   map[string]map[date.Date]decimal.Decimal
	highLows map[string]map[date.Date]HighLow
	profiles map[string]CompanyInfo
	failing  map[date.Date]error // Close and HighLow fail on these days
	calls    int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		closes:   make(map[string]map[date.Date]decimal.Decimal),
		highLows: make(map[string]map[date.Date]HighLow),
		profiles: make(map[string]CompanyInfo),
		failing:  make(map[date.Date]error),
	}
}

func (m *fakeMarket) setClose(symbol, day string, price float64) {
	if m.closes[symbol] == nil {
		m.closes[symbol] = make(map[date.Date]decimal.Decimal)
	}
	m.closes[symbol][date.MustParse(day)] = decimal.NewFromFloat(price)
}

func (m *fakeMarket) Close(ctx context.Context, symbol string, day date.Date) (decimal.Decimal, bool, error) {
	m.calls++
	if err := m.failing[day]; err != nil {
		return decimal.Decimal{}, false, err
	}
	p, ok := m.closes[symbol][day]
	return p, ok, nil
}

func (m *fakeMarket) HighLow(ctx context.Context, symbol string, day date.Date) (HighLow, bool, error) {
	m.calls++
	if err := m.failing[day]; err != nil {
		return HighLow{}, false, err
	}
	hl, ok := m.highLows[symbol][day]
	return hl, ok, nil
}

func (m *fakeMarket) Profile(ctx context.Context, symbol string) (CompanyInfo, bool, error) {
	m.calls++
	info, ok := m.profiles[symbol]
	return info, ok, nil
}

// fakeRates is a RateProvider that fails when err is set.
type fakeRates struct {
	rates map[date.Date]decimal.Decimal
	err   error
	calls int
}

func (f *fakeRates) Rate(ctx context.Context, day date.Date) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Decimal{}, f.err
	}
	r, ok := f.rates[day]
	if !ok {
		return decimal.Decimal{}, errors.New("no rate")
	}
	return r, nil
}

func d(s string) date.Date { return date.MustParse(s) }

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func decPtr(f float64) *decimal.Decimal {
	v := dec(f)
	return &v
}

// fillPrices caches price for symbol on every day of r, weekends included as
// ResolvePrice stores them.
func fillPrices(c *Cache, symbol string, r date.Range, price float64) {
	for day := range r.Days() {
		c.stock(symbol, true).prices[day] = dec(price)
	}
}

func assertMoney(t *testing.T, name string, got Money, want int64) {
	t.Helper()
	if got.Whole() != want {
		t.Errorf("%s = %v (%s), want %d", name, got.Whole(), got.Value(), want)
	}
}
