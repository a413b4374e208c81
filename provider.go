package fa

import (
	"context"

	"github.com/etnz/fa/date"
	"github.com/shopspring/decimal"
)

// HighLow holds the trading range of a security for one day.
type HighLow struct {
	Low  decimal.Decimal
	High decimal.Decimal
}

// Contains reports whether price is within the day's range, boundaries included.
func (h HighLow) Contains(price decimal.Decimal) bool {
	return !price.LessThan(h.Low) && !price.GreaterThan(h.High)
}

// CompanyInfo describes the entity that issued a security, as reported in the schedule.
type CompanyInfo struct {
	Country string `json:"country"`
	Name    string `json:"name"`
	Address string `json:"address"`
	ZipCode string `json:"zip_code"`
	Nature  string `json:"nature"`
}

// MarketDataProvider is the remote source of security facts.
//
// Each method returns ok=false when the provider has no value for the request
// (non trading day, unknown symbol, rate limited). err is reserved for
// transport and decoding failures; the Resolver treats both as a miss.
type MarketDataProvider interface {
	// Close returns the closing price of symbol on day, in the market currency.
	Close(ctx context.Context, symbol string, day date.Date) (price decimal.Decimal, ok bool, err error)
	// HighLow returns the trading range of symbol on day.
	HighLow(ctx context.Context, symbol string, day date.Date) (hl HighLow, ok bool, err error)
	// Profile returns the issuer description of symbol.
	Profile(ctx context.Context, symbol string) (info CompanyInfo, ok bool, err error)
}

// RateProvider is the remote source of USD to INR exchange rates.
type RateProvider interface {
	// Rate returns the rate published for day, or the closest earlier one the
	// provider accepts as a substitute.
	Rate(ctx context.Context, day date.Date) (decimal.Decimal, error)
}
