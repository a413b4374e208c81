package fa

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/fa/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// InitialBasis selects the number of shares an initial value is computed on.
type InitialBasis string

const (
	// BasisRemaining values the shares still held after every sale.
	BasisRemaining InitialBasis = "remaining"
	// BasisVested values every vested share.
	BasisVested InitialBasis = "vested"
)

// ParseInitialBasis parses a basis name, the empty string meaning BasisRemaining.
func ParseInitialBasis(s string) (InitialBasis, error) {
	switch InitialBasis(s) {
	case "", BasisRemaining:
		return BasisRemaining, nil
	case BasisVested:
		return BasisVested, nil
	}
	return "", fmt.Errorf("unknown initial value basis %q, want %q or %q", s, BasisRemaining, BasisVested)
}

// minCoverage is the share of weekdays of a peak window that must be cached
// before the window is scanned without prefetching it.
var minCoverage = decimal.NewFromFloat(0.8)

// Row is the valuation of one lot for a year.
type Row struct {
	Symbol   string
	VestDate date.Date // also the date of acquiring the interest
	Company  CompanyInfo

	Vested    int64
	Remaining int64

	Initial  Money
	Peak     Money
	Closing  Money
	Paid     Money
	Proceeds Money

	PeakDate date.Date
}

// Peak is the day a lot reached its highest value during a year.
type Peak struct {
	Date  date.Date
	Price decimal.Decimal // in USD
	Held  int64
	Rate  decimal.Decimal
}

// Value returns the INR value of the holding on the peak day.
func (p Peak) Value() Money { return M(p.Price, USD).Shares(p.Held).Convert(p.Rate, INR) }

// Engine values lots for a tax year.
type Engine struct {
	Resolver     *Resolver
	Year         int
	AllowFetch   bool
	InitialBasis InitialBasis
}

// Window returns the days of the year the lot is held from.
func (e *Engine) Window(l Lot) date.Range {
	return date.Range{From: date.Max(l.VestDate, date.StartOfYear(e.Year)), To: date.EndOfYear(e.Year)}
}

// ComputeRow values a lot.
//
// Every input is resolved before failing, so that a *MissingDataError lists
// all the missing ones at once. A window without any priced day with shares
// held returns an error wrapping ErrNoPeak.
func (e *Engine) ComputeRow(ctx context.Context, l Lot) (Row, error) {
	r := e.Resolver
	yearEnd := date.EndOfYear(e.Year)

	var missing []string
	var errs []error
	check := func(field string, err error) {
		if err != nil {
			missing = append(missing, field)
			errs = append(errs, err)
		}
	}

	var acquisition decimal.Decimal
	if l.VestPrice != nil {
		acquisition = *l.VestPrice
	} else {
		var err error
		acquisition, err = r.ResolvePrice(ctx, l.Symbol, l.VestDate, e.AllowFetch)
		check("purchase price on "+l.VestDate.String(), err)
	}
	// The opening price is not part of the row, but a lot that cannot be
	// priced on Jan 1 is not trusted to be priced correctly at all.
	_, err := r.ResolvePrice(ctx, l.Symbol, date.StartOfYear(e.Year), e.AllowFetch)
	check(fmt.Sprintf("price on %d-01-01", e.Year), err)
	closePrice, err := r.ResolvePrice(ctx, l.Symbol, yearEnd, e.AllowFetch)
	check("price on "+yearEnd.String(), err)
	vestRate, err := r.ResolveRate(ctx, l.VestDate, e.AllowFetch)
	check("exchange rate on "+l.VestDate.String(), err)
	closeRate, err := r.ResolveRate(ctx, yearEnd, e.AllowFetch)
	check("exchange rate on "+yearEnd.String(), err)

	peak, err := e.Peak(ctx, l)
	if err != nil {
		if errors.Is(err, ErrNoPeak) && len(missing) == 0 {
			return Row{}, err
		}
		missing = append(missing, "peak value")
		errs = append(errs, err)
	}

	if len(missing) > 0 {
		return Row{}, &MissingDataError{Symbol: l.Symbol, VestDate: l.VestDate, Fields: missing, Err: errors.Join(errs...)}
	}

	basis := l.Remaining()
	if e.InitialBasis == BasisVested {
		basis = l.Shares
	}

	row := Row{
		Symbol:    l.Symbol,
		VestDate:  l.VestDate,
		Company:   r.ResolveCompany(ctx, l.Symbol, e.AllowFetch),
		Vested:    l.Shares,
		Remaining: l.Remaining(),
		Initial:   M(acquisition, USD).Shares(basis).Convert(vestRate, INR),
		Peak:      peak.Value(),
		Closing:   M(closePrice, USD).Shares(l.Remaining()).Convert(closeRate, INR),
		Paid:      M(0, INR),
		Proceeds:  M(l.ProceedsIn(e.Year), INR),
		PeakDate:  peak.Date,
	}
	log.Debug().Str("symbol", l.Symbol).Str("vest_date", l.VestDate.String()).
		Str("initial", row.Initial.String()).Str("peak", row.Peak.String()).Str("peak_date", peak.Date.String()).
		Str("closing", row.Closing.String()).Str("proceeds", row.Proceeds.String()).Msg("lot valued")
	return row, nil
}

// Peak finds the day of the lot window with the highest USD value of the
// shares held that day, and converts it with that day's rate.
//
// The window is prefetched first when less than 80% of its weekdays are
// cached. Every cached weekday of the window is then considered, earliest wins
// on ties.
func (e *Engine) Peak(ctx context.Context, l Lot) (Peak, error) {
	r := e.Resolver
	window := e.Window(l)
	if window.Empty() {
		return Peak{}, fmt.Errorf("%s: vested after %d: %w", l, e.Year, ErrNoPeak)
	}

	expected := window.CountWeekdays()
	cached := r.Cache().CachedWeekdays(l.Symbol, window)
	if decimal.NewFromInt(int64(cached)).LessThan(minCoverage.Mul(decimal.NewFromInt(int64(expected)))) {
		if e.AllowFetch {
			log.Info().Str("symbol", l.Symbol).Str("window", window.String()).Int("cached", cached).Int("expected", expected).Msg("prefetching peak window")
			r.Prefetch(ctx, l.Symbol, window)
		} else {
			log.Warn().Str("symbol", l.Symbol).Str("window", window.String()).Int("cached", cached).Int("expected", expected).Msg("peak window is partially cached, peak may be underestimated")
		}
	}

	var best Peak
	var bestValue decimal.Decimal
	found := false
	for _, d := range r.Cache().PricedDays(l.Symbol, window) {
		// weekend entries carry the close of an earlier day, possibly out of the window
		if d.IsWeekend() {
			continue
		}
		held := l.HeldOn(d)
		if held == 0 {
			continue
		}
		price, _ := r.Cache().Price(l.Symbol, d)
		value := price.Mul(decimal.NewFromInt(held))
		if !found || value.GreaterThan(bestValue) {
			best, bestValue, found = Peak{Date: d, Price: price, Held: held}, value, true
		}
	}
	if !found {
		return Peak{}, fmt.Errorf("%s: no priced day with shares held in %s: %w", l, window, ErrNoPeak)
	}

	rate, err := r.ResolveRate(ctx, best.Date, e.AllowFetch)
	if err != nil {
		return Peak{}, fmt.Errorf("%s: peak on %s: %w", l, best.Date, err)
	}
	best.Rate = rate
	return best, nil
}
