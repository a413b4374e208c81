package fa

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/fa/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// Lot is a vest lot with the sales that were taken from it, in sell date order.
type Lot struct {
	VestLot
	Sales []SaleRecord
}

// Sold returns the total number of shares sold from the lot, any year.
func (l Lot) Sold() (n int64) {
	for _, s := range l.Sales {
		n += s.Shares
	}
	return n
}

// Remaining returns the number of shares still held after every sale.
func (l Lot) Remaining() int64 { return l.Shares - l.Sold() }

// HeldOn returns the number of shares held at the end of day: sales on day are
// already gone.
func (l Lot) HeldOn(day date.Date) int64 {
	held := l.Shares
	for _, s := range l.Sales {
		if !s.SellDate.After(day) {
			held -= s.Shares
		}
	}
	return max(held, 0)
}

// ProceedsIn sums the proceeds of the sales made during year.
func (l Lot) ProceedsIn(year int) decimal.Decimal {
	total := decimal.Zero
	for _, s := range l.Sales {
		if s.SellDate.Year() == year {
			total = total.Add(s.Proceeds)
		}
	}
	return total
}

func (l Lot) String() string { return fmt.Sprintf("%s %s", l.Symbol, l.VestDate) }

// lotKey identifies a lot.
type lotKey struct {
	symbol string
	vest   date.Date
}

// Validate reconciles vests and sales into lots.
//
// Zero share vests and sales are dropped with a warning. Every other
// inconsistency is collected and returned as a single error wrapping
// ErrValidation: a sale must link to an existing vest of the same symbol, be
// sold strictly after the vest date, and the sales of a lot cannot sell more
// shares than it vested.
//
// Lots are returned by symbol then vest date.
func Validate(vests []VestLot, sales []SaleRecord) ([]Lot, error) {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...)))
	}

	index := make(map[lotKey]int)
	lots := make([]Lot, 0, len(vests))
	for _, v := range vests {
		switch {
		case v.Shares == 0:
			log.Warn().Str("symbol", v.Symbol).Str("vest_date", v.VestDate.String()).Msg("ignoring vest with 0 shares")
			continue
		case v.Shares < 0:
			invalid("%s %s: negative number of shares %d", v.Symbol, v.VestDate, v.Shares)
			continue
		case v.VestDate.IsZero():
			invalid("%s: vest without a vest_date", v.Symbol)
			continue
		}
		k := lotKey{v.Symbol, v.VestDate}
		if _, dup := index[k]; dup {
			invalid("%s %s: duplicate vest, sales cannot be linked unambiguously", v.Symbol, v.VestDate)
			continue
		}
		index[k] = len(lots)
		lots = append(lots, Lot{VestLot: v})
	}

	for _, s := range sales {
		switch {
		case s.Shares == 0:
			log.Warn().Str("symbol", s.Symbol).Str("sell_date", s.SellDate.String()).Msg("ignoring sale with 0 shares")
			continue
		case s.Shares < 0:
			invalid("%s %s: negative number of shares sold %d", s.Symbol, s.SellDate, s.Shares)
			continue
		}
		if !s.SellDate.After(s.VestDate) {
			invalid("%s %s: sell date (%s) must be after vest date", s.Symbol, s.VestDate, s.SellDate)
		}
		i, ok := index[lotKey{s.Symbol, s.VestDate}]
		if !ok {
			invalid("%s %s: no matching vest found for sale on %s", s.Symbol, s.VestDate, s.SellDate)
			continue
		}
		lots[i].Sales = append(lots[i].Sales, s)
	}

	for i := range lots {
		l := &lots[i]
		slices.SortStableFunc(l.Sales, func(a, b SaleRecord) int { return date.Compare(a.SellDate, b.SellDate) })
		if sold := l.Sold(); sold > l.Shares {
			invalid("%s: trying to sell %d shares but only %d vested", l, sold, l.Shares)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slices.SortStableFunc(lots, func(a, b Lot) int {
		return cmp.Or(cmp.Compare(a.Symbol, b.Symbol), date.Compare(a.VestDate, b.VestDate))
	})
	return lots, nil
}
