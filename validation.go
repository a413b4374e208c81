package fa

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/fa/date"
	"github.com/phuslu/log"
)

// ValidateYear checks that year can be reported on: a four digit year that is
// already over on today, and not earlier than the first vest.
func ValidateYear(year int, today date.Date, vests []VestLot) error {
	if year < 1000 || year > 9999 {
		return fmt.Errorf("%w: year must be a 4-digit number (e.g. 2024), got %d", ErrValidation, year)
	}
	if year >= today.Year() {
		return fmt.Errorf("%w: year %d is not over yet, only completed years can be reported (current year is %d)", ErrValidation, year, today.Year())
	}
	if len(vests) == 0 {
		return fmt.Errorf("%w: no vest found", ErrValidation)
	}
	earliest := vests[0].VestDate.Year()
	for _, v := range vests[1:] {
		earliest = min(earliest, v.VestDate.Year())
	}
	if year < earliest {
		return fmt.Errorf("%w: year %d is before the first vest year %d", ErrValidation, year, earliest)
	}
	return nil
}

// ValidateVestPrices checks every reported vest price against the trading
// range of the vest day.
//
// A price outside the range is an error. A day without known range is only
// logged, and the price is used as is.
func ValidateVestPrices(ctx context.Context, r *Resolver, lots []Lot, allowFetch bool) error {
	var errs []error
	checked := 0
	for _, l := range lots {
		if l.VestPrice == nil {
			continue
		}
		checked++
		price := *l.VestPrice
		hl, err := r.ResolveHighLow(ctx, l.Symbol, l.VestDate, allowFetch)
		if err != nil {
			log.Warn().Str("symbol", l.Symbol).Str("vest_date", l.VestDate.String()).Str("vest_price", price.String()).Msg("no high/low data, vest price used without validation")
			continue
		}
		if !hl.Contains(price) {
			errs = append(errs, fmt.Errorf("%w: %s: vest price %s is outside the day range %s-%s", ErrValidation, l, price, hl.Low, hl.High))
			continue
		}
		log.Debug().Str("symbol", l.Symbol).Str("vest_date", l.VestDate.String()).Str("vest_price", price.String()).Msg("vest price within day range")
	}
	if checked == 0 {
		log.Info().Msg("no vest prices provided, market close is used")
	}
	return errors.Join(errs...)
}
