package fa

import (
	"context"
	"fmt"

	"github.com/etnz/fa/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// priceWalkBack is the number of calendar days, the requested one included,
// searched for a closing price.
const priceWalkBack = 7

// DefaultFallbackRates are yearly average USD to INR rates used when no rate
// provider can answer.
var DefaultFallbackRates = map[int]decimal.Decimal{
	2020: decimal.NewFromInt(75),
	2021: decimal.NewFromInt(74),
	2022: decimal.NewFromInt(79),
	2023: decimal.NewFromInt(82),
	2024: decimal.NewFromInt(83),
}

// DefaultFallbackRate is used for years missing from the fallback table.
var DefaultFallbackRate = decimal.NewFromInt(80)

// Resolver answers market data questions from the Cache first, and from the
// providers otherwise, writing every fetched fact back to the Cache.
type Resolver struct {
	cache  *Cache
	market MarketDataProvider // nil means cache only
	rates  RateProvider       // nil means cache or fallback only

	// FallbackRates and FallbackRate replace an unavailable exchange rate.
	FallbackRates map[int]decimal.Decimal
	FallbackRate  decimal.Decimal

	degraded []error
}

// NewResolver returns a Resolver over cache. Providers may be nil.
func NewResolver(cache *Cache, market MarketDataProvider, rates RateProvider) *Resolver {
	return &Resolver{
		cache:         cache,
		market:        market,
		rates:         rates,
		FallbackRates: DefaultFallbackRates,
		FallbackRate:  DefaultFallbackRate,
	}
}

// Cache returns the cache the resolver reads and writes.
func (r *Resolver) Cache() *Cache { return r.cache }

// Degraded returns one ErrDegraded error per value that was replaced by a fallback.
func (r *Resolver) Degraded() []error { return r.degraded }

// ResolvePrice returns the closing price of symbol on day.
//
// On a cache miss, and if allowFetch is set, it searches the provider from day
// back over the previous weekdays of a one-week window. The price found is
// cached under the trading day and under day itself, so a later request for
// the same weekend or holiday is answered from the cache.
// A provider error ends the search without caching anything.
// It returns ErrNotFound when no price exists; prices are never estimated.
func (r *Resolver) ResolvePrice(ctx context.Context, symbol string, day date.Date, allowFetch bool) (decimal.Decimal, error) {
	if p, ok := r.cache.Price(symbol, day); ok {
		return p, nil
	}
	if !allowFetch || r.market == nil {
		return decimal.Decimal{}, fmt.Errorf("price of %s on %s: %w in cache", symbol, day, ErrNotFound)
	}

	for attempt := 0; attempt < priceWalkBack; attempt++ {
		if err := ctx.Err(); err != nil {
			return decimal.Decimal{}, err
		}
		on := day.Add(-attempt)
		if on.IsWeekend() {
			continue
		}
		p, ok, err := r.market.Close(ctx, symbol, on)
		if err != nil {
			// a failed request is not a day without quote
			log.Warn().Err(err).Str("symbol", symbol).Str("date", on.String()).Msg("price fetch failed")
			return decimal.Decimal{}, fmt.Errorf("price of %s on %s: %w: %w", symbol, day, ErrNotFound, err)
		}
		if !ok {
			continue
		}
		p = p.Round(2)
		log.Debug().Str("symbol", symbol).Str("date", on.String()).Str("price", p.String()).Msg("fetched price")
		r.cache.PutPrice(symbol, on, p)
		if on != day {
			r.cache.PutPrice(symbol, day, p)
		}
		return p, nil
	}
	return decimal.Decimal{}, fmt.Errorf("price of %s on %s: %w within %d days", symbol, day, ErrNotFound, priceWalkBack)
}

// ResolveRate returns the USD to INR rate of day.
//
// On a cache miss, and if allowFetch is set, the rate provider is asked. If it
// fails the yearly fallback table is used and the substitution is recorded as
// degraded. Either way the rate is cached under day. Without allowFetch a
// cache miss is ErrNotFound.
func (r *Resolver) ResolveRate(ctx context.Context, day date.Date, allowFetch bool) (decimal.Decimal, error) {
	if rate, ok := r.cache.Rate(day); ok {
		return rate, nil
	}
	if !allowFetch {
		return decimal.Decimal{}, fmt.Errorf("exchange rate on %s: %w in cache", day, ErrNotFound)
	}

	if r.rates != nil {
		rate, err := r.rates.Rate(ctx, day)
		if err == nil && rate.IsPositive() {
			r.cache.PutRate(day, rate)
			return rate.Round(2), nil
		}
		if err != nil {
			log.Debug().Err(err).Str("date", day.String()).Msg("rate provider failed")
		}
	}

	rate, ok := r.FallbackRates[day.Year()]
	if !ok {
		rate = r.FallbackRate
	}
	degraded := fmt.Errorf("exchange rate on %s replaced by historical average %s: %w", day, rate, ErrDegraded)
	r.degraded = append(r.degraded, degraded)
	log.Warn().Str("date", day.String()).Str("rate", rate.String()).Msg("using historical fallback exchange rate")
	r.cache.PutRate(day, rate)
	return rate, nil
}

// ResolveCompany describes the issuer of symbol. It never fails: the cache,
// the provider, the table of known issuers and finally a placeholder are tried
// in that order. In cache-only mode an uncached symbol gets a generic
// description that is not cached.
func (r *Resolver) ResolveCompany(ctx context.Context, symbol string, allowFetch bool) CompanyInfo {
	if info, ok := r.cache.Company(symbol); ok {
		return info
	}
	if !allowFetch {
		log.Warn().Str("symbol", symbol).Msg("company info not cached and fetching is disabled")
		return offlineIssuer(symbol)
	}

	if r.market != nil {
		info, ok, err := r.market.Profile(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("could not fetch company info")
		}
		if ok && info.Name != "" {
			r.cache.PutCompany(symbol, info)
			return info
		}
	}

	info, ok := knownIssuers[symbol]
	if !ok {
		info = placeholderIssuer(symbol)
		log.Error().Str("symbol", symbol).Msg("unknown company, using a placeholder: review name and address before filing")
	}
	r.cache.PutCompany(symbol, info)
	return info
}

// ResolveHighLow returns the trading range of symbol on day, from the cache or
// the provider. It returns ErrNotFound when neither knows it.
func (r *Resolver) ResolveHighLow(ctx context.Context, symbol string, day date.Date, allowFetch bool) (HighLow, error) {
	if hl, ok := r.cache.HighLow(symbol, day); ok {
		return hl, nil
	}
	if allowFetch && r.market != nil {
		hl, ok, err := r.market.HighLow(ctx, symbol, day)
		if err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Str("date", day.String()).Msg("high/low fetch failed")
		}
		if ok {
			r.cache.PutHighLow(symbol, day, hl)
			hl, _ = r.cache.HighLow(symbol, day)
			return hl, nil
		}
	}
	return HighLow{}, fmt.Errorf("high/low of %s on %s: %w", symbol, day, ErrNotFound)
}

// Prefetch resolves the price of every weekday of window missing from the
// cache. Days the provider cannot price are skipped. It returns the number of
// days that were missing.
func (r *Resolver) Prefetch(ctx context.Context, symbol string, window date.Range) (missing int) {
	for d := range window.Weekdays() {
		if _, ok := r.cache.Price(symbol, d); ok {
			continue
		}
		missing++
		if _, err := r.ResolvePrice(ctx, symbol, d, true); err != nil {
			if ctx.Err() != nil {
				return missing
			}
			log.Debug().Err(err).Str("symbol", symbol).Msg("prefetch skipped a day")
		}
	}
	return missing
}
