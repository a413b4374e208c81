package fa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/fa/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// Default file names in the data directory.
const (
	VestFile     = "vest.json"
	SellFile     = "sell.json"
	CacheFile    = "public_data.json"
	ScheduleFile = "FA.csv"
)

// Options configures a Run.
type Options struct {
	Year    int
	DataDir string

	AllowFetch     bool
	SkipValidation bool // vest prices are not checked against the day range
	SkipSort       bool // input files are not rewritten sorted
	InitialBasis   InitialBasis

	Market MarketDataProvider
	Rates  RateProvider
	// FallbackRates overrides DefaultFallbackRates when not nil.
	FallbackRates map[int]decimal.Decimal

	// Today is the reference day for year validation, zero means date.Today().
	Today date.Date
}

func (o Options) path(name string) string { return filepath.Join(o.DataDir, name) }

// Report is the outcome of a Run.
type Report struct {
	Year     int
	Rows     []Row
	Skipped  []Lot   // lots not held during the year
	Failures []error // one per lot that could not be valued
	Degraded []error // values replaced by a fallback
	Output   string  // path of the schedule, empty if not written
}

// Lots returns the number of lots considered.
func (r *Report) Lots() int { return len(r.Rows) + len(r.Skipped) + len(r.Failures) }

// Run computes the schedule of a year from the files in the data directory.
//
// Input errors are returned before any market data is requested. Lots that
// cannot be valued are reported and the others still valued, but the schedule
// is only written when every lot succeeded; otherwise the error wraps
// ErrIncomplete.
func Run(ctx context.Context, opts Options) (*Report, error) {
	vestPath, sellPath := opts.path(VestFile), opts.path(SellFile)
	today := opts.Today
	if today.IsZero() {
		today = date.Today()
	}

	vests, sales, err := LoadRecords(vestPath, sellPath)
	if err != nil {
		return nil, err
	}
	if err := ValidateYear(opts.Year, today, vests); err != nil {
		return nil, err
	}
	lots, err := Validate(vests, sales)
	if err != nil {
		return nil, err
	}
	if !opts.SkipSort {
		if err := SortRecordFiles(vestPath, sellPath); err != nil {
			return nil, fmt.Errorf("could not sort input files: %w", err)
		}
	}

	cache := LoadCache(opts.path(CacheFile))
	resolver := NewResolver(cache, opts.Market, opts.Rates)
	if opts.FallbackRates != nil {
		resolver.FallbackRates = opts.FallbackRates
	}

	if opts.AllowFetch {
		fetchRequired(ctx, resolver, lots, opts.Year, !opts.SkipValidation)
	}
	if !opts.SkipValidation {
		if err := ValidateVestPrices(ctx, resolver, lots, opts.AllowFetch); err != nil {
			return nil, err
		}
	}

	engine := &Engine{Resolver: resolver, Year: opts.Year, AllowFetch: opts.AllowFetch, InitialBasis: opts.InitialBasis}
	report := &Report{Year: opts.Year}
	yearEnd := date.EndOfYear(opts.Year)
	for _, l := range lots {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		switch {
		case l.Remaining() == 0:
			log.Info().Str("symbol", l.Symbol).Str("vest_date", l.VestDate.String()).Msg("skipping fully sold lot")
			report.Skipped = append(report.Skipped, l)
			continue
		case l.VestDate.After(yearEnd):
			log.Info().Str("symbol", l.Symbol).Str("vest_date", l.VestDate.String()).Int("year", opts.Year).Msg("skipping lot vested after the year")
			report.Skipped = append(report.Skipped, l)
			continue
		}
		row, err := engine.ComputeRow(ctx, l)
		if err != nil {
			log.Error().Err(err).Str("symbol", l.Symbol).Str("vest_date", l.VestDate.String()).Msg("lot not valued")
			report.Failures = append(report.Failures, err)
			continue
		}
		log.Info().Str("symbol", l.Symbol).Str("vest_date", l.VestDate.String()).Msg("processed lot")
		report.Rows = append(report.Rows, row)
	}
	SortRows(report.Rows)
	report.Degraded = resolver.Degraded()

	if err := cache.Save(); err != nil {
		log.Debug().Err(err).Str("path", cache.Path()).Msg("could not save cache")
	}

	if len(report.Failures) > 0 {
		return report, fmt.Errorf("%d of %d lots could not be valued: %w", len(report.Failures), report.Lots(), errors.Join(append([]error{ErrIncomplete}, report.Failures...)...))
	}

	output := opts.path(ScheduleFile)
	if err := writeScheduleFile(output, report.Rows, cache.CountryCode); err != nil {
		return report, err
	}
	report.Output = output
	log.Info().Str("path", output).Int("rows", len(report.Rows)).Msg("schedule written")
	return report, nil
}

// fetchRequired warms the cache with the facts every lot needs. Day ranges of
// given vest prices are only fetched when they will be validated.
func fetchRequired(ctx context.Context, r *Resolver, lots []Lot, year int, validate bool) {
	jan1, dec31 := date.StartOfYear(year), date.EndOfYear(year)
	if _, err := r.ResolveRate(ctx, dec31, true); err != nil {
		log.Warn().Err(err).Msg("no closing exchange rate")
	}
	seen := make(map[string]bool)
	for _, l := range lots {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.ResolveRate(ctx, l.VestDate, true); err != nil {
			log.Warn().Err(err).Msg("no vest exchange rate")
		}
		switch {
		case l.VestPrice == nil:
			if _, err := r.ResolvePrice(ctx, l.Symbol, l.VestDate, true); err != nil {
				log.Warn().Err(err).Msg("no vest price")
			}
		case validate:
			if _, err := r.ResolveHighLow(ctx, l.Symbol, l.VestDate, true); err != nil {
				log.Debug().Err(err).Msg("no vest day range")
			}
		}
		if seen[l.Symbol] {
			continue
		}
		seen[l.Symbol] = true
		for _, d := range []date.Date{jan1, dec31} {
			if _, err := r.ResolvePrice(ctx, l.Symbol, d, true); err != nil {
				log.Warn().Err(err).Msg("no year boundary price")
			}
		}
		r.ResolveCompany(ctx, l.Symbol, true)
	}
}

func writeScheduleFile(path string, rows []Row, countryCode func(string) int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create schedule: %w", err)
	}
	if err := WriteSchedule(f, rows, countryCode); err != nil {
		f.Close()
		return fmt.Errorf("could not write schedule %q: %w", path, err)
	}
	return f.Close()
}
