package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/etnz/fa"
	"github.com/google/subcommands"
)

type cleanCmd struct {
	all      bool
	stocks   bool
	keep     string
	rates    bool
	symbol   string
	noBackup bool
}

func (*cleanCmd) Name() string     { return "clean" }
func (*cleanCmd) Synopsis() string { return "inspect or clear the market data cache" }
func (*cleanCmd) Usage() string {
	return `facalc clean [-all | -stocks [-keep <SYM,...>] | -rates | -symbol <SYM>] [-no-backup]

  Without flags, displays what the cache holds. Otherwise clears a part of it
  after saving a timestamped backup next to the cache file. The country
  mapping is always kept.

Usage Examples:
# Forget every price except ADBE's.
$ facalc clean -stocks -keep ADBE

`
}

func (c *cleanCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Clear stocks and exchange rates")
	f.BoolVar(&c.stocks, "stocks", false, "Clear every stock")
	f.StringVar(&c.keep, "keep", "", "Comma separated symbols kept by -stocks")
	f.BoolVar(&c.rates, "rates", false, "Clear exchange rates")
	f.StringVar(&c.symbol, "symbol", "", "Clear a single symbol")
	f.BoolVar(&c.noBackup, "no-backup", false, "Do not back up the cache first")
}

// action returns the cleaning operation selected by the flags, nil when none is.
func (c *cleanCmd) action() (func(*fa.Cache) error, error) {
	var actions []func(*fa.Cache) error
	if c.all {
		actions = append(actions, (*fa.Cache).ClearAll)
	}
	if c.stocks {
		var keep []string
		for _, s := range strings.Split(c.keep, ",") {
			if s = strings.TrimSpace(s); s != "" {
				keep = append(keep, strings.ToUpper(s))
			}
		}
		actions = append(actions, func(cache *fa.Cache) error { return cache.ClearStocks(keep...) })
	}
	if c.rates {
		actions = append(actions, (*fa.Cache).ClearRates)
	}
	if c.symbol != "" {
		symbol := strings.ToUpper(c.symbol)
		actions = append(actions, func(cache *fa.Cache) error { return cache.ClearSymbol(symbol) })
	}
	if c.keep != "" && !c.stocks {
		return nil, errors.New("-keep requires -stocks")
	}
	switch len(actions) {
	case 0:
		return nil, nil
	case 1:
		return actions[0], nil
	default:
		return nil, errors.New("-all, -stocks, -rates and -symbol are exclusive")
	}
}

func (c *cleanCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	action, err := c.action()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, err := LoadConfig()
	if err != nil {
		return fail(err)
	}
	cache := OpenCache(cfg)

	if action == nil {
		printMarkdown(cacheStats(cache))
		return subcommands.ExitSuccess
	}

	if !c.noBackup {
		backup, err := cache.Backup(time.Now())
		if err != nil {
			return fail(err)
		}
		if backup != "" {
			fmt.Fprintf(os.Stderr, "Backup saved to %s\n", backup)
		}
	}
	if err := action(cache); err != nil {
		return fail(err)
	}
	fmt.Fprintf(os.Stderr, "✅ Cleaned %s.\n", cache.Path())
	return subcommands.ExitSuccess
}

// cacheStats formats the content of the cache as markdown.
func cacheStats(cache *fa.Cache) string {
	symbols, rates := cache.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "# Market Data Cache\n\n`%s` holds %d exchange rates.\n\n", cache.Path(), rates)
	if len(symbols) == 0 {
		b.WriteString("No stock data.\n")
		return b.String()
	}
	b.WriteString("| Symbol | Prices | High/Low | Company |\n")
	b.WriteString("|:---|---:|---:|:---:|\n")
	for _, s := range symbols {
		company := ""
		if s.HasCompany {
			company = "✓"
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", s.Symbol, s.Prices, s.HighLows, company)
	}
	return b.String()
}
