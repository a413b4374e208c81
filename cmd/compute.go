package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/etnz/fa"
	"github.com/etnz/fa/audit"
	"github.com/etnz/fa/renderer"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

// computeCmd holds the flags for the 'compute' subcommand.
type computeCmd struct {
	noFetch        bool
	skipValidation bool
	skipSort       bool
	quiet          bool
	html           string
}

func (*computeCmd) Name() string     { return "compute" }
func (*computeCmd) Synopsis() string { return "compute the Schedule FA of a calendar year" }
func (*computeCmd) Usage() string {
	return `facalc compute [-no-fetch] [-x] [-y] [-q] [-html <file>] <year>

  Values every lot of vest.json held during <year> and writes FA.csv in the
  data directory. Market data comes from the cache, completed from Yahoo
  Finance and SBI reference rates unless -no-fetch is set.

  The schedule is only written when every lot could be valued.

Usage Examples:
# Compute the 2023 schedule.
$ facalc compute 2023

# Compute from cached data only, without rewriting the input files.
$ facalc compute -no-fetch -y 2023

`
}

func (c *computeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.noFetch, "no-fetch", false, "Use cached market data only")
	f.BoolVar(&c.skipValidation, "x", false, "Skip the validation of vest prices against the day's high and low")
	f.BoolVar(&c.skipSort, "y", false, "Do not rewrite vest.json and sell.json sorted")
	f.BoolVar(&c.quiet, "q", false, "Only print totals and issues")
	f.StringVar(&c.html, "html", "", "Also write the summary as HTML to this file")
}

func (c *computeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exactly one year is required")
		return subcommands.ExitUsageError
	}
	year, err := strconv.Atoi(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid year %q\n", f.Arg(0))
		return subcommands.ExitUsageError
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fail(err)
	}
	recorder, err := audit.Open(cfg.AuditDB)
	if err != nil {
		return fail(err)
	}
	defer recorder.Close()

	started := time.Now()
	report, runErr := fa.Run(ctx, fa.Options{
		Year:           year,
		DataDir:        cfg.DataDir,
		AllowFetch:     !c.noFetch,
		SkipValidation: c.skipValidation,
		SkipSort:       c.skipSort,
		InitialBasis:   cfg.Basis(),
		Market:         NewMarket(cfg),
		Rates:          NewRates(cfg),
		FallbackRates:  cfg.Rates(),
	})

	run := audit.NewRun(started, year, !c.noFetch, report, runErr)
	if err := recorder.Record(ctx, run); err != nil {
		log.Warn().Err(err).Msg("cannot record the run")
	}

	md := renderer.RenderSummary(renderer.NewSummary(year, report, runErr), renderer.SummaryRenderOptions{SkipRows: c.quiet})
	printMarkdown(md)

	if c.html != "" {
		html, err := renderer.HTML(md)
		if err == nil {
			err = os.WriteFile(c.html, []byte(html), 0644)
		}
		if err != nil {
			return fail(fmt.Errorf("cannot write %q: %w", c.html, err))
		}
	}

	if runErr != nil {
		return fail(runErr)
	}
	return subcommands.ExitSuccess
}
