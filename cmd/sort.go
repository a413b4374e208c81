package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/fa"
	"github.com/google/subcommands"
)

type sortCmd struct{}

func (*sortCmd) Name() string { return "sort" }
func (*sortCmd) Synopsis() string {
	return "rewrite the input files and the cache in canonical order"
}
func (*sortCmd) Usage() string {
	return `facalc sort

  Rewrites vest.json and sell.json with symbols in alphabetical order and
  entries in chronological order, then saves the market data cache in its
  canonical form. compute does the same unless -y is set.

`
}

func (*sortCmd) SetFlags(*flag.FlagSet) {}

func (*sortCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return fail(err)
	}
	vests, sales := filepath.Join(cfg.DataDir, fa.VestFile), filepath.Join(cfg.DataDir, fa.SellFile)
	if err := fa.SortRecordFiles(vests, sales); err != nil {
		return fail(err)
	}
	if err := OpenCache(cfg).Save(); err != nil {
		return fail(err)
	}
	fmt.Fprintf(os.Stderr, "✅ Sorted %s, %s and %s.\n", fa.VestFile, fa.SellFile, fa.CacheFile)
	return subcommands.ExitSuccess
}
