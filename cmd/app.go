// Package cmd implements the command line application computing the Schedule FA.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/fa"
	"github.com/etnz/fa/config"
	"github.com/etnz/fa/sbi"
	"github.com/etnz/fa/yahoo"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

// Commands is the list of the application commands.
// A main package registers them on a commander, and Execute() the user-selected one.
var Commands = []subcommands.Command{
	&computeCmd{},
	&sortCmd{},
	&cleanCmd{},
	&historyCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", config.DefaultFile, "Path to the configuration file")
var dataDir = flag.String("data", "", "Directory holding vest.json, sell.json and the market data cache. Overrides the configuration.")
var verbose = flag.Bool("v", false, "Log debug messages")

// LoadConfig loads the .env file and the configuration, applies the global
// flags and sets the log level.
func LoadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %q: %w", *configFile, err)
	}

	log.DefaultLogger.Level = cfg.Level()
	if *verbose {
		log.DefaultLogger.Level = log.DebugLevel
	}
	return cfg, nil
}

// NewMarket returns the market data provider described by cfg.
func NewMarket(cfg *config.Config) *yahoo.Client {
	return yahoo.New(
		yahoo.WithEndpoints(cfg.Yahoo.Endpoints...),
		yahoo.WithTimeout(cfg.Yahoo.Timeout),
		yahoo.WithPace(cfg.Yahoo.Pace),
	)
}

// NewRates returns the exchange rate provider described by cfg.
func NewRates(cfg *config.Config) *sbi.Client {
	return sbi.New(cfg.SBI.URL, cfg.SBI.Timeout, sbi.DefaultTTL)
}

// OpenCache loads the market data cache of the data directory.
func OpenCache(cfg *config.Config) *fa.Cache {
	return fa.LoadCache(filepath.Join(cfg.DataDir, fa.CacheFile))
}

// printMarkdown renders markdown for the terminal, or prints it as is when it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	log.Debug().Err(err).Msg("cannot render markdown")
	fmt.Print(md)
}

// fail prints err and returns the failure status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
