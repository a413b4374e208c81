package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/fa/audit"
	"github.com/google/subcommands"
)

type historyCmd struct {
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the previous computations" }
func (*historyCmd) Usage() string {
	return `facalc history [-n <count>]

  Displays the last computations recorded in the audit database, most recent
  first. Requires audit_db in the configuration.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 10, "number of runs to display, 0 for all")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return fail(err)
	}
	if cfg.AuditDB == "" {
		fmt.Fprintln(os.Stderr, "no audit_db configured, runs are not recorded")
		return subcommands.ExitSuccess
	}
	recorder, err := audit.Open(cfg.AuditDB)
	if err != nil {
		return fail(err)
	}
	defer recorder.Close()

	runs, err := recorder.History(ctx, c.limit)
	if err != nil {
		return fail(err)
	}
	printMarkdown(historyMarkdown(runs))
	return subcommands.ExitSuccess
}

// historyMarkdown formats runs as a markdown table.
func historyMarkdown(runs []audit.Run) string {
	var b strings.Builder
	b.WriteString("# Computations\n\n")
	if len(runs) == 0 {
		b.WriteString("No recorded run.\n")
		return b.String()
	}
	b.WriteString("| Started | Year | Mode | Status | Lots | Initial | Peak | Closing | Proceeds |\n")
	b.WriteString("|:---|---:|:---|:---|---:|---:|---:|---:|---:|\n")
	for _, r := range runs {
		var initial, peak, closing, proceeds int64
		for _, row := range r.Rows {
			initial += row.Initial
			peak += row.Peak
			closing += row.Closing
			proceeds += row.Proceeds
		}
		mode := "fetch"
		if !r.AllowFetch {
			mode = "cache only"
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %d | %d | %d | %d | %d |\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Year, mode, r.Status,
			len(r.Rows), initial, peak, closing, proceeds)
	}
	return b.String()
}
