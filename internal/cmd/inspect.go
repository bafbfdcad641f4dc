package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/atikulmunna/syslens/internal/keyword"
	"github.com/atikulmunna/syslens/internal/model"
	"github.com/atikulmunna/syslens/internal/output"
	"github.com/atikulmunna/syslens/internal/state"
	"github.com/atikulmunna/syslens/internal/summary"
	"github.com/spf13/cobra"
)

var (
	inspectMember string
	inspectTop    int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [inputs...]",
	Short: "Summarize syslog inputs",
	Long: `Load the inputs and print record counts, the available dates, the busiest
hosts and apps, and the last saved filter settings.

Examples:
  syslens inspect /var/log/syslog
  syslens inspect bundle.zip --member "**/messages*.log"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectMember, "member", "", "only load archive members matching this pattern")
	inspectCmd.Flags().IntVar(&inspectTop, "top", 5, "number of hosts and apps to list")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources, err := sourcesFor(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	p, cleanup, err := newPipeline(inspectMember)
	if err != nil {
		return err
	}
	defer cleanup()

	ing, err := p.Ingest(ctx, sources)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), ing.Warnings)

	out := cmd.OutOrStdout()
	stats := summary.Summarize(ing.Records)

	rows := [][2]string{
		{"Files", strconv.Itoa(len(ing.Files))},
		{"Records", strconv.Itoa(stats.Total)},
		{"Unparsed timestamps", strconv.Itoa(stats.Unparsed)},
	}
	if r, ok := stats.DefaultRange(); ok {
		rows = append(rows,
			[2]string{"First", stats.First.Format(model.TimestampLayout)},
			[2]string{"Last", stats.Last.Format(model.TimestampLayout)},
			[2]string{"Dates", fmt.Sprintf("%s .. %s (%d days with records)", r.StartDate, r.EndDate, len(stats.Dates))},
		)
	}
	fmt.Fprintln(out, output.KV("Summary", rows))

	fmt.Fprintln(out, output.KV("Top hosts", countRows(summary.Top(stats.Hosts, inspectTop))))
	fmt.Fprintln(out, output.KV("Top apps", countRows(summary.Top(stats.Apps, inspectTop))))

	files := make([][2]string, 0, len(ing.Files))
	for _, f := range ing.Files {
		files = append(files, [2]string{f.Source, fmt.Sprintf("%d/%d lines parsed", f.Accepted, f.Seen)})
	}
	fmt.Fprintln(out, output.KV("Files", files))

	if store, err := state.Open(cfg.StateFile); err == nil {
		if last, ok := store.Last(); ok {
			fmt.Fprintln(out, output.KV("Last filter", settingsRows(last)))
		}
	}
	return nil
}

func countRows(counts []summary.Count) [][2]string {
	rows := make([][2]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, [2]string{c.Key, strconv.Itoa(c.Count)})
	}
	return rows
}

func settingsRows(s state.Settings) [][2]string {
	rows := [][2]string{{"Applied", s.AppliedAt.Format(time.RFC3339)}}
	if r := s.TimeRange; r != nil {
		rows = append(rows,
			[2]string{"Range", fmt.Sprintf("%s %s .. %s %s", r.StartDate, r.StartTime, r.EndDate, r.EndTime)},
			[2]string{"Mode", s.Mode},
		)
		if s.Zone != "" {
			rows = append(rows, [2]string{"Zone", s.Zone})
		}
	}
	if len(s.Conditions) > 0 {
		rows = append(rows, [2]string{"Conditions", keyword.Conditions(s.Conditions).String()})
	}
	rows = append(rows, [2]string{"Matched", strconv.Itoa(s.Matched)})
	return rows
}
