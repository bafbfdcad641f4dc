package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atikulmunna/syslens/internal/keyword"
	"github.com/atikulmunna/syslens/internal/loader"
	"github.com/atikulmunna/syslens/internal/model"
	"github.com/atikulmunna/syslens/internal/output"
	"github.com/atikulmunna/syslens/internal/pipeline"
	"github.com/atikulmunna/syslens/internal/state"
	"github.com/atikulmunna/syslens/internal/timefilter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type filterOptions struct {
	rng       pipeline.RangeInput
	keyword   string
	where     []string
	format    string
	out       string
	member    string
	reuseLast bool
	noSave    bool
}

var filterOpts filterOptions

var filterCmd = &cobra.Command{
	Use:   "filter [inputs...]",
	Short: "Filter syslog records by time and keywords and export them",
	Long: `Load syslog files, zip bundles or "-" for stdin, keep the records inside a
time window that match a keyword chain, and write them out.

Keywords are case-insensitive and support * and ? wildcards. They are matched
against "<hostname> <app> <message>". Further conditions are added with
--where OP:keyword and evaluated left to right.

Examples:
  syslens filter /var/log/messages -k sshd
  syslens filter bundle.zip --from 2023-01-01 --to 2023-01-02 --start-time 08:00 -f csv --out out.csv
  syslens filter "logs/**/*.log" -k "error*" -w OR:panic -w AND:kernel
  zcat syslog.gz | syslens filter - --mode instant --tz Europe/Berlin --start-time 22:00`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)

	f := filterCmd.Flags()
	f.StringVar(&filterOpts.rng.From, "from", "", "first date, YYYY-MM-DD (default: first date in the data)")
	f.StringVar(&filterOpts.rng.To, "to", "", "last date, YYYY-MM-DD (default: last date in the data)")
	f.StringVar(&filterOpts.rng.StartTime, "start-time", "", "start time of day, HH:MM (default 00:00)")
	f.StringVar(&filterOpts.rng.EndTime, "end-time", "", "end time of day, HH:MM inclusive (default 23:59)")
	f.StringVar(&filterOpts.rng.Mode, "mode", "day", "time filter mode: day (date and time of day checked separately) or instant")
	f.String("tz", "", "IANA zone for instant mode (default: zone of the first record)")
	f.StringVarP(&filterOpts.keyword, "keyword", "k", "", "first keyword condition")
	f.StringArrayVarP(&filterOpts.where, "where", "w", nil, "additional condition OP:keyword with OP = AND or OR (repeatable)")
	f.StringVarP(&filterOpts.format, "format", "f", "text", "output format: csv, log, text, json")
	f.StringVar(&filterOpts.out, "out", "", "write output to a file instead of stdout")
	f.Int("max-rows", 2000, "text/json preview shows only the most recent N records")
	f.Bool("quote-all", false, "quote every CSV field")
	f.StringVar(&filterOpts.member, "member", "", "only load archive members matching this pattern (e.g. \"**/syslog*.log\")")
	f.BoolVar(&filterOpts.reuseLast, "reuse-last", false, "reapply the last saved time range and conditions")
	f.BoolVar(&filterOpts.noSave, "no-save", false, "do not remember these filter settings")

	cobra.CheckErr(viper.BindPFlag("timezone", f.Lookup("tz")))
	cobra.CheckErr(viper.BindPFlag("max_rows", f.Lookup("max-rows")))
	cobra.CheckErr(viper.BindPFlag("csv.quote_all", f.Lookup("quote-all")))
}

// sourcesFor turns command-line inputs into sources. "-" reads stdin once.
func sourcesFor(args []string, stdin io.Reader) ([]loader.Source, error) {
	var (
		sources  []loader.Source
		patterns []string
		sawStdin bool
	)
	flush := func() error {
		if len(patterns) == 0 {
			return nil
		}
		paths, err := loader.ExpandPaths(patterns)
		if err != nil {
			return err
		}
		for _, p := range paths {
			sources = append(sources, loader.FilePath(p))
		}
		patterns = nil
		return nil
	}

	for _, arg := range args {
		if arg != "-" {
			patterns = append(patterns, arg)
			continue
		}
		if sawStdin {
			return nil, errors.New(`"-" given more than once`)
		}
		sawStdin = true
		if err := flush(); err != nil {
			return nil, err
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		sources = append(sources, loader.Stream{Filename: "stdin", Data: data})
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return sources, nil
}

// conditionsFor builds the keyword chain from -k and --where, in order.
func conditionsFor(first string, where []string) []model.Condition {
	conds := keyword.NewConditions().SetKeyword(0, first)
	for _, w := range where {
		c := keyword.ParseCondition(w)
		conds = conds.Add()
		conds = conds.SetKeyword(len(conds)-1, c.Keyword).SetOperator(len(conds)-1, c.Operator)
	}
	return conds
}

// newPipeline creates a scratch work dir under the configured one and
// returns a cleanup func that removes it.
func newPipeline(member string) (*pipeline.Pipeline, func(), error) {
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create work dir: %w", err)
	}
	dir, err := os.MkdirTemp(cfg.WorkDir, "run-")
	if err != nil {
		return nil, nil, fmt.Errorf("create work dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("remove work dir", "dir", dir, "error", err)
		}
	}

	p := pipeline.New(pipeline.Options{
		WorkDir:  dir,
		Parallel: cfg.Load.Parallel,
		Member:   member,
		Logger:   logger,
	})
	return p, cleanup, nil
}

func printWarnings(w io.Writer, warnings []model.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func runFilter(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := output.ParseFormat(filterOpts.format)
	if err != nil {
		return err
	}

	sources, err := sourcesFor(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	p, cleanup, err := newPipeline(filterOpts.member)
	if err != nil {
		return err
	}
	defer cleanup()

	ing, err := p.Ingest(ctx, sources)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), ing.Warnings)

	params, err := filterParams(ing.Records)
	if err != nil {
		return err
	}
	if !filterOpts.reuseLast {
		printWarnings(cmd.ErrOrStderr(), givenRange(cmd).UnusedTimeOptions())
	}

	res, err := p.Filter(ctx, ing.Records, params)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), res.Warnings)

	if !filterOpts.noSave {
		saveSettings(params, len(res.Records))
	}

	write := func(w io.Writer) error {
		return writeResult(w, cmd.ErrOrStderr(), res.Records, format)
	}
	if filterOpts.out != "" {
		err = writeFile(filterOpts.out, write)
	} else {
		err = write(cmd.OutOrStdout())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d records matched\n", len(res.Records), len(ing.Records))
	return nil
}

// writeFile creates path, hands it to write and reports the close error too,
// so a short write never passes for a complete export.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// givenRange is the range input limited to the mode and zone set explicitly
// on the command line; defaults and config values are not a user request.
func givenRange(cmd *cobra.Command) pipeline.RangeInput {
	in := filterOpts.rng
	in.Mode, in.Zone = "", ""
	if cmd.Flags().Changed("mode") {
		in.Mode = filterOpts.rng.Mode
	}
	if cmd.Flags().Changed("tz") {
		in.Zone = viper.GetString("timezone")
	}
	return in
}

// filterParams resolves the time stage and keyword chain from flags, or from
// the state file with --reuse-last.
func filterParams(records model.Collection) (pipeline.FilterParams, error) {
	if filterOpts.reuseLast {
		store, err := state.Open(cfg.StateFile)
		if err != nil {
			return pipeline.FilterParams{}, err
		}
		last, ok := store.Last()
		if !ok {
			return pipeline.FilterParams{}, fmt.Errorf("no saved filter settings in %s", cfg.StateFile)
		}
		var params pipeline.FilterParams
		if last.TimeRange != nil {
			mode, err := timefilter.ParseMode(last.Mode)
			if err != nil {
				return pipeline.FilterParams{}, err
			}
			params.Time = &timefilter.Params{Mode: mode, Range: *last.TimeRange, Zone: last.Zone}
		}
		params.Conditions = last.Conditions
		logger.Debug("reusing filter settings", "applied_at", last.AppliedAt, "matched", last.Matched)
		return params, nil
	}

	in := filterOpts.rng
	in.Zone = cfg.Timezone
	tp, err := in.Resolve(records)
	if err != nil {
		return pipeline.FilterParams{}, err
	}
	return pipeline.FilterParams{Time: tp, Conditions: conditionsFor(filterOpts.keyword, filterOpts.where)}, nil
}

func saveSettings(params pipeline.FilterParams, matched int) {
	store, err := state.Open(cfg.StateFile)
	if err != nil {
		logger.Warn("open state file", "path", cfg.StateFile, "error", err)
		return
	}

	s := state.Settings{Matched: matched, AppliedAt: time.Now()}
	if params.Time != nil {
		r := params.Time.Range
		s.TimeRange = &r
		s.Mode = string(params.Time.Mode)
		s.Zone = params.Time.Zone
	}
	if keyword.Conditions(params.Conditions).Active() {
		s.Conditions = params.Conditions
	}
	store.Set(s)
	if err := store.Save(); err != nil {
		logger.Warn("save state file", "path", cfg.StateFile, "error", err)
	}
}

// writeResult exports everything for csv and log, and previews the most
// recent max_rows records for text and json.
func writeResult(w, status io.Writer, records model.Collection, format output.Format) error {
	switch format {
	case output.FormatCSV:
		return output.WriteCSV(w, records, output.CSVOptions{QuoteAll: cfg.CSV.QuoteAll})
	case output.FormatLog:
		if err := output.WriteLogLines(w, records); err != nil {
			return err
		}
		// Files keep the export byte-exact; terminals get a final newline.
		if len(records) > 0 && filterOpts.out == "" {
			_, err := io.WriteString(w, "\n")
			return err
		}
		return nil
	}

	shown, truncated, warnings := output.Tail(records, cfg.MaxRows)
	printWarnings(status, warnings)
	if truncated {
		fmt.Fprintf(status, "showing last %d of %d records\n", len(shown), len(records))
	}
	return output.RenderAll(output.NewRenderer(w, format), shown)
}
