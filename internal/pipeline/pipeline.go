// Package pipeline wires the ingestion and filtering stages together:
// sources are unpacked and loaded, then narrowed by time and keywords.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/atikulmunna/syslens/internal/archive"
	"github.com/atikulmunna/syslens/internal/keyword"
	"github.com/atikulmunna/syslens/internal/loader"
	"github.com/atikulmunna/syslens/internal/metrics"
	"github.com/atikulmunna/syslens/internal/model"
	"github.com/atikulmunna/syslens/internal/timefilter"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options configures a Pipeline.
type Options struct {
	// WorkDir receives one freshly named subdirectory per unpacked archive.
	// The caller owns WorkDir and removes it when done.
	WorkDir string
	// Parallel bounds how many files load at once. Values below 1 mean 1.
	Parallel int
	// Member restricts which .log files inside archives are loaded
	// (doublestar pattern relative to the archive root). Empty loads all.
	Member  string
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Pipeline runs ingestion and filtering for one caller.
type Pipeline struct {
	opts     Options
	loader   *loader.Loader
	unpacker *archive.Unpacker
	logger   *slog.Logger
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		opts:     opts,
		loader:   loader.New(nil, opts.Logger),
		unpacker: archive.New(opts.Logger),
		logger:   opts.Logger,
	}
}

// FileReport describes one loaded log file.
type FileReport struct {
	Source   string `json:"source"`
	Seen     int    `json:"lines"`
	Accepted int    `json:"records"`
}

// Ingested is the combined outcome of loading every source.
type Ingested struct {
	Records  model.Collection
	Files    []FileReport
	Warnings []model.Warning
}

// IsArchive reports whether name is handled as a zip container.
func IsArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// Ingest unpacks archive sources, then loads every log file. Records are
// ordered by source, then by the archive's discovery order, then by line,
// regardless of how many files load in parallel.
//
// An invalid archive or an unreadable file aborts the whole ingest.
func (p *Pipeline) Ingest(ctx context.Context, sources []loader.Source) (Ingested, error) {
	var (
		ing   Ingested
		files []loader.Source
	)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return Ingested{}, err
		}
		if !IsArchive(src.Name()) {
			files = append(files, src)
			continue
		}

		res, err := p.unpack(src)
		if err != nil {
			p.opts.Metrics.ObserveLoad("archive_error", 0, 0)
			return Ingested{}, err
		}

		name := filepath.Base(src.Name())
		if n := len(res.Decompress.Failures); n > 0 {
			p.opts.Metrics.ObserveDecompressFailures(n)
			ing.Warnings = append(ing.Warnings, model.Warnf(model.WarnDecompress,
				"%d compressed member(s) in %s could not be decompressed and were skipped", n, name))
		}
		if len(res.LogFiles) == 0 {
			ing.Warnings = append(ing.Warnings, model.Warnf(model.WarnNoLogFiles,
				"no .log files found in %s", name))
		}
		for _, f := range res.LogFiles {
			files = append(files, loader.FilePath(f))
		}
	}

	results, err := p.loadAll(ctx, files)
	if err != nil {
		return Ingested{}, err
	}

	for _, res := range results {
		ing.Records = append(ing.Records, res.Records...)
		ing.Warnings = append(ing.Warnings, res.Warnings...)
		ing.Files = append(ing.Files, FileReport{Source: res.Source, Seen: res.Seen, Accepted: res.Accepted})
	}

	return ing, nil
}

func (p *Pipeline) unpack(src loader.Source) (archive.Result, error) {
	rc, err := src.Open()
	if err != nil {
		return archive.Result{}, fmt.Errorf("%w: open %s: %v", loader.ErrSource, src.Name(), err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return archive.Result{}, fmt.Errorf("%w: read %s: %v", loader.ErrSource, src.Name(), err)
	}

	dest := filepath.Join(p.opts.WorkDir, uuid.NewString())
	res, err := p.unpacker.Unpack(data, dest, p.opts.Member)
	if err != nil {
		return archive.Result{}, fmt.Errorf("unpack %s: %w", filepath.Base(src.Name()), err)
	}
	return res, nil
}

// loadAll loads files with bounded parallelism and returns results in input order.
func (p *Pipeline) loadAll(ctx context.Context, files []loader.Source) ([]loader.Result, error) {
	results := make([]loader.Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallel)

	for i, src := range files {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.loader.Load(src)
			if err != nil {
				p.opts.Metrics.ObserveLoad("error", res.Seen, 0)
				return err
			}
			status := "ok"
			if res.Accepted == 0 {
				status = "empty"
			}
			p.opts.Metrics.ObserveLoad(status, res.Seen, res.Accepted)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FilterParams selects the filter stages to run. A nil Time skips the time
// stage; conditions with only blank keywords skip the keyword stage.
type FilterParams struct {
	Time       *timefilter.Params
	Conditions []model.Condition
}

// Filtered is the outcome of Filter.
type Filtered struct {
	Records  model.Collection
	Warnings []model.Warning
}

// Filter runs the time stage then the keyword stage over c. Each stage
// returns a new collection; c is not modified.
func (p *Pipeline) Filter(ctx context.Context, c model.Collection, params FilterParams) (Filtered, error) {
	out := Filtered{Records: c}

	if params.Time != nil {
		if err := ctx.Err(); err != nil {
			return Filtered{}, err
		}
		records, warnings := timefilter.Apply(out.Records, *params.Time)
		mode := string(params.Time.Mode)
		if mode == "" {
			mode = string(timefilter.DayWindow)
		}
		p.opts.Metrics.ObserveFilter(mode, len(records))
		p.logger.Debug("time filter applied", "mode", mode, "in", len(out.Records), "out", len(records))
		out.Records = records
		out.Warnings = append(out.Warnings, warnings...)
	}

	if keyword.Conditions(params.Conditions).Active() {
		if err := ctx.Err(); err != nil {
			return Filtered{}, err
		}
		records := keyword.Filter(out.Records, params.Conditions)
		p.opts.Metrics.ObserveFilter("keyword", len(records))
		p.logger.Debug("keyword filter applied", "chain", keyword.Conditions(params.Conditions).String(), "in", len(out.Records), "out", len(records))
		out.Records = records
	}

	return out, nil
}
