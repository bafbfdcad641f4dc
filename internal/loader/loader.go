// Package loader reads sources line by line through a parser and collects
// the records that match the syslog header grammar.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/atikulmunna/syslens/internal/model"
	"github.com/atikulmunna/syslens/internal/parser"
)

// ErrSource is matched by errors opening or reading a source.
var ErrSource = errors.New("source error")

// Result is the outcome of loading one source.
type Result struct {
	Source   string
	Records  model.Collection
	Seen     int // lines read
	Accepted int // lines that became records
	Unparsed int // records whose timestamp did not parse
	Warnings []model.Warning
}

// Loader turns sources into record collections.
type Loader struct {
	parser parser.Parser
	logger *slog.Logger
}

// New creates a Loader. A nil parser selects the syslog parser.
func New(p parser.Parser, logger *slog.Logger) *Loader {
	if p == nil {
		p = parser.NewSyslogParser()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{parser: p, logger: logger}
}

// Load reads every line of src. Lines that do not parse are dropped and only
// counted; invalid UTF-8 is removed rather than failing the source.
func (l *Loader) Load(src Source) (Result, error) {
	res := Result{Source: src.Name()}

	rc, err := src.Open()
	if err != nil {
		return res, fmt.Errorf("%w: open %s: %v", ErrSource, src.Name(), err)
	}
	defer rc.Close()

	if err := l.read(rc, &res); err != nil {
		return res, fmt.Errorf("%w: read %s: %v", ErrSource, src.Name(), err)
	}

	name := filepath.Base(src.Name())
	if res.Accepted == 0 {
		res.Warnings = append(res.Warnings, model.Warnf(model.WarnNoRecords,
			"no valid syslog entries found in %s (%d lines read)", name, res.Seen))
	}
	if res.Unparsed > 0 {
		res.Warnings = append(res.Warnings, model.Warnf(model.WarnUnparsedTime,
			"%d record(s) in %s have timestamps that could not be parsed and are excluded from time filters", res.Unparsed, name))
	}

	l.logger.Info("source loaded", "source", name, "lines", res.Seen, "records", res.Accepted)
	return res, nil
}

// read consumes r to EOF. A final line without a trailing newline still counts.
func (l *Loader) read(r io.Reader, res *Result) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			res.Seen++
			if rec, ok := l.parser.Parse(strings.ToValidUTF8(line, "")); ok {
				res.Accepted++
				if !rec.HasTimestamp() {
					res.Unparsed++
				}
				res.Records = append(res.Records, rec)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
