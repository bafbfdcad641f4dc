package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atikulmunna/syslens/internal/model"
)

// Format names an export or preview encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatLog  Format = "log"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatLog, FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want csv, log, text or json)", s)
}

// ContentType returns the MIME type used when serving f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/x-ndjson; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for exports in f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "jsonl"
	case FormatText:
		return "txt"
	default:
		return "log"
	}
}

// ---------------------------------------------------------------------------
// Tabular (CSV) export
// ---------------------------------------------------------------------------

// CSVHeader lists the exported columns in order.
var CSVHeader = []string{"Timestamp", "Hostname", "AppName", "PID", "Message"}

// CSVOptions tunes CSV output.
type CSVOptions struct {
	QuoteAll bool // quote every field, not only those that need it
}

// WriteCSV writes a header row and one row per record.
func WriteCSV(w io.Writer, c model.Collection, opts CSVOptions) error {
	if opts.QuoteAll {
		return writeQuotedCSV(w, c)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range c {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns the CSV export of c as UTF-8 bytes.
func CSV(c model.Collection, opts CSVOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, c, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvRow(r model.LogRecord) []string {
	return []string{r.TimestampText(), r.Hostname, r.AppName, pidText(r.PID), r.Message}
}

// writeQuotedCSV quotes every field; encoding/csv only quotes when required.
func writeQuotedCSV(w io.Writer, c model.Collection) error {
	writeRow := func(fields []string) error {
		var b strings.Builder
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
		_, err := io.WriteString(w, b.String())
		return err
	}

	if err := writeRow(CSVHeader); err != nil {
		return err
	}
	for _, r := range c {
		if err := writeRow(csvRow(r)); err != nil {
			return err
		}
	}
	return nil
}

// pidText renders a PID as an integer, or empty when it is absent or not a number.
func pidText(pid string) string {
	if pid == "" {
		return ""
	}
	n, err := strconv.Atoi(pid)
	if err != nil {
		return ""
	}
	return strconv.Itoa(n)
}

// ---------------------------------------------------------------------------
// Reconstructed log lines
// ---------------------------------------------------------------------------

// LogLine re-renders r as "<timestamp> <hostname> <app>[<pid>]: <message>".
func LogLine(r model.LogRecord) string {
	host := r.Hostname
	if host == "" {
		host = model.MissingHost
	}
	app := r.AppName
	if app == "" {
		app = model.MissingHost
	}
	pid := ""
	if p := pidText(r.PID); p != "" {
		pid = "[" + p + "]"
	}
	return fmt.Sprintf("%s %s %s%s: %s", r.TimestampText(), host, app, pid, r.Message)
}

// WriteLogLines writes one reconstructed line per record, separated by
// newlines, with no trailing newline.
func WriteLogLines(w io.Writer, c model.Collection) error {
	for i, r := range c {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, LogLine(r)); err != nil {
			return err
		}
	}
	return nil
}

// LogLines returns the log-line export of c as UTF-8 bytes.
func LogLines(c model.Collection) []byte {
	var buf bytes.Buffer
	_ = WriteLogLines(&buf, c)
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// Tail keeps the most recent n records. truncated reports whether records
// were dropped. A non-positive n keeps everything and returns a warning.
func Tail(c model.Collection, n int) (out model.Collection, truncated bool, warnings []model.Warning) {
	if n <= 0 {
		warnings = append(warnings, model.Warnf(model.WarnMaxRows,
			"max rows must be positive (got %d); showing all %d records", n, len(c)))
		n = len(c)
	}
	if len(c) <= n {
		out = make(model.Collection, len(c))
		copy(out, c)
		return out, false, warnings
	}
	out = make(model.Collection, n)
	copy(out, c[len(c)-n:])
	return out, true, warnings
}

// SuggestName returns a download file name. With a time range the name
// carries its dates and HHMM bounds.
func SuggestName(r *model.TimeRange, f Format) string {
	if r == nil {
		return "filtered_syslog_data." + f.Extension()
	}
	return fmt.Sprintf("extracted_logs_%04d%02d%02d-%04d%02d%02d_%02d%02d-%02d%02d.%s",
		r.StartDate.Year, r.StartDate.Month, r.StartDate.Day,
		r.EndDate.Year, r.EndDate.Month, r.EndDate.Day,
		r.StartTime.Hour, r.StartTime.Minute, r.EndTime.Hour, r.EndTime.Minute,
		f.Extension())
}

// Export encodes c in format f. CSV options apply to FormatCSV only.
func Export(c model.Collection, f Format, opts CSVOptions) ([]byte, error) {
	switch f {
	case FormatCSV:
		return CSV(c, opts)
	case FormatLog:
		return LogLines(c), nil
	}

	var buf bytes.Buffer
	if err := RenderAll(NewRenderer(&buf, f), c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
