package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atikulmunna/syslens/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Renderer writes LogRecord values to an output stream.
type Renderer interface {
	Render(rec model.LogRecord) error
}

// NewRenderer returns the preview renderer for f. CSV and log formats are
// exports, not previews, and fall back to log lines.
func NewRenderer(w io.Writer, f Format) Renderer {
	switch f {
	case FormatJSON:
		return NewJSONRenderer(w)
	case FormatText:
		return NewTextRenderer(w)
	default:
		return &lineRenderer{w: w}
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleTime    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleBadTime = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleHost    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // cyan
	styleApp     = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	stylePID     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleUnknown = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// TextRenderer prints records to the terminal with per-field colors.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(rec model.LogRecord) error {
	ts := styleTime.Render(rec.TimestampText())
	if !rec.HasTimestamp() {
		ts = styleBadTime.Render(rec.TimestampText())
	}

	app := styleApp.Render(rec.AppName)
	if rec.AppName == model.UnknownApp {
		app = styleUnknown.Render(rec.AppName)
	}
	if rec.PID != "" {
		app += stylePID.Render("[" + rec.PID + "]")
	}

	line := fmt.Sprintf("%s %s %s %s", ts, styleHost.Render(rec.Hostname), app, rec.Message)
	_, err := fmt.Fprintln(r.w, line)
	return err
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each record as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(rec model.LogRecord) error {
	return r.enc.Encode(jsonRecord{
		Timestamp: rec.TimestampText(),
		Parsed:    rec.HasTimestamp(),
		Hostname:  rec.Hostname,
		AppName:   rec.AppName,
		PID:       pidText(rec.PID),
		Message:   rec.Message,
	})
}

type jsonRecord struct {
	Timestamp string `json:"timestamp"`
	Parsed    bool   `json:"timestamp_parsed"`
	Hostname  string `json:"hostname"`
	AppName   string `json:"app_name"`
	PID       string `json:"pid,omitempty"`
	Message   string `json:"message"`
}

// lineRenderer writes plain reconstructed log lines, one per record.
type lineRenderer struct {
	w io.Writer
}

func (r *lineRenderer) Render(rec model.LogRecord) error {
	_, err := io.WriteString(r.w, LogLine(rec)+"\n")
	return err
}

// RenderAll feeds every record of c to r.
func RenderAll(r Renderer, c model.Collection) error {
	for _, rec := range c {
		if err := r.Render(rec); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

var (
	styleKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleTitle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// KV renders a titled block of aligned key/value rows for terminal summaries.
func KV(title string, rows [][2]string) string {
	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row[0]))
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(title))
	b.WriteByte('\n')
	for _, row := range rows {
		key := styleKey.Width(width + 2).Render(row[0])
		b.WriteString(key)
		b.WriteString(row[1])
		b.WriteByte('\n')
	}
	return b.String()
}
