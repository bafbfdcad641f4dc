package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/atikulmunna/syslens/internal/model"
)

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewJSONRenderer(&buf)

	rec := model.LogRecord{
		Timestamp: time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC),
		Hostname:  "web-1",
		AppName:   "nginx",
		PID:       "42",
		Message:   "something broke",
	}

	if err := renderer.Render(rec); err != nil {
		t.Fatal(err)
	}

	var got jsonRecord
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, buf.String())
	}

	if got.Timestamp != "2026-02-17T12:00:00.000000+00:00" {
		t.Errorf("expected microsecond timestamp, got %q", got.Timestamp)
	}
	if !got.Parsed {
		t.Error("expected timestamp_parsed true")
	}
	if got.PID != "42" || got.AppName != "nginx" || got.Hostname != "web-1" {
		t.Errorf("unexpected fields %+v", got)
	}
	if got.Message != "something broke" {
		t.Errorf("expected message 'something broke', got %q", got.Message)
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewTextRenderer(&buf)

	rec := model.LogRecord{RawTimestamp: "2023-13-01T00:00:00.000000+00:00", Hostname: "h", AppName: model.UnknownApp, Message: "hello there"}
	if err := renderer.Render(rec); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "hello there") || !strings.Contains(out, "2023-13-01T00:00:00.000000+00:00") {
		t.Errorf("expected raw timestamp and message in output, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected one line per record")
	}
}

func TestRenderAllLogLines(t *testing.T) {
	var buf bytes.Buffer
	c := model.Collection{
		{Timestamp: time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC), Hostname: "a", AppName: "x", Message: "one"},
		{Timestamp: time.Date(2023, 1, 1, 11, 0, 0, 0, time.UTC), Hostname: "b", AppName: "y", Message: "two"},
	}

	if err := RenderAll(NewRenderer(&buf, FormatLog), c); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"); len(lines) != 2 {
		t.Errorf("expected 2 lines, got %q", buf.String())
	}
}

func TestKV(t *testing.T) {
	out := KV("Summary", [][2]string{{"records", "3"}, {"hosts", "2"}})
	if !strings.Contains(out, "Summary") || !strings.Contains(out, "records") || !strings.Contains(out, "3") {
		t.Errorf("unexpected table %q", out)
	}
}
