package parser

import (
	"testing"
	"time"

	"github.com/atikulmunna/syslens/internal/model"
)

func TestSyslogParser(t *testing.T) {
	p := NewSyslogParser()

	rec, ok := p.Parse("2023-01-01T10:00:00.000000+00:00 host1 sshd[123]: Accepted login\n")
	if !ok {
		t.Fatal("expected line to parse")
	}

	want := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, rec.Timestamp)
	}
	if rec.Hostname != "host1" {
		t.Errorf("expected hostname host1, got %q", rec.Hostname)
	}
	if rec.AppName != "sshd" {
		t.Errorf("expected app sshd, got %q", rec.AppName)
	}
	if rec.PID != "123" {
		t.Errorf("expected pid 123, got %q", rec.PID)
	}
	if rec.Message != "Accepted login" {
		t.Errorf("expected message 'Accepted login', got %q", rec.Message)
	}
}

func TestSyslogParserOffset(t *testing.T) {
	p := NewSyslogParser()

	rec, ok := p.Parse("2024-03-05T23:59:59.123456+09:00 web-01.example.com nginx: GET /")
	if !ok {
		t.Fatal("expected line to parse")
	}

	_, offset := rec.Timestamp.Zone()
	if offset != 9*3600 {
		t.Errorf("expected +09:00 offset, got %d seconds", offset)
	}
	if rec.Timestamp.Nanosecond() != 123456000 {
		t.Errorf("expected microseconds to survive, got %d ns", rec.Timestamp.Nanosecond())
	}
	if rec.Hostname != "web-01.example.com" {
		t.Errorf("expected dotted hostname, got %q", rec.Hostname)
	}
	if rec.PID != "" {
		t.Errorf("expected no pid, got %q", rec.PID)
	}
}

func TestSyslogParserMissingApp(t *testing.T) {
	p := NewSyslogParser()

	rec, ok := p.Parse("2023-01-01T10:00:00.000000-05:00 host1 : kernel says hi")
	if !ok {
		t.Fatal("expected line without app name to parse")
	}
	if rec.AppName != model.UnknownApp {
		t.Errorf("expected app %q, got %q", model.UnknownApp, rec.AppName)
	}
	if rec.Message != "kernel says hi" {
		t.Errorf("unexpected message %q", rec.Message)
	}
}

func TestSyslogParserPIDWithoutApp(t *testing.T) {
	p := NewSyslogParser()

	rec, ok := p.Parse("2023-01-01T10:00:00.000000+00:00 host1 [42]: orphan pid")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if rec.AppName != model.UnknownApp || rec.PID != "42" {
		t.Errorf("expected Unknown[42], got %q[%q]", rec.AppName, rec.PID)
	}
}

func TestSyslogParserStripsANSI(t *testing.T) {
	p := NewSyslogParser()

	rec, ok := p.Parse("2023-01-01T10:00:00.000000+00:00 host1 app: \x1b[31mred\x1b[0m and \x1b[1;32mgreen\x1b[m")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if rec.Message != "red and green" {
		t.Errorf("expected color codes stripped, got %q", rec.Message)
	}
}

func TestSyslogParserRejects(t *testing.T) {
	p := NewSyslogParser()

	lines := []string{
		"",
		"not a syslog line",
		"2023-01-01T10:00:00+00:00 host1 sshd: no microseconds",
		"2023-01-01T10:00:00.000000Z host1 sshd: zulu offset",
		"2023-01-01T10:00:00.000000+00:00 host1 sshd:no space after colon",
		"2023-01-01T10:00:00.000000+00:00 host1 sshd no colon",
		"2023-01-01T10:00:00.000000+00:00 host1",
		"Jan  1 10:00:00 host1 sshd[1]: rfc3164 layout",
	}

	for _, line := range lines {
		if _, ok := p.Parse(line); ok {
			t.Errorf("expected %q to be rejected", line)
		}
	}
}

func TestSyslogParserUnparseableTimestamp(t *testing.T) {
	p := NewSyslogParser()

	rec, ok := p.Parse("2023-13-45T10:00:00.000000+00:00 host1 app: bad month")
	if !ok {
		t.Fatal("expected header-shaped line to be kept")
	}
	if rec.HasTimestamp() {
		t.Errorf("expected zero timestamp, got %v", rec.Timestamp)
	}
	if rec.RawTimestamp != "2023-13-45T10:00:00.000000+00:00" {
		t.Errorf("expected raw timestamp to be retained, got %q", rec.RawTimestamp)
	}
	if rec.TimestampText() != rec.RawTimestamp {
		t.Errorf("expected TimestampText to fall back to raw text, got %q", rec.TimestampText())
	}
}

func TestSyslogParserKeepsMessageColons(t *testing.T) {
	p := NewSyslogParser()

	rec, ok := p.Parse("2023-01-01T10:00:00.000000+00:00 host1 app[7]: key: value: more")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if rec.Message != "key: value: more" {
		t.Errorf("expected message verbatim after header, got %q", rec.Message)
	}
}

func FuzzSyslogParser(f *testing.F) {
	f.Add("2023-01-01T10:00:00.000000+00:00 host1 sshd[123]: Accepted login")
	f.Add("2023-01-01T11:00:00.000000+00:00 host2 cron: Job started")
	f.Add("\x1b[0m")
	f.Add("")

	p := NewSyslogParser()
	f.Fuzz(func(t *testing.T, line string) {
		rec, ok := p.Parse(line)
		if !ok {
			return
		}
		if rec.Hostname == "" {
			t.Errorf("accepted %q with empty hostname", line)
		}
		if rec.AppName == "" {
			t.Errorf("accepted %q with empty app name", line)
		}
	})
}

func TestSyslogParserPinsOffsetAgainstLocalZone(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	saved := time.Local
	time.Local = london
	t.Cleanup(func() { time.Local = saved })

	rec, ok := NewSyslogParser().Parse("2023-01-15T09:00:00.000000+00:00 host1 app: winter")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if rec.Timestamp.Location() == time.Local {
		t.Fatal("expected a fixed offset, got the host's local zone")
	}
	if _, off := rec.Timestamp.AddDate(0, 6, 0).Zone(); off != 0 {
		t.Errorf("expected offset to stay 0 in summer, got %d", off)
	}
}

func TestSyslogParserYearOne(t *testing.T) {
	const ts = "0001-01-01T00:00:00.000000+00:00"
	rec, ok := NewSyslogParser().Parse(ts + " host1 app: epoch")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if !rec.HasTimestamp() {
		t.Error("expected a valid year-1 timestamp to count as parsed")
	}
	if rec.TimestampText() != ts {
		t.Errorf("expected %q, got %q", ts, rec.TimestampText())
	}
}
