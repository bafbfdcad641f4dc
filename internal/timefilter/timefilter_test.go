package timefilter

import (
	"testing"
	"time"

	"github.com/atikulmunna/syslens/internal/model"
)

func rec(t *testing.T, ts string) model.LogRecord {
	t.Helper()
	parsed, err := time.Parse(model.TimestampLayout, ts)
	if err != nil {
		t.Fatal(err)
	}
	return model.LogRecord{Timestamp: parsed, RawTimestamp: ts, Hostname: "h", AppName: "a", Message: ts}
}

func rng(t *testing.T, from, to, start, end string) model.TimeRange {
	t.Helper()
	sd, err := model.ParseDate(from)
	if err != nil {
		t.Fatal(err)
	}
	ed, err := model.ParseDate(to)
	if err != nil {
		t.Fatal(err)
	}
	st, err := model.ParseTimeOfDay(start)
	if err != nil {
		t.Fatal(err)
	}
	et, err := model.ParseTimeOfDay(end)
	if err != nil {
		t.Fatal(err)
	}
	return model.TimeRange{StartDate: sd, EndDate: ed, StartTime: st, EndTime: et}
}

func messages(c model.Collection) []string {
	out := make([]string, len(c))
	for i, r := range c {
		out[i] = r.Message
	}
	return out
}

func TestByDayWindow(t *testing.T) {
	c := model.Collection{
		rec(t, "2022-12-31T11:00:00.000000+00:00"),
		rec(t, "2023-01-01T09:59:59.999999+00:00"),
		rec(t, "2023-01-01T10:00:00.000000+00:00"),
		rec(t, "2023-01-02T12:00:00.000000+00:00"),
		rec(t, "2023-01-02T12:00:00.000001+00:00"),
		rec(t, "2023-01-02T23:50:00.000000+00:00"),
		rec(t, "2023-01-03T11:00:00.000000+00:00"),
	}

	got, warnings := ByDayWindow(c, rng(t, "2023-01-01", "2023-01-02", "10:00", "12:00"))
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	want := []string{"2023-01-01T10:00:00.000000+00:00", "2023-01-02T12:00:00.000000+00:00"}
	if m := messages(got); len(m) != len(want) || m[0] != want[0] || m[1] != want[1] {
		t.Errorf("expected %v, got %v", want, m)
	}
}

func TestByDayWindowUsesRecordOffset(t *testing.T) {
	// 23:30 at +09:00 is 14:30 UTC; the record's own clock decides.
	c := model.Collection{rec(t, "2023-01-01T23:30:00.000000+09:00")}

	got, _ := ByDayWindow(c, rng(t, "2023-01-01", "2023-01-01", "23:00", "23:59"))
	if len(got) != 1 {
		t.Errorf("expected record to match on its local clock, got %d", len(got))
	}
}

func TestByInstantInclusiveEnd(t *testing.T) {
	c := model.Collection{
		rec(t, "2023-01-01T10:00:00.000000+00:00"),
		rec(t, "2023-01-01T12:00:59.999999+00:00"),
		rec(t, "2023-01-01T12:01:00.000000+00:00"),
	}

	got, warnings := ByInstant(c, rng(t, "2023-01-01", "2023-01-01", "10:00", "12:00"), "")
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %v", messages(got))
	}
	if got[1].Message != "2023-01-01T12:00:59.999999+00:00" {
		t.Errorf("expected end boundary to be inclusive, got %v", messages(got))
	}
}

func TestByInstantSpansDays(t *testing.T) {
	c := model.Collection{
		rec(t, "2023-01-01T21:59:00.000000+00:00"),
		rec(t, "2023-01-01T23:30:00.000000+00:00"),
		rec(t, "2023-01-02T01:15:00.000000+00:00"),
		rec(t, "2023-01-02T02:01:00.000000+00:00"),
	}
	r := rng(t, "2023-01-01", "2023-01-02", "22:00", "02:00")

	got, _ := ByInstant(c, r, "")
	if len(got) != 2 {
		t.Errorf("expected the two records inside the span, got %v", messages(got))
	}

	// The same range in day mode requires 22:00 <= clock <= 02:00, which nothing satisfies.
	if day, _ := ByDayWindow(c, r); len(day) != 0 {
		t.Errorf("expected day mode to match nothing, got %v", messages(day))
	}
}

func TestByInstantNamedZone(t *testing.T) {
	if _, err := time.LoadLocation("Asia/Tokyo"); err != nil {
		t.Skip("tzdata not available")
	}
	c := model.Collection{
		rec(t, "2023-01-01T01:00:00.000000+00:00"), // 10:00 in Tokyo
		rec(t, "2023-01-01T10:00:00.000000+00:00"), // 19:00 in Tokyo
	}

	got, warnings := ByInstant(c, rng(t, "2023-01-01", "2023-01-01", "10:00", "10:00"), "Asia/Tokyo")
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if len(got) != 1 || got[0].Message != "2023-01-01T01:00:00.000000+00:00" {
		t.Errorf("expected only the 10:00 JST record, got %v", messages(got))
	}
}

func TestByInstantUnknownZoneFallsBack(t *testing.T) {
	c := model.Collection{
		rec(t, "2023-01-01T10:30:00.000000+09:00"),
		rec(t, "2023-01-01T10:30:00.000000-05:00"),
		rec(t, "2023-01-01T11:30:00.000000+00:00"),
	}

	got, warnings := ByInstant(c, rng(t, "2023-01-01", "2023-01-01", "10:00", "10:59"), "Mars/Olympus_Mons")
	if len(warnings) != 1 || warnings[0].Kind != model.WarnTimezoneFallback {
		t.Fatalf("expected a timezone_fallback warning, got %v", warnings)
	}
	if len(got) != 2 {
		t.Errorf("expected wall-clock 10:30 records regardless of offset, got %v", messages(got))
	}
}

func TestUnparsedTimestampsExcluded(t *testing.T) {
	c := model.Collection{
		{RawTimestamp: "2023-13-01T10:00:00.000000+00:00", Hostname: "h", AppName: "a", Message: "bad"},
		rec(t, "2023-01-01T10:00:00.000000+00:00"),
	}
	r := rng(t, "2000-01-01", "2100-01-01", "00:00", "23:59")

	for _, mode := range []Mode{DayWindow, Instant} {
		got, _ := Apply(c, Params{Mode: mode, Range: r})
		if len(got) != 1 || got[0].Message == "bad" {
			t.Errorf("%s: expected unparsed record excluded, got %v", mode, messages(got))
		}
	}
}

func TestReversedRangeWarnsAndIsEmpty(t *testing.T) {
	c := model.Collection{rec(t, "2023-01-01T10:00:00.000000+00:00")}
	r := rng(t, "2023-01-02", "2023-01-01", "00:00", "23:59")

	for _, mode := range []Mode{DayWindow, Instant} {
		got, warnings := Apply(c, Params{Mode: mode, Range: r})
		if len(got) != 0 {
			t.Errorf("%s: expected empty result, got %v", mode, messages(got))
		}
		if len(warnings) != 1 || warnings[0].Kind != model.WarnReversedRange {
			t.Errorf("%s: expected reversed_range warning, got %v", mode, warnings)
		}
	}
}

func TestIdempotent(t *testing.T) {
	c := model.Collection{
		rec(t, "2023-01-01T09:00:00.000000+00:00"),
		rec(t, "2023-01-01T10:30:00.000000+00:00"),
		rec(t, "2023-01-01T12:00:30.000000+00:00"),
		rec(t, "2023-01-02T10:30:00.000000+00:00"),
	}
	r := rng(t, "2023-01-01", "2023-01-01", "10:00", "12:00")

	for _, mode := range []Mode{DayWindow, Instant} {
		once, _ := Apply(c, Params{Mode: mode, Range: r})
		twice, _ := Apply(once, Params{Mode: mode, Range: r})
		if len(once) != len(twice) {
			t.Fatalf("%s: expected %d records after second pass, got %d", mode, len(once), len(twice))
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Errorf("%s: record %d differs after second pass", mode, i)
			}
		}
	}
}

func TestInputNotModified(t *testing.T) {
	c := model.Collection{
		rec(t, "2023-01-01T09:00:00.000000+00:00"),
		rec(t, "2023-01-01T10:30:00.000000+00:00"),
	}
	before := c[0]

	ByDayWindow(c, rng(t, "2023-01-01", "2023-01-01", "10:00", "12:00"))
	if len(c) != 2 || c[0] != before {
		t.Error("expected input collection to be left untouched")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", DayWindow, false},
		{"day", DayWindow, false},
		{"INSTANT", Instant, false},
		{"week", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestByInstantIgnoresHostZone(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	saved := time.Local
	time.Local = london
	t.Cleanup(func() { time.Local = saved })

	// time.Parse returns time.Local for the January record, whose offset matches London in winter.
	c := model.Collection{
		rec(t, "2023-01-15T09:00:00.000000+00:00"),
		rec(t, "2023-07-01T10:00:30.000000+00:00"),
	}
	out, warnings := ByInstant(c, rng(t, "2023-07-01", "2023-07-01", "10:00", "10:00"), "")
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings %v", warnings)
	}
	if len(out) != 1 || out[0].Message != "2023-07-01T10:00:30.000000+00:00" {
		t.Errorf("expected the 10:00:30 record, got %v", messages(out))
	}
}
