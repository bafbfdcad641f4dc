package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/atikulmunna/syslens/internal/model"
	"github.com/atikulmunna/syslens/internal/timefilter"
)

func collection() model.Collection {
	return model.Collection{
		{Timestamp: time.Date(2023, 1, 3, 9, 0, 0, 0, time.UTC), Hostname: "a"},
		{Timestamp: time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC), Hostname: "b"},
		{RawTimestamp: "garbage", Hostname: "c"},
	}
}

func TestRangeInputZero(t *testing.T) {
	p, err := RangeInput{Mode: "instant", Zone: "UTC"}.Resolve(collection())
	if err != nil || p != nil {
		t.Errorf("expected no time stage, got %+v, %v", p, err)
	}
}

func TestRangeInputDefaults(t *testing.T) {
	p, err := RangeInput{StartTime: "08:15"}.Resolve(collection())
	if err != nil {
		t.Fatal(err)
	}
	want := model.TimeRange{
		StartDate: model.Date{Year: 2023, Month: 1, Day: 1},
		EndDate:   model.Date{Year: 2023, Month: 1, Day: 3},
		StartTime: model.TimeOfDay{Hour: 8, Minute: 15},
		EndTime:   model.EndOfDay,
	}
	if p.Range != want {
		t.Errorf("expected %+v, got %+v", want, p.Range)
	}
	if p.Mode != timefilter.DayWindow {
		t.Errorf("expected day mode, got %q", p.Mode)
	}
}

func TestRangeInputExplicit(t *testing.T) {
	p, err := RangeInput{From: "2022-12-31", To: "2023-01-02", EndTime: "12:00", Mode: "INSTANT", Zone: " Asia/Tokyo "}.Resolve(nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Range.StartDate.String() != "2022-12-31" || p.Range.EndDate.String() != "2023-01-02" {
		t.Errorf("unexpected dates %+v", p.Range)
	}
	if p.Range.StartTime != model.StartOfDay || p.Range.EndTime != (model.TimeOfDay{Hour: 12}) {
		t.Errorf("unexpected times %+v", p.Range)
	}
	if p.Mode != timefilter.Instant || p.Zone != "Asia/Tokyo" {
		t.Errorf("unexpected mode/zone %q %q", p.Mode, p.Zone)
	}
}

func TestRangeInputErrors(t *testing.T) {
	tests := []struct {
		name string
		in   RangeInput
		c    model.Collection
	}{
		{"bad from", RangeInput{From: "2023/01/01"}, collection()},
		{"bad to", RangeInput{To: "tomorrow"}, collection()},
		{"bad start", RangeInput{StartTime: "25:00"}, collection()},
		{"bad end", RangeInput{EndTime: "12"}, collection()},
		{"bad mode", RangeInput{From: "2023-01-01", Mode: "week"}, collection()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.in.Resolve(tt.c); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRangeInputNoDates(t *testing.T) {
	_, err := RangeInput{From: "2023-01-01"}.Resolve(model.Collection{{RawTimestamp: "x"}})
	if !errors.Is(err, ErrNoDates) {
		t.Errorf("expected ErrNoDates, got %v", err)
	}
}

func TestRangeInputUnusedTimeOptions(t *testing.T) {
	warnings := RangeInput{Mode: "instant", Zone: "Asia/Tokyo"}.UnusedTimeOptions()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	for _, w := range warnings {
		if w.Kind != model.WarnUnusedOption {
			t.Errorf("expected unused_option, got %s", w.Kind)
		}
	}

	if w := (RangeInput{From: "2023-01-01", Mode: "instant", Zone: "UTC"}).UnusedTimeOptions(); len(w) != 0 {
		t.Errorf("expected no warnings with a bound, got %v", w)
	}
	if w := (RangeInput{}).UnusedTimeOptions(); len(w) != 0 {
		t.Errorf("expected no warnings without options, got %v", w)
	}
}
