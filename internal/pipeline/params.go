package pipeline

import (
	"errors"
	"strings"

	"github.com/atikulmunna/syslens/internal/model"
	"github.com/atikulmunna/syslens/internal/summary"
	"github.com/atikulmunna/syslens/internal/timefilter"
)

// ErrNoDates is returned when a date bound must be defaulted but no record
// carries a comparable timestamp.
var ErrNoDates = errors.New("no record has a parseable timestamp to default the date range from")

// RangeInput is the textual form of a time filter as typed by a user.
// Empty fields take their defaults: the first and last available date, and
// 00:00 / 23:59.
type RangeInput struct {
	From      string
	To        string
	StartTime string
	EndTime   string
	Mode      string
	Zone      string
}

// IsZero reports whether no bound was given, meaning no time stage runs.
func (in RangeInput) IsZero() bool {
	return strings.TrimSpace(in.From) == "" && strings.TrimSpace(in.To) == "" &&
		strings.TrimSpace(in.StartTime) == "" && strings.TrimSpace(in.EndTime) == ""
}

// UnusedTimeOptions warns about a mode or zone that was given without any
// date or time bound. No time stage runs in that case.
func (in RangeInput) UnusedTimeOptions() []model.Warning {
	if !in.IsZero() {
		return nil
	}
	var warnings []model.Warning
	if s := strings.TrimSpace(in.Mode); s != "" {
		warnings = append(warnings, model.Warnf(model.WarnUnusedOption,
			"time filter mode %q ignored: no date or time bound given", s))
	}
	if s := strings.TrimSpace(in.Zone); s != "" {
		warnings = append(warnings, model.Warnf(model.WarnUnusedOption,
			"time zone %q ignored: no date or time bound given", s))
	}
	return warnings
}

// Resolve parses in against the available dates of c. It returns nil
// params when in is zero.
func (in RangeInput) Resolve(c model.Collection) (*timefilter.Params, error) {
	if in.IsZero() {
		return nil, nil
	}

	mode, err := timefilter.ParseMode(in.Mode)
	if err != nil {
		return nil, err
	}

	def, ok := summary.Summarize(c).DefaultRange()
	r := def

	if s := strings.TrimSpace(in.From); s != "" {
		if r.StartDate, err = model.ParseDate(s); err != nil {
			return nil, err
		}
	} else if !ok {
		return nil, ErrNoDates
	}
	if s := strings.TrimSpace(in.To); s != "" {
		if r.EndDate, err = model.ParseDate(s); err != nil {
			return nil, err
		}
	} else if !ok {
		return nil, ErrNoDates
	}

	r.StartTime, r.EndTime = model.StartOfDay, model.EndOfDay
	if s := strings.TrimSpace(in.StartTime); s != "" {
		if r.StartTime, err = model.ParseTimeOfDay(s); err != nil {
			return nil, err
		}
	}
	if s := strings.TrimSpace(in.EndTime); s != "" {
		if r.EndTime, err = model.ParseTimeOfDay(s); err != nil {
			return nil, err
		}
	}

	return &timefilter.Params{Mode: mode, Range: r, Zone: strings.TrimSpace(in.Zone)}, nil
}
