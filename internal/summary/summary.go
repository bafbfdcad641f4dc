// Package summary computes descriptive statistics over a record collection.
package summary

import (
	"sort"
	"time"

	"github.com/atikulmunna/syslens/internal/model"
)

// Stats holds a point-in-time snapshot of a collection.
type Stats struct {
	Total    int            `json:"total"`
	Unparsed int            `json:"unparsed_timestamps"`
	Hosts    map[string]int `json:"hosts"`
	Apps     map[string]int `json:"apps"`
	First    time.Time      `json:"first"` // earliest comparable timestamp
	Last     time.Time      `json:"last"`  // latest comparable timestamp
	Dates    []model.Date   `json:"dates"` // distinct record-local dates, ascending
}

// Summarize walks c once and returns its Stats.
func Summarize(c model.Collection) Stats {
	s := Stats{
		Total: len(c),
		Hosts: make(map[string]int),
		Apps:  make(map[string]int),
	}

	dates := make(map[model.Date]bool)
	seen := false
	for _, r := range c {
		s.Hosts[r.Hostname]++
		s.Apps[r.AppName]++

		if !r.HasTimestamp() {
			s.Unparsed++
			continue
		}
		if !seen || r.Timestamp.Before(s.First) {
			s.First = r.Timestamp
		}
		if !seen || r.Timestamp.After(s.Last) {
			s.Last = r.Timestamp
		}
		seen = true
		dates[model.DateOf(r.Timestamp)] = true
	}

	s.Dates = make([]model.Date, 0, len(dates))
	for d := range dates {
		s.Dates = append(s.Dates, d)
	}
	sort.Slice(s.Dates, func(i, j int) bool { return s.Dates[i].Compare(s.Dates[j]) < 0 })

	return s
}

// DefaultRange spans every available date over the whole day, the range a
// user starts from before narrowing. ok is false when no record has a
// comparable timestamp.
func (s Stats) DefaultRange() (r model.TimeRange, ok bool) {
	if len(s.Dates) == 0 {
		return model.TimeRange{}, false
	}
	return model.TimeRange{
		StartDate: s.Dates[0],
		EndDate:   s.Dates[len(s.Dates)-1],
		StartTime: model.StartOfDay,
		EndTime:   model.EndOfDay,
	}, true
}

// Count is one key of a frequency table.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Top returns the n most frequent keys of m, ties broken by key.
// n <= 0 returns every key.
func Top(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
