// internal/telemetry/correlate.go
// Package: telemetry
package telemetry

import (
	"sort"
	"time"

	"github.com/mwiater/lmbench/internal/results"
	"github.com/mwiater/lmbench/internal/stats"
)

// Match pairs a request with its nearest telemetry sample.
type Match struct {
	// Record indexes the records passed to Correlate.
	Record int
	// Sample indexes Correlation.Samples; -1 when unmatched.
	Sample     int
	SampleTime time.Time
	// Offset is request send time minus sample time.
	Offset time.Duration
	OK     bool
}

// Correlation is the result of aligning a telemetry series with a run.
type Correlation struct {
	Columns []string

	// Window is [earliest send, latest response] over records carrying both
	// timestamps. HasWindow is false when no record does.
	WindowStart time.Time
	WindowEnd   time.Time
	HasWindow   bool

	// Samples are the valid samples inside the window, sorted by time.
	Samples []Sample
	Matches []Match
}

// Matched returns the matches that found a sample.
func (c Correlation) Matched() []Match {
	var out []Match
	for _, m := range c.Matches {
		if m.OK {
			out = append(out, m)
		}
	}
	return out
}

// Correlate restricts the series to the window spanned by records and finds,
// for each record, the sample nearest to its send time. Ties go to the first
// sample in time order. Neither input is modified.
func Correlate(series *Series, records []results.Record) Correlation {
	c := Correlation{Matches: make([]Match, len(records))}
	if series != nil {
		c.Columns = series.Columns
	}

	for _, r := range records {
		if !r.HasSpan() {
			continue
		}
		if !c.HasWindow || r.TimestampSend.Before(c.WindowStart) {
			c.WindowStart = r.TimestampSend.Time
		}
		if !c.HasWindow || r.TimestampResponse.After(c.WindowEnd) {
			c.WindowEnd = r.TimestampResponse.Time
		}
		c.HasWindow = true
	}

	if c.HasWindow && series != nil {
		for _, s := range series.Samples {
			if s.Valid && !s.Time.Before(c.WindowStart) && !s.Time.After(c.WindowEnd) {
				c.Samples = append(c.Samples, s)
			}
		}
		sort.SliceStable(c.Samples, func(i, j int) bool {
			return c.Samples[i].Time.Before(c.Samples[j].Time)
		})
	}

	for i, r := range records {
		m := Match{Record: i, Sample: -1}
		if !r.TimestampSend.IsZero() {
			if idx := nearest(c.Samples, r.TimestampSend.Time); idx >= 0 {
				m.Sample = idx
				m.SampleTime = c.Samples[idx].Time
				m.Offset = r.TimestampSend.Sub(m.SampleTime)
				m.OK = true
			}
		}
		c.Matches[i] = m
	}
	return c
}

// nearest returns the index of the sample closest to t in time-sorted
// samples, or -1 when there are none.
func nearest(samples []Sample, t time.Time) int {
	if len(samples) == 0 {
		return -1
	}
	i := sort.Search(len(samples), func(i int) bool { return !samples[i].Time.Before(t) })

	best := i
	switch {
	case i == len(samples):
		best = i - 1
	case i > 0 && absDur(t.Sub(samples[i-1].Time)) <= absDur(samples[i].Time.Sub(t)):
		best = i - 1
	}
	// first occurrence of that timestamp
	ts := samples[best].Time
	return sort.Search(best+1, func(i int) bool { return !samples[i].Time.Before(ts) })
}

func absDur(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// DescribeOffsets summarises the match offsets in seconds.
func DescribeOffsets(c Correlation) stats.Description {
	var secs []float64
	for _, m := range c.Matches {
		if m.OK {
			secs = append(secs, m.Offset.Seconds())
		}
	}
	return stats.Describe(secs)
}
