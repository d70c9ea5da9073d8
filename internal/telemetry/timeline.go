// internal/telemetry/timeline.go
// Package: telemetry
package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/lmbench/internal/results"
)

// WriteTimeline writes the windowed samples as CSV, one row per sample, with
// the request active at that instant (the first record whose send/response
// span contains it). Rows outside every request leave those columns empty.
func WriteTimeline(w io.Writer, c Correlation, records []results.Record) error {
	cw := csv.NewWriter(w)

	header := append([]string{"timestamp"}, c.Columns...)
	header = append(header, "size_category", "record")
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, s := range c.Samples {
		row = row[:0]
		row = append(row, s.Time.Format(results.TimestampLayout))
		for _, v := range s.Values {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if i := activeRecord(records, s); i >= 0 {
			row = append(row, records[i].SizeCategory, strconv.Itoa(i))
		} else {
			row = append(row, "", "")
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func activeRecord(records []results.Record, s Sample) int {
	for i, r := range records {
		if r.HasSpan() && !s.Time.Before(r.TimestampSend.Time) && !s.Time.After(r.TimestampResponse.Time) {
			return i
		}
	}
	return -1
}

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Render prints the window, sample counts and offset statistics.
func Render(w io.Writer, series *Series, c Correlation) {
	fmt.Fprintln(w, titleStyle.Render("Telemetry correlation"))
	fmt.Fprintf(w, "%s %d (%d with a valid timestamp)\n", labelStyle.Render("Telemetry rows:"), len(series.Samples), series.ValidCount())
	fmt.Fprintf(w, "%s %v\n", labelStyle.Render("Metric columns:"), c.Columns)
	if !c.HasWindow {
		fmt.Fprintln(w, warnStyle.Render("No request carries both timestamps; nothing to correlate."))
		return
	}
	fmt.Fprintf(w, "%s %s to %s\n", labelStyle.Render("Request window:"),
		c.WindowStart.Format(results.TimestampLayout), c.WindowEnd.Format(results.TimestampLayout))
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Rows in window:"), len(c.Samples))
	if len(c.Samples) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No telemetry inside the request window; check clocks and timestamp layout."))
		return
	}

	d := DescribeOffsets(c)
	fmt.Fprintf(w, "%s %d of %d\n", labelStyle.Render("Matched requests:"), d.Count, len(c.Matches))
	fmt.Fprintln(w, titleStyle.Render("Send-to-sample offset (seconds)"))
	fmt.Fprintf(w, "  count %d\n  mean  %.3f\n  std   %.3f\n  min   %.3f\n  25%%   %.3f\n  50%%   %.3f\n  75%%   %.3f\n  max   %.3f\n",
		d.Count, d.Mean, d.Std, d.Min, d.P25, d.P50, d.P75, d.Max)
}
