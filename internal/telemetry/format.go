// internal/telemetry/format.go
// Package: telemetry
package telemetry

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// DefaultMetrics are the HWiNFO power columns of interest, in the Italian and
// English spellings the logger uses.
var DefaultMetrics = []string{
	"Potenza totale CPU [W]",
	"CPU Package Power [W]",
	"Potenza Core IA [W]",
	"IA Cores Power [W]",
	"VR VCC Corrente (SVID IOUT) [A]",
	"VR VCC Current (SVID IOUT) [A]",
	"GPU Potenza [W]",
	"GPU Power [W]",
	"IGPU Potenza [W]",
	"IGPU Power [W]",
	"Potenza DRAM totale [W]",
	"Consumo energetico resto del chip [W]",
	"Rest-of-Chip Power [W]",
}

// Format describes how a telemetry CSV is written.
type Format struct {
	// Encoding is "latin-1" (alias "iso-8859-1"), "windows-1252" or "utf-8".
	Encoding  string
	Delimiter rune

	Decimal   string
	Thousands string

	DateColumn string
	TimeColumn string
	// Layout parses "<date> <time>". Fractional seconds after the seconds
	// field are accepted even when the layout omits them.
	Layout   string
	Location *time.Location

	// Metrics lists the columns to keep, in output order. Columns missing
	// from a file are ignored.
	Metrics []string
}

// DefaultFormat returns the HWiNFO export format.
func DefaultFormat() Format {
	return Format{
		Encoding:   "latin-1",
		Delimiter:  ',',
		Decimal:    ".",
		Thousands:  ",",
		DateColumn: "Date",
		TimeColumn: "Time",
		Layout:     "2.1.2006 15:04:05",
		Location:   time.Local,
		Metrics:    append([]string(nil), DefaultMetrics...),
	}
}

func (f Format) withDefaults() Format {
	def := DefaultFormat()
	if f.Encoding == "" {
		f.Encoding = def.Encoding
	}
	if f.Delimiter == 0 {
		f.Delimiter = def.Delimiter
	}
	if f.Decimal == "" {
		f.Decimal = def.Decimal
	}
	if f.DateColumn == "" {
		f.DateColumn = def.DateColumn
	}
	if f.TimeColumn == "" {
		f.TimeColumn = def.TimeColumn
	}
	if f.Layout == "" {
		f.Layout = def.Layout
	}
	if f.Location == nil {
		f.Location = def.Location
	}
	if len(f.Metrics) == 0 {
		f.Metrics = def.Metrics
	}
	return f
}

func (f Format) decode(r io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(f.Encoding)) {
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	case "utf-8", "utf8":
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported telemetry encoding %q", f.Encoding)
	}
}

// parseNumber applies the separators; anything unparsable yields 0.
func (f Format) parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f.Thousands != "" && f.Thousands != f.Decimal {
		s = strings.ReplaceAll(s, f.Thousands, "")
	}
	if f.Decimal != "." {
		s = strings.ReplaceAll(s, f.Decimal, ".")
	}
	v, err := parseFloat(s)
	if err != nil {
		return 0
	}
	return v
}

func (f Format) parseTime(date, clock string) (time.Time, bool) {
	t, err := time.ParseInLocation(f.Layout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), f.Location)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
