// internal/telemetry/reader.go
// Package: telemetry
package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sample is one telemetry row. Values is aligned with Series.Columns. A sample
// whose date or time did not parse has Valid false and never matches a
// request.
type Sample struct {
	Row    int
	Time   time.Time
	Valid  bool
	Values []float64
}

// Series is a decoded telemetry log in file order.
type Series struct {
	Columns []string
	Samples []Sample
}

// ValidCount returns the number of samples with a parsed timestamp.
func (s *Series) ValidCount() int {
	n := 0
	for _, smp := range s.Samples {
		if smp.Valid {
			n++
		}
	}
	return n
}

// ReadFile opens path and decodes it with ReadCSV.
func ReadFile(path string, f Format) (*Series, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry: %w", err)
	}
	defer fh.Close()

	s, err := ReadCSV(fh, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadCSV decodes a telemetry CSV. Only the configured metric columns present
// in the header are kept; unparsable values become 0.
func ReadCSV(r io.Reader, f Format) (*Series, error) {
	f = f.withDefaults()
	dec, err := f.decode(r)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dec)
	cr.Comma = f.Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("telemetry file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read telemetry header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := cleanHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	dateCol, ok := index[f.DateColumn]
	if !ok {
		return nil, fmt.Errorf("telemetry has no %q column", f.DateColumn)
	}
	timeCol, ok := index[f.TimeColumn]
	if !ok {
		return nil, fmt.Errorf("telemetry has no %q column", f.TimeColumn)
	}

	s := &Series{}
	var cols []int
	for _, m := range f.Metrics {
		if i, ok := index[m]; ok {
			s.Columns = append(s.Columns, m)
			cols = append(cols, i)
		}
	}

	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read telemetry row %d: %w", row, err)
		}

		smp := Sample{Row: row, Values: make([]float64, len(cols))}
		smp.Time, smp.Valid = f.parseTime(field(rec, dateCol), field(rec, timeCol))
		for j, c := range cols {
			smp.Values[j] = f.parseNumber(field(rec, c))
		}
		s.Samples = append(s.Samples, smp)
	}
	return s, nil
}

// cleanHeader strips whitespace and a byte-order mark, including one that was
// decoded as latin-1.
func cleanHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimPrefix(h, "\u00ef\u00bb\u00bf")
	return strings.TrimSpace(h)
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}
