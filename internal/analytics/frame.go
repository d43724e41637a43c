// Package analytics computes rolling-window statistics over index time
// series and converts between wide and long tabular layouts.
package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"idxlens/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// Frame is a date-indexed table of float64 series in wide layout: one
// column per series, rows ordered by date ascending.
type Frame struct {
	Dates  []time.Time
	Series map[string][]float64
}

// SeriesNames returns the column names sorted for deterministic iteration
func (f *Frame) SeriesNames() []string {
	names := make([]string, 0, len(f.Series))
	for name := range f.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Dates)
}

// Column returns one series by name
func (f *Frame) Column(name string) ([]float64, error) {
	col, ok := f.Series[name]
	if !ok {
		return nil, fmt.Errorf("series %q not in frame (have %v)", name, f.SeriesNames())
	}
	return col, nil
}

// LoadFrame reads a wide-layout CSV whose first column is the date and
// every further column is one series. Empty cells become NaN so gapped
// series keep their alignment.
func LoadFrame(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("frame %s: need a date column and at least one series", path)
	}

	frame := &Frame{Series: make(map[string][]float64, len(header)-1)}
	for _, name := range header[1:] {
		frame.Series[strings.TrimSpace(name)] = nil
	}

	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame %s line %d: %w", path, line, err)
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("frame %s line %d: invalid date %q: %w", path, line, row[0], err)
		}
		frame.Dates = append(frame.Dates, date)

		for i, name := range header[1:] {
			name = strings.TrimSpace(name)
			cell := ""
			if i+1 < len(row) {
				cell = strings.TrimSpace(row[i+1])
			}

			v := math.NaN()
			if cell != "" {
				v, err = strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
				if err != nil {
					return nil, fmt.Errorf("frame %s line %d: invalid value %q: %w", path, line, cell, err)
				}
			}
			frame.Series[name] = append(frame.Series[name], v)
		}
	}

	if frame.Len() == 0 {
		return nil, fmt.Errorf("frame %s: no data rows", path)
	}

	return frame, nil
}

// ReturnKind selects how Returns differences a series
type ReturnKind string

const (
	ReturnArithmetic ReturnKind = "arithmetic"
	ReturnLog        ReturnKind = "log"
)

// Returns derives a return series from a level series. The result has one
// fewer row than the input; rows whose inputs are NaN propagate NaN.
func Returns(levels []float64, kind ReturnKind) ([]float64, error) {
	if len(levels) < 2 {
		return nil, fmt.Errorf("returns: need at least 2 observations, got %d", len(levels))
	}

	out := make([]float64, len(levels)-1)
	for i := 1; i < len(levels); i++ {
		prev, cur := levels[i-1], levels[i]
		switch kind {
		case ReturnLog:
			out[i-1] = math.Log(cur / prev)
		case ReturnArithmetic:
			out[i-1] = cur/prev - 1
		default:
			return nil, fmt.Errorf("returns: unknown kind %q", kind)
		}
	}
	return out, nil
}

// FrameFromPoints assembles a Frame from wide-layout points, typically the
// output of LongToWide.
func FrameFromPoints(points []domain.IndexPoint) *Frame {
	frame := &Frame{Series: make(map[string][]float64)}

	names := make(map[string]struct{})
	for _, p := range points {
		for name := range p.Values {
			names[name] = struct{}{}
		}
	}

	for _, p := range points {
		frame.Dates = append(frame.Dates, p.Date)
		for name := range names {
			v, ok := p.Values[name]
			if !ok {
				v = math.NaN()
			}
			frame.Series[name] = append(frame.Series[name], v)
		}
	}

	return frame
}
