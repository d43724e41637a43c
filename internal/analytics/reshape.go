package analytics

import (
	"math"
	"sort"
	"strconv"
	"time"

	"idxlens/pkg/contracts/domain"
)

// WideToLong melts a frame into one row per (date, series, value) triple.
// NaN cells (gaps) are dropped, so LongToWide(WideToLong(f)) reproduces f
// up to gap placement. Output is ordered by date, then series name.
func WideToLong(frame *Frame) []domain.Observation {
	names := frame.SeriesNames()

	var out []domain.Observation
	for i, date := range frame.Dates {
		for _, name := range names {
			v := frame.Series[name][i]
			if math.IsNaN(v) {
				continue
			}
			out = append(out, domain.Observation{Date: date, Series: name, Value: v})
		}
	}
	return out
}

// LongToWide pivots long-layout observations back to a wide frame. Dates
// are sorted ascending; a (date, series) pair observed twice keeps the last
// value, matching the last-write-wins posture of the rest of the pipeline.
func LongToWide(observations []domain.Observation) *Frame {
	byDate := make(map[time.Time]map[string]float64)
	names := make(map[string]struct{})

	for _, o := range observations {
		if byDate[o.Date] == nil {
			byDate[o.Date] = make(map[string]float64)
		}
		byDate[o.Date][o.Series] = o.Value
		names[o.Series] = struct{}{}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	frame := &Frame{Series: make(map[string][]float64, len(names))}
	for _, d := range dates {
		frame.Dates = append(frame.Dates, d)
		for name := range names {
			v, ok := byDate[d][name]
			if !ok {
				v = math.NaN()
			}
			frame.Series[name] = append(frame.Series[name], v)
		}
	}

	return frame
}

// ObservationRecords converts long-layout observations to CSV rows
func ObservationRecords(observations []domain.Observation) ([]string, [][]string) {
	records := make([][]string, 0, len(observations))
	for _, o := range observations {
		records = append(records, []string{
			o.Date.Format(dateLayout),
			o.Series,
			strconv.FormatFloat(o.Value, 'f', -1, 64),
		})
	}
	return []string{"Date", "Series", "Value"}, records
}
