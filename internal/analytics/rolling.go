package analytics

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"idxlens/pkg/contracts/domain"
)

// RollingCorrelation computes the Pearson correlation of two aligned series
// over a moving window. Each result point is dated at the window's trailing
// end. Inputs shorter than the window produce no points rather than NaN
// padding; NaN observations inside a window make that window's point NaN.
func RollingCorrelation(dates []time.Time, a, b []float64, window int) ([]domain.CorrelationPoint, error) {
	if window < 2 {
		return nil, fmt.Errorf("rolling correlation: window must be at least 2, got %d", window)
	}
	if len(a) != len(b) || len(a) != len(dates) {
		return nil, fmt.Errorf("rolling correlation: misaligned inputs (%d dates, %d vs %d observations)",
			len(dates), len(a), len(b))
	}

	if len(a) < window {
		return nil, nil
	}

	points := make([]domain.CorrelationPoint, 0, len(a)-window+1)
	for end := window; end <= len(a); end++ {
		wa, wb := a[end-window:end], b[end-window:end]
		points = append(points, domain.CorrelationPoint{
			Date:        dates[end-1],
			Correlation: stat.Correlation(wa, wb, nil),
		})
	}

	return points, nil
}

// RollingMean computes the moving average over a fixed window, aligned to
// the window end like RollingCorrelation.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("rolling mean: window must be positive, got %d", window)
	}
	if len(values) < window {
		return nil, nil
	}

	out := make([]float64, 0, len(values)-window+1)
	for end := window; end <= len(values); end++ {
		out = append(out, stat.Mean(values[end-window:end], nil))
	}
	return out, nil
}

// RollingStd computes the moving sample standard deviation over a fixed
// window.
func RollingStd(values []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("rolling std: window must be at least 2, got %d", window)
	}
	if len(values) < window {
		return nil, nil
	}

	out := make([]float64, 0, len(values)-window+1)
	for end := window; end <= len(values); end++ {
		out = append(out, stat.StdDev(values[end-window:end], nil))
	}
	return out, nil
}

// RollingReturnCorrelation is the composed operation the CLI exposes:
// difference both level series into returns, then roll the correlation
// window across them. The first return consumes one observation, so the
// result starts window+1 observations into the frame.
func RollingReturnCorrelation(frame *Frame, seriesA, seriesB string, window int, kind ReturnKind) ([]domain.CorrelationPoint, error) {
	a, err := frame.Column(seriesA)
	if err != nil {
		return nil, err
	}
	b, err := frame.Column(seriesB)
	if err != nil {
		return nil, err
	}

	retA, err := Returns(a, kind)
	if err != nil {
		return nil, err
	}
	retB, err := Returns(b, kind)
	if err != nil {
		return nil, err
	}

	return RollingCorrelation(frame.Dates[1:], retA, retB, window)
}

// CorrelationRecords converts correlation points to CSV rows for the exporter
func CorrelationRecords(points []domain.CorrelationPoint) ([]string, [][]string) {
	records := make([][]string, 0, len(points))
	for _, p := range points {
		records = append(records, []string{
			p.Date.Format(dateLayout),
			fmt.Sprintf("%.6f", p.Correlation),
		})
	}
	return []string{"Date", "Correlation"}, records
}
