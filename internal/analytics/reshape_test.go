package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idxlens/pkg/contracts/domain"
)

func TestWideToLong(t *testing.T) {
	frame := &Frame{
		Dates: dates(2),
		Series: map[string][]float64{
			"B": {10, 20},
			"A": {1, math.NaN()},
		},
	}

	obs := WideToLong(frame)
	require.Len(t, obs, 3, "NaN gaps are dropped")

	// Ordered by date then series name.
	assert.Equal(t, domain.Observation{Date: frame.Dates[0], Series: "A", Value: 1}, obs[0])
	assert.Equal(t, domain.Observation{Date: frame.Dates[0], Series: "B", Value: 10}, obs[1])
	assert.Equal(t, domain.Observation{Date: frame.Dates[1], Series: "B", Value: 20}, obs[2])
}

func TestLongToWide(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	obs := []domain.Observation{
		// Deliberately unsorted.
		{Date: d2, Series: "A", Value: 2},
		{Date: d1, Series: "A", Value: 1},
		{Date: d1, Series: "B", Value: 10},
	}

	frame := LongToWide(obs)
	require.Equal(t, 2, frame.Len())
	assert.Equal(t, []time.Time{d1, d2}, frame.Dates)

	a, err := frame.Column("A")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, a)

	b, err := frame.Column("B")
	require.NoError(t, err)
	assert.Equal(t, 10.0, b[0])
	assert.True(t, math.IsNaN(b[1]), "missing pair becomes NaN")
}

func TestLongToWideLastWriteWins(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	frame := LongToWide([]domain.Observation{
		{Date: d, Series: "A", Value: 1},
		{Date: d, Series: "A", Value: 99},
	})

	a, err := frame.Column("A")
	require.NoError(t, err)
	assert.Equal(t, []float64{99}, a)
}

func TestReshapeRoundTrip(t *testing.T) {
	frame := &Frame{
		Dates: dates(3),
		Series: map[string][]float64{
			"ISX60": {100, 101, 102},
			"ISX15": {200, 201, 202},
		},
	}

	back := LongToWide(WideToLong(frame))
	require.Equal(t, frame.Len(), back.Len())
	assert.Equal(t, frame.Dates, back.Dates)
	assert.Equal(t, frame.Series["ISX60"], back.Series["ISX60"])
	assert.Equal(t, frame.Series["ISX15"], back.Series["ISX15"])
}

func TestObservationRecords(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	headers, records := ObservationRecords([]domain.Observation{
		{Date: d, Series: "ISX60", Value: 1050.25},
	})

	assert.Equal(t, []string{"Date", "Series", "Value"}, headers)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"2024-01-02", "ISX60", "1050.25"}, records[0])
}

func TestFrameFromPoints(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	frame := FrameFromPoints([]domain.IndexPoint{
		{Date: d1, Values: map[string]float64{"A": 1, "B": 2}},
		{Date: d2, Values: map[string]float64{"A": 3}},
	})

	require.Equal(t, 2, frame.Len())
	a, err := frame.Column("A")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, a)

	b, err := frame.Column("B")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(b[1]))
}
