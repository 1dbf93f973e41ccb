package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// stepsOver produces one quarter-hour step per interval from start, with a
// simple deterministic pattern of energy flows.
func stepsOver(start time.Time, n int) []types.StepResult {
	steps := make([]types.StepResult, 0, n)
	for i := 0; i < n; i++ {
		steps = append(steps, types.StepResult{
			Timestamp:      start.Add(time.Duration(i) * 15 * time.Minute),
			DurationHours:  0.25,
			AbsorbedWH:     float64(i % 5 * 100),
			ReleasedWH:     float64(i % 3 * 50),
			LossesWH:       float64(i % 2 * 10),
			ExcessWH:       float64(i % 7 * 20),
			UnmetDeficitWH: float64(i % 4 * 30),
			GasDisplacedM3: float64(i%5) * 0.01,
			StoredWH:       float64(i),
		})
	}
	return steps
}

func TestAggregateDaily(t *testing.T) {
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	steps := stepsOver(start, 96*3) // three full days

	days := Aggregate(steps, types.GranularityDay)
	require.Len(t, days, 3)

	for i, d := range days {
		assert.Equal(t, start.AddDate(0, 0, i), d.PeriodStart)
		assert.Equal(t, start.AddDate(0, 0, i+1), d.PeriodEnd)
		assert.Equal(t, types.GranularityDay, d.Granularity)
		assert.Equal(t, 96, d.Steps)
		assert.InDelta(t, 24.0, d.TotalDurationHours, 1e-9)
	}

	// The end-of-period stored energy is a point value, not a sum.
	assert.InDelta(t, 95.0, days[0].EndStoredWH, 1e-9)
	assert.InDelta(t, 191.0, days[1].EndStoredWH, 1e-9)
}

func TestAggregateDaysSumToMonth(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	steps := stepsOver(start, 96*30) // all of June

	days := Aggregate(steps, types.GranularityDay)
	months := Aggregate(steps, types.GranularityMonth)
	require.Len(t, months, 1)

	var absorbed, released, losses float64
	for _, d := range days {
		absorbed += d.TotalAbsorbedWH
		released += d.TotalReleasedWH
		losses += d.TotalLossesWH
	}
	assert.InDelta(t, months[0].TotalAbsorbedWH, absorbed, 1e-6)
	assert.InDelta(t, months[0].TotalReleasedWH, released, 1e-6)
	assert.InDelta(t, months[0].TotalLossesWH, losses, 1e-6)
	assert.InDelta(t, months[0].EndStoredWH, days[len(days)-1].EndStoredWH, 1e-9)
}

func TestAggregateWeekAlignment(t *testing.T) {
	// 2024-06-12 is a Wednesday; its week starts Monday 2024-06-10.
	ts := time.Date(2024, 6, 12, 13, 30, 0, 0, time.UTC)
	weeks := Aggregate([]types.StepResult{{Timestamp: ts, DurationHours: 0.25}}, types.GranularityWeek)
	require.Len(t, weeks, 1)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), weeks[0].PeriodStart)
	assert.Equal(t, time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC), weeks[0].PeriodEnd)
}

func TestAggregateIdempotent(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	steps := stepsOver(start, 500)

	for _, g := range []types.Granularity{types.GranularityDay, types.GranularityWeek, types.GranularityMonth} {
		assert.Equal(t, Aggregate(steps, g), Aggregate(steps, g), string(g))
	}
}

func TestAggregateIrregularIntervals(t *testing.T) {
	// A gapped sequence: the missing time must not be invented into totals.
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	steps := []types.StepResult{
		{Timestamp: day.Add(1 * time.Hour), DurationHours: 0.25, AbsorbedWH: 100},
		{Timestamp: day.Add(2 * time.Hour), DurationHours: 1, AbsorbedWH: 400},
		// six-hour hole, then one long catch-up step
		{Timestamp: day.Add(8 * time.Hour), DurationHours: 6, AbsorbedWH: 50},
	}

	days := Aggregate(steps, types.GranularityDay)
	require.Len(t, days, 1)
	assert.InDelta(t, 7.25, days[0].TotalDurationHours, 1e-9)
	assert.InDelta(t, 550.0, days[0].TotalAbsorbedWH, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Nil(t, Aggregate(nil, types.GranularityDay))
}
