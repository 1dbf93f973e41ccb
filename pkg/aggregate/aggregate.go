// Package aggregate rolls per-step simulation results into calendar-aligned
// daily, weekly and monthly periods.
package aggregate

import (
	"sort"
	"time"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// Aggregate groups StepResults into calendar-aligned buckets of the given
// granularity. Energy quantities are summed; the stored energy is carried as
// the end-of-period point value. Each step already carries its actual
// duration, so gapped or irregular input does not bias totals. The result is
// deterministic and idempotent for a given input.
func Aggregate(steps []types.StepResult, g types.Granularity) []types.AggregatedPeriod {
	if len(steps) == 0 {
		return nil
	}

	byStart := make(map[time.Time]*types.AggregatedPeriod)
	for _, s := range steps {
		start := periodStart(s.Timestamp, g)
		p, ok := byStart[start]
		if !ok {
			p = &types.AggregatedPeriod{
				PeriodStart: start,
				PeriodEnd:   periodEnd(start, g),
				Granularity: g,
			}
			byStart[start] = p
		}
		p.TotalAbsorbedWH += s.AbsorbedWH
		p.TotalReleasedWH += s.ReleasedWH
		p.TotalLossesWH += s.LossesWH
		p.TotalExcessWH += s.ExcessWH
		p.TotalUnmetDeficitWH += s.UnmetDeficitWH
		p.TotalGasDisplacedM3 += s.GasDisplacedM3
		p.TotalDurationHours += s.DurationHours
		p.EndStoredWH = s.StoredWH
		p.Steps++
	}

	periods := make([]types.AggregatedPeriod, 0, len(byStart))
	for _, p := range byStart {
		periods = append(periods, *p)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].PeriodStart.Before(periods[j].PeriodStart)
	})
	return periods
}

// periodStart truncates ts to the calendar boundary of the granularity in
// the timestamp's own location. Weeks start on Monday.
func periodStart(ts time.Time, g types.Granularity) time.Time {
	y, m, d := ts.Date()
	switch g {
	case types.GranularityWeek:
		day := time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case types.GranularityMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, ts.Location())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
	}
}

func periodEnd(start time.Time, g types.Granularity) time.Time {
	switch g {
	case types.GranularityWeek:
		return start.AddDate(0, 0, 7)
	case types.GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}
