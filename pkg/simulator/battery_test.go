package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

func testBatteryParams() types.BatteryParams {
	return types.BatteryParams{
		CapacityWH:          5000,
		MaxChargePowerW:     10000,
		MaxDischargePowerW:  10000,
		RoundTripEfficiency: 0.9,
		ReserveFraction:     0.1,
		DegradationPerCycle: 0,
	}
}

func TestBatteryCharge(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Charge From Reserve", func(t *testing.T) {
		b, err := NewBattery(testBatteryParams(), 15*time.Minute)
		require.NoError(t, err)

		st := b.Reset()
		assert.InDelta(t, 500.0, st.StoredWH(), 1e-9, "reset should start at the reserve floor")

		next, step, err := b.Step(types.SurplusSample{Timestamp: ts, SurplusWH: 1000}, st)
		require.NoError(t, err)
		assert.InDelta(t, 1400.0, next.StoredWH(), 1e-9)
		assert.InDelta(t, 1000.0, step.AbsorbedWH, 1e-9)
		assert.InDelta(t, 100.0, step.LossesWH, 1e-9)
		assert.InDelta(t, 0.0, step.ExcessWH, 1e-9)
	})

	t.Run("Charge Capped By Capacity", func(t *testing.T) {
		b, err := NewBattery(testBatteryParams(), 15*time.Minute)
		require.NoError(t, err)

		st := BatteryState{SOCWH: 4900, CapacityWH: 5000}
		next, step, err := b.Step(types.SurplusSample{Timestamp: ts, SurplusWH: 1000}, st)
		require.NoError(t, err)
		assert.InDelta(t, 4990.0, next.StoredWH(), 1e-9)
		assert.InDelta(t, 100.0, step.AbsorbedWH, 1e-9)
		assert.InDelta(t, 900.0, step.ExcessWH, 1e-9)
	})

	t.Run("Charge Capped By Power", func(t *testing.T) {
		params := testBatteryParams()
		params.MaxChargePowerW = 2000
		b, err := NewBattery(params, 15*time.Minute)
		require.NoError(t, err)

		// 2000 W over 15 minutes allows only 500 Wh.
		next, step, err := b.Step(types.SurplusSample{Timestamp: ts, SurplusWH: 1000}, b.Reset())
		require.NoError(t, err)
		assert.InDelta(t, 500.0, step.AbsorbedWH, 1e-9)
		assert.InDelta(t, 500.0, step.ExcessWH, 1e-9)
		assert.InDelta(t, 500.0+500.0*0.9, next.StoredWH(), 1e-9)
	})
}

func TestBatteryDischarge(t *testing.T) {
	ts := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

	t.Run("Discharge To Reserve Only", func(t *testing.T) {
		b, err := NewBattery(testBatteryParams(), 15*time.Minute)
		require.NoError(t, err)

		st := BatteryState{SOCWH: 800, CapacityWH: 5000}
		next, step, err := b.Step(types.SurplusSample{Timestamp: ts, DeficitWH: 1000}, st)
		require.NoError(t, err)
		assert.InDelta(t, 500.0, next.StoredWH(), 1e-9, "must stop at the reserve floor")
		assert.InDelta(t, 300.0, step.ReleasedWH, 1e-9)
		assert.InDelta(t, 700.0, step.UnmetDeficitWH, 1e-9, "unmet deficit is reported, not an error")
	})

	t.Run("Discharge Capped By Power", func(t *testing.T) {
		params := testBatteryParams()
		params.MaxDischargePowerW = 1200
		b, err := NewBattery(params, 15*time.Minute)
		require.NoError(t, err)

		st := BatteryState{SOCWH: 5000, CapacityWH: 5000}
		_, step, err := b.Step(types.SurplusSample{Timestamp: ts, DeficitWH: 1000}, st)
		require.NoError(t, err)
		// 1200 W over 15 minutes allows only 300 Wh.
		assert.InDelta(t, 300.0, step.ReleasedWH, 1e-9)
		assert.InDelta(t, 700.0, step.UnmetDeficitWH, 1e-9)
	})
}

func TestBatterySequenceErrors(t *testing.T) {
	b, err := NewBattery(testBatteryParams(), 15*time.Minute)
	require.NoError(t, err)
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	st, _, err := b.Step(types.SurplusSample{Timestamp: ts, SurplusWH: 100}, b.Reset())
	require.NoError(t, err)

	t.Run("Out Of Order", func(t *testing.T) {
		_, _, err := b.Step(types.SurplusSample{Timestamp: ts.Add(-time.Hour), SurplusWH: 100}, st)
		var seqErr *types.SequenceError
		require.ErrorAs(t, err, &seqErr)
	})

	t.Run("Same Timestamp", func(t *testing.T) {
		_, _, err := b.Step(types.SurplusSample{Timestamp: ts, SurplusWH: 100}, st)
		var seqErr *types.SequenceError
		require.ErrorAs(t, err, &seqErr)
	})

	t.Run("Foreign State", func(t *testing.T) {
		_, _, err := b.Step(types.SurplusSample{Timestamp: ts.Add(time.Hour)}, BoilerState{})
		var seqErr *types.SequenceError
		require.ErrorAs(t, err, &seqErr)
	})
}

func TestBatteryDegradation(t *testing.T) {
	params := testBatteryParams()
	params.DegradationPerCycle = 0.001
	b, err := NewBattery(params, time.Hour)
	require.NoError(t, err)

	// Alternate full-power charge and discharge across several days so the
	// battery accumulates cycles.
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var samples []types.SurplusSample
	for i := 0; i < 24*10; i++ {
		s := types.SurplusSample{Timestamp: start.Add(time.Duration(i) * time.Hour)}
		if i%2 == 0 {
			s.SurplusWH = 4000
		} else {
			s.DeficitWH = 4000
		}
		samples = append(samples, s)
	}

	res, err := Run(context.Background(), b, samples, RunOptions{NominalInterval: time.Hour})
	require.NoError(t, err)

	prev := params.CapacityWH
	for _, step := range res.Steps {
		require.LessOrEqual(t, step.CapacityWH, prev, "capacity must be monotonically non-increasing")
		prev = step.CapacityWH
		require.GreaterOrEqual(t, step.SOCWH, params.MinSOCWH(step.CapacityWH)-1e-9)
		require.LessOrEqual(t, step.SOCWH, step.CapacityWH+1e-9)
	}
	assert.Less(t, res.Steps[len(res.Steps)-1].CapacityWH, params.CapacityWH, "cycling must degrade capacity")
}

func TestBatteryBoundsArbitraryInput(t *testing.T) {
	params := testBatteryParams()
	b, err := NewBattery(params, 15*time.Minute)
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Deterministic pseudo-random surplus/deficit pattern.
	var samples []types.SurplusSample
	seed := uint64(42)
	for i := 0; i < 2000; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(seed%7000) - 3000
		s := types.SurplusSample{Timestamp: start.Add(time.Duration(i) * 15 * time.Minute)}
		if v > 0 {
			s.SurplusWH = v
		} else {
			s.DeficitWH = -v
		}
		samples = append(samples, s)
	}

	res, err := Run(context.Background(), b, samples, RunOptions{})
	require.NoError(t, err)
	for _, step := range res.Steps {
		require.GreaterOrEqual(t, step.SOCWH, params.MinSOCWH(step.CapacityWH)-1e-9)
		require.LessOrEqual(t, step.SOCWH, step.CapacityWH+1e-9)
	}
}
