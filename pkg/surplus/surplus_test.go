package surplus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

func TestDerive(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var e Engine

	tests := []struct {
		name        string
		produced    float64
		consumed    float64
		wantSurplus float64
		wantDeficit float64
	}{
		{"Surplus", 2000, 500, 1500, 0},
		{"Deficit", 300, 1200, 0, 900},
		{"Balanced", 800, 800, 0, 0},
		{"Zero", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := e.Derive(types.EnergyRecord{Timestamp: ts, ProducedWH: tt.produced, ConsumedWH: tt.consumed})
			assert.InDelta(t, tt.wantSurplus, s.SurplusWH, 1e-9)
			assert.InDelta(t, tt.wantDeficit, s.DeficitWH, 1e-9)
			assert.False(t, s.SurplusWH > 0 && s.DeficitWH > 0, "surplus and deficit are mutually exclusive")
			assert.Equal(t, ts, s.Timestamp)
		})
	}
}

func TestDeriveAllCrossValidation(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e := Engine{ToleranceWH: 50}
	f := func(v float64) *float64 { return &v }

	t.Run("Consistent Meter Columns", func(t *testing.T) {
		samples, warnings := e.DeriveAll([]types.EnergyRecord{
			{Timestamp: ts, ProducedWH: 2000, ConsumedWH: 500, ExportedWH: f(1480), ImportedWH: f(0)},
		})
		require.Len(t, samples, 1)
		assert.Empty(t, warnings)
	})

	t.Run("Export Exceeds Surplus", func(t *testing.T) {
		_, warnings := e.DeriveAll([]types.EnergyRecord{
			{Timestamp: ts, ProducedWH: 1000, ConsumedWH: 900, ExportedWH: f(900)},
		})
		require.Len(t, warnings, 1)
		assert.Equal(t, types.WarningExportMismatch, warnings[0].Kind)
		assert.Equal(t, ts, warnings[0].Timestamp)
	})

	t.Run("Import Short Of Deficit", func(t *testing.T) {
		_, warnings := e.DeriveAll([]types.EnergyRecord{
			{Timestamp: ts, ProducedWH: 100, ConsumedWH: 1500, ImportedWH: f(200)},
		})
		require.Len(t, warnings, 1)
		assert.Equal(t, types.WarningImportMismatch, warnings[0].Kind)
	})

	t.Run("Missing Columns Are Not Zero", func(t *testing.T) {
		_, warnings := e.DeriveAll([]types.EnergyRecord{
			{Timestamp: ts, ProducedWH: 5000, ConsumedWH: 100},
		})
		assert.Empty(t, warnings, "absent meter columns must not be validated as zero")
	})

	t.Run("Derived Values Take Precedence", func(t *testing.T) {
		samples, _ := e.DeriveAll([]types.EnergyRecord{
			{Timestamp: ts, ProducedWH: 1000, ConsumedWH: 900, ExportedWH: f(900)},
		})
		require.Len(t, samples, 1)
		assert.InDelta(t, 100.0, samples[0].SurplusWH, 1e-9)
	})
}

func TestTolerance(t *testing.T) {
	assert.InDelta(t, DefaultToleranceWH, Engine{}.Tolerance(), 1e-9)
	assert.InDelta(t, 25.0, Engine{ToleranceWH: 25}.Tolerance(), 1e-9)
}
