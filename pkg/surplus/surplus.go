// Package surplus derives the usable energy balance of each reading.
package surplus

import (
	"fmt"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// DefaultToleranceWH is the default allowed disagreement between the derived
// balance and the metered grid columns before a data-quality warning is
// recorded.
const DefaultToleranceWH = 100

// Engine derives SurplusSamples from EnergyRecords. The zero value uses
// DefaultToleranceWH.
type Engine struct {
	// ToleranceWH overrides the cross-validation tolerance when positive.
	ToleranceWH float64
}

// Derive computes the surplus/deficit of a single record. It is a pure
// function of the record.
func (e Engine) Derive(rec types.EnergyRecord) types.SurplusSample {
	s := types.SurplusSample{Timestamp: rec.Timestamp}
	net := rec.ProducedWH - rec.ConsumedWH
	if net > 0 {
		s.SurplusWH = net
	} else {
		s.DeficitWH = -net
	}
	return s
}

// DeriveAll derives a sample per record and cross-validates the optional
// metered grid columns against the derived balance. Mismatches beyond the
// tolerance are returned as warnings, never as errors; the derived values
// always take precedence for simulation.
func (e Engine) DeriveAll(records []types.EnergyRecord) ([]types.SurplusSample, []types.Warning) {
	tol := e.Tolerance()
	samples := make([]types.SurplusSample, 0, len(records))
	var warnings []types.Warning
	for _, rec := range records {
		s := e.Derive(rec)
		samples = append(samples, s)

		// A meter can only export surplus and can only import against a
		// deficit, so each column is checked against its own side of the
		// derived balance.
		if rec.ExportedWH != nil && *rec.ExportedWH-s.SurplusWH > tol {
			warnings = append(warnings, types.Warning{
				Timestamp: rec.Timestamp,
				Kind:      types.WarningExportMismatch,
				Message: fmt.Sprintf("exported %.0f Wh exceeds derived surplus %.0f Wh by more than %.0f Wh",
					*rec.ExportedWH, s.SurplusWH, tol),
			})
		}
		if rec.ImportedWH != nil && s.DeficitWH-*rec.ImportedWH > tol {
			warnings = append(warnings, types.Warning{
				Timestamp: rec.Timestamp,
				Kind:      types.WarningImportMismatch,
				Message: fmt.Sprintf("imported %.0f Wh falls short of derived deficit %.0f Wh by more than %.0f Wh",
					*rec.ImportedWH, s.DeficitWH, tol),
			})
		}
	}
	return samples, warnings
}

// Tolerance reports the effective cross-validation tolerance in Wh.
func (e Engine) Tolerance() float64 {
	if e.ToleranceWH > 0 {
		return e.ToleranceWH
	}
	return DefaultToleranceWH
}
