// Package economics converts aggregated energy flows into currency savings,
// payback period and return on investment.
package economics

import (
	"fmt"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// Storage variant names as reported by the simulators.
const (
	VariantBoiler  = "boiler"
	VariantBattery = "battery"
)

// Model prices aggregated periods using an immutable parameter snapshot.
// It is pure post-processing: it can be re-run cheaply whenever parameters
// change, without re-running the physical simulation.
type Model struct {
	Params types.EconomicParameters
}

// NewModel validates the parameters and returns a model.
func NewModel(params types.EconomicParameters) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Model{Params: params}, nil
}

// PricePeriods returns a copy of the periods with SavingsCurrency filled in.
//
// The battery saves the import tariff on every Wh it later releases; the
// boiler saves the gas that its absorbed surplus displaced. Both forgo the
// feed-in tariff on every Wh of surplus they absorbed instead of exporting.
func (m *Model) PricePeriods(variant string, periods []types.AggregatedPeriod) ([]types.AggregatedPeriod, error) {
	out := make([]types.AggregatedPeriod, len(periods))
	for i, p := range periods {
		foregone := p.TotalAbsorbedWH / 1000 * m.Params.FeedInTariffPerKWH
		switch variant {
		case VariantBattery:
			p.SavingsCurrency = p.TotalReleasedWH/1000*m.Params.ImportTariffPerKWH - foregone
		case VariantBoiler:
			p.SavingsCurrency = p.TotalGasDisplacedM3*m.Params.GasPricePerM3 - foregone
		default:
			return nil, fmt.Errorf("unknown storage variant: %s", variant)
		}
		out[i] = p
	}
	return out, nil
}

// Summarize computes cumulative savings, the payback period and the ROI
// fraction over priced periods. A horizon that ends before payback is a
// valid result, reported explicitly, not an error.
func (m *Model) Summarize(variant string, priced []types.AggregatedPeriod) (types.EconomicSummary, error) {
	investment, err := m.investment(variant)
	if err != nil {
		return types.EconomicSummary{}, err
	}

	summary := types.EconomicSummary{HorizonPeriods: len(priced)}
	var cumulative float64
	for i, p := range priced {
		cumulative += p.SavingsCurrency
		if !summary.PaybackReached && cumulative >= investment {
			summary.PaybackReached = true
			summary.PaybackPeriods = i + 1
		}
	}
	summary.CumulativeSavingsCurrency = cumulative
	summary.ROIFraction = cumulative / investment
	return summary, nil
}

func (m *Model) investment(variant string) (float64, error) {
	switch variant {
	case VariantBattery:
		return m.Params.BatteryInvestmentCost, nil
	case VariantBoiler:
		return m.Params.BoilerInvestmentCost, nil
	}
	return 0, fmt.Errorf("unknown storage variant: %s", variant)
}
