package simulator

import (
	"math"
	"time"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// SpecificHeatWHPerLiterC is the specific heat of water in Wh per liter per
// degree C (4186 J/kg/K at 1 kg/L).
const SpecificHeatWHPerLiterC = 1.163

// BoilerState is the thermal store state carried across steps. Stored energy
// is measured relative to the ambient-temperature tank.
type BoilerState struct {
	WaterTempC     float64 `json:"waterTempC"`
	StoredEnergyWH float64 `json:"storedEnergyWH"`

	last time.Time
}

func (s BoilerState) StoredWH() float64   { return s.StoredEnergyWH }
func (s BoilerState) lastStep() time.Time { return s.last }

// Boiler simulates a fixed-volume water store heated by surplus electricity,
// with standby loss and scheduled hot-water draw-off. The displaced-gas
// baseline is what the gas burner would otherwise have supplied.
type Boiler struct {
	params  types.BoilerParams
	nominal time.Duration

	// Wh held at max temperature, relative to ambient.
	maxEnergyWH float64
	// Wh held at the thermostat setpoint, relative to ambient.
	setpointEnergyWH float64
	// Sum of the hourly draw-off weights; 0 means a flat profile.
	profileSum float64
}

// NewBoiler validates the parameters and builds a boiler simulator.
// A zero interval means DefaultNominalInterval.
func NewBoiler(params types.BoilerParams, interval time.Duration) (*Boiler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultNominalInterval
	}
	b := &Boiler{
		params:           params,
		nominal:          interval,
		maxEnergyWH:      params.VolumeLiters * SpecificHeatWHPerLiterC * (params.MaxTempC - params.AmbientTempC),
		setpointEnergyWH: params.VolumeLiters * SpecificHeatWHPerLiterC * (params.SetpointTempC - params.AmbientTempC),
	}
	for _, w := range params.DrawOffProfile {
		b.profileSum += w
	}
	return b, nil
}

func (b *Boiler) Name() string { return "boiler" }

// Reset returns the state at simulation start: a tank at ambient temperature.
func (b *Boiler) Reset() State {
	return BoilerState{WaterTempC: b.params.AmbientTempC}
}

// Step advances the boiler by one sample: standby loss, draw-off, then
// surplus absorption up to the maximum temperature.
func (b *Boiler) Step(sample types.SurplusSample, st State) (State, types.StepResult, error) {
	state, ok := st.(BoilerState)
	if !ok {
		return nil, types.StepResult{}, &types.SequenceError{
			Timestamp: sample.Timestamp,
			Reason:    "state was not produced by the boiler's Reset",
		}
	}
	if !state.last.IsZero() && !sample.Timestamp.After(state.last) {
		return nil, types.StepResult{}, &types.SequenceError{
			Timestamp: sample.Timestamp,
			Reason:    "step is not after previous step at " + state.last.Format(time.RFC3339),
		}
	}
	dtHours := stepHours(sample.Timestamp, state.last, b.nominal)

	step := types.StepResult{
		Timestamp:     sample.Timestamp,
		DurationHours: dtHours,
	}
	heatPerDegC := b.params.VolumeLiters * SpecificHeatWHPerLiterC
	energy := state.StoredEnergyWH

	// Standby loss, clamped so the tank never cools below ambient.
	standbyLoss := b.params.LossCoefficientWPerC * dtHours * (state.WaterTempC - b.params.AmbientTempC)
	standbyLoss = math.Min(math.Max(standbyLoss, 0), energy)
	energy -= standbyLoss

	// Draw-off removes hot water at the current temperature and refills with
	// ambient-temperature water.
	var released, unmet float64
	liters := b.drawOffLiters(sample.Timestamp, dtHours)
	if liters > 0 {
		frac := math.Min(1, liters/b.params.VolumeLiters)
		released = frac * energy
		energy -= released

		// The demand is water at the setpoint; anything the tank could not
		// deliver at temperature is an unmet deficit, not an error.
		demand := liters * SpecificHeatWHPerLiterC * (b.params.SetpointTempC - b.params.AmbientTempC)
		unmet = math.Max(0, demand-released)
	}

	// Heat needed to get back to the setpoint, before absorbing surplus.
	// This is the baseline the gas burner would otherwise have covered.
	setpointDeficit := math.Max(0, b.setpointEnergyWH-energy)

	// Absorb surplus through the heating element until the tank hits max
	// temperature. Unabsorbed surplus is surfaced, never dropped.
	var absorbed, conversionLoss float64
	if sample.SurplusWH > 0 {
		headroom := math.Max(0, b.maxEnergyWH-energy)
		absorbed = math.Min(sample.SurplusWH, headroom/b.params.HeatingEfficiency)
		gain := absorbed * b.params.HeatingEfficiency
		conversionLoss = absorbed - gain
		energy += gain

		gasHeat := math.Min(gain, setpointDeficit)
		step.GasDisplacedM3 = gasHeat / b.params.GasEfficiency / (b.params.GasEnergyContentKWHPerM3 * 1000)
	}
	step.ExcessWH = sample.SurplusWH - absorbed

	state.StoredEnergyWH = energy
	state.WaterTempC = b.params.AmbientTempC + energy/heatPerDegC
	state.last = sample.Timestamp

	step.AbsorbedWH = absorbed
	step.ReleasedWH = released
	step.LossesWH = standbyLoss + conversionLoss
	step.UnmetDeficitWH = unmet
	step.StoredWH = energy
	step.WaterTempC = state.WaterTempC
	return state, step, nil
}

// drawOffLiters returns the scheduled draw-off for a step of dtHours ending
// at ts, following the hourly profile when one is configured.
func (b *Boiler) drawOffLiters(ts time.Time, dtHours float64) float64 {
	if b.params.DailyDrawOffLiters <= 0 {
		return 0
	}
	if b.profileSum <= 0 {
		return b.params.DailyDrawOffLiters * dtHours / 24
	}
	weight := b.params.DrawOffProfile[ts.Hour()] / b.profileSum
	return b.params.DailyDrawOffLiters * weight * dtHours
}
