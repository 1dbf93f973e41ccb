package types

import "fmt"

// BoilerParams are the physical parameters of the thermal store. They are
// validated once, at construction time, and never mutated by a run.
type BoilerParams struct {
	VolumeLiters  float64 `json:"volumeLiters" yaml:"volume_liters"`
	AmbientTempC  float64 `json:"ambientTempC" yaml:"ambient_temp_c"`
	SetpointTempC float64 `json:"setpointTempC" yaml:"setpoint_temp_c"`
	MaxTempC      float64 `json:"maxTempC" yaml:"max_temp_c"`

	// Standby loss in W per degree C above ambient.
	LossCoefficientWPerC float64 `json:"lossCoefficientWPerC" yaml:"loss_coefficient_w_per_c"`

	// Electric heating element efficiency (0,1].
	HeatingEfficiency float64 `json:"heatingEfficiency" yaml:"heating_efficiency"`
	// Gas burner efficiency (0,1], used for the displaced-gas baseline.
	GasEfficiency            float64 `json:"gasEfficiency" yaml:"gas_efficiency"`
	GasEnergyContentKWHPerM3 float64 `json:"gasEnergyContentKWHPerM3" yaml:"gas_energy_content_kwh_per_m3"`

	DailyDrawOffLiters float64 `json:"dailyDrawOffLiters" yaml:"daily_draw_off_liters"`
	// Optional hourly draw-off weights. All zero means a flat profile.
	DrawOffProfile [24]float64 `json:"drawOffProfile,omitempty" yaml:"draw_off_profile,omitempty"`
}

// DefaultBoilerParams returns the documented boiler defaults: an 80 L store
// drawing 120 L/day, heated from 15 C ambient to a 50 C setpoint.
func DefaultBoilerParams() BoilerParams {
	return BoilerParams{
		VolumeLiters:             80,
		AmbientTempC:             15,
		SetpointTempC:            50,
		MaxTempC:                 80,
		LossCoefficientWPerC:     1.5,
		HeatingEfficiency:        0.9,
		GasEfficiency:            0.9,
		GasEnergyContentKWHPerM3: 9.77,
		DailyDrawOffLiters:       120,
	}
}

// Validate returns a ConfigurationError for the first out-of-range parameter.
func (p BoilerParams) Validate() error {
	if p.VolumeLiters <= 0 {
		return &ConfigurationError{Param: "boiler.volume_liters", Value: p.VolumeLiters, Reason: "must be positive"}
	}
	if p.SetpointTempC <= p.AmbientTempC {
		return &ConfigurationError{Param: "boiler.setpoint_temp_c", Value: p.SetpointTempC, Reason: "must be above ambient temperature"}
	}
	if p.MaxTempC < p.SetpointTempC {
		return &ConfigurationError{Param: "boiler.max_temp_c", Value: p.MaxTempC, Reason: "must be at or above the setpoint"}
	}
	if p.LossCoefficientWPerC < 0 {
		return &ConfigurationError{Param: "boiler.loss_coefficient_w_per_c", Value: p.LossCoefficientWPerC, Reason: "must not be negative"}
	}
	if p.HeatingEfficiency <= 0 || p.HeatingEfficiency > 1 {
		return &ConfigurationError{Param: "boiler.heating_efficiency", Value: p.HeatingEfficiency, Reason: "must be in (0,1]"}
	}
	if p.GasEfficiency <= 0 || p.GasEfficiency > 1 {
		return &ConfigurationError{Param: "boiler.gas_efficiency", Value: p.GasEfficiency, Reason: "must be in (0,1]"}
	}
	if p.GasEnergyContentKWHPerM3 <= 0 {
		return &ConfigurationError{Param: "boiler.gas_energy_content_kwh_per_m3", Value: p.GasEnergyContentKWHPerM3, Reason: "must be positive"}
	}
	if p.DailyDrawOffLiters < 0 {
		return &ConfigurationError{Param: "boiler.daily_draw_off_liters", Value: p.DailyDrawOffLiters, Reason: "must not be negative"}
	}
	for h, w := range p.DrawOffProfile {
		if w < 0 {
			return &ConfigurationError{Param: "boiler.draw_off_profile", Value: w, Reason: fmt.Sprintf("hour %d weight must not be negative", h)}
		}
	}
	return nil
}

// BatteryParams are the physical parameters of the electrochemical store.
type BatteryParams struct {
	CapacityWH         float64 `json:"capacityWH" yaml:"capacity_wh"`
	MaxChargePowerW    float64 `json:"maxChargePowerW" yaml:"max_charge_power_w"`
	MaxDischargePowerW float64 `json:"maxDischargePowerW" yaml:"max_discharge_power_w"`

	// Round-trip efficiency (0,1]. The loss is realized on charge.
	RoundTripEfficiency float64 `json:"roundTripEfficiency" yaml:"round_trip_efficiency"`
	// Fraction of capacity never discharged below.
	ReserveFraction float64 `json:"reserveFraction" yaml:"reserve_fraction"`
	// Fractional capacity lost per equivalent full cycle.
	DegradationPerCycle float64 `json:"degradationPerCycle" yaml:"degradation_per_cycle"`
}

// DefaultBatteryParams returns the documented battery defaults: a 10 kWh
// battery with 3.6 kW charge/discharge limits and a 10% reserve.
func DefaultBatteryParams() BatteryParams {
	return BatteryParams{
		CapacityWH:          10000,
		MaxChargePowerW:     3600,
		MaxDischargePowerW:  3600,
		RoundTripEfficiency: 0.9,
		ReserveFraction:     0.1,
		DegradationPerCycle: 0.0001,
	}
}

// Validate returns a ConfigurationError for the first out-of-range parameter.
func (p BatteryParams) Validate() error {
	if p.CapacityWH <= 0 {
		return &ConfigurationError{Param: "battery.capacity_wh", Value: p.CapacityWH, Reason: "must be positive"}
	}
	if p.MaxChargePowerW <= 0 {
		return &ConfigurationError{Param: "battery.max_charge_power_w", Value: p.MaxChargePowerW, Reason: "must be positive"}
	}
	if p.MaxDischargePowerW <= 0 {
		return &ConfigurationError{Param: "battery.max_discharge_power_w", Value: p.MaxDischargePowerW, Reason: "must be positive"}
	}
	if p.RoundTripEfficiency <= 0 || p.RoundTripEfficiency > 1 {
		return &ConfigurationError{Param: "battery.round_trip_efficiency", Value: p.RoundTripEfficiency, Reason: "must be in (0,1]"}
	}
	if p.ReserveFraction < 0 || p.ReserveFraction >= 1 {
		return &ConfigurationError{Param: "battery.reserve_fraction", Value: p.ReserveFraction, Reason: "must be in [0,1)"}
	}
	if p.DegradationPerCycle < 0 || p.DegradationPerCycle >= 1 {
		return &ConfigurationError{Param: "battery.degradation_per_cycle", Value: p.DegradationPerCycle, Reason: "must be in [0,1)"}
	}
	return nil
}

// MinSOCWH returns the reserve floor for the given (possibly degraded)
// capacity.
func (p BatteryParams) MinSOCWH(capacityWH float64) float64 {
	return p.ReserveFraction * capacityWH
}

// EconomicParameters is the immutable financial snapshot for one run.
type EconomicParameters struct {
	ImportTariffPerKWH float64 `json:"importTariffPerKWH" yaml:"import_tariff_per_kwh"`
	FeedInTariffPerKWH float64 `json:"feedInTariffPerKWH" yaml:"feed_in_tariff_per_kwh"`
	GasPricePerM3      float64 `json:"gasPricePerM3" yaml:"gas_price_per_m3"`

	BoilerInvestmentCost  float64 `json:"boilerInvestmentCost" yaml:"boiler_investment_cost"`
	BatteryInvestmentCost float64 `json:"batteryInvestmentCost" yaml:"battery_investment_cost"`
}

// DefaultEconomicParameters returns the documented tariff defaults.
func DefaultEconomicParameters() EconomicParameters {
	return EconomicParameters{
		ImportTariffPerKWH:    0.22,
		FeedInTariffPerKWH:    0.09,
		GasPricePerM3:         0.80,
		BoilerInvestmentCost:  250,
		BatteryInvestmentCost: 5000,
	}
}

// Validate returns a ConfigurationError for the first out-of-range parameter.
func (p EconomicParameters) Validate() error {
	if p.ImportTariffPerKWH < 0 {
		return &ConfigurationError{Param: "economic.import_tariff_per_kwh", Value: p.ImportTariffPerKWH, Reason: "must not be negative"}
	}
	if p.FeedInTariffPerKWH < 0 {
		return &ConfigurationError{Param: "economic.feed_in_tariff_per_kwh", Value: p.FeedInTariffPerKWH, Reason: "must not be negative"}
	}
	if p.GasPricePerM3 < 0 {
		return &ConfigurationError{Param: "economic.gas_price_per_m3", Value: p.GasPricePerM3, Reason: "must not be negative"}
	}
	if p.BoilerInvestmentCost <= 0 {
		return &ConfigurationError{Param: "economic.boiler_investment_cost", Value: p.BoilerInvestmentCost, Reason: "must be positive"}
	}
	if p.BatteryInvestmentCost <= 0 {
		return &ConfigurationError{Param: "economic.battery_investment_cost", Value: p.BatteryInvestmentCost, Reason: "must be positive"}
	}
	return nil
}
