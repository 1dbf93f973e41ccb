package types

import "time"

// StepResult is the immutable per-step output of a storage simulator.
// The common energy quantities are set by both variants; WaterTempC and
// GasDisplacedM3 are boiler-only, SOCWH and CapacityWH battery-only.
type StepResult struct {
	Timestamp     time.Time `json:"timestamp"`
	DurationHours float64   `json:"durationHours"`

	AbsorbedWH     float64 `json:"absorbedWH"`
	ReleasedWH     float64 `json:"releasedWH"`
	LossesWH       float64 `json:"lossesWH"`
	ExcessWH       float64 `json:"excessWH"`
	UnmetDeficitWH float64 `json:"unmetDeficitWH"`

	// End-of-step stored energy, relative to the variant's empty state.
	StoredWH float64 `json:"storedWH"`

	WaterTempC     float64 `json:"waterTempC,omitempty"`
	GasDisplacedM3 float64 `json:"gasDisplacedM3,omitempty"`

	SOCWH      float64 `json:"socWH,omitempty"`
	CapacityWH float64 `json:"capacityWH,omitempty"`
}

// Granularity is a calendar aggregation bucket size.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// AggregatedPeriod is the roll-up of the StepResults whose timestamps fall
// inside one calendar-aligned period.
type AggregatedPeriod struct {
	PeriodStart time.Time   `json:"periodStart"`
	PeriodEnd   time.Time   `json:"periodEnd"`
	Granularity Granularity `json:"granularity"`

	TotalAbsorbedWH     float64 `json:"totalAbsorbedWH"`
	TotalReleasedWH     float64 `json:"totalReleasedWH"`
	TotalLossesWH       float64 `json:"totalLossesWH"`
	TotalExcessWH       float64 `json:"totalExcessWH"`
	TotalUnmetDeficitWH float64 `json:"totalUnmetDeficitWH"`
	TotalGasDisplacedM3 float64 `json:"totalGasDisplacedM3,omitempty"`
	TotalDurationHours  float64 `json:"totalDurationHours"`

	// Point value at the end of the period, not a sum.
	EndStoredWH float64 `json:"endStoredWH"`

	Steps int `json:"steps"`

	// Filled in by the economic model.
	SavingsCurrency float64 `json:"savingsCurrency"`
}

// EconomicSummary is the final financial output for one storage variant.
type EconomicSummary struct {
	// PaybackPeriods is the 1-based index of the first period at which
	// cumulative savings reach the investment cost. Only meaningful when
	// PaybackReached is true.
	PaybackPeriods            int     `json:"paybackPeriods"`
	PaybackReached            bool    `json:"paybackReached"`
	HorizonPeriods            int     `json:"horizonPeriods"`
	CumulativeSavingsCurrency float64 `json:"cumulativeSavingsCurrency"`
	ROIFraction               float64 `json:"roiFraction"`
}
