package types

import "time"

// EnergyRecord is one validated reading from the historical dataset.
// Exported/Imported are nil when the dataset does not carry grid columns;
// nil is "unknown", not zero.
type EnergyRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	ProducedWH float64   `json:"producedWH"`
	ConsumedWH float64   `json:"consumedWH"`
	ExportedWH *float64  `json:"exportedWH,omitempty"`
	ImportedWH *float64  `json:"importedWH,omitempty"`
}

// SurplusSample is the per-record derived energy balance. Exactly one of
// SurplusWH/DeficitWH is nonzero (or both are zero).
type SurplusSample struct {
	Timestamp time.Time `json:"timestamp"`
	SurplusWH float64   `json:"surplusWH"`
	DeficitWH float64   `json:"deficitWH"`
}
