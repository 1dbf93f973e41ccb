// Package simulator implements the stateful storage simulations: a thermal
// store (boiler) and an electrochemical store (battery) stepped over a
// time-ordered sequence of surplus samples.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/zonnecheck/zonnecheck/pkg/log"
	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// DefaultNominalInterval is the assumed duration of the first step, before
// any pair of timestamps exists to measure an actual interval.
const DefaultNominalInterval = 15 * time.Minute

// State is the per-variant simulation state threaded explicitly through
// Step. Implementations are value types owned by this package; a state must
// only ever be passed back to the simulator whose Reset produced it.
type State interface {
	// StoredWH is the stored energy relative to the variant's empty state.
	StoredWH() float64

	lastStep() time.Time
}

// Simulator is the common stepping contract shared by the storage variants.
type Simulator interface {
	Name() string

	// Reset produces the state at simulation start.
	Reset() State

	// Step advances the simulation by one sample. It is a deterministic
	// function of the sample and state only and must be called in strictly
	// increasing timestamp order.
	Step(sample types.SurplusSample, st State) (State, types.StepResult, error)
}

// RunResult is the full output of one simulation run over a sample sequence.
type RunResult struct {
	Variant  string             `json:"variant"`
	Steps    []types.StepResult `json:"steps"`
	Warnings []types.Warning    `json:"warnings,omitempty"`

	InitialStoredWH float64 `json:"initialStoredWH"`
	FinalStoredWH   float64 `json:"finalStoredWH"`

	TotalAbsorbedWH     float64 `json:"totalAbsorbedWH"`
	TotalReleasedWH     float64 `json:"totalReleasedWH"`
	TotalLossesWH       float64 `json:"totalLossesWH"`
	TotalExcessWH       float64 `json:"totalExcessWH"`
	TotalUnmetDeficitWH float64 `json:"totalUnmetDeficitWH"`
	TotalGasDisplacedM3 float64 `json:"totalGasDisplacedM3,omitempty"`

	// Fraction of the offered surplus that was absorbed.
	SurplusUtilization float64 `json:"surplusUtilization"`
}

// RunOptions tune the run driver. The zero value is usable.
type RunOptions struct {
	// NominalInterval is the expected spacing of samples. Zero means
	// DefaultNominalInterval.
	NominalInterval time.Duration
	// GapWarnFactor is the multiple of NominalInterval beyond which a gap
	// between consecutive samples is recorded as a warning. Zero means 4.
	GapWarnFactor float64
}

func (o RunOptions) nominal() time.Duration {
	if o.NominalInterval > 0 {
		return o.NominalInterval
	}
	return DefaultNominalInterval
}

func (o RunOptions) gapFactor() float64 {
	if o.GapWarnFactor > 0 {
		return o.GapWarnFactor
	}
	return 4
}

// Run steps sim over the full sample sequence, accumulating StepResults and
// non-fatal warnings. It fails fast on sequence errors and verifies the
// energy-conservation guarantee over the whole run.
func Run(ctx context.Context, sim Simulator, samples []types.SurplusSample, opts RunOptions) (*RunResult, error) {
	st := sim.Reset()
	res := &RunResult{
		Variant:         sim.Name(),
		Steps:           make([]types.StepResult, 0, len(samples)),
		InitialStoredWH: st.StoredWH(),
	}

	gapThreshold := time.Duration(opts.gapFactor() * float64(opts.nominal()))
	var totalSurplus float64
	var prev time.Time

	for _, sample := range samples {
		if !prev.IsZero() {
			if gap := sample.Timestamp.Sub(prev); gap > gapThreshold {
				res.Warnings = append(res.Warnings, types.Warning{
					Timestamp: sample.Timestamp,
					Kind:      types.WarningLargeGap,
					Message:   fmt.Sprintf("gap of %s since previous sample exceeds %s", gap, gapThreshold),
				})
			}
		}
		prev = sample.Timestamp

		next, step, err := sim.Step(sample, st)
		if err != nil {
			return nil, fmt.Errorf("%s step at %s: %w", sim.Name(), sample.Timestamp.Format(time.RFC3339), err)
		}
		st = next

		res.Steps = append(res.Steps, step)
		res.TotalAbsorbedWH += step.AbsorbedWH
		res.TotalReleasedWH += step.ReleasedWH
		res.TotalLossesWH += step.LossesWH
		res.TotalExcessWH += step.ExcessWH
		res.TotalUnmetDeficitWH += step.UnmetDeficitWH
		res.TotalGasDisplacedM3 += step.GasDisplacedM3
		totalSurplus += sample.SurplusWH
	}
	res.FinalStoredWH = st.StoredWH()

	if totalSurplus > 0 {
		res.SurplusUtilization = res.TotalAbsorbedWH / totalSurplus
	}

	// sum(absorbed) - sum(released) - sum(losses) must equal the change in
	// stored energy, within floating-point tolerance.
	balance := res.TotalAbsorbedWH - res.TotalReleasedWH - res.TotalLossesWH
	delta := res.FinalStoredWH - res.InitialStoredWH
	tol := 1e-6 * math.Max(1, res.TotalAbsorbedWH+res.TotalReleasedWH+res.TotalLossesWH)
	if math.Abs(balance-delta) > tol {
		return nil, fmt.Errorf("%s: energy conservation violated: flows sum to %.6f Wh but stored energy changed by %.6f Wh",
			sim.Name(), balance, delta)
	}

	log.Ctx(ctx).DebugContext(ctx, "simulation run complete",
		slog.String("variant", sim.Name()),
		slog.Int("steps", len(res.Steps)),
		slog.Int("warnings", len(res.Warnings)),
		slog.Float64("absorbedWH", res.TotalAbsorbedWH),
		slog.Float64("releasedWH", res.TotalReleasedWH),
		slog.Float64("lossesWH", res.TotalLossesWH),
	)
	return res, nil
}

// stepHours computes the duration of a step ending at ts, given the previous
// step time. The first step falls back to the nominal interval.
func stepHours(ts, last time.Time, nominal time.Duration) float64 {
	if last.IsZero() {
		return nominal.Hours()
	}
	return ts.Sub(last).Hours()
}
