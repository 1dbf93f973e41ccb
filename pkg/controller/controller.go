// Package controller orchestrates the full pipeline: surplus derivation,
// the two storage simulations, aggregation and the economic model.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zonnecheck/zonnecheck/pkg/aggregate"
	"github.com/zonnecheck/zonnecheck/pkg/config"
	"github.com/zonnecheck/zonnecheck/pkg/economics"
	"github.com/zonnecheck/zonnecheck/pkg/log"
	"github.com/zonnecheck/zonnecheck/pkg/simulator"
	"github.com/zonnecheck/zonnecheck/pkg/surplus"
	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// VariantResult bundles everything produced for one storage variant.
type VariantResult struct {
	Run        *simulator.RunResult                           `json:"run"`
	Aggregates map[types.Granularity][]types.AggregatedPeriod `json:"aggregates"`
	Summary    types.EconomicSummary                          `json:"summary"`
}

// Report is the full result set handed to the reporting collaborator. It
// contains only plain serializable values, no simulator-internal state.
type Report struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Records     int             `json:"records"`
	Warnings    []types.Warning `json:"warnings,omitempty"`

	Boiler  *VariantResult `json:"boiler"`
	Battery *VariantResult `json:"battery"`
}

// PaybackGranularity is the aggregation level the payback period is counted
// in.
const PaybackGranularity = types.GranularityMonth

// Controller runs simulations against a validated configuration.
type Controller struct {
	cfg config.Config
}

// NewController validates the configuration once, at this boundary.
func NewController(cfg config.Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg}, nil
}

// Run executes the whole pipeline over the record sequence. The two storage
// variants share no mutable state and run concurrently; everything after
// the simulations is pure post-processing.
func (c *Controller) Run(ctx context.Context, records []types.EnergyRecord) (*Report, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to simulate")
	}

	eng := surplus.Engine{ToleranceWH: c.cfg.Simulation.SurplusToleranceWH}
	samples, warnings := eng.DeriveAll(records)
	log.Ctx(ctx).InfoContext(ctx, "derived surplus samples",
		slog.Int("records", len(records)),
		slog.Int("warnings", len(warnings)),
	)

	boilerSim, err := simulator.NewBoiler(c.cfg.Boiler, c.cfg.Simulation.NominalInterval())
	if err != nil {
		return nil, err
	}
	batterySim, err := simulator.NewBattery(c.cfg.Battery, c.cfg.Simulation.NominalInterval())
	if err != nil {
		return nil, err
	}
	model, err := economics.NewModel(c.cfg.Economic)
	if err != nil {
		return nil, err
	}

	opts := simulator.RunOptions{
		NominalInterval: c.cfg.Simulation.NominalInterval(),
		GapWarnFactor:   c.cfg.Simulation.GapWarnFactor,
	}

	var wg sync.WaitGroup
	var boilerRun, batteryRun *simulator.RunResult
	var boilerErr, batteryErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		boilerRun, boilerErr = simulator.Run(ctx, boilerSim, samples, opts)
	}()
	go func() {
		defer wg.Done()
		batteryRun, batteryErr = simulator.Run(ctx, batterySim, samples, opts)
	}()
	wg.Wait()
	if boilerErr != nil {
		return nil, boilerErr
	}
	if batteryErr != nil {
		return nil, batteryErr
	}

	boiler, err := c.postProcess(model, boilerRun)
	if err != nil {
		return nil, err
	}
	battery, err := c.postProcess(model, batteryRun)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt: time.Now().UTC(),
		Records:     len(records),
		Warnings:    warnings,
		Boiler:      boiler,
		Battery:     battery,
	}, nil
}

// postProcess aggregates a completed run at every granularity and prices it.
// It can be repeated cheaply when economic parameters change, without
// re-running the simulation.
func (c *Controller) postProcess(model *economics.Model, run *simulator.RunResult) (*VariantResult, error) {
	res := &VariantResult{
		Run:        run,
		Aggregates: make(map[types.Granularity][]types.AggregatedPeriod, 3),
	}
	for _, g := range []types.Granularity{types.GranularityDay, types.GranularityWeek, types.GranularityMonth} {
		priced, err := model.PricePeriods(run.Variant, aggregate.Aggregate(run.Steps, g))
		if err != nil {
			return nil, err
		}
		res.Aggregates[g] = priced
	}

	summary, err := model.Summarize(run.Variant, res.Aggregates[PaybackGranularity])
	if err != nil {
		return nil, err
	}
	res.Summary = summary
	return res, nil
}
