package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"

	"github.com/zonnecheck/zonnecheck/pkg/config"
	"github.com/zonnecheck/zonnecheck/pkg/controller"
	"github.com/zonnecheck/zonnecheck/pkg/ingest"
	"github.com/zonnecheck/zonnecheck/pkg/log"
	"github.com/zonnecheck/zonnecheck/pkg/server"
)

func main() {
	dataPath := lflag.RequiredString("data", "Path to the CSV dataset of production/consumption readings")
	configPath := lflag.String("config", "config.yaml", "Path to the YAML configuration (missing file uses defaults)")
	outPath := lflag.String("out", "", "Path to write the JSON report (empty writes to stdout)")
	serve := lflag.Bool("serve", false, "Serve the report over HTTP after the run")

	// init the server before flags are parsed so its flags register
	srv := server.Configured()

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	level, err := log.ConfiguredLevel()
	if err != nil {
		panic(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	records, err := ingest.ReadFile(*dataPath)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to ingest dataset", slog.String("path", *dataPath), slog.Any("error", err))
		os.Exit(1)
	}

	ctrl, err := controller.NewController(cfg)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	report, err := ctrl.Run(ctx, records)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "simulation failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "simulation complete",
		slog.Int("records", report.Records),
		slog.Float64("boilerSavings", report.Boiler.Summary.CumulativeSavingsCurrency),
		slog.Float64("batterySavings", report.Battery.Summary.CumulativeSavingsCurrency),
	)

	if err := writeReport(*outPath, report); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write report", slog.Any("error", err))
		os.Exit(1)
	}

	if *serve {
		srv.SetReport(report)
		if err := srv.Run(ctx); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
			os.Exit(1)
		}
		log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
	}
}

func writeReport(path string, report *controller.Report) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
