// Command diagnose runs a diagnostic against a dataset using a fitted
// linear surrogate model and writes the results out.
package main

import (
	"context"
	"flag"
	"strings"

	"github.com/rs/zerolog"

	"mintpy/adapters/excel"
	"mintpy/adapters/postgres"
	"mintpy/app"
	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/domain/result"
	"mintpy/internal/config"
	"mintpy/internal/logging"
	"mintpy/internal/surrogate"
	"mintpy/ports"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	dataPath := flag.String("data", "", "dataset file (.xlsx or .csv); overrides config")
	target := flag.String("target", "", "target column name; overrides config")
	method := flag.String("method", "ale", "diagnostic to run: ale, pd, ice, importance, ias, hstat, ale_variance, mec, contributions")
	evalFn := flag.String("eval", "mse", "evaluation function for importance-based methods")
	outJSON := flag.String("out", "", "write results to this JSON file")
	outXLSX := flag.String("xlsx", "", "write results to this workbook")
	archive := flag.Bool("archive", false, "archive the run in the result ledger")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := logging.Setup("info", true)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

	if *dataPath == "" {
		*dataPath = cfg.Data.ExcelFile
	}
	if *target == "" {
		*target = cfg.Data.TargetColumn
	}
	if *dataPath == "" {
		log.Fatal().Msg("no dataset given: set -data or EXCEL_FILE")
	}

	ds, err := excel.NewDataReader(*dataPath).Read(excel.ReaderOptions{
		Sheet:        cfg.Data.Sheet,
		TargetColumn: *target,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read dataset")
	}
	log.Info().Int("examples", ds.Len()).Int("features", len(ds.Features())).Msg("dataset loaded")

	toolkit, err := buildToolkit(ds, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build toolkit")
	}

	store, err := run(context.Background(), toolkit, cfg, *method, *evalFn)
	if err != nil {
		log.Fatal().Err(err).Str("method", *method).Msg("diagnostic failed")
	}
	log.Info().Int("tables", store.Len()).Msg("diagnostic complete")
	if top := topFeatures(store); len(top) > 0 {
		log.Info().Strs("top_features", top).Msg("consensus ranking")
	}

	if *outJSON != "" {
		if err := store.Save(*outJSON); err != nil {
			log.Fatal().Err(err).Msg("failed to save results")
		}
		log.Info().Str("path", *outJSON).Msg("results saved")
	}
	if *outXLSX != "" {
		if err := excel.Export(store, *outXLSX); err != nil {
			log.Fatal().Err(err).Msg("failed to export workbook")
		}
		log.Info().Str("path", *outXLSX).Msg("workbook exported")
	}
	if *archive {
		if cfg.Database.URL == "" {
			log.Fatal().Msg("archival requested but DATABASE_URL is not set")
		}
		ledger, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open result ledger")
		}
		defer ledger.Close()
		runID := postgres.NewRunID()
		if err := ledger.StoreResult(context.Background(), runID, store); err != nil {
			log.Fatal().Err(err).Msg("failed to archive run")
		}
		log.Info().Str("run_id", runID).Msg("run archived")
	}
}

// buildToolkit fits a linear surrogate to the dataset and opens a
// session around it. Diagnosing a real model means importing the
// toolkit as a library instead.
func buildToolkit(ds *dataset.Dataset, cfg *config.Config, log zerolog.Logger) (*app.Toolkit, error) {
	model, err := surrogate.FitLinear(ds)
	if err != nil {
		return nil, err
	}
	models := ports.NewModelSet()
	if err := models.Add("linear_surrogate", model); err != nil {
		return nil, err
	}
	return app.New(app.Options{
		Models: models,
		Data:   ds,
		Output: core.OutputRaw,
		Seed:   cfg.Compute.Seed,
		Log:    log,
	})
}

// topFeatures combines every labeled ranking table in the store into a
// consensus top-5 list across models.
func topFeatures(store *result.Store) []string {
	var rankings [][]string
	for _, key := range store.Keys() {
		table, _ := store.Get(key)
		if len(table.Labels) > 0 {
			rankings = append(rankings, table.TopFeatures(len(table.Labels)))
		}
	}
	return result.CombineRankings(rankings, 5)
}

func run(ctx context.Context, toolkit *app.Toolkit, cfg *config.Config, method, evalFn string) (*result.Store, error) {
	effects := app.EffectsRequest{
		NBins:      cfg.Compute.NBins,
		NBootstrap: cfg.Compute.NBootstrap,
		NJobs:      cfg.Compute.NJobs,
	}
	importance := app.ImportanceRequest{
		EvaluationFn: evalFn,
		NBootstrap:   cfg.Compute.NBootstrap,
		NJobs:        cfg.Compute.NJobs,
		MultiPass:    true,
	}
	interactions := app.InteractionRequest{NBins: cfg.Compute.NBins, Importance: importance}

	switch strings.ToLower(method) {
	case "ale":
		return toolkit.ALE(ctx, effects)
	case "pd":
		return toolkit.PartialDependence(ctx, effects)
	case "ice":
		return toolkit.ICE(ctx, effects)
	case "importance":
		return toolkit.PermutationImportance(ctx, importance)
	case "ias":
		return toolkit.InteractionStrength(ctx, interactions)
	case "hstat":
		return toolkit.FriedmanH(ctx, interactions)
	case "ale_variance":
		return toolkit.ALEVariance(ctx, interactions)
	case "mec":
		return toolkit.MainEffectComplexity(ctx, interactions)
	case "contributions":
		return toolkit.Contributions(ctx, app.ContributionRequest{ByPerformance: false})
	default:
		return nil, core.NewConfigurationError("unknown method " + method)
	}
}
