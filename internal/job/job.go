// Package job runs the signal pipeline: config, data, transform, aggregate.
package job

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signaljob/internal/config"
	"signaljob/internal/dataset"
	"signaljob/internal/errs"
	"signaljob/internal/metrics"
	"signaljob/internal/report"
	"signaljob/internal/strategy"
)

// Stage is the furthest point a run reached.
type Stage int

const (
	Start Stage = iota
	ConfigLoaded
	DataLoaded
	Transformed
	MetricsEmitted
	Failed
)

func (s Stage) String() string {
	switch s {
	case Start:
		return "start"
	case ConfigLoaded:
		return "config_loaded"
	case DataLoaded:
		return "data_loaded"
	case Transformed:
		return "transformed"
	case MetricsEmitted:
		return "metrics_emitted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Job computes the close-above-rolling-mean signal rate for one CSV.
type Job struct {
	ConfigPath string
	InputPath  string
	// Now is the wall clock; tests replace it.
	Now func() time.Time

	log   zerolog.Logger
	stage Stage
}

// New wires a job to its input paths and logger.
func New(configPath, inputPath string, log zerolog.Logger) *Job {
	return &Job{ConfigPath: configPath, InputPath: inputPath, Now: time.Now, log: log}
}

// Stage returns where the last run stopped.
func (j *Job) Stage() Stage { return j.stage }

// Publish delivers a finished result, typically by writing the report. An
// error from it fails the run.
type Publish func(*report.Metrics) error

// Run executes the pipeline once and hands the result to publish, if set,
// before the run is logged as complete. The first failure ends the run; no
// step is retried.
func (j *Job) Run(publish Publish) (*report.Metrics, error) {
	start := j.Now()
	log := j.log.With().Str("run_id", uuid.NewString()).Logger()
	j.stage = Start
	log.Info().Msg("Job started")

	result, err := j.run(start, log)
	if err == nil && publish != nil {
		err = publish(result)
	}
	if err != nil {
		log.Error().Err(err).Str("stage", j.stage.String()).Msg("Error occurred")
		j.stage = Failed
		metrics.ObserveFailure()
		return nil, err
	}

	j.stage = MetricsEmitted
	metrics.ObserveSuccess(result.RowsProcessed, result.Value.Float64(), result.LatencyMs)
	log.Info().
		Stringer("signal_rate", result.Value).
		Int("rows_processed", result.RowsProcessed).
		Msg("Metrics")
	log.Info().Int64("latency_ms", result.LatencyMs).Msg("Job completed successfully")
	return result, nil
}

func (j *Job) run(start time.Time, log zerolog.Logger) (*report.Metrics, error) {
	cfg, err := config.Load(j.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.Seed < 0 || cfg.Seed > math.MaxUint32 {
		return nil, errs.New(errs.ErrValidation, fmt.Sprintf("Seed must be between 0 and %d, got %d", uint32(math.MaxUint32), cfg.Seed))
	}
	j.stage = ConfigLoaded
	log.Info().Int64("seed", cfg.Seed).Int("window", cfg.Window).Str("version", cfg.Version).Msg("Config loaded")

	table, err := dataset.LoadCSV(j.InputPath)
	if err != nil {
		return nil, err
	}
	closes, err := table.Float64s(dataset.CloseColumn)
	if err != nil {
		return nil, err
	}
	j.stage = DataLoaded
	log.Info().Int("rows", table.Len()).Msg("Data loaded")

	strat, err := strategy.Build("", strategy.Params{Window: cfg.Window})
	if err != nil {
		return nil, err
	}
	series, err := strat.Apply(closes)
	if err != nil {
		return nil, err
	}
	log.Info().Int("window", strat.Window()).Msg("Rolling mean calculated")
	j.stage = Transformed
	log.Info().Str("strategy", strat.Name()).Msg("Signals generated")

	rate := report.RoundRate(series.Rate())
	latency := report.Latency(start, j.Now())
	return report.NewMetrics(cfg.Version, table.Len(), rate, latency, cfg.Seed), nil
}
