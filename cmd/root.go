// Package cmd wires the command-line interface for the cycle evaluator.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/enerflow/orc/config"
	"github.com/enerflow/orc/core/cycle"
	coremetrics "github.com/enerflow/orc/core/metrics"
	"github.com/enerflow/orc/core/optimize"
	"github.com/enerflow/orc/core/source"
	"github.com/enerflow/orc/infra/logger"
	inframetrics "github.com/enerflow/orc/infra/metrics"
	infraprops "github.com/enerflow/orc/infra/props"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "orc",
	Short: "Organic Rankine cycle evaluation and optimization",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// pipeline bundles the wired evaluation components.
type pipeline struct {
	cfg       *config.Config
	resolver  *source.Resolver
	optimizer *optimize.Optimizer
	inputs    source.Inputs
	log       logger.Logger
}

func buildPipeline() (*pipeline, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger.SetGlobalLevel(cfg.Logging.Level)
	log := logger.New("orc")

	oracle := infraprops.NewCorrelationOracle()
	solver := cycle.NewSolver(oracle, logger.New("solver"))
	ref, err := solver.Reference(cfg.Cycle.WorkingFluid, cfg.Cycle.ReferenceTempK, cfg.Cycle.ReferencePressPa)
	if err != nil {
		return nil, err
	}
	resolver := source.NewResolver(oracle, solver, infraprops.MixtureID, logger.New("resolver"))

	var sinks []coremetrics.Recorder
	if cfg.Metrics.Prometheus.Enabled {
		sink, err := inframetrics.NewPromSink(nil)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.Influx.Enabled {
		sinks = append(sinks, inframetrics.NewInfluxSinkWithFallback(cfg.Metrics.Influx.Sink(), logger.New("influx")))
	}
	var rec coremetrics.Recorder = coremetrics.Nop{}
	if len(sinks) == 1 {
		rec = sinks[0]
	} else if len(sinks) > 1 {
		rec = inframetrics.NewMultiSink(sinks...)
	}

	return &pipeline{
		cfg:       cfg,
		resolver:  resolver,
		optimizer: optimize.NewOptimizer(resolver, rec, logger.New("optimizer")),
		inputs: source.Inputs{
			WorkingFluid:      cfg.Cycle.WorkingFluid,
			CondensingTemp:    cfg.Cycle.CondensingTempK,
			PumpEfficiency:    cfg.Cycle.PumpEfficiency,
			TurbineEfficiency: cfg.Cycle.TurbineEfficiency,
			Reference:         ref,
		},
		log: log,
	}, nil
}
