package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	inframetrics "github.com/enerflow/orc/infra/metrics"
	"github.com/enerflow/orc/infra/mqtt"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search auxiliary-power allocations for the best cycle performance",
	RunE:  runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline()
	if err != nil {
		return err
	}
	if p.cfg.Metrics.Prometheus.Enabled && p.cfg.Metrics.Prometheus.Addr != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, p.cfg.Metrics.Prometheus.Addr, p.log); err != nil {
				p.log.Errorf("prom server: %v", err)
			}
		}()
	}

	outcome, err := p.optimizer.Optimize(ctx, p.cfg.Source.Spec(), p.inputs, p.cfg.Optimizer.Build(p.cfg.Safety))
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	if p.cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewPublisher(p.cfg.MQTT)
		if err != nil {
			p.log.Errorf("mqtt publisher: %v", err)
		} else {
			defer pub.Close()
			if err := pub.PublishOutcome(outcome); err != nil {
				p.log.Errorf("publish outcome: %v", err)
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
