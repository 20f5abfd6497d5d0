package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/enerflow/orc/core/model"
)

var (
	sweepStage  string
	sweepMaxKW  float64
	sweepSteps  int
	sweepOutput string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep auxiliary power for one stage and report cycle sensitivity",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepStage, "stage", "superheater", "stage to sweep: preheater or superheater")
	sweepCmd.Flags().Float64Var(&sweepMaxKW, "max-kw", 10, "upper end of the sweep")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of samples including the endpoints")
	sweepCmd.Flags().StringVarP(&sweepOutput, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sweepSteps < 2 {
		return fmt.Errorf("steps must be at least 2")
	}
	if sweepStage != "preheater" && sweepStage != "superheater" {
		return fmt.Errorf("unknown stage %q", sweepStage)
	}

	p, err := buildPipeline()
	if err != nil {
		return err
	}

	allocs := make([]model.AuxLoad, sweepSteps)
	for i := range allocs {
		kw := sweepMaxKW * float64(i) / float64(sweepSteps-1)
		if sweepStage == "preheater" {
			allocs[i].PreheaterKW = kw
		} else {
			allocs[i].SuperheaterKW = kw
		}
	}

	points, err := p.optimizer.Sweep(ctx, p.cfg.Source.Spec(), p.inputs, p.cfg.Optimizer.Build(p.cfg.Safety), allocs)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	out, closeFn, err := openOutput(sweepOutput)
	if err != nil {
		return err
	}
	defer closeFn()

	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"stage_kw", "net_work_kw", "thermal_efficiency", "status"}); err != nil {
		return err
	}
	for i, pt := range points {
		kw := allocs[i].PreheaterKW + allocs[i].SuperheaterKW
		rec := []string{strconv.FormatFloat(kw, 'f', -1, 64), "", "", "ok"}
		switch {
		case pt.Skipped:
			rec[3] = "above_safety_limit"
		case pt.Err != nil:
			rec[3] = "infeasible"
		default:
			rec[1] = strconv.FormatFloat(pt.Result.NetWorkKW, 'f', 4, 64)
			if pt.Result.ThermalEff.Defined {
				rec[2] = strconv.FormatFloat(pt.Result.ThermalEff.Value, 'f', 6, 64)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
