// Package optimize searches auxiliary-power allocations for the best cycle
// performance. A deterministic coarse grid bounds the search, a Nelder-Mead
// polish refines the best grid cell, and safety limits derived from the
// operating point cap both phases.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	gopt "gonum.org/v1/gonum/optimize"

	"github.com/enerflow/orc/core/logger"
	"github.com/enerflow/orc/core/metrics"
	"github.com/enerflow/orc/core/model"
	"github.com/enerflow/orc/core/safety"
	"github.com/enerflow/orc/core/source"
)

// ErrNoFeasibleCandidate is returned when no allocation, including the
// zero-power fallback, yields a solvable cycle.
var ErrNoFeasibleCandidate = errors.New("no feasible allocation")

// Objective selects the figure of merit to maximize.
type Objective string

const (
	ObjectiveNetWork    Objective = "net_work"
	ObjectiveThermalEff Objective = "thermal_efficiency"
	ObjectiveExergyEff  Objective = "exergy_efficiency"
)

// Config tunes the search. Zero values fall back to defaults.
type Config struct {
	Objective            Objective
	NominalPreheaterKW   float64 // upper bound requested by the operator
	NominalSuperheaterKW float64
	GridPoints           int // per axis, default 5
	Workers              int // default runtime.NumCPU
	SkipRefine           bool
	Safety               safety.Config
}

func (c Config) objective() Objective {
	if c.Objective == "" {
		return ObjectiveNetWork
	}
	return c.Objective
}

func (c Config) gridPoints() int {
	if c.GridPoints > 1 {
		return c.GridPoints
	}
	return 5
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Optimizer evaluates allocations against a fixed heat source.
type Optimizer struct {
	resolver *source.Resolver
	rec      metrics.Recorder
	log      logger.Logger
}

// NewOptimizer wires the optimizer. rec and log may be nil.
func NewOptimizer(resolver *source.Resolver, rec metrics.Recorder, log logger.Logger) *Optimizer {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Optimizer{resolver: resolver, rec: rec, log: log}
}

type candidate struct {
	alloc model.AuxLoad
	score float64
	res   *model.CycleResult
}

// Optimize searches the bounded allocation plane and reports the best
// feasible candidate. The search is deterministic for a given Config: grid
// candidates are scored in index order and ties keep the lowest index.
func (o *Optimizer) Optimize(ctx context.Context, spec model.HeatSourceSpec, in source.Inputs, cfg Config) (*model.OptimizationOutcome, error) {
	op, err := o.resolver.Resolve(spec, in)
	if err != nil {
		return nil, fmt.Errorf("resolve operating point: %w", err)
	}
	limits := safety.Derive(op, cfg.Safety)
	nominal := model.SafetyLimits{
		PreheaterKW:   cfg.NominalPreheaterKW,
		SuperheaterKW: cfg.NominalSuperheaterKW,
		MassFlow:      op.MassFlow,
	}
	boundPre := effectiveBound(cfg.NominalPreheaterKW, limits.PreheaterKW, cfg.Safety.Disabled)
	boundSup := effectiveBound(cfg.NominalSuperheaterKW, limits.SuperheaterKW, cfg.Safety.Disabled)

	cands := gridCandidates(boundPre, boundSup, cfg.gridPoints())
	scores := make([]candidate, len(cands))
	evaluated, infeasible := o.scoreGrid(ctx, op, spec.InletTemp, in, cfg, cands, scores)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := scores[0]
	for _, c := range scores[1:] {
		if c.score > best.score {
			best = c
		}
	}

	if !cfg.SkipRefine && !math.IsInf(best.score, -1) && (boundPre > 0 || boundSup > 0) {
		refined, n := o.refine(op, spec.InletTemp, in, cfg.objective(), best, boundPre, boundSup)
		evaluated += n
		if refined.score > best.score {
			best = refined
		}
	}

	outcome := &model.OptimizationOutcome{
		ID:         uuid.NewString(),
		Evaluated:  evaluated,
		Infeasible: infeasible,
	}
	if math.IsInf(best.score, -1) {
		// Fall back to the unassisted cycle.
		res, evalErr := o.resolver.EvaluateAt(op, spec.InletTemp, in.Reference, model.AuxLoad{})
		if evalErr != nil {
			o.rec.OutcomeRecorded(outcome)
			return nil, fmt.Errorf("%w: fallback failed: %v", ErrNoFeasibleCandidate, evalErr)
		}
		outcome.Result = res
		outcome.Binding = map[string]model.BoundKind{}
		o.rec.OutcomeRecorded(outcome)
		return outcome, nil
	}

	alloc, binding := safety.Clamp(best.alloc, nominal, limits, cfg.Safety)
	outcome.Allocation = alloc
	outcome.Result = best.res
	outcome.Objective = best.score
	outcome.Feasible = true
	outcome.Binding = binding
	o.log.Infof("optimization %s: objective %.4f at preheat %.2f kW, superheat %.2f kW (%d evaluated, %d infeasible)",
		outcome.ID, best.score, alloc.PreheaterKW, alloc.SuperheaterKW, evaluated, infeasible)
	o.rec.OutcomeRecorded(outcome)
	return outcome, nil
}

// SweepPoint is one sensitivity-sweep sample.
type SweepPoint struct {
	Allocation model.AuxLoad
	Result     *model.CycleResult
	Skipped    bool // above the safety limit, never evaluated
	Err        error
}

// Sweep evaluates the given allocations in order, skipping any that exceed
// the derived safety limits. It stops early when ctx is cancelled.
func (o *Optimizer) Sweep(ctx context.Context, spec model.HeatSourceSpec, in source.Inputs, cfg Config, allocs []model.AuxLoad) ([]SweepPoint, error) {
	op, err := o.resolver.Resolve(spec, in)
	if err != nil {
		return nil, fmt.Errorf("resolve operating point: %w", err)
	}
	limits := safety.Derive(op, cfg.Safety)

	out := make([]SweepPoint, 0, len(allocs))
	for _, alloc := range allocs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		pt := SweepPoint{Allocation: alloc}
		if !cfg.Safety.Disabled && (alloc.PreheaterKW > limits.PreheaterKW || alloc.SuperheaterKW > limits.SuperheaterKW) {
			pt.Skipped = true
			out = append(out, pt)
			continue
		}
		pt.Result, pt.Err = o.evaluate(op, spec.InletTemp, in, alloc)
		out = append(out, pt)
	}
	return out, nil
}

func (o *Optimizer) evaluate(op *model.OperatingPoint, srcInlet float64, in source.Inputs, alloc model.AuxLoad) (*model.CycleResult, error) {
	start := time.Now()
	res, err := o.resolver.EvaluateAt(op, srcInlet, in.Reference, alloc)
	o.rec.CycleEvaluated(err == nil, time.Since(start).Seconds())
	return res, err
}

func (o *Optimizer) scoreGrid(ctx context.Context, op *model.OperatingPoint, srcInlet float64, in source.Inputs, cfg Config, cands []model.AuxLoad, scores []candidate) (evaluated, infeasible int) {
	obj := cfg.objective()
	// Pre-seed every slot as infeasible so candidates skipped on
	// cancellation cannot win the argmax.
	for i := range scores {
		scores[i] = candidate{alloc: cands[i], score: math.Inf(-1)}
	}

	workers := cfg.workers()
	if workers > len(cands) {
		workers = len(cands)
	}
	idx := make(chan int)
	var wg sync.WaitGroup
	var dispatched int
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				res, err := o.evaluate(op, srcInlet, in, cands[i])
				if err != nil {
					continue
				}
				scores[i] = candidate{alloc: cands[i], score: scoreResult(obj, res), res: res}
			}
		}()
	}
dispatch:
	for i := range cands {
		select {
		case idx <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(idx)
	wg.Wait()

	for i := range scores {
		if math.IsInf(scores[i].score, -1) {
			infeasible++
		}
	}
	return dispatched, infeasible
}

// refine polishes the best grid cell with a bounded Nelder-Mead descent.
func (o *Optimizer) refine(op *model.OperatingPoint, srcInlet float64, in source.Inputs, obj Objective, best candidate, boundPre, boundSup float64) (candidate, int) {
	evals := 0
	fn := func(x []float64) float64 {
		if x[0] < 0 || x[0] > boundPre || x[1] < 0 || x[1] > boundSup {
			return math.Inf(1)
		}
		evals++
		res, err := o.evaluate(op, srcInlet, in, model.AuxLoad{PreheaterKW: x[0], SuperheaterKW: x[1]})
		if err != nil {
			return math.Inf(1)
		}
		return -scoreResult(obj, res)
	}
	settings := &gopt.Settings{
		Converger: &gopt.FunctionConverge{Absolute: 1e-6, Iterations: 20},
	}
	result, err := gopt.Minimize(gopt.Problem{Func: fn}, []float64{best.alloc.PreheaterKW, best.alloc.SuperheaterKW}, settings, &gopt.NelderMead{})
	if err != nil || result == nil || math.IsInf(result.F, 1) || math.IsNaN(result.F) {
		o.log.Debugf("refinement abandoned: %v", err)
		return best, evals
	}
	alloc := model.AuxLoad{PreheaterKW: result.X[0], SuperheaterKW: result.X[1]}
	res, evalErr := o.evaluate(op, srcInlet, in, alloc)
	evals++
	if evalErr != nil {
		return best, evals
	}
	return candidate{alloc: alloc, score: scoreResult(obj, res), res: res}, evals
}

func effectiveBound(nominal, limit float64, disabled bool) float64 {
	if nominal < 0 {
		nominal = 0
	}
	if disabled || limit > nominal {
		return nominal
	}
	return limit
}

func gridCandidates(boundPre, boundSup float64, n int) []model.AuxLoad {
	pre := axis(boundPre, n)
	sup := axis(boundSup, n)
	out := make([]model.AuxLoad, 0, len(pre)*len(sup))
	for _, p := range pre {
		for _, s := range sup {
			out = append(out, model.AuxLoad{PreheaterKW: p, SuperheaterKW: s})
		}
	}
	return out
}

func axis(bound float64, n int) []float64 {
	if bound <= 0 {
		return []float64{0}
	}
	return floats.Span(make([]float64, n), 0, bound)
}

func scoreResult(obj Objective, res *model.CycleResult) float64 {
	switch obj {
	case ObjectiveThermalEff:
		return indicatorScore(res.ThermalEff)
	case ObjectiveExergyEff:
		return indicatorScore(res.ExergyEff)
	default:
		return res.NetWorkKW
	}
}

func indicatorScore(ind model.Indicator) float64 {
	if !ind.Defined {
		return math.Inf(-1)
	}
	return ind.Value
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
