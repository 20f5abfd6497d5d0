// Package metrics provides Recorder implementations backed by Prometheus
// and InfluxDB, plus composition helpers.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/enerflow/orc/core/model"
)

// PromSink records evaluation telemetry in Prometheus metrics.
type PromSink struct {
	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
	netWork     prometheus.Gauge
	objective   prometheus.Gauge
	outcomes    *prometheus.CounterVec
}

// NewPromSink registers the evaluation metrics on the provided registerer.
// If reg is nil, the default registerer is used. If the collectors are
// already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orc_cycle_evaluations_total",
			Help: "Total number of cycle evaluations",
		}, []string{"feasible"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orc_cycle_evaluation_duration_seconds",
			Help:    "Wall time of a single cycle evaluation",
			Buckets: prometheus.DefBuckets,
		}),
		netWork: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orc_net_work_kw",
			Help: "Net work of the latest recorded outcome",
		}),
		objective: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orc_objective_value",
			Help: "Objective value of the latest recorded outcome",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orc_optimization_outcomes_total",
			Help: "Total number of optimization outcomes",
		}, []string{"feasible"}),
	}

	if err := register(reg, &s.evaluations); err != nil {
		return nil, err
	}
	if err := registerHistogram(reg, &s.duration); err != nil {
		return nil, err
	}
	if err := registerGauge(reg, &s.netWork); err != nil {
		return nil, err
	}
	if err := registerGauge(reg, &s.objective); err != nil {
		return nil, err
	}
	if err := register(reg, &s.outcomes); err != nil {
		return nil, err
	}
	return s, nil
}

func register(reg prometheus.Registerer, cv **prometheus.CounterVec) error {
	if err := reg.Register(*cv); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*cv = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return nil
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.Histogram) error {
	if err := reg.Register(*h); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*h = are.ExistingCollector.(prometheus.Histogram)
	}
	return nil
}

func registerGauge(reg prometheus.Registerer, g *prometheus.Gauge) error {
	if err := reg.Register(*g); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*g = are.ExistingCollector.(prometheus.Gauge)
	}
	return nil
}

// NetWorkGauge exposes the net-work gauge for inspection.
func (s *PromSink) NetWorkGauge() prometheus.Gauge { return s.netWork }

// CycleEvaluated increments the evaluation counter and observes duration.
func (s *PromSink) CycleEvaluated(feasible bool, seconds float64) {
	s.evaluations.WithLabelValues(strconv.FormatBool(feasible)).Inc()
	s.duration.Observe(seconds)
}

// OutcomeRecorded updates the outcome gauges and counter.
func (s *PromSink) OutcomeRecorded(out *model.OptimizationOutcome) {
	s.outcomes.WithLabelValues(strconv.FormatBool(out.Feasible)).Inc()
	if out.Result != nil {
		s.netWork.Set(out.Result.NetWorkKW)
	}
	s.objective.Set(out.Objective)
}
