package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/enerflow/orc/core/logger"
	coremetrics "github.com/enerflow/orc/core/metrics"
	"github.com/enerflow/orc/core/model"
)

// Config holds the InfluxDB connection settings.
type Config struct {
	URL    string `koanf:"url"`
	Token  string `koanf:"token"`
	Org    string `koanf:"org"`
	Bucket string `koanf:"bucket"`
}

// InfluxSink writes evaluation telemetry to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg Config, log logger.Logger) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      log,
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a Nop
// recorder if the health check fails, so an unreachable telemetry backend
// never blocks an evaluation run.
func NewInfluxSinkWithFallback(cfg Config, log logger.Logger) coremetrics.Recorder {
	sink := NewInfluxSink(cfg, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			log.Errorf("influx health check error: %v", err)
		} else {
			log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.Nop{}
	}
	return sink
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

// CycleEvaluated writes one evaluation event.
func (s *InfluxSink) CycleEvaluated(feasible bool, seconds float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("cycle_evaluation").
		AddTag("feasible", strconv.FormatBool(feasible)).
		AddField("duration_s", round6(seconds)).
		SetTime(time.Now())
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write: %v", err)
	}
}

// OutcomeRecorded writes the optimizer's final report as one point.
func (s *InfluxSink) OutcomeRecorded(out *model.OptimizationOutcome) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimization_outcome").
		AddTag("outcome_id", out.ID).
		AddTag("feasible", strconv.FormatBool(out.Feasible)).
		AddField("objective", round3(out.Objective)).
		AddField("preheater_kw", round3(out.Allocation.PreheaterKW)).
		AddField("superheater_kw", round3(out.Allocation.SuperheaterKW)).
		AddField("evaluated", out.Evaluated).
		AddField("infeasible", out.Infeasible).
		SetTime(time.Now())
	if out.Result != nil {
		p.AddField("net_work_kw", round3(out.Result.NetWorkKW))
		if out.Result.ThermalEff.Defined {
			p.AddField("thermal_efficiency", round6(out.Result.ThermalEff.Value))
		}
	}
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write: %v", err)
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
