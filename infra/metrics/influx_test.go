package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/enerflow/orc/core/model"
	infralogger "github.com/enerflow/orc/infra/logger"
)

func TestInfluxSink_OutcomeRecorded(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(Config{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"}, infralogger.New("influx-test"))
	defer sink.Close()

	eff := model.Ratio(20.9, 215.4)
	sink.OutcomeRecorded(&model.OptimizationOutcome{
		ID:         "out-1",
		Feasible:   true,
		Objective:  20.9,
		Allocation: model.AuxLoad{PreheaterKW: 5, SuperheaterKW: 5},
		Result:     &model.CycleResult{NetWorkKW: 20.9, ThermalEff: eff},
		Evaluated:  25,
	})

	if !strings.Contains(body, "optimization_outcome") {
		t.Fatalf("measurement missing from line protocol: %q", body)
	}
	for _, want := range []string{`outcome_id=out-1`, `feasible=true`, `net_work_kw=20.9`, `preheater_kw=5`} {
		if !strings.Contains(body, want) {
			t.Errorf("line protocol missing %q: %q", want, body)
		}
	}
}

func TestInfluxSink_CycleEvaluated(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(Config{URL: srv.URL}, infralogger.New("influx-test"))
	defer sink.Close()

	sink.CycleEvaluated(false, 0.0042)
	if !strings.Contains(body, "cycle_evaluation") || !strings.Contains(body, `feasible=false`) {
		t.Fatalf("unexpected line protocol: %q", body)
	}
}

func TestInfluxSinkWithFallback_Unreachable(t *testing.T) {
	rec := NewInfluxSinkWithFallback(Config{URL: "http://127.0.0.1:1"}, infralogger.New("influx-test"))
	if _, ok := rec.(*InfluxSink); ok {
		t.Fatal("expected fallback recorder for unreachable endpoint")
	}
	// The fallback must be safe to use.
	rec.CycleEvaluated(true, 0.001)
	rec.OutcomeRecorded(&model.OptimizationOutcome{})
}

func TestMultiSinkFansOut(t *testing.T) {
	var calls int
	multi := NewMultiSink(recorderFunc(func() { calls++ }), recorderFunc(func() { calls++ }))
	multi.CycleEvaluated(true, 0.001)
	multi.OutcomeRecorded(&model.OptimizationOutcome{})
	if calls != 4 {
		t.Fatalf("fan-out calls = %d, want 4", calls)
	}
}

type recorderFunc func()

func (f recorderFunc) CycleEvaluated(bool, float64)               { f() }
func (f recorderFunc) OutcomeRecorded(*model.OptimizationOutcome) { f() }
