package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wolfman30/symptom-scout/internal/llm"
)

func TestTriageMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTriageMetrics(reg)

	m.ObserveTurn("Urgent")
	m.ObserveTurn("Urgent")
	m.ObserveTurn("")
	m.ObserveTermination("max_turns")
	m.ObserveShortcut("accept")
	m.ObserveInvokerFailure()
	m.ObserveBooking("Booked", "Sent")

	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues("Urgent")); got != 2 {
		t.Fatalf("expected 2 urgent turns, got %v", got)
	}
	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues("none")); got != 1 {
		t.Fatalf("expected blank urgency recorded as none, got %v", got)
	}
	if got := testutil.ToFloat64(m.invokerFailures); got != 1 {
		t.Fatalf("expected 1 invoker failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("Booked", "Sent")); got != 1 {
		t.Fatalf("expected 1 booking, got %v", got)
	}
}

func TestTriageMetricsObservesLLMCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTriageMetrics(reg)

	m.OnCallComplete(llm.CallEvent{Operation: "triage", Provider: "gemini", Latency: 200 * time.Millisecond, Success: true, InputTokens: 30, OutputTokens: 12})
	m.OnCallComplete(llm.CallEvent{Operation: "triage", Latency: time.Second})

	if got := testutil.ToFloat64(m.llmTokens.WithLabelValues("gemini", "input")); got != 30 {
		t.Fatalf("expected 30 input tokens, got %v", got)
	}
	if got := testutil.CollectAndCount(m.llmLatency); got != 2 {
		t.Fatalf("expected 2 latency series, got %d", got)
	}
}

func TestTriageMetricsNilSafe(t *testing.T) {
	var m *TriageMetrics
	m.ObserveTurn("Urgent")
	m.ObserveTermination("closing_phrase")
	m.ObserveShortcut("decline")
	m.ObserveInvokerFailure()
	m.ObserveBooking("Failed", "Failed")
	m.OnCallComplete(llm.CallEvent{})
}
