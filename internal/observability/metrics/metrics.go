package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/symptom-scout/internal/llm"
)

// TriageMetrics exposes counters/histograms for triage, booking and LLM calls.
type TriageMetrics struct {
	turnsTotal        *prometheus.CounterVec
	terminationsTotal *prometheus.CounterVec
	shortcutsTotal    *prometheus.CounterVec
	invokerFailures   prometheus.Counter
	bookingsTotal     *prometheus.CounterVec
	llmLatency        *prometheus.HistogramVec
	llmTokens         *prometheus.CounterVec
}

func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptom_scout",
			Subsystem: "triage",
			Name:      "turns_total",
			Help:      "Completed triage turns by reported urgency",
		}, []string{"urgency"}),
		terminationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptom_scout",
			Subsystem: "triage",
			Name:      "terminations_total",
			Help:      "Triage conversations ended by the termination policy",
		}, []string{"reason"}),
		shortcutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptom_scout",
			Subsystem: "triage",
			Name:      "shortcuts_total",
			Help:      "Booking answers resolved locally without the prompt invoker",
		}, []string{"intent"}),
		invokerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "symptom_scout",
			Subsystem: "triage",
			Name:      "invoker_failures_total",
			Help:      "Prompt invoker failures that produced the fallback result",
		}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptom_scout",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome and email status",
		}, []string{"status", "email_status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "symptom_scout",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"operation", "provider", "status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptom_scout",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens consumed by LLM completions",
		}, []string{"provider", "type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.turnsTotal,
		m.terminationsTotal,
		m.shortcutsTotal,
		m.invokerFailures,
		m.bookingsTotal,
		m.llmLatency,
		m.llmTokens,
	)
	return m
}

func (m *TriageMetrics) ObserveTurn(urgency string) {
	if m == nil {
		return
	}
	if urgency == "" {
		urgency = "none"
	}
	m.turnsTotal.WithLabelValues(urgency).Inc()
}

func (m *TriageMetrics) ObserveTermination(reason string) {
	if m == nil {
		return
	}
	m.terminationsTotal.WithLabelValues(reason).Inc()
}

func (m *TriageMetrics) ObserveShortcut(intent string) {
	if m == nil {
		return
	}
	m.shortcutsTotal.WithLabelValues(intent).Inc()
}

func (m *TriageMetrics) ObserveInvokerFailure() {
	if m == nil {
		return
	}
	m.invokerFailures.Inc()
}

func (m *TriageMetrics) ObserveBooking(status, emailStatus string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status, emailStatus).Inc()
}

// OnCallComplete implements llm.Observer.
func (m *TriageMetrics) OnCallComplete(event llm.CallEvent) {
	if m == nil {
		return
	}
	status := "ok"
	if !event.Success {
		status = "error"
	}
	provider := event.Provider
	if provider == "" {
		provider = "unknown"
	}
	m.llmLatency.WithLabelValues(event.Operation, provider, status).Observe(event.Latency.Seconds())
	if event.InputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "input").Add(float64(event.InputTokens))
	}
	if event.OutputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "output").Add(float64(event.OutputTokens))
	}
}

var _ llm.Observer = (*TriageMetrics)(nil)
