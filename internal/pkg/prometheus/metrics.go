package prometheus

import "github.com/prometheus/client_golang/prometheus"

const namespace = "reminder"

// registry is served on the gateway metrics endpoint.
var registry = prometheus.NewRegistry()

func GetRegistry() *prometheus.Registry {
	return registry
}

var (
	// FiredTotal counts dispatched occurrences by kind (reminder, task).
	FiredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fired_total",
		Help:      "Occurrences handed to the dispatch callback.",
	}, []string{"kind"})

	// SkippedTotal counts occurrences that were due but not dispatched.
	SkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skipped_total",
		Help:      "Occurrences skipped by the calendar gate or the misfire window.",
	}, []string{"reason"})

	DispatchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_errors_total",
		Help:      "Dispatch callback failures, panics included.",
	})

	ArmedJobs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "armed_jobs",
		Help:      "Triggers currently armed by the scheduler.",
	})

	HolidayFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "holiday",
		Name:      "fetch_total",
		Help:      "Holiday calendar fetch attempts by result.",
	}, []string{"result"})

	LLMAvailable = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "llm_available",
		Help:      "1 when the chat model backend passed its last health check.",
	})

	ToolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "tool_calls_total",
		Help:      "Tool calls requested by the chat model, by tool and result.",
	}, []string{"tool", "result"})
)

func init() {
	registry.MustRegister(FiredTotal, SkippedTotal, DispatchErrors, ArmedJobs, HolidayFetches, LLMAvailable, ToolCalls)
}
