package triviagen

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Attempt outcomes used as metric labels and transcript entries.
const (
	OutcomeAccepted        = "accepted"
	OutcomeGenerationError = "generation_failed"
	OutcomeParseError      = "parse_failed"
	OutcomeDuplicate       = "duplicate"
)

// Metrics groups the pipeline's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	Attempts        *prometheus.CounterVec
	Generations     *prometheus.CounterVec
	AttemptsPerCall prometheus.Histogram
	Answers         *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_generation_attempts_total",
				Help: "Generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_generations_total",
				Help: "Unique question requests by result",
			},
			[]string{"result"},
		),
		AttemptsPerCall: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trivia_generation_attempts_per_call",
				Help:    "Attempts spent per unique question request",
				Buckets: []float64{1, 2, 3, 4, 5, 8},
			},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_answers_total",
				Help: "Checked answers by correctness",
			},
			[]string{"correct"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "endpoint"},
		),
	}

	reg.MustRegister(
		m.Attempts,
		m.Generations,
		m.AttemptsPerCall,
		m.Answers,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

func (m *Metrics) observeAttempt(outcome string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeGeneration(attempts int, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.Generations.WithLabelValues(result).Inc()
	m.AttemptsPerCall.Observe(float64(attempts))
}

// ObserveAnswer counts one evaluated answer.
func (m *Metrics) ObserveAnswer(correct bool) {
	if m == nil {
		return
	}
	label := "false"
	if correct {
		label = "true"
	}
	m.Answers.WithLabelValues(label).Inc()
}
