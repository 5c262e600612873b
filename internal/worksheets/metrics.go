package worksheets

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/worksheet-gen/backend/internal/models"
)

// Metrics records generation passes and the non-fatal conditions they report.
type Metrics struct {
	generations *prometheus.CounterVec
	conditions  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	problems    *prometheus.HistogramVec
}

// NewMetrics registers the worksheet metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		generations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worksheet_generations_total",
				Help: "Generation passes run, by difficulty and origin.",
			},
			[]string{"difficulty", "origin"},
		),
		conditions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worksheet_generation_conditions_total",
				Help: "Non-fatal conditions reported by generation passes.",
			},
			[]string{"difficulty", "condition"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worksheet_generation_duration_seconds",
				Help:    "Time spent in one generation pass.",
				Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
			},
			[]string{"difficulty"},
		),
		problems: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worksheet_problems_produced",
				Help:    "Problems produced per generation pass.",
				Buckets: []float64{1, 5, 10, 20, 40, 80, 160},
			},
			[]string{"difficulty"},
		),
	}
}

func (m *Metrics) observe(difficulty models.Difficulty, origin string, report models.Report, took time.Duration) {
	if m == nil {
		return
	}
	d := string(difficulty)
	m.generations.WithLabelValues(d, origin).Inc()
	m.duration.WithLabelValues(d).Observe(took.Seconds())
	m.problems.WithLabelValues(d).Observe(float64(report.Produced))

	if report.OperationsCoerced {
		m.conditions.WithLabelValues(d, "operations_coerced").Inc()
	}
	if report.InfeasibleCipher() {
		m.conditions.WithLabelValues(d, "infeasible_cipher").Inc()
	}
	if len(report.UnconstructableLetters) > 0 {
		m.conditions.WithLabelValues(d, "unconstructable_letter").Inc()
	}
	if len(report.DroppedLetters) > 0 {
		m.conditions.WithLabelValues(d, "dropped_letters").Inc()
	}
	if report.Shortfall() {
		m.conditions.WithLabelValues(d, "fill_shortfall").Inc()
	}
}
