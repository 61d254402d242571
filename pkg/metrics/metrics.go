package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "spmb"

// Metrics records acceptance runs. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Runs by mode (dry_run, commit) and outcome (ok, conflict, failed, invalid)
	Runs *prometheus.CounterVec

	// Ranking latency for one period, load to allocation
	RankDuration prometheus.Histogram

	// Applicants per recommendation in the most recent run of a period
	Outcomes *prometheus.GaugeVec

	// Notification deliveries by result (sent, failed, skipped)
	Notifications *prometheus.CounterVec
}

// New registers the admission metrics on a fresh registry
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the admission metrics on reg
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spmb_acceptance_runs_total",
			Help: "Acceptance runs by mode and outcome",
		}, []string{"mode", "outcome"}),

		RankDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "spmb_rank_duration_seconds",
			Help:    "Duration of loading, ranking and allocating one admission period",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		Outcomes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spmb_applicants_by_recommendation",
			Help: "Applicants per recommendation in the latest run of a period",
		}, []string{"period", "recommendation"}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spmb_notifications_total",
			Help: "Result letters by delivery result",
		}, []string{"result"}),
	}
}

// IncrementRun records a finished run
func (m *Metrics) IncrementRun(mode, outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(mode, outcome).Inc()
	}
}

// ObserveRankDuration records how long a ranking took
func (m *Metrics) ObserveRankDuration(d time.Duration) {
	if m != nil {
		m.RankDuration.Observe(d.Seconds())
	}
}

// SetOutcomes records the recommendation counts of a period's latest run
func (m *Metrics) SetOutcomes(periodID string, accepted, waitlisted, rejected int) {
	if m != nil {
		m.Outcomes.WithLabelValues(periodID, "accepted").Set(float64(accepted))
		m.Outcomes.WithLabelValues(periodID, "waitlist").Set(float64(waitlisted))
		m.Outcomes.WithLabelValues(periodID, "rejected").Set(float64(rejected))
	}
}

// IncrementNotification records one result letter
func (m *Metrics) IncrementNotification(result string) {
	if m != nil {
		m.Notifications.WithLabelValues(result).Inc()
	}
}

// Push sends everything recorded to a Pushgateway. The CLI is a batch job, so there is no
// scrape endpoint.
func (m *Metrics) Push(url, instance string) error {
	if m == nil || url == "" {
		return nil
	}

	err := push.New(url, jobName).
		Gatherer(m.gatherer).
		Grouping("instance", instance).
		Push()
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
