package automation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the lifecycle metrics of an Orchestrator. A nil *Metrics records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	extrinsics  *prometheus.CounterVec
	waits       *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcm_automation_task_transitions_total",
			Help: "Number of task lifecycle transitions by target state",
		}, []string{"chain", "state"}),
		extrinsics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcm_automation_extrinsics_total",
			Help: "Number of submitted extrinsics by call and outcome",
		}, []string{"chain", "call", "outcome"}),
		waits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xcm_automation_confirmation_wait_seconds",
			Help:    "Time spent waiting for confirmation events",
			Buckets: []float64{1, 6, 12, 30, 60, 120, 300, 900, 3600},
		}, []string{"chain", "outcome"}),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.extrinsics, m.waits} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) transition(chain string, to State) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(chain, string(to)).Inc()
}

func (m *Metrics) extrinsic(chain, call string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.extrinsics.WithLabelValues(chain, call, outcome).Inc()
}

func (m *Metrics) wait(chain string, matched bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "timeout"
	if matched {
		outcome = "matched"
	}
	m.waits.WithLabelValues(chain, outcome).Observe(d.Seconds())
}
