package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics publishes persistence adapter counters through Prometheus. A nil
// *Metrics records nothing.
type Metrics struct {
	writes        *prometheus.CounterVec
	writeDuration prometheus.Histogram
	families      prometheus.Gauge
	metaDiscarded prometheus.Counter
}

// NewMetrics builds the adapter metrics and registers them on reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familycore",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Backend writes by result.",
		}, []string{"result"}),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "familycore",
			Subsystem: "store",
			Name:      "write_duration_seconds",
			Help:      "Duration of backend writes.",
			Buckets:   prometheus.DefBuckets,
		}),
		families: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "familycore",
			Subsystem: "store",
			Name:      "families",
			Help:      "Families held in memory.",
		}),
		metaDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "familycore",
			Subsystem: "store",
			Name:      "meta_discarded_total",
			Help:      "Seed meta records discarded for a storage version mismatch.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.writes, m.writeDuration, m.families, m.metaDiscarded)
	}
	return m
}

func (m *Metrics) observeWrite(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.writes.WithLabelValues(result).Inc()
	m.writeDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) setFamilies(n int) {
	if m == nil {
		return
	}
	m.families.Set(float64(n))
}

func (m *Metrics) metaDiscard() {
	if m == nil {
		return
	}
	m.metaDiscarded.Inc()
}
