package goAccess

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricEvaluateAllowed counts allowed authorization decisions.
	MetricEvaluateAllowed MetricID = iota
	// MetricEvaluateDenied counts denied authorization decisions.
	MetricEvaluateDenied
	// MetricStepUpDenied counts step-up enforcement denials.
	MetricStepUpDenied
	// MetricChallengeBegun counts started two-factor challenges.
	MetricChallengeBegun
	// MetricChallengeSuccess counts completed challenges.
	MetricChallengeSuccess
	// MetricChallengeFailure counts rejected challenge submissions.
	MetricChallengeFailure
	// MetricChallengeExpired counts submissions against expired
	// challenges.
	MetricChallengeExpired
	// MetricRecoveryCodeUsed counts recovery code completions.
	MetricRecoveryCodeUsed
	// MetricRecoveryCodeFailed counts rejected recovery codes.
	MetricRecoveryCodeFailed
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of atomic counters with no labels and no
// allocation on the increment path.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics returns a counter set honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments the identified counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the identified counter's current value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
