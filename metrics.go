package profileval

import (
	"sync/atomic"
	"time"
)

// Metrics tracks engine performance counters using lock-free atomic
// operations. All methods are safe for concurrent use.
type Metrics struct {
	// Validation counts
	validationsTotal atomic.Uint64
	validationsValid atomic.Uint64

	// Timing (stored as nanoseconds)
	validationTimeTotal atomic.Uint64
	validationTimeMin   atomic.Uint64
	validationTimeMax   atomic.Uint64

	// Reference resolution
	externalFetches atomic.Uint64
	fetchFailures   atomic.Uint64
	cyclesDetected  atomic.Uint64

	// Node-record reuse (a hit means a (node, profile) pair was already
	// validated and re-validation was skipped)
	recordHits   atomic.Uint64
	recordMisses atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.validationTimeMin.Store(^uint64(0))
	return m
}

// RecordValidation records a completed top-level validation.
func (m *Metrics) RecordValidation(duration time.Duration, valid bool) {
	m.validationsTotal.Add(1)
	if valid {
		m.validationsValid.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.validationTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.validationTimeMin.Load()
		if ns >= old {
			break
		}
		if m.validationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.validationTimeMax.Load()
		if ns <= old {
			break
		}
		if m.validationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordExternalFetch records an attempted external reference fetch.
func (m *Metrics) RecordExternalFetch(failed bool) {
	m.externalFetches.Add(1)
	if failed {
		m.fetchFailures.Add(1)
	}
}

// RecordCycle records a detected reference cycle.
func (m *Metrics) RecordCycle() {
	m.cyclesDetected.Add(1)
}

// RecordRecordHit records a (node, profile) pair skipped because it was
// already validated.
func (m *Metrics) RecordRecordHit() {
	m.recordHits.Add(1)
}

// RecordRecordMiss records a (node, profile) pair validated for the first time.
func (m *Metrics) RecordRecordMiss() {
	m.recordMisses.Add(1)
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	ValidationsTotal uint64
	ValidationsValid uint64

	ValidationTimeTotal time.Duration
	ValidationTimeMin   time.Duration
	ValidationTimeMax   time.Duration

	ExternalFetches uint64
	FetchFailures   uint64
	CyclesDetected  uint64

	RecordHits   uint64
	RecordMisses uint64
}

// Snapshot returns a consistent-enough copy of all counters.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		ValidationsTotal:    m.validationsTotal.Load(),
		ValidationsValid:    m.validationsValid.Load(),
		ValidationTimeTotal: time.Duration(m.validationTimeTotal.Load()), //nolint:gosec // counter fits in int64 for realistic workloads
		ExternalFetches:     m.externalFetches.Load(),
		FetchFailures:       m.fetchFailures.Load(),
		CyclesDetected:      m.cyclesDetected.Load(),
		RecordHits:          m.recordHits.Load(),
		RecordMisses:        m.recordMisses.Load(),
	}

	if min := m.validationTimeMin.Load(); min != ^uint64(0) {
		s.ValidationTimeMin = time.Duration(min) //nolint:gosec // single validation durations fit in int64
	}
	s.ValidationTimeMax = time.Duration(m.validationTimeMax.Load()) //nolint:gosec // single validation durations fit in int64

	return s
}

// SuccessRate returns the fraction of validations that passed, or 0 when
// nothing was recorded yet.
func (m *Metrics) SuccessRate() float64 {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.validationsValid.Load()) / float64(total)
}
