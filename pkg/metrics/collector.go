package metrics

import (
	"sync"
	"time"

	"github.com/cbodonnell/codeword/pkg/game/constants"
)

// Sample is one telemetry data point for a session.
type Sample struct {
	Timestamp        int64   `json:"timestamp"`
	Jitter           float64 `json:"jitter"`
	ParticipantCount int     `json:"participantCount"`
}

// Aggregate summarizes a session's samples when it is archived.
type Aggregate struct {
	Duration        time.Duration `json:"duration"`
	AvgJitter       float64       `json:"avgJitter"`
	AvgParticipants int           `json:"avgParticipants"`
}

type sessionMetrics struct {
	samples   []Sample
	startTime time.Time
}

// Collector keeps a trailing window of telemetry samples per session code.
// It is safe for concurrent use and entirely independent of match state:
// a failure to record or read here never affects match correctness.
type Collector struct {
	lock      sync.RWMutex
	sessions  map[string]*sessionMetrics
	retention time.Duration
}

// NewCollectorOptions contains options for creating a new Collector.
type NewCollectorOptions struct {
	// Retention is the trailing window to keep samples for.
	// Defaults to constants.MetricsRetention.
	Retention time.Duration
}

func NewCollector(opts NewCollectorOptions) *Collector {
	retention := opts.Retention
	if retention == 0 {
		retention = constants.MetricsRetention
	}
	return &Collector{
		sessions:  make(map[string]*sessionMetrics),
		retention: retention,
	}
}

// Record appends a sample for the session and drops samples that have
// fallen out of the retention window.
func (c *Collector) Record(code string, jitter float64, participantCount int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := time.Now()
	sm, ok := c.sessions[code]
	if !ok {
		sm = &sessionMetrics{
			startTime: now,
		}
		c.sessions[code] = sm
	}

	sm.samples = append(sm.samples, Sample{
		Timestamp:        now.UnixMilli(),
		Jitter:           jitter,
		ParticipantCount: participantCount,
	})
	sm.samples = trim(sm.samples, now.Add(-c.retention))
}

// Window returns the session's samples within the retention window.
func (c *Collector) Window(code string) []Sample {
	c.lock.RLock()
	defer c.lock.RUnlock()

	sm, ok := c.sessions[code]
	if !ok {
		return []Sample{}
	}

	cutoff := time.Now().Add(-c.retention)
	out := make([]Sample, 0, len(sm.samples))
	for _, s := range sm.samples {
		if s.Timestamp >= cutoff.UnixMilli() {
			out = append(out, s)
		}
	}
	return out
}

// Aggregate summarizes the session's recorded samples, or nil if none exist.
func (c *Collector) Aggregate(code string) *Aggregate {
	c.lock.RLock()
	defer c.lock.RUnlock()

	sm, ok := c.sessions[code]
	if !ok || len(sm.samples) == 0 {
		return nil
	}

	var jitterSum float64
	var participantSum int
	for _, s := range sm.samples {
		jitterSum += s.Jitter
		participantSum += s.ParticipantCount
	}
	n := len(sm.samples)

	return &Aggregate{
		Duration:        time.Since(sm.startTime),
		AvgJitter:       jitterSum / float64(n),
		AvgParticipants: (participantSum + n/2) / n,
	}
}

// Remove drops all samples for a session.
func (c *Collector) Remove(code string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.sessions, code)
}

// Cleanup drops samples outside the retention window and evicts sessions
// left with no samples.
func (c *Collector) Cleanup() {
	c.lock.Lock()
	defer c.lock.Unlock()

	cutoff := time.Now().Add(-c.retention)
	for code, sm := range c.sessions {
		sm.samples = trim(sm.samples, cutoff)
		if len(sm.samples) == 0 {
			delete(c.sessions, code)
		}
	}
}

func trim(samples []Sample, cutoff time.Time) []Sample {
	cutoffMillis := cutoff.UnixMilli()
	kept := samples[:0]
	for _, s := range samples {
		if s.Timestamp >= cutoffMillis {
			kept = append(kept, s)
		}
	}
	return kept
}
