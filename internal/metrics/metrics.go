package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is an in-process metrics collector for counters, gauges, timers and
// error rates. Safe for concurrent use.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]*int64
	gauges   map[string]*int64
	timers   map[string]*timer
	rates    map[string]*errorRate

	startTime time.Time
}

type timer struct {
	count       int64
	totalTimeMs int64
	minTimeMs   int64
	maxTimeMs   int64
}

type errorRate struct {
	total  int64
	errors int64
}

// TimerStats is a timer snapshot
type TimerStats struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MinTimeMs     int64   `json:"min_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// ErrorRateStats is an error-rate snapshot
type ErrorRateStats struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

// Snapshot is a point-in-time view of all metrics
type Snapshot struct {
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Counters      map[string]int64          `json:"counters"`
	Gauges        map[string]int64          `json:"gauges"`
	Timers        map[string]TimerStats     `json:"timers"`
	ErrorRates    map[string]ErrorRateStats `json:"error_rates"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:  make(map[string]*int64),
		gauges:    make(map[string]*int64),
		timers:    make(map[string]*timer),
		rates:     make(map[string]*errorRate),
		startTime: time.Now(),
	}
}

// IncrementCounter increments a counter by 1
func (m *Metrics) IncrementCounter(name string) {
	m.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by the specified value
func (m *Metrics) IncrementCounterBy(name string, value int64) {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		// Check again to avoid race conditions
		if counter, exists = m.counters[name]; !exists {
			var c int64
			counter = &c
			m.counters[name] = counter
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(counter, value)
}

// SetGauge sets a gauge to a specific value
func (m *Metrics) SetGauge(name string, value int64) {
	m.mu.RLock()
	gauge, exists := m.gauges[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if gauge, exists = m.gauges[name]; !exists {
			var g int64
			gauge = &g
			m.gauges[name] = gauge
		}
		m.mu.Unlock()
	}

	atomic.StoreInt64(gauge, value)
}

// RecordTimer records a timing measurement
func (m *Metrics) RecordTimer(name string, durationMs int64) {
	m.mu.RLock()
	t, exists := m.timers[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if t, exists = m.timers[name]; !exists {
			t = &timer{minTimeMs: int64(^uint64(0) >> 1)}
			m.timers[name] = t
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTimeMs, durationMs)

	// Update min if smaller
	for {
		currentMin := atomic.LoadInt64(&t.minTimeMs)
		if durationMs >= currentMin {
			break
		}
		if atomic.CompareAndSwapInt64(&t.minTimeMs, currentMin, durationMs) {
			break
		}
	}

	// Update max if larger
	for {
		currentMax := atomic.LoadInt64(&t.maxTimeMs)
		if durationMs <= currentMax {
			break
		}
		if atomic.CompareAndSwapInt64(&t.maxTimeMs, currentMax, durationMs) {
			break
		}
	}
}

// RecordSuccess records a successful operation for error rate tracking
func (m *Metrics) RecordSuccess(name string) {
	m.recordErrorRate(name, false)
}

// RecordError records an error for error rate tracking
func (m *Metrics) RecordError(name string) {
	m.recordErrorRate(name, true)
}

func (m *Metrics) recordErrorRate(name string, isError bool) {
	m.mu.RLock()
	rate, exists := m.rates[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if rate, exists = m.rates[name]; !exists {
			rate = &errorRate{}
			m.rates[name] = rate
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&rate.total, 1)
	if isError {
		atomic.AddInt64(&rate.errors, 1)
	}
}

// GetSnapshot returns a point-in-time view of all metrics
func (m *Metrics) GetSnapshot() Snapshot {
	snapshot := Snapshot{
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
		Counters:      make(map[string]int64),
		Gauges:        make(map[string]int64),
		Timers:        make(map[string]TimerStats),
		ErrorRates:    make(map[string]ErrorRateStats),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, counter := range m.counters {
		snapshot.Counters[name] = atomic.LoadInt64(counter)
	}
	for name, gauge := range m.gauges {
		snapshot.Gauges[name] = atomic.LoadInt64(gauge)
	}
	for name, t := range m.timers {
		count := atomic.LoadInt64(&t.count)
		total := atomic.LoadInt64(&t.totalTimeMs)
		stats := TimerStats{
			Count:       count,
			TotalTimeMs: total,
			MinTimeMs:   atomic.LoadInt64(&t.minTimeMs),
			MaxTimeMs:   atomic.LoadInt64(&t.maxTimeMs),
		}
		if count > 0 {
			stats.AverageTimeMs = float64(total) / float64(count)
		}
		snapshot.Timers[name] = stats
	}
	for name, rate := range m.rates {
		total := atomic.LoadInt64(&rate.total)
		errs := atomic.LoadInt64(&rate.errors)
		stats := ErrorRateStats{Total: total, Errors: errs}
		if total > 0 {
			stats.ErrorRate = float64(errs) / float64(total)
		}
		snapshot.ErrorRates[name] = stats
	}

	return snapshot
}
