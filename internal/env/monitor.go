package env

import (
	"log"
	"time"
)

// Sensor reads the physical temperature/humidity device.
type Sensor interface {
	Sense() (Sample, error)
}

// DefaultInterval is the hardware query throttle. Ambient conditions
// move slowly; the loop asks far more often than the sensor should be
// touched.
const DefaultInterval = 2 * time.Second

// Monitor throttles hardware reads and holds on to the last good sample.
// A failed read never clears the previous value: the loop keeps running
// on stale-but-plausible data instead of reporting unknown.
type Monitor struct {
	sensor   Sensor
	interval time.Duration
	now      func() time.Time

	last     Sample
	haveGood bool
	lastTry  time.Time
}

// NewMonitor wraps a sensor. A nil sensor is allowed; Sample then always
// reports no data, which keeps frames well-formed on sensor-less builds.
func NewMonitor(sensor Sensor, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{sensor: sensor, interval: interval, now: time.Now}
}

// Sample returns the current ambient sample, querying the hardware at
// most once per throttle interval. ok stays false until the first
// successful read and true forever after.
func (m *Monitor) Sample() (Sample, bool) {
	if m.sensor == nil {
		return m.last, m.haveGood
	}
	now := m.now()
	if !m.lastTry.IsZero() && now.Sub(m.lastTry) < m.interval {
		return m.last, m.haveGood
	}
	m.lastTry = now

	s, err := m.sensor.Sense()
	if err != nil {
		log.Printf("env sensor read error: %v", err)
		return m.last, m.haveGood
	}
	if s.SampledAt.IsZero() {
		s.SampledAt = now
	}
	m.last = s
	m.haveGood = true
	return m.last, true
}
