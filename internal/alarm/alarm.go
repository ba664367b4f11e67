// Package alarm watches the heart-rate event stream and raises an alarm while
// the rate stays above the configured maximum.
package alarm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/events"
	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum time between two threshold evaluations.
const DefaultInterval = 2500 * time.Millisecond

// ThresholdSource supplies the current maximum heart rate. It is read on
// every evaluation so setting changes apply without a restart.
type ThresholdSource interface {
	MaxRate() int
}

// ThresholdFunc adapts a function to ThresholdSource.
type ThresholdFunc func() int

func (f ThresholdFunc) MaxRate() int { return f() }

// Alarm is the user-facing signal.
type Alarm interface {
	// Start is called when the rate first exceeds the maximum.
	Start(rate, maxRate int)
	// Stop is called when the rate is back at or below the maximum.
	Stop()
}

// Pulser is implemented by alarms that can give a short extra cue, such as a
// vibration or a terminal bell, on every evaluation above the maximum.
type Pulser interface {
	Pulse(rate, maxRate int)
}

// ServiceError ends monitoring when the manager reports an error.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("heart rate service error: %s", e.Message)
}

// Monitor evaluates samples against a threshold at most once per interval.
type Monitor struct {
	threshold ThresholdSource
	alarm     Alarm
	logger    *logrus.Logger
	limiter   *rate.Limiter

	// Pulse enables the Pulser cue while above the threshold.
	Pulse bool
	// Now is the clock used for throttling.
	Now func() time.Time

	mu     sync.Mutex
	active bool
}

// NewMonitor creates a Monitor. interval <= 0 selects DefaultInterval.
func NewMonitor(threshold ThresholdSource, alarm Alarm, interval time.Duration, logger *logrus.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Monitor{
		threshold: threshold,
		alarm:     alarm,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		Now:       time.Now,
	}
}

// Active reports whether the alarm is currently raised.
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Handle processes one event. It returns a *ServiceError for Error events.
func (m *Monitor) Handle(ev events.ServiceEvent) error {
	switch ev.Kind {
	case events.KindError:
		m.stop()
		return &ServiceError{Message: ev.Message}
	case events.KindDataUpdate:
		if !m.limiter.AllowN(m.Now(), 1) {
			return nil
		}
		m.evaluate(ev.Sample.Rate)
	}
	return nil
}

func (m *Monitor) evaluate(bpm int) {
	maxRate := m.threshold.MaxRate()
	diff := maxRate - bpm

	m.mu.Lock()
	defer m.mu.Unlock()

	if diff < 0 {
		if !m.active {
			m.active = true
			m.logger.WithFields(logrus.Fields{"rate": bpm, "max_rate": maxRate}).Warn("Heart rate above maximum")
			m.alarm.Start(bpm, maxRate)
		}
		if p, ok := m.alarm.(Pulser); ok && m.Pulse {
			p.Pulse(bpm, maxRate)
		}
		return
	}

	if m.active {
		m.active = false
		m.logger.WithFields(logrus.Fields{"rate": bpm, "max_rate": maxRate}).Info("Heart rate back below maximum")
		m.alarm.Stop()
	}
}

func (m *Monitor) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		m.active = false
		m.alarm.Stop()
	}
}

// Run consumes sub until ctx is done, the subscription closes, or an Error
// event arrives. The alarm is always stopped on return.
func (m *Monitor) Run(ctx context.Context, sub *events.Subscription[events.ServiceEvent]) error {
	defer m.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := m.Handle(ev); err != nil {
				return err
			}
		}
	}
}
