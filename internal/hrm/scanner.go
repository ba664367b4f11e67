package hrm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/device"
	"github.com/srg/hrmwatch/internal/groutine"
)

// errScanEnded is reported when the platform stops a scan on its own.
var errScanEnded = errors.New("scan stopped unexpectedly")

// MatchFunc receives the first matching peripheral of a scan session.
// ctx is the session context; it is done once the session is stopped.
type MatchFunc func(ctx context.Context, handle DeviceHandle)

// ErrorFunc receives a scan failure. Cancellation is never reported.
type ErrorFunc func(ctx context.Context, err error)

// Scanner runs at most one filtered scan session at a time.
type Scanner struct {
	adapter device.ScanningDevice
	filter  ScanFilter
	logger  *logrus.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	sessions atomic.Uint64
}

// NewScanner creates a scanner over adapter using filter.
func NewScanner(adapter device.ScanningDevice, filter ScanFilter, logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		adapter: adapter,
		filter:  filter,
		logger:  logger,
	}
}

// Start stops any running session, then starts a new one. The session ends
// on the first match, on failure, when ctx is done, or on Stop.
func (s *Scanner) Start(ctx context.Context, onMatch MatchFunc, onError ErrorFunc) {
	s.Stop()

	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	id := s.sessions.Add(1)

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	log := s.logger.WithField("session", id)
	log.Debug("Starting heart rate scan")

	groutine.Go(sctx, "hrm-scan", func(context.Context) {
		defer close(done)
		defer cancel()

		var matched atomic.Bool
		err := s.adapter.Scan(sctx, false, func(adv device.Advertisement) {
			if matched.Load() || !s.filter.Match(adv) {
				return
			}
			if !matched.CompareAndSwap(false, true) {
				return
			}

			handle := DeviceHandle{Address: adv.Addr(), Name: adv.LocalName()}
			log.WithFields(logrus.Fields{
				"address": handle.Address,
				"name":    handle.Name,
				"rssi":    adv.RSSI(),
			}).Info("Found heart rate monitor")

			if onMatch != nil {
				onMatch(sctx, handle)
			}
			cancel()
		})

		switch {
		case matched.Load(), sctx.Err() != nil:
			log.Debug("Heart rate scan finished")
			return
		case err == nil:
			err = errScanEnded
		}

		log.WithError(err).Warn("Heart rate scan failed")
		if onError != nil {
			onError(sctx, err)
		}
	})
}

// Stop cancels the running session, if any, and waits for it to finish.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether a session is running.
func (s *Scanner) Active() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// FindFirst scans until the first heart-rate peripheral is found or timeout elapses.
// It returns ErrNoDeviceFound on timeout and a *ScanError if the scan fails.
func (s *Scanner) FindFirst(ctx context.Context, timeout time.Duration) (DeviceHandle, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	found := make(chan DeviceHandle, 1)
	failed := make(chan error, 1)
	s.Start(tctx,
		func(_ context.Context, h DeviceHandle) { found <- h },
		func(_ context.Context, err error) { failed <- err },
	)
	defer s.Stop()

	select {
	case h := <-found:
		return h, nil
	case err := <-failed:
		return DeviceHandle{}, &ScanError{Err: err}
	case <-tctx.Done():
		// a match racing the deadline still wins
		select {
		case h := <-found:
			return h, nil
		default:
		}
		if ctx.Err() != nil {
			return DeviceHandle{}, ctx.Err()
		}
		return DeviceHandle{}, ErrNoDeviceFound
	}
}
