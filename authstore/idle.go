package authstore

import (
	"context"
	"time"

	"github.com/jrsteele09/lingo-session/internal/metrics"
	"github.com/jrsteele09/lingo-session/timeout"
)

// armTimerLocked replaces any live idle timer with a fresh one for the
// current session.
func (s *Store) armTimerLocked() {
	s.stopTimerLocked()
	if s.closed {
		return
	}

	var timer *timeout.Manager
	timer, err := timeout.New(timeout.Config{
		Timeout:   s.idleTimeout,
		Warning:   s.idleWarning,
		OnWarning: s.idleWarningFired,
		OnTimeout: func() { s.idleTimeoutFired(timer) },
	}, timeout.WithNowTime(s.nowTime))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create idle timer")
		return
	}
	s.timer = timer
	timer.Start()
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) idleWarningFired(remaining time.Duration) {
	s.metrics.Inc(metrics.EventTimeoutWarn)
	s.logger.Info().Dur("remaining", remaining).Msg("session idle, timing out soon")
	if s.onWarning != nil {
		s.onWarning(remaining)
	}
}

func (s *Store) idleTimeoutFired(timer *timeout.Manager) {
	s.mu.Lock()
	current := s.timer == timer
	s.mu.Unlock()
	if !current {
		return
	}

	s.metrics.Inc(metrics.EventTimeout)
	s.logger.Info().Msg("session idle timeout, signing out")
	if err := s.SignOut(context.Background()); err != nil {
		s.logger.Warn().Err(err).Msg("backend sign-out after idle timeout failed")
	}
}

// RecordActivity resets the idle timer. It does nothing when no timer is armed.
func (s *Store) RecordActivity() {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer != nil {
		timer.Activity()
	}
}
