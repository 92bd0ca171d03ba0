package authstore

import (
	"context"
	"time"
)

// RefreshDue reports whether the current session expires within margin.
// Sessions without a known expiry are never due.
func (s *Store) RefreshDue(margin time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsAuthenticated() || s.state.Session.ExpiresAt.IsZero() {
		return false
	}
	return !s.nowTime().Add(margin).Before(s.state.Session.ExpiresAt)
}

// KeepFresh checks every interval and refreshes the session once it is within
// margin of expiring. It blocks until ctx is done.
func (s *Store) KeepFresh(ctx context.Context, margin, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.RefreshDue(margin) {
				s.RefreshSession(ctx)
			}
		}
	}
}
