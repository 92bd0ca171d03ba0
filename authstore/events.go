package authstore

import (
	"context"

	"github.com/jrsteele09/lingo-session/internal/metrics"
	"github.com/jrsteele09/lingo-session/sessions"
)

// listen subscribes to the backend's pushed events for the life of the store.
// It does nothing once the store is closed.
func (s *Store) listen() {
	events, unsubscribe := s.backend.Subscribe()
	stop := make(chan struct{})
	done := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe, s.stopLoop, s.loopDone = unsubscribe, stop, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case event := <-events:
				s.handleEvent(event)
			case <-stop:
				return
			}
		}
	}()
}

// handleEvent applies a pushed event the same way the matching direct action
// would. It never fails.
func (s *Store) handleEvent(event sessions.Event) {
	s.metrics.Inc(metrics.EventPushPrefix + string(event.Type))

	s.mu.Lock()
	prev := s.state
	next, changed := reduce(prev, event)
	if !changed {
		s.mu.Unlock()
		return
	}

	newIdentity := !sameUser(prev.User, next.User) || (prev.Session == nil) != (next.Session == nil)
	if newIdentity {
		s.epoch++
	}
	snapshot, listeners := s.commitLocked(next)
	s.persistLocked()
	switch {
	case !next.IsAuthenticated():
		s.stopTimerLocked()
	case newIdentity && !next.RememberMe:
		s.armTimerLocked()
	}
	epoch := s.epoch
	s.mu.Unlock()
	notify(snapshot, listeners)

	s.logger.Debug().Str("event", string(event.Type)).Msg("applied pushed auth event")

	if next.IsAuthenticated() && (event.Type == sessions.EventSignedIn || event.Type == sessions.EventTokenRefreshed) {
		s.refreshRole(epoch, next.User, next.Session)
	}
}

// refreshRole resolves the role for a pushed session and applies it if that
// session is still current.
func (s *Store) refreshRole(epoch uint64, user *sessions.AuthUser, session *sessions.AuthSession) {
	if s.profiles == nil {
		return
	}
	resolved := user.Clone()
	s.resolveRole(context.Background(), resolved, session, user.Role)
	if resolved.Role == user.Role {
		return
	}

	s.mu.Lock()
	if s.isStaleLocked(epoch, session.ID) || s.state.User == nil || s.state.User.ID != resolved.ID {
		s.mu.Unlock()
		return
	}
	next := s.state
	next.User = next.User.Clone()
	next.User.Role = resolved.Role
	snapshot, listeners := s.commitLocked(next)
	s.persistLocked()
	s.mu.Unlock()
	notify(snapshot, listeners)
}

func sameUser(a, b *sessions.AuthUser) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
