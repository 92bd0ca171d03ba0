// Package authstore holds the process-wide authentication state and runs the
// sign-in, sign-up, sign-out and refresh flows against a backend.Client.
package authstore

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/lingo-session/backend"
	"github.com/jrsteele09/lingo-session/internal/metrics"
	"github.com/jrsteele09/lingo-session/internal/utils"
	"github.com/jrsteele09/lingo-session/profile"
	"github.com/jrsteele09/lingo-session/sessions"
	"github.com/jrsteele09/lingo-session/timeout"
	"github.com/jrsteele09/lingo-session/users"
)

// Persister stores the sanitized remembered record. securestore.RecordStore
// implements it.
type Persister interface {
	Save(state sessions.State) error
	Load() (sessions.Remembered, bool)
	Remove() error
}

// Store is the auth session context. Construct one per process and pass it to
// whatever needs auth state. All methods are safe for concurrent use.
type Store struct {
	backend   backend.Client
	profiles  profile.Fetcher
	persister Persister
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	nowTime   func() time.Time

	idleTimeout time.Duration
	idleWarning time.Duration
	onWarning   func(remaining time.Duration)

	mu         sync.Mutex
	state      sessions.State
	epoch      uint64
	seq        uint64
	started    bool
	closed     bool
	timer      *timeout.Manager
	remembered *sessions.AuthUser
	listeners  map[int]*listener
	nextID     int

	unsubscribe func()
	loopDone    chan struct{}
	stopLoop    chan struct{}
	closeOnce   sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithProfileFetcher sets the server-authoritative source of roles.
func WithProfileFetcher(f profile.Fetcher) Option {
	return func(s *Store) {
		s.profiles = f
	}
}

// WithPersister enables remember-me persistence.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithIdleTimeout overrides the idle timeout and warning lead time applied to
// sessions that are not remembered.
func WithIdleTimeout(idle, warning time.Duration) Option {
	return func(s *Store) {
		s.idleTimeout = idle
		s.idleWarning = warning
	}
}

// WithTimeoutWarning registers a callback for the idle warning.
func WithTimeoutWarning(fn func(remaining time.Duration)) Option {
	return func(s *Store) {
		s.onWarning = fn
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// New creates an uninitialized Store.
func New(client backend.Client, options ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("[authstore.New] backend client is required")
	}
	s := &Store{
		backend:     client,
		logger:      log.Logger,
		nowTime:     time.Now,
		idleTimeout: timeout.DefaultTimeout,
		idleWarning: timeout.DefaultWarning,
		listeners:   make(map[int]*listener),
	}
	for _, opt := range options {
		opt(s)
	}
	if _, err := timeout.New(timeout.Config{Timeout: s.idleTimeout, Warning: s.idleWarning}); err != nil {
		return nil, errors.Wrap(err, "[authstore.New] invalid idle timeout")
	}
	return s, nil
}

// State returns a snapshot of the current state.
func (s *Store) State() sessions.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// IsAuthenticated reports whether both a user and a session are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated()
}

// HasRole reports whether the signed-in user has role. It is false when signed out.
func (s *Store) HasRole(role users.RoleType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User != nil && users.RoleType(s.state.User.Role) == role
}

// HasPermission reports whether the signed-in user's role grants permission.
func (s *Store) HasPermission(permission users.Permission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil {
		return false
	}
	return users.RoleHasPermission(users.RoleType(s.state.User.Role), permission)
}

// RememberedUser returns the identity from the persisted record, if any. It is a
// display hint and carries no authority.
func (s *Store) RememberedUser() *sessions.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remembered.Clone()
}

// TimeoutRemaining returns the idle time left, or zero when no timer is armed.
func (s *Store) TimeoutRemaining() time.Duration {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer == nil {
		return 0
	}
	return timer.Remaining()
}

// Subscribe registers fn to receive a state snapshot after every change.
// Calls happen on the goroutine that made the change, one at a time per
// subscriber. A snapshot older than one already delivered is skipped, so the
// last call always carries the newest state. fn may read the store but must
// not call actions that change it.
func (s *Store) Subscribe(fn func(sessions.State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = &listener{fn: fn}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close ends the backend subscription and disarms the idle timer. A closed
// store cannot be initialized.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		unsubscribe, stop, done := s.unsubscribe, s.stopLoop, s.loopDone
		s.stopTimerLocked()
		s.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
			close(stop)
			<-done
		}
	})
}

// listener is one subscriber. seq orders deliveries that race after unlock.
type listener struct {
	mu   sync.Mutex
	last uint64
	fn   func(sessions.State)
}

func (l *listener) deliver(seq uint64, state sessions.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.last {
		return
	}
	l.last = seq
	l.fn(state)
}

// commitLocked replaces the state and returns what listeners should receive.
// Callers pass the result to notify after unlocking.
func (s *Store) commitLocked(next sessions.State) (sessions.State, []func(sessions.State)) {
	s.state = next
	s.seq++
	seq := s.seq
	listeners := make([]func(sessions.State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, func(state sessions.State) { l.deliver(seq, state) })
	}
	return next.Clone(), listeners
}

func notify(state sessions.State, listeners []func(sessions.State)) {
	for _, fn := range listeners {
		fn(state)
	}
}

// persistLocked writes or removes the remembered record to match state.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	switch {
	case s.state.RememberMe && s.state.User != nil:
		if err := s.persister.Save(s.state); err != nil {
			s.logger.Warn().Err(err).Msg("failed to persist remembered auth record")
			return
		}
		s.remembered = s.state.User.Clone()
	case !s.state.RememberMe:
		if err := s.persister.Remove(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to remove persisted auth record")
			return
		}
		s.remembered = nil
	}
}

// resolveRole fetches the server-authoritative role. On failure the previous
// role is kept.
func (s *Store) resolveRole(ctx context.Context, user *sessions.AuthUser, session *sessions.AuthSession, previous string) {
	if user.Role == "" {
		user.Role = previous
	}
	if s.profiles == nil || session == nil {
		return
	}
	p, err := s.profiles.FetchProfile(ctx, session.AccessToken)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("profile fetch failed, keeping previous role")
		return
	}
	if p.Role != "" {
		user.Role = p.Role
	}
	var update sessions.ProfileUpdate
	if p.FirstName != "" {
		update.FirstName = utils.Ptr(p.FirstName)
	}
	if p.LastName != "" {
		update.LastName = utils.Ptr(p.LastName)
	}
	if p.IsEmailVerified {
		update.IsEmailVerified = utils.Ptr(true)
	}
	*user = *update.Apply(user)
}

func (s *Store) previousRoleLocked(userID string) string {
	if s.state.User != nil && s.state.User.ID == userID {
		return s.state.User.Role
	}
	return ""
}
