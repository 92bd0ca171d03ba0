package authstore

import (
	"context"
	"fmt"

	"github.com/jrsteele09/lingo-session/backend"
	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/internal/metrics"
	"github.com/jrsteele09/lingo-session/sessions"
	"github.com/jrsteele09/lingo-session/users"
)

// Initialize hydrates the store from the backend's current session and starts
// listening for pushed auth events. Only the first call does anything. The
// store ends up initialized even when the backend call fails. A restored
// session is dropped if a sign-in, sign-out or pushed identity change happens
// while it is being resolved.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("[Store.Initialize] %w", autherrors.ErrStoreClosed)
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	epoch := s.epoch
	var remembered sessions.Remembered
	if s.persister != nil {
		remembered, _ = s.persister.Load()
		s.remembered = remembered.User.Clone()
	}
	next := s.state
	next.IsLoading = true
	snapshot, listeners := s.commitLocked(next)
	s.mu.Unlock()
	notify(snapshot, listeners)

	s.listen()

	resp, err := s.backend.GetSession(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to restore session")
		s.mu.Lock()
		next := s.state
		next.IsLoading = false
		next.IsInitialized = true
		next.Error = autherrors.UserMessage(err)
		snapshot, listeners := s.commitLocked(next)
		s.mu.Unlock()
		notify(snapshot, listeners)
		return err
	}

	if resp == nil || resp.User == nil || resp.Session == nil {
		s.mu.Lock()
		next := s.state
		next.IsLoading = false
		next.IsInitialized = true
		snapshot, listeners := s.commitLocked(next)
		s.mu.Unlock()
		notify(snapshot, listeners)
		return nil
	}

	user := resp.User.Clone()
	s.mu.Lock()
	previous := s.previousRoleLocked(user.ID)
	s.mu.Unlock()
	s.resolveRole(ctx, user, resp.Session, previous)

	rememberMe := remembered.RememberMe && remembered.User != nil && remembered.User.ID == user.ID

	s.mu.Lock()
	if s.isStaleLocked(epoch, "") {
		next = s.state
		next.IsLoading = false
		next.IsInitialized = true
		snapshot, listeners = s.commitLocked(next)
		s.mu.Unlock()
		notify(snapshot, listeners)
		s.logger.Debug().Str("user_id", user.ID).Msg("discarding restored session superseded during initialization")
		return nil
	}
	next = s.state
	next.User, next.Session = user, copySession(resp.Session)
	next.RememberMe = rememberMe
	next.IsLoading = false
	next.IsInitialized = true
	next.Error = ""
	snapshot, listeners = s.commitLocked(next)
	s.persistLocked()
	if rememberMe {
		s.stopTimerLocked()
	} else {
		s.armTimerLocked()
	}
	s.mu.Unlock()
	notify(snapshot, listeners)

	s.logger.Info().Str("user_id", user.ID).Bool("remember_me", rememberMe).Msg("session restored")
	return nil
}

// SignIn authenticates with email and password. Remembered sessions are
// persisted and exempt from the idle timeout. On failure the error is both
// returned and set on the state.
func (s *Store) SignIn(ctx context.Context, email, password string, rememberMe bool) error {
	s.beginAction()

	resp, err := s.backend.SignIn(ctx, backend.SignInRequest{Email: email, Password: password})
	if err == nil && (resp == nil || resp.User == nil || resp.Session == nil) {
		err = fmt.Errorf("[Store.SignIn] backend returned no session: %w", autherrors.ErrInternal)
	}
	if err != nil {
		s.metrics.Inc(metrics.EventSignInFailed)
		s.failAction(err, "sign in failed")
		return err
	}

	s.completeSignIn(ctx, resp, rememberMe)
	s.metrics.Inc(metrics.EventSignIn)
	return nil
}

// SignUp registers an account. The new user gets the default role whatever
// metadata says. When the backend returns a session the store becomes
// authenticated but no idle timer is armed until the next sign-in.
func (s *Store) SignUp(ctx context.Context, email, password, firstName string, metadata map[string]any) error {
	s.beginAction()

	resp, err := s.backend.SignUp(ctx, backend.SignUpRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		Metadata:  metadata,
	})
	if err != nil {
		s.failAction(err, "sign up failed")
		return err
	}
	s.metrics.Inc(metrics.EventSignUp)

	s.mu.Lock()
	next := s.state
	next.IsLoading = false
	if resp != nil && resp.User != nil && resp.Session != nil {
		user := resp.User.Clone()
		user.Role = string(users.DefaultRole)
		s.epoch++
		next.User, next.Session = user, copySession(resp.Session)
		next.RememberMe = false
		s.stopTimerLocked()
	}
	snapshot, listeners := s.commitLocked(next)
	if next.IsAuthenticated() {
		s.persistLocked()
	}
	s.mu.Unlock()
	notify(snapshot, listeners)

	s.logger.Info().Str("email", email).Bool("session", snapshot.Session != nil).Msg("account registered")
	return nil
}

// SignOut ends the session. The state is cleared and the remembered record
// removed even when the backend call fails, in which case the error is
// returned and set on the state.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.backend.SignOut(ctx)

	s.mu.Lock()
	s.epoch++
	s.stopTimerLocked()
	next := s.state
	next.User, next.Session = nil, nil
	next.RememberMe = false
	next.IsLoading = false
	next.Error = autherrors.UserMessage(err)
	snapshot, listeners := s.commitLocked(next)
	s.persistLocked()
	s.mu.Unlock()
	notify(snapshot, listeners)

	s.metrics.Inc(metrics.EventSignOut)
	if err != nil {
		s.logger.Warn().Err(err).Msg("backend sign-out failed, local session cleared")
		return err
	}
	s.logger.Info().Msg("signed out")
	return nil
}

// RefreshSession renews the session tokens. It never fails: a backend error
// signs the store out locally. A result that arrives after the session it was
// started for has ended is discarded. Without a session it does nothing, since
// only a sign-in can create one.
func (s *Store) RefreshSession(ctx context.Context) {
	s.mu.Lock()
	if s.state.Session == nil {
		s.mu.Unlock()
		s.logger.Debug().Msg("no session to refresh")
		return
	}
	epoch := s.epoch
	sessionID := s.state.Session.ID
	s.mu.Unlock()

	resp, err := s.backend.RefreshSession(ctx)
	if err == nil && (resp == nil || resp.Session == nil) {
		err = fmt.Errorf("[Store.RefreshSession] backend returned no session: %w", autherrors.ErrInternal)
	}

	var user *sessions.AuthUser
	if err == nil {
		var previous string
		s.mu.Lock()
		switch {
		case resp.User != nil:
			user = resp.User.Clone()
			previous = s.previousRoleLocked(user.ID)
		case s.state.User != nil:
			user = s.state.User.Clone()
			previous = user.Role
		}
		s.mu.Unlock()
		if user == nil {
			err = fmt.Errorf("[Store.RefreshSession] no user for refreshed session: %w", autherrors.ErrInternal)
		} else {
			s.resolveRole(ctx, user, resp.Session, previous)
		}
	}

	s.mu.Lock()
	if s.isStaleLocked(epoch, sessionID) {
		s.mu.Unlock()
		s.metrics.Inc(metrics.EventRefreshStale)
		s.logger.Debug().Str("session_id", sessionID).Msg("discarding stale refresh result")
		return
	}

	next := s.state
	next.IsLoading = false
	if err != nil {
		s.epoch++
		s.stopTimerLocked()
		next.User, next.Session = nil, nil
		next.RememberMe = false
	} else {
		next.User, next.Session = user, copySession(resp.Session)
	}
	snapshot, listeners := s.commitLocked(next)
	s.persistLocked()
	s.mu.Unlock()
	notify(snapshot, listeners)

	if err != nil {
		s.metrics.Inc(metrics.EventRefreshFailed)
		s.logger.Warn().Err(err).Msg("session refresh failed, signed out")
		return
	}
	s.metrics.Inc(metrics.EventRefresh)
}

// isStaleLocked reports whether the session a refresh was started for is gone.
func (s *Store) isStaleLocked(epoch uint64, sessionID string) bool {
	if s.epoch != epoch {
		return true
	}
	if sessionID == "" {
		return false
	}
	return s.state.Session == nil || s.state.Session.ID != sessionID
}

// SignInWithOAuth starts a provider sign-in and returns the URL to send the user to.
func (s *Store) SignInWithOAuth(ctx context.Context, provider string) (*backend.OAuthResponse, error) {
	resp, err := s.backend.SignInWithOAuth(ctx, provider)
	if err != nil {
		s.failAction(err, "oauth sign in failed")
		return nil, err
	}
	return resp, nil
}

// CompleteOAuth finishes a provider sign-in from the callback's state and code.
func (s *Store) CompleteOAuth(ctx context.Context, state, code string, rememberMe bool) error {
	s.beginAction()

	resp, err := s.backend.ExchangeOAuthCode(ctx, state, code)
	if err == nil && (resp == nil || resp.User == nil || resp.Session == nil) {
		err = fmt.Errorf("[Store.CompleteOAuth] backend returned no session: %w", autherrors.ErrInternal)
	}
	if err != nil {
		s.metrics.Inc(metrics.EventSignInFailed)
		s.failAction(err, "oauth callback failed")
		return err
	}

	s.completeSignIn(ctx, resp, rememberMe)
	s.metrics.Inc(metrics.EventSignIn)
	return nil
}

// UpdateUserProfile merges update into the signed-in user locally.
func (s *Store) UpdateUserProfile(update sessions.ProfileUpdate) error {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return fmt.Errorf("[Store.UpdateUserProfile] %w", autherrors.ErrNotAuthenticated)
	}
	next := s.state
	next.User = update.Apply(s.state.User)
	snapshot, listeners := s.commitLocked(next)
	s.persistLocked()
	s.mu.Unlock()
	notify(snapshot, listeners)
	return nil
}

func (s *Store) beginAction() {
	s.mu.Lock()
	next := s.state
	next.IsLoading = true
	next.Error = ""
	snapshot, listeners := s.commitLocked(next)
	s.mu.Unlock()
	notify(snapshot, listeners)
}

func (s *Store) failAction(err error, msg string) {
	s.logger.Warn().Err(err).Msg(msg)
	s.mu.Lock()
	next := s.state
	next.IsLoading = false
	next.Error = autherrors.UserMessage(err)
	snapshot, listeners := s.commitLocked(next)
	s.mu.Unlock()
	notify(snapshot, listeners)
}

func (s *Store) completeSignIn(ctx context.Context, resp *backend.AuthResponse, rememberMe bool) {
	user := resp.User.Clone()
	s.mu.Lock()
	previous := s.previousRoleLocked(user.ID)
	s.mu.Unlock()
	s.resolveRole(ctx, user, resp.Session, previous)

	s.mu.Lock()
	s.epoch++
	next := s.state
	next.User, next.Session = user, copySession(resp.Session)
	next.RememberMe = rememberMe
	next.IsLoading = false
	next.Error = ""
	snapshot, listeners := s.commitLocked(next)
	s.persistLocked()
	if rememberMe {
		s.stopTimerLocked()
	} else {
		s.armTimerLocked()
	}
	s.mu.Unlock()
	notify(snapshot, listeners)

	s.logger.Info().Str("user_id", user.ID).Bool("remember_me", rememberMe).Msg("signed in")
}

func copySession(session *sessions.AuthSession) *sessions.AuthSession {
	if session == nil {
		return nil
	}
	c := *session
	return &c
}
