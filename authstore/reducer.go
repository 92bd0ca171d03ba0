package authstore

import "github.com/jrsteele09/lingo-session/sessions"

// Reduce applies a pushed auth event to state. It never sets user without a
// session or the reverse. Events that would change nothing return state as is.
func Reduce(state sessions.State, event sessions.Event) sessions.State {
	next, _ := reduce(state, event)
	return next
}

// reduce also reports whether the event changed anything.
func reduce(state sessions.State, event sessions.Event) (sessions.State, bool) {
	switch event.Type {
	case sessions.EventSignedIn, sessions.EventTokenRefreshed:
		return reduceSession(state, event)

	case sessions.EventSignedOut:
		if state.User == nil && state.Session == nil {
			return state, false
		}
		next := state
		next.User, next.Session = nil, nil
		next.RememberMe = false
		next.Error = ""
		return next, true

	case sessions.EventUserUpdated:
		if event.User == nil || !state.IsAuthenticated() || event.User.ID != state.User.ID {
			return state, false
		}
		next := state
		next.User = mergeUser(state.User, event.User)
		return next, true
	}
	return state, false
}

func reduceSession(state sessions.State, event sessions.Event) (sessions.State, bool) {
	if event.Session == nil {
		return state, false
	}
	// Only a sign-in can create a session.
	if event.Type == sessions.EventTokenRefreshed && state.Session == nil {
		return state, false
	}
	if state.Session != nil && state.Session.AccessToken == event.Session.AccessToken {
		return state, false
	}

	user := event.User.Clone()
	if user == nil {
		// A token refresh may omit the user; keep the current one if there is one.
		if state.User == nil {
			return state, false
		}
		user = state.User.Clone()
	} else if state.User != nil && state.User.ID == user.ID {
		user = mergeUser(state.User, user)
	}

	session := *event.Session
	next := state
	next.User = user
	next.Session = &session
	next.Error = ""
	if event.Type == sessions.EventSignedIn && (state.User == nil || state.User.ID != user.ID) {
		next.RememberMe = false
	}
	return next, true
}

// mergeUser overlays the non-empty identity fields of update onto a copy of
// current. An empty role never clears a server-resolved one.
func mergeUser(current, update *sessions.AuthUser) *sessions.AuthUser {
	merged := current.Clone()
	if update.Email != "" {
		merged.Email = update.Email
	}
	if update.FirstName != "" {
		merged.FirstName = update.FirstName
	}
	if update.LastName != "" {
		merged.LastName = update.LastName
	}
	if update.Role != "" {
		merged.Role = update.Role
	}
	if update.IsEmailVerified {
		merged.IsEmailVerified = true
	}
	if update.LastLoginAt != nil {
		t := *update.LastLoginAt
		merged.LastLoginAt = &t
	}
	return merged
}
