package sessions

// EventType identifies a backend-pushed auth state change.
type EventType string

const (
	EventSignedIn       EventType = "signed-in"
	EventSignedOut      EventType = "signed-out"
	EventTokenRefreshed EventType = "token-refreshed"
	EventUserUpdated    EventType = "user-updated"
)

// Event is delivered on the backend's auth-state-change channel.
// Session and User may be nil depending on the event type.
type Event struct {
	Type    EventType
	Session *AuthSession
	User    *AuthUser
}
