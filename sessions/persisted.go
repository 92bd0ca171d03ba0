package sessions

// PersistedAuthRecord is the only shape of auth state that is ever written to storage.
// It has no token fields, so a session cannot be persisted through it.
type PersistedAuthRecord struct {
	Version    int            `json:"version"`
	User       *PersistedUser `json:"user,omitempty"`
	RememberMe bool           `json:"rememberMe"`
}

// PersistedUser is the sanitized subset of AuthUser kept across restarts.
type PersistedUser struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	Role            string `json:"role,omitempty"`
}

// PersistedRecordVersion is the current schema version of PersistedAuthRecord.
const PersistedRecordVersion = 1

// ToPersisted extracts the persistable subset of state. The session is always dropped.
func ToPersisted(s State) PersistedAuthRecord {
	record := PersistedAuthRecord{
		Version:    PersistedRecordVersion,
		RememberMe: s.RememberMe,
	}
	if s.User != nil {
		record.User = &PersistedUser{
			ID:              s.User.ID,
			Email:           s.User.Email,
			FirstName:       s.User.FirstName,
			LastName:        s.User.LastName,
			IsEmailVerified: s.User.IsEmailVerified,
			Role:            s.User.Role,
		}
	}
	return record
}

// Remembered is what a persisted record contributes back to the store on startup.
// User is an identity hint only and never makes the store authenticated on its own.
type Remembered struct {
	User       *AuthUser
	RememberMe bool
}

// FromPersisted converts a stored record back into its partial state.
func FromPersisted(r PersistedAuthRecord) Remembered {
	remembered := Remembered{RememberMe: r.RememberMe}
	if r.User != nil {
		remembered.User = &AuthUser{
			ID:              r.User.ID,
			Email:           r.User.Email,
			FirstName:       r.User.FirstName,
			LastName:        r.User.LastName,
			IsEmailVerified: r.User.IsEmailVerified,
			Role:            r.User.Role,
		}
	}
	return remembered
}
