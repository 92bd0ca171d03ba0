package config

import "time"

type SessionConfig interface {
	GetIdleTimeout() time.Duration
	GetIdleWarning() time.Duration
	GetRefreshMargin() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetIdleTimeout() time.Duration {
	return GetDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute)
}

func (Session) GetIdleWarning() time.Duration {
	return GetDurationEnv("SESSION_IDLE_WARNING", 5*time.Minute)
}

// GetRefreshMargin is how long before access token expiry a background refresh runs.
func (Session) GetRefreshMargin() time.Duration {
	return GetDurationEnv("SESSION_REFRESH_MARGIN", 1*time.Minute)
}
