package config

import "time"

type BackendConfig interface {
	GetBaseURL() string
	GetClientID() string
	GetClientSecret() string
	GetTokenURL() string
	GetAuthURL() string
	GetIssuer() string
	GetRedirectURL() string
	GetProfilePath() string
	GetHTTPTimeout() time.Duration
}

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBaseURL returns the auth backend base URL (e.g., "https://auth.example.com")
func (Backend) GetBaseURL() string {
	return GetEnv("AUTH_BASE_URL", "http://localhost:9000")
}

func (Backend) GetClientID() string {
	return GetEnv("AUTH_CLIENT_ID", "lingo-web")
}

func (Backend) GetClientSecret() string {
	return GetEnv("AUTH_CLIENT_SECRET", "")
}

func (b Backend) GetTokenURL() string {
	return GetEnv("AUTH_TOKEN_URL", b.GetBaseURL()+"/oauth2/token")
}

func (b Backend) GetAuthURL() string {
	return GetEnv("AUTH_AUTHORIZE_URL", b.GetBaseURL()+"/oauth2/authorize")
}

func (b Backend) GetIssuer() string {
	return GetEnv("AUTH_ISSUER", b.GetBaseURL())
}

func (Backend) GetRedirectURL() string {
	return GetEnv("AUTH_REDIRECT_URL", "http://localhost:8080/auth/callback")
}

func (Backend) GetProfilePath() string {
	return GetEnv("AUTH_PROFILE_PATH", "/api/auth/me")
}

func (Backend) GetHTTPTimeout() time.Duration {
	return GetDurationEnv("AUTH_HTTP_TIMEOUT", 10*time.Second)
}
