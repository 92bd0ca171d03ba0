package config

type Config interface {
	EnvConfig
	SessionConfig
	StorageConfig
	BackendConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Session
	Storage
	Backend
}

func New() Config {
	return mainConfig{}
}
