package config

import "path/filepath"

type StorageConfig interface {
	GetDataFolder() string
	GetStoragePath() string
	GetStorageNamespace() string
	GetStorageSecret() string
	GetMaxValueBytes() int
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetDataFolder() string {
	return GetEnv("FOLDER", "./data")
}

func (s Storage) GetStoragePath() string {
	return GetEnv("STORAGE_PATH", filepath.Join(s.GetDataFolder(), "session.db"))
}

func (Storage) GetStorageNamespace() string {
	return GetEnv("STORAGE_NAMESPACE", "lingo-auth")
}

// GetStorageSecret is the device secret the storage encryption key is derived from.
func (Storage) GetStorageSecret() string {
	return GetEnv("STORAGE_SECRET", "")
}

func (Storage) GetMaxValueBytes() int {
	return GetIntEnv("STORAGE_MAX_VALUE_BYTES", 64*1024)
}
