package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/jrsteele09/lingo-session/internal/config"
	"github.com/jrsteele09/lingo-session/securestore"
	"github.com/jrsteele09/lingo-session/securestore/bbolt"
)

const secretFileName = "device.key"

// secureStore is the opened persistence stack shared by every subcommand.
type secureStore struct {
	db      *bbolt.Store
	adapter *securestore.Adapter
	records *securestore.RecordStore
}

func (s *secureStore) Close() error {
	return s.db.Close()
}

// openSecureStore opens the bbolt file and the encrypted adapter over it. The
// device secret comes from STORAGE_SECRET, or a key file in the data folder.
func openSecureStore(cfg config.StorageConfig, logger zerolog.Logger) (*secureStore, error) {
	if err := os.MkdirAll(cfg.GetDataFolder(), 0o700); err != nil {
		return nil, fmt.Errorf("creating data folder: %w", err)
	}

	secret := []byte(cfg.GetStorageSecret())
	if len(secret) == 0 {
		var err error
		secret, err = securestore.LoadOrCreateSecret(filepath.Join(cfg.GetDataFolder(), secretFileName))
		if err != nil {
			return nil, err
		}
	}

	db, err := bbolt.Open(cfg.GetStoragePath(), &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	adapter, err := securestore.NewAdapter(db, cfg.GetStorageNamespace(), secret,
		securestore.WithMaxValueBytes(cfg.GetMaxValueBytes()))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &secureStore{
		db:      db,
		adapter: adapter,
		records: securestore.NewRecordStore(adapter, securestore.WithRecordLogger(logger)),
	}, nil
}
