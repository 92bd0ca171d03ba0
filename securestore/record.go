package securestore

import (
	"encoding/json"
	"fmt"

	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AuthRecordKey is the single key the auth state is persisted under.
const AuthRecordKey = "auth-state"

// RecordStore persists the sanitized auth record through a KV. It accepts full
// store state and converts it with sessions.ToPersisted, so session tokens never
// reach the KV whatever the caller passes in.
type RecordStore struct {
	kv     KV
	logger zerolog.Logger
}

// RecordStoreOption configures a RecordStore.
type RecordStoreOption func(*RecordStore)

// WithRecordLogger sets the logger used for fail-soft load warnings.
func WithRecordLogger(logger zerolog.Logger) RecordStoreOption {
	return func(r *RecordStore) {
		r.logger = logger
	}
}

// NewRecordStore wraps kv. The RecordStore must be the only writer of AuthRecordKey.
func NewRecordStore(kv KV, options ...RecordStoreOption) *RecordStore {
	r := &RecordStore{
		kv:     kv,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Save writes the persistable subset of state. When RememberMe is false the
// record is removed instead, so nothing is stored for non-remembered sessions.
func (r *RecordStore) Save(state sessions.State) error {
	if !state.RememberMe {
		return r.Remove()
	}
	data, err := json.Marshal(sessions.ToPersisted(state))
	if err != nil {
		return fmt.Errorf("[RecordStore.Save] encoding: %w", err)
	}
	if err := r.kv.Set(AuthRecordKey, data); err != nil {
		return autherrors.Wrapf(err, "[RecordStore.Save]")
	}
	return nil
}

// Load returns the remembered state. Missing, corrupt or incompatible records all
// yield ok=false; corrupt records are logged and removed rather than returned as errors.
func (r *RecordStore) Load() (remembered sessions.Remembered, ok bool) {
	data, err := r.kv.Get(AuthRecordKey)
	if err != nil {
		r.discard(err)
		return sessions.Remembered{}, false
	}
	if data == nil {
		return sessions.Remembered{}, false
	}

	var record sessions.PersistedAuthRecord
	if err := json.Unmarshal(data, &record); err != nil {
		r.discard(fmt.Errorf("decoding record: %v: %w", err, autherrors.ErrStorageCorrupt))
		return sessions.Remembered{}, false
	}
	if record.Version != sessions.PersistedRecordVersion {
		r.discard(fmt.Errorf("record version %d: %w", record.Version, autherrors.ErrStorageCorrupt))
		return sessions.Remembered{}, false
	}
	if !record.RememberMe {
		return sessions.Remembered{}, false
	}
	return sessions.FromPersisted(record), true
}

// Remove deletes the persisted record.
func (r *RecordStore) Remove() error {
	if err := r.kv.Delete(AuthRecordKey); err != nil {
		return autherrors.Wrapf(err, "[RecordStore.Remove]")
	}
	return nil
}

func (r *RecordStore) discard(err error) {
	r.logger.Warn().Err(err).Str("key", AuthRecordKey).Msg("discarding unreadable persisted auth record")
	if delErr := r.kv.Delete(AuthRecordKey); delErr != nil {
		r.logger.Warn().Err(delErr).Str("key", AuthRecordKey).Msg("failed to remove unreadable persisted auth record")
	}
}
