package securestore

import (
	"encoding/json"
	"fmt"

	"github.com/awnumar/memguard"
	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
)

// DefaultMaxValueBytes bounds a single sealed value, in line with browser local storage quotas.
const DefaultMaxValueBytes = 64 * 1024

// Adapter encrypts values with a namespace-scoped key before handing them to a Backend.
// Each value is bound to its key through the AEAD additional data, so ciphertexts cannot
// be swapped between keys.
type Adapter struct {
	backend       Backend
	namespace     string
	key           *memguard.Enclave
	maxValueBytes int
}

var _ KV = (*Adapter)(nil)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithMaxValueBytes sets the size bound for sealed values. Non-positive values are ignored.
func WithMaxValueBytes(n int) AdapterOption {
	return func(a *Adapter) {
		if n > 0 {
			a.maxValueBytes = n
		}
	}
}

// NewAdapter derives the storage key from secret and returns an Adapter over backend.
// The derived key is kept in a memguard Enclave; secret is not retained.
func NewAdapter(backend Backend, namespace string, secret []byte, options ...AdapterOption) (*Adapter, error) {
	if backend == nil {
		return nil, fmt.Errorf("[NewAdapter] backend is required: %w", autherrors.ErrInvalidConfig)
	}
	if namespace == "" {
		return nil, fmt.Errorf("[NewAdapter] namespace is required: %w", autherrors.ErrInvalidConfig)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("[NewAdapter] secret is required: %w", autherrors.ErrInvalidConfig)
	}

	key, err := deriveKey(secret, namespace)
	if err != nil {
		return nil, fmt.Errorf("[NewAdapter] deriving key: %w", err)
	}

	a := &Adapter{
		backend:       backend,
		namespace:     namespace,
		key:           memguard.NewEnclave(key), // wipes key
		maxValueBytes: DefaultMaxValueBytes,
	}
	for _, opt := range options {
		opt(a)
	}
	return a, nil
}

func (a *Adapter) aad(key string) []byte {
	return []byte(a.namespace + ":" + key)
}

// Get returns the decrypted value, or nil when the key is absent. A value that
// fails to decrypt yields an error wrapping ErrStorageCorrupt.
func (a *Adapter) Get(key string) ([]byte, error) {
	raw, err := a.backend.Get(a.namespace, key)
	if err != nil {
		return nil, fmt.Errorf("[Adapter.Get] backend: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("[Adapter.Get] %s: %w", key, autherrors.ErrStorageCorrupt)
	}

	buf, err := a.key.Open()
	if err != nil {
		return nil, fmt.Errorf("[Adapter.Get] opening key: %w", err)
	}
	defer buf.Destroy()

	plaintext, err := open(buf.Bytes(), &env, a.aad(key))
	if err != nil {
		return nil, fmt.Errorf("[Adapter.Get] %s: %v: %w", key, err, autherrors.ErrStorageCorrupt)
	}
	return plaintext, nil
}

// Set seals and stores value under key.
func (a *Adapter) Set(key string, value []byte) error {
	buf, err := a.key.Open()
	if err != nil {
		return fmt.Errorf("[Adapter.Set] opening key: %w", err)
	}
	env, err := seal(buf.Bytes(), value, a.aad(key))
	buf.Destroy()
	if err != nil {
		return fmt.Errorf("[Adapter.Set] sealing: %w", err)
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("[Adapter.Set] encoding envelope: %w", err)
	}
	if len(raw) > a.maxValueBytes {
		return fmt.Errorf("[Adapter.Set] %s is %d bytes, limit %d: %w", key, len(raw), a.maxValueBytes, autherrors.ErrValueTooLarge)
	}

	if err := a.backend.Set(a.namespace, key, raw); err != nil {
		return fmt.Errorf("[Adapter.Set] backend: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (a *Adapter) Delete(key string) error {
	if err := a.backend.Delete(a.namespace, key); err != nil {
		return fmt.Errorf("[Adapter.Delete] backend: %w", err)
	}
	return nil
}

// Clear removes every key in the adapter's namespace.
func (a *Adapter) Clear() error {
	if err := a.backend.Clear(a.namespace); err != nil {
		return fmt.Errorf("[Adapter.Clear] backend: %w", err)
	}
	return nil
}
