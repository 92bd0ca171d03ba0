// Package securestore provides encrypted, size-bounded key/value persistence for
// auth state that must survive restarts.
package securestore

// Backend is raw byte storage partitioned by namespace. Implementations must
// return (nil, nil) from Get when the key does not exist, and treat deleting a
// missing key or clearing a missing namespace as success.
type Backend interface {
	Get(namespace, key string) ([]byte, error)
	Set(namespace, key string, value []byte) error
	Delete(namespace, key string) error
	Clear(namespace string) error
}

// KV is the plaintext key/value contract the Adapter exposes to its callers.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}
