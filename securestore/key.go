package securestore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	keyDerivationInfo = "lingo:securestore:v1"
	secretBytes       = 32
)

// deriveKey expands a device secret into a namespace-scoped AES-256 key.
func deriveKey(secret []byte, namespace string) ([]byte, error) {
	h := hkdf.New(sha256.New, secret, []byte(namespace), []byte(keyDerivationInfo))
	k := make([]byte, aesKeySize)
	if _, err := io.ReadFull(h, k); err != nil {
		return nil, fmt.Errorf("reading from HKDF: %w", err)
	}
	return k, nil
}

// LoadOrCreateSecret reads a hex-encoded device secret from path, generating and
// writing a new random one (mode 0600) when the file does not exist.
func LoadOrCreateSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		secret, decodeErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decodeErr != nil || len(secret) != secretBytes {
			return nil, fmt.Errorf("secret file %s is malformed", path)
		}
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secret file: %w", err)
	}

	secret := make([]byte, secretBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating secret: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating secret folder: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(secret)), 0o600); err != nil {
		return nil, fmt.Errorf("writing secret file: %w", err)
	}
	return secret, nil
}
