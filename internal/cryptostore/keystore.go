package cryptostore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// ErrKeystoreUnavailable means the key file cannot be created or read.
// Fatal: callers must refuse to ingest or assemble snippets when they
// see this.
var ErrKeystoreUnavailable = errors.New("cryptostore: keystore unavailable")

// Keystore is a process-wide handle to the single 256-bit symmetric key
// persisted at Path with 0600 permissions. The key is generated lazily on
// first use and memoized for the process lifetime; it is never rotated.
type Keystore struct {
	path   string
	logger *zap.Logger

	mu  sync.Mutex
	key []byte
}

// NewKeystore creates a Keystore rooted at path. The key is not read or
// generated until the first call to Key or Cipher.
func NewKeystore(path string, logger *zap.Logger) *Keystore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Keystore{path: path, logger: logger}
}

// Key returns the memoized 256-bit key, generating and persisting it on
// first use if the key file does not yet exist.
func (k *Keystore) Key() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		return k.key, nil
	}

	key, err := k.loadOrCreate()
	if err != nil {
		return nil, err
	}
	k.key = key
	return key, nil
}

// Cipher returns a Cipher built from the memoized key, loading it first
// if necessary.
func (k *Keystore) Cipher() (*Cipher, error) {
	key, err := k.Key()
	if err != nil {
		return nil, err
	}
	return NewCipher(key)
}

func (k *Keystore) loadOrCreate() ([]byte, error) {
	data, err := os.ReadFile(k.path)
	if err == nil {
		if len(data) != KeySize {
			return nil, fmt.Errorf("%w: key file %s has wrong length %d", ErrKeystoreUnavailable, k.path, len(data))
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		k.logger.Error("keystore file unreadable", zap.String("path", k.path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: generating key: %v", ErrKeystoreUnavailable, err)
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0700); err != nil {
		return nil, fmt.Errorf("%w: creating keystore directory: %v", ErrKeystoreUnavailable, err)
	}
	if err := os.WriteFile(k.path, key, 0600); err != nil {
		return nil, fmt.Errorf("%w: writing key file: %v", ErrKeystoreUnavailable, err)
	}

	k.logger.Info("generated new encryption key", zap.String("path", k.path))
	return key, nil
}
