package chunkstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragvault/internal/cryptostore"
)

// ErrChunkNotFound is returned when no blob exists for a chunk_id.
var ErrChunkNotFound = errors.New("chunkstore: chunk not found")

// Store persists and retrieves encrypted chunk blobs keyed by chunk_id.
// Exactly one file backs each chunk_id: <root>/<chunk_id>.enc.
type Store struct {
	root   string
	cipher *cryptostore.Cipher
	logger *zap.Logger
}

// New creates a Store rooted at root, using cipher for AEAD sealing. The
// root directory is created (if absent) on first Put.
func New(root string, cipher *cryptostore.Cipher, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, cipher: cipher, logger: logger}
}

// pathFor returns the on-disk path for a chunk's encrypted blob. chunk_id
// is never path-joined raw from caller input beyond this: callers
// supply only ids minted by internal/ids, so no traversal sequences
// reach here in practice, but Clean keeps the mapping well-defined
// regardless.
func (s *Store) pathFor(chunkID string) string {
	return filepath.Join(s.root, filepath.Clean(chunkID)+".enc")
}

// Put encrypts text and writes it to <root>/<chunk_id>.enc, creating the
// root directory if necessary.
func (s *Store) Put(chunkID string, text string) error {
	if err := os.MkdirAll(s.root, 0700); err != nil {
		return fmt.Errorf("chunkstore: creating root %s: %w", s.root, err)
	}
	blob, err := s.cipher.Encrypt([]byte(text), []byte(chunkID))
	if err != nil {
		return fmt.Errorf("chunkstore: encrypting chunk %s: %w", chunkID, err)
	}
	if err := os.WriteFile(s.pathFor(chunkID), blob, 0600); err != nil {
		return fmt.Errorf("chunkstore: writing chunk %s: %w", chunkID, err)
	}
	return nil
}

// Get reads and decrypts the blob for chunk_id. Callers on the
// retrieval path must treat cryptostore.ErrIntegrityFailure as "snippet
// is empty", not a hard failure of the overall request.
func (s *Store) Get(chunkID string) (string, error) {
	data, err := os.ReadFile(s.pathFor(chunkID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrChunkNotFound
		}
		return "", fmt.Errorf("chunkstore: reading chunk %s: %w", chunkID, err)
	}
	plaintext, err := s.cipher.Decrypt(data, []byte(chunkID))
	if err != nil {
		s.logger.Warn("chunk decryption failed",
			zap.String("chunk_id", chunkID),
			zap.String("security_event", "integrity_failure"),
			zap.Error(err),
		)
		return "", err
	}
	return string(plaintext), nil
}

// Delete removes the blob for chunk_id, if present. Used by purge.
func (s *Store) Delete(chunkID string) error {
	err := os.Remove(s.pathFor(chunkID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("chunkstore: deleting chunk %s: %w", chunkID, err)
	}
	return nil
}

// Reset destructively removes every blob under root and recreates the
// directory. Used by purge.
func (s *Store) Reset() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("chunkstore: resetting root %s: %w", s.root, err)
	}
	return os.MkdirAll(s.root, 0700)
}
