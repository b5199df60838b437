package cryptostore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestKeystoreGeneratesOnFirstUse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore", "enc_key.bin")
	ks := NewKeystore(path, zaptest.NewLogger(t))

	key, err := ks.Key()
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestKeystoreMemoizesKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enc_key.bin")
	ks := NewKeystore(path, zaptest.NewLogger(t))

	first, err := ks.Key()
	require.NoError(t, err)

	if err := os.WriteFile(path, make([]byte, KeySize), 0600); err != nil {
		t.Fatal(err)
	}

	second, err := ks.Key()
	require.NoError(t, err)
	assert.Equal(t, first, second, "key must be memoized, not re-read from disk")
}

func TestKeystorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enc_key.bin")

	ks1 := NewKeystore(path, zaptest.NewLogger(t))
	key1, err := ks1.Key()
	require.NoError(t, err)

	ks2 := NewKeystore(path, zaptest.NewLogger(t))
	key2, err := ks2.Key()
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
}

func TestKeystoreRejectsCorruptKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enc_key.bin")
	require.NoError(t, os.WriteFile(path, []byte("too-short"), 0600))

	ks := NewKeystore(path, zaptest.NewLogger(t))
	_, err := ks.Key()
	assert.ErrorIs(t, err, ErrKeystoreUnavailable)
}

func TestKeystoreCipherRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ks := NewKeystore(filepath.Join(dir, "enc_key.bin"), zaptest.NewLogger(t))

	c, err := ks.Cipher()
	require.NoError(t, err)

	blob, err := c.Encrypt([]byte("hello"), nil)
	require.NoError(t, err)
	got, err := c.Decrypt(blob, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}
