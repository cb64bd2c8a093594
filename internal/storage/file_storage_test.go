package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalObjectStoreSave(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := zap.NewDevelopment()
	store := NewLocalObjectStore(tempDir, logger)

	t.Run("saves object and creates parent directories", func(t *testing.T) {
		content := []byte("PDF content here")

		err := store.Save("u1/1720000000000_quote.pdf", content)

		require.NoError(t, err)
		saved, err := os.ReadFile(filepath.Join(tempDir, "u1", "1720000000000_quote.pdf"))
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("overwrites existing object", func(t *testing.T) {
		require.NoError(t, store.Save("u1/report.txt", []byte("original")))
		require.NoError(t, store.Save("u1/report.txt", []byte("updated")))

		saved, _ := os.ReadFile(filepath.Join(tempDir, "u1", "report.txt"))
		assert.Equal(t, []byte("updated"), saved)
	})

	t.Run("saves empty object", func(t *testing.T) {
		require.NoError(t, store.Save("u1/empty.txt", []byte{}))

		info, err := os.Stat(filepath.Join(tempDir, "u1", "empty.txt"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), info.Size())
	})

	t.Run("rejects empty key", func(t *testing.T) {
		err := store.Save("", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("rejects traversal key", func(t *testing.T) {
		err := store.Save("u1/../../etc/passwd", []byte("malicious"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes store root")
	})

	t.Run("rejects key resolving to a sibling with a similar prefix", func(t *testing.T) {
		err := store.Save("../"+filepath.Base(tempDir)+"_malicious/evil.txt", []byte("malicious"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes store root")
	})
}

func TestLocalObjectStoreRemove(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := zap.NewDevelopment()
	store := NewLocalObjectStore(tempDir, logger)

	require.NoError(t, store.Save("u1/doomed.txt", []byte("x")))

	require.NoError(t, store.Remove("u1/doomed.txt"))
	assert.NoFileExists(t, filepath.Join(tempDir, "u1", "doomed.txt"))

	assert.NoError(t, store.Remove("u1/doomed.txt"), "removing a missing object succeeds")
	assert.Error(t, store.Remove("../outside.txt"), "traversal keys are still rejected")
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC)

	t.Run("namespaces by uid and timestamp", func(t *testing.T) {
		key := ObjectKey("u1", "quote.pdf", now)
		assert.Equal(t, "u1/1752575400000_quote.pdf", key)
	})

	t.Run("strips directories from hostile filenames", func(t *testing.T) {
		key := ObjectKey("u1", "../../etc/passwd", now)
		assert.Equal(t, "u1/1752575400000_passwd", key)
	})

	t.Run("falls back for unusable filenames", func(t *testing.T) {
		key := ObjectKey("u1", "...", now)
		assert.Equal(t, "u1/1752575400000_file", key)
	})
}

func TestURLPathRoundTrip(t *testing.T) {
	url := URLPath("u1/1752575400000_quote.pdf")
	assert.Equal(t, "/uploads/u1/1752575400000_quote.pdf", url)

	key, ok := KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "u1/1752575400000_quote.pdf", key)

	_, ok = KeyFromURL("https://elsewhere.example/file.pdf")
	assert.False(t, ok)

	_, ok = KeyFromURL("/uploads/")
	assert.False(t, ok)
}
