package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fieldline/workdesk/pkg/utils"
	"go.uber.org/zap"
)

// uploadURLPrefix is the public path the HTTP router serves stored objects
// under. Work item document lists hold URLs, not keys.
const uploadURLPrefix = "/uploads"

// ObjectStore is the blob store behind work item documents. Objects are
// addressed by slash-separated keys relative to the store root, for example
// "u1/1720000000000_quote.pdf".
type ObjectStore interface {
	// Save writes an object, creating parent directories as needed.
	Save(key string, content []byte) error

	// Remove deletes an object. Missing objects are not an error.
	Remove(key string) error
}

// LocalObjectStore implements ObjectStore on the local filesystem
type LocalObjectStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalObjectStore creates a store rooted at baseDir
func NewLocalObjectStore(baseDir string, logger *zap.Logger) *LocalObjectStore {
	return &LocalObjectStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes an object under the store root
func (s *LocalObjectStore) Save(key string, content []byte) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write object",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to write object: %w", err)
	}

	s.logger.Debug("Object stored",
		zap.String("key", key),
		zap.Int("size", len(content)))

	return nil
}

// Remove deletes an object. Removing a missing object succeeds.
func (s *LocalObjectStore) Remove(key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		s.logger.Error("Failed to remove object",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to remove object: %w", err)
	}

	s.logger.Debug("Object removed", zap.String("key", key))
	return nil
}

// resolve maps a key to an absolute path and checks it stays within the
// store root. Keys carrying traversal segments are rejected.
func (s *LocalObjectStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}

	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	// Path must start with base + separator or equal base.
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return "", fmt.Errorf("key escapes store root: %s", key)
	}

	return absPath, nil
}

// ObjectKey builds the storage key for an upload: {uid}/{millis}_{filename}.
// The filename is sanitized so a hostile name cannot steer the path.
func ObjectKey(uid string, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", uid, now.UnixMilli(), utils.SanitizeFilename(filename))
}

// URLPath maps a storage key to the public URL path the router serves.
func URLPath(key string) string {
	return uploadURLPrefix + "/" + key
}

// KeyFromURL recovers the storage key from a stored document URL. It
// returns false for URLs outside the upload prefix.
func KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, uploadURLPrefix+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
