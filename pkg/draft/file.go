package draft

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	fileExt       = ".json"
	tmpFilePrefix = ".tmp-"
)

// FileStorage persists each key as a JSON file in a directory. Writes go to a
// temp file that is fsynced and renamed over the destination, so readers
// never observe a partially written draft.
type FileStorage struct {
	dir string
}

// NewFileStorage creates a FileStorage rooted at dir, defaulting to ".onboarding/drafts".
func NewFileStorage(dir string) *FileStorage {
	if dir == "" {
		dir = filepath.Join(".onboarding", "drafts")
	}
	return &FileStorage{dir: dir}
}

// Dir returns the directory drafts are written to.
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read draft file: %w", err)
	}
	return data, nil
}

func (s *FileStorage) Set(ctx context.Context, key string, val []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("ensure draft directory: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	// Escaped keys never start with a dot, so temp files cannot collide with them.
	tmp, err := os.CreateTemp(s.dir, tmpFilePrefix+"*"+fileExt)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(val); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete draft file: %w", err)
	}
	return nil
}

func (s *FileStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list draft directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, tmpFilePrefix) || filepath.Ext(name) != fileExt {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *FileStorage) path(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	// PathEscape leaves "." intact, so ".." would still escape the directory.
	name := strings.ReplaceAll(url.PathEscape(key), ".", "%2E")
	return filepath.Join(s.dir, name+fileExt), nil
}
