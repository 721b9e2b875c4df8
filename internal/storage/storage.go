package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/lolo262652/tasknot/internal/constants"
)

// ObjectStore holds binary objects under opaque keys on an afero filesystem.
// Keys are slash-separated paths; the store never interprets their contents.
type ObjectStore struct {
	fs   afero.Fs
	root string
}

// New creates an ObjectStore rooted at root on fs.
func New(fs afero.Fs, root string) *ObjectStore {
	return &ObjectStore{fs: fs, root: root}
}

func (s *ObjectStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return path.Join(s.root, clean), nil
}

// Upload writes the object, replacing any previous content under the key.
func (s *ObjectStore) Upload(key string, r io.Reader) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

// Download opens the object for reading. The caller closes the reader.
func (s *ObjectStore) Download(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// Remove deletes the object. Removing an absent key is an error.
func (s *ObjectStore) Remove(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// Exists reports whether an object is stored under the key.
func (s *ObjectStore) Exists(key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}

// NewObjectKey builds a storage key for a document upload, scoping a
// randomized file name under the task while preserving the extension.
func NewObjectKey(taskID, fileName string) (string, error) {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate object name: %w", err)
	}

	name := hex.EncodeToString(raw)
	if ext := strings.TrimPrefix(path.Ext(fileName), "."); ext != "" {
		name = name + "." + ext
	}

	return path.Join(constants.StorageKeyPrefix, taskID, name), nil
}
