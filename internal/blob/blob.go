// Package blob persists uploaded images and hands back the path they are
// served from.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotImage is returned for uploads that are not a supported image.
var ErrNotImage = errors.New("file is not a JPEG or PNG image")

// Store is a blob store keyed by path.
type Store interface {
	Put(ctx context.Context, ext string, data []byte) (string, error)
	Delete(ctx context.Context, p string) error
}

// LocalStore writes blobs into a directory that is served under URLPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates dir if needed and returns a store that serves its
// files under urlPrefix (for example "/uploads").
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Put writes data under a fresh random name and returns its public path.
func (s *LocalStore) Put(_ context.Context, ext string, data []byte) (string, error) {
	name := uuid.New().String() + ext
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("publish blob: %w", err)
	}
	return path.Join(s.urlPrefix, name), nil
}

// Delete removes the blob behind a path previously returned by Put. Paths
// outside the store are ignored.
func (s *LocalStore) Delete(_ context.Context, p string) error {
	p = path.Clean(p)
	if path.Dir(p) != s.urlPrefix {
		return nil
	}
	name := path.Base(p)
	if strings.HasPrefix(name, ".") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
