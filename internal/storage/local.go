package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs in a directory on disk.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) Put(_ context.Context, name string, reader io.Reader, _ int64, _ string) (string, error) {
	path := filepath.Join(s.baseDir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *LocalStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (s *LocalStore) Delete(_ context.Context, path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
