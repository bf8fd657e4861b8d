package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/freighter-sh/freighter/pkg/lfs"
)

// LocalStorage is a streaming backend that stores objects on the local
// filesystem, sharded by the first two oid byte pairs like Git LFS does.
type LocalStorage struct {
	root string
}

var _ Streaming = (*LocalStorage)(nil)

// NewLocalStorage creates a new LocalStorage rooted at root.
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// Exists implements Storage.
func (l *LocalStorage) Exists(_ context.Context, prefix, oid string) (bool, error) {
	_, err := os.Stat(l.objectPath(prefix, oid))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object %s: %w", oid, err)
}

// Size implements Storage.
func (l *LocalStorage) Size(_ context.Context, prefix, oid string) (int64, error) {
	info, err := os.Stat(l.objectPath(prefix, oid))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrObjectNotFound
		}
		return 0, fmt.Errorf("failed to stat object %s: %w", oid, err)
	}
	return info.Size(), nil
}

// Verify implements Verifiable.
func (l *LocalStorage) Verify(ctx context.Context, prefix, oid string, size int64) error {
	stored, err := l.Size(ctx, prefix, oid)
	if err != nil {
		return err
	}
	if stored != size {
		return ErrSizeMismatch
	}
	return nil
}

// Get implements Streaming.
func (l *LocalStorage) Get(_ context.Context, prefix, oid string) (io.ReadCloser, error) {
	f, err := os.Open(l.objectPath(prefix, oid))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object %s: %w", oid, err)
	}
	return f, nil
}

// Put implements Streaming.
func (l *LocalStorage) Put(_ context.Context, prefix, oid string, r io.Reader) (int64, error) {
	name := l.objectPath(prefix, oid)
	if err := os.MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", oid, err)
	}

	f, err := os.Create(name)
	if err != nil {
		return 0, fmt.Errorf("failed to create object %s: %w", oid, err)
	}
	defer f.Close() // nolint: errcheck
	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("failed to write object %s: %w", oid, err)
	}
	return n, nil
}

func (l *LocalStorage) objectPath(prefix, oid string) string {
	return filepath.FromSlash(path.Join(l.root, prefix, lfs.RelativeObjectPath(oid)))
}
