package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"carsales/internal/domain"
)

// LocalStore reads assets relative to a root directory. Absolute paths are
// used as they are.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = "."
	}
	return &LocalStore{root: root}
}

func (s *LocalStore) resolve(path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

func (s *LocalStore) Stat(_ context.Context, path string) (domain.AssetInfo, error) {
	if path == "" {
		return domain.AssetInfo{}, ErrAssetNotFound
	}
	full := s.resolve(path)
	fi, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && fi.IsDir()) {
		return domain.AssetInfo{}, fmt.Errorf("%w: %s", ErrAssetNotFound, path)
	}
	if err != nil {
		return domain.AssetInfo{}, err
	}
	return domain.AssetInfo{
		Path:        path,
		Size:        fi.Size(),
		ContentType: ContentType(path),
		ModTime:     fi.ModTime(),
	}, nil
}

func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadCloser, domain.AssetInfo, error) {
	info, err := s.Stat(ctx, path)
	if err != nil {
		return nil, domain.AssetInfo{}, err
	}
	f, err := os.Open(s.resolve(path))
	if err != nil {
		return nil, domain.AssetInfo{}, err
	}
	return f, info, nil
}

// DownloadURL is always empty; local assets are streamed.
func (s *LocalStore) DownloadURL(context.Context, string) (string, error) { return "", nil }
