// Package assets serves car images and brochures from the filesystem or an
// S3-compatible bucket.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ErrAssetNotFound is returned when an image or brochure does not exist.
var ErrAssetNotFound = errors.New("asset not found")

var fallbackTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ContentType guesses a MIME type from the file extension.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := fallbackTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// SaveTo copies the asset at path into dir under its base name and returns
// the written file path.
func SaveTo(ctx context.Context, store Store, path, dir string) (string, error) {
	rc, _, err := store.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	dst := filepath.Join(dir, filepath.Base(filepath.FromSlash(path)))
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	return dst, f.Close()
}
