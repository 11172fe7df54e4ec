package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"carsales/internal/domain"
)

// MinioConfig configures the bucket store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Presign   time.Duration
}

// MinioStore reads assets from a bucket. Paths are object keys.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	presign time.Duration
	logger  *slog.Logger
}

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return NewMinioStoreWithClient(client, cfg.Bucket, cfg.Presign), nil
}

func NewMinioStoreWithClient(client *minio.Client, bucket string, presign time.Duration) *MinioStore {
	if presign <= 0 {
		presign = 15 * time.Minute
	}
	return &MinioStore{
		client:  client,
		bucket:  bucket,
		presign: presign,
		logger:  slog.Default().With("component", "minio-assets"),
	}
}

func objectKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}

func (s *MinioStore) Stat(ctx context.Context, p string) (domain.AssetInfo, error) {
	if p == "" {
		return domain.AssetInfo{}, ErrAssetNotFound
	}
	obj, err := s.client.StatObject(ctx, s.bucket, objectKey(p), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return domain.AssetInfo{}, fmt.Errorf("%w: %s", ErrAssetNotFound, p)
		}
		return domain.AssetInfo{}, err
	}
	ct := obj.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = ContentType(p)
	}
	return domain.AssetInfo{Path: p, Size: obj.Size, ContentType: ct, ModTime: obj.LastModified}, nil
}

func (s *MinioStore) Open(ctx context.Context, p string) (io.ReadCloser, domain.AssetInfo, error) {
	info, err := s.Stat(ctx, p)
	if err != nil {
		return nil, domain.AssetInfo{}, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, domain.AssetInfo{}, err
	}
	return obj, info, nil
}

// DownloadURL returns a presigned GET URL that downloads the object as an attachment.
func (s *MinioStore) DownloadURL(ctx context.Context, p string) (string, error) {
	if _, err := s.Stat(ctx, p); err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(objectKey(p))))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey(p), s.presign, params)
	if err != nil {
		s.logger.Error("presign failed", "key", objectKey(p), "err", err)
		return "", err
	}
	return u.String(), nil
}
