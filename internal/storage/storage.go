// Package storage keeps item photos in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageSize caps a single uploaded photo.
const MaxImageSize = 5 << 20

var (
	ErrDisabled         = errors.New("image storage is not configured")
	ErrUnsupportedImage = errors.New("only JPEG, PNG, GIF and WEBP images are accepted")
	ErrImageTooLarge    = errors.New("image exceeds 5MB")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL is the base clients fetch objects from. Defaults to the
	// endpoint itself.
	PublicURL string
}

// ImageStore uploads and removes item photos.
type ImageStore struct {
	cfg    Config
	client *minio.Client
}

func New(cfg Config) (*ImageStore, error) {
	if cfg.Endpoint == "" {
		return nil, ErrDisabled
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	if cfg.PublicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		cfg.PublicURL = scheme + "://" + endpoint + "/" + cfg.Bucket
	}
	return &ImageStore{cfg: cfg, client: cl}, nil
}

func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// PutImage stores data under <ownerID>/<random>.<ext> and returns its public
// URL. The content type is sniffed, not trusted from the client.
func (s *ImageStore) PutImage(ctx context.Context, ownerID string, data []byte) (string, error) {
	key, contentType, err := ImageKey(ownerID, data)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// RemoveImage deletes the object behind a URL produced by PutImage. URLs
// from elsewhere are ignored.
func (s *ImageStore) RemoveImage(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}
	return s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
}

func (s *ImageStore) URL(key string) string {
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key
}

func (s *ImageStore) KeyFromURL(url string) (string, bool) {
	prefix := strings.TrimRight(s.cfg.PublicURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// ImageKey validates an upload and picks its object key and content type.
func ImageKey(ownerID string, data []byte) (key, contentType string, err error) {
	if len(data) > MaxImageSize {
		return "", "", ErrImageTooLarge
	}
	contentType = http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", ErrUnsupportedImage
	}
	return path.Join(ownerID, uuid.NewString()+ext), contentType, nil
}
