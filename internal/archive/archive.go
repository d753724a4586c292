package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"photoboard/api/internal/config"
)

// Store keeps a copy of rejected images in object storage so moderation
// decisions stay auditable after the upstream delete. A nil *Store (no
// endpoint configured) disables archiving.
type Store struct {
	client *minio.Client
	cfg    config.ArchiveConfig
	http   *http.Client
}

func NewStore(cfg config.ArchiveConfig) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &Store{
		client: client,
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *Store) EnsureBucket(ctx context.Context) error {
	if s == nil {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// Archive downloads the image at srcURL and stores it keyed by date and
// external id. Best effort: callers log and continue on error.
func (s *Store) Archive(ctx context.Context, externalID, srcURL string) error {
	if s == nil || srcURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectKey := path.Join(time.Now().UTC().Format("2006/01/02"), externalID)

	_, err = s.client.PutObject(ctx, s.cfg.Bucket, objectKey, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}
