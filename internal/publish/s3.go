// Package publish uploads built packages to an S3 compatible bucket.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/sdlpack/internal/config"
	"github.com/goplus/sdlpack/internal/nuget"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/qiniu/x/log"
)

var ErrNotConfigured = errors.New("publish target not configured")

// objectStore is the subset of *minio.Client used here.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	FPutObject(ctx context.Context, bucket, object, file string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads .nupkg files. Objects that already exist are left alone
// so a version is never overwritten.
type Publisher struct {
	store  objectStore
	bucket string
	region string
	prefix string
}

// Result lists the keys written and skipped by Publish.
type Result struct {
	Uploaded []string
	Skipped  []string
}

func New(cfg config.PublishConfig) (*Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: s3 endpoint is required", ErrNotConfigured)
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("%w: s3 access key and secret key are required", ErrNotConfigured)
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", ErrNotConfigured)
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &Publisher{store: client, bucket: bucket, region: region, prefix: cfg.Prefix}, nil
}

// Publish uploads every package in dir.
func (p *Publisher) Publish(ctx context.Context, dir string) (*Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*."+nuget.PackageExt))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no packages in %s: %w", dir, os.ErrNotExist)
	}
	sort.Strings(files)

	if err := p.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	res := &Result{}
	for _, f := range files {
		key := objectKey(p.prefix, filepath.Base(f))
		exists, err := p.exists(ctx, key)
		if err != nil {
			return res, fmt.Errorf("stat %s: %w", key, err)
		}
		if exists {
			log.Warnf("%s/%s already exists, skipping", p.bucket, key)
			res.Skipped = append(res.Skipped, key)
			continue
		}
		_, err = p.store.FPutObject(ctx, p.bucket, key, f, minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		if err != nil {
			return res, fmt.Errorf("upload %s: %w", key, err)
		}
		log.Infof("uploaded %s/%s", p.bucket, key)
		res.Uploaded = append(res.Uploaded, key)
	}
	return res, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
}

func (p *Publisher) exists(ctx context.Context, key string) (bool, error) {
	_, err := p.store.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

func objectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
