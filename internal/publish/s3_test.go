package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goplus/sdlpack/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	buckets map[string]bool
	objects map[string]string // key -> source file
	made    []string
	failPut error
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string]string{}}
}

func (f *fakeStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	f.made = append(f.made, bucket+"@"+opts.Region)
	return nil
}

func (f *fakeStore) StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if _, ok := f.objects[bucket+"/"+object]; ok {
		return minio.ObjectInfo{Key: object}, nil
	}
	return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
}

func (f *fakeStore) FPutObject(ctx context.Context, bucket, object, file string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.failPut != nil {
		return minio.UploadInfo{}, f.failPut
	}
	f.objects[bucket+"/"+object] = file
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func writePackages(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644))
	}
	return dir
}

func TestNewRequiresSettings(t *testing.T) {
	full := config.PublishConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"}

	for name, mutate := range map[string]func(*config.PublishConfig){
		"endpoint": func(c *config.PublishConfig) { c.Endpoint = " " },
		"access":   func(c *config.PublishConfig) { c.AccessKey = "" },
		"secret":   func(c *config.PublishConfig) { c.SecretKey = "" },
		"bucket":   func(c *config.PublishConfig) { c.Bucket = "" },
	} {
		t.Run(name, func(t *testing.T) {
			c := full
			mutate(&c)
			_, err := New(c)
			assert.ErrorIs(t, err, ErrNotConfigured)
		})
	}

	p, err := New(full)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", p.region)
}

func TestPublishUploadsAndSkipsExisting(t *testing.T) {
	dir := writePackages(t,
		"SDL3.3.2.0.nupkg",
		"SDL3.runtime.linux-x64.3.2.0.nupkg",
		"notes.txt",
	)
	store := newFakeStore()
	store.objects["pkgs/nuget/SDL3.3.2.0.nupkg"] = "old"
	p := &Publisher{store: store, bucket: "pkgs", region: "eu-west-1", prefix: "/nuget/"}

	res, err := p.Publish(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"nuget/SDL3.runtime.linux-x64.3.2.0.nupkg"}, res.Uploaded)
	assert.Equal(t, []string{"nuget/SDL3.3.2.0.nupkg"}, res.Skipped)
	assert.Equal(t, []string{"pkgs@eu-west-1"}, store.made)
	assert.Equal(t, "old", store.objects["pkgs/nuget/SDL3.3.2.0.nupkg"])
	assert.NotContains(t, store.objects, "pkgs/nuget/notes.txt")
}

func TestPublishEmptyDir(t *testing.T) {
	p := &Publisher{store: newFakeStore(), bucket: "pkgs"}
	_, err := p.Publish(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPublishUploadError(t *testing.T) {
	dir := writePackages(t, "SDL3.3.2.0.nupkg")
	store := newFakeStore()
	store.buckets["pkgs"] = true
	store.failPut = errors.New("denied")
	p := &Publisher{store: store, bucket: "pkgs"}

	_, err := p.Publish(context.Background(), dir)
	assert.ErrorContains(t, err, "denied")
	assert.Empty(t, store.made)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "a.nupkg", objectKey("", "a.nupkg"))
	assert.Equal(t, "x/y/a.nupkg", objectKey("/x/y/", "a.nupkg"))
}
