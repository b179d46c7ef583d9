package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cocogo"
	"github.com/hupe1980/cocogo/blobstore"
	"github.com/hupe1980/cocogo/testutil"
)

func newDataset(t *testing.T, images ...cocogo.Image) *cocogo.Dataset {
	t.Helper()
	ds, err := cocogo.New(testutil.Info("download"), images, nil, nil, nil)
	require.NoError(t, err)
	return ds
}

func sourceOf(buckets map[string]*blobstore.MemoryStore) StoreFunc {
	return func(_ context.Context, bucket string) (blobstore.BlobStore, error) {
		s, ok := buckets[bucket]
		if !ok {
			return nil, fmt.Errorf("unknown bucket %q", bucket)
		}
		return s, nil
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	src := blobstore.NewMemoryStore()
	other := blobstore.NewMemoryStore()
	require.NoError(t, src.Put(ctx, "f1/cam/0.jpg", []byte("image-0")))
	require.NoError(t, src.Put(ctx, "f2/cam/0.jpg", []byte("image-01")))
	require.NoError(t, other.Put(ctx, "x/0.jpg", []byte("x")))

	ds := newDataset(t,
		cocogo.Image{ID: 0, FileName: "f1__cam__0.jpg", CocoURL: "bucket/f1/cam/0.jpg"},
		cocogo.Image{ID: 1, FileName: "f2__cam__0.jpg", CocoURL: "s3://bucket/f2/cam/0.jpg"},
		cocogo.Image{ID: 2, FileName: "x__0.jpg", CocoURL: "other/x/0.jpg"},
	)

	dir := t.TempDir()
	metrics := &cocogo.BasicMetricsCollector{}
	d := New(sourceOf(map[string]*blobstore.MemoryStore{"bucket": src, "other": other}), blobstore.NewLocalStore(dir),
		func(o *Options) {
			o.Concurrency = 2
			o.RequestsPerSecond = 100
			o.Metrics = metrics
		})

	res, err := d.Run(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, Result{Downloaded: 3, Bytes: 16}, res)

	data, err := os.ReadFile(filepath.Join(dir, "f2__cam__0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image-01", string(data))

	stats := metrics.Stats()
	assert.Equal(t, int64(3), stats.Downloads)
	assert.Equal(t, int64(16), stats.DownloadedBytes)
}

func TestRun_SkipExisting(t *testing.T) {
	ctx := context.Background()
	src := blobstore.NewMemoryStore()
	require.NoError(t, src.Put(ctx, "f1/cam/0.jpg", []byte("new")))
	require.NoError(t, src.Put(ctx, "f2/cam/0.jpg", []byte("new")))

	dest := blobstore.NewMemoryStore()
	require.NoError(t, dest.Put(ctx, "f1__cam__0.jpg", []byte("old")))

	ds := newDataset(t,
		cocogo.Image{ID: 0, FileName: "f1__cam__0.jpg", CocoURL: "bucket/f1/cam/0.jpg"},
		cocogo.Image{ID: 1, FileName: "f2__cam__0.jpg", CocoURL: "bucket/f2/cam/0.jpg"},
	)

	d := New(sourceOf(map[string]*blobstore.MemoryStore{"bucket": src}), dest, func(o *Options) {
		o.SkipExisting = true
	})

	res, err := d.Run(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Downloaded)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, src.Opens())

	data, err := blobstore.ReadAll(ctx, dest, "f1__cam__0.jpg")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestRun_MissingObject(t *testing.T) {
	ds := newDataset(t, cocogo.Image{ID: 0, FileName: "a.jpg", CocoURL: "bucket/missing.jpg"})
	dest := blobstore.NewMemoryStore()

	d := New(sourceOf(map[string]*blobstore.MemoryStore{"bucket": blobstore.NewMemoryStore()}), dest)

	_, err := d.Run(context.Background(), ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, blobstore.ErrNotFound))
	assert.Equal(t, 0, dest.Len())
}

func TestRun_InvalidLocation(t *testing.T) {
	ds := newDataset(t, cocogo.Image{ID: 0, FileName: "a.jpg", CocoURL: "no-key"})

	d := New(sourceOf(nil), blobstore.NewMemoryStore())

	_, err := d.Run(context.Background(), ds)
	assert.ErrorContains(t, err, "invalid location")
}

func TestRun_UnknownBucket(t *testing.T) {
	ds := newDataset(t, cocogo.Image{ID: 0, FileName: "a.jpg", CocoURL: "nowhere/a.jpg"})

	d := New(sourceOf(nil), blobstore.NewMemoryStore())

	_, err := d.Run(context.Background(), ds)
	assert.ErrorContains(t, err, `open bucket "nowhere"`)
}

func TestRun_FileNameOutsideDestination(t *testing.T) {
	ctx := context.Background()
	src := blobstore.NewMemoryStore()
	require.NoError(t, src.Put(ctx, "f1/cam/0.jpg", []byte("image-0")))

	ds := newDataset(t, cocogo.Image{ID: 0, FileName: "../escaped.jpg", CocoURL: "bucket/f1/cam/0.jpg"})

	parent := t.TempDir()
	d := New(sourceOf(map[string]*blobstore.MemoryStore{"bucket": src}), blobstore.NewLocalStore(filepath.Join(parent, "images")))

	_, err := d.Run(ctx, ds)
	require.ErrorIs(t, err, blobstore.ErrInvalidName)
	assert.NoFileExists(t, filepath.Join(parent, "escaped.jpg"))
}
