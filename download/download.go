// Package download copies the images of a dataset out of object storage.
//
// Each image's coco_url names a bucket and key. The Downloader opens the
// source store for that bucket and streams the object into a destination
// store under the image's file name, typically a blobstore.LocalStore.
package download

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/cocogo"
	"github.com/hupe1980/cocogo/blobstore"
)

// DefaultConcurrency is the number of parallel transfers.
const DefaultConcurrency = 8

// StoreFunc returns the store holding the objects of bucket.
type StoreFunc func(ctx context.Context, bucket string) (blobstore.BlobStore, error)

// Options configures a Downloader.
type Options struct {
	// Concurrency bounds the number of parallel transfers.
	Concurrency int
	// RequestsPerSecond throttles transfers. Zero disables throttling.
	RequestsPerSecond float64
	// SkipExisting skips images already present in the destination.
	SkipExisting bool
	Logger       *cocogo.Logger
	Metrics      cocogo.MetricsCollector
}

// Downloader copies dataset images between stores.
type Downloader struct {
	source  StoreFunc
	dest    blobstore.BlobStore
	opts    Options
	limiter *rate.Limiter

	mu     sync.Mutex
	stores map[string]blobstore.BlobStore
}

// New creates a Downloader writing to dest.
func New(source StoreFunc, dest blobstore.BlobStore, optFns ...func(o *Options)) *Downloader {
	opts := Options{
		Concurrency: DefaultConcurrency,
		Logger:      cocogo.NoopLogger(),
		Metrics:     cocogo.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = cocogo.NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = cocogo.NoopMetricsCollector{}
	}

	d := &Downloader{
		source: source,
		dest:   dest,
		opts:   opts,
		stores: make(map[string]blobstore.BlobStore),
	}
	if opts.RequestsPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Concurrency)
	}
	return d
}

// Result summarizes a download run.
type Result struct {
	Downloaded int
	Skipped    int
	Bytes      int64
}

// Run downloads every image of ds. The first failure cancels the remaining
// transfers and is returned.
func (d *Downloader) Run(ctx context.Context, ds *cocogo.Dataset) (Result, error) {
	var (
		mu  sync.Mutex
		res Result
	)

	existing := make(map[string]struct{})
	if d.opts.SkipExisting {
		names, err := d.dest.List(ctx, "")
		if err != nil {
			return res, err
		}
		for _, n := range names {
			existing[n] = struct{}{}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	for _, im := range ds.Images() {
		if _, ok := existing[im.FileName]; ok {
			res.Skipped++
			continue
		}

		g.Go(func() error {
			n, err := d.fetch(ctx, im)
			if err != nil {
				return err
			}
			mu.Lock()
			res.Downloaded++
			res.Bytes += n
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	return res, err
}

func (d *Downloader) fetch(ctx context.Context, im cocogo.Image) (n int64, err error) {
	start := time.Now()
	defer func() {
		d.opts.Metrics.RecordDownload(n, time.Since(start), err)
		d.opts.Logger.LogDownload(ctx, im.FileName, n, err)
	}()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}

	bucket, key, ok := blobstore.SplitLocation(im.CocoURL)
	if !ok {
		return 0, fmt.Errorf("image %d: invalid location %q", im.ID, im.CocoURL)
	}

	src, err := d.store(ctx, bucket)
	if err != nil {
		return 0, fmt.Errorf("image %d: open bucket %q: %w", im.ID, bucket, err)
	}

	blob, err := src.Open(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("image %d: open %s: %w", im.ID, im.CocoURL, err)
	}
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return 0, fmt.Errorf("image %d: read %s: %w", im.ID, im.CocoURL, err)
	}
	defer rc.Close()

	w, err := d.dest.Create(ctx, im.FileName)
	if err != nil {
		return 0, fmt.Errorf("image %d: create %s: %w", im.ID, im.FileName, err)
	}
	n, err = io.Copy(w, rc)
	if err != nil {
		_ = blobstore.Abort(w)
		return n, fmt.Errorf("image %d: copy %s: %w", im.ID, im.CocoURL, err)
	}
	if err := w.Close(); err != nil {
		return n, err
	}
	return n, nil
}

// store returns the cached source store for bucket.
func (d *Downloader) store(ctx context.Context, bucket string) (blobstore.BlobStore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s, ok := d.stores[bucket]; ok {
		return s, nil
	}
	s, err := d.source(ctx, bucket)
	if err != nil {
		return nil, err
	}
	d.stores[bucket] = s
	return s, nil
}
