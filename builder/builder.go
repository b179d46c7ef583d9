// Package builder assembles COCO datasets from tabular capture records.
//
// Every row of the source names a capture folder and the class of the object
// it shows. A Resolver expands the folder into one storage location per
// configured camera; each location becomes an image annotated with the row's
// class. Images and categories are deduplicated by natural key, so two rows
// that resolve to the same location share one image.
//
// Builds are sequential: identical input always yields identical ids.
package builder

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/hupe1980/cocogo"
	"github.com/hupe1980/cocogo/alloc"
	"github.com/hupe1980/cocogo/table"
)

// Columns read from the tabular source.
const (
	ColumnBucketRegion       = "BucketRegion"
	ColumnS3Bucket           = "S3Bucket"
	ColumnCaptureFolderID    = "CaptureFolderId"
	ColumnSpecificationClass = "SpecificationClass"
	ColumnCaptureDate        = "CaptureDate"
)

// RequiredColumns must be declared by every source table.
var RequiredColumns = []string{
	ColumnBucketRegion,
	ColumnS3Bucket,
	ColumnCaptureFolderID,
	ColumnSpecificationClass,
}

// DefaultVersion is the version recorded in the info of built datasets.
const DefaultVersion = "1.0.0"

// Resolver maps a capture folder to an ordered list of storage locations of
// the form "<bucket>/<key>".
type Resolver interface {
	Locations(ctx context.Context, folder string) ([]string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, folder string) ([]string, error)

// Locations implements Resolver.
func (f ResolverFunc) Locations(ctx context.Context, folder string) ([]string, error) {
	return f(ctx, folder)
}

// Builder builds a dataset from a table of capture rows.
type Builder struct {
	name     string
	src      *table.Table
	resolver Resolver
	opts     options
}

// New creates a Builder. It fails with a *cocogo.ValidationError when src
// lacks any of the RequiredColumns.
func New(name string, src *table.Table, r Resolver, optFns ...Option) (*Builder, error) {
	if name == "" {
		return nil, &cocogo.ValidationError{Field: "name", Reason: "required"}
	}
	if src == nil || r == nil {
		return nil, &cocogo.ValidationError{Field: "source", Reason: "table and resolver are required"}
	}
	if missing := src.HasColumns(RequiredColumns...); len(missing) > 0 {
		return nil, &cocogo.ValidationError{
			Field:   "columns",
			Reason:  "missing fields",
			Missing: missing,
		}
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Builder{
		name:     name,
		src:      src,
		resolver: r,
		opts:     opts,
	}, nil
}

// Build scans the source rows in order and returns the assembled dataset.
//
// Any resolver error aborts the build; no partial dataset is returned.
func (b *Builder) Build(ctx context.Context) (ds *cocogo.Dataset, err error) {
	logger := b.opts.logger.WithDataset(b.name)
	start := time.Now()

	images := alloc.NewImages()
	categories := alloc.NewCategories()
	annotations := alloc.NewAnnotations()

	defer func() {
		elapsed := time.Since(start)
		logger.LogBuild(ctx, b.src.Len(), images.Len(), annotations.Len(), elapsed, err)
		b.opts.metrics.RecordBuild(elapsed, images.Len(), annotations.Len(), err)
	}()

	for i, row := range b.src.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		class, _ := row.Get(ColumnSpecificationClass)
		if class == "" {
			return nil, &cocogo.ValidationError{
				Field:  ColumnSpecificationClass,
				Reason: fmt.Sprintf("row %d: empty value", i),
			}
		}
		folder, _ := row.Get(ColumnCaptureFolderID)

		locations, err := b.resolver.Locations(ctx, folder)
		b.opts.metrics.RecordRow(len(locations), err)
		if err != nil {
			return nil, fmt.Errorf("row %d: resolve folder %q: %w", i, folder, err)
		}

		var attrs alloc.ImageAttrs
		if date, ok := row.Get(ColumnCaptureDate); ok {
			attrs.DateCaptured = &date
		}

		for _, location := range locations {
			imageID, err := images.GetOrAddID(FileName(location), location, attrs)
			if err != nil {
				return nil, err
			}
			categoryID, err := categories.GetOrAddID(class, nil)
			if err != nil {
				return nil, err
			}
			annotations.AddID(imageID, categoryID, alloc.AnnotationAttrs{})
		}
	}

	info := cocogo.Info{
		Description: b.name,
		DateCreated: b.opts.now().Format(time.DateOnly),
		Version:     b.opts.version,
	}

	return cocogo.New(info, images.Images(), categories.Categories(), annotations.Annotations(), nil,
		cocogo.WithLogger(b.opts.logger))
}

// FileName derives the image file name from a storage location.
//
// A leading "s3://" is removed, spaces become underscores, the bucket segment
// is dropped and the remaining segments are joined with "__". The extension
// is lower-cased, so "bucket/f1/cam/0.JPG" becomes "f1__cam__0.jpg". A location
// without a bucket segment keeps its single segment.
func FileName(location string) string {
	s := strings.TrimPrefix(location, "s3://")
	s = strings.ReplaceAll(s, " ", "_")

	parts := strings.Split(s, "/")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	// Only the image's own extension is normalized, never a dot in a folder.
	last := len(parts) - 1
	ext := path.Ext(parts[last])
	parts[last] = strings.TrimSuffix(parts[last], ext) + strings.ToLower(ext)
	return strings.Join(parts, "__")
}
