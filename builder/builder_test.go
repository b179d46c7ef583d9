package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cocogo"
	"github.com/hupe1980/cocogo/codec"
	"github.com/hupe1980/cocogo/table"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

func newTable(t *testing.T, rows ...table.Row) *table.Table {
	t.Helper()
	columns := append([]string{}, RequiredColumns...)
	columns = append(columns, ColumnCaptureDate)
	tbl, err := table.New(columns, rows)
	require.NoError(t, err)
	return tbl
}

// oneLocation resolves folder "f" to "bucket/f/cam/0.jpg".
var oneLocation = ResolverFunc(func(_ context.Context, folder string) ([]string, error) {
	return []string{"bucket/" + folder + "/cam/0.jpg"}, nil
})

func TestBuild_Example(t *testing.T) {
	src := newTable(t,
		table.Row{ColumnCaptureFolderID: "f1", ColumnSpecificationClass: "cat"},
		table.Row{ColumnCaptureFolderID: "f2", ColumnSpecificationClass: "cat"},
	)

	b, err := New("example", src, oneLocation, WithNow(fixedNow))
	require.NoError(t, err)

	ds, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []cocogo.Category{{ID: 0, Name: "cat"}}, ds.Categories())

	images := ds.Images()
	require.Len(t, images, 2)
	assert.Equal(t, 0, images[0].ID)
	assert.Equal(t, 1, images[1].ID)
	assert.Equal(t, "f1__cam__0.jpg", images[0].FileName)
	assert.Equal(t, "bucket/f2/cam/0.jpg", images[1].CocoURL)

	annotations := ds.Annotations()
	require.Len(t, annotations, 2)
	for i, ann := range annotations {
		assert.Equal(t, i, ann.ID)
		assert.Equal(t, i, ann.ImageID)
		assert.Equal(t, 0, ann.CategoryID)
	}

	assert.Equal(t, cocogo.Info{Description: "example", DateCreated: "2024-03-15", Version: "1.0.0"}, ds.Info())
	assert.Nil(t, ds.Licenses())
}

func TestBuild_Deduplication(t *testing.T) {
	src := newTable(t,
		table.Row{ColumnCaptureFolderID: "f1", ColumnSpecificationClass: "cat", ColumnCaptureDate: "2024-01-01"},
		table.Row{ColumnCaptureFolderID: "f1", ColumnSpecificationClass: "dog", ColumnCaptureDate: "2024-02-02"},
		table.Row{ColumnCaptureFolderID: "f2", ColumnSpecificationClass: "cat"},
	)
	twoCameras := ResolverFunc(func(_ context.Context, folder string) ([]string, error) {
		return []string{"bucket/" + folder + "/left/0.jpg", "bucket/" + folder + "/right/0.jpg"}, nil
	})

	b, err := New("dedup", src, twoCameras, WithNow(fixedNow))
	require.NoError(t, err)

	ds, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, ds.Images(), 4)
	assert.Len(t, ds.Categories(), 2)
	assert.Len(t, ds.Annotations(), 6)

	// The second row hits existing images; the first write wins.
	im, ok := ds.Image(0)
	require.True(t, ok)
	require.NotNil(t, im.DateCaptured)
	assert.Equal(t, "2024-01-01", *im.DateCaptured)

	im, ok = ds.Image(2)
	require.True(t, ok)
	assert.Nil(t, im.DateCaptured)

	ann, ok := ds.Annotation(3)
	require.True(t, ok)
	assert.Equal(t, 1, ann.ImageID)
	assert.Equal(t, 1, ann.CategoryID)
}

func TestBuild_Deterministic(t *testing.T) {
	var rows []table.Row
	for i := range 30 {
		rows = append(rows, table.Row{
			ColumnCaptureFolderID:    fmt.Sprintf("f%d", i%7),
			ColumnSpecificationClass: fmt.Sprintf("class-%d", i%4),
		})
	}
	src := newTable(t, rows...)

	b, err := New("det", src, oneLocation, WithNow(fixedNow))
	require.NoError(t, err)

	encode := func() []byte {
		ds, err := b.Build(context.Background())
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, ds.Encode(&buf, codec.Default))
		return buf.Bytes()
	}

	assert.Equal(t, encode(), encode())
}

func TestNew_MissingColumns(t *testing.T) {
	src, err := table.New([]string{ColumnCaptureFolderID, ColumnS3Bucket}, nil)
	require.NoError(t, err)

	_, err = New("ds", src, oneLocation)
	require.ErrorIs(t, err, cocogo.ErrValidation)

	var ve *cocogo.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"BucketRegion", "SpecificationClass"}, ve.Missing)
}

func TestNew_Arguments(t *testing.T) {
	src := newTable(t)

	_, err := New("", src, oneLocation)
	assert.ErrorIs(t, err, cocogo.ErrValidation)

	_, err = New("ds", nil, oneLocation)
	assert.ErrorIs(t, err, cocogo.ErrValidation)
}

func TestBuild_ResolverError(t *testing.T) {
	src := newTable(t,
		table.Row{ColumnCaptureFolderID: "f1", ColumnSpecificationClass: "cat"},
		table.Row{ColumnCaptureFolderID: "f2", ColumnSpecificationClass: "cat"},
	)
	failing := ResolverFunc(func(_ context.Context, folder string) ([]string, error) {
		if folder == "f2" {
			return nil, cocogo.NewFrameOutOfRangeError(folder+"/cam/", 2, 1)
		}
		return []string{"bucket/" + folder + "/cam/0.jpg"}, nil
	})

	metrics := &cocogo.BasicMetricsCollector{}
	b, err := New("fail", src, failing, WithMetrics(metrics))
	require.NoError(t, err)

	ds, err := b.Build(context.Background())
	assert.Nil(t, ds)
	require.ErrorIs(t, err, cocogo.ErrResolution)
	assert.ErrorIs(t, err, cocogo.ErrFrameOutOfRange)
	assert.Contains(t, err.Error(), "row 1")

	var re *cocogo.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 2, re.Frame)

	stats := metrics.Stats()
	assert.Equal(t, int64(2), stats.Rows)
	assert.Equal(t, int64(1), stats.RowErrors)
	assert.Equal(t, int64(1), stats.BuildErrors)
}

func TestBuild_EmptyClass(t *testing.T) {
	src := newTable(t, table.Row{ColumnCaptureFolderID: "f1"})

	b, err := New("ds", src, oneLocation)
	require.NoError(t, err)

	_, err = b.Build(context.Background())
	assert.ErrorIs(t, err, cocogo.ErrValidation)
}

func TestBuild_Canceled(t *testing.T) {
	src := newTable(t, table.Row{ColumnCaptureFolderID: "f1", ColumnSpecificationClass: "cat"})

	b, err := New("ds", src, oneLocation)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"bucket/f1/cam/0.jpg", "f1__cam__0.jpg"},
		{"s3://bucket/f1/cam/0.JPG", "f1__cam__0.jpg"},
		{"bucket/folder one/cam 2/img.PNG", "folder_one__cam_2__img.png"},
		{"bucket/f1/cam/no-extension", "f1__cam__no-extension"},
		{"bucket/f1.v2/cam/0.Jpeg", "f1.v2__cam__0.jpeg"},
		{"single.JPG", "single.jpg"},
		{"bucket/Run.V2/cam/IMG", "Run.V2__cam__IMG"},
		{"bucket/x.A/cam/IMG", "x.A__cam__IMG"},
		{"bucket/x.a/cam/IMG", "x.a__cam__IMG"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.location))
		})
	}
}

func TestFileName_DistinctFolders(t *testing.T) {
	assert.NotEqual(t, FileName("bucket/x.A/cam/IMG"), FileName("bucket/x.a/cam/IMG"))
}
