package cocogo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/cocogo/blobstore"
	"github.com/hupe1980/cocogo/codec"
	"github.com/hupe1980/cocogo/internal/compress"
)

// document is the persisted layout of a dataset.
type document struct {
	Info        Info         `json:"info" yaml:"info"`
	Images      []Image      `json:"images" yaml:"images"`
	Categories  []Category   `json:"categories" yaml:"categories"`
	Annotations []Annotation `json:"annotations" yaml:"annotations"`
	Licenses    []License    `json:"licenses,omitempty" yaml:"licenses,omitempty"`
}

func (d *Dataset) document() document {
	return document{
		Info:        d.info,
		Images:      d.images,
		Categories:  d.categories,
		Annotations: d.annotations,
		Licenses:    d.licenses,
	}
}

// Map returns the dataset as a generic document.
//
// Absent optional fields are omitted unless keepEmpty is set, in which case
// they are present with a nil value. The licenses key is omitted when the
// dataset has no licenses.
func (d *Dataset) Map(keepEmpty bool) map[string]any {
	images := make([]any, 0, len(d.images))
	for _, im := range d.images {
		m := map[string]any{
			"id":        im.ID,
			"file_name": im.FileName,
			"coco_url":  im.CocoURL,
		}
		setOptional(m, "width", im.Width, keepEmpty)
		setOptional(m, "height", im.Height, keepEmpty)
		setOptional(m, "date_captured", im.DateCaptured, keepEmpty)
		setOptional(m, "license", im.License, keepEmpty)
		images = append(images, m)
	}

	categories := make([]any, 0, len(d.categories))
	for _, c := range d.categories {
		m := map[string]any{"id": c.ID, "name": c.Name}
		setOptional(m, "supercategory", c.Supercategory, keepEmpty)
		categories = append(categories, m)
	}

	annotations := make([]any, 0, len(d.annotations))
	for _, a := range d.annotations {
		m := map[string]any{
			"id":          a.ID,
			"image_id":    a.ImageID,
			"category_id": a.CategoryID,
		}
		var bbox *[]float64
		if a.BBox != nil {
			b := a.BBox[:]
			bbox = &b
		}
		setOptional(m, "bbox", bbox, keepEmpty)
		setOptional(m, "area", a.Area, keepEmpty)
		var seg *[]any
		if len(a.Segmentation) > 0 {
			seg = &a.Segmentation
		}
		setOptional(m, "segmentation", seg, keepEmpty)
		setOptional(m, "iscrowd", a.IsCrowd, keepEmpty)
		annotations = append(annotations, m)
	}

	info := map[string]any{
		"description":  d.info.Description,
		"date_created": d.info.DateCreated,
		"version":      d.info.Version,
	}
	setOptional(info, "url", d.info.URL, keepEmpty)
	setOptional(info, "year", d.info.Year, keepEmpty)
	setOptional(info, "contributor", d.info.Contributor, keepEmpty)

	doc := map[string]any{
		"info":        info,
		"images":      images,
		"categories":  categories,
		"annotations": annotations,
	}
	if len(d.licenses) > 0 {
		licenses := make([]any, 0, len(d.licenses))
		for _, l := range d.licenses {
			m := map[string]any{"id": l.ID, "name": l.Name}
			setOptional(m, "url", l.URL, keepEmpty)
			licenses = append(licenses, m)
		}
		doc["licenses"] = licenses
	}
	return doc
}

func setOptional[T any](m map[string]any, key string, v *T, keepEmpty bool) {
	switch {
	case v != nil:
		m[key] = *v
	case keepEmpty:
		m[key] = nil
	}
}

// FromMap builds a dataset from a generic document.
//
// The document must carry exactly the known keys; unknown and missing
// required keys fail with a *SchemaError naming the offending path.
func FromMap(m map[string]any, optFns ...Option) (*Dataset, error) {
	return fromGeneric(m, optFns)
}

func fromGeneric(v any, optFns []Option) (*Dataset, error) {
	if err := checkDocument(v); err != nil {
		return nil, err
	}

	// Normalize through JSON so YAML and JSON input share one typed decoder.
	data, err := gojson.Marshal(v)
	if err != nil {
		return nil, newSchemaError("", "cannot normalize document", err)
	}
	var doc document
	if err := codec.DecodeStrict(data, &doc); err != nil {
		return nil, newSchemaError("", err.Error(), err)
	}

	return New(doc.Info, doc.Images, doc.Categories, doc.Annotations, doc.Licenses, optFns...)
}

// Encode writes the dataset to w using c. A nil codec selects codec.Default.
// WithKeepEmpty controls whether absent optional fields are written as nulls.
func (d *Dataset) Encode(w io.Writer, c codec.Codec, optFns ...Option) error {
	if c == nil {
		c = codec.Default
	}
	o := applyOptions(optFns)

	var (
		data []byte
		err  error
	)
	if o.keepEmpty {
		data, err = c.Marshal(d.Map(true))
	} else {
		data, err = c.Marshal(d.document())
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a dataset from r using c. A nil codec selects codec.Default.
func Decode(r io.Reader, c codec.Codec, optFns ...Option) (*Dataset, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		return nil, newSchemaError("", fmt.Sprintf("invalid %s document", c.Name()), err)
	}
	return fromGeneric(v, optFns)
}

// format resolves the compression and codec for a blob or file name.
func format(name string, o options) (compress.Type, codec.Codec, error) {
	ct, base := compress.FromName(name)
	if o.codec != nil {
		return ct, o.codec, nil
	}
	c, ok := codec.ByExtension(path.Ext(base))
	if !ok {
		return ct, nil, fmt.Errorf("cocogo: cannot infer format of %q", name)
	}
	return ct, c, nil
}

// SaveBlob writes the dataset to store under name.
//
// The format follows the name: ".json" or ".yaml"/".yml", optionally followed
// by ".zst" or ".lz4" for compression. WithCodec overrides the document format.
func (d *Dataset) SaveBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) error {
	o := applyOptions(optFns)
	ct, c, err := format(name, o)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w, err := compress.NewWriter(&buf, ct)
	if err != nil {
		return err
	}
	if err := d.Encode(w, c, optFns...); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// LoadBlob reads a dataset stored under name.
func LoadBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Dataset, error) {
	o := applyOptions(optFns)
	ct, c, err := format(name, o)
	if err != nil {
		return nil, err
	}

	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	r, err := compress.NewReader(bytes.NewReader(data), ct)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Decode(r, c, optFns...)
}

// Save writes the dataset to a local file. The write is atomic.
func (d *Dataset) Save(filename string, optFns ...Option) error {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	return d.SaveBlob(context.Background(), blobstore.NewLocalStore(dir), base, optFns...)
}

// Load reads a dataset from a local file.
func Load(filename string, optFns ...Option) (*Dataset, error) {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	return LoadBlob(context.Background(), blobstore.NewLocalStore(dir), base, optFns...)
}
