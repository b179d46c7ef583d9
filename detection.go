package cocogo

import (
	"fmt"
	"io"
	"math"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/cocogo/codec"
)

// Detection is a model prediction in COCO results format.
type Detection struct {
	ImageID    int      `json:"image_id" yaml:"image_id"`
	CategoryID int      `json:"category_id" yaml:"category_id"`
	BBox       BBox     `json:"bbox" yaml:"bbox"`
	Score      *float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

var detectionSpec = fieldSpec{
	required: []string{"image_id", "category_id", "bbox"},
	optional: []string{"score"},
}

// Validate checks identifiers, the box and the score range.
func (d Detection) Validate() error {
	switch {
	case d.ImageID < 0:
		return newSchemaError("image_id", fmt.Sprintf("must be non-negative, got %d", d.ImageID), nil)
	case d.CategoryID < 0:
		return newSchemaError("category_id", fmt.Sprintf("must be non-negative, got %d", d.CategoryID), nil)
	}
	for _, v := range d.BBox {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newSchemaError("bbox", "must be finite", nil)
		}
	}
	if d.Score != nil && (*d.Score < 0 || *d.Score > 1) {
		return newSchemaError("score", fmt.Sprintf("must be in [0, 1], got %g", *d.Score), nil)
	}
	return nil
}

// Annotation converts the detection into an annotation with the given id.
// The area is the box area.
func (d Detection) Annotation(id int) Annotation {
	bbox := d.BBox
	area := bbox[2] * bbox[3]
	return Annotation{
		ID:         id,
		ImageID:    d.ImageID,
		CategoryID: d.CategoryID,
		BBox:       &bbox,
		Area:       &area,
	}
}

// DecodeDetections reads a results file: a top-level array of detections.
// Unknown keys and missing required keys fail with a *SchemaError.
func DecodeDetections(r io.Reader, c codec.Codec) ([]Detection, error) {
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
	if err := checkArray("detections", v, detectionSpec); err != nil {
		return nil, err
	}

	normalized, err := gojson.Marshal(v)
	if err != nil {
		return nil, newSchemaError("", "cannot normalize document", err)
	}
	var dets []Detection
	if err := codec.DecodeStrict(normalized, &dets); err != nil {
		return nil, newSchemaError("detections", err.Error(), err)
	}
	for i, det := range dets {
		if err := det.Validate(); err != nil {
			return nil, withPath(fmt.Sprintf("detections[%d]", i), err)
		}
	}
	return dets, nil
}

// CheckDetections reports the first detection whose image or category is
// not part of the dataset.
func (d *Dataset) CheckDetections(dets []Detection) error {
	for i, det := range dets {
		if _, ok := d.ims[det.ImageID]; !ok {
			return fmt.Errorf("detection %d: image %d: %w", i, det.ImageID, ErrDanglingReference)
		}
		if _, ok := d.cats[det.CategoryID]; !ok {
			return fmt.Errorf("detection %d: category %d: %w", i, det.CategoryID, ErrDanglingReference)
		}
	}
	return nil
}
