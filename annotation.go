package cocogo

import (
	"fmt"
	"math"
)

// BBox is a bounding box in COCO order: x, y, width, height.
type BBox [4]float64

// Annotation links one image to one category.
//
// Several annotations may reference the same image/category pair; multiple
// detections of the same class in the same image are expected.
type Annotation struct {
	ID           int      `json:"id" yaml:"id"`
	ImageID      int      `json:"image_id" yaml:"image_id"`
	CategoryID   int      `json:"category_id" yaml:"category_id"`
	BBox         *BBox    `json:"bbox,omitempty" yaml:"bbox,omitempty"`
	Area         *float64 `json:"area,omitempty" yaml:"area,omitempty"`
	Segmentation []any    `json:"segmentation,omitempty" yaml:"segmentation,omitempty"`
	IsCrowd      *int     `json:"iscrowd,omitempty" yaml:"iscrowd,omitempty"`
}

// Validate checks identifiers and optional field ranges.
func (a Annotation) Validate() error {
	switch {
	case a.ID < 0:
		return newSchemaError("id", fmt.Sprintf("must be non-negative, got %d", a.ID), nil)
	case a.ImageID < 0:
		return newSchemaError("image_id", fmt.Sprintf("must be non-negative, got %d", a.ImageID), nil)
	case a.CategoryID < 0:
		return newSchemaError("category_id", fmt.Sprintf("must be non-negative, got %d", a.CategoryID), nil)
	}
	if a.IsCrowd != nil && *a.IsCrowd != 0 && *a.IsCrowd != 1 {
		return newSchemaError("iscrowd", fmt.Sprintf("must be 0 or 1, got %d", *a.IsCrowd), nil)
	}
	if a.BBox != nil {
		for _, v := range a.BBox {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return newSchemaError("bbox", "must be finite", nil)
			}
		}
	}
	return nil
}
