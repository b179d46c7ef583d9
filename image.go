package cocogo

import "strconv"

// Image is a COCO image record.
//
// CocoURL holds the location of the image in object storage in the form
// "<bucket>/<key>". FileName is the natural key of an image inside one dataset.
type Image struct {
	ID           int     `json:"id" yaml:"id"`
	FileName     string  `json:"file_name" yaml:"file_name"`
	CocoURL      string  `json:"coco_url" yaml:"coco_url"`
	Width        *int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height       *int    `json:"height,omitempty" yaml:"height,omitempty"`
	DateCaptured *string `json:"date_captured,omitempty" yaml:"date_captured,omitempty"`
	License      *int    `json:"license,omitempty" yaml:"license,omitempty"`
}

// Validate checks the required fields of the image.
func (im Image) Validate() error {
	if im.ID < 0 {
		return newSchemaError("id", "must be non-negative, got "+strconv.Itoa(im.ID), nil)
	}
	if im.FileName == "" {
		return newSchemaError("file_name", "required", nil)
	}
	if im.CocoURL == "" {
		return newSchemaError("coco_url", "required", nil)
	}
	if im.Width != nil && *im.Width < 0 {
		return newSchemaError("width", "must be non-negative, got "+strconv.Itoa(*im.Width), nil)
	}
	if im.Height != nil && *im.Height < 0 {
		return newSchemaError("height", "must be non-negative, got "+strconv.Itoa(*im.Height), nil)
	}
	if im.License != nil && *im.License < 0 {
		return newSchemaError("license", "must be non-negative", nil)
	}
	return nil
}
