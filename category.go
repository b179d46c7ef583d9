package cocogo

import "strconv"

// Category is a COCO category (class). Name is its natural key.
//
// For example, one category might be "car" while its supercategory is "vehicle".
type Category struct {
	ID            int     `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Supercategory *string `json:"supercategory,omitempty" yaml:"supercategory,omitempty"`
}

// Validate checks the required fields of the category.
func (c Category) Validate() error {
	if c.ID < 0 {
		return newSchemaError("id", "must be non-negative, got "+strconv.Itoa(c.ID), nil)
	}
	if c.Name == "" {
		return newSchemaError("name", "required", nil)
	}
	return nil
}
