package cocogo

import "strconv"

// Info holds dataset-level metadata. There is exactly one per dataset.
type Info struct {
	Description string  `json:"description" yaml:"description"`
	DateCreated string  `json:"date_created" yaml:"date_created"`
	Version     string  `json:"version" yaml:"version"`
	URL         *string `json:"url,omitempty" yaml:"url,omitempty"`
	Year        *int    `json:"year,omitempty" yaml:"year,omitempty"`
	Contributor *string `json:"contributor,omitempty" yaml:"contributor,omitempty"`
}

// Validate checks the required fields of the info record.
func (in Info) Validate() error {
	switch {
	case in.Description == "":
		return newSchemaError("description", "required", nil)
	case in.DateCreated == "":
		return newSchemaError("date_created", "required", nil)
	case in.Version == "":
		return newSchemaError("version", "required", nil)
	}
	return nil
}

// License describes the license of a set of images.
type License struct {
	ID   int     `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
	URL  *string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Validate checks the required fields of the license.
func (l License) Validate() error {
	if l.ID < 0 {
		return newSchemaError("id", "must be non-negative, got "+strconv.Itoa(l.ID), nil)
	}
	if l.Name == "" {
		return newSchemaError("name", "required", nil)
	}
	return nil
}
