package cocogo

import (
	"fmt"
	"sort"
)

// fieldSpec lists the keys an object in a dataset document may carry.
type fieldSpec struct {
	required []string
	optional []string
}

func (s fieldSpec) allows(key string) bool {
	for _, k := range s.required {
		if k == key {
			return true
		}
	}
	for _, k := range s.optional {
		if k == key {
			return true
		}
	}
	return false
}

var (
	documentSpec = fieldSpec{
		required: []string{"info", "images", "categories", "annotations"},
		optional: []string{"licenses"},
	}
	infoSpec = fieldSpec{
		required: []string{"description", "date_created", "version"},
		optional: []string{"url", "year", "contributor"},
	}
	imageSpec = fieldSpec{
		required: []string{"id", "file_name", "coco_url"},
		optional: []string{"width", "height", "date_captured", "license"},
	}
	categorySpec = fieldSpec{
		required: []string{"id", "name"},
		optional: []string{"supercategory"},
	}
	annotationSpec = fieldSpec{
		required: []string{"id", "image_id", "category_id"},
		optional: []string{"bbox", "area", "segmentation", "iscrowd"},
	}
	licenseSpec = fieldSpec{
		required: []string{"id", "name"},
		optional: []string{"url"},
	}
)

// checkObject verifies that v is an object whose keys match spec.
// Required keys must be present and non-null; unknown keys are rejected.
func checkObject(path string, v any, spec fieldSpec) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, newSchemaError(path, fmt.Sprintf("expected object, got %s", typeName(v)), nil)
	}

	unknown := make([]string, 0)
	for key := range obj {
		if !spec.allows(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, newSchemaError(join(path, unknown[0]), "unknown field", nil)
	}

	for _, key := range spec.required {
		if val, ok := obj[key]; !ok || val == nil {
			return nil, newSchemaError(join(path, key), "required", nil)
		}
	}
	return obj, nil
}

func checkArray(path string, v any, spec fieldSpec) error {
	items, ok := v.([]any)
	if !ok {
		return newSchemaError(path, fmt.Sprintf("expected array, got %s", typeName(v)), nil)
	}
	for i, item := range items {
		if _, err := checkObject(fmt.Sprintf("%s[%d]", path, i), item, spec); err != nil {
			return err
		}
	}
	return nil
}

// checkDocument validates the shape of a generic dataset document.
func checkDocument(v any) error {
	doc, err := checkObject("", v, documentSpec)
	if err != nil {
		return err
	}
	if _, err := checkObject("info", doc["info"], infoSpec); err != nil {
		return err
	}
	if err := checkArray("images", doc["images"], imageSpec); err != nil {
		return err
	}
	if err := checkArray("categories", doc["categories"], categorySpec); err != nil {
		return err
	}
	if err := checkArray("annotations", doc["annotations"], annotationSpec); err != nil {
		return err
	}
	if licenses, ok := doc["licenses"]; ok && licenses != nil {
		if err := checkArray("licenses", licenses, licenseSpec); err != nil {
			return err
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, float32, int, int64, uint64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
