// Package codec centralizes dataset document encoding.
//
// Datasets are persisted as JSON or YAML documents. The codec is usually
// selected from the file extension; callers may also pick one by its stable name.
package codec

import (
	"bytes"
	"strings"

	gojson "github.com/goccy/go-json"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "yaml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// ByExtension returns the default codec for a file extension such as ".json" or ".yml".
func ByExtension(ext string) (Codec, bool) {
	switch strings.ToLower(ext) {
	case ".json":
		return Default, true
	case ".yaml", ".yml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// DecodeStrict decodes JSON data into v and rejects fields that v does not declare.
func DecodeStrict(data []byte, v any) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
