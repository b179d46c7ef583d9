package codec

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAML is a YAML codec backed by gopkg.in/yaml.v3.
//
// Structs are encoded using their `yaml` tags, which mirror the `json` tags
// of all dataset entities.
type YAML struct{}

// Marshal encodes the value to YAML.
func (YAML) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a single YAML document into v. Unknown struct fields are rejected.
func (YAML) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("yaml: empty document")
		}
		return err
	}
	return nil
}

// Name returns the unique name of the codec ("yaml").
func (YAML) Name() string { return "yaml" }
