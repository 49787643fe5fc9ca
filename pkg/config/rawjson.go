package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RawJSON holds an arbitrary JSON value in configuration. It accepts
// native JSON when the config file is JSON and re-encodes YAML nodes to
// JSON when the config file is YAML, so the rest of the code only ever
// sees JSON bytes.
type RawJSON []byte

// UnmarshalJSON keeps the bytes verbatim.
func (r *RawJSON) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON value")
	}
	*r = append((*r)[:0], data...)
	return nil
}

// MarshalJSON emits the stored bytes verbatim.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalYAML decodes the node generically and re-encodes it as JSON.
func (r *RawJSON) UnmarshalYAML(value *yaml.Node) error {
	var v interface{}
	if err := value.Decode(&v); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml value as JSON: %w", err)
	}
	*r = data
	return nil
}

// MarshalYAML round-trips the JSON back to a generic value.
func (r RawJSON) MarshalYAML() (interface{}, error) {
	if len(r) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(r, &v); err != nil {
		return nil, err
	}
	return v, nil
}
