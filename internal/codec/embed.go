package codec

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querychain/internal/ir"
)

// Embedded is a document nested inside a larger JSON or YAML value, e.g.
// a report definition that carries its chain:
//
//	type Report struct {
//		Title string         `json:"title" yaml:"title"`
//		Query codec.Embedded `json:"query" yaml:"query"`
//	}
//
// It marshals to the canonical shape and unmarshals with the same rules
// and errors as Decode. Replay the result with query.FromDocument.
type Embedded struct {
	ir.Document
}

// MarshalJSON implements json.Marshaler.
func (e Embedded) MarshalJSON() ([]byte, error) {
	return Encode(e.Document, FormatJSON)
}

// UnmarshalJSON implements json.Unmarshaler. null leaves e unchanged.
func (e *Embedded) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	doc, err := Decode(data, FormatJSON)
	if err != nil {
		return err
	}
	e.Document = doc
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e Embedded) MarshalYAML() (any, error) {
	if err := checkEncodable(e.Document); err != nil {
		return nil, err
	}
	return newYAMLDocument(e.Document), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Embedded) UnmarshalYAML(n *yaml.Node) error {
	root, err := walkYAML(n)
	if err != nil {
		malformed := ir.NewMalformedError("", "cannot parse %s", FormatYAML)
		malformed.Err = err
		return malformed
	}
	doc, err := parseDocument(root)
	if err != nil {
		return err
	}
	e.Document = doc
	return nil
}
