package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querychain/internal/ir"
)

// Wire keys of the canonical shape.
const (
	KeyClass        = "class"
	KeyChainMethods = "chain_methods"
)

// Encode converts a document to JSON or YAML text.
// FormatMap has no byte form; use EncodeMap.
func Encode(doc ir.Document, f Format) ([]byte, error) {
	if err := checkEncodable(doc); err != nil {
		return nil, err
	}

	switch f {
	case FormatJSON:
		data, err := ir.MarshalCanonical(ir.DocumentObject(doc))
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return data, nil
	case FormatYAML:
		return encodeYAML(doc)
	case FormatMap:
		return nil, fmt.Errorf("encode: map format has no text form, use EncodeMap")
	default:
		return nil, fmt.Errorf("encode: unknown format %v", f)
	}
}

// EncodeIndent is Encode(doc, FormatJSON) pretty-printed with two-space
// indentation. Key order is still canonical.
func EncodeIndent(doc ir.Document) ([]byte, error) {
	data, err := Encode(doc, FormatJSON)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("indent json: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// EncodeMap converts a document to the structured mapping form. Argument
// values become plain Go values (string, int64, bool, nil, []any,
// map[string]any).
func EncodeMap(doc ir.Document) map[string]any {
	steps := make([]any, len(doc.Chain))
	for i, s := range doc.Chain {
		steps[i] = map[string]any{s.Name: argsToGo(s.Args)}
	}
	return map[string]any{
		KeyClass:        string(doc.Class),
		KeyChainMethods: steps,
	}
}

// yamlDocument fixes the emitted key order: class first, then steps.
type yamlDocument struct {
	Class        string           `yaml:"class"`
	ChainMethods []map[string]any `yaml:"chain_methods"`
}

func newYAMLDocument(doc ir.Document) yamlDocument {
	out := yamlDocument{
		Class:        string(doc.Class),
		ChainMethods: make([]map[string]any, len(doc.Chain)),
	}
	for i, s := range doc.Chain {
		out.ChainMethods[i] = map[string]any{s.Name: argsToGo(s.Args)}
	}
	return out
}

func encodeYAML(doc ir.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(newYAMLDocument(doc)); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func argsToGo(args ir.IRArray) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = ir.ToGo(a)
	}
	return out
}

// checkEncodable rejects documents no decoder would accept back.
func checkEncodable(doc ir.Document) error {
	if doc.Class == "" {
		return fmt.Errorf("encode: document has no class")
	}
	for i, s := range doc.Chain {
		if s.Name == "" {
			return fmt.Errorf("encode: step %d has no method name", i)
		}
		for j, a := range s.Args {
			if a == nil {
				return fmt.Errorf("encode: step %d (%s) argument %d is nil", i, s.Name, j)
			}
		}
	}
	return nil
}
