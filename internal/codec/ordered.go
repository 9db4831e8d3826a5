package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// field is one key/value entry of a decoded mapping.
type field struct {
	key   string
	value any
}

// object is a decoded mapping that remembers source order.
type object []field

// The decoders below produce a common tree: object, []any, and scalars
// (nil, string, bool, json.Number, int, int64, uint64, float64).

// parseJSON decodes one JSON value, keeping object keys in document order.
func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := readJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := object{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, field{key: key, value: val})
			}
			if _, err := dec.Token(); err != nil { // closing }
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // closing ]
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		// string, bool, json.Number, nil
		return tok, nil
	}
}

// parseYAML decodes a single YAML document, keeping mapping order.
func parseYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}
	return walkYAML(&root)
}

func walkYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, fmt.Errorf("empty YAML document")
		}
		return walkYAML(n.Content[0])
	case yaml.AliasNode:
		return walkYAML(n.Alias)
	case yaml.MappingNode:
		obj := make(object, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", keyNode.Line)
			}
			val, err := walkYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj = append(obj, field{key: keyNode.Value, value: val})
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := walkYAML(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		// An unquoted date is an argument string, not a time.Time.
		if n.ShortTag() == "!!timestamp" {
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %v", n.Line, n.Kind)
	}
}

// fromNative converts a structured Go mapping into the common tree.
// Go maps carry no order, so keys are visited in sorted order.
func fromNative(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(object, 0, len(val))
		for _, k := range keys {
			child, err := fromNative(val[k])
			if err != nil {
				return nil, err
			}
			obj = append(obj, field{key: k, value: child})
		}
		return obj, nil
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, child := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("mapping key %v (%T) is not a string", k, k)
			}
			converted[key] = child
		}
		return fromNative(converted)
	case map[string][]any:
		converted := make(map[string]any, len(val))
		for k, child := range val {
			converted[k] = child
		}
		return fromNative(converted)
	case []map[string]any:
		arr := make([]any, len(val))
		for i, m := range val {
			child, err := fromNative(m)
			if err != nil {
				return nil, err
			}
			arr[i] = child
		}
		return arr, nil
	case []any:
		arr := make([]any, len(val))
		for i, elem := range val {
			child, err := fromNative(elem)
			if err != nil {
				return nil, err
			}
			arr[i] = child
		}
		return arr, nil
	default:
		// Scalars and ir values are handled by the argument converter.
		return v, nil
	}
}
