package codec

import (
	"fmt"
	"strings"

	"github.com/roach88/querychain/internal/ir"
)

// Decode parses JSON or YAML text into a document.
// FormatMap input must go through DecodeMap.
func Decode(data []byte, f Format) (ir.Document, error) {
	var (
		root any
		err  error
	)
	switch f {
	case FormatJSON:
		root, err = parseJSON(data)
	case FormatYAML:
		root, err = parseYAML(data)
	case FormatMap:
		return ir.Document{}, fmt.Errorf("decode: map format has no text form, use DecodeMap")
	default:
		return ir.Document{}, fmt.Errorf("decode: unknown format %v", f)
	}
	if err != nil {
		malformed := ir.NewMalformedError("", "cannot parse %s", f)
		malformed.Err = err
		return ir.Document{}, malformed
	}
	return parseDocument(root)
}

// DecodeMap parses the structured mapping form into a document.
// Accepted mapping types are map[string]any and map[any]any; steps may be
// []any or []map[string]any.
func DecodeMap(m map[string]any) (ir.Document, error) {
	if m == nil {
		return ir.Document{}, ir.NewMalformedError("", "top-level value must be a mapping, got null")
	}
	root, err := fromNative(m)
	if err != nil {
		malformed := ir.NewMalformedError("", "cannot read mapping")
		malformed.Err = err
		return ir.Document{}, malformed
	}
	return parseDocument(root)
}

// normalizeKey maps wire keys to their canonical symbolic form: surrounding
// whitespace trimmed and one leading ':' removed (":class" -> "class").
func normalizeKey(k string) string {
	k = strings.TrimSpace(k)
	k = strings.TrimPrefix(k, ":")
	return strings.TrimSpace(k)
}

func parseDocument(root any) (ir.Document, error) {
	obj, ok := root.(object)
	if !ok {
		return ir.Document{}, ir.NewMalformedError("", "top-level value must be a mapping, got %s", kindOf(root))
	}

	var (
		classVal, chainVal   any
		haveClass, haveChain bool
		unknown              []string
	)
	for _, f := range obj {
		switch normalizeKey(f.key) {
		case KeyClass:
			classVal, haveClass = f.value, true
		case KeyChainMethods:
			chainVal, haveChain = f.value, true
		default:
			unknown = append(unknown, f.key)
		}
	}

	if !haveClass {
		return ir.Document{}, ir.NewMissingFieldError(KeyClass)
	}
	if !haveChain {
		return ir.Document{}, ir.NewMissingFieldError(KeyChainMethods)
	}
	if len(unknown) > 0 {
		return ir.Document{}, ir.NewMalformedError(unknown[0], "unexpected top-level key %q: only %q and %q are allowed", unknown[0], KeyClass, KeyChainMethods)
	}

	class, ok := classVal.(string)
	if !ok {
		return ir.Document{}, ir.NewMalformedError(KeyClass, "must be a string, got %s", kindOf(classVal))
	}
	class = strings.TrimSpace(class)
	if class == "" {
		return ir.Document{}, ir.NewMalformedError(KeyClass, "must not be empty")
	}

	chain, err := parseChain(chainVal)
	if err != nil {
		return ir.Document{}, err
	}

	return ir.Document{Class: ir.ResourceRef(class), Chain: chain}, nil
}

func parseChain(v any) (ir.Chain, error) {
	switch val := v.(type) {
	case []any:
		return parseStepList(val)
	case object:
		return parseLegacySteps(val)
	default:
		return nil, ir.NewMalformedError(KeyChainMethods, "must be a list of one-entry mappings, got %s", kindOf(v))
	}
}

// parseStepList reads the canonical form: [{name: [args...]}, ...].
func parseStepList(items []any) (ir.Chain, error) {
	chain := make(ir.Chain, 0, len(items))
	for i, item := range items {
		rec, ok := item.(object)
		if !ok {
			return nil, ir.NewMalformedError(stepField(i), "step record must be a mapping, got %s", kindOf(item))
		}
		if len(rec) != 1 {
			return nil, ir.NewMalformedError(stepField(i), "step record must have exactly one entry, got %d", len(rec))
		}
		name := normalizeKey(rec[0].key)
		if name == "" {
			return nil, ir.NewMalformedError(stepField(i), "method name must not be empty")
		}
		list, ok := rec[0].value.([]any)
		if !ok {
			return nil, ir.NewMalformedError(stepField(i), "arguments of %q must be a list, got %s", name, kindOf(rec[0].value))
		}
		args, err := parseArgs(stepField(i), list)
		if err != nil {
			return nil, err
		}
		chain = append(chain, ir.Step{Name: name, Args: args})
	}
	return chain, nil
}

// parseLegacySteps reads the mapping form {name: args, ...}. A repeated
// name replaces the earlier arguments but keeps the earlier position.
func parseLegacySteps(obj object) (ir.Chain, error) {
	chain := make(ir.Chain, 0, len(obj))
	index := make(map[string]int, len(obj))
	for i, f := range obj {
		name := normalizeKey(f.key)
		if name == "" {
			return nil, ir.NewMalformedError(stepField(i), "method name must not be empty")
		}
		list, ok := f.value.([]any)
		if !ok {
			list = []any{f.value}
		}
		args, err := parseArgs(KeyChainMethods+"."+name, list)
		if err != nil {
			return nil, err
		}
		step := ir.Step{Name: name, Args: args}
		if at, seen := index[name]; seen {
			chain[at] = step
			continue
		}
		index[name] = len(chain)
		chain = append(chain, step)
	}
	return chain, nil
}

func parseArgs(fieldPath string, list []any) (ir.IRArray, error) {
	args := make(ir.IRArray, len(list))
	for i, raw := range list {
		v, err := toIR(raw)
		if err == nil {
			v, err = ir.Normalize(v)
		}
		if err != nil {
			malformed := ir.NewMalformedError(fieldPath, "argument %d is not representable", i)
			malformed.Err = err
			return nil, malformed
		}
		args[i] = v
	}
	return args, nil
}

// toIR converts a decoded tree value to an IRValue. Object keys inside
// arguments are data and are not normalized.
func toIR(v any) (ir.IRValue, error) {
	switch val := v.(type) {
	case object:
		obj := make(ir.IRObject, len(val))
		for _, f := range val {
			child, err := toIR(f.value)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", f.key, err)
			}
			obj[f.key] = child
		}
		return obj, nil
	case []any:
		arr := make(ir.IRArray, len(val))
		for i, elem := range val {
			child, err := toIR(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = child
		}
		return arr, nil
	default:
		return ir.FromGo(v)
	}
}

func stepField(i int) string {
	return fmt.Sprintf("%s[%d]", KeyChainMethods, i)
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case object:
		return "mapping"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}
