package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies an external chain representation.
type Format int

const (
	// FormatMap is the structured Go mapping (map[string]any).
	FormatMap Format = iota
	// FormatJSON is RFC 8785 canonical JSON text.
	FormatJSON
	// FormatYAML is YAML text.
	FormatYAML
)

// String returns the format name used by flags and config.
func (f Format) String() string {
	switch f {
	case FormatMap:
		return "map"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses a format name. "hash" is accepted as an alias of map.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "map", "hash":
		return FormatMap, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("unknown format %q: must be one of json, yaml, map", s)
	}
}

// FormatFromPath guesses the text format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return 0, false
	}
}
