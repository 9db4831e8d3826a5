package codec

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var wireSchema string

// Schema returns the JSON Schema of the wire format.
func Schema() string {
	return wireSchema
}

// ValidateJSONSchema checks a JSON document against the wire-format schema
// and returns every violation found (empty when the document conforms).
// The error is non-nil only when the input is not JSON at all.
//
// Decode does not call this; it reports the first problem with a typed
// error. Use this where a full report is wanted (the validate command).
func ValidateJSONSchema(data []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(wireSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}
