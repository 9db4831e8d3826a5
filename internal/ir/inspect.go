package ir

import "strings"

// Inspect renders a value in its canonical debug form: the canonical JSON
// text of the value ("paid", 10, true, null, ["a","b"], {"k":1}).
func Inspect(v IRValue) string {
	if v == nil {
		return "null"
	}
	data, err := MarshalCanonical(v)
	if err != nil {
		return "<invalid>"
	}
	return string(data)
}

// InspectStep renders a step as name(arg1, arg2, ...).
func InspectStep(s Step) string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = Inspect(a)
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ")"
}
