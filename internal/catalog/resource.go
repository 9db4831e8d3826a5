package catalog

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/querychain/internal/ir"
)

// CompileResource builds a ResourceSpec from the CUE struct of one
// resource, e.g. the value at path resource.Order in
//
//	resource: Order: {
//		table: "orders"
//		fields: {id: int, status: string}
//		terminal: ["count"]
//	}
//
// table and at least one field are required. chainable and terminal are
// optional lists of extra method names.
func CompileResource(v cue.Value) (*ir.ResourceSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ResourceSpec{Fields: map[string]string{}}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		spec.Name = sels[len(sels)-1].String()
	}

	tableVal := v.LookupPath(cue.ParsePath("table"))
	if !tableVal.Exists() {
		return nil, compileErr("table", v.Pos(), "table is required")
	}
	table, err := tableVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if strings.TrimSpace(table) == "" {
		return nil, compileErr("table", tableVal.Pos(), "table must not be empty")
	}
	spec.Table = table

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, compileErr("fields", v.Pos(), "fields are required")
	}
	it, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for it.Next() {
		kind, err := columnKind(it.Value())
		if err != nil {
			return nil, err
		}
		spec.Fields[it.Label()] = kind
	}
	if len(spec.Fields) == 0 {
		return nil, compileErr("fields", fieldsVal.Pos(), "at least one field is required")
	}

	if spec.Chainable, err = methodNames(v, "chainable"); err != nil {
		return nil, err
	}
	if spec.Terminal, err = methodNames(v, "terminal"); err != nil {
		return nil, err
	}
	return spec, nil
}

func methodNames(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}
	it, err := listVal.List()
	if err != nil {
		return nil, compileErr(field, listVal.Pos(), "must be a list of method names")
	}

	var names []string
	for it.Next() {
		name, err := it.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if name == "" {
			return nil, compileErr(field, it.Value().Pos(), "method names must not be empty")
		}
		names = append(names, name)
	}
	return names, nil
}

// columnKind maps a field's CUE kind to "string", "int" or "bool".
// Floats are rejected; money and the like belong in int columns.
func columnKind(v cue.Value) (string, error) {
	switch k := v.IncompleteKind(); k {
	case cue.StringKind:
		return "string", nil
	case cue.IntKind:
		return "int", nil
	case cue.BoolKind:
		return "bool", nil
	case cue.FloatKind, cue.NumberKind:
		return "", compileErr("type", v.Pos(), "float types are forbidden - use int instead")
	default:
		return "", compileErr("type", v.Pos(), fmt.Sprintf("unsupported field type kind: %v", k))
	}
}

func compileErr(field string, pos token.Pos, msg string) *CompileError {
	return &CompileError{Field: field, Message: msg, Pos: pos}
}

// CompileError is a catalog problem, positioned in the CUE source when known.
type CompileError struct {
	Resource string
	Field    string
	Message  string
	Pos      token.Pos
}

func (e *CompileError) Error() string {
	field := e.Field
	if e.Resource != "" {
		field = e.Resource + "." + field
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			field, e.Message)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// formatCUEError turns the first error of a CUE error list into a
// positioned CompileError when CUE knows where it happened.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	if pos := errors.Positions(errs[0]); len(pos) > 0 {
		return compileErr("cue", pos[0], errs[0].Error())
	}
	return err
}
