package ir

import "slices"

// ResourceRef is a globally resolvable name of a queryable resource type
// (e.g. "Order"). It is the "class" field of the wire format.
type ResourceRef string

// Step is one recorded operation: a method name and its ordered arguments.
type Step struct {
	Name string  `json:"name"`
	Args IRArray `json:"args"`
}

// NewStep creates a Step. A nil args list is stored as an empty array so
// encodings never emit null for "no arguments".
func NewStep(name string, args ...IRValue) Step {
	if args == nil {
		args = IRArray{}
	}
	return Step{Name: name, Args: IRArray(args)}
}

// Equal reports whether two steps have the same name and arguments.
func (s Step) Equal(other Step) bool {
	return s.Name == other.Name && Equal(s.Args, other.Args)
}

// Chain is an ordered list of recorded steps. Replay order is recorded
// order; operations are not assumed to commute.
type Chain []Step

// Append returns a new chain with step added at the end.
// The receiver is never modified and the result shares no backing array
// with it, so later appends to either chain cannot interfere.
func (c Chain) Append(step Step) Chain {
	out := make(Chain, len(c), len(c)+1)
	copy(out, c)
	return append(out, step)
}

// Clone returns a copy of the chain with its own backing array.
func (c Chain) Clone() Chain {
	if c == nil {
		return Chain{}
	}
	return slices.Clone(c)
}

// Len returns the number of recorded steps.
func (c Chain) Len() int {
	return len(c)
}

// Equal reports whether two chains contain equal steps in the same order.
// A nil chain equals an empty chain.
func (c Chain) Equal(other Chain) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Names returns the method names in recorded order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

// Document is the decoded form of an encoded chain: the resource it is
// scoped to and the steps to replay against it.
type Document struct {
	Class ResourceRef `json:"class"`
	Chain Chain       `json:"chain_methods"`
}

// ResourceSpec describes a queryable resource declared in a catalog.
type ResourceSpec struct {
	Name      string            `json:"name"`
	Table     string            `json:"table"`
	Fields    map[string]string `json:"fields"`              // field name -> type name
	Chainable []string          `json:"chainable,omitempty"` // empty = provider default
	Terminal  []string          `json:"terminal,omitempty"`  // empty = provider default
}

// ValidFieldTypes defines the allowed type strings for resource fields.
// NO "float" - floats are forbidden.
var ValidFieldTypes = map[string]bool{
	"string": true,
	"int":    true,
	"bool":   true,
}
