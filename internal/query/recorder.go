package query

import (
	"fmt"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/provider"
)

// Recorder is an immutable (resource, chain, state) triple. The state is
// always the result of replaying the chain against resource.Default().
type Recorder struct {
	resource provider.Resource
	chain    ir.Chain
	state    provider.State
}

// New returns a recorder with an empty chain for res.
func New(res provider.Resource) *Recorder {
	return &Recorder{
		resource: res,
		chain:    ir.Chain{},
		state:    res.Default(),
	}
}

// Create resolves ref and returns an empty recorder for it.
func Create(resolver provider.Resolver, ref ir.ResourceRef) (*Recorder, error) {
	res, err := resolve(resolver, ref)
	if err != nil {
		return nil, err
	}
	return New(res), nil
}

// Chain records one chainable call and returns the extended recorder.
// Arguments are converted to IR values first; anything outside the
// serializable value set fails with UNSERIALIZABLE_ARGUMENT.
func (r *Recorder) Chain(name string, args ...any) (*Recorder, error) {
	values, err := ir.FromGoArgs(args)
	if err != nil {
		return nil, r.argumentError(name, err)
	}
	return r.ChainValues(name, values...)
}

// ChainValues is Chain with arguments that are already IR values. Each
// argument tree is checked and normalized with ir.Normalize before it
// reaches the provider.
func (r *Recorder) ChainValues(name string, args ...ir.IRValue) (*Recorder, error) {
	values := make(ir.IRArray, len(args))
	for i, a := range args {
		v, err := ir.Normalize(a)
		if err != nil {
			return nil, r.argumentError(name, fmt.Errorf("argument %d: %w", i, err))
		}
		values[i] = v
	}
	step := ir.NewStep(name, values...)

	next, err := r.resource.Apply(r.state, step.Name, step.Args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", r.resource.Ref(), name, err)
	}

	return &Recorder{
		resource: r.resource,
		chain:    r.chain.Append(step),
		state:    next,
	}, nil
}

func (r *Recorder) argumentError(name string, err error) *ir.Error {
	return &ir.Error{
		Code:     ir.ErrCodeUnserializableArgument,
		Message:  fmt.Sprintf("argument to %s cannot be serialized", name),
		Resource: r.resource.Ref(),
		Step:     -1,
		Err:      err,
	}
}

// Resource returns the live resource handle.
func (r *Recorder) Resource() provider.Resource {
	return r.resource
}

// Ref returns the resource name the chain is scoped to.
func (r *Recorder) Ref() ir.ResourceRef {
	return r.resource.Ref()
}

// Steps returns a copy of the recorded chain.
func (r *Recorder) Steps() ir.Chain {
	return r.chain.Clone()
}

// State returns the provider state after all recorded steps.
func (r *Recorder) State() provider.State {
	return r.state
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	return r.chain.Len()
}

// Document returns the (class, chain) pair that Serialize encodes.
func (r *Recorder) Document() ir.Document {
	return ir.Document{Class: r.resource.Ref(), Chain: r.chain.Clone()}
}

// Serialize encodes the chain in format f. FormatMap has no byte form;
// use ToMap.
func (r *Recorder) Serialize(f codec.Format) ([]byte, error) {
	return codec.Encode(r.Document(), f)
}

// ToMap returns the structured mapping form.
func (r *Recorder) ToMap() map[string]any {
	return codec.EncodeMap(r.Document())
}

// ToJSON returns canonical JSON.
func (r *Recorder) ToJSON() ([]byte, error) {
	return r.Serialize(codec.FormatJSON)
}

// ToYAML returns YAML.
func (r *Recorder) ToYAML() ([]byte, error) {
	return r.Serialize(codec.FormatYAML)
}

// Embedded returns the document wrapped for nesting in other values.
func (r *Recorder) Embedded() codec.Embedded {
	return codec.Embedded{Document: r.Document()}
}

// MarshalJSON implements json.Marshaler with the canonical document, so a
// recorder can be a field of anything passed to json.Marshal. Read it
// back through codec.Embedded and FromDocument.
func (r *Recorder) MarshalJSON() ([]byte, error) {
	return r.ToJSON()
}

// MarshalYAML implements yaml.Marshaler the same way.
func (r *Recorder) MarshalYAML() (any, error) {
	return r.Embedded().MarshalYAML()
}

// Hash returns the chain hash of the recorded document.
func (r *Recorder) Hash() (string, error) {
	return ir.ChainHash(r.Document())
}

// Equal reports whether two recorders are scoped to the same resource name
// and hold equal chains. Provider states are not compared.
func (r *Recorder) Equal(other *Recorder) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Ref() == other.Ref() && r.chain.Equal(other.chain)
}
