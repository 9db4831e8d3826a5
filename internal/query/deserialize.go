package query

import (
	"fmt"
	"time"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/provider"
)

// Deserialize decodes data in format f, resolves its class and replays
// the recorded steps in order.
//
// Errors:
//   - MALFORMED_ENCODING / MISSING_FIELD from the codec, unchanged
//   - UNRESOLVABLE_RESOURCE when the resolver has no resource for the class
//   - REPLAY_FAILED with Step and Method set when a step is rejected
//
// No recorder is returned on failure.
func Deserialize(resolver provider.Resolver, data []byte, f codec.Format, opts ...Option) (*Recorder, error) {
	doc, err := codec.Decode(data, f)
	if err != nil {
		return nil, err
	}
	return FromDocument(resolver, doc, opts...)
}

// FromMap rebuilds a recorder from the structured mapping form.
func FromMap(resolver provider.Resolver, m map[string]any, opts ...Option) (*Recorder, error) {
	doc, err := codec.DecodeMap(m)
	if err != nil {
		return nil, err
	}
	return FromDocument(resolver, doc, opts...)
}

// FromJSON rebuilds a recorder from JSON text.
func FromJSON(resolver provider.Resolver, data []byte, opts ...Option) (*Recorder, error) {
	return Deserialize(resolver, data, codec.FormatJSON, opts...)
}

// FromYAML rebuilds a recorder from YAML text.
func FromYAML(resolver provider.Resolver, data []byte, opts ...Option) (*Recorder, error) {
	return Deserialize(resolver, data, codec.FormatYAML, opts...)
}

// FromDocument resolves doc.Class and replays doc.Chain.
func FromDocument(resolver provider.Resolver, doc ir.Document, opts ...Option) (*Recorder, error) {
	o := buildOptions(opts)
	start := time.Now()
	o.observer.ReplayStarted(doc.Class)

	rec, err := replay(resolver, doc)
	elapsed := time.Since(start)
	o.observer.ReplayFinished(doc.Class, len(doc.Chain), err, elapsed)

	if err != nil {
		o.logger.Debug("replay failed",
			"resource", doc.Class,
			"steps", len(doc.Chain),
			"error", err,
		)
		return nil, err
	}
	o.logger.Debug("replay finished",
		"resource", doc.Class,
		"steps", len(doc.Chain),
		"elapsed", elapsed,
	)
	return rec, nil
}

func replay(resolver provider.Resolver, doc ir.Document) (*Recorder, error) {
	res, err := resolve(resolver, doc.Class)
	if err != nil {
		return nil, err
	}

	state := res.Default()
	chain := make(ir.Chain, len(doc.Chain))
	for i, step := range doc.Chain {
		args := ir.IRArray{}
		if step.Args != nil {
			normalized, err := ir.Normalize(step.Args)
			if err != nil {
				return nil, ir.NewReplayError(doc.Class, i, step.Name, err)
			}
			args = normalized.(ir.IRArray)
		}
		state, err = res.Apply(state, step.Name, args)
		if err != nil {
			return nil, ir.NewReplayError(doc.Class, i, step.Name, err)
		}
		chain[i] = ir.NewStep(step.Name, args...)
	}

	return &Recorder{
		resource: res,
		chain:    chain,
		state:    state,
	}, nil
}

func resolve(resolver provider.Resolver, ref ir.ResourceRef) (provider.Resource, error) {
	if resolver == nil {
		return nil, ir.NewUnresolvableError(ref, fmt.Errorf("no resolver configured"))
	}
	res, err := resolver.Resolve(ref)
	if err != nil {
		return nil, ir.NewUnresolvableError(ref, err)
	}
	if res == nil {
		return nil, ir.NewUnresolvableError(ref, fmt.Errorf("resolver returned no resource"))
	}
	return res, nil
}
