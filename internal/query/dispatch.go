package query

import (
	"context"
	"fmt"

	"github.com/roach88/querychain/internal/ir"
)

// Kind tells which branch Dispatch took.
type Kind int

const (
	// KindChained means the call was recorded; Result.Recorder is set.
	KindChained Kind = iota + 1
	// KindTerminal means the call was executed; Result.Value is set.
	KindTerminal
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindChained:
		return "chained"
	case KindTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the outcome of Dispatch.
type Result struct {
	Kind     Kind
	Recorder *Recorder
	Value    any
}

// Dispatch routes an operation by name.
//
// Chainable names are recorded through Chain. Terminal names run against
// the current state through Resource.Call and bypass the recorder. Any
// other name fails with UNSUPPORTED_OPERATION. A name declared in both
// sets is treated as chainable. The receiver is unchanged on every path.
func (r *Recorder) Dispatch(ctx context.Context, name string, args ...any) (Result, error) {
	caps := r.resource.Capabilities()

	switch {
	case caps.Chainable.Has(name):
		next, err := r.Chain(name, args...)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindChained, Recorder: next}, nil

	case caps.Terminal.Has(name):
		values, err := ir.FromGoArgs(args)
		if err != nil {
			return Result{}, r.argumentError(name, err)
		}
		v, err := r.resource.Call(ctx, r.state, name, values)
		if err != nil {
			return Result{}, fmt.Errorf("%s.%s: %w", r.resource.Ref(), name, err)
		}
		return Result{Kind: KindTerminal, Value: v}, nil

	default:
		return Result{}, ir.NewUnsupportedError(r.resource.Ref(), name)
	}
}
