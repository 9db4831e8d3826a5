package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/roach88/querychain/internal/ir"
)

// State is a provider-owned query-builder state. The recorder treats it as
// opaque and only passes it back to the Resource that produced it.
type State any

// Resource is the live query interface of one resource type.
//
// Apply must not mutate its input state: the recorder shares states between
// recorders, so concurrent readers are only safe when Apply returns a new
// value each time.
type Resource interface {
	// Ref is the name the resource is resolved by and serialized under.
	Ref() ir.ResourceRef

	// DisplayName is shown by Describe for an empty chain.
	DisplayName() string

	// Default returns the state of a query with no steps applied.
	Default() State

	// Capabilities lists the chainable and terminal method names.
	Capabilities() Capabilities

	// Apply returns the state after invoking a chainable method.
	Apply(state State, name string, args ir.IRArray) (State, error)

	// Call runs a terminal method and returns its result.
	Call(ctx context.Context, state State, name string, args ir.IRArray) (any, error)
}

// Capabilities declares which method names a resource supports.
// A name present in both sets is treated as chainable.
type Capabilities struct {
	Chainable OpSet
	Terminal  OpSet
}

// Supports reports whether name is chainable or terminal.
func (c Capabilities) Supports(name string) bool {
	return c.Chainable.Has(name) || c.Terminal.Has(name)
}

// OpSet is a set of method names.
type OpSet map[string]struct{}

// NewOpSet creates a set from names.
func NewOpSet(names ...string) OpSet {
	s := make(OpSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set. A nil set is empty.
func (s OpSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the names in sorted order.
func (s OpSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Restrict returns the names of s that are also in allowed.
// An empty allowed list keeps s unchanged. Names in allowed that s does
// not contain are reported as an error.
func (s OpSet) Restrict(allowed []string) (OpSet, error) {
	if len(allowed) == 0 {
		return s, nil
	}
	out := make(OpSet, len(allowed))
	for _, n := range allowed {
		if !s.Has(n) {
			return nil, fmt.Errorf("unknown method %q (known: %v)", n, s.Names())
		}
		out[n] = struct{}{}
	}
	return out, nil
}

// Resolver maps a serialized resource name to a live Resource.
type Resolver interface {
	Resolve(ref ir.ResourceRef) (Resource, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ref ir.ResourceRef) (Resource, error)

// Resolve calls f(ref).
func (f ResolverFunc) Resolve(ref ir.ResourceRef) (Resource, error) {
	return f(ref)
}

// ErrUnknownResource is returned by Registry.Resolve for unregistered names.
var ErrUnknownResource = errors.New("unknown resource")

// Registry is a concurrency-safe Resolver backed by a map.
type Registry struct {
	mu        sync.RWMutex
	resources map[ir.ResourceRef]Resource
}

// NewRegistry creates a registry holding resources.
func NewRegistry(resources ...Resource) (*Registry, error) {
	r := &Registry{resources: make(map[ir.ResourceRef]Resource, len(resources))}
	for _, res := range resources {
		if err := r.Register(res); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a resource. Registering the same name twice is an error.
func (r *Registry) Register(res Resource) error {
	if res == nil {
		return fmt.Errorf("register: nil resource")
	}
	ref := res.Ref()
	if ref == "" {
		return fmt.Errorf("register: resource has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resources == nil {
		r.resources = make(map[ir.ResourceRef]Resource)
	}
	if _, exists := r.resources[ref]; exists {
		return fmt.Errorf("register: resource %q already registered", ref)
	}
	r.resources[ref] = res
	return nil
}

// Resolve implements Resolver.
func (r *Registry) Resolve(ref ir.ResourceRef) (Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resources[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, ref)
	}
	return res, nil
}

// Refs returns the registered names in sorted order.
func (r *Registry) Refs() []ir.ResourceRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]ir.ResourceRef, 0, len(r.resources))
	for ref := range r.resources {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}
