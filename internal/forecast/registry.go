package forecast

import (
	"sort"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
)

// Registry is the module-level mapping from method id to constructor.
// Registry is read-only after construction.
type Registry struct {
	constructors map[string]Constructor
	order        []string
}

// NewRegistry builds the registry with the five shipped methods, using
// each method's packaged defaults.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.register(MethodChronos2, NewChronos2)
	r.register(MethodCroston, NewCroston)
	r.register(MethodSBA, NewSBA)
	r.register(MethodMinMax, NewMinMax)
	r.register(MethodMA7, NewMA7)
	return r
}

// Tunables carries the operator-configured constants for methods that
// accept them, so a deployment can retune smoothing/clamping without a
// code change.
type Tunables struct {
	CrostonAlpha  float64
	SBAAlpha      float64
	MinMaxFloor   float64
	MinMaxCeiling float64
	Chronos2Seed  int64
}

// NewRegistryWithTunables builds the registry the same way NewRegistry
// does, except Croston/SBA/Min-Max/Chronos-2 are constructed from the
// supplied Tunables instead of their packaged defaults.
func NewRegistryWithTunables(t Tunables) *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.register(MethodChronos2, func() Model { return NewChronos2WithSeed(t.Chronos2Seed) })
	r.register(MethodCroston, func() Model { return NewCrostonWithAlpha(t.CrostonAlpha) })
	r.register(MethodSBA, func() Model { return NewSBAWithAlpha(t.SBAAlpha) })
	r.register(MethodMinMax, func() Model { return NewMinMaxWithBounds(t.MinMaxFloor, t.MinMaxCeiling) })
	r.register(MethodMA7, NewMA7)
	return r
}

func (r *Registry) register(method string, ctor Constructor) {
	r.constructors[method] = ctor
	r.order = append(r.order, method)
}

// Get returns a fresh Model instance for method, or an UNKNOWN_METHOD
// error.
func (r *Registry) Get(method string) (Model, error) {
	ctor, ok := r.constructors[method]
	if !ok {
		return nil, forecasterr.New(forecasterr.KindUnknownMethod, "unknown method id: "+method)
	}
	return ctor(), nil
}

// Has reports whether method is registered.
func (r *Registry) Has(method string) bool {
	_, ok := r.constructors[method]
	return ok
}

// ListMethods returns every registered method id in a stable order.
func (r *Registry) ListMethods() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out) // stable, deterministic order independent of registration
	return out
}

// RouteResult is the method sequence the router computed plus any warning
// it needs the caller to surface (e.g. an unknown primary method falling
// back to the recommended one).
type RouteResult struct {
	Methods  []string
	Warnings []string
}

// Route computes the ordered sequence of method ids to run for one item:
//   - run_all_methods=true runs every registered method, in a stable order.
//   - otherwise the sequence is [primaryModel], with statistical_ma7
//     appended when includeBaseline is true and not already present.
//   - an unregistered primaryModel falls back to recommendedMethod with a
//     warning rather than failing.
func (r *Registry) Route(primaryModel, recommendedMethod string, includeBaseline, runAllMethods bool) RouteResult {
	if runAllMethods {
		return RouteResult{Methods: r.ListMethods()}
	}

	var warnings []string
	method := primaryModel
	if !r.Has(method) {
		warnings = append(warnings, "unknown primary_model "+method+", falling back to recommended_method "+recommendedMethod)
		method = recommendedMethod
	}

	methods := []string{method}
	if includeBaseline && method != MethodMA7 {
		methods = append(methods, MethodMA7)
	}
	return RouteResult{Methods: methods, Warnings: warnings}
}
