package axis

import (
	"math"

	"github.com/pkg/errors"
)

var ErrUnknownTransform = errors.New("unknown axis transform")

// Axis types understood by the registry
const (
	TypeLinear      = "linear"
	TypeLogarithmic = "logarithmic"
)

// Transform maps data values to the internal axis coordinate and back
type Transform interface {
	ToInternal(x float64) float64
	ToDisplay(x float64) float64
	// AllowNegative tells the chart not to drop zero or negative values
	// before they reach the transform
	AllowNegative() bool
}

// Linear is the identity transform
type Linear struct{}

func (Linear) ToInternal(x float64) float64 { return x }
func (Linear) ToDisplay(x float64) float64  { return x }
func (Linear) AllowNegative() bool          { return true }

// ZeroSafeLog is log10 for values >= 1. Everything below 1, including zero
// and negatives, collapses onto -1 so empty histogram buckets keep a
// position on the axis. ToDisplay(-1) rounds to 0, the empty bucket label.
type ZeroSafeLog struct{}

func (ZeroSafeLog) ToInternal(x float64) float64 {
	if x >= 1 {
		return math.Log10(x)
	}
	return -1
}

func (ZeroSafeLog) ToDisplay(x float64) float64 {
	return math.Round(math.Pow(10, x))
}

func (ZeroSafeLog) AllowNegative() bool { return true }

// Registry maps axis types to transforms. Charts resolve a transform per
// axis instance, nothing is shared between charts.
type Registry struct {
	transforms map[string]Transform
}

func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string]Transform)}
}

// DefaultRegistry knows linear and the zero-safe logarithmic transform
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeLinear, Linear{})
	r.Register(TypeLogarithmic, ZeroSafeLog{})
	return r
}

func (r *Registry) Register(axisType string, t Transform) {
	r.transforms[axisType] = t
}

func (r *Registry) Lookup(axisType string) (Transform, error) {
	t, ok := r.transforms[axisType]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTransform, axisType)
	}
	return t, nil
}
