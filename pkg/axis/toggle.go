package axis

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ToggleAxisID is the id of the axis the log toggle drives
const ToggleAxisID = "tog"

var ErrAxisNotFound = errors.New("assertion failure: toggle axis not found")

// Config is a partial axis configuration, zero Type and nil Min leave the
// current values alone
type Config struct {
	Type string   `json:"type,omitempty"`
	Min  *float64 `json:"min,omitempty"`
}

// Float returns a pointer for Config.Min
func Float(v float64) *float64 {
	return &v
}

// Axis is a chart axis owned by the chart
type Axis interface {
	Options() Config
	Update(cfg Config)
}

// Chart gives access to its axes by id
type Chart interface {
	Get(id string) (Axis, bool)
}

type Mode int

const (
	ModeLinear Mode = iota
	ModeLogZeroSafe
)

func (m Mode) String() string {
	if m == ModeLinear {
		return "linear"
	}
	return "log"
}

// Config is the full axis configuration of the mode
func (m Mode) Config() Config {
	if m == ModeLinear {
		return Config{Type: TypeLinear, Min: Float(0)}
	}
	return Config{Type: TypeLogarithmic, Min: Float(0.1)}
}

func (m Mode) Next() Mode {
	if m == ModeLinear {
		return ModeLogZeroSafe
	}
	return ModeLinear
}

// ModeOf maps an axis type to a mode, anything but linear counts as logarithmic
func ModeOf(axisType string) Mode {
	if axisType == TypeLinear {
		return ModeLinear
	}
	return ModeLogZeroSafe
}

// Toggle flips the toggle axis of a chart between linear and zero-safe
// logarithmic. The mode is read from the axis once, after that the toggle
// owns it and the axis only receives updates.
type Toggle struct {
	mode Mode
	axis Axis
}

// NewToggle finds the toggle axis of c. Chart implementations must answer
// Get on a nil receiver with ok false, the way chart.Chart does.
func NewToggle(c Chart) (*Toggle, error) {
	if c == nil {
		return nil, errors.WithStack(ErrAxisNotFound)
	}
	a, ok := c.Get(ToggleAxisID)
	if !ok || a == nil {
		return nil, errors.WithStack(ErrAxisNotFound)
	}
	return &Toggle{mode: ModeOf(a.Options().Type), axis: a}, nil
}

func (t *Toggle) Mode() Mode {
	return t.mode
}

// Flip switches the mode and pushes it to the axis
func (t *Toggle) Flip() Mode {
	t.mode = t.mode.Next()
	t.axis.Update(t.mode.Config())
	log.Debug().Str("mode", t.mode.String()).Msg("axis scale toggled")
	return t.mode
}

// Set forces a mode, used to apply a configured default
func (t *Toggle) Set(m Mode) {
	t.mode = m
	t.axis.Update(m.Config())
}
