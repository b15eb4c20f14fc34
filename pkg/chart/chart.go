package chart

import (
	"github.com/Slach/catalog-browser/pkg/axis"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Axis is one axis of a chart, its transform comes from the chart registry
type Axis struct {
	id        string
	cfg       axis.Config
	transform axis.Transform
	registry  *axis.Registry
	onUpdate  func()
}

func (a *Axis) ID() string {
	return a.id
}

func (a *Axis) Options() axis.Config {
	return a.cfg
}

// Update merges a partial configuration and re-resolves the transform when the type changes
func (a *Axis) Update(cfg axis.Config) {
	if cfg.Type != "" && cfg.Type != a.cfg.Type {
		t, err := a.registry.Lookup(cfg.Type)
		if err != nil {
			log.Warn().Err(err).Str("axis", a.id).Msg("keeping previous axis type")
		} else {
			a.cfg.Type = cfg.Type
			a.transform = t
		}
	}
	if cfg.Min != nil {
		a.cfg.Min = axis.Float(*cfg.Min)
	}
	if a.onUpdate != nil {
		a.onUpdate()
	}
}

func (a *Axis) Transform() axis.Transform {
	return a.transform
}

// Min is the configured axis minimum, 0 when unset
func (a *Axis) Min() float64 {
	if a.cfg.Min == nil {
		return 0
	}
	return *a.cfg.Min
}

// Chart owns a set of named axes
type Chart struct {
	Title    string
	registry *axis.Registry
	axes     map[string]*Axis
	order    []string
	revision int
}

func New(title string, registry *axis.Registry) *Chart {
	if registry == nil {
		registry = axis.DefaultRegistry()
	}
	return &Chart{
		Title:    title,
		registry: registry,
		axes:     make(map[string]*Axis),
	}
}

// AddAxis creates an axis, the type must be known to the registry
func (c *Chart) AddAxis(id string, cfg axis.Config) (*Axis, error) {
	if _, dup := c.axes[id]; dup {
		return nil, errors.Errorf("axis %s already exists", id)
	}
	if cfg.Type == "" {
		cfg.Type = axis.TypeLinear
	}
	t, err := c.registry.Lookup(cfg.Type)
	if err != nil {
		return nil, err
	}
	a := &Axis{
		id:        id,
		cfg:       axis.Config{Type: cfg.Type},
		transform: t,
		registry:  c.registry,
		onUpdate:  func() { c.revision++ },
	}
	if cfg.Min != nil {
		a.cfg.Min = axis.Float(*cfg.Min)
	}
	c.axes[id] = a
	c.order = append(c.order, id)
	return a, nil
}

// Get implements axis.Chart, a nil chart has no axes
func (c *Chart) Get(id string) (axis.Axis, bool) {
	if c == nil {
		return nil, false
	}
	a, ok := c.axes[id]
	if !ok {
		return nil, false
	}
	return a, true
}

func (c *Chart) Axis(id string) *Axis {
	return c.axes[id]
}

// Revision grows on every axis update, renderers compare it to skip redraws
func (c *Chart) Revision() int {
	return c.revision
}
