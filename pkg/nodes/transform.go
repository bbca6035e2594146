package nodes

import (
	"errors"
	"fmt"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

const (
	TransformAnimated = "animated"
	TransformStatic   = "static"

	UnitRad = "rad"
	UnitDeg = "deg"
)

var transformProperties = map[string]bool{
	"translateX":  false,
	"translateY":  false,
	"scale":       false,
	"scaleX":      false,
	"scaleY":      false,
	"perspective": false,
	"rotate":      true,
	"rotateX":     true,
	"rotateY":     true,
	"rotateZ":     true,
	"skewX":       true,
	"skewY":       true,
}

// TransformEntry is a single transformation. Animated entries take
// their value from a node, static ones carry it. Angles of animated
// entries are rendered with the unit given by Unit (default rad).
type TransformEntry struct {
	Type     string     `json:"type"`
	Property string     `json:"property"`
	NodeTag  common.Tag `json:"nodeTag,omitempty"`
	Value    float64    `json:"value,omitempty"`
	Unit     string     `json:"unit,omitempty"`
}

type TransformConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Transforms []TransformEntry `json:"transforms"`
}

func (c *TransformConfig) Kind() Kind {
	return KindTransform
}

func (c *TransformConfig) Validate() error {
	if len(c.Transforms) == 0 {
		return common.NewInvalidConfigError(KindTransform.String(), "transforms", "at least one transform required")
	}
	for i, e := range c.Transforms {
		field := fmt.Sprintf("transforms[%d]", i)
		if _, ok := transformProperties[e.Property]; !ok {
			return common.NewInvalidConfigError(KindTransform.String(), field, "unknown transform property %q", e.Property)
		}
		switch e.Type {
		case TransformAnimated:
		case TransformStatic:
			if common.IsInvalid(e.Value) {
				return common.NewInvalidConfigError(KindTransform.String(), field, "value is not a number")
			}
		default:
			return common.NewInvalidConfigError(KindTransform.String(), field, "type must be %q or %q", TransformAnimated, TransformStatic)
		}
		switch e.Unit {
		case "", UnitRad, UnitDeg:
		default:
			return common.NewInvalidConfigError(KindTransform.String(), field, "unit must be %q or %q", UnitRad, UnitDeg)
		}
	}
	return nil
}

func (c *TransformConfig) newNode(tag common.Tag) Node {
	n := &TransformNode{
		base:   base{tag},
		config: TransformConfig{Transforms: append([]TransformEntry(nil), c.Transforms...)},
		values: make([]any, len(c.Transforms)),
	}
	for i, e := range n.config.Transforms {
		if e.Type == TransformStatic {
			n.values[i] = e.Value
		}
	}
	return n
}

// TransformNode composes a transform list of the form
// [{"translateX": 10}, {"rotate": "0.5rad"}].
type TransformNode struct {
	base
	config TransformConfig
	values []any
}

func (n *TransformNode) Kind() Kind {
	return KindTransform
}

func (n *TransformNode) Config() Config {
	return Typed(&TransformConfig{Transforms: append([]TransformEntry(nil), n.config.Transforms...)})
}

func (n *TransformNode) Update(l Lookup) error {
	var errs []error
	for i, e := range n.config.Transforms {
		if e.Type != TransformAnimated {
			continue
		}
		v, err := scalarInput(l, KindTransform, e.Property, e.NodeTag)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if common.IsInvalid(v) {
			// keep last good value
			continue
		}
		if transformProperties[e.Property] {
			n.values[i] = fmt.Sprintf("%g%s", v, unit(e.Unit))
		} else {
			n.values[i] = v
		}
	}
	return errors.Join(errs...)
}

func unit(u string) string {
	if u == "" {
		return UnitRad
	}
	return u
}

func (n *TransformNode) Output() any {
	list := make([]map[string]any, 0, len(n.values))
	for i, e := range n.config.Transforms {
		if n.values[i] == nil {
			continue
		}
		list = append(list, map[string]any{e.Property: n.values[i]})
	}
	return list
}
