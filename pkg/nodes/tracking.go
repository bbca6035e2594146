package nodes

import (
	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// TrackingConfig configures a node starting an animation of the
// node Value toward the value of the node ToValue whenever this
// value changes. The animation config is used as template, its
// target value is replaced.
type TrackingConfig struct {
	runtime.ObjectMeta `json:",inline"`

	AnimationID     common.AnimationID `json:"animationId"`
	ToValue         common.Tag         `json:"toValue"`
	Value           common.Tag         `json:"value"`
	AnimationConfig drivers.Spec       `json:"animationConfig"`
}

func (c *TrackingConfig) Kind() Kind {
	return KindTracking
}

func (c *TrackingConfig) Validate() error {
	if c.AnimationConfig.Config == nil {
		return common.NewInvalidConfigError(KindTracking.String(), "animationConfig", "animation configuration required")
	}
	if _, ok := c.AnimationConfig.Config.(drivers.TargetConfig); !ok {
		return common.NewInvalidConfigError(KindTracking.String(), "animationConfig", "animation type %q has no target value", c.AnimationConfig.Kind())
	}
	if err := c.AnimationConfig.Validate(); err != nil {
		return err
	}
	if c.ToValue == c.Value {
		return common.NewInvalidConfigError(KindTracking.String(), "value", "must differ from toValue")
	}
	return nil
}

func (c *TrackingConfig) newNode(tag common.Tag) Node {
	return &TrackingNode{
		base:   base{tag},
		config: *c,
		target: common.Invalid,
	}
}

// TrackingNode observes the value of its toValue node.
type TrackingNode struct {
	base
	config  TrackingConfig
	target  float64
	pending bool
}

func (n *TrackingNode) Kind() Kind {
	return KindTracking
}

func (n *TrackingNode) Config() Config {
	c := n.config
	return &c
}

// Output provides the last observed target value.
func (n *TrackingNode) Output() any {
	return n.target
}

func (n *TrackingNode) Update(l Lookup) error {
	v, err := scalarInput(l, KindTracking, "toValue", n.config.ToValue)
	if err != nil {
		return err
	}
	if common.IsInvalid(v) || v == n.target {
		return nil
	}
	n.target = v
	n.pending = true
	return nil
}

// Animation describes an animation requested by a tracking node.
type Animation struct {
	ID     common.AnimationID
	Target common.Tag
	Config drivers.Config
}

// Triggered provides the animation to start after the observed
// target value has changed. A request is provided only once.
func (n *TrackingNode) Triggered() (Animation, bool) {
	if !n.pending {
		return Animation{}, false
	}
	n.pending = false
	tmpl := n.config.AnimationConfig.Config.(drivers.TargetConfig)
	return Animation{
		ID:     n.config.AnimationID,
		Target: n.config.Value,
		Config: tmpl.WithToValue(n.target),
	}, true
}
