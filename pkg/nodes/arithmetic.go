package nodes

import (
	"math"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// OperatorConfig configures a reduction over the values of the
// input nodes in list order. The operator is given by the type
// field, so one config type serves all four operator kinds.
type OperatorConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Input []common.Tag `json:"input"`
}

func NewOperatorConfig(op Kind, input ...common.Tag) *OperatorConfig {
	return &OperatorConfig{ObjectMeta: runtime.ObjectMeta{Type: op.String()}, Input: input}
}

func (c *OperatorConfig) Kind() Kind {
	return Kind(c.Type)
}

func (c *OperatorConfig) Validate() error {
	switch c.Kind() {
	case KindAddition, KindSubtraction, KindMultiplication, KindDivision:
	default:
		return common.NewInvalidConfigError("operator", "", "unknown operator %q", c.Type)
	}
	if len(c.Input) < 2 {
		return common.NewInvalidConfigError(c.Type, "input", "at least two input nodes required")
	}
	return nil
}

func (c *OperatorConfig) newNode(tag common.Tag) Node {
	return &OperatorNode{
		base:   base{tag},
		config: *NewOperatorConfig(c.Kind(), append([]common.Tag(nil), c.Input...)...),
	}
}

// OperatorNode is an arithmetic node combining two or more
// input values.
type OperatorNode struct {
	base
	config OperatorConfig
	value  float64
}

var _ Scalar = (*OperatorNode)(nil)

func (n *OperatorNode) Kind() Kind {
	return n.config.Kind()
}

func (n *OperatorNode) Config() Config {
	return NewOperatorConfig(n.config.Kind(), n.config.Input...)
}

func (n *OperatorNode) Value() float64 {
	return n.value
}

func (n *OperatorNode) Output() any {
	return n.value
}

func (n *OperatorNode) Update(l Lookup) error {
	var result float64
	for i, tag := range n.config.Input {
		v, err := scalarInput(l, n.Kind(), "input", tag)
		if err != nil {
			n.value = common.Invalid
			return err
		}
		if i == 0 {
			result = v
			continue
		}
		switch n.config.Kind() {
		case KindAddition:
			result += v
		case KindSubtraction:
			result -= v
		case KindMultiplication:
			result *= v
		case KindDivision:
			if v == 0 {
				n.value = common.Invalid
				return &common.ArithmeticError{Tag: n.tag, Kind: n.Kind().String(), Message: "division by zero"}
			}
			result /= v
		}
	}
	n.value = result
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// ModulusConfig configures a floored modulus of the input value.
type ModulusConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Input   common.Tag `json:"input"`
	Modulus float64    `json:"modulus"`
}

func (c *ModulusConfig) Kind() Kind {
	return KindModulus
}

func (c *ModulusConfig) Validate() error {
	if common.IsInvalid(c.Modulus) {
		return common.NewInvalidConfigError(KindModulus.String(), "modulus", "not a number")
	}
	return nil
}

func (c *ModulusConfig) newNode(tag common.Tag) Node {
	return &ModulusNode{base: base{tag}, config: *c}
}

// ModulusNode provides the floored modulus, whose result has the
// sign of the modulus.
type ModulusNode struct {
	base
	config ModulusConfig
	value  float64
}

var _ Scalar = (*ModulusNode)(nil)

func (n *ModulusNode) Kind() Kind {
	return KindModulus
}

func (n *ModulusNode) Config() Config {
	c := n.config
	return &c
}

func (n *ModulusNode) Value() float64 {
	return n.value
}

func (n *ModulusNode) Output() any {
	return n.value
}

func (n *ModulusNode) Update(l Lookup) error {
	v, err := scalarInput(l, KindModulus, "input", n.config.Input)
	if err != nil {
		n.value = common.Invalid
		return err
	}
	m := n.config.Modulus
	if m == 0 {
		n.value = common.Invalid
		return &common.ArithmeticError{Tag: n.tag, Kind: KindModulus.String(), Message: "modulus by zero"}
	}
	n.value = math.Mod(math.Mod(v, m)+m, m)
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// DiffClampConfig configures the accumulation of input deltas
// clamped to [Min,Max].
type DiffClampConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Input common.Tag `json:"input"`
	Min   float64    `json:"min"`
	Max   float64    `json:"max"`
}

func (c *DiffClampConfig) Kind() Kind {
	return KindDiffClamp
}

func (c *DiffClampConfig) Validate() error {
	if common.IsInvalid(c.Min) || common.IsInvalid(c.Max) {
		return common.NewInvalidConfigError(KindDiffClamp.String(), "", "min and max must be numbers")
	}
	if c.Min > c.Max {
		return common.NewInvalidConfigError(KindDiffClamp.String(), "min", "must not exceed max (%g > %g)", c.Min, c.Max)
	}
	return nil
}

func (c *DiffClampConfig) newNode(tag common.Tag) Node {
	return &DiffClampNode{base: base{tag}, config: *c}
}

// DiffClampNode accumulates the changes of its input, keeping the
// sum within the configured bounds.
type DiffClampNode struct {
	base
	config    DiffClampConfig
	lastInput float64
	value     float64
}

var _ Scalar = (*DiffClampNode)(nil)

func (n *DiffClampNode) Kind() Kind {
	return KindDiffClamp
}

func (n *DiffClampNode) Config() Config {
	c := n.config
	return &c
}

func (n *DiffClampNode) Value() float64 {
	return n.value
}

func (n *DiffClampNode) Output() any {
	return n.value
}

func (n *DiffClampNode) Update(l Lookup) error {
	v, err := scalarInput(l, KindDiffClamp, "input", n.config.Input)
	if err != nil {
		return err
	}
	if common.IsInvalid(v) {
		return nil
	}
	diff := v - n.lastInput
	n.lastInput = v
	n.value = clamp(n.value+diff, n.config.Min, n.config.Max)
	return nil
}
