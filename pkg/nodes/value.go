package nodes

import (
	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// ValueConfig configures a leaf value node.
type ValueConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Value  float64 `json:"value"`
	Offset float64 `json:"offset,omitempty"`
}

func (c *ValueConfig) Kind() Kind {
	return KindValue
}

func (c *ValueConfig) Validate() error {
	if common.IsInvalid(c.Value) {
		return common.NewInvalidConfigError(KindValue.String(), "value", "not a number")
	}
	if common.IsInvalid(c.Offset) {
		return common.NewInvalidConfigError(KindValue.String(), "offset", "not a number")
	}
	return nil
}

func (c *ValueConfig) newNode(tag common.Tag) Node {
	return &ValueNode{
		base:   base{tag},
		config: *c,
		value:  c.Value,
		offset: c.Offset,
	}
}

// ValueNode is a settable scalar. The observed value is the
// sum of the base value and the offset.
type ValueNode struct {
	base
	config ValueConfig
	value  float64
	offset float64
}

var (
	_ Scalar   = (*ValueNode)(nil)
	_ Restorer = (*ValueNode)(nil)
)

func (n *ValueNode) Kind() Kind {
	return KindValue
}

func (n *ValueNode) Config() Config {
	c := n.config
	return &c
}

func (n *ValueNode) Update(l Lookup) error {
	return nil
}

func (n *ValueNode) Value() float64 {
	return n.value + n.offset
}

func (n *ValueNode) Output() any {
	return n.Value()
}

// Base provides the value without offset.
func (n *ValueNode) Base() float64 {
	return n.value
}

func (n *ValueNode) Offset() float64 {
	return n.offset
}

func (n *ValueNode) SetValue(v float64) {
	n.value = v
}

func (n *ValueNode) SetOffset(v float64) {
	n.offset = v
}

// FlattenOffset merges the offset into the base value.
func (n *ValueNode) FlattenOffset() {
	n.value += n.offset
	n.offset = 0
}

// ExtractOffset moves the base value into the offset.
func (n *ValueNode) ExtractOffset() {
	n.offset += n.value
	n.value = 0
}

// RestoreDefaults resets base value and offset to the
// configured ones.
func (n *ValueNode) RestoreDefaults() common.Props {
	n.value = n.config.Value
	n.offset = n.config.Offset
	return nil
}
