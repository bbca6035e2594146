// Package nodes provides the closed set of node kinds of an animated
// graph together with their configurations and computations.
package nodes

import (
	"github.com/mandelsoft/animated/pkg/common"
)

type Kind string

const (
	KindValue          Kind = "value"
	KindProps          Kind = "props"
	KindStyle          Kind = "style"
	KindTransform      Kind = "transform"
	KindInterpolation  Kind = "interpolation"
	KindAddition       Kind = "addition"
	KindSubtraction    Kind = "subtraction"
	KindMultiplication Kind = "multiplication"
	KindDivision       Kind = "division"
	KindModulus        Kind = "modulus"
	KindDiffClamp      Kind = "diffclamp"
	KindTracking       Kind = "tracking"
	KindColor          Kind = "color"
)

func (k Kind) String() string {
	return string(k)
}

// Lookup gives a node access to the other nodes of its graph while
// it is updated.
type Lookup interface {
	// Get provides the node for a tag or nil.
	Get(tag common.Tag) Node
	// Parents provides the ordered parent tags of a node.
	Parents(tag common.Tag) []common.Tag
}

// Node is a vertex of the animated graph.
type Node interface {
	Tag() common.Tag
	Kind() Kind
	Config() Config

	// Update recomputes the output from the nodes referenced by the
	// configuration. A failing computation keeps the node usable, the
	// output is then the invalid marker (or the last good value for
	// record nodes).
	Update(l Lookup) error
	// Output provides the current output: a float64 for scalar nodes,
	// an uint32 for colors, a transform list or a property record.
	Output() any
}

// Scalar is implemented by nodes with a numeric output.
type Scalar interface {
	Node
	Value() float64
}

// Restorer is implemented by nodes which can revert to their defaults.
type Restorer interface {
	Node
	// RestoreDefaults resets the node and provides the properties to
	// emit to connected views, if any.
	RestoreDefaults() common.Props
}

type base struct {
	tag common.Tag
}

func (b *base) Tag() common.Tag {
	return b.tag
}

func scalarInput(l Lookup, kind Kind, field string, tag common.Tag) (float64, error) {
	n := l.Get(tag)
	if n == nil {
		return common.Invalid, &common.UnknownNodeError{Tag: tag}
	}
	s, ok := n.(Scalar)
	if !ok {
		return common.Invalid, common.NewInvalidConfigError(kind.String(), field, "node %s of kind %s has no numeric value", tag, n.Kind())
	}
	return s.Value(), nil
}
