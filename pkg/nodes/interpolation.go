package nodes

import (
	"math"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// Extrapolation policies applied to inputs outside the input range.
const (
	ExtrapolateExtend   = "extend"
	ExtrapolateClamp    = "clamp"
	ExtrapolateIdentity = "identity"
)

// Output types of interpolations.
const (
	OutputNumber = "number"
	OutputColor  = "color"
)

// InterpolationConfig maps the value of the first parent node through a
// piecewise linear function. For color output the output colors are
// packed RGBA values (0xRRGGBBAA) interpolated per channel.
type InterpolationConfig struct {
	runtime.ObjectMeta `json:",inline"`

	InputRange       []float64 `json:"inputRange"`
	OutputRange      []float64 `json:"outputRange,omitempty"`
	OutputColors     []uint32  `json:"outputColors,omitempty"`
	ExtrapolateLeft  string    `json:"extrapolateLeft,omitempty"`
	ExtrapolateRight string    `json:"extrapolateRight,omitempty"`
	OutputType       string    `json:"outputType,omitempty"`
}

func (c *InterpolationConfig) Kind() Kind {
	return KindInterpolation
}

func (c *InterpolationConfig) IsColor() bool {
	return c.OutputType == OutputColor
}

func (c *InterpolationConfig) Validate() error {
	kind := KindInterpolation.String()
	if len(c.InputRange) < 2 {
		return common.NewInvalidConfigError(kind, "inputRange", "at least two entries required")
	}
	for i, v := range c.InputRange {
		if common.IsInvalid(v) {
			return common.NewInvalidConfigError(kind, "inputRange", "entry %d is not a number", i)
		}
		if i > 0 && v < c.InputRange[i-1] {
			return common.NewInvalidConfigError(kind, "inputRange", "must be monotonically non-decreasing")
		}
	}
	switch c.OutputType {
	case "", OutputNumber:
		if len(c.OutputRange) != len(c.InputRange) {
			return common.NewInvalidConfigError(kind, "outputRange", "must have the length of inputRange (%d)", len(c.InputRange))
		}
		for i, v := range c.OutputRange {
			if common.IsInvalid(v) {
				return common.NewInvalidConfigError(kind, "outputRange", "entry %d is not a number", i)
			}
		}
		if len(c.OutputColors) > 0 {
			return common.NewInvalidConfigError(kind, "outputColors", "requires output type %q", OutputColor)
		}
	case OutputColor:
		if len(c.OutputColors) != len(c.InputRange) {
			return common.NewInvalidConfigError(kind, "outputColors", "must have the length of inputRange (%d)", len(c.InputRange))
		}
	default:
		return common.NewInvalidConfigError(kind, "outputType", "must be %q or %q", OutputNumber, OutputColor)
	}
	for field, e := range map[string]string{"extrapolateLeft": c.ExtrapolateLeft, "extrapolateRight": c.ExtrapolateRight} {
		switch e {
		case "", ExtrapolateExtend, ExtrapolateClamp, ExtrapolateIdentity:
		default:
			return common.NewInvalidConfigError(kind, field, "unknown extrapolation %q", e)
		}
	}
	return nil
}

func (c *InterpolationConfig) newNode(tag common.Tag) Node {
	n := &InterpolationNode{
		base:   base{tag},
		config: *c,
	}
	n.config.InputRange = append([]float64(nil), c.InputRange...)
	n.config.OutputRange = append([]float64(nil), c.OutputRange...)
	n.config.OutputColors = append([]uint32(nil), c.OutputColors...)
	if c.IsColor() {
		n.color = c.OutputColors[0]
	}
	return n
}

// InterpolationNode interpolates the value of its first parent.
type InterpolationNode struct {
	base
	config InterpolationConfig
	value  float64
	color  uint32
}

var _ Scalar = (*InterpolationNode)(nil)

func (n *InterpolationNode) Kind() Kind {
	return KindInterpolation
}

func (n *InterpolationNode) Config() Config {
	c := n.config
	return &c
}

// Value provides the numeric result. For color interpolations it
// provides the interpolation progress within the selected segment.
func (n *InterpolationNode) Value() float64 {
	return n.value
}

func (n *InterpolationNode) Output() any {
	if n.config.IsColor() {
		return n.color
	}
	return n.value
}

func (n *InterpolationNode) Update(l Lookup) error {
	parents := l.Parents(n.tag)
	if len(parents) == 0 {
		return nil
	}
	in, err := scalarInput(l, KindInterpolation, "parent", parents[0])
	if err != nil {
		n.value = common.Invalid
		return err
	}
	if common.IsInvalid(in) {
		n.value = common.Invalid
		return nil
	}
	if n.config.IsColor() {
		n.value, n.color = InterpolateColor(in, n.config.InputRange, n.config.OutputColors, n.config.ExtrapolateLeft, n.config.ExtrapolateRight)
		return nil
	}
	n.value = Interpolate(in, n.config.InputRange, n.config.OutputRange, n.config.ExtrapolateLeft, n.config.ExtrapolateRight)
	return nil
}

// findRange provides the index of the range segment to use for an input.
func findRange(in float64, inputRange []float64) int {
	i := 1
	for ; i < len(inputRange)-1; i++ {
		if inputRange[i] >= in {
			break
		}
	}
	return i - 1
}

// Interpolate maps an input through the piecewise linear function given
// by the input and output ranges of equal length. Extrapolation
// defaults to extend.
func Interpolate(in float64, inputRange, outputRange []float64, left, right string) float64 {
	i := findRange(in, inputRange)
	return interpolate(in, inputRange[i], inputRange[i+1], outputRange[i], outputRange[i+1], left, right)
}

func interpolate(in, inMin, inMax, outMin, outMax float64, left, right string) float64 {
	result := in
	if result < inMin {
		switch left {
		case ExtrapolateIdentity:
			return result
		case ExtrapolateClamp:
			result = inMin
		}
	}
	if result > inMax {
		switch right {
		case ExtrapolateIdentity:
			return result
		case ExtrapolateClamp:
			result = inMax
		}
	}

	if outMin == outMax {
		return outMin
	}
	if inMin == inMax {
		if in <= inMin {
			return outMin
		}
		return outMax
	}

	switch {
	case math.IsInf(inMin, -1):
		result = -result
	case math.IsInf(inMax, 1):
		result = result - inMin
	default:
		result = (result - inMin) / (inMax - inMin)
	}

	switch {
	case math.IsInf(outMin, -1):
		return -result
	case math.IsInf(outMax, 1):
		return result + outMin
	default:
		return result*(outMax-outMin) + outMin
	}
}

// InterpolateColor interpolates packed RGBA colors channel by channel.
// It provides the segment progress and the resulting color. Identity
// extrapolation is treated like extend for colors.
func InterpolateColor(in float64, inputRange []float64, colors []uint32, left, right string) (float64, uint32) {
	if left == ExtrapolateIdentity {
		left = ExtrapolateExtend
	}
	if right == ExtrapolateIdentity {
		right = ExtrapolateExtend
	}
	i := findRange(in, inputRange)
	progress := interpolate(in, inputRange[i], inputRange[i+1], 0, 1, left, right)
	from, to := colors[i], colors[i+1]
	var result uint32
	for shift := 24; shift >= 0; shift -= 8 {
		a := float64((from >> shift) & 0xff)
		b := float64((to >> shift) & 0xff)
		c := math.Round(a + progress*(b-a))
		result |= uint32(clamp(c, 0, 255)) << shift
	}
	return progress, result
}

func clamp(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}
