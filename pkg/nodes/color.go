package nodes

import (
	"errors"
	"math"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// ColorConfig references the nodes providing the color channels.
// Red, green and blue are expected in [0,255], alpha in [0,1].
type ColorConfig struct {
	runtime.ObjectMeta `json:",inline"`

	R common.Tag `json:"r"`
	G common.Tag `json:"g"`
	B common.Tag `json:"b"`
	A common.Tag `json:"a"`
}

func (c *ColorConfig) Kind() Kind {
	return KindColor
}

func (c *ColorConfig) Validate() error {
	return nil
}

func (c *ColorConfig) newNode(tag common.Tag) Node {
	return &ColorNode{base: base{tag}, config: *c}
}

// ColorNode provides a packed RGBA color (0xRRGGBBAA).
type ColorNode struct {
	base
	config ColorConfig
	color  uint32
}

func (n *ColorNode) Kind() Kind {
	return KindColor
}

func (n *ColorNode) Config() Config {
	c := n.config
	return &c
}

func (n *ColorNode) Output() any {
	return n.color
}

func (n *ColorNode) Color() uint32 {
	return n.color
}

func (n *ColorNode) Update(l Lookup) error {
	var channels [4]float64
	var errs []error
	for i, t := range []struct {
		field string
		tag   common.Tag
	}{{"r", n.config.R}, {"g", n.config.G}, {"b", n.config.B}, {"a", n.config.A}} {
		v, err := scalarInput(l, KindColor, t.field, t.tag)
		if err != nil {
			errs = append(errs, err)
		}
		channels[i] = v
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, c := range channels {
		if common.IsInvalid(c) {
			// keep last good color
			return nil
		}
	}
	n.color = PackColor(channels[0], channels[1], channels[2], channels[3])
	return nil
}

// PackColor packs channels into 0xRRGGBBAA.
func PackColor(r, g, b, a float64) uint32 {
	return channel(r)<<24 | channel(g)<<16 | channel(b)<<8 | channel(a*255)
}

// UnpackColor splits a packed color into its channels.
func UnpackColor(c uint32) (r, g, b, a float64) {
	return float64(c >> 24 & 0xff), float64(c >> 16 & 0xff), float64(c >> 8 & 0xff), float64(c&0xff) / 255
}

func channel(v float64) uint32 {
	return uint32(clamp(math.Round(v), 0, 255))
}
