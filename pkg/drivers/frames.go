package drivers

import (
	"math"
	"time"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

type animation interface {
	// reset starts a new iteration at the given value.
	reset(from float64)
	// sample provides the value for the time elapsed since the
	// iteration start and whether the iteration is complete.
	sample(elapsed time.Duration) (float64, bool)
}

// FramesConfig describes a timing animation by a keyframed easing curve.
// Frames holds the eased progress (0 = start value, 1 = ToValue) sampled
// at 60 frames per second, so the duration is (len(Frames)-1)/60 seconds.
type FramesConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Frames     []float64 `json:"frames"`
	ToValue    float64   `json:"toValue"`
	Iterations int       `json:"iterations,omitempty"`
}

var _ TargetConfig = (*FramesConfig)(nil)

func (c *FramesConfig) Kind() Type {
	return TypeFrames
}

func (c *FramesConfig) Loops() int {
	return loops(c.Iterations)
}

func (c *FramesConfig) GetToValue() float64 {
	return c.ToValue
}

func (c *FramesConfig) WithToValue(v float64) Config {
	n := *c
	n.Frames = append([]float64(nil), c.Frames...)
	n.ToValue = v
	return &n
}

// Duration is the time needed for one iteration.
func (c *FramesConfig) Duration() time.Duration {
	if len(c.Frames) < 2 {
		return 0
	}
	return time.Duration(len(c.Frames)-1) * FrameDuration
}

func (c *FramesConfig) Validate() error {
	if len(c.Frames) == 0 {
		return common.NewInvalidConfigError(string(TypeFrames), "frames", "at least one frame required")
	}
	for i, f := range c.Frames {
		if common.IsInvalid(f) {
			return common.NewInvalidConfigError(string(TypeFrames), "frames", "frame %d is not a number", i)
		}
	}
	if err := validateFinite(TypeFrames, "toValue", c.ToValue); err != nil {
		return err
	}
	return validateIterations(TypeFrames, c.Iterations)
}

func (c *FramesConfig) newAnimation() animation {
	return &frames{config: c}
}

type frames struct {
	config *FramesConfig
	from   float64
}

func (a *frames) reset(from float64) {
	a.from = from
}

func (a *frames) sample(elapsed time.Duration) (float64, bool) {
	curve := a.config.Frames
	index := float64(elapsed) / float64(FrameDuration)
	start := int(math.Floor(index))
	next := start + 1
	if next >= len(curve) {
		return a.config.ToValue, true
	}
	from := curve[start]
	progress := from + (index-float64(start))*(curve[next]-from)
	return a.from + progress*(a.config.ToValue-a.from), false
}
