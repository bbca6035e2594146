package drivers

import (
	"time"

	"github.com/mandelsoft/goutils/general"
	"github.com/mandelsoft/goutils/maputils"
	"github.com/tanema/gween/ease"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// EasingLinear is the default easing function.
const EasingLinear = "linear"

var easings = map[string]ease.TweenFunc{
	EasingLinear:   ease.Linear,
	"inQuad":       ease.InQuad,
	"outQuad":      ease.OutQuad,
	"inOutQuad":    ease.InOutQuad,
	"inCubic":      ease.InCubic,
	"outCubic":     ease.OutCubic,
	"inOutCubic":   ease.InOutCubic,
	"inSine":       ease.InSine,
	"outSine":      ease.OutSine,
	"inOutSine":    ease.InOutSine,
	"inExpo":       ease.InExpo,
	"outExpo":      ease.OutExpo,
	"inOutExpo":    ease.InOutExpo,
	"inCirc":       ease.InCirc,
	"outCirc":      ease.OutCirc,
	"inOutCirc":    ease.InOutCirc,
	"inBack":       ease.InBack,
	"outBack":      ease.OutBack,
	"inOutBack":    ease.InOutBack,
	"inElastic":    ease.InElastic,
	"outElastic":   ease.OutElastic,
	"inOutElastic": ease.InOutElastic,
	"inBounce":     ease.InBounce,
	"outBounce":    ease.OutBounce,
	"inOutBounce":  ease.InOutBounce,
}

// Easings returns the names of the supported easing functions.
func Easings() []string {
	return maputils.OrderedKeys(easings)
}

// TimingConfig describes a timing animation by a named easing function
// and a duration in milliseconds.
type TimingConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Easing     string  `json:"easing,omitempty"`
	Duration   float64 `json:"duration"`
	ToValue    float64 `json:"toValue"`
	Iterations int     `json:"iterations,omitempty"`
}

var _ TargetConfig = (*TimingConfig)(nil)

func (c *TimingConfig) Kind() Type {
	return TypeTiming
}

func (c *TimingConfig) Loops() int {
	return loops(c.Iterations)
}

func (c *TimingConfig) GetToValue() float64 {
	return c.ToValue
}

func (c *TimingConfig) WithToValue(v float64) Config {
	n := *c
	n.ToValue = v
	return &n
}

func (c *TimingConfig) Validate() error {
	if c.Easing != "" && easings[c.Easing] == nil {
		return common.NewInvalidConfigError(string(TypeTiming), "easing", "unknown easing function %q", c.Easing)
	}
	if err := validateFinite(TypeTiming, "duration", c.Duration); err != nil {
		return err
	}
	if c.Duration < 0 {
		return common.NewInvalidConfigError(string(TypeTiming), "duration", "must be a non-negative number of milliseconds")
	}
	if err := validateFinite(TypeTiming, "toValue", c.ToValue); err != nil {
		return err
	}
	return validateIterations(TypeTiming, c.Iterations)
}

func (c *TimingConfig) newAnimation() animation {
	return &timing{
		config: c,
		easing: easings[general.OptionalDefaulted(EasingLinear, c.Easing)],
	}
}

type timing struct {
	config *TimingConfig
	easing ease.TweenFunc
	from   float64
}

func (a *timing) reset(from float64) {
	a.from = from
}

func (a *timing) sample(elapsed time.Duration) (float64, bool) {
	ms := millis(elapsed)
	if ms >= a.config.Duration {
		return a.config.ToValue, true
	}
	progress := float64(a.easing(float32(ms/a.config.Duration), 0, 1, 1))
	return a.from + progress*(a.config.ToValue-a.from), false
}
