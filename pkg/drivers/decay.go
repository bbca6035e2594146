package drivers

import (
	"math"
	"time"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

const (
	defaultDeceleration = 0.998
	// decayRestDelta is the per frame change below which a decay is
	// considered complete.
	decayRestDelta = 0.1
)

// DecayConfig describes an exponential decay of an initial velocity,
// measured in units per millisecond. The value follows
//
//	v0/(1-k) * (1 - e^(-(1-k)*t))
//
// for deceleration k and t in milliseconds.
type DecayConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Velocity     float64 `json:"velocity"`
	Deceleration float64 `json:"deceleration,omitempty"`
	Iterations   int     `json:"iterations,omitempty"`
}

var _ Config = (*DecayConfig)(nil)

func (c *DecayConfig) Kind() Type {
	return TypeDecay
}

func (c *DecayConfig) Loops() int {
	return loops(c.Iterations)
}

func (c *DecayConfig) EffectiveDeceleration() float64 {
	if c.Deceleration == 0 {
		return defaultDeceleration
	}
	return c.Deceleration
}

func (c *DecayConfig) Validate() error {
	if err := validateFinite(TypeDecay, "velocity", c.Velocity); err != nil {
		return err
	}
	k := c.EffectiveDeceleration()
	if k <= 0 || k >= 1 || common.IsInvalid(k) {
		return common.NewInvalidConfigError(string(TypeDecay), "deceleration", "must be in (0,1), found %g", k)
	}
	return validateIterations(TypeDecay, c.Iterations)
}

func (c *DecayConfig) newAnimation() animation {
	return &decay{config: c, k: c.EffectiveDeceleration()}
}

type decay struct {
	config *DecayConfig
	k      float64
	from   float64
	last   float64
	moved  bool
}

func (a *decay) reset(from float64) {
	a.from = from
	a.last = from
	a.moved = false
}

func (a *decay) sample(elapsed time.Duration) (float64, bool) {
	t := millis(elapsed)
	f := 1 - a.k
	value := a.from + a.config.Velocity/f*(1-math.Exp(-f*t))
	if a.moved && math.Abs(a.last-value) < decayRestDelta {
		return value, true
	}
	a.moved = t > 0
	a.last = value
	return value, false
}
