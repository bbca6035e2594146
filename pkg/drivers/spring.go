package drivers

import (
	"math"
	"time"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

const (
	// springStep is the fixed integration sub-step.
	springStep = time.Millisecond
	// springMaxFrame limits the integrated time of a single frame after
	// the clock has been stalled.
	springMaxFrame = 64 * time.Millisecond
	// springRestFrames is the number of consecutive frames a spring
	// must be at rest to be considered settled.
	springRestFrames = 3

	defaultStiffness      = 100
	defaultDamping        = 10
	defaultMass           = 1
	defaultRestThreshold  = 0.001
	defaultSpeedThreshold = 0.001
)

// SpringConfig describes a damped spring animating toward ToValue.
// Either Stiffness/Damping or the legacy Tension/Friction pair may be
// given. InitialVelocity is measured in units per second.
type SpringConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Stiffness                 float64 `json:"stiffness,omitempty"`
	Damping                   float64 `json:"damping,omitempty"`
	Mass                      float64 `json:"mass,omitempty"`
	Tension                   float64 `json:"tension,omitempty"`
	Friction                  float64 `json:"friction,omitempty"`
	InitialVelocity           float64 `json:"initialVelocity,omitempty"`
	ToValue                   float64 `json:"toValue"`
	OvershootClamping         bool    `json:"overshootClamping,omitempty"`
	RestDisplacementThreshold float64 `json:"restDisplacementThreshold,omitempty"`
	RestSpeedThreshold        float64 `json:"restSpeedThreshold,omitempty"`
	Iterations                int     `json:"iterations,omitempty"`
}

var _ TargetConfig = (*SpringConfig)(nil)

func (c *SpringConfig) Kind() Type {
	return TypeSpring
}

func (c *SpringConfig) Loops() int {
	return loops(c.Iterations)
}

func (c *SpringConfig) GetToValue() float64 {
	return c.ToValue
}

func (c *SpringConfig) WithToValue(v float64) Config {
	n := *c
	n.ToValue = v
	return &n
}

// Effective provides the physical parameters with defaults applied.
// Tension and friction are converted to stiffness and damping like
// the origami spring model does.
func (c *SpringConfig) Effective() (stiffness, damping, mass float64) {
	stiffness, damping, mass = c.Stiffness, c.Damping, c.Mass
	if stiffness == 0 && damping == 0 && (c.Tension != 0 || c.Friction != 0) {
		stiffness = (c.Tension-30)*3.62 + 194
		damping = (c.Friction-8)*3 + 25
	}
	if stiffness == 0 {
		stiffness = defaultStiffness
	}
	if damping == 0 {
		damping = defaultDamping
	}
	if mass == 0 {
		mass = defaultMass
	}
	return
}

func (c *SpringConfig) Validate() error {
	stiffness, damping, mass := c.Effective()
	if stiffness <= 0 || common.IsInvalid(stiffness) {
		return common.NewInvalidConfigError(string(TypeSpring), "stiffness", "must be positive")
	}
	if damping < 0 || common.IsInvalid(damping) {
		return common.NewInvalidConfigError(string(TypeSpring), "damping", "must not be negative")
	}
	if mass <= 0 || common.IsInvalid(mass) {
		return common.NewInvalidConfigError(string(TypeSpring), "mass", "must be positive")
	}
	if c.RestDisplacementThreshold < 0 {
		return common.NewInvalidConfigError(string(TypeSpring), "restDisplacementThreshold", "must not be negative")
	}
	if c.RestSpeedThreshold < 0 {
		return common.NewInvalidConfigError(string(TypeSpring), "restSpeedThreshold", "must not be negative")
	}
	if err := validateFinite(TypeSpring, "initialVelocity", c.InitialVelocity); err != nil {
		return err
	}
	if err := validateFinite(TypeSpring, "toValue", c.ToValue); err != nil {
		return err
	}
	return validateIterations(TypeSpring, c.Iterations)
}

func (c *SpringConfig) newAnimation() animation {
	stiffness, damping, mass := c.Effective()
	a := &spring{
		config:    c,
		stiffness: stiffness,
		damping:   damping,
		mass:      mass,
		restDisp:  c.RestDisplacementThreshold,
		restSpeed: c.RestSpeedThreshold,
	}
	if a.restDisp == 0 {
		a.restDisp = defaultRestThreshold
	}
	if a.restSpeed == 0 {
		a.restSpeed = defaultSpeedThreshold
	}
	return a
}

type spring struct {
	config *SpringConfig

	stiffness float64
	damping   float64
	mass      float64
	restDisp  float64
	restSpeed float64

	from     float64
	position float64
	velocity float64
	last     time.Duration
	resting  int
}

func (a *spring) reset(from float64) {
	a.from = from
	a.position = from
	a.velocity = a.config.InitialVelocity
	a.last = 0
	a.resting = 0
}

func (a *spring) sample(elapsed time.Duration) (float64, bool) {
	to := a.config.ToValue
	delta := elapsed - a.last
	a.last = elapsed
	if delta > springMaxFrame {
		delta = springMaxFrame
	}

	for delta > 0 {
		step := springStep
		if delta < step {
			step = delta
		}
		delta -= step
		dt := step.Seconds()

		// semi-implicit Euler: the velocity is updated first and the
		// new velocity is used for the position.
		accel := (-a.stiffness*(a.position-to) - a.damping*a.velocity) / a.mass
		a.velocity += accel * dt
		a.position += a.velocity * dt
	}

	if a.overshooting() {
		return to, true
	}
	if math.Abs(a.velocity) <= a.restSpeed && math.Abs(a.position-to) <= a.restDisp {
		a.resting++
		if a.resting >= springRestFrames {
			return to, true
		}
	} else {
		a.resting = 0
	}
	return a.position, false
}

func (a *spring) overshooting() bool {
	if !a.config.OvershootClamping {
		return false
	}
	to := a.config.ToValue
	if a.from < to {
		return a.position > to
	}
	return a.position < to
}
