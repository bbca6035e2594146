package drivers

import (
	"fmt"
	"time"

	"github.com/mandelsoft/animated/pkg/common"
)

// Driver is the runtime state of an animation bound to one value node.
// It is not synchronized; it is stepped on the goroutine owning
// the manager.
type Driver struct {
	id       common.AnimationID
	target   common.Tag
	config   Config
	anim     animation
	callback EndCallback

	state     State
	from      float64
	value     float64
	started   bool
	start     time.Duration
	iteration int
	notified  bool
}

// New creates a pending driver for the given target node, starting
// at the given value. The configuration is validated.
func New(id common.AnimationID, target common.Tag, cfg Config, from float64, cb EndCallback) (*Driver, error) {
	if cfg == nil {
		return nil, common.NewInvalidConfigError("animation", "", "configuration missing")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		id:       id,
		target:   target,
		config:   cfg,
		anim:     cfg.newAnimation(),
		callback: cb,
		from:     from,
		value:    from,
	}
	d.anim.reset(from)
	return d, nil
}

func (d *Driver) ID() common.AnimationID {
	return d.id
}

func (d *Driver) Target() common.Tag {
	return d.target
}

func (d *Driver) Config() Config {
	return d.config
}

func (d *Driver) State() State {
	return d.state
}

// Value is the last computed value.
func (d *Driver) Value() float64 {
	return d.value
}

// Iteration is the number of completed iterations.
func (d *Driver) Iteration() int {
	return d.iteration
}

func (d *Driver) String() string {
	return fmt.Sprintf("%s[%s on node %s, %s]", d.id, describe(d.config), d.target, d.state)
}

// Step advances the driver to the given frame time and provides the new
// value for the target node. The result is false once the driver
// has reached a terminal state. The first observed frame time is taken
// as start time.
func (d *Driver) Step(now time.Duration) (float64, bool) {
	switch d.state {
	case StatePending:
		d.state = StateRunning
	case StateRunning:
	default:
		return d.value, false
	}

	if !d.started {
		d.started = true
		d.start = now
	}
	elapsed := now - d.start
	if elapsed < 0 {
		elapsed = 0
	}

	value, done := d.anim.sample(elapsed)
	d.value = value
	if done {
		d.iteration++
		loops := d.config.Loops()
		if loops == Infinite || d.iteration < loops {
			log.Trace("{{animation}} starts iteration {{iteration}}", "animation", d.id, "iteration", d.iteration+1)
			d.started = false
			d.anim.reset(d.from)
			return value, true
		}
		d.state = StateFinished
		log.Debug("{{animation}} finished on node {{node}} with {{value}}", "animation", d.id, "node", d.target, "value", value)
		return value, false
	}
	return value, true
}

// Stop stops a pending or running driver and reports
// finished=false to the callback. It returns false if the driver
// was already terminated.
func (d *Driver) Stop() bool {
	if d.state.IsTerminal() {
		return false
	}
	d.state = StateStopped
	log.Debug("{{animation}} stopped on node {{node}}", "animation", d.id, "node", d.target)
	d.Notify()
	return true
}

// Notify calls the completion callback for a terminated driver.
// The callback is called at most once.
func (d *Driver) Notify() {
	if d.notified || !d.state.IsTerminal() {
		return
	}
	d.notified = true
	if d.callback != nil {
		d.callback(EndResult{
			Finished: d.state == StateFinished,
			Value:    d.value,
		})
	}
}
