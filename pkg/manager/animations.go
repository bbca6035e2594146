package manager

import (
	"github.com/mandelsoft/goutils/maputils"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	"github.com/mandelsoft/animated/pkg/nodes"
)

// StartAnimating starts a driver on a value node. A driver with the
// same id and any driver active on the node are stopped first. The
// driver starts with the first frame after the call.
func (m *Manager) StartAnimating(id common.AnimationID, tag common.Tag, cfg drivers.Config, cb drivers.EndCallback) error {
	n, err := m.value(tag)
	if err != nil {
		return err
	}
	d, err := drivers.New(id, tag, cfg, n.Base(), cb)
	if err != nil {
		return err
	}
	m.StopAnimation(id)
	m.stopDriversFor(tag)
	m.drivers[id] = d
	m.log.Debug("started {{animation}}", "animation", d)
	return nil
}

// StopAnimation stops a driver. Unknown ids are ignored.
func (m *Manager) StopAnimation(id common.AnimationID) {
	d := m.drivers[id]
	if d == nil {
		return
	}
	delete(m.drivers, id)
	d.Stop()
}

// StopAnimationLoop stops all drivers.
func (m *Manager) StopAnimationLoop() {
	for _, id := range maputils.OrderedKeys(m.drivers) {
		m.StopAnimation(id)
	}
}

// Animations lists the ids of the active drivers.
func (m *Manager) Animations() []common.AnimationID {
	return maputils.OrderedKeys(m.drivers)
}

// Animation provides the driver for an id, or nil.
func (m *Manager) Animation(id common.AnimationID) *drivers.Driver {
	return m.drivers[id]
}

func (m *Manager) stopDriversFor(tag common.Tag) {
	for _, id := range maputils.OrderedKeys(m.drivers) {
		if m.drivers[id].Target() == tag {
			m.StopAnimation(id)
		}
	}
}

func (m *Manager) startTracking(a nodes.Animation) {
	n, err := m.value(a.Target)
	if err != nil {
		m.log.LogError(err, "cannot track {{animation}}", "animation", a.ID)
		return
	}
	d, err := drivers.New(a.ID, a.Target, a.Config, n.Base(), nil)
	if err != nil {
		m.log.LogError(err, "cannot track {{animation}}", "animation", a.ID)
		return
	}
	m.StopAnimation(a.ID)
	m.stopDriversFor(a.Target)
	m.drivers[a.ID] = d
	m.log.Debug("tracking started {{animation}}", "animation", d)
}
