package manager

import (
	"errors"
	"time"

	"github.com/mandelsoft/goutils/maputils"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	"github.com/mandelsoft/animated/pkg/nodes"
)

// Step processes a frame. It advances all drivers to the given frame
// time, evaluates the affected nodes and notifies the sink and the
// listeners. Completion callbacks are called after the evaluation.
// The result reports whether further frames are required.
func (m *Manager) Step(now time.Duration) bool {
	m.now = now

	var finished []*drivers.Driver
	for _, id := range maputils.OrderedKeys(m.drivers) {
		d := m.drivers[id]
		v, active := d.Step(now)
		if n, ok := m.graph.Get(d.Target()).(*nodes.ValueNode); ok && n.Base() != v {
			n.SetValue(v)
			m.dirty.Insert(d.Target())
		}
		if !active {
			delete(m.drivers, id)
			finished = append(finished, d)
		}
	}

	m.evaluate()

	for _, d := range finished {
		d.Notify()
	}
	return m.IsActive()
}

// IsActive reports whether drivers are running or nodes are
// waiting for evaluation.
func (m *Manager) IsActive() bool {
	return len(m.drivers) > 0 || m.dirty.Len() > 0
}

// Evaluate evaluates all nodes marked by former commands.
func (m *Manager) Evaluate() {
	m.evaluate()
}

func (m *Manager) evaluate() {
	if m.dirty.Len() == 0 {
		return
	}
	seeds := m.dirty.UnsortedList()
	m.dirty = sets.New[common.Tag]()

	order := m.graph.Order(seeds...)
	m.log.Trace("evaluating {{count}} nodes", "count", len(order))
	for _, tag := range order {
		n := m.graph.Get(tag)
		if err := n.Update(m.graph); err != nil {
			if errors.Is(err, common.ErrArithmetic) {
				m.log.Debug("evaluation of {{node}}: {{error}}", "node", nodes.Describe(n), "error", err)
			} else {
				m.log.LogError(err, "evaluation of {{node}} failed", "node", nodes.Describe(n))
			}
		}
		switch x := n.(type) {
		case *nodes.PropsNode:
			m.emit(x)
		case *nodes.TrackingNode:
			if a, ok := x.Triggered(); ok {
				m.startTracking(a)
			}
		}
		if s, ok := n.(nodes.Scalar); ok {
			m.notify(tag, s.Value())
		}
	}
}

func (m *Manager) emit(p *nodes.PropsNode) {
	props, _ := p.Output().(common.Props)
	if len(props) == 0 {
		return
	}
	for _, v := range p.Views() {
		m.sink.ApplyProps(v, props.Clone())
	}
}

func (m *Manager) notify(tag common.Tag, v float64) {
	o := m.listeners[tag]
	if o == nil || common.IsInvalid(v) {
		return
	}
	if last, ok := m.notified[tag]; ok && last == v {
		return
	}
	m.notified[tag] = v
	o(v)
}
