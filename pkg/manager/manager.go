// Package manager provides the nodes manager owning an animated graph
// together with its drivers, event bindings and listeners.
//
// The manager is not synchronized. All commands, the frame entry point
// Step and event dispatch must be called on the same goroutine, for
// example with clock.DisplayLink.Do. Structural commands are validated
// before any modification, a rejected command leaves the manager
// unchanged.
package manager

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mandelsoft/logging"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	"github.com/mandelsoft/animated/pkg/events"
	"github.com/mandelsoft/animated/pkg/graph"
	"github.com/mandelsoft/animated/pkg/nodes"
)

type Manager struct {
	id  string
	log logging.Logger

	graph     *graph.Graph
	drivers   map[common.AnimationID]*drivers.Driver
	bindings  *events.Registry
	listeners map[common.Tag]Observer
	notified  map[common.Tag]float64
	sink      Sink

	dirty sets.Set[common.Tag]
	now   time.Duration
}

// New creates a manager emitting property updates to the given sink.
// Without logging context the default context is used.
func New(lctx logging.Context, sink Sink) *Manager {
	if lctx == nil {
		lctx = logging.DefaultContext()
	}
	if sink == nil {
		sink = nullSink{}
	}
	id := uuid.New().String()
	return &Manager{
		id:        id,
		log:       lctx.Logger(REALM).WithValues("manager", id),
		graph:     graph.New(),
		drivers:   map[common.AnimationID]*drivers.Driver{},
		bindings:  events.NewRegistry(),
		listeners: map[common.Tag]Observer{},
		notified:  map[common.Tag]float64{},
		sink:      sink,
		dirty:     sets.New[common.Tag](),
	}
}

func (m *Manager) ID() string {
	return m.id
}

// Now provides the last frame time passed to Step.
func (m *Manager) Now() time.Duration {
	return m.now
}

////////////////////////////////////////////////////////////////////////////////
// graph

func (m *Manager) CreateNode(tag common.Tag, cfg nodes.Config) error {
	if m.graph.Has(tag) {
		return &common.DuplicateTagError{Tag: tag}
	}
	n, err := nodes.New(tag, cfg)
	if err != nil {
		return err
	}
	if err := m.graph.Add(n); err != nil {
		return err
	}
	m.log.Debug("created node {{node}}", "node", nodes.Describe(n))
	return nil
}

func (m *Manager) ConnectNodes(parent, child common.Tag) error {
	added, err := m.graph.Connect(parent, child)
	if err != nil {
		return err
	}
	if added {
		m.dirty.Insert(child)
	}
	return nil
}

func (m *Manager) DisconnectNodes(parent, child common.Tag) error {
	if err := m.graph.Disconnect(parent, child); err != nil {
		return err
	}
	m.dirty.Insert(child)
	return nil
}

// DropNode removes a node without remaining edges together with its
// drivers, listener and event bindings.
func (m *Manager) DropNode(tag common.Tag) error {
	n, err := m.graph.Remove(tag)
	if err != nil {
		return err
	}
	m.stopDriversFor(tag)
	delete(m.listeners, tag)
	delete(m.notified, tag)
	m.bindings.RemoveNode(tag)
	m.dirty.Delete(tag)
	m.log.Debug("dropped node {{node}}", "node", nodes.Describe(n))
	return nil
}

func (m *Manager) ConnectToView(tag common.Tag, view common.ViewTag, name string) error {
	p, err := m.props(tag)
	if err != nil {
		return err
	}
	p.ConnectView(view, name)
	m.dirty.Insert(tag)
	m.log.Debug("connected node {{node}} to {{view}}", "node", tag, "view", view, "name", name)
	return nil
}

func (m *Manager) DisconnectFromView(tag common.Tag, view common.ViewTag) error {
	p, err := m.props(tag)
	if err != nil {
		return err
	}
	if p.DisconnectView(view) {
		m.log.Debug("disconnected node {{node}} from {{view}}", "node", tag, "view", view)
	}
	return nil
}

// RestoreDefaultValues resets a value node to its configured value.
// For a props node the views are requested to use their defaults for
// all properties provided by the node.
func (m *Manager) RestoreDefaultValues(tag common.Tag) error {
	n := m.graph.Get(tag)
	if n == nil {
		return &common.UnknownNodeError{Tag: tag}
	}
	r, ok := n.(nodes.Restorer)
	if !ok {
		return common.NewInvalidConfigError(n.Kind().String(), "", "node %s has no default values", tag)
	}
	if _, ok := n.(*nodes.ValueNode); ok {
		m.stopDriversFor(tag)
		m.dirty.Insert(tag)
	}
	props := r.RestoreDefaults()
	if p, ok := n.(*nodes.PropsNode); ok && len(props) > 0 {
		for _, v := range p.Views() {
			m.sink.ApplyProps(v, props.Clone())
		}
	}
	return nil
}

// Get provides the node for a tag, or nil.
func (m *Manager) Get(tag common.Tag) nodes.Node {
	return m.graph.Get(tag)
}

func (m *Manager) Parents(tag common.Tag) []common.Tag {
	return m.graph.Parents(tag)
}

func (m *Manager) Children(tag common.Tag) []common.Tag {
	return m.graph.Children(tag)
}

// Tags provides all node tags in creation order.
func (m *Manager) Tags() []common.Tag {
	return m.graph.Tags()
}

func (m *Manager) Len() int {
	return m.graph.Len()
}

// Reachable provides the transitive children of a node.
func (m *Manager) Reachable(tag common.Tag) sets.Set[common.Tag] {
	return m.graph.Reachable(tag)
}

////////////////////////////////////////////////////////////////////////////////
// values

func (m *Manager) SetValue(tag common.Tag, v float64) error {
	n, err := m.value(tag)
	if err != nil {
		return err
	}
	m.stopDriversFor(tag)
	n.SetValue(v)
	m.dirty.Insert(tag)
	return nil
}

func (m *Manager) SetOffset(tag common.Tag, v float64) error {
	n, err := m.value(tag)
	if err != nil {
		return err
	}
	n.SetOffset(v)
	m.dirty.Insert(tag)
	return nil
}

func (m *Manager) FlattenOffset(tag common.Tag) error {
	n, err := m.value(tag)
	if err != nil {
		return err
	}
	n.FlattenOffset()
	return nil
}

func (m *Manager) ExtractOffset(tag common.Tag) error {
	n, err := m.value(tag)
	if err != nil {
		return err
	}
	n.ExtractOffset()
	return nil
}

// GetValue calls the callback with the current value of a node.
func (m *Manager) GetValue(tag common.Tag, cb func(float64)) error {
	s, err := m.scalar(tag)
	if err != nil {
		return err
	}
	if cb != nil {
		cb(s.Value())
	}
	return nil
}

// StartListening registers the observer for a node, replacing
// a former one.
func (m *Manager) StartListening(tag common.Tag, o Observer) error {
	if _, err := m.scalar(tag); err != nil {
		return err
	}
	if o == nil {
		return common.NewInvalidConfigError("listener", "", "observer missing")
	}
	m.listeners[tag] = o
	delete(m.notified, tag)
	return nil
}

func (m *Manager) StopListening(tag common.Tag) {
	delete(m.listeners, tag)
	delete(m.notified, tag)
}

////////////////////////////////////////////////////////////////////////////////
// events

// AddEventBinding feeds the value found at the path of the mapping
// in the payload of matching events into the mapped value node.
func (m *Manager) AddEventBinding(view common.ViewTag, name string, mapping events.Mapping) error {
	if _, err := m.value(mapping.Node); err != nil {
		return err
	}
	return m.bindings.Add(view, name, mapping)
}

func (m *Manager) RemoveEventBinding(view common.ViewTag, name string, tag common.Tag) {
	m.bindings.Remove(view, name, tag)
}

// HandleEvent writes the event values into the bound nodes and
// evaluates the graph. Payload path errors are logged and returned,
// the remaining bindings are still processed.
func (m *Manager) HandleEvent(ev events.Event) error {
	var errs []error
	for _, b := range m.bindings.Match(ev.View, ev.Name) {
		v, err := events.Extract(ev.Payload, b.Path)
		if err != nil {
			m.log.LogError(err, "cannot handle {{event}} of {{view}} for node {{node}}", "event", ev.Name, "view", ev.View, "node", b.Node)
			errs = append(errs, err)
			continue
		}
		n, err := m.value(b.Node)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.stopDriversFor(b.Node)
		n.SetValue(v)
		m.dirty.Insert(b.Node)
	}
	m.evaluate()
	return errors.Join(errs...)
}

////////////////////////////////////////////////////////////////////////////////
// lookup

func (m *Manager) node(tag common.Tag) (nodes.Node, error) {
	n := m.graph.Get(tag)
	if n == nil {
		return nil, &common.UnknownNodeError{Tag: tag}
	}
	return n, nil
}

func (m *Manager) value(tag common.Tag) (*nodes.ValueNode, error) {
	n, err := m.node(tag)
	if err != nil {
		return nil, err
	}
	v, ok := n.(*nodes.ValueNode)
	if !ok {
		return nil, kindError(n, nodes.KindValue)
	}
	return v, nil
}

func (m *Manager) scalar(tag common.Tag) (nodes.Scalar, error) {
	n, err := m.node(tag)
	if err != nil {
		return nil, err
	}
	s, ok := n.(nodes.Scalar)
	if !ok {
		return nil, common.NewInvalidConfigError(n.Kind().String(), "", "node %s has no numeric value", tag)
	}
	return s, nil
}

func (m *Manager) props(tag common.Tag) (*nodes.PropsNode, error) {
	n, err := m.node(tag)
	if err != nil {
		return nil, err
	}
	p, ok := n.(*nodes.PropsNode)
	if !ok {
		return nil, kindError(n, nodes.KindProps)
	}
	return p, nil
}

func kindError(n nodes.Node, exp nodes.Kind) error {
	return common.NewInvalidConfigError(n.Kind().String(), "", "node %s is no %s node", n.Tag(), exp)
}

func (m *Manager) String() string {
	return fmt.Sprintf("manager %s[%d nodes, %d drivers]", m.id, m.graph.Len(), len(m.drivers))
}
