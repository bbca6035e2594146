package manager

import (
	"github.com/mandelsoft/goutils/maputils"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	"github.com/mandelsoft/animated/pkg/events"
	"github.com/mandelsoft/animated/pkg/nodes"
	"github.com/mandelsoft/animated/pkg/utils"
)

// NodeState describes a node in a snapshot.
type NodeState struct {
	Tag      common.Tag       `json:"tag"`
	Kind     nodes.Kind       `json:"kind"`
	Output   any              `json:"output"`
	Parents  []common.Tag     `json:"parents,omitempty"`
	Children []common.Tag     `json:"children,omitempty"`
	Views    []common.ViewTag `json:"views,omitempty"`
}

// DriverState describes an active driver in a snapshot.
type DriverState struct {
	ID    common.AnimationID `json:"id"`
	Node  common.Tag         `json:"node"`
	Type  drivers.Type       `json:"type"`
	State string             `json:"state"`
	Value any                `json:"value"`
}

// Snapshot is a serializable description of the manager state.
// Invalid numbers are represented by null.
type Snapshot struct {
	Nodes     []NodeState      `json:"nodes"`
	Drivers   []DriverState    `json:"drivers,omitempty"`
	Bindings  []events.Binding `json:"bindings,omitempty"`
	Listeners []common.Tag     `json:"listeners,omitempty"`
}

// Fingerprint provides a hash of the canonical JSON form of
// the snapshot.
func (s *Snapshot) Fingerprint() (string, error) {
	return utils.HashData(s)
}

func (m *Manager) Snapshot() *Snapshot {
	s := &Snapshot{}
	for _, tag := range m.graph.Tags() {
		n := m.graph.Get(tag)
		state := NodeState{
			Tag:      tag,
			Kind:     n.Kind(),
			Output:   sanitize(n.Output()),
			Parents:  m.graph.Parents(tag),
			Children: m.graph.Children(tag),
		}
		if p, ok := n.(*nodes.PropsNode); ok {
			state.Views = p.Views()
		}
		s.Nodes = append(s.Nodes, state)
	}
	for _, id := range maputils.OrderedKeys(m.drivers) {
		d := m.drivers[id]
		s.Drivers = append(s.Drivers, DriverState{
			ID:    id,
			Node:  d.Target(),
			Type:  d.Config().Kind(),
			State: d.State().String(),
			Value: sanitize(d.Value()),
		})
	}
	s.Bindings = m.bindings.Bindings()
	s.Listeners = maputils.OrderedKeys(m.listeners)
	return s
}

func sanitize(v any) any {
	switch x := v.(type) {
	case float64:
		if common.IsInvalid(x) {
			return nil
		}
	case common.Props:
		r := common.Props{}
		for k, e := range x {
			r[k] = sanitize(e)
		}
		return r
	}
	return v
}
