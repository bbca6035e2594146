// Package scenario provides YAML documents describing an animated
// graph, its drivers and a timeline of values and events. A scenario
// is replayed frame by frame against a manager driven by a simulated
// clock.
//
// Documents are subject to variable substitution (${VAR},
// ${VAR:-default}) before they are parsed.
package scenario

import (
	"fmt"

	"github.com/drone/envsubst"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	"github.com/mandelsoft/animated/pkg/events"
	"github.com/mandelsoft/animated/pkg/nodes"
)

// DefaultFrames is the frame limit used if a scenario does not
// specify one.
const DefaultFrames = 600

type Scenario struct {
	Name string `json:"name,omitempty"`
	// Frames limits the number of processed frames.
	Frames int `json:"frames,omitempty"`
	// Period is the frame period in milliseconds.
	Period float64 `json:"period,omitempty"`

	Nodes      []Node           `json:"nodes"`
	Edges      []Edge           `json:"edges,omitempty"`
	Views      []View           `json:"views,omitempty"`
	Bindings   []events.Binding `json:"bindings,omitempty"`
	Listen     []common.Tag     `json:"listen,omitempty"`
	Animations []Animation      `json:"animations,omitempty"`
	Values     []Value          `json:"values,omitempty"`
	Events     []Event          `json:"events,omitempty"`
}

type Node struct {
	Tag    common.Tag `json:"tag"`
	Config nodes.Spec `json:"config"`
}

type Edge struct {
	Parent common.Tag `json:"parent"`
	Child  common.Tag `json:"child"`
}

type View struct {
	Node common.Tag     `json:"node"`
	View common.ViewTag `json:"view"`
	Name string         `json:"name,omitempty"`
}

// Animation starts a driver before the given frame is processed.
type Animation struct {
	ID     common.AnimationID `json:"id"`
	Node   common.Tag         `json:"node"`
	Frame  int                `json:"frame,omitempty"`
	Config drivers.Spec       `json:"config"`
}

// Value sets the value or the offset of a value node before the
// given frame is processed.
type Value struct {
	Frame  int        `json:"frame,omitempty"`
	Node   common.Tag `json:"node"`
	Value  *float64   `json:"value,omitempty"`
	Offset *float64   `json:"offset,omitempty"`
}

// Event is dispatched before the given frame is processed.
type Event struct {
	Frame int `json:"frame,omitempty"`
	events.Event
}

// Load reads a scenario from a file system.
func Load(fs vfs.FileSystem, path string, vars map[string]string) (*Scenario, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data, vars)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", path, err)
	}
	return s, nil
}

// Parse substitutes the given variables and decodes a scenario.
// Unknown variables are substituted by an empty string, unknown
// fields are rejected.
func Parse(data []byte, vars map[string]string) (*Scenario, error) {
	doc, err := envsubst.Eval(string(data), func(name string) string {
		return vars[name]
	})
	if err != nil {
		return nil, fmt.Errorf("substitution failed: %w", err)
	}
	var s Scenario
	err = yaml.UnmarshalStrict([]byte(doc), &s)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) Validate() error {
	if s.Frames < 0 {
		return fmt.Errorf("frames must not be negative")
	}
	if s.Period < 0 {
		return fmt.Errorf("period must not be negative")
	}
	for i, n := range s.Nodes {
		if n.Config.Config == nil {
			return fmt.Errorf("node %d (index %d): config missing", n.Tag, i)
		}
	}
	for i, a := range s.Animations {
		if a.Config.Config == nil {
			return fmt.Errorf("animation %d (index %d): config missing", a.ID, i)
		}
		if a.Frame < 0 {
			return fmt.Errorf("animation %d: frame must not be negative", a.ID)
		}
	}
	for i, v := range s.Values {
		if v.Value == nil && v.Offset == nil {
			return fmt.Errorf("value %d for node %d: value or offset required", i, v.Node)
		}
		if v.Frame < 0 {
			return fmt.Errorf("value %d for node %d: frame must not be negative", i, v.Node)
		}
	}
	for i, e := range s.Events {
		if e.Name == "" {
			return fmt.Errorf("event %d: name missing", i)
		}
		if e.Frame < 0 {
			return fmt.Errorf("event %d: frame must not be negative", i)
		}
	}
	return nil
}
