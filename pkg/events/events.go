// Package events maps host UI events to value nodes.
//
// An event binding connects an event name of a view to a value node.
// The value written to the node is read from the event payload by a
// dot separated path, for example nativeEvent.contentOffset.y.
package events

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/mandelsoft/goutils/maputils"

	"github.com/mandelsoft/animated/pkg/common"
)

// Event is a UI event emitted by a host view.
type Event struct {
	View    common.ViewTag `json:"view"`
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Mapping describes the node fed by an event and the payload path
// providing the value.
type Mapping struct {
	Node common.Tag `json:"nodeTag"`
	Path string     `json:"path"`
}

// Binding is a mapping registered for a view event.
type Binding struct {
	View common.ViewTag `json:"view"`
	Name string         `json:"name"`
	Mapping
}

// NormalizeName maps the property form of an event name (onScroll)
// to the registration form (topScroll).
func NormalizeName(name string) string {
	if len(name) > 2 && strings.HasPrefix(name, "on") && unicode.IsUpper(rune(name[2])) {
		return "top" + name[2:]
	}
	return name
}

type key struct {
	view common.ViewTag
	name string
}

// Registry keeps the event bindings. It is not synchronized.
type Registry struct {
	bindings map[key][]Mapping
}

func NewRegistry() *Registry {
	return &Registry{bindings: map[key][]Mapping{}}
}

// Add adds a binding. Several bindings may share a view event.
// An identical binding is kept only once.
func (r *Registry) Add(view common.ViewTag, name string, m Mapping) error {
	if _, err := ParsePath(m.Path); err != nil {
		return err
	}
	k := key{view, NormalizeName(name)}
	if slices.Contains(r.bindings[k], m) {
		return nil
	}
	r.bindings[k] = append(r.bindings[k], m)
	log.Debug("added binding {{view}}/{{event}} -> {{node}}", "view", view, "event", k.name, "node", m.Node, "path", m.Path)
	return nil
}

// Remove removes the bindings of a view event feeding the given node.
// It reports whether a binding was found.
func (r *Registry) Remove(view common.ViewTag, name string, node common.Tag) bool {
	k := key{view, NormalizeName(name)}
	list := r.bindings[k]
	n := len(list)
	list = slices.DeleteFunc(list, func(m Mapping) bool { return m.Node == node })
	if len(list) == 0 {
		delete(r.bindings, k)
	} else {
		r.bindings[k] = list
	}
	return len(list) != n
}

// RemoveNode removes all bindings feeding the given node.
func (r *Registry) RemoveNode(node common.Tag) {
	for k := range r.bindings {
		r.Remove(k.view, k.name, node)
	}
}

// Match provides the mappings for a view event in registration order.
func (r *Registry) Match(view common.ViewTag, name string) []Mapping {
	return slices.Clone(r.bindings[key{view, NormalizeName(name)}])
}

// Bindings lists all bindings ordered by view and event name.
func (r *Registry) Bindings() []Binding {
	keys := maputils.Keys(r.bindings, func(a, b key) int {
		if a.view != b.view {
			return int(a.view) - int(b.view)
		}
		return strings.Compare(a.name, b.name)
	})
	var result []Binding
	for _, k := range keys {
		for _, m := range r.bindings[k] {
			result = append(result, Binding{View: k.view, Name: k.name, Mapping: m})
		}
	}
	return result
}

func (r *Registry) Len() int {
	n := 0
	for _, l := range r.bindings {
		n += len(l)
	}
	return n
}

// ParsePath splits a dot separated payload path.
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, &common.EventPathError{Path: path, Message: "empty path"}
	}
	fields := strings.Split(path, ".")
	for _, f := range fields {
		if f == "" {
			return nil, &common.EventPathError{Path: path, Message: "empty path segment"}
		}
	}
	return fields, nil
}

// Extract reads the number found at a dot separated path of a payload.
// Nested objects are expected as map[string]any, list elements are
// addressed by their index.
func Extract(payload map[string]any, path string) (float64, error) {
	fields, err := ParsePath(path)
	if err != nil {
		return 0, err
	}
	var cur any = payload
	for i, f := range fields {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[f]
			if !ok {
				return 0, &common.EventPathError{Path: path, Message: "field " + strings.Join(fields[:i+1], ".") + " not found"}
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(f)
			if err != nil || idx < 0 || idx >= len(c) {
				return 0, &common.EventPathError{Path: path, Message: "invalid index " + strings.Join(fields[:i+1], ".")}
			}
			cur = c[idx]
		default:
			return 0, &common.EventPathError{Path: path, Message: strings.Join(fields[:i], ".") + " is no object"}
		}
	}
	v, ok := number(cur)
	if !ok {
		return 0, &common.EventPathError{Path: path, Message: "no number"}
	}
	return v, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
