package nodes

import (
	"errors"

	"github.com/mandelsoft/goutils/maputils"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// PropertyTransform is the property name used for transform lists.
const PropertyTransform = "transform"

// PropsConfig maps view property names to the nodes providing
// their values.
type PropsConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Props map[string]common.Tag `json:"props"`
}

func (c *PropsConfig) Kind() Kind {
	return KindProps
}

func (c *PropsConfig) Validate() error {
	return requireTags(KindProps, "props", c.Props)
}

func (c *PropsConfig) newNode(tag common.Tag) Node {
	return &PropsNode{
		base:   base{tag},
		config: PropsConfig{Props: cloneTags(c.Props)},
		views:  map[common.ViewTag]string{},
		props:  common.Props{},
	}
}

// StyleConfig maps style property names to the nodes providing
// their values. The resulting record is merged into the properties
// of a props node.
type StyleConfig struct {
	runtime.ObjectMeta `json:",inline"`

	Style map[string]common.Tag `json:"style"`
}

func (c *StyleConfig) Kind() Kind {
	return KindStyle
}

func (c *StyleConfig) Validate() error {
	return requireTags(KindStyle, "style", c.Style)
}

func (c *StyleConfig) newNode(tag common.Tag) Node {
	return &StyleNode{
		base:   base{tag},
		config: StyleConfig{Style: cloneTags(c.Style)},
		record: common.Props{},
	}
}

func cloneTags(m map[string]common.Tag) map[string]common.Tag {
	r := make(map[string]common.Tag, len(m))
	for k, v := range m {
		r[k] = v
	}
	return r
}

// collect resolves named node references into a property record.
// Invalid scalars keep the last good value found in last.
func collect(l Lookup, refs map[string]common.Tag, last common.Props) (common.Props, error) {
	var errs []error
	record := common.Props{}
	for _, name := range maputils.OrderedKeys(refs) {
		n := l.Get(refs[name])
		if n == nil {
			errs = append(errs, &common.UnknownNodeError{Tag: refs[name]})
			if v, ok := last[name]; ok {
				record[name] = v
			}
			continue
		}
		switch out := n.Output().(type) {
		case common.Props:
			for k, v := range out {
				record[k] = v
			}
		case float64:
			if common.IsInvalid(out) {
				if v, ok := last[name]; ok {
					record[name] = v
				}
			} else {
				record[name] = out
			}
		case nil:
		default:
			record[name] = out
		}
	}
	return record, errors.Join(errs...)
}

////////////////////////////////////////////////////////////////////////////////

// StyleNode composes a property record from other nodes.
type StyleNode struct {
	base
	config StyleConfig
	record common.Props
}

func (n *StyleNode) Kind() Kind {
	return KindStyle
}

func (n *StyleNode) Config() Config {
	return Typed(&StyleConfig{Style: cloneTags(n.config.Style)})
}

func (n *StyleNode) Update(l Lookup) error {
	r, err := collect(l, n.config.Style, n.record)
	n.record = r
	return err
}

func (n *StyleNode) Output() any {
	return n.record.Clone()
}

////////////////////////////////////////////////////////////////////////////////

// PropsNode provides the property values for the views it is
// connected to.
type PropsNode struct {
	base
	config PropsConfig
	views  map[common.ViewTag]string
	props  common.Props
}

var _ Restorer = (*PropsNode)(nil)

func (n *PropsNode) Kind() Kind {
	return KindProps
}

func (n *PropsNode) Config() Config {
	return Typed(&PropsConfig{Props: cloneTags(n.config.Props)})
}

func (n *PropsNode) Update(l Lookup) error {
	r, err := collect(l, n.config.Props, n.props)
	n.props = r
	return err
}

func (n *PropsNode) Output() any {
	return n.props.Clone()
}

// ConnectView attaches a view. The view name is informational.
func (n *PropsNode) ConnectView(view common.ViewTag, name string) {
	n.views[view] = name
}

// DisconnectView detaches a view and reports whether it was attached.
func (n *PropsNode) DisconnectView(view common.ViewTag) bool {
	if _, ok := n.views[view]; !ok {
		return false
	}
	delete(n.views, view)
	return true
}

// Views provides the attached views in ascending order.
func (n *PropsNode) Views() []common.ViewTag {
	return maputils.OrderedKeys(n.views)
}

func (n *PropsNode) ViewName(view common.ViewTag) string {
	return n.views[view]
}

// RestoreDefaults forgets all property values. The result
// requests the view defaults for all formerly provided properties.
func (n *PropsNode) RestoreDefaults() common.Props {
	if len(n.props) == 0 {
		return nil
	}
	r := common.Props{}
	for _, k := range maputils.OrderedKeys(n.props) {
		r[k] = nil
	}
	n.props = common.Props{}
	return r
}

// PropertyNames lists the configured property names.
func (n *PropsNode) PropertyNames() []string {
	return maputils.OrderedKeys(n.config.Props)
}
