// Package common provides the identifiers and error taxonomy shared by
// the node graph, the drivers, the event bindings and the manager.
package common

import (
	"fmt"
	"math"
)

// Tag identifies a node. Tags are assigned by the host and are never
// reused while the node is alive.
type Tag int

func (t Tag) String() string {
	return fmt.Sprintf("%d", int(t))
}

// ViewTag identifies a host view receiving property updates.
type ViewTag int

func (t ViewTag) String() string {
	return fmt.Sprintf("view %d", int(t))
}

// AnimationID identifies a driver.
type AnimationID int

func (id AnimationID) String() string {
	return fmt.Sprintf("animation %d", int(id))
}

// Props is a set of named view properties passed to a sink.
// Values are float64, uint32 (packed colors), transform lists
// ([]map[string]any) or nil to request the view default.
type Props map[string]any

// Clone provides a shallow copy, so that sinks never see internal state.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	r := make(Props, len(p))
	for k, v := range p {
		r[k] = v
	}
	return r
}

// Invalid is the marker value of a node whose computation failed,
// for example a division by zero.
var Invalid = math.NaN()

// IsInvalid checks for the invalid marker.
func IsInvalid(v float64) bool {
	return math.IsNaN(v)
}
