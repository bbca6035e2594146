package manager

import (
	"github.com/mandelsoft/animated/pkg/common"
)

// Sink applies property values to host views. A nil value requests
// the view default for a property.
type Sink interface {
	ApplyProps(view common.ViewTag, props common.Props)
}

// SinkFunc is a function used as Sink.
type SinkFunc func(view common.ViewTag, props common.Props)

func (f SinkFunc) ApplyProps(view common.ViewTag, props common.Props) {
	f(view, props)
}

// Observer is called with the new value of a listened node.
type Observer func(value float64)

type nullSink struct{}

func (nullSink) ApplyProps(common.ViewTag, common.Props) {}
