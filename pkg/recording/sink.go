package recording

import (
	"fmt"

	"github.com/mandelsoft/animated/pkg/common"
)

// Emission is a recorded ApplyProps call.
type Emission struct {
	View  common.ViewTag
	Props common.Props
}

func (e Emission) String() string {
	return fmt.Sprintf("%s: %v", e.View, e.Props)
}

// Sink records all property updates.
type Sink struct {
	Emissions []Emission
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) ApplyProps(view common.ViewTag, props common.Props) {
	s.Emissions = append(s.Emissions, Emission{View: view, Props: props})
}

// Last provides the last emission for the given view, or nil.
func (s *Sink) Last(view common.ViewTag) common.Props {
	for i := len(s.Emissions) - 1; i >= 0; i-- {
		if s.Emissions[i].View == view {
			return s.Emissions[i].Props
		}
	}
	return nil
}

// Reset forgets all recorded emissions.
func (s *Sink) Reset() {
	s.Emissions = nil
}

// Recorder records driver completions and listener values.
type Recorder[T any] struct {
	Values []T
}

func (r *Recorder[T]) Record(v T) {
	r.Values = append(r.Values, v)
}
