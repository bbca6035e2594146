package scenario

import (
	"fmt"
	"time"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/animated/pkg/clock"
	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	"github.com/mandelsoft/animated/pkg/manager"
	"github.com/mandelsoft/animated/pkg/metrics"
)

// Emission is a property update recorded during a run.
type Emission struct {
	Frame int            `json:"frame"`
	View  common.ViewTag `json:"view"`
	Props common.Props   `json:"props"`
}

// Result describes the observable outcome of a run.
type Result struct {
	Frames      int                                      `json:"frames"`
	Emissions   []Emission                               `json:"emissions,omitempty"`
	Values      map[common.Tag][]float64                 `json:"values,omitempty"`
	Animations  map[common.AnimationID]drivers.EndResult `json:"animations,omitempty"`
	Errors      []string                                 `json:"errors,omitempty"`
	Snapshot    *manager.Snapshot                        `json:"snapshot"`
	Fingerprint string                                   `json:"fingerprint"`
}

// Last provides the last props emitted for a view.
func (r *Result) Last(view common.ViewTag) common.Props {
	for i := len(r.Emissions) - 1; i >= 0; i-- {
		if r.Emissions[i].View == view {
			return r.Emissions[i].Props
		}
	}
	return nil
}

// Run replays the scenario against a new manager. The graph is set
// up before the first frame. Frames are processed until the manager
// is idle and no timed action is pending, but at most Frames frames.
// Errors of event dispatch are recorded in the result, all other
// errors abort the run.
func (s *Scenario) Run(lctx logging.Context) (*Result, error) {
	r, err := s.run(lctx)
	metrics.ObserveScenario(err)
	return r, err
}

func (s *Scenario) run(lctx logging.Context) (*Result, error) {
	if lctx == nil {
		lctx = logging.DefaultContext()
	}
	log := lctx.Logger(REALM).WithValues("scenario", s.Name)

	result := &Result{
		Values:     map[common.Tag][]float64{},
		Animations: map[common.AnimationID]drivers.EndResult{},
	}
	frame := 0
	m := manager.New(lctx, manager.SinkFunc(func(view common.ViewTag, props common.Props) {
		result.Emissions = append(result.Emissions, Emission{Frame: frame, View: view, Props: props})
	}))

	if err := s.Setup(m); err != nil {
		return nil, err
	}
	for _, tag := range s.Listen {
		err := m.StartListening(tag, func(v float64) {
			result.Values[tag] = append(result.Values[tag], v)
		})
		if err != nil {
			return nil, err
		}
	}
	hooks := Hooks{
		Done: func(id common.AnimationID, r drivers.EndResult) {
			result.Animations[id] = r
		},
		EventFailed: func(err error) {
			result.Errors = append(result.Errors, flatten(err)...)
		},
	}

	limit := s.Frames
	if limit == 0 {
		limit = DefaultFrames
	}
	last := s.LastFrame()

	log.Info("running scenario with {{nodes}} nodes for at most {{frames}} frames", "nodes", m.Len(), "frames", limit)
	sim := clock.NewSimulated(m, s.FramePeriod())
	for frame = 0; frame < limit; frame++ {
		if err := s.Apply(m, frame, hooks); err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
		if !sim.Tick() && frame >= last {
			frame++
			break
		}
	}
	m.StopAnimationLoop()
	result.Frames = frame

	result.Snapshot = m.Snapshot()
	fp, err := result.Snapshot.Fingerprint()
	if err != nil {
		return nil, err
	}
	result.Fingerprint = fp
	log.Info("scenario finished after {{frames}} frames with {{emissions}} emissions", "frames", result.Frames, "emissions", len(result.Emissions))
	return result, nil
}

// Setup creates the nodes, edges, view connections and event
// bindings of the scenario.
func (s *Scenario) Setup(m *manager.Manager) error {
	for _, n := range s.Nodes {
		if err := m.CreateNode(n.Tag, n.Config.Config); err != nil {
			return err
		}
	}
	for _, e := range s.Edges {
		if err := m.ConnectNodes(e.Parent, e.Child); err != nil {
			return err
		}
	}
	for _, v := range s.Views {
		if err := m.ConnectToView(v.Node, v.View, v.Name); err != nil {
			return err
		}
	}
	for _, b := range s.Bindings {
		if err := m.AddEventBinding(b.View, b.Name, b.Mapping); err != nil {
			return err
		}
	}
	return nil
}

// Hooks receive the outcome of timed actions.
type Hooks struct {
	// Done is called for finished or stopped animations.
	Done func(id common.AnimationID, r drivers.EndResult)
	// EventFailed is called if the dispatch of an event failed.
	EventFailed func(err error)
}

// Apply applies the timed actions of a frame in the order
// values, events, animations.
func (s *Scenario) Apply(m *manager.Manager, frame int, hooks Hooks) error {
	for _, v := range s.Values {
		if v.Frame != frame {
			continue
		}
		if v.Offset != nil {
			if err := m.SetOffset(v.Node, *v.Offset); err != nil {
				return err
			}
		}
		if v.Value != nil {
			if err := m.SetValue(v.Node, *v.Value); err != nil {
				return err
			}
		}
	}
	for _, e := range s.Events {
		if e.Frame != frame {
			continue
		}
		if err := m.HandleEvent(e.Event); err != nil && hooks.EventFailed != nil {
			hooks.EventFailed(err)
		}
	}
	for _, a := range s.Animations {
		if a.Frame != frame {
			continue
		}
		id := a.ID
		err := m.StartAnimating(id, a.Node, a.Config.Config, func(r drivers.EndResult) {
			if hooks.Done != nil {
				hooks.Done(id, r)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FramePeriod provides the configured frame period.
func (s *Scenario) FramePeriod() time.Duration {
	if s.Period > 0 {
		return time.Duration(s.Period * float64(time.Millisecond))
	}
	return clock.DefaultPeriod
}

// LastFrame provides the frame of the last timed action.
func (s *Scenario) LastFrame() int {
	last := 0
	for _, a := range s.Animations {
		last = max(last, a.Frame)
	}
	for _, v := range s.Values {
		last = max(last, v.Frame)
	}
	for _, e := range s.Events {
		last = max(last, e.Frame)
	}
	return last
}

func flatten(err error) []string {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var list []string
		for _, e := range j.Unwrap() {
			list = append(list, flatten(e)...)
		}
		return list
	}
	return []string{err.Error()}
}
