package clock

import (
	"time"

	"github.com/mandelsoft/animated/pkg/manager"
)

// Simulated steps a manager with a fixed frame period. The first
// frame is processed at time zero.
type Simulated struct {
	mgr    *manager.Manager
	period time.Duration
	now    time.Duration
	frames int
}

func NewSimulated(m *manager.Manager, period time.Duration) *Simulated {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Simulated{mgr: m, period: period}
}

func (s *Simulated) Manager() *manager.Manager {
	return s.mgr
}

// Now provides the time of the next frame.
func (s *Simulated) Now() time.Duration {
	return s.now
}

// Frames provides the number of processed frames.
func (s *Simulated) Frames() int {
	return s.frames
}

// Tick processes one frame and reports whether the manager
// requires further frames.
func (s *Simulated) Tick() bool {
	active := s.mgr.Step(s.now)
	s.now += s.period
	s.frames++
	return active
}

// Run processes frames until the manager is idle, but at most max
// frames. It provides the number of processed frames.
func (s *Simulated) Run(max int) int {
	n := 0
	for n < max {
		n++
		if !s.Tick() {
			break
		}
	}
	return n
}

// Advance processes all frames before the given time.
func (s *Simulated) Advance(until time.Duration) int {
	n := 0
	for s.now < until {
		s.Tick()
		n++
	}
	return n
}
