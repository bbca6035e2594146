package drivers

import (
	"time"
)

// State is the lifecycle state of a driver.
//
//	Pending → Running → Finished
//	       ↘          ↘ Stopped
type State int

const (
	StatePending State = iota
	StateRunning
	StateFinished
	StateStopped
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateFinished:
		return "Finished"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// IsTerminal returns true for Finished and Stopped.
func (s State) IsTerminal() bool {
	return s == StateFinished || s == StateStopped
}

// EndResult is passed to the completion callback of a driver.
type EndResult struct {
	Finished bool    `json:"finished"`
	Value    float64 `json:"value"`
}

// EndCallback is called once a driver has finished or was stopped.
type EndCallback func(EndResult)

// FrameDuration is the frame period assumed by keyframed curves.
const FrameDuration = time.Second / 60

// Infinite can be used as iteration count for endless loops.
const Infinite = -1

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
