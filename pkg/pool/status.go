package pool

import (
	"time"

	"github.com/mandelsoft/goutils/general"
)

// Status is the result of an action for a command.
//
//	Completed Error  handling
//	true      nil    done, periodic reschedule only
//	true      err    delayed, requeued rate limited
//	false     nil    redo, requeued rate limited
//	false     err    failed, command is dropped
type Status struct {
	Completed bool
	Error     error

	// Interval overrides the pool period for the next execution.
	// A negative value keeps the period, zero disables rescheduling.
	// For several actions the smallest non-negative interval wins.
	Interval time.Duration
}

// RescheduleAfter requests another execution after d, unless a
// shorter interval is already set.
func (s Status) RescheduleAfter(d time.Duration) Status {
	if s.Interval < 0 || d < s.Interval {
		s.Interval = d
	}
	return s
}

// Stop disables the periodic rescheduling for this execution.
func (s Status) Stop() Status {
	s.Interval = 0
	return s
}

func StatusCompleted(err ...error) Status {
	return Status{Completed: true, Error: general.Optional(err...), Interval: -1}
}

func StatusFailed(err error) Status {
	return Status{Error: err, Interval: -1}
}

func StatusRedo() Status {
	return Status{Interval: -1}
}
