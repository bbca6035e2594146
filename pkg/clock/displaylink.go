// Package clock provides frame sources driving a nodes manager.
//
// DisplayLink is a service calling Manager.Step on its own goroutine
// once per frame period. Commands for the manager are passed with
// Do or Call and are executed on the same goroutine in issue order.
// The frame ticker is paused while the manager is idle.
//
// Simulated steps a manager with a fixed frame period without
// real time, for tests and scenario replay.
package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/animated/pkg/healthz"
	"github.com/mandelsoft/animated/pkg/manager"
	"github.com/mandelsoft/animated/pkg/metrics"
	"github.com/mandelsoft/animated/pkg/service"
)

// DefaultPeriod is the frame period of a display with 60 Hz.
const DefaultPeriod = time.Second / 60

const heartbeat = time.Second

// Command is an operation executed on the clock goroutine.
type Command func(m *manager.Manager)

var (
	ErrNotStarted = errors.New("display link not started")
	ErrStopped    = errors.New("display link stopped")
)

const queueSize = 64

type DisplayLink struct {
	mgr    *manager.Manager
	period time.Duration
	log    logging.Logger
	key    string

	cmds    chan Command
	started chan struct{}
	stopped chan struct{}
	done    service.Syncher
	frames  int
}

var _ service.Service = (*DisplayLink)(nil)

// NewDisplayLink creates a display link for a manager. A zero
// period selects DefaultPeriod.
func NewDisplayLink(lctx logging.Context, m *manager.Manager, period time.Duration) *DisplayLink {
	if lctx == nil {
		lctx = logging.DefaultContext()
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &DisplayLink{
		mgr:     m,
		period:  period,
		log:     lctx.Logger(REALM).WithValues("manager", m.ID()),
		key:     "displaylink/" + m.ID(),
		cmds:    make(chan Command, queueSize),
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (d *DisplayLink) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	if d.done != nil {
		return nil, nil, fmt.Errorf("display link already started")
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	d.done = service.Sync(wg)
	ready := service.SyncTrigger()
	healthz.Start(d.key, heartbeat)
	close(d.started)
	go func() {
		defer wg.Done()
		defer close(d.stopped)
		defer healthz.End(d.key)
		ready.Trigger()
		d.run(ctx)
	}()
	return ready, d.done, nil
}

func (d *DisplayLink) Wait() error {
	if d.done == nil {
		return nil
	}
	return d.done.Wait()
}

// Do queues a command for the clock goroutine. Before Start, up to
// queueSize commands are buffered and further ones fail with
// ErrNotStarted. Commands issued after the display link has stopped
// are ignored with ErrStopped.
func (d *DisplayLink) Do(cmd Command) error {
	select {
	case <-d.stopped:
		d.log.Debug("display link stopped, command ignored")
		return ErrStopped
	default:
	}
	select {
	case d.cmds <- cmd:
		return nil
	default:
	}
	if !d.isStarted() {
		d.log.Warn("display link not started, command queue full")
		return ErrNotStarted
	}
	select {
	case d.cmds <- cmd:
		return nil
	case <-d.stopped:
		d.log.Debug("display link stopped, command ignored")
		return ErrStopped
	}
}

// Call executes a command on the clock goroutine and waits for its
// result. It requires a started display link.
func (d *DisplayLink) Call(cmd func(m *manager.Manager) error) error {
	if !d.isStarted() {
		return ErrNotStarted
	}
	result := make(chan error, 1)
	select {
	case d.cmds <- func(m *manager.Manager) { result <- cmd(m) }:
	case <-d.stopped:
		return ErrStopped
	}
	select {
	case err := <-result:
		return err
	case <-d.stopped:
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	}
}

func (d *DisplayLink) isStarted() bool {
	select {
	case <-d.started:
		return true
	default:
		return false
	}
}

func (d *DisplayLink) run(ctx context.Context) {
	d.log.Info("display link started with period {{period}}", "period", d.period)
	start := time.Now()
	beat := time.NewTicker(heartbeat)
	defer beat.Stop()

	var ticker *time.Ticker
	var frames <-chan time.Time
	resume := func() {
		if frames != nil {
			return
		}
		if ticker == nil {
			ticker = time.NewTicker(d.period)
		} else {
			ticker.Reset(d.period)
		}
		frames = ticker.C
		d.log.Debug("resuming frames")
	}
	pause := func() {
		if frames == nil {
			return
		}
		ticker.Stop()
		frames = nil
		d.log.Debug("pausing frames after {{frames}} frames", "frames", d.frames)
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			d.mgr.StopAnimationLoop()
			d.log.Info("display link stopped after {{frames}} frames", "frames", d.frames)
			return
		case cmd := <-d.cmds:
			cmd(d.mgr)
			metrics.ObserveCommand()
			if d.mgr.IsActive() {
				resume()
			}
		case <-frames:
			d.frames++
			now := time.Now()
			active := d.mgr.Step(now.Sub(start))
			metrics.ObserveStep(time.Since(now), active)
			if !active {
				pause()
			}
		case <-beat.C:
			healthz.Tick(d.key)
		}
	}
}
