// Package pool provides a service executing commands with a fixed
// number of workers fed by a rate limiting work queue.
//
// A command is a string of the form <name>[:<argument>]. Actions are
// registered for command names. The Status returned by the actions
// decides whether a command is finished, repeated or rescheduled.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mandelsoft/logging"
	"k8s.io/client-go/util/workqueue"

	"github.com/mandelsoft/animated/pkg/healthz"
	"github.com/mandelsoft/animated/pkg/service"
)

var REALM = logging.DefineRealm("animated/pool", "worker pool")

type Queue = workqueue.RateLimitingInterface

type Pool interface {
	service.Service

	GetName() string
	Period() time.Duration

	AddAction(name string, a Action)
	GetActions(name string) []Action

	EnqueueCommand(cmd Command)
	EnqueueCommandRateLimited(cmd Command)
	EnqueueCommandAfter(cmd Command, duration time.Duration)

	QueueLength() int
}

type pool struct {
	logging.UnboundLogger
	name      string
	size      int
	lctx      logging.Context
	period    time.Duration
	workqueue Queue
	actions   *actionMapping
	key       string
	ready     service.Trigger
	syncher   service.Syncher
}

var _ Pool = (*pool)(nil)

// NewPool creates a pool with size workers. With a period greater
// than zero, successfully executed commands are repeated with this
// period.
func NewPool(lctx logging.Context, name string, size int, period time.Duration) Pool {
	if lctx == nil {
		lctx = logging.DefaultContext()
	}
	if size < 1 {
		size = 1
	}
	pool := &pool{
		UnboundLogger: logging.DynamicLogger(lctx, REALM, logging.NewAttribute("pool", name)),
		name:          name,
		size:          size,
		period:        period,
		lctx:          lctx,
		key:           fmt.Sprintf("pool %s", name),
		workqueue: workqueue.NewRateLimitingQueueWithConfig(workqueue.DefaultControllerRateLimiter(), workqueue.RateLimitingQueueConfig{
			Name: name,
		}),
		actions: newActionMapping(),
	}

	if pool.period != 0 {
		pool.Info("created pool", "size", pool.size, "resync period", pool.period.String())
	} else {
		pool.Info("created pool", "size", pool.size)
	}
	return pool
}

func (p *pool) AddAction(name string, a Action) {
	p.Info("adding action", "type", fmt.Sprintf("%T", a), "command", name)
	p.actions.addAction(name, a)
}

func (p *pool) GetActions(name string) []Action {
	return p.actions.getActions(name)
}

func (p *pool) GetName() string {
	return p.name
}

func (p *pool) Key() string {
	return p.key
}

func (p *pool) Period() time.Duration {
	return p.period
}

func (p *pool) QueueLength() int {
	return p.workqueue.Len()
}

func (p *pool) Wait() error {
	if p.syncher == nil {
		return nil
	}
	return p.syncher.Wait()
}

func (p *pool) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	if p.syncher == nil {
		wg := &sync.WaitGroup{}
		wg.Add(1)
		p.syncher = service.Sync(wg)
		p.ready = service.SyncTrigger()
		go func() {
			defer wg.Done()
			p.run(ctx)
		}()
	}
	return p.ready, p.syncher, nil
}

func (p *pool) run(ctx context.Context) {
	p.Info("starting worker pool", "workers", p.size)
	period := p.period
	if period == 0 {
		p.Debug("no reconcile period active -> start ticker")
		period = tick
	}
	healthz.Start(p.Key(), period)

	// always run periodic tickCmd to deal with empty workqueue
	p.workqueue.AddAfter(string(tickCmd), period)

	workers := &sync.WaitGroup{}
	for i := 0; i < p.size; i++ {
		workers.Add(1)
		go func(number int) {
			defer workers.Done()
			newWorker(p, number).Run()
		}(i)
	}

	p.ready.Trigger()

	<-ctx.Done()
	p.workqueue.ShutDown()
	p.Info("waiting for pool workers to shutdown")
	workers.Wait()
	healthz.End(p.Key())
}

func (p *pool) EnqueueCommand(cmd Command) {
	p.workqueue.Add(string(cmd))
}

func (p *pool) EnqueueCommandRateLimited(cmd Command) {
	p.workqueue.AddRateLimited(string(cmd))
}

func (p *pool) EnqueueCommandAfter(cmd Command, duration time.Duration) {
	p.workqueue.AddAfter(string(cmd), duration)
}
