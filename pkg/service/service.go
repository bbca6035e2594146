package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mandelsoft/goutils/sliceutils"
)

// Service is a long running component bound to a context.
// Start provides a syncher signalling readiness and one
// signalling termination.
type Service interface {
	Start(ctx context.Context) (ready Syncher, done Syncher, err error)
	Wait() error
}

// Services manages a set of services sharing a context. A failing
// start cancels the context for all services.
type Services interface {
	Add(s Service) error
	Start(st ...Service) error
	Cancel()
	Wait() error
}

type services struct {
	lock     sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	services map[Service]Syncher
	order    []Service
	started  bool
	wg       *sync.WaitGroup
	errs     []error
}

func New(ctx context.Context) Services {
	ctx, cancel := context.WithCancel(ctx)
	return &services{
		ctx:      ctx,
		cancel:   cancel,
		services: map[Service]Syncher{},
		wg:       &sync.WaitGroup{},
	}
}

func (t *services) Add(s Service) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.services[s]; ok {
		return nil
	}
	if t.started {
		ready, err := t.start(s)
		if err != nil {
			return err
		}
		if ready != nil {
			if err := ready.Wait(); err != nil {
				t.cancel()
				return err
			}
		}
	} else {
		t.services[s] = nil
		t.order = append(t.order, s)
	}
	return nil
}

// Start starts the given services, or all added services if
// none is given.
func (t *services) Start(st ...Service) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(st) == 0 {
		if t.started {
			return nil
		}
		t.started = true
		return t.startServices(t.order...)
	}
	for _, s := range st {
		if _, ok := t.services[s]; !ok {
			t.order = append(t.order, s)
		}
	}
	return t.startServices(st...)
}

func (t *services) startServices(list ...Service) error {
	var ready []Syncher
	for _, s := range sliceutils.AppendUnique([]Service(nil), list...) {
		if t.services[s] != nil {
			continue
		}
		r, err := t.start(s)
		if err != nil {
			return err
		}
		if r != nil {
			ready = append(ready, r)
		}
	}

	for _, r := range ready {
		if err := r.Wait(); err != nil {
			t.cancel()
			return err
		}
	}
	return nil
}

func (t *services) start(s Service) (Syncher, error) {
	ready, done, err := s.Start(t.ctx)
	if err != nil || done == nil {
		t.cancel()
		if err == nil {
			err = fmt.Errorf("service %T does not return a done syncher", s)
		} else {
			err = fmt.Errorf("service %T: %w", s, err)
		}
		return nil, err
	}
	t.services[s] = done
	t.wg.Add(1)
	go func() {
		err := done.Wait()
		if err != nil {
			t.lock.Lock()
			t.errs = append(t.errs, err)
			t.lock.Unlock()
		}
		t.wg.Done()
	}()
	return ready, nil
}

// Cancel cancels the context of all services.
func (t *services) Cancel() {
	t.cancel()
}

func (t *services) Wait() error {
	t.wg.Wait()
	t.lock.Lock()
	defer t.lock.Unlock()
	return errors.Join(t.errs...)
}
