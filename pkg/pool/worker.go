package pool

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/animated/pkg/healthz"
)

// worker describes a single threaded worker entity synchronously working
// on commands provided by the pool workqueue.
type worker struct {
	logging.UnboundLogger
	pool *pool
}

func newWorker(p *pool, number int) *worker {
	lgr := logging.DynamicLogger(p.lctx, REALM,
		logging.NewAttribute("pool", p.name),
		logging.NewAttribute("worker", strconv.Itoa(number)),
	)

	return &worker{
		UnboundLogger: lgr,
		pool:          p,
	}
}

func (w *worker) Run() {
	w.Debug("starting worker")
	for w.processNextWorkItem() {
	}
	w.Debug("exit worker")
}

func (w *worker) internalErr(obj interface{}, err error) bool {
	w.LogError(err, "internal error")
	w.pool.workqueue.Forget(obj)
	return true
}

func catch(f func() Status) (result Status) {
	defer func() {
		if r := recover(); r != nil {
			if res, ok := r.(Status); ok {
				result = res
			} else {
				panic(r)
			}
		}
	}()
	return f()
}

func (w *worker) processNextWorkItem() bool {
	obj, shutdown := w.pool.workqueue.Get()
	if shutdown {
		return false
	}
	w.Debug("request", "key", obj)
	defer w.pool.workqueue.Done(obj)
	defer w.Debug("request done", "key", obj)
	healthz.Tick(w.pool.Key())

	key, ok := obj.(string)
	if !ok {
		return w.internalErr(obj, fmt.Errorf("expected string in workqueue but got %#v", obj))
	}
	cmd := Command(key)

	if cmd == tickCmd {
		w.pool.workqueue.AddAfter(key, tick)
		return true
	}

	actions := w.pool.GetActions(cmd.Name())
	if len(actions) == 0 {
		w.Error("no action found for command", "command", cmd)
		w.pool.workqueue.Forget(obj)
		return true
	}

	reqlog := w.pool.lctx.Logger(REALM).WithValues("pool", w.pool.name, "command", key)

	var err error
	ok = true
	var reschedule time.Duration = -1
	for _, action := range actions {
		status := catch(func() Status { return action.Command(w.pool, reqlog, cmd) })
		if !status.Completed {
			ok = false
		}
		if status.Error != nil {
			err = status.Error
			w.Error("command failed", "command", cmd, "error", err)
		}
		updateSchedule(&reschedule, status.Interval)
	}

	if err != nil {
		if ok && reschedule < 0 {
			w.Warn("add rate limited because of problem", "key", obj, "problem", err)
			// command cannot be executed yet, re-add to the queue rate-limited
			w.pool.workqueue.AddRateLimited(obj)
		} else {
			w.pool.workqueue.Forget(obj)
			if reschedule > 0 {
				w.Info("request reschedule", "key", obj, "delay", reschedule)
				w.pool.workqueue.AddAfter(obj, reschedule)
			} else {
				w.Info("command failed permanently", "key", obj, "problem", err)
			}
		}
		return true
	}

	if !ok {
		// failed temporarily, just re-add to the queue
		w.Info("redo command", "key", obj)
		w.pool.workqueue.AddRateLimited(obj)
		return true
	}

	w.pool.workqueue.Forget(obj)
	if reschedule < 0 || (w.pool.Period() > 0 && w.pool.Period() < reschedule) {
		reschedule = w.pool.Period()
	}
	if reschedule > 0 {
		w.Debug("reschedule", "key", obj, "delay", reschedule)
		w.pool.workqueue.AddAfter(obj, reschedule)
	}
	return true
}

func updateSchedule(reschedule *time.Duration, interval time.Duration) {
	if interval >= 0 && (*reschedule <= 0 || interval < *reschedule) {
		*reschedule = interval
	}
}
