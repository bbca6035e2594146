package watch

import (
	"sync"

	"github.com/mandelsoft/goutils/maputils"
	"github.com/mandelsoft/goutils/matcher"
	"github.com/mandelsoft/goutils/sliceutils"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/animated/pkg/clock"
	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/manager"
)

// Request registers a watch for the values of the given nodes.
type Request struct {
	Nodes []common.Tag `json:"nodes"`
}

// Event reports a new value of a node.
type Event struct {
	Node  common.Tag `json:"node"`
	Value float64    `json:"value"`
}

type ValueHandler = EventHandler[Event]

// Executor executes commands on the goroutine owning a manager.
type Executor interface {
	Do(cmd clock.Command) error
}

// ValueRegistry dispatches listener values of a manager to watch
// handlers. A listener is registered for a node as long as at least
// one handler watches it. A new handler gets the current value of
// its nodes.
type ValueRegistry struct {
	lock      sync.Mutex
	exec      Executor
	handlers  map[common.Tag][]ValueHandler
	listening sets.Set[common.Tag]
}

var _ Registry[Request, Event] = (*ValueRegistry)(nil)

func NewValueRegistry(exec Executor) *ValueRegistry {
	return &ValueRegistry{
		exec:      exec,
		handlers:  map[common.Tag][]ValueHandler{},
		listening: sets.New[common.Tag](),
	}
}

func (r *ValueRegistry) RegisterWatchHandler(req Request, h ValueHandler) {
	tags := sliceutils.AppendUnique([]common.Tag(nil), req.Nodes...)
	r.lock.Lock()
	for _, tag := range tags {
		r.handlers[tag] = append(r.handlers[tag], h)
	}
	r.lock.Unlock()

	for _, tag := range tags {
		err := r.exec.Do(func(m *manager.Manager) {
			r.sync(m, tag)
			err := m.GetValue(tag, func(v float64) {
				if !common.IsInvalid(v) {
					h.HandleEvent(Event{Node: tag, Value: v})
				}
			})
			if err != nil {
				log.LogError(err, "cannot provide value of node {{node}}", "node", tag)
			}
		})
		if err != nil {
			log.LogError(err, "cannot watch node {{node}}", "node", tag)
		}
	}
}

func (r *ValueRegistry) UnregisterWatchHandler(req Request, h ValueHandler) {
	var tags []common.Tag
	r.lock.Lock()
	for _, tag := range sliceutils.AppendUnique([]common.Tag(nil), req.Nodes...) {
		list := sliceutils.Filter(r.handlers[tag], matcher.Not(matcher.Contains(h)))
		if len(list) == 0 {
			delete(r.handlers, tag)
		} else {
			r.handlers[tag] = list
		}
		tags = append(tags, tag)
	}
	r.lock.Unlock()

	for _, tag := range tags {
		if err := r.exec.Do(func(m *manager.Manager) { r.sync(m, tag) }); err != nil {
			log.Debug("cannot unwatch node {{node}}: {{error}}", "node", tag, "error", err)
		}
	}
}

// Watched lists the nodes with registered handlers.
func (r *ValueRegistry) Watched() []common.Tag {
	r.lock.Lock()
	defer r.lock.Unlock()
	return maputils.OrderedKeys(r.handlers)
}

// Trigger passes an event to all handlers watching its node.
func (r *ValueRegistry) Trigger(evt Event) {
	r.lock.Lock()
	list := append([]ValueHandler(nil), r.handlers[evt.Node]...)
	r.lock.Unlock()

	log.Trace("trigger event {{event}} for {{amount}} handlers", "event", evt, "amount", len(list))
	for _, h := range list {
		h.HandleEvent(evt)
	}
}

// sync adjusts the listener of a node to the registered handlers.
// It is called on the goroutine owning the manager, so decisions
// always reflect the latest registrations.
func (r *ValueRegistry) sync(m *manager.Manager, tag common.Tag) {
	r.lock.Lock()
	want := len(r.handlers[tag]) > 0
	has := r.listening.Has(tag)
	r.lock.Unlock()

	switch {
	case want && !has:
		err := m.StartListening(tag, func(v float64) {
			r.Trigger(Event{Node: tag, Value: v})
		})
		if err != nil {
			log.LogError(err, "cannot listen to node {{node}}", "node", tag)
			return
		}
		log.Debug("listening to node {{node}}", "node", tag)
		r.lock.Lock()
		r.listening.Insert(tag)
		r.lock.Unlock()
	case !want && has:
		m.StopListening(tag)
		log.Debug("stopped listening to node {{node}}", "node", tag)
		r.lock.Lock()
		r.listening.Delete(tag)
		r.lock.Unlock()
	}
}
