package pool

import (
	"strings"
	"sync"
	"time"

	"github.com/mandelsoft/logging"
)

type Action interface {
	Command(p Pool, log logging.Logger, cmd Command) Status
}

// ActionFunc is a function used as Action.
type ActionFunc func(p Pool, log logging.Logger, cmd Command) Status

func (f ActionFunc) Command(p Pool, log logging.Logger, cmd Command) Status {
	return f(p, log, cmd)
}

// Command is a work item of the form <name>[:<argument>].
type Command string

func NewCommand(name string, arg ...string) Command {
	if len(arg) == 0 {
		return Command(name)
	}
	return Command(name + ":" + strings.Join(arg, ":"))
}

func (c Command) String() string {
	return string(c)
}

func (c Command) Name() string {
	name, _, _ := strings.Cut(string(c), ":")
	return name
}

func (c Command) Arg() string {
	_, arg, _ := strings.Cut(string(c), ":")
	return arg
}

const tick = 30 * time.Second
const tickCmd = Command("TICK")

type actions []Action

func (l actions) add(a Action) actions {
	for _, r := range l {
		if r == a {
			return l
		}
	}
	return append(l, a)
}

type actionMapping struct {
	lock   sync.RWMutex
	values map[string]actions
}

func newActionMapping() *actionMapping {
	return &actionMapping{
		values: map[string]actions{},
	}
}

func (am *actionMapping) getActions(name string) actions {
	am.lock.RLock()
	defer am.lock.RUnlock()
	return append(actions(nil), am.values[name]...)
}

func (am *actionMapping) addAction(name string, a Action) {
	am.lock.Lock()
	defer am.lock.Unlock()
	am.values[name] = am.values[name].add(a)
}
