package healthz

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mandelsoft/goutils/maputils"
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/healthz", "health monitoring")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

type check struct {
	last    time.Time
	timeout time.Duration
}

var (
	checks = map[string]*check{}
	lock   sync.Mutex
)

// Start registers a check expected to tick at least every
// three periods.
func Start(key string, period time.Duration) {
	lock.Lock()
	defer lock.Unlock()

	checks[key] = &check{time.Now(), 3 * period}
}

// Tick reports a live check. Unknown keys are ignored.
func Tick(key string) {
	lock.Lock()
	defer lock.Unlock()

	if c := checks[key]; c != nil {
		c.last = time.Now()
	}
}

func End(key string) {
	lock.Lock()
	defer lock.Unlock()

	delete(checks, key)
}

func IsHealthy() bool {
	ok, _ := HealthInfo()
	return ok
}

// HealthInfo reports the health state and the last report of
// all checks.
func HealthInfo() (bool, string) {
	lock.Lock()
	defer lock.Unlock()

	ok := true
	now := time.Now()
	var info strings.Builder
	for _, key := range maputils.OrderedKeys(checks) {
		c := checks[key]
		delay := now.Sub(c.last)
		fmt.Fprintf(&info, "%s: %s\n", key, c.last.Format(time.RFC3339Nano))
		if delay > c.timeout {
			log.Warn("outdated health check", "key", key, "delay", delay)
			ok = false
		} else {
			log.Trace("last health report", "key", key, "delay", delay)
		}
	}
	return ok, info.String()
}
