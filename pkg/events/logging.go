package events

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/events", "event bindings")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
