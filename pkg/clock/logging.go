package clock

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/clock", "frame clock")
