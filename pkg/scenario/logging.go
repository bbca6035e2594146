package scenario

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/scenario", "scenario replay")
