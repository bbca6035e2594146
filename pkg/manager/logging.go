package manager

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/manager", "animated nodes manager")
