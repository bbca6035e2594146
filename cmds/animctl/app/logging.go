package app

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/animctl", "animated command line tool")
