package watch

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/watch", "node value watch endpoint")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
