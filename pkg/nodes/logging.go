package nodes

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/nodes", "animated graph nodes")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
