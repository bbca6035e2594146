package drivers

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/drivers", "animation drivers")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
